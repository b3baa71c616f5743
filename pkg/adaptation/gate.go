// Package adaptation owns the lifecycle of adaptation decisions: turning an
// adaptation agent output into a record, deciding whether it may be applied
// without the user, applying it and recording the user's verdict.
//
// States: proposed -> approved -> implemented, proposed -> rejected, and
// proposed -> implemented for changes that pass the autonomy gate.
package adaptation

import "github.com/wilhg/wellagent/pkg/wellness"

// AutonomyThreshold is the confidence a change must exceed to be applied
// without approval. Equal is not enough.
const AutonomyThreshold = 0.75

// Autonomous reports whether a decision may be applied without the user.
func Autonomous(autonomous bool, confidence float64) bool {
	return autonomous && confidence > AutonomyThreshold
}

// PassesGate applies Autonomous to a stored record.
func PassesGate(a wellness.Adaptation) bool {
	return Autonomous(a.Autonomous, a.Confidence)
}
