package wellness

import (
	"time"

	"github.com/wilhg/wellagent/pkg/errmodel"
)

type GoalStatus string

const (
	GoalActive    GoalStatus = "active"
	GoalPaused    GoalStatus = "paused"
	GoalCompleted GoalStatus = "completed"
	GoalAbandoned GoalStatus = "abandoned"
)

// Terminal reports whether no further status change is allowed.
func (s GoalStatus) Terminal() bool { return s == GoalCompleted || s == GoalAbandoned }

// CanTransition reports whether a goal may move from s to next.
// A paused goal may be resumed; completed and abandoned goals are final.
func (s GoalStatus) CanTransition(next GoalStatus) bool {
	switch s {
	case GoalActive:
		return next == GoalPaused || next == GoalCompleted || next == GoalAbandoned
	case GoalPaused:
		return next == GoalActive || next == GoalCompleted || next == GoalAbandoned
	default:
		return false
	}
}

// Goal is a SMART goal with explicit tolerance for missed sessions.
type Goal struct {
	ID               string     `json:"id"`
	UserID           string     `json:"userId"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	Category         string     `json:"category"`
	Status           GoalStatus `json:"status"`
	Specific         string     `json:"specific"`
	Measurable       string     `json:"measurable"`
	Achievable       string     `json:"achievable"`
	Relevant         string     `json:"relevant"`
	TimeBound        string     `json:"timeBound"`
	BaselineValue    float64    `json:"baselineValue"`
	CurrentValue     float64    `json:"currentValue"`
	TargetValue      float64    `json:"targetValue"`
	Unit             string     `json:"unit"`
	AllowedMisses    int        `json:"allowedMisses"`
	RecoveryStrategy string     `json:"recoveryStrategy"`
	FallbackGoal     string     `json:"fallbackGoal"`
	Deadline         *time.Time `json:"deadline,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// Transition moves the goal to next or returns a conflict error.
func (g *Goal) Transition(next GoalStatus) error {
	if g.Status == next {
		return nil
	}
	if !g.Status.CanTransition(next) {
		return errmodel.Conflict("goal status transition not allowed", map[string]any{
			"goal": g.ID, "from": string(g.Status), "to": string(next),
		})
	}
	g.Status = next
	return nil
}

// GoalRequest is the manual-entry shape used when no reasoning backend is
// available.
type GoalRequest struct {
	Category    string
	Description string
	TargetValue float64
	Unit        string
	Deadline    time.Time
}
