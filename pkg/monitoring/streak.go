// Package monitoring derives streak and deviation data for the activity
// time series and serializes writes per user.
package monitoring

import "github.com/wilhg/wellagent/pkg/wellness"

// MissThreshold is the number of consecutive misses that is tolerated
// before an entry is flagged regardless of its own completion.
const MissThreshold = 2

// Run holds the fields derived for a new entry.
type Run struct {
	StreakCount       int
	ConsecutiveMisses int
	IsDeviation       bool
	DeviationType     string
}

// ComputeRun derives the run fields for a new entry. prior must contain
// entries strictly earlier than the new one, newest first. Scanning stops
// at the first entry that breaks the run.
func ComputeRun(prior []wellness.MonitoringEntry, completed bool) Run {
	var r Run
	for _, e := range prior {
		if e.Completed != completed {
			break
		}
		if completed {
			r.StreakCount++
		} else {
			r.ConsecutiveMisses++
		}
	}
	if completed {
		r.StreakCount++
	} else {
		r.ConsecutiveMisses++
		r.DeviationType = wellness.DeviationMissed
	}
	r.IsDeviation = !completed || r.ConsecutiveMisses > MissThreshold
	return r
}

// Apply copies the run fields onto e.
func (r Run) Apply(e *wellness.MonitoringEntry) {
	e.StreakCount = r.StreakCount
	e.ConsecutiveMisses = r.ConsecutiveMisses
	e.IsDeviation = r.IsDeviation
	e.DeviationType = r.DeviationType
}
