package monitoring

import (
	"testing"

	"github.com/wilhg/wellagent/pkg/wellness"
)

// history returns entries newest first, as ComputeRun expects.
func history(completed ...bool) []wellness.MonitoringEntry {
	out := make([]wellness.MonitoringEntry, len(completed))
	for i, c := range completed {
		out[len(completed)-1-i] = wellness.MonitoringEntry{Completed: c}
	}
	return out
}

func TestComputeRun_StreakExtends(t *testing.T) {
	for k := 0; k < 10; k++ {
		prior := make([]bool, k)
		for i := range prior {
			prior[i] = true
		}
		// an older miss must not affect the run
		r := ComputeRun(history(append([]bool{false}, prior...)...), true)
		if r.StreakCount != k+1 || r.ConsecutiveMisses != 0 || r.IsDeviation {
			t.Fatalf("k=%d: %+v", k, r)
		}
	}
}

func TestComputeRun_MissesExtendAndDeviate(t *testing.T) {
	for m := 0; m < 6; m++ {
		prior := make([]bool, m)
		r := ComputeRun(history(append([]bool{true}, prior...)...), false)
		if r.ConsecutiveMisses != m+1 || r.StreakCount != 0 {
			t.Fatalf("m=%d: %+v", m, r)
		}
		if !r.IsDeviation || r.DeviationType != wellness.DeviationMissed {
			t.Fatalf("m=%d: miss must deviate: %+v", m, r)
		}
	}
}

func TestComputeRun_CompletedAfterMissesIsNotDeviation(t *testing.T) {
	r := ComputeRun(history(false, false, false, false), true)
	if r.IsDeviation || r.StreakCount != 1 || r.ConsecutiveMisses != 0 || r.DeviationType != "" {
		t.Fatalf("%+v", r)
	}
}

func TestComputeRun_WeekScenario(t *testing.T) {
	seq := []bool{true, true, true, false, true, true, true}
	wantStreak := []int{1, 2, 3, 0, 1, 2, 3}
	wantMisses := []int{0, 0, 0, 1, 0, 0, 0}
	wantDev := []bool{false, false, false, true, false, false, false}
	for i, c := range seq {
		r := ComputeRun(history(seq[:i]...), c)
		if r.StreakCount != wantStreak[i] || r.ConsecutiveMisses != wantMisses[i] || r.IsDeviation != wantDev[i] {
			t.Fatalf("day %d: got %+v", i+1, r)
		}
	}
}
