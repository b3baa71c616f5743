package monitoring

import (
	"math"
	"sort"
	"time"

	"github.com/wilhg/wellagent/pkg/wellness"
)

// Summary aggregates a window of monitoring entries. CompletionRate is a
// rounded percentage, streaks are in calendar days and the averages map
// low/medium/high onto 1..3.
type Summary struct {
	Total             int            `json:"total"`
	Completed         int            `json:"completed"`
	CompletionRate    int            `json:"completionRate"`
	CurrentStreak     int            `json:"currentStreak"`
	LongestStreak     int            `json:"longestStreak"`
	AverageEnergy     float64        `json:"averageEnergy"`
	AverageMotivation float64        `json:"averageMotivation"`
	Deviations        int            `json:"deviations"`
	ByActivity        map[string]int `json:"byActivity,omitempty"`
}

var levelScore = map[string]float64{"low": 1, "medium": 2, "high": 3}

// Summarize computes completion and streak analytics. Streaks count
// consecutive calendar days with at least one completed entry; the current
// streak ends at the most recent completed day.
func Summarize(entries []wellness.MonitoringEntry) Summary {
	s := Summary{Total: len(entries)}
	if len(entries) == 0 {
		return s
	}
	days := make(map[time.Time]bool)
	var energySum, energyN, motSum, motN float64
	for _, e := range entries {
		if e.IsDeviation {
			s.Deviations++
		}
		if v, ok := levelScore[e.EnergyLevel]; ok {
			energySum += v
			energyN++
		}
		if v, ok := levelScore[e.Motivation]; ok {
			motSum += v
			motN++
		}
		if !e.Completed {
			continue
		}
		s.Completed++
		if s.ByActivity == nil {
			s.ByActivity = make(map[string]int)
		}
		s.ByActivity[e.ActivityType]++
		d := e.Date.UTC()
		days[time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)] = true
	}
	s.CompletionRate = int(math.Round(float64(s.Completed) / float64(s.Total) * 100))
	s.AverageEnergy = round1(energySum, energyN)
	s.AverageMotivation = round1(motSum, motN)

	ordered := make([]time.Time, 0, len(days))
	for d := range days {
		ordered = append(ordered, d)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].After(ordered[j]) })
	run := 0
	for i, d := range ordered {
		if i > 0 && ordered[i-1].Sub(d) == 24*time.Hour {
			run++
		} else {
			if i > 0 && s.CurrentStreak == 0 {
				s.CurrentStreak = run
			}
			run = 1
		}
		if run > s.LongestStreak {
			s.LongestStreak = run
		}
	}
	if s.CurrentStreak == 0 {
		s.CurrentStreak = run
	}
	return s
}

func round1(sum, n float64) float64 {
	if n == 0 {
		return 0
	}
	return math.Round(sum/n*10) / 10
}
