package monitoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wilhg/wellagent/pkg/wellness"
)

func TestSummarize(t *testing.T) {
	entries := []wellness.MonitoringEntry{
		{Date: day(1), Completed: true, ActivityType: "walk", EnergyLevel: "low"},
		{Date: day(2), Completed: true, ActivityType: "walk", EnergyLevel: "high"},
		{Date: day(3), Completed: true, ActivityType: "yoga"},
		{Date: day(4), Completed: false, ActivityType: "walk", IsDeviation: true},
		{Date: day(6), Completed: true, ActivityType: "walk", Motivation: "medium"},
		{Date: day(7), Completed: true, ActivityType: "walk"},
	}
	s := Summarize(entries)
	assert.Equal(t, 6, s.Total)
	assert.Equal(t, 5, s.Completed)
	assert.Equal(t, 83, s.CompletionRate)
	assert.Equal(t, 2, s.CurrentStreak)
	assert.Equal(t, 3, s.LongestStreak)
	assert.Equal(t, 2.0, s.AverageEnergy)
	assert.Equal(t, 2.0, s.AverageMotivation)
	assert.Equal(t, 1, s.Deviations)
	assert.Equal(t, map[string]int{"walk": 4, "yoga": 1}, s.ByActivity)
}

func TestSummarize_Empty(t *testing.T) {
	assert.Equal(t, Summary{}, Summarize(nil))
}
