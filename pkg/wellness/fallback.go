package wellness

import (
	"fmt"
	"math"
	"strings"
	"time"
)

const fallbackWeeks = 4

var (
	threeDays = []string{"Monday", "Wednesday", "Friday"}
	fourDays  = []string{"Monday", "Wednesday", "Friday", "Saturday"}
)

// DefaultProgressionRules and DefaultRegressionRules accompany every
// deterministic plan.
var (
	DefaultProgressionRules = []string{
		"Increase duration by 5min if completing 80%+ of activities",
		"Add 1 day if consistent for 2 weeks",
	}
	DefaultRegressionRules = []string{
		"Reduce duration by 5min if missing 40%+ of activities",
		"Remove 1 day if struggling for 2 weeks",
	}
)

// FallbackPlan builds the deterministic four-week gradual plan used when
// no reasoning backend is configured. It ramps from three 20 minute
// sessions to four 30 minute sessions.
func FallbackPlan(g Goal, start time.Time) (Plan, string) {
	start = start.UTC()
	activity := g.Description
	if activity == "" {
		activity = g.Title
	}
	blocks := []ActivityBlock{
		{Week: 1, Days: clone(threeDays), Activity: activity, DurationMinutes: 20, Intensity: "low"},
		{Week: 2, Days: clone(threeDays), Activity: activity, DurationMinutes: 25, Intensity: "low"},
		{Week: 3, Days: clone(fourDays), Activity: activity, DurationMinutes: 25, Intensity: "medium"},
		{Week: 4, Days: clone(fourDays), Activity: activity, DurationMinutes: 30, Intensity: "medium"},
	}
	p := Plan{
		GoalID:              g.ID,
		UserID:              g.UserID,
		Title:               fmt.Sprintf("%s - %d Week Plan", g.Title, fallbackWeeks),
		Description:         "Progressive plan for: " + activity,
		Status:              PlanActive,
		StrategyType:        StrategyGradual,
		StartDate:           start,
		EndDate:             start.AddDate(0, 0, 7*fallbackWeeks),
		CurrentWeek:         1,
		PhysicalLoad:        5,
		CognitiveLoad:       3,
		SustainabilityScore: 8,
		Activities:          blocks,
		ProgressionRules:    clone(DefaultProgressionRules),
		RegressionRules:     clone(DefaultRegressionRules),
		FallbackPlan:        FallbackBlocks(activity),
		RecoveryPlan:        RecoveryBlocks(activity),
		HasFallback:         true,
		Version:             1,
	}
	reasoning := "Created a 4-week progressive plan with gradual intensity increase. Starting with 3 sessions per week, building up to 4 sessions by week 3."
	return p, reasoning
}

// FallbackBlocks is the reduced sequence used when a user is struggling.
func FallbackBlocks(activity string) []ActivityBlock {
	return []ActivityBlock{{Week: 1, Days: []string{"Monday", "Wednesday"}, Activity: activity, DurationMinutes: 15, Intensity: "very-low"}}
}

// RecoveryBlocks is the minimal restart sequence after a break.
func RecoveryBlocks(activity string) []ActivityBlock {
	return []ActivityBlock{{Week: 1, Days: []string{"Monday"}, Activity: activity, DurationMinutes: 10, Intensity: "very-low", Note: "Restart gently"}}
}

// FallbackGoal turns manual input into an active goal without calling a
// model. The easier fallback target is 70% of the requested one.
func FallbackGoal(userID string, req GoalRequest, now time.Time) (Goal, string) {
	category := strings.TrimSpace(req.Category)
	if category == "" {
		category = "fitness"
	}
	unit := req.Unit
	if unit == "" {
		unit = "sessions"
	}
	target := fmt.Sprintf("%s %s", formatNumber(req.TargetValue), unit)
	desc := req.Description
	if desc == "" {
		desc = "Achieve " + target
	}
	deadline := req.Deadline
	if deadline.IsZero() {
		deadline = now.AddDate(0, 0, 7*fallbackWeeks)
	}
	deadline = deadline.UTC()
	g := Goal{
		UserID:           userID,
		Title:            strings.ToUpper(category[:1]) + category[1:] + " Goal",
		Description:      desc,
		Category:         category,
		Status:           GoalActive,
		Specific:         desc,
		Measurable:       target,
		Achievable:       "Based on user input and available time",
		Relevant:         "User wants to improve " + category,
		TimeBound:        "By " + deadline.Format("2006-01-02"),
		TargetValue:      req.TargetValue,
		Unit:             unit,
		AllowedMisses:    2,
		RecoveryStrategy: "Resume with reduced intensity after missed sessions",
		FallbackGoal:     fmt.Sprintf("Reduce target to %s %s if struggling", formatNumber(math.Floor(req.TargetValue*0.7)), unit),
		Deadline:         &deadline,
	}
	reasoning := fmt.Sprintf("Goal created from user input. %s. Target: %s by %s.", desc, target, deadline.Format("2006-01-02"))
	return g, reasoning
}

func formatNumber(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%g", v)
}

func clone[T any](in []T) []T { return append([]T(nil), in...) }
