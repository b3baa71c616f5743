package wellness

import "time"

// DeviationMissed is the only deviation type derived at write time.
const DeviationMissed = "missed"

// MonitoringEntry is one append-only activity log line. StreakCount,
// ConsecutiveMisses, IsDeviation and DeviationType are derived when the
// entry is recorded and never edited afterwards.
type MonitoringEntry struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	GoalID       string    `json:"goalId,omitempty"`
	PlanID       string    `json:"planId,omitempty"`
	Date         time.Time `json:"date"`
	ActivityType string    `json:"activityType"`
	Completed    bool      `json:"completed"`
	Value        *float64  `json:"value,omitempty"`
	Unit         string    `json:"unit,omitempty"`
	EnergyLevel  string    `json:"energyLevel,omitempty"`
	Motivation   string    `json:"motivation,omitempty"`
	Difficulty   string    `json:"difficulty,omitempty"`
	Enjoyment    string    `json:"enjoyment,omitempty"`
	Notes        string    `json:"notes,omitempty"`
	TimeOfDay    string    `json:"timeOfDay,omitempty"`
	Location     string    `json:"location,omitempty"`
	Social       *bool     `json:"social,omitempty"`

	StreakCount       int    `json:"streakCount"`
	ConsecutiveMisses int    `json:"consecutiveMisses"`
	IsDeviation       bool   `json:"isDeviation"`
	DeviationType     string `json:"deviationType,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}
