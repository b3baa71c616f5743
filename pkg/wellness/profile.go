// Package wellness holds the domain records shared by the agents, the
// orchestrator and the persistence layer.
package wellness

import (
	"time"

	"github.com/wilhg/wellagent/pkg/errmodel"
)

// Level is a coarse three-step rating used for energy, risk and mood fields.
type Level string

const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

func (l Level) Valid() bool {
	switch l {
	case LevelLow, LevelMedium, LevelHigh:
		return true
	}
	return false
}

type MotivationStyle string

const (
	MotivationAchievement MotivationStyle = "achievement"
	MotivationSocial      MotivationStyle = "social"
	MotivationHealth      MotivationStyle = "health"
	MotivationAppearance  MotivationStyle = "appearance"
)

type PlanningPreference string

const (
	PlanningStructured PlanningPreference = "structured"
	PlanningFlexible   PlanningPreference = "flexible"
	PlanningMinimal    PlanningPreference = "minimal"
)

type FeedbackFrequency string

const (
	FeedbackDaily    FeedbackFrequency = "daily"
	FeedbackWeekly   FeedbackFrequency = "weekly"
	FeedbackAsNeeded FeedbackFrequency = "as-needed"
)

// Profile is the onboarding snapshot of a user. There is at most one per
// user and it is only ever replaced as a whole.
type Profile struct {
	ID                  string             `json:"id"`
	UserID              string             `json:"userId"`
	PrimaryIntent       string             `json:"primaryIntent"`
	SecondaryIntents    []string           `json:"secondaryIntents"`
	AvailableTime       int                `json:"availableTime"`
	EnergyLevel         Level              `json:"energyLevel"`
	CurrentRoutine      string             `json:"currentRoutine"`
	Barriers            []string           `json:"barriers"`
	MotivationStyle     MotivationStyle    `json:"motivationStyle"`
	PreferredActivities []string           `json:"preferredActivities"`
	AdherenceRisk       Level              `json:"adherenceRisk"`
	HistoricalFailures  []string           `json:"historicalFailures"`
	PlanningPreference  PlanningPreference `json:"planningPreference"`
	FeedbackFrequency   FeedbackFrequency  `json:"feedbackFrequency"`
	CreatedAt           time.Time          `json:"createdAt"`
	UpdatedAt           time.Time          `json:"updatedAt"`
}

// Validate checks enumerations and ranges. Empty optional enums are accepted.
func (p Profile) Validate() error {
	if p.UserID == "" {
		return errmodel.Validation("missing_user", "profile has no user id", nil)
	}
	if p.AvailableTime < 0 || p.AvailableTime > 24*60 {
		return errmodel.Validation("invalid_available_time", "available time must be within a day", map[string]any{"availableTime": p.AvailableTime})
	}
	if p.EnergyLevel != "" && !p.EnergyLevel.Valid() {
		return errmodel.Validation("invalid_energy_level", "unknown energy level", map[string]any{"energyLevel": p.EnergyLevel})
	}
	if p.AdherenceRisk != "" && !p.AdherenceRisk.Valid() {
		return errmodel.Validation("invalid_adherence_risk", "unknown adherence risk", map[string]any{"adherenceRisk": p.AdherenceRisk})
	}
	switch p.MotivationStyle {
	case "", MotivationAchievement, MotivationSocial, MotivationHealth, MotivationAppearance:
	default:
		return errmodel.Validation("invalid_motivation_style", "unknown motivation style", map[string]any{"motivationStyle": p.MotivationStyle})
	}
	switch p.PlanningPreference {
	case "", PlanningStructured, PlanningFlexible, PlanningMinimal:
	default:
		return errmodel.Validation("invalid_planning_preference", "unknown planning preference", map[string]any{"planningPreference": p.PlanningPreference})
	}
	switch p.FeedbackFrequency {
	case "", FeedbackDaily, FeedbackWeekly, FeedbackAsNeeded:
	default:
		return errmodel.Validation("invalid_feedback_frequency", "unknown feedback frequency", map[string]any{"feedbackFrequency": p.FeedbackFrequency})
	}
	return nil
}
