package wellness

import "time"

// AdaptationType is the closed set of decisions the adaptation agent may take.
type AdaptationType string

const (
	AdaptPlan      AdaptationType = "adapt_plan"
	AdjustGoal     AdaptationType = "adjust_goal"
	ChangeStrategy AdaptationType = "change_strategy"
	Pause          AdaptationType = "pause"
	Continue       AdaptationType = "continue"
)

func (t AdaptationType) Valid() bool {
	switch t {
	case AdaptPlan, AdjustGoal, ChangeStrategy, Pause, Continue:
		return true
	}
	return false
}

// AdaptationState is derived from UserApproved and Implemented.
type AdaptationState string

const (
	AdaptationProposed    AdaptationState = "proposed"
	AdaptationApproved    AdaptationState = "approved"
	AdaptationRejected    AdaptationState = "rejected"
	AdaptationImplemented AdaptationState = "implemented"
)

// Adaptation records one adaptation decision and its approval lifecycle.
type Adaptation struct {
	ID                string         `json:"id"`
	UserID            string         `json:"userId"`
	GoalID            string         `json:"goalId,omitempty"`
	PlanID            string         `json:"planId,omitempty"`
	TriggerType       string         `json:"triggerType"`
	TriggerData       map[string]any `json:"triggerData,omitempty"`
	DetectedIssue     string         `json:"detectedIssue"`
	AnalysisReasoning string         `json:"analysisReasoning"`
	ActionType        AdaptationType `json:"actionType"`
	ActionDetails     map[string]any `json:"actionDetails,omitempty"`
	Autonomous        bool           `json:"autonomous"`
	Confidence        float64        `json:"confidence"`
	ExpectedImpact    string         `json:"expectedImpact"`
	Explanation       map[string]any `json:"explanation,omitempty"`
	UserApproved      *bool          `json:"userApproved"`
	Implemented       bool           `json:"implemented"`
	ImplementedAt     *time.Time     `json:"implementedAt,omitempty"`
	CreatedAt         time.Time      `json:"createdAt"`
}

func (a Adaptation) State() AdaptationState {
	switch {
	case a.Implemented:
		return AdaptationImplemented
	case a.UserApproved == nil:
		return AdaptationProposed
	case *a.UserApproved:
		return AdaptationApproved
	default:
		return AdaptationRejected
	}
}
