package agent

import (
	"encoding/json"

	"github.com/wilhg/wellagent/pkg/errmodel"
	"github.com/wilhg/wellagent/pkg/wellness"
)

// GoalAction is the action of a goal-formulation Output.
type GoalAction struct {
	Type string    `json:"type"`
	Goal GoalDraft `json:"goal"`
}

type GoalDraft struct {
	Title            string  `json:"title"`
	Description      string  `json:"description"`
	Category         string  `json:"category"`
	Specific         string  `json:"specific"`
	Measurable       string  `json:"measurable"`
	Achievable       string  `json:"achievable"`
	Relevant         string  `json:"relevant"`
	TimeBound        string  `json:"timeBound"`
	TargetValue      float64 `json:"targetValue"`
	Unit             string  `json:"unit"`
	AllowedMisses    int     `json:"allowedMisses"`
	RecoveryStrategy string  `json:"recoveryStrategy"`
	FallbackGoal     string  `json:"fallbackGoal"`
}

// PlanAction is the action of a planning Output.
type PlanAction struct {
	Type string    `json:"type"`
	Plan PlanDraft `json:"plan"`
}

type PlanDraft struct {
	Title               string                   `json:"title"`
	Description         string                   `json:"description"`
	StrategyType        wellness.Strategy        `json:"strategyType"`
	Activities          []wellness.ActivityBlock `json:"activities"`
	ProgressionRules    []string                 `json:"progressionRules"`
	RegressionRules     []string                 `json:"regressionRules"`
	FallbackPlan        []wellness.ActivityBlock `json:"fallbackPlan"`
	RecoveryPlan        []wellness.ActivityBlock `json:"recoveryPlan"`
	PhysicalLoad        float64                  `json:"physicalLoad"`
	CognitiveLoad       float64                  `json:"cognitiveLoad"`
	SustainabilityScore float64                  `json:"sustainabilityScore"`
}

// MonitoringReport is the action of a monitoring Output. Scores are
// percentages in [0,100].
type MonitoringReport struct {
	Type              string         `json:"type"`
	Trajectory        string         `json:"trajectory"`
	AdherenceScore    float64        `json:"adherenceScore"`
	StreakCount       int            `json:"streakCount"`
	ConsecutiveMisses int            `json:"consecutiveMisses"`
	Signals           map[string]any `json:"signals"`
	Deviations        []Deviation    `json:"deviations"`
	Recommendations   []string       `json:"recommendations"`
}

// Deviation is one departure from the plan noted by the monitoring agent.
type Deviation struct {
	Type   string `json:"type"`
	Date   string `json:"date,omitempty"`
	Impact string `json:"impact"`
}

// AdaptationAction is the action of an adaptation Output.
type AdaptationAction struct {
	Type           wellness.AdaptationType `json:"type"`
	Autonomous     bool                    `json:"autonomous"`
	Changes        map[string]any          `json:"changes"`
	Rationale      string                  `json:"rationale"`
	ExpectedImpact string                  `json:"expectedImpact"`
}

// ReflectionReport is the action of a reflection Output.
type ReflectionReport struct {
	Type             string         `json:"type"`
	Comparison       map[string]any `json:"comparison"`
	SuccessFactors   []string       `json:"successFactors"`
	FailureFactors   []string       `json:"failureFactors"`
	ExternalFactors  []string       `json:"externalFactors"`
	Patterns         []string       `json:"patterns"`
	RootCauses       []string       `json:"rootCauses"`
	LessonsLearned   []string       `json:"lessonsLearned"`
	HeuristicUpdates map[string]any `json:"heuristicUpdates"`
	Recommendations  []string       `json:"recommendations"`
}

// Explanation is the action of an explainability Output.
type Explanation struct {
	Title        string   `json:"title"`
	Summary      string   `json:"summary"`
	Details      string   `json:"details"`
	Why          []string `json:"why"`
	UserContext  any      `json:"userContext"`
	Alternatives []string `json:"alternatives"`
	Uncertainty  any      `json:"uncertainty"`
	UserControl  any      `json:"userControl"`
}

// DecodeAction converts a normalised action into T.
func DecodeAction[T any](o Output) (T, error) {
	var v T
	b, err := json.Marshal(o.Action)
	if err != nil {
		return v, errmodel.Model("invalid_action", "action cannot be encoded", nil, err)
	}
	if err := json.Unmarshal(b, &v); err != nil {
		return v, errmodel.Model("invalid_action", "action does not match the expected shape", map[string]any{"type": actionLabel(o.Action)}, err)
	}
	return v, nil
}

// MetaString reads a string metadata field.
func MetaString(o Output, key string) string {
	return asString(o.Metadata[key])
}
