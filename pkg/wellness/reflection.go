package wellness

import "time"

const (
	ReflectionWeekly = "weekly"
	ReflectionCustom = "custom"
)

// Reflection is an immutable retrospective over [PeriodStart, PeriodEnd].
// Patterns, root causes and lessons are deliberately kept apart.
type Reflection struct {
	ID               string         `json:"id"`
	UserID           string         `json:"userId"`
	PeriodStart      time.Time      `json:"periodStart"`
	PeriodEnd        time.Time      `json:"periodEnd"`
	ReflectionType   string         `json:"reflectionType"`
	IntendedBehavior string         `json:"intendedBehavior"`
	ActualBehavior   string         `json:"actualBehavior"`
	Variance         string         `json:"variance,omitempty"`
	SuccessFactors   []string       `json:"successFactors"`
	FailureFactors   []string       `json:"failureFactors"`
	ExternalFactors  []string       `json:"externalFactors"`
	Patterns         []string       `json:"patterns"`
	RootCauses       []string       `json:"rootCauses"`
	LessonsLearned   []string       `json:"lessonsLearned"`
	HeuristicUpdates map[string]any `json:"heuristicUpdates,omitempty"`
	Recommendations  []string       `json:"recommendations"`
	ConfidenceScore  float64        `json:"confidenceScore"`
	CreatedAt        time.Time      `json:"createdAt"`
}
