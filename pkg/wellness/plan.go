package wellness

import "time"

type PlanStatus string

const (
	PlanActive     PlanStatus = "active"
	PlanPaused     PlanStatus = "paused"
	PlanSuperseded PlanStatus = "superseded"
	PlanCompleted  PlanStatus = "completed"
)

type Strategy string

const (
	StrategyGradual     Strategy = "gradual"
	StrategyIntensive   Strategy = "intensive"
	StrategyMaintenance Strategy = "maintenance"
)

func (s Strategy) Valid() bool {
	return s == StrategyGradual || s == StrategyIntensive || s == StrategyMaintenance
}

// ActivityBlock is one recurring activity within a plan week.
type ActivityBlock struct {
	Week            int      `json:"week"`
	Days            []string `json:"days"`
	Activity        string   `json:"activity"`
	DurationMinutes int      `json:"durationMinutes"`
	Intensity       string   `json:"intensity"`
	Note            string   `json:"note,omitempty"`
}

// Plan is a week-indexed activity schedule for one goal. Fallback and
// recovery sequences are part of the plan, not derived from it.
type Plan struct {
	ID                  string          `json:"id"`
	GoalID              string          `json:"goalId"`
	UserID              string          `json:"userId"`
	Title               string          `json:"title"`
	Description         string          `json:"description"`
	Status              PlanStatus      `json:"status"`
	StrategyType        Strategy        `json:"strategyType"`
	StartDate           time.Time       `json:"startDate"`
	EndDate             time.Time       `json:"endDate"`
	CurrentWeek         int             `json:"currentWeek"`
	PhysicalLoad        float64         `json:"physicalLoad"`
	CognitiveLoad       float64         `json:"cognitiveLoad"`
	SustainabilityScore float64         `json:"sustainabilityScore"`
	Activities          []ActivityBlock `json:"activities"`
	ProgressionRules    []string        `json:"progressionRules"`
	RegressionRules     []string        `json:"regressionRules"`
	FallbackPlan        []ActivityBlock `json:"fallbackPlan,omitempty"`
	RecoveryPlan        []ActivityBlock `json:"recoveryPlan,omitempty"`
	HasFallback         bool            `json:"hasFallback"`
	Version             int             `json:"version"`
	CreatedAt           time.Time       `json:"createdAt"`
	UpdatedAt           time.Time       `json:"updatedAt"`
}

// Weeks returns the highest week number referenced by the activities.
func (p Plan) Weeks() int {
	n := 0
	for _, b := range p.Activities {
		if b.Week > n {
			n = b.Week
		}
	}
	return n
}

// BlocksForWeek returns the activity blocks scheduled for week w.
func (p Plan) BlocksForWeek(w int) []ActivityBlock {
	var out []ActivityBlock
	for _, b := range p.Activities {
		if b.Week == w {
			out = append(out, b)
		}
	}
	return out
}

// WeekAt returns the 1-based plan week containing t, clamped to the plan.
func (p Plan) WeekAt(t time.Time) int {
	if t.Before(p.StartDate) {
		return 1
	}
	w := int(t.Sub(p.StartDate).Hours()/(24*7)) + 1
	if n := p.Weeks(); n > 0 && w > n {
		return n
	}
	return w
}

// SessionsPerWeek sums scheduled days for week w.
func (p Plan) SessionsPerWeek(w int) int {
	n := 0
	for _, b := range p.BlocksForWeek(w) {
		n += len(b.Days)
	}
	return n
}

// ClampScore keeps load scores inside the 0-10 scale.
func ClampScore(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 10:
		return 10
	}
	return v
}
