// Package agent defines the reasoning agents of the wellness loop and the
// contract they share.
//
// Every agent follows the same shape:
//   - Gather upstream state from the store, or take it from Context.Data.
//   - Render a user prompt and send it with the agent's system prompt to the
//     reasoning gateway.
//   - Validate and normalise the returned action.
//   - Write exactly one AgentLog row, then return the Output.
//
// Execute never returns an error. Missing state, gateway failures and audit
// failures all become an Output with Success false and Confidence 0.
// Missing state is detected before the gateway is called and leaves no
// AgentLog behind; a gateway failure also leaves no AgentLog.
package agent

import (
	"context"
	"time"

	"github.com/wilhg/wellagent/pkg/logger"
	"github.com/wilhg/wellagent/pkg/prompt"
	"github.com/wilhg/wellagent/pkg/reasoning"
	"github.com/wilhg/wellagent/pkg/store"
)

// Kind identifies one of the six agents. The set is closed.
type Kind int

const (
	KindGoalFormulation Kind = iota + 1
	KindPlanning
	KindMonitoring
	KindAdaptation
	KindReflection
	KindExplainability
)

var kindNames = map[Kind]string{
	KindGoalFormulation: "goal-formulation",
	KindPlanning:        "planning",
	KindMonitoring:      "monitoring",
	KindAdaptation:      "adaptation",
	KindReflection:      "reflection",
	KindExplainability:  "explainability",
}

// String returns the wire name used in AgentLog.agentType and prompt names.
func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return "unknown"
}

// ParseKind resolves a wire name.
func ParseKind(s string) (Kind, bool) {
	for k, n := range kindNames {
		if n == s {
			return k, true
		}
	}
	return 0, false
}

// Kinds lists every agent in cycle order.
func Kinds() []Kind {
	return []Kind{KindGoalFormulation, KindPlanning, KindMonitoring, KindAdaptation, KindReflection, KindExplainability}
}

// Context is the input of one agent execution. Data carries agent-specific
// inputs under the Data* keys.
type Context struct {
	UserID    string
	Timestamp time.Time
	Data      map[string]any
}

// Data keys understood by the agents.
const (
	DataIntent              = "intent"
	DataContext             = "context"
	DataGoalID              = "goalId"
	DataDuration            = "duration"
	DataMonitoringReport    = "monitoringReport"
	DataCurrentPlan         = "currentPlan"
	DataCurrentGoal         = "currentGoal"
	DataProfile             = "profile"
	DataPeriodStart         = "periodStart"
	DataPeriodEnd           = "periodEnd"
	DataIntended            = "intended"
	DataActual              = "actual"
	DataPreviousReflections = "previousReflections"
	DataDecision            = "decision"
	DataUserContext         = "userContext"
)

// Output is the result of one agent execution.
type Output struct {
	Success    bool           `json:"success"`
	Reasoning  string         `json:"reasoning"`
	Action     map[string]any `json:"action"`
	Confidence float64        `json:"confidence"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// Agent is implemented by the six concrete agents.
type Agent interface {
	Kind() Kind
	Execute(ctx context.Context, c Context) Output
}

// Store is the slice of persistence the agents read from and audit to.
type Store interface {
	store.ProfileStore
	store.GoalStore
	store.MonitoringStore
	store.AgentLogStore
}

// Deps are shared by every agent. Prompts and Log default when nil.
type Deps struct {
	Gateway reasoning.Gateway
	Store   Store
	Prompts *prompt.Store
	Log     *logger.Logger
	Now     func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.Prompts == nil {
		d.Prompts = prompt.Defaults()
	}
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	if d.Now == nil {
		d.Now = func() time.Time { return time.Now().UTC() }
	}
	return d
}

// New builds every agent over the same dependencies.
func New(d Deps) map[Kind]Agent {
	d = d.withDefaults()
	return map[Kind]Agent{
		KindGoalFormulation: NewGoalFormulation(d),
		KindPlanning:        NewPlanning(d),
		KindMonitoring:      NewMonitoring(d),
		KindAdaptation:      NewAdaptation(d),
		KindReflection:      NewReflection(d),
		KindExplainability:  NewExplainability(d),
	}
}
