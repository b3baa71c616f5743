package agent

import (
	"context"

	"github.com/wilhg/wellagent/pkg/wellness"
)

// adaptationTemperature is lower than the default; adaptation decisions
// should be repeatable.
const adaptationTemperature = 0.5

// Adaptation proposes a change to the plan or goal from a monitoring report.
// All inputs come from Context.Data; it reads nothing from the store.
type Adaptation struct{ base }

func NewAdaptation(d Deps) *Adaptation {
	return &Adaptation{newBase(KindAdaptation, d, adaptationSchema, normalizeAdaptation)}
}

func (a *Adaptation) Execute(ctx context.Context, c Context) Output {
	prompt, err := a.render(adaptationPrompt, struct {
		Report, Plan, Goal, Profile any
	}{
		c.Data[DataMonitoringReport],
		c.Data[DataCurrentPlan],
		c.Data[DataCurrentGoal],
		c.Data[DataProfile],
	})
	if err != nil {
		return a.fail(err)
	}
	return a.reason(ctx, c, prompt, adaptationTemperature)
}

// normalizeAdaptation turns anything it cannot interpret into a
// non-autonomous "continue".
func normalizeAdaptation(action, meta map[string]any) {
	t, _ := action["type"].(string)
	if !wellness.AdaptationType(t).Valid() {
		action["type"] = string(wellness.Continue)
		action["autonomous"] = false
	}
	action["autonomous"] = asBool(action["autonomous"])
	action["changes"] = asMap(action["changes"])
	setDefault(action, "rationale", "")
	setDefault(action, "expectedImpact", "")

	if _, ok := meta["requiresUserApproval"].(bool); !ok {
		meta["requiresUserApproval"] = !action["autonomous"].(bool)
	}
	setDefault(meta, "triggerType", "deviation")
	setDefault(meta, "urgency", "low")
}
