package agent

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/wilhg/wellagent/pkg/store"
	"github.com/wilhg/wellagent/pkg/wellness"
)

const defaultPlanWeeks = 4

// Planning builds a week-indexed plan for one goal.
type Planning struct{ base }

func NewPlanning(d Deps) *Planning {
	return &Planning{newBase(KindPlanning, d, planSchema, normalizePlan)}
}

func (a *Planning) Execute(ctx context.Context, c Context) Output {
	goalID := stringData(c.Data, DataGoalID)
	if goalID == "" {
		return a.fail(fmt.Errorf("goalId is required"))
	}
	goal, err := a.deps.Store.GetGoal(ctx, c.UserID, goalID)
	if errors.Is(err, store.ErrNotFound) {
		return a.missing(c.UserID, msgNoGoalOrProfile, err)
	}
	if err != nil {
		return a.fail(fmt.Errorf("load goal: %w", err))
	}
	profile, err := a.deps.Store.GetProfile(ctx, c.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return a.missing(c.UserID, msgNoGoalOrProfile, err)
	}
	if err != nil {
		return a.fail(fmt.Errorf("load wellness profile: %w", err))
	}
	prompt, err := a.render(planPrompt, struct {
		Goal    wellness.Goal
		Profile wellness.Profile
		Weeks   int
	}{goal, profile, intData(c.Data, DataDuration, defaultPlanWeeks)})
	if err != nil {
		return a.fail(err)
	}
	return a.reason(ctx, c, prompt, defaultTemperature)
}

func normalizePlan(action, _ map[string]any) {
	setDefault(action, "type", "create_plan")
	p := asMap(action["plan"])
	action["plan"] = p
	if s, _ := p["strategyType"].(string); !wellness.Strategy(s).Valid() {
		p["strategyType"] = string(wellness.StrategyGradual)
	}
	for _, k := range []string{"activities", "fallbackPlan", "recoveryPlan"} {
		p[k] = normalizeBlocks(p[k])
	}
	stringList(p, "progressionRules", "regressionRules")
	for _, k := range []string{"physicalLoad", "cognitiveLoad", "sustainabilityScore"} {
		if n, ok := asNumber(p[k]); ok {
			p[k] = wellness.ClampScore(n)
		} else {
			delete(p, k)
		}
	}
}

// normalizeBlocks drops entries that are not objects and coerces the integer
// fields so the blocks decode into wellness.ActivityBlock.
func normalizeBlocks(v any) []any {
	items, _ := v.([]any)
	out := make([]any, 0, len(items))
	for _, it := range items {
		b, ok := it.(map[string]any)
		if !ok {
			continue
		}
		if n, ok := asNumber(b["week"]); ok && n >= 1 {
			b["week"] = math.Floor(n)
		} else {
			b["week"] = float64(1)
		}
		if n, ok := asNumber(b["durationMinutes"]); ok && n >= 0 {
			b["durationMinutes"] = math.Round(n)
		} else {
			b["durationMinutes"] = float64(0)
		}
		stringList(b, "days")
		for _, k := range []string{"activity", "intensity", "note"} {
			if _, ok := b[k].(string); !ok {
				delete(b, k)
			}
		}
		out = append(out, b)
	}
	return out
}

// stringList makes every listed key a []any of strings.
func stringList(m map[string]any, keys ...string) {
	for _, k := range keys {
		items, _ := m[k].([]any)
		out := make([]any, 0, len(items))
		for _, it := range items {
			switch v := it.(type) {
			case string:
				out = append(out, v)
			case nil:
			default:
				out = append(out, fmt.Sprint(v))
			}
		}
		m[k] = out
	}
}
