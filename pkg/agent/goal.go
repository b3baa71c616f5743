package agent

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/wilhg/wellagent/pkg/store"
	"github.com/wilhg/wellagent/pkg/wellness"
)

// GoalFormulation turns an intent and the user's profile into a SMART goal.
type GoalFormulation struct{ base }

func NewGoalFormulation(d Deps) *GoalFormulation {
	return &GoalFormulation{newBase(KindGoalFormulation, d, goalSchema, normalizeGoal)}
}

func (a *GoalFormulation) Execute(ctx context.Context, c Context) Output {
	profile, err := a.deps.Store.GetProfile(ctx, c.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return a.missing(c.UserID, msgNoProfile, err)
	}
	if err != nil {
		return a.fail(fmt.Errorf("load wellness profile: %w", err))
	}
	intent := stringData(c.Data, DataIntent)
	if intent == "" {
		intent = profile.PrimaryIntent
	}
	prompt, err := a.render(goalPrompt, struct {
		Intent  string
		Profile wellness.Profile
		Extra   any
	}{intent, profile, c.Data[DataContext]})
	if err != nil {
		return a.fail(err)
	}
	return a.reason(ctx, c, prompt, defaultTemperature)
}

func normalizeGoal(action, _ map[string]any) {
	setDefault(action, "type", "create_goal")
	g := asMap(action["goal"])
	action["goal"] = g
	if n, ok := asNumber(g["allowedMisses"]); ok && n >= 0 {
		g["allowedMisses"] = math.Floor(n)
	} else {
		g["allowedMisses"] = float64(1)
	}
	if _, ok := asNumber(g["targetValue"]); !ok {
		delete(g, "targetValue")
	}
	setDefault(g, "recoveryStrategy", "Resume at the next scheduled session without making up the missed one.")
	setDefault(g, "fallbackGoal", "Keep one short session per week.")
}
