package adaptation

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/wilhg/wellagent/pkg/errmodel"
	"github.com/wilhg/wellagent/pkg/store"
	"github.com/wilhg/wellagent/pkg/wellness"
)

// Applier carries out an adaptation's changes on the user's plan or goal.
type Applier interface {
	Apply(ctx context.Context, a wellness.Adaptation) error
}

// Records is what StoreApplier writes to.
type Records interface {
	store.GoalStore
	store.PlanStore
}

const minSessionMinutes = 5

// StoreApplier interprets action types against stored goals and plans.
// Unknown change keys are ignored.
type StoreApplier struct {
	st Records
}

func NewStoreApplier(st Records) *StoreApplier { return &StoreApplier{st: st} }

func (ap *StoreApplier) Apply(ctx context.Context, a wellness.Adaptation) error {
	changes := a.ActionDetails
	switch a.ActionType {
	case wellness.Continue:
		return nil
	case wellness.AdaptPlan:
		return ap.updatePlan(ctx, a, func(p *wellness.Plan) { applyBlockChanges(p, changes) })
	case wellness.ChangeStrategy:
		return ap.updatePlan(ctx, a, func(p *wellness.Plan) {
			if s, _ := changes["strategyType"].(string); wellness.Strategy(s).Valid() {
				p.StrategyType = wellness.Strategy(s)
			}
			applyBlockChanges(p, changes)
		})
	case wellness.AdjustGoal:
		return ap.adjustGoal(ctx, a, changes)
	case wellness.Pause:
		return ap.pause(ctx, a)
	}
	return errmodel.Validation("unknown_action_type", "adaptation action type is not supported", map[string]any{"type": string(a.ActionType)})
}

func (ap *StoreApplier) plan(ctx context.Context, a wellness.Adaptation) (wellness.Plan, error) {
	if a.PlanID != "" {
		return ap.st.GetPlan(ctx, a.UserID, a.PlanID)
	}
	return ap.st.ActivePlan(ctx, a.UserID, a.GoalID)
}

func (ap *StoreApplier) goal(ctx context.Context, a wellness.Adaptation) (wellness.Goal, error) {
	if a.GoalID != "" {
		return ap.st.GetGoal(ctx, a.UserID, a.GoalID)
	}
	return ap.st.ActiveGoal(ctx, a.UserID)
}

// updatePlan edits a copy of the plan and writes it with a version check.
func (ap *StoreApplier) updatePlan(ctx context.Context, a wellness.Adaptation, edit func(*wellness.Plan)) error {
	p, err := ap.plan(ctx, a)
	if err != nil {
		return storeErr("plan", a.PlanID, err)
	}
	prev := p.Version
	p.Activities = cloneBlocks(p.Activities)
	edit(&p)
	p.Version = prev + 1
	return storeErr("plan", p.ID, ap.st.UpdatePlan(ctx, p, prev))
}

func (ap *StoreApplier) adjustGoal(ctx context.Context, a wellness.Adaptation, changes map[string]any) error {
	g, err := ap.goal(ctx, a)
	if err != nil {
		return storeErr("goal", a.GoalID, err)
	}
	if v, ok := number(changes["targetValue"]); ok && v > 0 {
		g.TargetValue = v
	}
	if v, ok := number(changes["allowedMisses"]); ok && v >= 0 {
		g.AllowedMisses = int(v)
	}
	for key, dst := range map[string]*string{
		"unit":             &g.Unit,
		"fallbackGoal":     &g.FallbackGoal,
		"recoveryStrategy": &g.RecoveryStrategy,
	} {
		if s, ok := changes[key].(string); ok && s != "" {
			*dst = s
		}
	}
	return storeErr("goal", g.ID, ap.st.UpdateGoal(ctx, g))
}

func (ap *StoreApplier) pause(ctx context.Context, a wellness.Adaptation) error {
	g, err := ap.goal(ctx, a)
	if err != nil {
		return storeErr("goal", a.GoalID, err)
	}
	if err := g.Transition(wellness.GoalPaused); err != nil {
		return err
	}
	if err := ap.st.UpdateGoal(ctx, g); err != nil {
		return storeErr("goal", g.ID, err)
	}
	a.GoalID = g.ID
	err = ap.updatePlan(ctx, a, func(p *wellness.Plan) { p.Status = wellness.PlanPaused })
	if errmodel.IsCode(err, errmodel.CodeNotFound) {
		return nil // a goal without a plan is paused on its own
	}
	return err
}

// applyBlockChanges edits the blocks of the current and later weeks.
func applyBlockChanges(p *wellness.Plan, changes map[string]any) {
	from := max(p.CurrentWeek, 1)
	activity := firstActivity(p)

	switch {
	case truthy(changes["useRecovery"]):
		seq := p.RecoveryPlan
		if len(seq) == 0 {
			seq = wellness.RecoveryBlocks(activity)
		}
		p.Activities = splice(p.Activities, from, seq)
	case truthy(changes["useFallback"]):
		seq := p.FallbackPlan
		if len(seq) == 0 {
			seq = wellness.FallbackBlocks(activity)
		}
		p.Activities = splice(p.Activities, from, seq)
	}

	if truthy(changes["advanceWeek"]) && p.CurrentWeek < p.Weeks() {
		p.CurrentWeek++
		from = p.CurrentWeek
	}

	dur, hasDur := number(changes["durationMinutes"])
	delta, hasDelta := number(changes["durationDelta"])
	intensity, _ := changes["intensity"].(string)
	days := stringSlice(changes["days"])

	for i := range p.Activities {
		b := &p.Activities[i]
		if b.Week < from {
			continue
		}
		switch {
		case hasDur && dur > 0:
			b.DurationMinutes = int(math.Round(dur))
		case hasDelta:
			b.DurationMinutes = max(b.DurationMinutes+int(math.Round(delta)), minSessionMinutes)
		}
		if intensity != "" {
			b.Intensity = intensity
		}
		if len(days) > 0 {
			b.Days = append([]string(nil), days...)
		}
	}
}

// splice replaces weeks >= from with seq, renumbered to start at from.
func splice(blocks []wellness.ActivityBlock, from int, seq []wellness.ActivityBlock) []wellness.ActivityBlock {
	out := make([]wellness.ActivityBlock, 0, len(blocks)+len(seq))
	for _, b := range blocks {
		if b.Week < from {
			out = append(out, b)
		}
	}
	first := seq[0].Week
	for _, b := range seq {
		b.Week = from + b.Week - first
		b.Days = append([]string(nil), b.Days...)
		out = append(out, b)
	}
	return out
}

func firstActivity(p *wellness.Plan) string {
	for _, b := range p.Activities {
		if b.Activity != "" {
			return b.Activity
		}
	}
	return p.Title
}

func cloneBlocks(in []wellness.ActivityBlock) []wellness.ActivityBlock {
	out := make([]wellness.ActivityBlock, len(in))
	for i, b := range in {
		b.Days = append([]string(nil), b.Days...)
		out[i] = b
	}
	return out
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, !math.IsNaN(n)
	case int:
		return float64(n), true
	}
	return 0, false
}

func truthy(v any) bool {
	b, _ := v.(bool)
	return b
}

func stringSlice(v any) []string {
	switch s := v.(type) {
	case []string:
		return s
	case []any:
		out := make([]string, 0, len(s))
		for _, it := range s {
			if str, ok := it.(string); ok && str != "" {
				out = append(out, str)
			}
		}
		return out
	}
	return nil
}

// storeErr maps store sentinels to errmodel errors.
func storeErr(entity, id string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return errmodel.NotFound(entity, id)
	case errors.Is(err, store.ErrStale):
		return errmodel.Conflict(entity+" changed concurrently", map[string]any{"id": id})
	}
	return errmodel.System("store_error", fmt.Sprintf("%s %s", entity, id), nil, err)
}
