package orchestrator

import (
	"context"
	"errors"
	"time"

	"github.com/wilhg/wellagent/pkg/agent"
	"github.com/wilhg/wellagent/pkg/errmodel"
	"github.com/wilhg/wellagent/pkg/store"
	"github.com/wilhg/wellagent/pkg/wellness"
)

const defaultPlanWeeks = 4

// GoalInput asks for a new goal. Manual is the user's own form input; it is
// required when reasoning is disabled and used when the agent fails.
type GoalInput struct {
	UserID  string
	Intent  string
	Context map[string]any
	Manual  *wellness.GoalRequest
}

// Formulated is a persisted goal or plan with how it came about.
type Formulated[T any] struct {
	Record     T       `json:"record"`
	Reasoning  string  `json:"reasoning"`
	Confidence float64 `json:"confidence"`
	Fallback   bool    `json:"fallback"`
}

// FormulateGoal turns an intent into an active SMART goal.
func (o *Orchestrator) FormulateGoal(ctx context.Context, in GoalInput) (Formulated[wellness.Goal], error) {
	now := o.now()
	if !o.reasoningEnabled {
		if in.Manual == nil {
			return Formulated[wellness.Goal]{}, errmodel.Validation("manual_goal_required",
				"reasoning is disabled; a manual goal is required", map[string]any{"user_id": in.UserID})
		}
		return o.saveFallbackGoal(ctx, in, now)
	}

	data := map[string]any{}
	if in.Intent != "" {
		data[agent.DataIntent] = in.Intent
	}
	if len(in.Context) > 0 {
		data[agent.DataContext] = in.Context
	}
	out := o.Execute(ctx, agent.KindGoalFormulation, agent.Context{UserID: in.UserID, Timestamp: now, Data: data})
	if !out.Success {
		if in.Manual != nil {
			o.log.Warn("goal agent failed, using manual input", "user_id", in.UserID, "reason", out.Reasoning)
			return o.saveFallbackGoal(ctx, in, now)
		}
		return Formulated[wellness.Goal]{}, errmodel.Model("goal_formulation_failed", out.Reasoning, map[string]any{"user_id": in.UserID}, nil)
	}
	act, err := agent.DecodeAction[agent.GoalAction](out)
	if err != nil {
		return Formulated[wellness.Goal]{}, err
	}
	d := act.Goal
	g := wellness.Goal{
		UserID:           in.UserID,
		Title:            d.Title,
		Description:      d.Description,
		Category:         d.Category,
		Status:           wellness.GoalActive,
		Specific:         d.Specific,
		Measurable:       d.Measurable,
		Achievable:       d.Achievable,
		Relevant:         d.Relevant,
		TimeBound:        d.TimeBound,
		TargetValue:      d.TargetValue,
		Unit:             d.Unit,
		AllowedMisses:    d.AllowedMisses,
		RecoveryStrategy: d.RecoveryStrategy,
		FallbackGoal:     d.FallbackGoal,
	}
	if in.Manual != nil && !in.Manual.Deadline.IsZero() {
		dl := in.Manual.Deadline.UTC()
		g.Deadline = &dl
	}
	g, err = o.st.CreateGoal(ctx, g)
	if err != nil {
		return Formulated[wellness.Goal]{}, errmodel.System("store_error", "create goal", nil, err)
	}
	return Formulated[wellness.Goal]{Record: g, Reasoning: out.Reasoning, Confidence: out.Confidence}, nil
}

func (o *Orchestrator) saveFallbackGoal(ctx context.Context, in GoalInput, now time.Time) (Formulated[wellness.Goal], error) {
	g, reasoning := wellness.FallbackGoal(in.UserID, *in.Manual, now)
	g, err := o.st.CreateGoal(ctx, g)
	if err != nil {
		return Formulated[wellness.Goal]{}, errmodel.System("store_error", "create goal", nil, err)
	}
	return Formulated[wellness.Goal]{Record: g, Reasoning: reasoning, Confidence: 1, Fallback: true}, nil
}

// CreatePlan builds and activates a plan for goalID, superseding the goal's
// previous active plan. The deterministic plan is used when reasoning is
// disabled or the planning agent fails.
func (o *Orchestrator) CreatePlan(ctx context.Context, userID, goalID string, weeks int) (Formulated[wellness.Plan], error) {
	goal, err := o.st.GetGoal(ctx, userID, goalID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Formulated[wellness.Plan]{}, errmodel.NotFound("goal", goalID)
		}
		return Formulated[wellness.Plan]{}, errmodel.System("store_error", "get goal", nil, err)
	}
	if weeks <= 0 {
		weeks = defaultPlanWeeks
	}
	now := o.now()

	var (
		plan      wellness.Plan
		reasoning string
		conf      = 1.0
		fallback  = true
	)
	if o.reasoningEnabled {
		out := o.Execute(ctx, agent.KindPlanning, agent.Context{
			UserID:    userID,
			Timestamp: now,
			Data:      map[string]any{agent.DataGoalID: goalID, agent.DataDuration: weeks},
		})
		if out.Success {
			if p, ok := o.planFromOutput(out, goal, now, weeks); ok {
				plan, reasoning, conf, fallback = p, out.Reasoning, out.Confidence, false
			}
		} else {
			o.log.Warn("planning agent failed, using fallback plan", "user_id", userID, "reason", out.Reasoning)
		}
	}
	if fallback {
		plan, reasoning = wellness.FallbackPlan(goal, now)
	}

	plan, err = o.st.CreateActivePlan(ctx, plan)
	if err != nil {
		return Formulated[wellness.Plan]{}, errmodel.System("store_error", "create plan", nil, err)
	}
	o.log.Info("plan activated", "user_id", userID, "plan", plan.ID, "fallback", fallback)
	return Formulated[wellness.Plan]{Record: plan, Reasoning: reasoning, Confidence: conf, Fallback: fallback}, nil
}

// planFromOutput maps a planning action onto a plan. A plan without
// activities is rejected; missing fallback or recovery blocks get defaults.
func (o *Orchestrator) planFromOutput(out agent.Output, g wellness.Goal, now time.Time, weeks int) (wellness.Plan, bool) {
	act, err := agent.DecodeAction[agent.PlanAction](out)
	if err != nil || len(act.Plan.Activities) == 0 {
		o.log.Warn("planning output unusable, using fallback plan", "user_id", g.UserID, "error", err)
		return wellness.Plan{}, false
	}
	d := act.Plan
	activity := d.Activities[0].Activity
	p := wellness.Plan{
		GoalID:              g.ID,
		UserID:              g.UserID,
		Title:               d.Title,
		Description:         d.Description,
		Status:              wellness.PlanActive,
		StrategyType:        d.StrategyType,
		StartDate:           now,
		EndDate:             now.AddDate(0, 0, 7*weeks),
		CurrentWeek:         1,
		PhysicalLoad:        d.PhysicalLoad,
		CognitiveLoad:       d.CognitiveLoad,
		SustainabilityScore: d.SustainabilityScore,
		Activities:          d.Activities,
		ProgressionRules:    d.ProgressionRules,
		RegressionRules:     d.RegressionRules,
		FallbackPlan:        d.FallbackPlan,
		RecoveryPlan:        d.RecoveryPlan,
		HasFallback:         true,
		Version:             1,
	}
	if p.Title == "" {
		p.Title = g.Title + " Plan"
	}
	if len(p.FallbackPlan) == 0 {
		p.FallbackPlan = wellness.FallbackBlocks(activity)
	}
	if len(p.RecoveryPlan) == 0 {
		p.RecoveryPlan = wellness.RecoveryBlocks(activity)
	}
	if len(p.ProgressionRules) == 0 {
		p.ProgressionRules = append([]string(nil), wellness.DefaultProgressionRules...)
	}
	if len(p.RegressionRules) == 0 {
		p.RegressionRules = append([]string(nil), wellness.DefaultRegressionRules...)
	}
	return p, true
}
