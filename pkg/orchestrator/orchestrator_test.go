package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wilhg/wellagent/pkg/agent"
	"github.com/wilhg/wellagent/pkg/errmodel"
	"github.com/wilhg/wellagent/pkg/reasoning"
	"github.com/wilhg/wellagent/pkg/store"
	"github.com/wilhg/wellagent/pkg/store/memstore"
	"github.com/wilhg/wellagent/pkg/wellness"
)

var now = time.Date(2026, 5, 12, 7, 30, 0, 0, time.UTC)

// routeGateway answers each agent with its own canned object.
type routeGateway struct {
	mu      sync.Mutex
	replies map[string]map[string]any
	fails   map[string]error
	reqs    []reasoning.Request
}

func newGateway() *routeGateway {
	return &routeGateway{replies: map[string]map[string]any{}, fails: map[string]error{}}
}

func (g *routeGateway) on(k agent.Kind, v map[string]any) *routeGateway {
	g.replies[k.String()] = v
	return g
}

func (g *routeGateway) fail(k agent.Kind, err error) *routeGateway {
	g.fails[k.String()] = err
	return g
}

func (g *routeGateway) Complete(_ context.Context, r reasoning.Request) (reasoning.Response, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.reqs = append(g.reqs, r)
	if err := g.fails[r.Agent]; err != nil {
		return reasoning.Response{}, err
	}
	v, ok := g.replies[r.Agent]
	if !ok {
		return reasoning.Response{}, errors.New("no reply for " + r.Agent)
	}
	b, _ := json.Marshal(v)
	var obj map[string]any
	_ = json.Unmarshal(b, &obj)
	return reasoning.Response{Object: obj, Raw: string(b)}, nil
}

func (g *routeGateway) agents() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]string, 0, len(g.reqs))
	for _, r := range g.reqs {
		out = append(out, r.Agent)
	}
	return out
}

func (g *routeGateway) last(k agent.Kind) reasoning.Request {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i := len(g.reqs) - 1; i >= 0; i-- {
		if g.reqs[i].Agent == k.String() {
			return g.reqs[i]
		}
	}
	return reasoning.Request{}
}

type fixture struct {
	st   *memstore.Store
	gw   *routeGateway
	orch *Orchestrator
	goal wellness.Goal
	plan wellness.Plan
}

func setup(t *testing.T, opts ...Option) fixture {
	t.Helper()
	ctx := context.Background()
	st := memstore.New()
	_, err := st.UpsertProfile(ctx, wellness.Profile{
		UserID: "u1", PrimaryIntent: "sleep better", AvailableTime: 30,
		EnergyLevel: wellness.LevelMedium, AdherenceRisk: wellness.LevelHigh,
	})
	require.NoError(t, err)
	g, err := st.CreateGoal(ctx, wellness.Goal{UserID: "u1", Title: "Evening walks", Description: "walk", Status: wellness.GoalActive, TargetValue: 12, Unit: "sessions", AllowedMisses: 1})
	require.NoError(t, err)
	p, _ := wellness.FallbackPlan(g, now.AddDate(0, 0, -3))
	p, err = st.CreateActivePlan(ctx, p)
	require.NoError(t, err)

	gw := newGateway()
	opts = append([]Option{WithClock(func() time.Time { return now })}, opts...)
	return fixture{st: st, gw: gw, orch: New(st, gw, opts...), goal: g, plan: p}
}

func monitoringReply(requires bool) map[string]any {
	return map[string]any{
		"reasoning":  "two misses this week",
		"action":     map[string]any{"type": "monitoring_report", "trajectory": "declining", "adherenceScore": 0.5},
		"confidence": 0.8,
		"metadata":   map[string]any{"requiresAdaptation": requires, "urgency": "medium"},
	}
}

func adaptationReply(autonomous bool, confidence float64) map[string]any {
	return map[string]any{
		"reasoning": "sessions are too long for the evenings",
		"action": map[string]any{
			"type": "adapt_plan", "autonomous": autonomous,
			"changes":   map[string]any{"durationMinutes": 15},
			"rationale": "shorter sessions fit the evening slot",
		},
		"confidence": confidence,
		"metadata":   map[string]any{"triggerType": "missed_sessions", "detectedIssue": "evening fatigue"},
	}
}

var explanationReply = map[string]any{
	"reasoning":  "plain words",
	"action":     map[string]any{"title": "Shorter walks", "summary": "Walks are now 15 minutes."},
	"confidence": 0.9,
}

func TestExecuteAgent_UnknownName(t *testing.T) {
	f := setup(t)
	_, err := f.orch.ExecuteAgent(context.Background(), "horoscope", agent.Context{UserID: "u1"})
	require.Error(t, err)
	assert.True(t, errmodel.IsCode(err, errmodel.CodeUnknownAgent))
	assert.Empty(t, f.gw.agents())
}

func TestExecuteAgent_ByName(t *testing.T) {
	f := setup(t)
	f.gw.on(agent.KindMonitoring, monitoringReply(false))
	out, err := f.orch.ExecuteAgent(context.Background(), "monitoring", agent.Context{UserID: "u1"})
	require.NoError(t, err)
	assert.True(t, out.Success, out.Reasoning)
	assert.Equal(t, []string{"monitoring"}, f.gw.agents())
}

func TestCognitiveCycle_MonitoringFailureStops(t *testing.T) {
	f := setup(t)
	f.gw.fail(agent.KindMonitoring, errors.New("provider down"))

	rep, err := f.orch.CognitiveCycle(context.Background(), "u1")
	require.NoError(t, err)
	assert.False(t, rep.Monitoring.Success)
	assert.Equal(t, SkipMonitoringFailed, rep.Skipped)
	assert.Nil(t, rep.Adaptation)
	assert.Nil(t, rep.Decision)
	assert.Equal(t, []string{"monitoring"}, f.gw.agents())

	all, err := f.st.ListAdaptations(context.Background(), store.AdaptationFilter{UserID: "u1"})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCognitiveCycle_NoAdaptationRequired(t *testing.T) {
	f := setup(t)
	f.gw.on(agent.KindMonitoring, monitoringReply(false))

	rep, err := f.orch.CognitiveCycle(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, rep.Monitoring.Success)
	assert.Equal(t, SkipNotRequired, rep.Skipped)
	assert.Equal(t, []string{"monitoring"}, f.gw.agents())
}

func TestCognitiveCycle_AutonomousAdaptationApplied(t *testing.T) {
	f := setup(t)
	f.gw.on(agent.KindMonitoring, monitoringReply(true)).
		on(agent.KindAdaptation, adaptationReply(true, 0.9)).
		on(agent.KindExplainability, explanationReply)
	ctx := context.Background()

	rep, err := f.orch.CognitiveCycle(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, rep.Skipped)
	assert.True(t, rep.Applied)
	assert.Empty(t, rep.ApplyError)
	require.NotNil(t, rep.Decision)
	assert.Equal(t, wellness.AdaptationImplemented, rep.Decision.State())
	assert.Nil(t, rep.Decision.UserApproved)
	assert.Equal(t, []string{"monitoring", "adaptation", "explainability"}, f.gw.agents())

	stored, err := f.st.GetAdaptation(ctx, "u1", rep.Decision.ID)
	require.NoError(t, err)
	assert.Equal(t, wellness.AdaptationImplemented, stored.State())
	assert.Equal(t, "Shorter walks", stored.Explanation["title"])
	assert.Equal(t, f.plan.ID, stored.PlanID)
	assert.Equal(t, "evening fatigue", stored.DetectedIssue)

	plan, err := f.st.GetPlan(ctx, "u1", f.plan.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, plan.Version)
	for _, b := range plan.BlocksForWeek(plan.CurrentWeek) {
		assert.Equal(t, 15, b.DurationMinutes)
	}

	// the explainability agent sees the decision and the user's context
	req := f.gw.last(agent.KindExplainability)
	assert.Contains(t, req.UserPrompt, "adapt_plan")
	assert.Contains(t, req.UserPrompt, "sleep better")
}

func TestCognitiveCycle_LowConfidenceAwaitsApproval(t *testing.T) {
	f := setup(t)
	f.gw.on(agent.KindMonitoring, monitoringReply(true)).
		on(agent.KindAdaptation, adaptationReply(true, 0.75)).
		on(agent.KindExplainability, explanationReply)
	ctx := context.Background()

	rep, err := f.orch.CognitiveCycle(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, rep.Applied)
	require.NotNil(t, rep.Decision)
	assert.Equal(t, wellness.AdaptationProposed, rep.Decision.State())
	require.NotNil(t, rep.Explanation)
	assert.True(t, rep.Explanation.Success)

	pending, err := f.orch.PendingAdaptations(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, pending, 1)

	plan, err := f.st.GetPlan(ctx, "u1", f.plan.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, plan.Version)

	decided, err := f.orch.DecideAdaptation(ctx, "u1", pending[0].ID, true)
	require.NoError(t, err)
	assert.Equal(t, wellness.AdaptationImplemented, decided.State())
	plan, err = f.st.GetPlan(ctx, "u1", f.plan.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, plan.Version)
}

func TestCognitiveCycle_AdaptationFailure(t *testing.T) {
	f := setup(t)
	f.gw.on(agent.KindMonitoring, monitoringReply(true)).
		fail(agent.KindAdaptation, errors.New("timeout"))

	rep, err := f.orch.CognitiveCycle(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, SkipAdaptationFailed, rep.Skipped)
	require.NotNil(t, rep.Adaptation)
	assert.False(t, rep.Adaptation.Success)
	assert.Nil(t, rep.Decision)
	assert.Nil(t, rep.Explanation)
}

func record(t *testing.T, o *Orchestrator, day time.Time, completed bool) wellness.MonitoringEntry {
	t.Helper()
	e, err := o.RecordMonitoring(context.Background(), wellness.MonitoringEntry{
		UserID: "u1", Date: day, ActivityType: "walk", Completed: completed, EnergyLevel: "medium",
	})
	require.NoError(t, err)
	return e
}

func TestRecordMonitoring_SevenDays(t *testing.T) {
	f := setup(t)
	f.gw.on(agent.KindMonitoring, monitoringReply(false))
	start := now.AddDate(0, 0, -7)

	var streaks, misses []int
	var deviations []bool
	for i, done := range []bool{true, true, true, false, true, true, true} {
		e := record(t, f.orch, start.AddDate(0, 0, i), done)
		streaks = append(streaks, e.StreakCount)
		misses = append(misses, e.ConsecutiveMisses)
		deviations = append(deviations, e.IsDeviation)
	}
	assert.Equal(t, []int{1, 2, 3, 0, 1, 2, 3}, streaks)
	assert.Equal(t, []int{0, 0, 0, 1, 0, 0, 0}, misses)
	assert.Equal(t, []bool{false, false, false, true, false, false, false}, deviations)

	// the single deviation was analysed straight away
	assert.Equal(t, []string{"monitoring"}, f.gw.agents())
}

func TestRecordMonitoring_NoHookWithoutReasoning(t *testing.T) {
	f := setup(t, WithReasoning(false))
	record(t, f.orch, now.AddDate(0, 0, -1), false)
	assert.Empty(t, f.gw.agents())
}

var reflectionReply = map[string]any{
	"reasoning": "steady week",
	"action": map[string]any{
		"comparison":      map[string]any{"intended": "3 walks", "variance": -0.33},
		"successFactors":  []any{"short sessions"},
		"failureFactors":  []any{"late meetings"},
		"patterns":        []any{"misses on Wednesdays"},
		"rootCauses":      []any{"calendar overload"},
		"lessonsLearned":  []any{"walk before work"},
		"recommendations": []any{"move Wednesday walk to the morning"},
	},
	"confidence": 0.7,
}

func TestReflect_PersistsReflection(t *testing.T) {
	f := setup(t, WithReasoning(false))
	f.gw.on(agent.KindReflection, reflectionReply)
	ctx := context.Background()
	start := now.AddDate(0, 0, -7)
	record(t, f.orch, start.Add(time.Hour), true)
	record(t, f.orch, start.AddDate(0, 0, 2), true)

	r, out, err := f.orch.Reflect(ctx, "u1", start, now)
	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.NotEmpty(t, r.ID)
	assert.Equal(t, wellness.ReflectionWeekly, r.ReflectionType)
	assert.Equal(t, "3 walks", r.IntendedBehavior)
	assert.Contains(t, r.ActualBehavior, `"completed":2`)
	assert.Equal(t, "-0.33", r.Variance)
	assert.Equal(t, []string{"calendar overload"}, r.RootCauses)
	assert.Equal(t, 0.7, r.ConfidenceScore)

	// a second reflection carries the first one as history
	_, _, err = f.orch.Reflect(ctx, "u1", now, now.AddDate(0, 0, 14))
	require.NoError(t, err)
	req := f.gw.last(agent.KindReflection)
	assert.Contains(t, req.UserPrompt, "walk before work")

	stored, err := f.st.ListReflections(ctx, "u1", 10)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, wellness.ReflectionCustom, stored[0].ReflectionType)
}

func TestReflect_InvalidPeriod(t *testing.T) {
	f := setup(t)
	_, _, err := f.orch.Reflect(context.Background(), "u1", now, now)
	require.Error(t, err)
	assert.True(t, errmodel.IsCategory(err, errmodel.CategoryValidation))
	assert.Empty(t, f.gw.agents())
}

func TestReflect_AgentFailure(t *testing.T) {
	f := setup(t)
	f.gw.fail(agent.KindReflection, errors.New("boom"))
	_, out, err := f.orch.Reflect(context.Background(), "u1", now.AddDate(0, 0, -7), now)
	require.Error(t, err)
	assert.False(t, out.Success)
	stored, err := f.st.ListReflections(context.Background(), "u1", 10)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestCognitiveCycle_ReflectsWhenDue(t *testing.T) {
	f := setup(t, WithReasoning(false))
	f.gw.on(agent.KindMonitoring, monitoringReply(false)).on(agent.KindReflection, reflectionReply)
	ctx := context.Background()

	due, _, err := f.orch.ReflectionDue(ctx, "u1", now)
	require.NoError(t, err)
	assert.False(t, due, "nothing logged yet")

	record(t, f.orch, now.AddDate(0, 0, -2), true)
	rep, err := f.orch.CognitiveCycle(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, rep.Reflection)
	assert.True(t, rep.Reflection.PeriodStart.Equal(now.AddDate(0, 0, -7)))
	assert.True(t, rep.Reflection.PeriodEnd.Equal(now))

	// the next cycle within the interval does not reflect again
	rep, err = f.orch.CognitiveCycle(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, rep.Reflection)
	assert.Equal(t, []string{"monitoring", "reflection", "monitoring"}, f.gw.agents())
}

func TestFormulateGoal(t *testing.T) {
	manual := &wellness.GoalRequest{Category: "sleep", TargetValue: 10, Unit: "nights"}

	t.Run("agent", func(t *testing.T) {
		f := setup(t)
		f.gw.on(agent.KindGoalFormulation, map[string]any{
			"reasoning":  "realistic",
			"action":     map[string]any{"goal": map[string]any{"title": "Lights out by 23:00", "targetValue": 20, "unit": "nights"}},
			"confidence": 0.85,
		})
		res, err := f.orch.FormulateGoal(context.Background(), GoalInput{UserID: "u1", Intent: "sleep earlier"})
		require.NoError(t, err)
		assert.False(t, res.Fallback)
		assert.Equal(t, "Lights out by 23:00", res.Record.Title)
		assert.Equal(t, wellness.GoalActive, res.Record.Status)
		assert.Equal(t, 1, res.Record.AllowedMisses)
		assert.NotEmpty(t, res.Record.ID)
		assert.Equal(t, 0.85, res.Confidence)
	})

	t.Run("reasoning disabled uses manual input", func(t *testing.T) {
		f := setup(t, WithReasoning(false))
		res, err := f.orch.FormulateGoal(context.Background(), GoalInput{UserID: "u1", Manual: manual})
		require.NoError(t, err)
		assert.True(t, res.Fallback)
		assert.Equal(t, "Sleep Goal", res.Record.Title)
		assert.Equal(t, "Reduce target to 7 nights if struggling", res.Record.FallbackGoal)
		assert.Empty(t, f.gw.agents())
	})

	t.Run("reasoning disabled without manual input", func(t *testing.T) {
		f := setup(t, WithReasoning(false))
		_, err := f.orch.FormulateGoal(context.Background(), GoalInput{UserID: "u1", Intent: "sleep"})
		require.Error(t, err)
		assert.True(t, errmodel.IsCategory(err, errmodel.CategoryValidation))
	})

	t.Run("agent failure falls back to manual input", func(t *testing.T) {
		f := setup(t)
		f.gw.fail(agent.KindGoalFormulation, errors.New("down"))
		res, err := f.orch.FormulateGoal(context.Background(), GoalInput{UserID: "u1", Intent: "sleep", Manual: manual})
		require.NoError(t, err)
		assert.True(t, res.Fallback)
	})
}

func TestCreatePlan(t *testing.T) {
	ctx := context.Background()

	t.Run("agent plan gets default fallback blocks", func(t *testing.T) {
		f := setup(t)
		f.gw.on(agent.KindPlanning, map[string]any{
			"reasoning": "two week ramp",
			"action": map[string]any{"plan": map[string]any{
				"title": "Walk ramp", "strategyType": "intensive",
				"activities": []any{
					map[string]any{"week": 1, "days": []any{"Monday", "Thursday"}, "activity": "walk", "durationMinutes": 20, "intensity": "low"},
					map[string]any{"week": 2, "days": []any{"Monday", "Thursday", "Saturday"}, "activity": "walk", "durationMinutes": 25, "intensity": "medium"},
				},
			}},
			"confidence": 0.8,
		})
		res, err := f.orch.CreatePlan(ctx, "u1", f.goal.ID, 2)
		require.NoError(t, err)
		assert.False(t, res.Fallback)
		p := res.Record
		assert.Equal(t, "Walk ramp", p.Title)
		assert.Equal(t, wellness.StrategyIntensive, p.StrategyType)
		assert.True(t, p.EndDate.Equal(now.AddDate(0, 0, 14)))
		assert.Equal(t, wellness.FallbackBlocks("walk"), p.FallbackPlan)
		assert.Equal(t, wellness.RecoveryBlocks("walk"), p.RecoveryPlan)
		assert.Equal(t, 1, p.Version)

		active, err := f.st.ActivePlan(ctx, "u1", f.goal.ID)
		require.NoError(t, err)
		assert.Equal(t, p.ID, active.ID)
		old, err := f.st.GetPlan(ctx, "u1", f.plan.ID)
		require.NoError(t, err)
		assert.Equal(t, wellness.PlanSuperseded, old.Status)
	})

	t.Run("reasoning disabled", func(t *testing.T) {
		f := setup(t, WithReasoning(false))
		res, err := f.orch.CreatePlan(ctx, "u1", f.goal.ID, 0)
		require.NoError(t, err)
		assert.True(t, res.Fallback)
		assert.Len(t, res.Record.Activities, 4)
		assert.Empty(t, f.gw.agents())
	})

	t.Run("agent failure", func(t *testing.T) {
		f := setup(t)
		f.gw.fail(agent.KindPlanning, errors.New("down"))
		res, err := f.orch.CreatePlan(ctx, "u1", f.goal.ID, 4)
		require.NoError(t, err)
		assert.True(t, res.Fallback)
		assert.Equal(t, wellness.StrategyGradual, res.Record.StrategyType)
	})

	t.Run("unknown goal", func(t *testing.T) {
		f := setup(t)
		_, err := f.orch.CreatePlan(ctx, "u1", "missing", 4)
		require.Error(t, err)
		assert.True(t, errmodel.IsCode(err, errmodel.CodeNotFound))
	})
}
