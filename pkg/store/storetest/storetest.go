// Package storetest holds a backend-agnostic conformance suite for
// store.Store implementations.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/wilhg/wellagent/pkg/store"
	"github.com/wilhg/wellagent/pkg/wellness"
)

// Run executes the conformance suite against a fresh store per subtest.
func Run(t *testing.T, open func(t *testing.T) store.Store) {
	t.Helper()
	t.Run("ProfileUpsert", func(t *testing.T) { testProfileUpsert(t, open(t)) })
	t.Run("GoalScoping", func(t *testing.T) { testGoalScoping(t, open(t)) })
	t.Run("PlanSupersede", func(t *testing.T) { testPlanSupersede(t, open(t)) })
	t.Run("MonitoringQuery", func(t *testing.T) { testMonitoringQuery(t, open(t)) })
	t.Run("AdaptationTransition", func(t *testing.T) { testAdaptationTransition(t, open(t)) })
	t.Run("ReflectionsOrder", func(t *testing.T) { testReflectionsOrder(t, open(t)) })
	t.Run("AgentLogs", func(t *testing.T) { testAgentLogs(t, open(t)) })
}

func day(d int) time.Time { return time.Date(2026, 2, d, 8, 0, 0, 0, time.UTC) }

func testProfileUpsert(t *testing.T, st store.Store) {
	ctx := context.Background()
	if _, err := st.GetProfile(ctx, "u1"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	p1, err := st.UpsertProfile(ctx, wellness.Profile{UserID: "u1", AvailableTime: 30, Barriers: []string{"Time"}})
	if err != nil {
		t.Fatal(err)
	}
	p2, err := st.UpsertProfile(ctx, wellness.Profile{UserID: "u1", AvailableTime: 60, Barriers: []string{"Energy", "Travel"}})
	if err != nil {
		t.Fatal(err)
	}
	if p1.ID != p2.ID {
		t.Fatalf("upsert must keep identity: %s vs %s", p1.ID, p2.ID)
	}
	got, err := st.GetProfile(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if got.AvailableTime != 60 || len(got.Barriers) != 2 || got.Barriers[1] != "Travel" {
		t.Fatalf("profile not replaced: %+v", got)
	}
	ids, err := st.ProfileUserIDs(ctx)
	if err != nil || len(ids) != 1 || ids[0] != "u1" {
		t.Fatalf("ids=%v err=%v", ids, err)
	}
}

func testGoalScoping(t *testing.T, st store.Store) {
	ctx := context.Background()
	g, err := st.CreateGoal(ctx, wellness.Goal{UserID: "u1", Title: "Run", Status: wellness.GoalActive, AllowedMisses: 2})
	if err != nil {
		t.Fatal(err)
	}
	if g.ID == "" {
		t.Fatal("id not assigned")
	}
	if _, err := st.GetGoal(ctx, "u2", g.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("goal leaked across users: %v", err)
	}
	active, err := st.ActiveGoal(ctx, "u1")
	if err != nil || active.ID != g.ID {
		t.Fatalf("active=%+v err=%v", active, err)
	}
	g.Status = wellness.GoalPaused
	if err := st.UpdateGoal(ctx, g); err != nil {
		t.Fatal(err)
	}
	if _, err := st.ActiveGoal(ctx, "u1"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("paused goal returned as active: %v", err)
	}
}

func testPlanSupersede(t *testing.T, st store.Store) {
	ctx := context.Background()
	first, err := st.CreateActivePlan(ctx, wellness.Plan{UserID: "u1", GoalID: "g1", Title: "v1",
		Activities: []wellness.ActivityBlock{{Week: 1, Days: []string{"Monday"}, Activity: "walk", DurationMinutes: 20}}})
	if err != nil {
		t.Fatal(err)
	}
	second, err := st.CreateActivePlan(ctx, wellness.Plan{UserID: "u1", GoalID: "g1", Title: "v2"})
	if err != nil {
		t.Fatal(err)
	}
	old, err := st.GetPlan(ctx, "u1", first.ID)
	if err != nil {
		t.Fatal(err)
	}
	if old.Status != wellness.PlanSuperseded {
		t.Fatalf("first plan status=%s", old.Status)
	}
	if len(old.Activities) != 1 || old.Activities[0].Days[0] != "Monday" {
		t.Fatalf("activities not round-tripped: %+v", old.Activities)
	}
	active, err := st.ActivePlan(ctx, "u1", "g1")
	if err != nil || active.ID != second.ID {
		t.Fatalf("active=%+v err=%v", active, err)
	}
	active.CurrentWeek = 2
	active.Version = second.Version + 1
	if err := st.UpdatePlan(ctx, active, second.Version); err != nil {
		t.Fatal(err)
	}
	if err := st.UpdatePlan(ctx, active, second.Version); !errors.Is(err, store.ErrStale) {
		t.Fatalf("want ErrStale on outdated version, got %v", err)
	}
}

func testMonitoringQuery(t *testing.T, st store.Store) {
	ctx := context.Background()
	for d := 1; d <= 5; d++ {
		if _, err := st.AppendMonitoring(ctx, wellness.MonitoringEntry{UserID: "u1", Date: day(d), ActivityType: "walk", Completed: d%2 == 1}); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := st.AppendMonitoring(ctx, wellness.MonitoringEntry{UserID: "u2", Date: day(3), ActivityType: "walk"}); err != nil {
		t.Fatal(err)
	}
	got, err := st.ListMonitoring(ctx, store.MonitoringQuery{UserID: "u1", Before: day(5), Descending: true, Limit: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || !got[0].Date.Equal(day(4)) || !got[1].Date.Equal(day(3)) {
		t.Fatalf("unexpected page: %+v", got)
	}
	next, err := st.ListMonitoring(ctx, store.MonitoringQuery{UserID: "u1", Before: day(5), Descending: true, Limit: 2, Offset: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(next) != 2 || !next[0].Date.Equal(day(2)) {
		t.Fatalf("unexpected second page: %+v", next)
	}
	window, err := st.ListMonitoring(ctx, store.MonitoringQuery{UserID: "u1", From: day(4)})
	if err != nil {
		t.Fatal(err)
	}
	if len(window) != 2 || !window[0].Date.Equal(day(4)) {
		t.Fatalf("unexpected window: %+v", window)
	}
}

func testAdaptationTransition(t *testing.T, st store.Store) {
	ctx := context.Background()
	a, err := st.CreateAdaptation(ctx, wellness.Adaptation{UserID: "u1", ActionType: wellness.AdaptPlan,
		ActionDetails: map[string]any{"durationDelta": float64(-5)}, TriggerType: "deviation"})
	if err != nil {
		t.Fatal(err)
	}
	pending, err := st.ListAdaptations(ctx, store.AdaptationFilter{UserID: "u1", State: wellness.AdaptationProposed})
	if err != nil || len(pending) != 1 {
		t.Fatalf("pending=%v err=%v", pending, err)
	}
	yes := true
	a.UserApproved = &yes
	if err := st.TransitionAdaptation(ctx, a, wellness.AdaptationProposed); err != nil {
		t.Fatal(err)
	}
	if err := st.TransitionAdaptation(ctx, a, wellness.AdaptationProposed); !errors.Is(err, store.ErrStale) {
		t.Fatalf("second decision should be stale, got %v", err)
	}
	if err := st.SetExplanation(ctx, "u1", a.ID, map[string]any{"title": "Shorter sessions"}); err != nil {
		t.Fatal(err)
	}
	got, err := st.GetAdaptation(ctx, "u1", a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.State() != wellness.AdaptationApproved || got.Explanation["title"] != "Shorter sessions" {
		t.Fatalf("got=%+v", got)
	}
	if v, _ := got.ActionDetails["durationDelta"].(float64); v != -5 {
		t.Fatalf("action details not round-tripped: %+v", got.ActionDetails)
	}
}

func testReflectionsOrder(t *testing.T, st store.Store) {
	ctx := context.Background()
	for _, end := range []int{7, 21, 14} {
		if _, err := st.CreateReflection(ctx, wellness.Reflection{UserID: "u1", PeriodStart: day(end - 6), PeriodEnd: day(end),
			Patterns: []string{"p"}, RootCauses: []string{"r"}, LessonsLearned: []string{"l"}}); err != nil {
			t.Fatal(err)
		}
	}
	got, err := st.ListReflections(ctx, "u1", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || !got[0].PeriodEnd.Equal(day(21)) || !got[1].PeriodEnd.Equal(day(14)) {
		t.Fatalf("unexpected order: %+v", got)
	}
	if len(got[0].RootCauses) != 1 {
		t.Fatalf("lists not round-tripped: %+v", got[0])
	}
}

func testAgentLogs(t *testing.T, st store.Store) {
	ctx := context.Background()
	for _, a := range []string{"monitoring", "adaptation"} {
		if _, err := st.AppendAgentLog(ctx, wellness.AgentLog{UserID: "u1", AgentType: a, Action: "reasoning", Input: "{}", ExecutionTime: 3}); err != nil {
			t.Fatal(err)
		}
	}
	got, err := st.ListAgentLogs(ctx, store.AgentLogFilter{UserID: "u1", AgentType: "adaptation"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].AgentType != "adaptation" || got[0].ExecutionTime != 3 {
		t.Fatalf("logs=%+v", got)
	}
}
