package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/wilhg/wellagent/pkg/agent"
	"github.com/wilhg/wellagent/pkg/assembler"
	"github.com/wilhg/wellagent/pkg/errmodel"
	"github.com/wilhg/wellagent/pkg/monitoring"
	"github.com/wilhg/wellagent/pkg/store"
	"github.com/wilhg/wellagent/pkg/wellness"
)

// ReflectionDue reports whether a reflection should run at now and the
// start of the period it would cover. A reflection is due when the last one
// ended at least one interval ago, or there is none yet, and something was
// logged since.
func (o *Orchestrator) ReflectionDue(ctx context.Context, userID string, now time.Time) (bool, time.Time, error) {
	if o.reflectionInterval <= 0 {
		return false, time.Time{}, nil
	}
	start := now.Add(-o.reflectionInterval)
	last, err := o.st.ListReflections(ctx, userID, 1)
	if err != nil {
		return false, time.Time{}, errmodel.System("store_error", "list reflections", nil, err)
	}
	if len(last) > 0 {
		if now.Sub(last[0].PeriodEnd) < o.reflectionInterval {
			return false, time.Time{}, nil
		}
		start = last[0].PeriodEnd
	}
	logged, err := o.st.ListMonitoring(ctx, store.MonitoringQuery{UserID: userID, From: start, Before: now, Limit: 1})
	if err != nil {
		return false, time.Time{}, errmodel.System("store_error", "list monitoring", nil, err)
	}
	return len(logged) > 0, start, nil
}

func (o *Orchestrator) reflectStep(ctx context.Context, rep *CycleReport) error {
	due, start, err := o.ReflectionDue(ctx, rep.UserID, rep.StartedAt)
	if err != nil || !due {
		return err
	}
	r, _, err := o.Reflect(ctx, rep.UserID, start, rep.StartedAt)
	if err != nil {
		return err
	}
	rep.Reflection = &r
	return nil
}

// Reflect compares the active plan with what was logged in [start, end],
// runs the reflection agent and stores the result.
func (o *Orchestrator) Reflect(ctx context.Context, userID string, start, end time.Time) (wellness.Reflection, agent.Output, error) {
	start, end = start.UTC(), end.UTC()
	if !end.After(start) {
		return wellness.Reflection{}, agent.Output{}, errmodel.Validation("invalid_period", "reflection period must end after it starts",
			map[string]any{"start": start, "end": end})
	}
	plan, err := optional(o.st.ActivePlan(ctx, userID, ""))
	if err != nil {
		return wellness.Reflection{}, agent.Output{}, err
	}
	entries, err := o.st.ListMonitoring(ctx, store.MonitoringQuery{UserID: userID, From: start, Before: end.Add(time.Nanosecond)})
	if err != nil {
		return wellness.Reflection{}, agent.Output{}, errmodel.System("store_error", "list monitoring", nil, err)
	}
	previous, err := o.previousReflections(ctx, userID)
	if err != nil {
		return wellness.Reflection{}, agent.Output{}, err
	}

	intended := intendedBehaviour(plan, start, end)
	actual := monitoring.Summarize(entries)
	out := o.Execute(ctx, agent.KindReflection, agent.Context{
		UserID:    userID,
		Timestamp: end,
		Data: map[string]any{
			agent.DataPeriodStart:         start,
			agent.DataPeriodEnd:           end,
			agent.DataIntended:            intended,
			agent.DataActual:              actual,
			agent.DataPreviousReflections: previous,
		},
	})
	if !out.Success {
		return wellness.Reflection{}, out, errmodel.Model("reflection_failed", out.Reasoning, map[string]any{"user_id": userID}, nil)
	}
	report, err := agent.DecodeAction[agent.ReflectionReport](out)
	if err != nil {
		return wellness.Reflection{}, out, err
	}

	r := wellness.Reflection{
		UserID:           userID,
		PeriodStart:      start,
		PeriodEnd:        end,
		ReflectionType:   wellness.ReflectionWeekly,
		IntendedBehavior: text(report.Comparison["intended"], intended),
		ActualBehavior:   text(report.Comparison["actual"], actual),
		Variance:         variance(report.Comparison["variance"], intended.Sessions, actual.Completed),
		SuccessFactors:   report.SuccessFactors,
		FailureFactors:   report.FailureFactors,
		ExternalFactors:  report.ExternalFactors,
		Patterns:         report.Patterns,
		RootCauses:       report.RootCauses,
		LessonsLearned:   report.LessonsLearned,
		HeuristicUpdates: report.HeuristicUpdates,
		Recommendations:  report.Recommendations,
		ConfidenceScore:  out.Confidence,
	}
	if end.Sub(start) > 8*24*time.Hour {
		r.ReflectionType = wellness.ReflectionCustom
	}
	r, err = o.st.CreateReflection(ctx, r)
	if err != nil {
		return wellness.Reflection{}, out, errmodel.System("store_error", "create reflection", nil, err)
	}
	o.log.Info("reflection stored", "user_id", userID, "reflection", r.ID, "entries", actual.Total)
	return r, out, nil
}

// previousReflections returns summaries of recent reflections, newest first,
// trimmed to the assembler's token budget.
func (o *Orchestrator) previousReflections(ctx context.Context, userID string) ([]string, error) {
	past, err := o.st.ListReflections(ctx, userID, o.reflectionHistory)
	if err != nil {
		return nil, errmodel.System("store_error", "list reflections", nil, err)
	}
	items := make([]assembler.Item, 0, len(past))
	for i, r := range past {
		items = append(items, assembler.Item{Key: r.ID, Priority: i, Text: agent.SummarizeReflection(r)})
	}
	picked, log := o.asm.Assemble(items)
	if log.DroppedCount > 0 {
		o.log.Debug("older reflections trimmed", "user_id", userID, "dropped", log.DroppedCount, "tokens", log.IncludedTokens)
	}
	out := make([]string, 0, len(picked))
	for _, it := range picked {
		out = append(out, it.Text)
	}
	return out, nil
}

// Intended describes what the plan asked for during a period.
type Intended struct {
	Plan     string                   `json:"plan,omitempty"`
	Strategy wellness.Strategy        `json:"strategy,omitempty"`
	Sessions int                      `json:"sessions"`
	Blocks   []wellness.ActivityBlock `json:"blocks,omitempty"`
}

func intendedBehaviour(p *wellness.Plan, start, end time.Time) Intended {
	if p == nil {
		return Intended{}
	}
	in := Intended{Plan: p.Title, Strategy: p.StrategyType}
	for w := p.WeekAt(start); w <= p.WeekAt(end); w++ {
		in.Blocks = append(in.Blocks, p.BlocksForWeek(w)...)
		in.Sessions += p.SessionsPerWeek(w)
	}
	return in
}

// text prefers the model's wording and falls back to the JSON of v.
func text(model any, v any) string {
	if s, ok := model.(string); ok && s != "" {
		return s
	}
	b, _ := json.Marshal(v)
	return string(b)
}

func variance(model any, planned, done int) string {
	if f, ok := model.(float64); ok {
		return fmt.Sprintf("%.2f", f)
	}
	if planned == 0 {
		return ""
	}
	return fmt.Sprintf("%.2f", float64(done)/float64(planned)-1)
}
