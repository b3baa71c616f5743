package orchestrator

import (
	"context"
	"encoding/json"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wilhg/wellagent/pkg/adaptation"
	"github.com/wilhg/wellagent/pkg/agent"
	"github.com/wilhg/wellagent/pkg/wellness"
)

// Reasons a cycle stopped before adapting.
const (
	SkipMonitoringFailed = "monitoring failed: no adaptation this cycle"
	SkipNotRequired      = "monitoring did not ask for adaptation"
	SkipAdaptationFailed = "adaptation agent failed"
)

// CycleReport describes one cognitive cycle.
type CycleReport struct {
	UserID      string               `json:"userId"`
	StartedAt   time.Time            `json:"startedAt"`
	Monitoring  agent.Output         `json:"monitoring"`
	Adaptation  *agent.Output        `json:"adaptation,omitempty"`
	Decision    *wellness.Adaptation `json:"decision,omitempty"`
	Applied     bool                 `json:"applied"`
	ApplyError  string               `json:"applyError,omitempty"`
	Explanation *agent.Output        `json:"explanation,omitempty"`
	Reflection  *wellness.Reflection `json:"reflection,omitempty"`
	Skipped     string               `json:"skipped,omitempty"`
	Warnings    []string             `json:"warnings,omitempty"`
}

// CognitiveCycle observes the user's recent activity, adapts when the
// monitoring report asks for it, explains any proposal and reflects when a
// reflection is due. Agent failures end the cycle early and are reported;
// only store failures are returned as errors.
func (o *Orchestrator) CognitiveCycle(ctx context.Context, userID string) (CycleReport, error) {
	ctx, span := otel.Tracer("orchestrator").Start(ctx, "Orchestrator.CognitiveCycle", trace.WithAttributes(
		attribute.String("user.id", userID),
	))
	defer span.End()

	rep := CycleReport{UserID: userID, StartedAt: o.now()}
	log := o.log.With("user_id", userID)

	rep.Monitoring = o.Execute(ctx, agent.KindMonitoring, agent.Context{UserID: userID, Timestamp: rep.StartedAt})
	switch {
	case !rep.Monitoring.Success:
		rep.Skipped = SkipMonitoringFailed
	case !agent.RequiresAdaptation(rep.Monitoring):
		rep.Skipped = SkipNotRequired
	default:
		if err := o.adaptStep(ctx, &rep); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "adapt")
			return rep, err
		}
	}

	if rep.Monitoring.Success {
		if err := o.reflectStep(ctx, &rep); err != nil {
			log.Warn("reflection skipped", "error", err)
			rep.Warnings = append(rep.Warnings, "reflection: "+err.Error())
		}
	}

	span.SetAttributes(attribute.Bool("cycle.applied", rep.Applied), attribute.String("cycle.skipped", rep.Skipped))
	log.Info("cycle complete", "skipped", rep.Skipped, "applied", rep.Applied, "decision", rep.Decision != nil)
	return rep, nil
}

func (o *Orchestrator) adaptStep(ctx context.Context, rep *CycleReport) error {
	userID := rep.UserID
	goal, err := optional(o.st.ActiveGoal(ctx, userID))
	if err != nil {
		return err
	}
	goalID := ""
	if goal != nil {
		goalID = goal.ID
	}
	plan, err := optional(o.st.ActivePlan(ctx, userID, goalID))
	if err != nil {
		return err
	}
	profile, err := optional(o.st.GetProfile(ctx, userID))
	if err != nil {
		return err
	}

	out := o.Execute(ctx, agent.KindAdaptation, agent.Context{
		UserID:    userID,
		Timestamp: rep.StartedAt,
		Data: map[string]any{
			agent.DataMonitoringReport: rep.Monitoring,
			agent.DataCurrentPlan:      plan,
			agent.DataCurrentGoal:      goal,
			agent.DataProfile:          profile,
		},
	})
	rep.Adaptation = &out
	if !out.Success {
		rep.Skipped = SkipAdaptationFailed
		return nil
	}

	res, err := o.adapt.Propose(ctx, adaptation.Proposal{
		UserID:  userID,
		Goal:    goal,
		Plan:    plan,
		Trigger: map[string]any{"monitoring": rep.Monitoring.Action, "urgency": rep.Monitoring.Metadata["urgency"]},
	}, out)
	if err != nil {
		return err
	}
	rep.Decision = &res.Adaptation
	rep.Applied = res.Applied
	if res.ApplyErr != nil {
		rep.ApplyError = res.ApplyErr.Error()
	}

	expl := o.explain(ctx, res, profile)
	rep.Explanation = &expl
	if expl.Success {
		if err := o.adapt.AttachExplanation(ctx, res.Adaptation, expl.Action); err != nil {
			rep.Warnings = append(rep.Warnings, "explanation: "+err.Error())
		} else {
			res.Adaptation.Explanation = expl.Action
			rep.Decision = &res.Adaptation
		}
	}
	return nil
}

// explain runs the explainability agent on a detached copy of the decision.
func (o *Orchestrator) explain(ctx context.Context, res adaptation.Result, profile *wellness.Profile) agent.Output {
	decision := map[string]any{
		"type":                 string(res.Adaptation.ActionType),
		"changes":              res.Adaptation.ActionDetails,
		"rationale":            res.Rationale,
		"detectedIssue":        res.Adaptation.DetectedIssue,
		"expectedImpact":       res.Adaptation.ExpectedImpact,
		"confidence":           res.Adaptation.Confidence,
		"appliedAutomatically": res.Applied,
		"awaitingApproval":     !res.Applied,
	}
	userContext := map[string]any{}
	if profile != nil {
		userContext = map[string]any{
			"primaryIntent":     profile.PrimaryIntent,
			"motivationStyle":   profile.MotivationStyle,
			"adherenceRisk":     profile.AdherenceRisk,
			"feedbackFrequency": profile.FeedbackFrequency,
			"barriers":          profile.Barriers,
		}
	}
	return o.Execute(ctx, agent.KindExplainability, agent.Context{
		UserID: res.Adaptation.UserID,
		Data: map[string]any{
			agent.DataDecision:    deepCopy(decision),
			agent.DataUserContext: deepCopy(userContext),
		},
	})
}

// deepCopy detaches v from the caller through a JSON round trip.
func deepCopy(v map[string]any) map[string]any {
	b, err := json.Marshal(v)
	if err != nil {
		return map[string]any{}
	}
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		return map[string]any{}
	}
	return out
}
