package store

import (
	"context"

	"github.com/wilhg/wellagent/pkg/wellness"
)

// ProfileStore keeps the single onboarding profile per user.
type ProfileStore interface {
	GetProfile(ctx context.Context, userID string) (wellness.Profile, error)
	// UpsertProfile replaces the user's profile as a whole.
	UpsertProfile(ctx context.Context, p wellness.Profile) (wellness.Profile, error)
	// ProfileUserIDs lists users that completed onboarding.
	ProfileUserIDs(ctx context.Context) ([]string, error)
}

type GoalStore interface {
	CreateGoal(ctx context.Context, g wellness.Goal) (wellness.Goal, error)
	GetGoal(ctx context.Context, userID, goalID string) (wellness.Goal, error)
	// ActiveGoal returns the most recently created active goal.
	ActiveGoal(ctx context.Context, userID string) (wellness.Goal, error)
	ListGoals(ctx context.Context, userID string) ([]wellness.Goal, error)
	UpdateGoal(ctx context.Context, g wellness.Goal) error
}

type PlanStore interface {
	// CreateActivePlan stores p as active and marks any other active plan of
	// the same goal superseded, atomically.
	CreateActivePlan(ctx context.Context, p wellness.Plan) (wellness.Plan, error)
	GetPlan(ctx context.Context, userID, planID string) (wellness.Plan, error)
	// ActivePlan returns the active plan for goalID, or the most recent
	// active plan of the user when goalID is empty.
	ActivePlan(ctx context.Context, userID, goalID string) (wellness.Plan, error)
	// UpdatePlan writes p only if the stored version equals expectVersion.
	UpdatePlan(ctx context.Context, p wellness.Plan, expectVersion int) error
}

// MonitoringStore is an append-only time series.
type MonitoringStore interface {
	AppendMonitoring(ctx context.Context, e wellness.MonitoringEntry) (wellness.MonitoringEntry, error)
	ListMonitoring(ctx context.Context, q MonitoringQuery) ([]wellness.MonitoringEntry, error)
}

type AdaptationStore interface {
	CreateAdaptation(ctx context.Context, a wellness.Adaptation) (wellness.Adaptation, error)
	GetAdaptation(ctx context.Context, userID, id string) (wellness.Adaptation, error)
	// TransitionAdaptation persists a's decision fields only if the stored
	// record is still in state from. Otherwise it returns ErrStale.
	TransitionAdaptation(ctx context.Context, a wellness.Adaptation, from wellness.AdaptationState) error
	// SetExplanation attaches the user-facing explanation of a decision.
	SetExplanation(ctx context.Context, userID, id string, explanation map[string]any) error
	ListAdaptations(ctx context.Context, f AdaptationFilter) ([]wellness.Adaptation, error)
}

type ReflectionStore interface {
	CreateReflection(ctx context.Context, r wellness.Reflection) (wellness.Reflection, error)
	// ListReflections returns the newest reflections first, by period end.
	ListReflections(ctx context.Context, userID string, limit int) ([]wellness.Reflection, error)
}

// AgentLogStore is the append-only audit trail of reasoning calls.
type AgentLogStore interface {
	AppendAgentLog(ctx context.Context, l wellness.AgentLog) (wellness.AgentLog, error)
	ListAgentLogs(ctx context.Context, f AgentLogFilter) ([]wellness.AgentLog, error)
}

// Store aggregates every record store.
type Store interface {
	ProfileStore
	GoalStore
	PlanStore
	MonitoringStore
	AdaptationStore
	ReflectionStore
	AgentLogStore
	Close() error
}
