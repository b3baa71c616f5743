// Package orchestrator runs the agents against persisted state: single agent
// calls, the observe/reason/act/reflect cycle, reflections and the goal and
// plan formulation flows with their deterministic fallbacks.
package orchestrator

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/wilhg/wellagent/pkg/adaptation"
	"github.com/wilhg/wellagent/pkg/agent"
	"github.com/wilhg/wellagent/pkg/assembler"
	"github.com/wilhg/wellagent/pkg/errmodel"
	"github.com/wilhg/wellagent/pkg/logger"
	"github.com/wilhg/wellagent/pkg/monitoring"
	"github.com/wilhg/wellagent/pkg/prompt"
	"github.com/wilhg/wellagent/pkg/reasoning"
	"github.com/wilhg/wellagent/pkg/store"
	"github.com/wilhg/wellagent/pkg/wellness"
)

const (
	DefaultReflectionInterval = 7 * 24 * time.Hour
	defaultReflectionHistory  = 8
	defaultReflectionBudget   = 1500
)

// Orchestrator wires the agents to the store. It is safe for concurrent use
// across users; work for one user inside a cycle is sequential.
type Orchestrator struct {
	st       store.Store
	agents   map[agent.Kind]agent.Agent
	adapt    *adaptation.Service
	recorder *monitoring.Recorder
	asm      *assembler.Assembler
	log      *logger.Logger
	now      func() time.Time

	prompts            *prompt.Store
	applier            adaptation.Applier
	recorderOpts       []monitoring.RecorderOption
	reasoningEnabled   bool
	reflectionInterval time.Duration
	reflectionHistory  int
}

type Option func(*Orchestrator)

func WithLogger(l *logger.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.log = l
		}
	}
}

func WithClock(now func() time.Time) Option { return func(o *Orchestrator) { o.now = now } }

func WithPrompts(p *prompt.Store) Option { return func(o *Orchestrator) { o.prompts = p } }

// WithReasoning tells the orchestrator whether a real reasoning backend is
// configured. When false, goal and plan formulation use the deterministic
// fallbacks and the deviation hook is not installed.
func WithReasoning(enabled bool) Option { return func(o *Orchestrator) { o.reasoningEnabled = enabled } }

// WithAssembler sets the budgeted selector for earlier reflections.
func WithAssembler(a *assembler.Assembler) Option { return func(o *Orchestrator) { o.asm = a } }

// WithReflectionInterval sets how often a cycle reflects. Zero disables
// reflection inside cycles.
func WithReflectionInterval(d time.Duration) Option {
	return func(o *Orchestrator) { o.reflectionInterval = d }
}

func WithApplier(a adaptation.Applier) Option { return func(o *Orchestrator) { o.applier = a } }

// WithRecorderOptions passes options, such as a distributed locker, to the
// monitoring recorder.
func WithRecorderOptions(opts ...monitoring.RecorderOption) Option {
	return func(o *Orchestrator) { o.recorderOpts = append(o.recorderOpts, opts...) }
}

func New(st store.Store, gw reasoning.Gateway, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		st:                 st,
		log:                logger.Nop(),
		now:                func() time.Time { return time.Now().UTC() },
		reasoningEnabled:   true,
		reflectionInterval: DefaultReflectionInterval,
		reflectionHistory:  defaultReflectionHistory,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.log = o.log.With("component", "orchestrator")
	if o.prompts == nil {
		o.prompts = prompt.Defaults()
	}
	if o.asm == nil {
		o.asm = assembler.New(assembler.WithMaxTokens(defaultReflectionBudget))
	}
	if o.applier == nil {
		o.applier = adaptation.NewStoreApplier(st)
	}
	o.agents = agent.New(agent.Deps{Gateway: gw, Store: st, Prompts: o.prompts, Log: o.log, Now: o.now})
	o.adapt = adaptation.NewService(st, o.applier, o.log, adaptation.WithClock(o.now))
	o.recorder = monitoring.NewRecorder(st, o.log, o.recorderOpts...)
	if o.reasoningEnabled {
		o.recorder.SetDeviationHook(o.onDeviation)
	}
	return o
}

// Execute runs one agent. Agent failures are reported in the Output.
func (o *Orchestrator) Execute(ctx context.Context, kind agent.Kind, c agent.Context) agent.Output {
	ctx, span := otel.Tracer("orchestrator").Start(ctx, "Orchestrator.Execute", trace.WithAttributes(
		attribute.String("agent", kind.String()),
	))
	defer span.End()

	a, ok := o.agents[kind]
	if !ok {
		return agent.Output{Reasoning: "Error in " + kind.String() + ": agent is not registered", Action: map[string]any{}}
	}
	if c.Timestamp.IsZero() {
		c.Timestamp = o.now()
	}
	if c.Data == nil {
		c.Data = map[string]any{}
	}
	out := a.Execute(ctx, c)
	span.SetAttributes(attribute.Bool("agent.success", out.Success), attribute.Float64("agent.confidence", out.Confidence))
	if !out.Success {
		o.log.Warn("agent failed", "agent", kind.String(), "user_id", c.UserID, "reason", out.Reasoning)
	}
	return out
}

// ExecuteAgent is the string-keyed entry point. An unknown name is a caller
// error and is returned as such rather than as a failed Output.
func (o *Orchestrator) ExecuteAgent(ctx context.Context, name string, c agent.Context) (agent.Output, error) {
	kind, ok := agent.ParseKind(name)
	if !ok {
		return agent.Output{}, errmodel.Validation(errmodel.CodeUnknownAgent, "unknown agent type: "+name, map[string]any{"agent": name})
	}
	return o.Execute(ctx, kind, c), nil
}

// RecordMonitoring appends an entry with its derived streak fields.
func (o *Orchestrator) RecordMonitoring(ctx context.Context, e wellness.MonitoringEntry) (wellness.MonitoringEntry, error) {
	return o.recorder.Record(ctx, e)
}

// onDeviation re-runs monitoring so a deviation is analysed right away.
func (o *Orchestrator) onDeviation(ctx context.Context, e wellness.MonitoringEntry) {
	out := o.Execute(ctx, agent.KindMonitoring, agent.Context{UserID: e.UserID, Data: map[string]any{"trigger": "deviation"}})
	o.log.Info("deviation analysed", "user_id", e.UserID, "success", out.Success,
		"requires_adaptation", agent.RequiresAdaptation(out))
}

// DecideAdaptation records the user's verdict on a proposal.
func (o *Orchestrator) DecideAdaptation(ctx context.Context, userID, id string, approved bool) (wellness.Adaptation, error) {
	return o.adapt.Decide(ctx, userID, id, approved)
}

func (o *Orchestrator) PendingAdaptations(ctx context.Context, userID string) ([]wellness.Adaptation, error) {
	return o.adapt.ListPending(ctx, userID)
}

// Users lists the users a scheduler should cycle.
func (o *Orchestrator) Users(ctx context.Context) ([]string, error) {
	return o.st.ProfileUserIDs(ctx)
}

// optional treats a missing record as absent and passes other errors on.
func optional[T any](v T, err error) (*T, error) {
	if err == nil {
		return &v, nil
	}
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	return nil, errmodel.System("store_error", err.Error(), nil, err)
}
