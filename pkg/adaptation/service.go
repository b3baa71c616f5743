package adaptation

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/wilhg/wellagent/pkg/agent"
	"github.com/wilhg/wellagent/pkg/errmodel"
	"github.com/wilhg/wellagent/pkg/logger"
	"github.com/wilhg/wellagent/pkg/store"
	"github.com/wilhg/wellagent/pkg/wellness"
)

// Service records adaptation decisions and moves them through their states.
type Service struct {
	st      store.AdaptationStore
	applier Applier
	log     *logger.Logger
	now     func() time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

func NewService(st store.AdaptationStore, ap Applier, log *logger.Logger, opts ...Option) *Service {
	if log == nil {
		log = logger.Nop()
	}
	s := &Service{st: st, applier: ap, log: log.With("component", "adaptation"), now: func() time.Time { return time.Now().UTC() }}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Proposal is the context an adaptation was decided in.
type Proposal struct {
	UserID  string
	Goal    *wellness.Goal
	Plan    *wellness.Plan
	Trigger map[string]any
}

// Result reports what Propose did.
type Result struct {
	Adaptation wellness.Adaptation
	Rationale  string
	// Applied is true when the change passed the autonomy gate and was
	// carried out.
	Applied bool
	// ApplyErr is set when the gate passed but applying failed; the record
	// then stays proposed and waits for the user.
	ApplyErr error
}

// Propose stores an adaptation agent Output as a proposed record and applies
// it immediately when it passes the autonomy gate.
func (s *Service) Propose(ctx context.Context, p Proposal, out agent.Output) (Result, error) {
	action, err := agent.DecodeAction[agent.AdaptationAction](out)
	if err != nil {
		return Result{}, err
	}
	rec := wellness.Adaptation{
		UserID:            p.UserID,
		TriggerType:       agent.MetaString(out, "triggerType"),
		TriggerData:       p.Trigger,
		DetectedIssue:     agent.MetaString(out, "detectedIssue"),
		AnalysisReasoning: out.Reasoning,
		ActionType:        action.Type,
		ActionDetails:     action.Changes,
		Autonomous:        action.Autonomous,
		Confidence:        out.Confidence,
		ExpectedImpact:    action.ExpectedImpact,
	}
	if p.Goal != nil {
		rec.GoalID = p.Goal.ID
	}
	if p.Plan != nil {
		rec.PlanID = p.Plan.ID
	}
	rec, err = s.st.CreateAdaptation(ctx, rec)
	if err != nil {
		return Result{}, errmodel.System("store_error", "create adaptation", nil, err)
	}
	res := Result{Adaptation: rec, Rationale: action.Rationale}
	if !PassesGate(rec) {
		s.log.Info("adaptation awaits approval", "user_id", p.UserID, "adaptation", rec.ID, "type", string(rec.ActionType), "confidence", rec.Confidence)
		return res, nil
	}

	if err := s.applier.Apply(ctx, rec); err != nil {
		s.log.Warn("autonomous adaptation failed to apply", "user_id", p.UserID, "adaptation", rec.ID, "error", err)
		res.ApplyErr = err
		return res, nil
	}
	done := rec
	at := s.now()
	done.Implemented, done.ImplementedAt = true, &at
	if err := s.st.TransitionAdaptation(ctx, done, wellness.AdaptationProposed); err != nil {
		return res, transitionErr(rec.ID, err)
	}
	res.Adaptation, res.Applied = done, true
	s.log.Info("adaptation applied autonomously", "user_id", p.UserID, "adaptation", rec.ID, "type", string(rec.ActionType))
	return res, nil
}

// Decide records the user's verdict on a proposed adaptation. Approving
// applies the change. An approved record whose apply failed may be approved
// again to retry.
func (s *Service) Decide(ctx context.Context, userID, id string, approved bool) (wellness.Adaptation, error) {
	a, err := s.st.GetAdaptation(ctx, userID, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return wellness.Adaptation{}, errmodel.NotFound("adaptation", id)
		}
		return wellness.Adaptation{}, errmodel.System("store_error", "load adaptation", nil, err)
	}
	state := a.State()
	switch {
	case state == wellness.AdaptationProposed:
	case state == wellness.AdaptationApproved && approved:
	default:
		return a, errmodel.Conflict("adaptation already decided", map[string]any{"id": id, "state": string(state)})
	}

	if state == wellness.AdaptationProposed {
		a.UserApproved = &approved
		if err := s.st.TransitionAdaptation(ctx, a, wellness.AdaptationProposed); err != nil {
			return a, transitionErr(id, err)
		}
		if !approved {
			s.log.Info("adaptation rejected", "user_id", userID, "adaptation", id)
			return a, nil
		}
	}

	if err := s.applier.Apply(ctx, a); err != nil {
		return a, err
	}
	at := s.now()
	a.Implemented, a.ImplementedAt = true, &at
	if err := s.st.TransitionAdaptation(ctx, a, wellness.AdaptationApproved); err != nil {
		return a, transitionErr(id, err)
	}
	s.log.Info("adaptation implemented", "user_id", userID, "adaptation", id)
	return a, nil
}

// ListPending returns the user's adaptations that still need action, newest
// first: proposals awaiting a decision and approved changes whose apply
// failed, which Decide can retry.
func (s *Service) ListPending(ctx context.Context, userID string) ([]wellness.Adaptation, error) {
	var out []wellness.Adaptation
	for _, state := range []wellness.AdaptationState{wellness.AdaptationProposed, wellness.AdaptationApproved} {
		rows, err := s.st.ListAdaptations(ctx, store.AdaptationFilter{UserID: userID, State: state})
		if err != nil {
			return nil, errmodel.System("store_error", "list adaptations", nil, err)
		}
		out = append(out, rows...)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// AttachExplanation stores the explanation produced for a decision.
func (s *Service) AttachExplanation(ctx context.Context, a wellness.Adaptation, explanation map[string]any) error {
	if err := s.st.SetExplanation(ctx, a.UserID, a.ID, explanation); err != nil {
		return errmodel.System("store_error", "attach explanation", nil, err)
	}
	return nil
}

func transitionErr(id string, err error) error {
	switch {
	case errors.Is(err, store.ErrStale):
		return errmodel.Conflict("adaptation was decided concurrently", map[string]any{"id": id})
	case errors.Is(err, store.ErrNotFound):
		return errmodel.NotFound("adaptation", id)
	}
	return errmodel.System("store_error", "transition adaptation", nil, err)
}
