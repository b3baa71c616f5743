// Package memstore is an in-memory store.Store intended for tests and local
// runs without a database.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wilhg/wellagent/pkg/store"
	"github.com/wilhg/wellagent/pkg/wellness"
)

type Store struct {
	mu          sync.RWMutex
	now         func() time.Time
	profiles    map[string]wellness.Profile // userID -> profile
	goals       map[string]wellness.Goal
	plans       map[string]wellness.Plan
	monitoring  []wellness.MonitoringEntry
	adaptations map[string]wellness.Adaptation
	reflections []wellness.Reflection
	logs        []wellness.AgentLog
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		now:         func() time.Time { return time.Now().UTC() },
		profiles:    make(map[string]wellness.Profile),
		goals:       make(map[string]wellness.Goal),
		plans:       make(map[string]wellness.Plan),
		adaptations: make(map[string]wellness.Adaptation),
	}
}

func (s *Store) Close() error { return nil }

func notFound(entity, id string) error {
	return fmt.Errorf("%s %q: %w", entity, id, store.ErrNotFound)
}

func (s *Store) GetProfile(_ context.Context, userID string) (wellness.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[userID]
	if !ok {
		return wellness.Profile{}, notFound("profile", userID)
	}
	return p, nil
}

func (s *Store) UpsertProfile(_ context.Context, p wellness.Profile) (wellness.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if prev, ok := s.profiles[p.UserID]; ok {
		p.ID, p.CreatedAt = prev.ID, prev.CreatedAt
	} else {
		p.ID, p.CreatedAt = uuid.NewString(), now
	}
	p.UpdatedAt = now
	s.profiles[p.UserID] = p
	return p, nil
}

func (s *Store) ProfileUserIDs(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.profiles))
	for id := range s.profiles {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

func (s *Store) CreateGoal(_ context.Context, g wellness.Goal) (wellness.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	if g.Status == "" {
		g.Status = wellness.GoalActive
	}
	g.CreatedAt = s.now()
	g.UpdatedAt = g.CreatedAt
	s.goals[g.ID] = g
	return g, nil
}

func (s *Store) GetGoal(_ context.Context, userID, goalID string) (wellness.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.goals[goalID]
	if !ok || g.UserID != userID {
		return wellness.Goal{}, notFound("goal", goalID)
	}
	return g, nil
}

func (s *Store) ActiveGoal(ctx context.Context, userID string) (wellness.Goal, error) {
	goals, _ := s.ListGoals(ctx, userID)
	for _, g := range goals {
		if g.Status == wellness.GoalActive {
			return g, nil
		}
	}
	return wellness.Goal{}, notFound("active goal", userID)
}

// ListGoals returns newest first.
func (s *Store) ListGoals(_ context.Context, userID string) ([]wellness.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []wellness.Goal
	for _, g := range s.goals {
		if g.UserID == userID {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) UpdateGoal(_ context.Context, g wellness.Goal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.goals[g.ID]
	if !ok || prev.UserID != g.UserID {
		return notFound("goal", g.ID)
	}
	g.CreatedAt = prev.CreatedAt
	g.UpdatedAt = s.now()
	s.goals[g.ID] = g
	return nil
}

func (s *Store) CreateActivePlan(_ context.Context, p wellness.Plan) (wellness.Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for id, other := range s.plans {
		if other.GoalID == p.GoalID && other.Status == wellness.PlanActive {
			other.Status = wellness.PlanSuperseded
			other.UpdatedAt = now
			s.plans[id] = other
		}
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Version == 0 {
		p.Version = 1
	}
	p.Status = wellness.PlanActive
	p.CreatedAt, p.UpdatedAt = now, now
	s.plans[p.ID] = p
	return p, nil
}

func (s *Store) GetPlan(_ context.Context, userID, planID string) (wellness.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.plans[planID]
	if !ok || p.UserID != userID {
		return wellness.Plan{}, notFound("plan", planID)
	}
	return p, nil
}

func (s *Store) ActivePlan(_ context.Context, userID, goalID string) (wellness.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var (
		best  wellness.Plan
		found bool
	)
	for _, p := range s.plans {
		if p.UserID != userID || p.Status != wellness.PlanActive {
			continue
		}
		if goalID != "" && p.GoalID != goalID {
			continue
		}
		if !found || p.CreatedAt.After(best.CreatedAt) {
			best, found = p, true
		}
	}
	if !found {
		return wellness.Plan{}, notFound("active plan", userID)
	}
	return best, nil
}

func (s *Store) UpdatePlan(_ context.Context, p wellness.Plan, expectVersion int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.plans[p.ID]
	if !ok || prev.UserID != p.UserID {
		return notFound("plan", p.ID)
	}
	if prev.Version != expectVersion {
		return store.ErrStale
	}
	p.CreatedAt = prev.CreatedAt
	p.UpdatedAt = s.now()
	s.plans[p.ID] = p
	return nil
}

func (s *Store) AppendMonitoring(_ context.Context, e wellness.MonitoringEntry) (wellness.MonitoringEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	e.Date = e.Date.UTC()
	e.CreatedAt = s.now()
	s.monitoring = append(s.monitoring, e)
	return e, nil
}

func (s *Store) ListMonitoring(_ context.Context, q store.MonitoringQuery) ([]wellness.MonitoringEntry, error) {
	s.mu.RLock()
	var out []wellness.MonitoringEntry
	for i := range s.monitoring {
		e := s.monitoring[i]
		if q.Descending {
			e = s.monitoring[len(s.monitoring)-1-i]
		}
		if q.Matches(e) {
			out = append(out, e)
		}
	}
	s.mu.RUnlock()
	// Same order as the SQL backend: by date, then by creation time. Full
	// ties keep insertion order, reversed when descending.
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if q.Descending {
			a, b = b, a
		}
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
	return page(out, q.Offset, q.Limit), nil
}

func (s *Store) CreateAdaptation(_ context.Context, a wellness.Adaptation) (wellness.Adaptation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	a.CreatedAt = s.now()
	s.adaptations[a.ID] = a
	return a, nil
}

func (s *Store) GetAdaptation(_ context.Context, userID, id string) (wellness.Adaptation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.adaptations[id]
	if !ok || a.UserID != userID {
		return wellness.Adaptation{}, notFound("adaptation", id)
	}
	return a, nil
}

func (s *Store) TransitionAdaptation(_ context.Context, a wellness.Adaptation, from wellness.AdaptationState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.adaptations[a.ID]
	if !ok || prev.UserID != a.UserID {
		return notFound("adaptation", a.ID)
	}
	if prev.State() != from {
		return store.ErrStale
	}
	prev.UserApproved = a.UserApproved
	prev.Implemented = a.Implemented
	prev.ImplementedAt = a.ImplementedAt
	s.adaptations[a.ID] = prev
	return nil
}

func (s *Store) SetExplanation(_ context.Context, userID, id string, explanation map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.adaptations[id]
	if !ok || a.UserID != userID {
		return notFound("adaptation", id)
	}
	a.Explanation = explanation
	s.adaptations[id] = a
	return nil
}

func (s *Store) ListAdaptations(_ context.Context, f store.AdaptationFilter) ([]wellness.Adaptation, error) {
	s.mu.RLock()
	var out []wellness.Adaptation
	for _, a := range s.adaptations {
		if a.UserID == f.UserID && (f.State == "" || a.State() == f.State) {
			out = append(out, a)
		}
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return page(out, 0, f.Limit), nil
}

func (s *Store) CreateReflection(_ context.Context, r wellness.Reflection) (wellness.Reflection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	r.CreatedAt = s.now()
	s.reflections = append(s.reflections, r)
	return r, nil
}

func (s *Store) ListReflections(_ context.Context, userID string, limit int) ([]wellness.Reflection, error) {
	s.mu.RLock()
	var out []wellness.Reflection
	for _, r := range s.reflections {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	s.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].PeriodEnd.After(out[j].PeriodEnd) })
	return page(out, 0, limit), nil
}

func (s *Store) AppendAgentLog(_ context.Context, l wellness.AgentLog) (wellness.AgentLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.Timestamp.IsZero() {
		l.Timestamp = s.now()
	}
	s.logs = append(s.logs, l)
	return l, nil
}

// ListAgentLogs returns newest first.
func (s *Store) ListAgentLogs(_ context.Context, f store.AgentLogFilter) ([]wellness.AgentLog, error) {
	s.mu.RLock()
	var out []wellness.AgentLog
	for i := len(s.logs) - 1; i >= 0; i-- {
		l := s.logs[i]
		if l.UserID == f.UserID && (f.AgentType == "" || l.AgentType == f.AgentType) {
			out = append(out, l)
		}
	}
	s.mu.RUnlock()
	return page(out, 0, f.Limit), nil
}

func page[T any](in []T, offset, limit int) []T {
	if offset > 0 {
		if offset >= len(in) {
			return nil
		}
		in = in[offset:]
	}
	if limit > 0 && len(in) > limit {
		in = in[:limit]
	}
	return in
}
