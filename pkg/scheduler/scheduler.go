// Package scheduler runs cognitive cycles for every onboarded user on a
// fixed interval with bounded concurrency.
package scheduler

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wilhg/wellagent/pkg/logger"
	"github.com/wilhg/wellagent/pkg/orchestrator"
)

// Cycler is the part of the orchestrator the scheduler drives.
type Cycler interface {
	Users(ctx context.Context) ([]string, error)
	CognitiveCycle(ctx context.Context, userID string) (orchestrator.CycleReport, error)
}

const (
	DefaultInterval    = 6 * time.Hour
	DefaultConcurrency = 4
)

// Tally counts the outcomes of one sweep over all users.
type Tally struct {
	Users     int `json:"users"`
	Failed    int `json:"failed"`
	Applied   int `json:"applied"`
	Pending   int `json:"pending"`
	Reflected int `json:"reflected"`
}

func (t *Tally) add(rep orchestrator.CycleReport) {
	if rep.Applied {
		t.Applied++
	} else if rep.Decision != nil {
		t.Pending++
	}
	if rep.Reflection != nil {
		t.Reflected++
	}
}

type Scheduler struct {
	c           Cycler
	log         *logger.Logger
	interval    time.Duration
	concurrency int
}

type Option func(*Scheduler)

func WithInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.interval = d
		}
	}
}

func WithConcurrency(n int) Option {
	return func(s *Scheduler) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

func WithLogger(l *logger.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.log = l
		}
	}
}

func New(c Cycler, opts ...Option) *Scheduler {
	s := &Scheduler{c: c, log: logger.Nop(), interval: DefaultInterval, concurrency: DefaultConcurrency}
	for _, o := range opts {
		o(s)
	}
	s.log = s.log.With("component", "scheduler")
	return s
}

// RunOnce cycles every user once. A failing user is counted and logged;
// it does not stop the others. Only listing users can fail the sweep.
func (s *Scheduler) RunOnce(ctx context.Context) (Tally, error) {
	users, err := s.c.Users(ctx)
	if err != nil {
		return Tally{}, err
	}
	var (
		mu    sync.Mutex
		tally = Tally{Users: len(users)}
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, u := range users {
		g.Go(func() error {
			rep, err := s.c.CognitiveCycle(gctx, u)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				tally.Failed++
				s.log.Warn("cycle failed", "user_id", u, "error", err)
				return nil
			}
			tally.add(rep)
			return nil
		})
	}
	_ = g.Wait()
	s.log.Info("sweep complete", "users", tally.Users, "failed", tally.Failed,
		"applied", tally.Applied, "pending", tally.Pending, "reflected", tally.Reflected)
	return tally, ctx.Err()
}

// Run sweeps immediately and then on every tick until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	t := time.NewTicker(s.interval)
	defer t.Stop()
	for {
		if _, err := s.RunOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			s.log.Error("sweep failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
		}
	}
}
