package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wilhg/wellagent/pkg/orchestrator"
	"github.com/wilhg/wellagent/pkg/wellness"
)

type fakeCycler struct {
	users   []string
	listErr error
	fail    map[string]bool
	delay   time.Duration

	mu      sync.Mutex
	seen    []string
	running int32
	peak    int32
}

func (f *fakeCycler) Users(context.Context) ([]string, error) { return f.users, f.listErr }

func (f *fakeCycler) CognitiveCycle(_ context.Context, userID string) (orchestrator.CycleReport, error) {
	n := atomic.AddInt32(&f.running, 1)
	for {
		p := atomic.LoadInt32(&f.peak)
		if n <= p || atomic.CompareAndSwapInt32(&f.peak, p, n) {
			break
		}
	}
	time.Sleep(f.delay)
	atomic.AddInt32(&f.running, -1)

	f.mu.Lock()
	f.seen = append(f.seen, userID)
	f.mu.Unlock()
	if f.fail[userID] {
		return orchestrator.CycleReport{}, errors.New("store down")
	}
	rep := orchestrator.CycleReport{UserID: userID}
	switch userID {
	case "applied":
		rep.Applied = true
		rep.Decision = &wellness.Adaptation{}
	case "pending":
		rep.Decision = &wellness.Adaptation{}
	case "reflected":
		rep.Reflection = &wellness.Reflection{}
	}
	return rep, nil
}

func TestRunOnce_Tally(t *testing.T) {
	c := &fakeCycler{users: []string{"applied", "pending", "reflected", "broken", "quiet"}, fail: map[string]bool{"broken": true}}
	tally, err := New(c).RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Tally{Users: 5, Failed: 1, Applied: 1, Pending: 1, Reflected: 1}, tally)
	assert.ElementsMatch(t, c.users, c.seen)
}

func TestRunOnce_ConcurrencyLimit(t *testing.T) {
	c := &fakeCycler{users: []string{"a", "b", "c", "d", "e", "f"}, delay: 20 * time.Millisecond}
	_, err := New(c, WithConcurrency(2)).RunOnce(context.Background())
	require.NoError(t, err)
	assert.LessOrEqual(t, atomic.LoadInt32(&c.peak), int32(2))
	assert.Len(t, c.seen, 6)
}

func TestRunOnce_ListError(t *testing.T) {
	c := &fakeCycler{listErr: errors.New("db gone")}
	_, err := New(c).RunOnce(context.Background())
	require.Error(t, err)
}

func TestRun_StopsOnCancel(t *testing.T) {
	c := &fakeCycler{users: []string{"a"}}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- New(c, WithInterval(5*time.Millisecond)).Run(ctx) }()

	require.Eventually(t, func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		return len(c.seen) >= 2
	}, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}
