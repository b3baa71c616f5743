package monitoring

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wilhg/wellagent/pkg/errmodel"
	"github.com/wilhg/wellagent/pkg/logger"
	"github.com/wilhg/wellagent/pkg/store"
	"github.com/wilhg/wellagent/pkg/store/memstore"
	"github.com/wilhg/wellagent/pkg/wellness"
)

func day(d int) time.Time { return time.Date(2026, 4, d, 7, 30, 0, 0, time.UTC) }

func TestRecorder_WeekScenario(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	var hooked []wellness.MonitoringEntry
	rec := NewRecorder(st, logger.Nop(), WithPageSize(2), WithDeviationHook(func(_ context.Context, e wellness.MonitoringEntry) {
		hooked = append(hooked, e)
	}))

	seq := []bool{true, true, true, false, true, true, true}
	var streaks, misses []int
	var devs []bool
	for i, c := range seq {
		e, err := rec.Record(ctx, wellness.MonitoringEntry{UserID: "u1", Date: day(i + 1), ActivityType: "walk", Completed: c})
		require.NoError(t, err)
		streaks = append(streaks, e.StreakCount)
		misses = append(misses, e.ConsecutiveMisses)
		devs = append(devs, e.IsDeviation)
	}
	assert.Equal(t, []int{1, 2, 3, 0, 1, 2, 3}, streaks)
	assert.Equal(t, []int{0, 0, 0, 1, 0, 0, 0}, misses)
	assert.Equal(t, []bool{false, false, false, true, false, false, false}, devs)
	require.Len(t, hooked, 1)
	assert.True(t, hooked[0].Date.Equal(day(4)))
}

func TestRecorder_StreakBeyondOnePage(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	rec := NewRecorder(st, logger.Nop(), WithPageSize(3))
	var last wellness.MonitoringEntry
	for i := 1; i <= 12; i++ {
		e, err := rec.Record(ctx, wellness.MonitoringEntry{UserID: "u1", Date: day(i), ActivityType: "walk", Completed: true})
		require.NoError(t, err)
		last = e
	}
	assert.Equal(t, 12, last.StreakCount)
}

func TestRecorder_IgnoresLaterAndOtherUsers(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	rec := NewRecorder(st, logger.Nop())
	_, err := rec.Record(ctx, wellness.MonitoringEntry{UserID: "u1", Date: day(10), ActivityType: "walk", Completed: true})
	require.NoError(t, err)
	_, err = rec.Record(ctx, wellness.MonitoringEntry{UserID: "u2", Date: day(4), ActivityType: "walk", Completed: true})
	require.NoError(t, err)

	// backfilled entry: the later day-10 entry must not count
	e, err := rec.Record(ctx, wellness.MonitoringEntry{UserID: "u1", Date: day(5), ActivityType: "walk", Completed: true})
	require.NoError(t, err)
	assert.Equal(t, 1, e.StreakCount)
}

func TestRecorder_Validation(t *testing.T) {
	rec := NewRecorder(memstore.New(), logger.Nop())
	_, err := rec.Record(context.Background(), wellness.MonitoringEntry{UserID: "u1", Date: day(1)})
	assert.True(t, errmodel.IsCategory(err, errmodel.CategoryValidation))
	_, err = rec.Record(context.Background(), wellness.MonitoringEntry{UserID: "u1", Date: day(1), ActivityType: "walk", Difficulty: "brutal"})
	assert.True(t, errmodel.IsCode(err, "invalid_difficulty"))
}

func TestRecorder_TracksGoalProgress(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	goal, err := st.CreateGoal(ctx, wellness.Goal{UserID: "u1", Title: "Walk 20 km", Status: wellness.GoalActive,
		BaselineValue: 0, CurrentValue: 1.5, TargetValue: 20, Unit: "km"})
	require.NoError(t, err)
	done, err := st.CreateGoal(ctx, wellness.Goal{UserID: "u1", Title: "Old", Status: wellness.GoalCompleted, CurrentValue: 3})
	require.NoError(t, err)
	rec := NewRecorder(st, logger.Nop())
	val := func(f float64) *float64 { return &f }

	for _, e := range []wellness.MonitoringEntry{
		{GoalID: goal.ID, Completed: true, Value: val(4), Unit: "km"},
		{GoalID: goal.ID, Completed: true, Value: val(2.5)},
		{GoalID: goal.ID, Completed: false, Value: val(9)},
		{GoalID: goal.ID, Completed: true, Value: val(-3)},
		{GoalID: goal.ID, Completed: true, Value: val(5), Unit: "minutes"},
		{GoalID: goal.ID, Completed: true},
		{GoalID: done.ID, Completed: true, Value: val(7)},
		{GoalID: "missing", Completed: true, Value: val(7)},
	} {
		e.UserID, e.Date, e.ActivityType = "u1", day(3), "walk"
		_, err := rec.Record(ctx, e)
		require.NoError(t, err)
	}

	got, err := st.GetGoal(ctx, "u1", goal.ID)
	require.NoError(t, err)
	assert.Equal(t, 8.0, got.CurrentValue)
	got, err = st.GetGoal(ctx, "u1", done.ID)
	require.NoError(t, err)
	assert.Equal(t, 3.0, got.CurrentValue)

	// another user's entry cannot move this goal
	_, err = rec.Record(ctx, wellness.MonitoringEntry{UserID: "u2", GoalID: goal.ID, Date: day(4), ActivityType: "walk", Completed: true, Value: val(10)})
	require.NoError(t, err)
	got, err = st.GetGoal(ctx, "u1", goal.ID)
	require.NoError(t, err)
	assert.Equal(t, 8.0, got.CurrentValue)
}

func TestRecorder_ConcurrentWritesSerialized(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	rec := NewRecorder(st, logger.Nop())
	var wg sync.WaitGroup
	for i := 1; i <= 8; i++ {
		wg.Add(1)
		go func(d int) {
			defer wg.Done()
			_, err := rec.Record(ctx, wellness.MonitoringEntry{UserID: "u1", Date: day(d), ActivityType: "walk", Completed: true})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()
	all, err := st.ListMonitoring(ctx, store.MonitoringQuery{UserID: "u1"})
	require.NoError(t, err)
	assert.Len(t, all, 8)
}

func TestLocalLocker_ContextCancel(t *testing.T) {
	l := NewLocalLocker()
	release, err := l.Lock(context.Background(), "k")
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "k")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	release()
	release2, err := l.Lock(context.Background(), "k")
	require.NoError(t, err)
	release2()
	assert.Empty(t, l.slots)
}
