package monitoring

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wilhg/wellagent/pkg/errmodel"
	"github.com/wilhg/wellagent/pkg/logger"
	"github.com/wilhg/wellagent/pkg/store"
	"github.com/wilhg/wellagent/pkg/wellness"
)

// Records is what the Recorder persists to: the monitoring series and the
// goals whose progress it tracks.
type Records interface {
	store.MonitoringStore
	store.GoalStore
}

// DeviationHook is called after a deviating entry has been stored.
type DeviationHook func(ctx context.Context, e wellness.MonitoringEntry)

// Recorder appends monitoring entries with their derived run fields.
// Writes for the same user are serialized through the Locker so the scan of
// earlier entries and the insert observe the same history.
type Recorder struct {
	st          Records
	locker      Locker
	log         *logger.Logger
	onDeviation DeviationHook
	pageSize    int
	now         func() time.Time
}

type RecorderOption func(*Recorder)

func WithLocker(l Locker) RecorderOption { return func(r *Recorder) { r.locker = l } }

func WithDeviationHook(h DeviationHook) RecorderOption {
	return func(r *Recorder) { r.onDeviation = h }
}

// WithPageSize sets how many earlier entries are fetched per scan step.
func WithPageSize(n int) RecorderOption {
	return func(r *Recorder) {
		if n > 0 {
			r.pageSize = n
		}
	}
}

func NewRecorder(st Records, log *logger.Logger, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		st:       st,
		locker:   NewLocalLocker(),
		log:      log.With("component", "monitoring.Recorder"),
		pageSize: 16,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// SetDeviationHook installs the hook after construction, for wiring cycles
// where the hook owner is built later.
func (r *Recorder) SetDeviationHook(h DeviationHook) { r.onDeviation = h }

// Record validates e, derives StreakCount, ConsecutiveMisses, IsDeviation
// and DeviationType from strictly earlier entries and appends it. A
// completed entry carrying a goal and a positive value is added to that
// goal's CurrentValue under the same lock.
func (r *Recorder) Record(ctx context.Context, e wellness.MonitoringEntry) (wellness.MonitoringEntry, error) {
	if err := validate(e); err != nil {
		return wellness.MonitoringEntry{}, err
	}
	e.Date = e.Date.UTC()

	release, err := r.locker.Lock(ctx, "monitoring:"+e.UserID)
	if err != nil {
		return wellness.MonitoringEntry{}, errmodel.System("lock_failed", "could not serialize monitoring write", map[string]any{"user_id": e.UserID}, err)
	}
	run, err := r.scan(ctx, e.UserID, e.Date, e.Completed)
	if err != nil {
		release()
		return wellness.MonitoringEntry{}, err
	}
	run.Apply(&e)
	saved, err := r.st.AppendMonitoring(ctx, e)
	if err != nil {
		release()
		return wellness.MonitoringEntry{}, err
	}
	r.trackProgress(ctx, saved)
	release()

	r.log.Debug("monitoring recorded", "user_id", saved.UserID, "streak", saved.StreakCount,
		"misses", saved.ConsecutiveMisses, "deviation", saved.IsDeviation)
	if saved.IsDeviation && r.onDeviation != nil {
		r.onDeviation(ctx, saved)
	}
	return saved, nil
}

// trackProgress folds the entry's value into its goal. CurrentValue only
// grows. Failures are logged: the entry itself is already stored.
func (r *Recorder) trackProgress(ctx context.Context, e wellness.MonitoringEntry) {
	if !e.Completed || e.GoalID == "" || e.Value == nil || *e.Value <= 0 {
		return
	}
	g, err := r.st.GetGoal(ctx, e.UserID, e.GoalID)
	if err != nil {
		r.log.Warn("goal progress skipped", "user_id", e.UserID, "goal_id", e.GoalID, "error", err)
		return
	}
	if g.Status.Terminal() {
		return
	}
	if e.Unit != "" && g.Unit != "" && !strings.EqualFold(e.Unit, g.Unit) {
		r.log.Debug("goal progress unit mismatch", "user_id", e.UserID, "goal_id", g.ID, "unit", e.Unit, "goal_unit", g.Unit)
		return
	}
	g.CurrentValue += *e.Value
	if err := r.st.UpdateGoal(ctx, g); err != nil {
		r.log.Warn("goal progress update failed", "user_id", e.UserID, "goal_id", g.ID, "error", err)
	}
}

// scan pages backwards through earlier entries until the run breaks.
func (r *Recorder) scan(ctx context.Context, userID string, before time.Time, completed bool) (Run, error) {
	var prior []wellness.MonitoringEntry
	for offset := 0; ; offset += r.pageSize {
		page, err := r.st.ListMonitoring(ctx, store.MonitoringQuery{
			UserID: userID, Before: before, Descending: true, Limit: r.pageSize, Offset: offset,
		})
		if err != nil {
			return Run{}, err
		}
		prior = append(prior, page...)
		if len(page) < r.pageSize || runBroken(page, completed) {
			break
		}
	}
	return ComputeRun(prior, completed), nil
}

func runBroken(page []wellness.MonitoringEntry, completed bool) bool {
	for _, e := range page {
		if e.Completed != completed {
			return true
		}
	}
	return false
}

var (
	levels       = map[string]bool{"low": true, "medium": true, "high": true}
	difficulties = map[string]bool{"easy": true, "moderate": true, "hard": true}
)

func validate(e wellness.MonitoringEntry) error {
	if e.UserID == "" {
		return errmodel.Validation("missing_user", "monitoring entry has no user id", nil)
	}
	if e.ActivityType == "" {
		return errmodel.Validation("missing_activity_type", "Activity type is required", nil)
	}
	if e.Date.IsZero() {
		return errmodel.Validation("missing_date", "monitoring entry has no date", nil)
	}
	for field, v := range map[string]string{"energyLevel": e.EnergyLevel, "motivation": e.Motivation, "enjoyment": e.Enjoyment} {
		if v != "" && !levels[v] {
			return errmodel.Validation("invalid_"+field, fmt.Sprintf("%s must be low, medium or high", field), map[string]any{field: v})
		}
	}
	if e.Difficulty != "" && !difficulties[e.Difficulty] {
		return errmodel.Validation("invalid_difficulty", "difficulty must be easy, moderate or hard", map[string]any{"difficulty": e.Difficulty})
	}
	return nil
}
