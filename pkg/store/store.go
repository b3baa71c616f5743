// Package store defines the typed persistence boundary for wellness records.
// Implementations must provide identical semantics across backends: record
// ids are assigned on create, timestamps are UTC, lookups are scoped to the
// owning user and missing records surface as ErrNotFound.
package store

import (
	"errors"
	"time"

	"github.com/wilhg/wellagent/pkg/wellness"
)

var (
	// ErrNotFound is returned (possibly wrapped) when a record does not exist
	// or is not owned by the requesting user.
	ErrNotFound = errors.New("store: record not found")
	// ErrStale is returned by conditional updates when the stored record no
	// longer matches the expected state or version.
	ErrStale = errors.New("store: record changed concurrently")
)

// MonitoringQuery filters a user's monitoring time series.
// From is inclusive, Before is exclusive; zero values disable the bound.
type MonitoringQuery struct {
	UserID     string
	GoalID     string
	From       time.Time
	Before     time.Time
	Descending bool
	Limit      int
	Offset     int
}

// Matches reports whether e satisfies the query bounds. Backends without a
// query language use it directly.
func (q MonitoringQuery) Matches(e wellness.MonitoringEntry) bool {
	if e.UserID != q.UserID {
		return false
	}
	if q.GoalID != "" && e.GoalID != q.GoalID {
		return false
	}
	if !q.From.IsZero() && e.Date.Before(q.From) {
		return false
	}
	if !q.Before.IsZero() && !e.Date.Before(q.Before) {
		return false
	}
	return true
}

// AdaptationFilter narrows ListAdaptations. An empty State lists everything.
type AdaptationFilter struct {
	UserID string
	State  wellness.AdaptationState
	Limit  int
}

// AgentLogFilter narrows ListAgentLogs. An empty AgentType lists all agents.
type AgentLogFilter struct {
	UserID    string
	AgentType string
	Limit     int
}
