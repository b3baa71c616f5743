package store

import (
	"testing"
	"time"

	"github.com/wilhg/wellagent/pkg/wellness"
)

func TestMonitoringQuery_Matches(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2026, 1, d, 0, 0, 0, 0, time.UTC) }
	q := MonitoringQuery{UserID: "u1", From: day(2), Before: day(5)}
	cases := []struct {
		e    wellness.MonitoringEntry
		want bool
	}{
		{wellness.MonitoringEntry{UserID: "u1", Date: day(2)}, true},
		{wellness.MonitoringEntry{UserID: "u1", Date: day(4)}, true},
		{wellness.MonitoringEntry{UserID: "u1", Date: day(5)}, false},
		{wellness.MonitoringEntry{UserID: "u1", Date: day(1)}, false},
		{wellness.MonitoringEntry{UserID: "u2", Date: day(3)}, false},
	}
	for i, c := range cases {
		if got := q.Matches(c.e); got != c.want {
			t.Fatalf("case %d: got %v want %v", i, got, c.want)
		}
	}
}
