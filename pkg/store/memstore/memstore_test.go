package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/wilhg/wellagent/pkg/store"
	"github.com/wilhg/wellagent/pkg/store/storetest"
	"github.com/wilhg/wellagent/pkg/wellness"
)

func TestMemstore_Conformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store { return New() })
}

func TestListMonitoring_SameDateOrderedByCreation(t *testing.T) {
	ctx := context.Background()
	st := New()
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	clock := base
	st.now = func() time.Time { return clock }
	day := time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC)

	// created at base, base+1s, base+1s: the last two tie on both keys.
	for i, activity := range []string{"first", "second", "third"} {
		if i > 0 {
			clock = base.Add(time.Second)
		}
		if _, err := st.AppendMonitoring(ctx, wellness.MonitoringEntry{UserID: "u1", Date: day, ActivityType: activity}); err != nil {
			t.Fatal(err)
		}
	}

	order := func(desc bool) []string {
		t.Helper()
		got, err := st.ListMonitoring(ctx, store.MonitoringQuery{UserID: "u1", Descending: desc})
		if err != nil {
			t.Fatal(err)
		}
		names := make([]string, 0, len(got))
		for _, e := range got {
			names = append(names, e.ActivityType)
		}
		return names
	}
	if got := order(true); len(got) != 3 || got[0] != "third" || got[1] != "second" || got[2] != "first" {
		t.Fatalf("descending = %v, want [third second first]", got)
	}
	if got := order(false); len(got) != 3 || got[0] != "first" || got[1] != "second" || got[2] != "third" {
		t.Fatalf("ascending = %v, want [first second third]", got)
	}
}
