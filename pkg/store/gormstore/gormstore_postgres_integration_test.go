//go:build integration

package gormstore

import (
	"context"
	"testing"

	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/wilhg/wellagent/pkg/store"
	"github.com/wilhg/wellagent/pkg/store/storetest"
)

func TestGormstorePostgres_Conformance(t *testing.T) {
	ctx := context.Background()
	pg, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("wellagent"),
		tcpostgres.WithUsername("wellagent"),
		tcpostgres.WithPassword("wellagent"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Skipf("skip: cannot start postgres: %v", err)
	}
	t.Cleanup(func() { _ = pg.Terminate(ctx) })

	dsn, err := pg.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatal(err)
	}

	storetest.Run(t, func(t *testing.T) store.Store {
		st, err := Open(ctx, dsn)
		if err != nil {
			t.Fatal(err)
		}
		t.Cleanup(func() { _ = st.Close() })
		if err := st.Migrate(ctx); err != nil {
			t.Fatal(err)
		}
		// subtests share one database; start each from empty tables.
		for _, table := range []string{"wellness_profiles", "goals", "plans", "monitoring_data", "adaptations", "reflections", "agent_logs"} {
			if err := st.DB().Exec("TRUNCATE TABLE " + table).Error; err != nil {
				t.Fatal(err)
			}
		}
		return st
	})
}
