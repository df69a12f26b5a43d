// Package dbtest starts a throwaway Postgres for integration tests.
package dbtest

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/favo-app/favo-web/internal/db"
)

// Pool returns a pool with the frontend schema applied. DATABASE_URL is
// reused when set; otherwise a Postgres 16 container is started. The test
// is skipped when neither is available.
func Pool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test skipped in -short mode")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		pgC, err := postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("favo"),
			postgres.WithUsername("favo"),
			postgres.WithPassword("favo"),
			postgres.BasicWaitStrategies(),
		)
		if err != nil {
			t.Skipf("postgres unavailable: %v", err)
		}
		t.Cleanup(func() { _ = pgC.Terminate(context.Background()) })

		dsn, err = pgC.ConnectionString(ctx, "sslmode=disable")
		if err != nil {
			t.Fatalf("resolve connection string: %v", err)
		}
	}

	pool, err := db.Connect(ctx, dsn)
	if err != nil {
		t.Skipf("postgres unavailable: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := db.EnsureSchema(ctx, pool); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	if _, err := pool.Exec(ctx, `TRUNCATE TABLE web_sessions`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return pool
}
