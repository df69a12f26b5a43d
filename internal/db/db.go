package db

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

var Conn *pgxpool.Pool

// Init connects to Postgres at dsn and makes sure the tables owned by the
// web frontend exist. It exits the process on failure.
func Init(dsn string) {
	pool, err := Connect(context.Background(), dsn)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v\n", err)
	}
	Conn = pool

	log.Println("Connected to Postgres successfully")

	// Ensure web_sessions exists for remembered logins
	if err := EnsureSchema(context.Background(), Conn); err != nil {
		log.Fatalf("Unable to prepare schema: %v\n", err)
	}
}

// Connect opens and pings a pool.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("db: parse config: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MaxConnIdleTime = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("db: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db: ping: %w", err)
	}
	return pool, nil
}

// Close releases the shared pool, if any.
func Close() {
	if Conn != nil {
		Conn.Close()
	}
}

// EnsureSchema creates the frontend's tables if they are missing.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if err := ensureSessionsTable(ctx, pool); err != nil {
		return err
	}
	ensureSessionsExpiryIndex(ctx, pool)
	return nil
}

// ensureSessionsTable creates web_sessions if it doesn't exist
func ensureSessionsTable(ctx context.Context, pool *pgxpool.Pool) error {
	var exists bool
	err := pool.QueryRow(ctx, `
        SELECT EXISTS (
            SELECT 1 FROM information_schema.tables
            WHERE table_schema = 'public' AND table_name = 'web_sessions'
        )`).Scan(&exists)
	if err != nil {
		return fmt.Errorf("db: schema check: %w", err)
	}
	if exists {
		return nil
	}
	_, err = pool.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS web_sessions (
            id UUID PRIMARY KEY,
            token TEXT NOT NULL,
            user_id BIGINT NOT NULL,
            profile JSONB NOT NULL DEFAULT '{}'::jsonb,
            remember BOOLEAN NOT NULL DEFAULT TRUE,
            created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP,
            expires_at TIMESTAMP WITH TIME ZONE NOT NULL
        );
        CREATE INDEX IF NOT EXISTS idx_web_sessions_user ON web_sessions(user_id);
    `)
	if err != nil {
		return fmt.Errorf("db: create web_sessions: %w", err)
	}
	log.Printf("web_sessions table ensured")
	return nil
}

// ensureSessionsExpiryIndex adds the index used by the purge tool
func ensureSessionsExpiryIndex(ctx context.Context, pool *pgxpool.Pool) {
	if _, err := pool.Exec(ctx, `CREATE INDEX IF NOT EXISTS idx_web_sessions_expires ON web_sessions(expires_at)`); err != nil {
		log.Printf("failed to add web_sessions expiry index: %v", err)
	}
}
