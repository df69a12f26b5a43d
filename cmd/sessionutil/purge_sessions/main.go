package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/favo-app/favo-web/internal/config"
	"github.com/favo-app/favo-web/internal/db"
	"github.com/favo-app/favo-web/internal/session"
)

func main() {
	envFile := flag.String("env", ".env", "Optional env file to load before the process environment")
	timeout := flag.Duration("timeout", 30*time.Second, "How long the purge may run")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	dsn := cfg.DSN()
	if dsn == "" {
		log.Fatalf("usage: set DATABASE_URL (or DB_HOST/DB_NAME) and run go run cmd/sessionutil/purge_sessions/main.go")
	}

	// Initialize DB and make sure web_sessions exists (idempotent)
	db.Init(dsn)
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	n, err := session.NewPostgresStore(db.Conn).PurgeExpired(ctx)
	if err != nil {
		log.Fatalf("failed to purge sessions: %v", err)
	}

	fmt.Printf("Purged %d expired sessions.\n", n)
}
