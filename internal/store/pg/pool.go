// Package pg is the Postgres-backed store.Repository implementation. It
// follows the teacher's store/pg package: one file per concern, a thin
// OpenDB that configures the pool and pings once at startup, and a shared
// helpers.go for the nullable/JSON/array scan plumbing every query needs.
// Access goes through jmoiron/sqlx over the jackc/pgx/v5 stdlib driver
// rather than bare database/sql; every query still goes through
// ExecContext/QueryContext with manual row scans, since rows mix jsonb,
// arrays, and nullable columns.
package pg

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Store is the Repository implementation's receiver, wrapping a pooled
// *sqlx.DB.
type Store struct {
	db *sqlx.DB
}

// OpenDB opens a pooled Postgres connection via the pgx stdlib driver and
// pings once to fail fast on misconfiguration.
func OpenDB(dsn string, poolSize int) (*sqlx.DB, error) {
	db, err := sqlx.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	if poolSize <= 0 {
		poolSize = 10
	}
	db.SetMaxOpenConns(poolSize)
	db.SetMaxIdleConns(poolSize)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	slog.Info("postgres connected", "pool_size", poolSize)
	return db, nil
}

// New wraps an already-opened pool in a Store.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}
