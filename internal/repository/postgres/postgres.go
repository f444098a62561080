// Package postgres implements the repository interfaces on PostgreSQL via
// pgx's connection pool. It is selected when DATABASE_URL is set; the schema
// mirrors the sqlite one with native types (BOOLEAN, TIMESTAMPTZ, JSONB).
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DB wraps a pgx pool and provides repository methods.
type DB struct {
	pool *pgxpool.Pool
}

// New connects to databaseURL, verifies the connection and runs migrations.
func New(ctx context.Context, databaseURL string) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("postgres: parsing DATABASE_URL: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MinConns = 1
	cfg.MaxConnLifetime = time.Hour
	cfg.MaxConnIdleTime = 30 * time.Minute
	cfg.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: creating pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	db := &DB{pool: pool}
	if err := db.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: running migrations: %w", err)
	}
	return db, nil
}

// Close releases every pooled connection.
func (db *DB) Close() error {
	db.pool.Close()
	return nil
}

func (db *DB) migrate(ctx context.Context) error {
	_, err := db.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id                   TEXT PRIMARY KEY,
			name                 TEXT NOT NULL DEFAULT '',
			email                TEXT NOT NULL UNIQUE,
			phone_number         TEXT,
			role                 TEXT NOT NULL DEFAULT 'user',
			onboarding_completed BOOLEAN NOT NULL DEFAULT FALSE,
			daily_grind_time     TEXT,
			roast_intensity      TEXT,
			external_username    TEXT,
			created_at           TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at           TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE INDEX IF NOT EXISTS idx_users_daily_grind_time ON users(daily_grind_time);

		CREATE TABLE IF NOT EXISTS settings (
			id                          INTEGER PRIMARY KEY CHECK (id = 1),
			automation_enabled          BOOLEAN NOT NULL DEFAULT TRUE,
			email_automation_enabled    BOOLEAN NOT NULL DEFAULT TRUE,
			whatsapp_automation_enabled BOOLEAN NOT NULL DEFAULT TRUE,
			emails_sent_today           INTEGER NOT NULL DEFAULT 0,
			whatsapp_sent_today         INTEGER NOT NULL DEFAULT 0,
			last_email_sent             TIMESTAMPTZ,
			last_whatsapp_sent          TIMESTAMPTZ,
			counters_date               TEXT NOT NULL DEFAULT '',
			ai_roast                    JSONB,
			updated_at                  TIMESTAMPTZ NOT NULL DEFAULT now()
		);
	`)
	return err
}
