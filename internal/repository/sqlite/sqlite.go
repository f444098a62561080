// Package sqlite implements the repository interfaces using SQLite as the storage backend.
//
// WHY SQLITE?
// SQLite is an embedded database: it lives inside your Go binary as a single file.
// No separate database server to install, configure, or manage. The whole
// dataset here is one member directory and one settings row.
//
// WHY sqlx ON TOP OF database/sql?
// Our models already carry `db:"..."` struct tags. sqlx reads them, so
// GetContext/SelectContext scan a row straight into model.User without a
// twelve-argument rows.Scan call, and NamedExecContext lets the counter
// UPDATE refer to :day and :emails by name instead of counting ?s.
//
// modernc.org/sqlite is a pure Go translation of SQLite: no CGo, no C
// compiler, cross-compiles anywhere Go does.
package sqlite

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	// BLANK IMPORT:
	// The sqlite package's init() registers a database/sql driver named "sqlite".
	_ "modernc.org/sqlite"
)

func init() {
	// sqlx knows "sqlite3" (mattn) but not modernc's "sqlite" name.
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// DB wraps an sqlx connection pool and provides repository methods.
type DB struct {
	conn *sqlx.DB
}

// New opens the database at dbPath and runs migrations.
//
// dbPath examples:
//   - "data/grindboard.db"  → file-based database (persistent)
//   - ":memory:"            → in-memory database (tests)
//
// SINGLE CONNECTION:
// SQLite is a single-writer engine, and every new connection to ":memory:"
// would see its own empty database. One open connection avoids both
// SQLITE_BUSY errors and vanishing test tables.
func New(dbPath string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}
	for _, p := range pragmas {
		if _, err := conn.Exec(p); err != nil {
			conn.Close()
			return nil, fmt.Errorf("sqlite: %s: %w", p, err)
		}
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. CREATE ... IF NOT EXISTS keeps it idempotent.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id                   TEXT PRIMARY KEY,
			name                 TEXT NOT NULL DEFAULT '',
			email                TEXT NOT NULL UNIQUE,
			phone_number         TEXT,
			role                 TEXT NOT NULL DEFAULT 'user',
			onboarding_completed INTEGER NOT NULL DEFAULT 0,
			daily_grind_time     TEXT,
			roast_intensity      TEXT,
			external_username    TEXT,
			created_at           DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at           DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_users_daily_grind_time ON users(daily_grind_time);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	// The CHECK pins the table to a single row.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS settings (
			id                          INTEGER PRIMARY KEY CHECK (id = 1),
			automation_enabled          INTEGER NOT NULL DEFAULT 1,
			email_automation_enabled    INTEGER NOT NULL DEFAULT 1,
			whatsapp_automation_enabled INTEGER NOT NULL DEFAULT 1,
			emails_sent_today           INTEGER NOT NULL DEFAULT 0,
			whatsapp_sent_today         INTEGER NOT NULL DEFAULT 0,
			last_email_sent             DATETIME,
			last_whatsapp_sent          DATETIME,
			counters_date               TEXT NOT NULL DEFAULT '',
			ai_roast                    TEXT,
			updated_at                  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating settings table: %w", err)
	}

	return nil
}
