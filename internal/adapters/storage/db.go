package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// migration is one forward-only schema step.
type migration struct {
	version int
	name    string
	sql     string
}

// migrations are applied in order; each runs at most once.
var migrations = []migration{
	{1, "core_schema", `
	CREATE TABLE IF NOT EXISTS student (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL DEFAULT '',
		section TEXT NOT NULL,
		batch TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS account (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL,
		student_id TEXT REFERENCES student(id),
		created_at TEXT NOT NULL,
		failed_logins INTEGER NOT NULL DEFAULT 0,
		locked_until TEXT
	);

	CREATE TABLE IF NOT EXISTS account_section (
		account_id TEXT NOT NULL REFERENCES account(id) ON DELETE CASCADE,
		section TEXT NOT NULL,
		PRIMARY KEY (account_id, section)
	);

	CREATE TABLE IF NOT EXISTS term (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		batch TEXT NOT NULL DEFAULT '',
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS holiday (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		batch TEXT NOT NULL DEFAULT '',
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS attendance (
		id TEXT PRIMARY KEY,
		student_id TEXT NOT NULL REFERENCES student(id),
		class_date TEXT NOT NULL,
		status TEXT NOT NULL,
		UNIQUE (student_id, class_date)
	);

	CREATE TABLE IF NOT EXISTS exam (
		id TEXT PRIMARY KEY,
		section TEXT NOT NULL,
		subject TEXT NOT NULL,
		exam_date TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_exam_section_date ON exam(section, exam_date);

	CREATE TABLE IF NOT EXISTS absence_request (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		requester_id TEXT NOT NULL,
		section TEXT NOT NULL,
		batch TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT '',
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		duration TEXT NOT NULL,
		working_days TEXT NOT NULL,
		reason TEXT NOT NULL,
		place_to_visit TEXT NOT NULL DEFAULT '',
		proof_url TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		decision_role TEXT NOT NULL DEFAULT '',
		decision_by TEXT NOT NULL DEFAULT '',
		decided_at TEXT,
		rejection_reason TEXT NOT NULL DEFAULT '',
		forwarded_by TEXT NOT NULL DEFAULT '',
		forwarded_at TEXT,
		cancelled_from TEXT NOT NULL DEFAULT '',
		version INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_absence_requester ON absence_request(requester_id, start_date);
	CREATE INDEX IF NOT EXISTS idx_absence_section_status ON absence_request(section, status);

	CREATE TABLE IF NOT EXISTS outbox (
		id TEXT PRIMARY KEY,
		action_type TEXT NOT NULL,
		payload TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		attempts INTEGER NOT NULL DEFAULT 0,
		max_attempts INTEGER NOT NULL DEFAULT 5,
		last_attempted_at TEXT,
		created_at TEXT NOT NULL,
		external_id TEXT NOT NULL DEFAULT '',
		error_message TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_outbox_status ON outbox(status);
	`},
}

// LatestSchemaVersion is the version MigrateDB brings a database to.
func LatestSchemaVersion() int {
	return migrations[len(migrations)-1].version
}

// MigrateDB applies pending migrations and enables foreign keys.
// PRE: db is a valid database connection
// POST: schema_version records every applied migration
func MigrateDB(db *sql.DB) error {
	ctx := context.Background()
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TEXT NOT NULL DEFAULT (datetime('now'))
	)`); err != nil {
		return fmt.Errorf("failed to create schema_version: %w", err)
	}

	current, err := SchemaVersion(db)
	if err != nil {
		return err
	}
	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.version, err)
		}
		if _, err := tx.ExecContext(ctx, m.sql); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version, name) VALUES (?, ?)", m.version, m.name); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.version, err)
		}
		slog.Info("schema_event", "event", "migration_applied", "version", m.version, "name", m.name)
	}
	return nil
}

// SchemaVersion returns the highest applied migration, or 0 for a fresh database.
func SchemaVersion(db *sql.DB) (int, error) {
	var v sql.NullInt64
	err := db.QueryRowContext(context.Background(), "SELECT MAX(version) FROM schema_version").Scan(&v)
	if err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return int(v.Int64), nil
}
