package outbox

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"campus/internal/adapters/storage"
	domain "campus/internal/domain/outbox"
)

const (
	timeFormat  = time.RFC3339Nano
	selectEntry = `SELECT id, action_type, payload, status, attempts, max_attempts, last_attempted_at, created_at, external_id, error_message FROM outbox`
)

// SQLiteStore implements the outbox Store interface using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new outbox store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves an outbox entry by its ID.
// PRE: id is non-empty
// POST: Returns the entry or domain.ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Entry, error) {
	e, err := scanEntry(s.db.QueryRowContext(ctx, selectEntry+" WHERE id = ?", id).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Entry{}, domain.ErrNotFound
	}
	return e, err
}

// Save persists an outbox entry to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, e domain.Entry) error {
	var lastAttemptedAt any
	if !e.LastAttemptedAt.IsZero() {
		lastAttemptedAt = e.LastAttemptedAt.Format(timeFormat)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO outbox (id, action_type, payload, status, attempts, max_attempts, last_attempted_at, created_at, external_id, error_message)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   status=excluded.status, attempts=excluded.attempts, max_attempts=excluded.max_attempts,
		   last_attempted_at=excluded.last_attempted_at, external_id=excluded.external_id,
		   error_message=excluded.error_message`,
		e.ID, e.ActionType, e.Payload, e.Status, e.Attempts, e.MaxAttempts,
		lastAttemptedAt, e.CreatedAt.Format(timeFormat), e.ExternalID, e.ErrorMessage)
	return err
}

// ListPending returns entries that need to be processed (pending or retrying).
// PRE: limit > 0
func (s *SQLiteStore) ListPending(ctx context.Context, limit int) ([]domain.Entry, error) {
	rows, err := s.db.QueryContext(ctx, selectEntry+" WHERE status IN (?, ?) ORDER BY created_at ASC LIMIT ?",
		domain.StatusPending, domain.StatusRetrying, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

// ListFailed returns entries that have permanently failed.
// PRE: limit > 0
func (s *SQLiteStore) ListFailed(ctx context.Context, limit int) ([]domain.Entry, error) {
	rows, err := s.db.QueryContext(ctx, selectEntry+" WHERE status = ? AND attempts >= max_attempts ORDER BY last_attempted_at DESC LIMIT ?",
		domain.StatusFailed, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

// scanEntry extracts an Entry from a row scanner function.
func scanEntry(scan func(dest ...any) error) (domain.Entry, error) {
	var e domain.Entry
	var createdAt string
	var lastAttemptedAt sql.NullString
	err := scan(&e.ID, &e.ActionType, &e.Payload, &e.Status, &e.Attempts, &e.MaxAttempts,
		&lastAttemptedAt, &createdAt, &e.ExternalID, &e.ErrorMessage)
	if err != nil {
		return domain.Entry{}, err
	}
	e.CreatedAt, _ = time.Parse(timeFormat, createdAt)
	if lastAttemptedAt.Valid {
		e.LastAttemptedAt, _ = time.Parse(timeFormat, lastAttemptedAt.String)
	}
	return e, nil
}

func scanEntries(rows *sql.Rows) ([]domain.Entry, error) {
	var entries []domain.Entry
	for rows.Next() {
		e, err := scanEntry(rows.Scan)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
