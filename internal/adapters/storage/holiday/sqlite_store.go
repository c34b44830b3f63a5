package holiday

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"campus/internal/adapters/storage"
	domain "campus/internal/domain/holiday"
)

const dateFormat = "2006-01-02"

// ErrNotFound is returned when no holiday has the requested ID.
var ErrNotFound = errors.New("holiday not found")

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new HolidayStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a Holiday by its ID.
// PRE: id is non-empty
// POST: Returns the entity or ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Holiday, error) {
	row := s.db.QueryRowContext(ctx, "SELECT id, name, batch, start_date, end_date FROM holiday WHERE id = ?", id)
	var entity domain.Holiday
	var startStr, endStr string
	err := row.Scan(&entity.ID, &entity.Name, &entity.Batch, &startStr, &endStr)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Holiday{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return domain.Holiday{}, err
	}
	entity.StartDate, _ = time.Parse(dateFormat, startStr)
	entity.EndDate, _ = time.Parse(dateFormat, endStr)
	return entity, nil
}

// Save persists a Holiday to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Holiday) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO holiday (id, name, batch, start_date, end_date) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name=excluded.name, batch=excluded.batch, start_date=excluded.start_date, end_date=excluded.end_date`,
		entity.ID, entity.Name, entity.Batch, entity.StartDate.Format(dateFormat), entity.EndDate.Format(dateFormat),
	)
	return err
}

// Delete removes a Holiday from the database.
// PRE: id is non-empty
// POST: Entity with given id is removed
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM holiday WHERE id = ?", id)
	return err
}

// List retrieves all Holidays ordered by start date.
func (s *SQLiteStore) List(ctx context.Context) ([]domain.Holiday, error) {
	return s.query(ctx, "SELECT id, name, batch, start_date, end_date FROM holiday ORDER BY start_date")
}

// ListForBatch retrieves the holidays that apply to batch.
// POST: Includes institution-wide holidays (empty batch)
func (s *SQLiteStore) ListForBatch(ctx context.Context, batch string) ([]domain.Holiday, error) {
	return s.query(ctx, "SELECT id, name, batch, start_date, end_date FROM holiday WHERE batch = '' OR batch = ? COLLATE NOCASE ORDER BY start_date", batch)
}

func (s *SQLiteStore) query(ctx context.Context, q string, args ...any) ([]domain.Holiday, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Holiday
	for rows.Next() {
		var entity domain.Holiday
		var startStr, endStr string
		if err := rows.Scan(&entity.ID, &entity.Name, &entity.Batch, &startStr, &endStr); err != nil {
			return nil, err
		}
		entity.StartDate, _ = time.Parse(dateFormat, startStr)
		entity.EndDate, _ = time.Parse(dateFormat, endStr)
		results = append(results, entity)
	}
	return results, rows.Err()
}
