package term

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"campus/internal/adapters/storage"
	domain "campus/internal/domain/term"
)

const dateFormat = "2006-01-02"

// ErrNotFound is returned when no term has the requested ID.
var ErrNotFound = errors.New("term not found")

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new TermStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a Term by its ID.
// PRE: id is non-empty
// POST: Returns the entity or ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Term, error) {
	var entity domain.Term
	var startStr, endStr string
	err := s.db.QueryRowContext(ctx, "SELECT id, name, batch, start_date, end_date FROM term WHERE id = ?", id).
		Scan(&entity.ID, &entity.Name, &entity.Batch, &startStr, &endStr)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Term{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return domain.Term{}, err
	}
	entity.StartDate, _ = time.Parse(dateFormat, startStr)
	entity.EndDate, _ = time.Parse(dateFormat, endStr)
	return entity, nil
}

// Save persists a Term to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Term) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO term (id, name, batch, start_date, end_date) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name=excluded.name, batch=excluded.batch, start_date=excluded.start_date, end_date=excluded.end_date`,
		entity.ID, entity.Name, entity.Batch, entity.StartDate.Format(dateFormat), entity.EndDate.Format(dateFormat),
	)
	return err
}

// Delete removes a Term from the database.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM term WHERE id = ?", id)
	return err
}

// List retrieves all Terms ordered by start date.
func (s *SQLiteStore) List(ctx context.Context) ([]domain.Term, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name, batch, start_date, end_date FROM term ORDER BY start_date")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Term
	for rows.Next() {
		var entity domain.Term
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
