package student

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"campus/internal/adapters/storage"
	domain "campus/internal/domain/student"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new StudentStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a Student by ID.
// POST: Returns domain.ErrNotFound when absent
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Student, error) {
	var st domain.Student
	err := s.db.QueryRowContext(ctx, "SELECT id, name, email, section, batch FROM student WHERE id = ?", id).
		Scan(&st.ID, &st.Name, &st.Email, &st.Section, &st.Batch)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Student{}, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	if err != nil {
		return domain.Student{}, fmt.Errorf("get student %s: %w", id, err)
	}
	return st, nil
}

// Save persists a Student (insert or update).
// PRE: value has been validated
func (s *SQLiteStore) Save(ctx context.Context, value domain.Student) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO student (id, name, email, section, batch) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name=excluded.name, email=excluded.email, section=excluded.section, batch=excluded.batch`,
		value.ID, value.Name, value.Email, value.Section, value.Batch)
	return err
}
