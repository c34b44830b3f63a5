package exam

import (
	"context"
	"fmt"
	"time"

	"campus/internal/adapters/storage"
	domain "campus/internal/domain/exam"
)

const dateFormat = "2006-01-02"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new ExamStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Save persists an Exam (insert or update).
// PRE: value has been validated
func (s *SQLiteStore) Save(ctx context.Context, value domain.Exam) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO exam (id, section, subject, exam_date) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET section=excluded.section, subject=excluded.subject, exam_date=excluded.exam_date`,
		value.ID, value.Section, value.Subject, value.Date.Format(dateFormat))
	return err
}

// Delete removes an Exam.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM exam WHERE id = ?", id)
	return err
}

// List returns the full schedule ordered by date.
func (s *SQLiteStore) List(ctx context.Context) ([]domain.Exam, error) {
	return s.query(ctx, "SELECT id, section, subject, exam_date FROM exam ORDER BY exam_date, section")
}

// ListBySectionInRange returns exams for section dated within [start, end].
// POST: Ordered by date
func (s *SQLiteStore) ListBySectionInRange(ctx context.Context, section string, start, end time.Time) ([]domain.Exam, error) {
	return s.query(ctx,
		"SELECT id, section, subject, exam_date FROM exam WHERE section = ? COLLATE NOCASE AND exam_date >= ? AND exam_date <= ? ORDER BY exam_date",
		section, start.Format(dateFormat), end.Format(dateFormat))
}

func (s *SQLiteStore) query(ctx context.Context, q string, args ...any) ([]domain.Exam, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list exams: %w", err)
	}
	defer rows.Close()

	var results []domain.Exam
	for rows.Next() {
		var e domain.Exam
		var dateStr string
		if err := rows.Scan(&e.ID, &e.Section, &e.Subject, &dateStr); err != nil {
			return nil, err
		}
		e.Date, _ = time.Parse(dateFormat, dateStr)
		results = append(results, e)
	}
	return results, rows.Err()
}
