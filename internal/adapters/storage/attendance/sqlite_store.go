package attendance

import (
	"context"
	"fmt"
	"time"

	"campus/internal/adapters/storage"
	domain "campus/internal/domain/attendance"
)

const dateFormat = "2006-01-02"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new AttendanceStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Save persists a Record, replacing any earlier mark for the same student and date.
// PRE: value has been validated
// POST: Exactly one row exists for (student_id, class_date)
func (s *SQLiteStore) Save(ctx context.Context, value domain.Record) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO attendance (id, student_id, class_date, status) VALUES (?, ?, ?, ?)
		 ON CONFLICT(student_id, class_date) DO UPDATE SET status=excluded.status`,
		value.ID, value.StudentID, value.Date.Format(dateFormat), value.Status,
	)
	if err != nil {
		return fmt.Errorf("save attendance for %s: %w", value.StudentID, err)
	}
	return nil
}

// ListByStudentAndDateRange returns records ordered by date.
// PRE: start <= end
func (s *SQLiteStore) ListByStudentAndDateRange(ctx context.Context, studentID string, start, end time.Time) ([]domain.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, student_id, class_date, status FROM attendance
		 WHERE student_id = ? AND class_date >= ? AND class_date <= ? ORDER BY class_date`,
		studentID, start.Format(dateFormat), end.Format(dateFormat))
	if err != nil {
		return nil, fmt.Errorf("list attendance for %s: %w", studentID, err)
	}
	defer rows.Close()

	var results []domain.Record
	for rows.Next() {
		var r domain.Record
		var dateStr string
		if err := rows.Scan(&r.ID, &r.StudentID, &dateStr, &r.Status); err != nil {
			return nil, err
		}
		r.Date, err = time.Parse(dateFormat, dateStr)
		if err != nil {
			return nil, fmt.Errorf("attendance %s has malformed date %q: %w", r.ID, dateStr, err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
