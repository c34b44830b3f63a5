package attendance

import (
	"context"
	"time"

	domain "campus/internal/domain/attendance"
)

// Store persists daily attendance records.
type Store interface {
	// Save upserts the record for (student, date).
	Save(ctx context.Context, value domain.Record) error
	// ListByStudentAndDateRange returns one student's records within [start, end].
	ListByStudentAndDateRange(ctx context.Context, studentID string, start, end time.Time) ([]domain.Record, error)
}
