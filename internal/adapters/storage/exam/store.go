package exam

import (
	"context"
	"time"

	domain "campus/internal/domain/exam"
)

// Store persists the examination schedule.
type Store interface {
	Save(ctx context.Context, value domain.Exam) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]domain.Exam, error)
	// ListBySectionInRange returns a section's exams dated within [start, end].
	ListBySectionInRange(ctx context.Context, section string, start, end time.Time) ([]domain.Exam, error)
}
