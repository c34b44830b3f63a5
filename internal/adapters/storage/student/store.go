package student

import (
	"context"

	domain "campus/internal/domain/student"
)

// Store is the student directory.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Student, error)
	Save(ctx context.Context, value domain.Student) error
}
