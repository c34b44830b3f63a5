package holiday

import (
	"context"

	domain "campus/internal/domain/holiday"
)

// Store persists Holiday state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Holiday, error)
	Save(ctx context.Context, value domain.Holiday) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]domain.Holiday, error)
	// ListForBatch returns institution-wide holidays and those of batch.
	ListForBatch(ctx context.Context, batch string) ([]domain.Holiday, error)
}
