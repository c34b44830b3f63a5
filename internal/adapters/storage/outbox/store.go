package outbox

import (
	"context"

	domain "campus/internal/domain/outbox"
)

// Store defines the interface for outbox entry persistence.
type Store interface {
	// GetByID retrieves an outbox entry by its ID.
	// POST: Returns domain.ErrNotFound when absent
	GetByID(ctx context.Context, id string) (domain.Entry, error)

	// Save persists an outbox entry (insert or update).
	// PRE: entity has been validated
	Save(ctx context.Context, e domain.Entry) error

	// ListPending returns entries still to be processed (pending or retrying).
	// POST: Returns up to limit entries ordered by created_at
	ListPending(ctx context.Context, limit int) ([]domain.Entry, error)

	// ListFailed returns entries that have permanently failed.
	// POST: Returns up to limit entries, most recently attempted first
	ListFailed(ctx context.Context, limit int) ([]domain.Entry, error)
}
