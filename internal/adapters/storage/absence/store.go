package absence

import (
	"context"
	"time"

	domain "campus/internal/domain/absence"
)

// Filter narrows a request listing. Empty fields do not filter.
type Filter struct {
	RequesterID string
	Sections    []string
	Statuses    []string
	Kind        string
	From        time.Time // requests ending on or after From
	To          time.Time // requests starting on or before To
	Sort        string    // start_date, created_at, working_days, status
	Desc        bool
	Limit       int
	Offset      int
}

// Store persists absence requests. Requests are never deleted.
type Store interface {
	// GetByID retrieves a request.
	// POST: Returns a not_found *domain.Error when absent
	GetByID(ctx context.Context, id string) (domain.Request, error)

	// ListByRequester returns a student's requests in the given statuses
	// (all statuses when none are given), ordered by start date.
	ListByRequester(ctx context.Context, requesterID string, statuses ...string) ([]domain.Request, error)

	// ListActiveOverlapping returns the requester's active requests intersecting [start, end].
	ListActiveOverlapping(ctx context.Context, requesterID string, start, end time.Time) ([]domain.Request, error)

	// List returns one page of requests matching f and the total match count.
	List(ctx context.Context, f Filter) ([]domain.Request, int, error)

	// CreateIfNoOverlap inserts req unless an active request of the same
	// requester overlaps it. The check and insert share one write transaction.
	// POST: Returns a conflict *domain.Error carrying the overlapping dates
	CreateIfNoOverlap(ctx context.Context, req domain.Request) error

	// UpdateIfStatus writes req only if the stored row still has the expected
	// status and version. Moving req into an active status fails when another
	// active request of the same requester overlaps it.
	// POST: Returns a stale_state *domain.Error when another writer got there first
	// POST: Returns a conflict *domain.Error carrying the overlapping dates
	UpdateIfStatus(ctx context.Context, req domain.Request, expectedStatus string, expectedVersion int) error
}
