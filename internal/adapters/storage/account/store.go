package account

import (
	"context"

	domain "campus/internal/domain/account"
)

// Store persists Account state together with tutor section assignments.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Account, error)
	GetByEmail(ctx context.Context, email string) (domain.Account, error)
	Save(ctx context.Context, value domain.Account) error
	Count(ctx context.Context) (int, error)
	ListByRole(ctx context.Context, role string) ([]domain.Account, error)
	// ListTutorsForSection returns the tutors assigned to section.
	ListTutorsForSection(ctx context.Context, section string) ([]domain.Account, error)
}
