package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"campus/internal/domain/account"
)

// AccountStoreForCreate defines the store interface needed by CreateAccount.
type AccountStoreForCreate interface {
	GetByEmail(ctx context.Context, email string) (account.Account, error)
	Save(ctx context.Context, a account.Account) error
	Count(ctx context.Context) (int, error)
}

// CreateAccountInput carries input for the orchestrator.
type CreateAccountInput struct {
	Email     string
	Password  string
	Role      string
	StudentID string
	Sections  []string
}

// CreateAccountDeps holds dependencies for CreateAccount.
type CreateAccountDeps struct {
	AccountStore AccountStoreForCreate
	GenerateID   func() string
	Now          func() time.Time
}

var ErrEmailAlreadyExists = errors.New("an account with this email already exists")

// ExecuteCreateAccount coordinates account creation.
// PRE: Valid email, password >= 12 chars, valid role
// POST: Account created with hashed password
// INVARIANT: Email must be unique
func ExecuteCreateAccount(ctx context.Context, input CreateAccountInput, deps CreateAccountDeps) (account.Account, error) {
	if input.Password == "" {
		return account.Account{}, account.ErrEmptyPassword
	}

	_, err := deps.AccountStore.GetByEmail(ctx, input.Email)
	if err == nil {
		return account.Account{}, ErrEmailAlreadyExists
	}
	if !errors.Is(err, account.ErrNotFound) {
		return account.Account{}, err
	}

	acct := account.Account{
		ID:        deps.GenerateID(),
		Email:     strings.ToLower(strings.TrimSpace(input.Email)),
		Role:      input.Role,
		CreatedAt: deps.Now(),
	}
	switch input.Role {
	case account.RoleStudent:
		acct.StudentID = input.StudentID
	case account.RoleTutor:
		for _, s := range input.Sections {
			if s = strings.TrimSpace(s); s != "" {
				acct.Sections = append(acct.Sections, s)
			}
		}
	}

	if err := acct.Validate(); err != nil {
		return account.Account{}, err
	}
	if err := acct.SetPassword(input.Password); err != nil {
		return account.Account{}, err
	}
	if err := deps.AccountStore.Save(ctx, acct); err != nil {
		return account.Account{}, err
	}

	slog.Info("auth_event", "event", "account_created", "email", acct.Email, "role", acct.Role)
	return acct, nil
}

// ExecuteSeedAdmin creates a default admin account if no accounts exist.
// PRE: Database is migrated
// POST: Admin account created if count == 0
func ExecuteSeedAdmin(ctx context.Context, deps CreateAccountDeps, email, password string) error {
	count, err := deps.AccountStore.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	if email == "" || password == "" {
		slog.Warn("auth_event", "event", "admin_seed_skipped", "reason", "no credentials configured")
		return nil
	}

	if _, err := ExecuteCreateAccount(ctx, CreateAccountInput{Email: email, Password: password, Role: account.RoleAdmin}, deps); err != nil {
		return err
	}
	slog.Info("auth_event", "event", "admin_seeded", "email", email)
	return nil
}
