package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"campus/internal/domain/account"
)

// AccountStoreForLogin defines the store interface needed by Login.
type AccountStoreForLogin interface {
	GetByEmail(ctx context.Context, email string) (account.Account, error)
	Save(ctx context.Context, a account.Account) error
}

// LoginInput carries input for the login orchestrator.
type LoginInput struct {
	Email    string
	Password string
}

// LoginDeps holds dependencies for Login.
type LoginDeps struct {
	AccountStore AccountStoreForLogin
	Now          func() time.Time
}

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountLocked      = errors.New("account is locked due to too many failed attempts")
)

// ExecuteLogin validates credentials and returns the account for session creation.
// PRE: Valid email and password provided
// POST: Returns the account on success, records failed login on failure
// INVARIANT: Account must not be locked
func ExecuteLogin(ctx context.Context, input LoginInput, deps LoginDeps) (account.Account, error) {
	if input.Email == "" || input.Password == "" {
		return account.Account{}, ErrInvalidCredentials
	}
	now := deps.Now()

	acct, err := deps.AccountStore.GetByEmail(ctx, input.Email)
	if err != nil {
		slog.Info("auth_event", "event", "login_failed", "email", input.Email, "reason", "not_found")
		return account.Account{}, ErrInvalidCredentials
	}

	if acct.IsLocked(now) {
		slog.Info("auth_event", "event", "login_blocked", "email", input.Email, "reason", "locked")
		return account.Account{}, ErrAccountLocked
	}

	if err := acct.CheckPassword(input.Password); err != nil {
		acct.RecordFailedLogin(now)
		if err := deps.AccountStore.Save(ctx, acct); err != nil {
			slog.Error("auth_event", "event", "failed_login_not_recorded", "email", input.Email, "error", err)
		}
		slog.Info("auth_event", "event", "login_failed", "email", input.Email, "reason", "wrong_password", "failed_logins", acct.FailedLogins)
		return account.Account{}, ErrInvalidCredentials
	}

	if acct.FailedLogins > 0 || !acct.LockedUntil.IsZero() {
		acct.ResetFailedLogins()
		if err := deps.AccountStore.Save(ctx, acct); err != nil {
			return account.Account{}, err
		}
	}

	slog.Info("auth_event", "event", "login_success", "email", input.Email, "role", acct.Role)
	return acct, nil
}
