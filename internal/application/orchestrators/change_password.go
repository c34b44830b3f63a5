package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"campus/internal/domain/account"
)

// ChangePasswordInput carries the session's account and both passwords.
type ChangePasswordInput struct {
	AccountID       string
	CurrentPassword string
	NewPassword     string
}

// AccountStoreForChangePassword defines the store interface needed by ChangePassword.
type AccountStoreForChangePassword interface {
	GetByID(ctx context.Context, id string) (account.Account, error)
	Save(ctx context.Context, a account.Account) error
}

// ChangePasswordDeps holds dependencies for ChangePassword.
type ChangePasswordDeps struct {
	AccountStore AccountStoreForChangePassword
	Now          func() time.Time
}

var (
	ErrCurrentPasswordWrong = errors.New("current password is incorrect")
	ErrNewPasswordSame      = errors.New("new password must be different from current password")
	ErrMissingFields        = errors.New("all fields are required")
)

// ExecuteChangePassword verifies the current password and stores the new one.
// A wrong current password counts towards the same lockout as a failed login,
// so a hijacked session cannot be used to guess the password.
// PRE: AccountID comes from the authenticated session
// POST: Password is re-hashed and failed logins reset, or the failure is recorded
// INVARIANT: A locked account cannot change its password
func ExecuteChangePassword(ctx context.Context, input ChangePasswordInput, deps ChangePasswordDeps) error {
	if input.AccountID == "" || input.CurrentPassword == "" || input.NewPassword == "" {
		return ErrMissingFields
	}
	now := time.Now
	if deps.Now != nil {
		now = deps.Now
	}

	acct, err := deps.AccountStore.GetByID(ctx, input.AccountID)
	if err != nil {
		return err
	}
	if acct.IsLocked(now()) {
		slog.Info("auth_event", "event", "password_change_blocked", "account_id", acct.ID, "reason", "locked")
		return ErrAccountLocked
	}
	if err := acct.CheckPassword(input.CurrentPassword); err != nil {
		acct.RecordFailedLogin(now())
		if err := deps.AccountStore.Save(ctx, acct); err != nil {
			slog.Error("auth_event", "event", "failed_login_not_recorded", "account_id", acct.ID, "error", err)
		}
		slog.Info("auth_event", "event", "password_change_failed", "account_id", acct.ID, "role", acct.Role,
			"failed_logins", acct.FailedLogins)
		return ErrCurrentPasswordWrong
	}
	if input.CurrentPassword == input.NewPassword {
		return ErrNewPasswordSame
	}
	if err := acct.SetPassword(input.NewPassword); err != nil {
		return err
	}
	acct.ResetFailedLogins()
	if err := deps.AccountStore.Save(ctx, acct); err != nil {
		return err
	}

	slog.Info("auth_event", "event", "password_changed", "account_id", acct.ID, "role", acct.Role, "actor_id", acct.ActorID())
	return nil
}
