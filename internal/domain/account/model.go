package account

import (
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// MaxEmailLength bounds the login identifier.
const MaxEmailLength = 254

// Role constants
const (
	RoleAdmin   = "admin"
	RoleTutor   = "tutor"
	RoleStudent = "student"
)

// Lockout policy
const (
	MaxFailedLogins = 5
	LockoutDuration = 15 * time.Minute
)

// ValidRoles contains all valid role values.
var ValidRoles = []string{RoleAdmin, RoleTutor, RoleStudent}

// Domain errors
var (
	ErrInvalidEmail     = errors.New("email must contain '@'")
	ErrEmptyEmail       = errors.New("email cannot be empty")
	ErrInvalidRole      = errors.New("role must be one of: admin, tutor, student")
	ErrEmptyPassword    = errors.New("password cannot be empty")
	ErrPasswordTooShort = errors.New("password must be at least 12 characters")
	ErrWrongPassword    = errors.New("incorrect password")
	ErrMissingStudent   = errors.New("student accounts must be linked to a student record")
	ErrNotFound         = errors.New("account not found")
)

// Account is a login identity. Tutors carry the sections they are assigned
// to; student accounts link to a directory entry.
type Account struct {
	ID           string
	Email        string
	PasswordHash string
	Role         string
	StudentID    string   // student role only
	Sections     []string // tutor role only
	CreatedAt    time.Time
	FailedLogins int
	LockedUntil  time.Time
}

// Validate checks if the Account has valid data.
// PRE: Account struct is populated
// POST: Returns nil if valid, error otherwise
func (a *Account) Validate() error {
	if strings.TrimSpace(a.Email) == "" {
		return ErrEmptyEmail
	}
	if len(a.Email) > MaxEmailLength {
		return errors.New("email cannot exceed 254 characters")
	}
	if !strings.Contains(a.Email, "@") {
		return ErrInvalidEmail
	}
	if !isValidRole(a.Role) {
		return ErrInvalidRole
	}
	if a.Role == RoleStudent && a.StudentID == "" {
		return ErrMissingStudent
	}
	return nil
}

// SetPassword hashes and stores a password using bcrypt with cost 12.
// PRE: plaintext is non-empty and >= 12 characters
// POST: PasswordHash is set to bcrypt hash
func (a *Account) SetPassword(plaintext string) error {
	if plaintext == "" {
		return ErrEmptyPassword
	}
	if len(plaintext) < 12 {
		return ErrPasswordTooShort
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), 12)
	if err != nil {
		return err
	}
	a.PasswordHash = string(hash)
	return nil
}

// CheckPassword verifies a plaintext password against the stored hash.
// PRE: PasswordHash is set
// INVARIANT: Account fields are not mutated
func (a *Account) CheckPassword(plaintext string) error {
	if a.PasswordHash == "" {
		return ErrWrongPassword
	}
	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(plaintext)); err != nil {
		return ErrWrongPassword
	}
	return nil
}

// IsLocked returns true if the account is locked out at now.
// INVARIANT: Account fields are not mutated
func (a *Account) IsLocked(now time.Time) bool {
	return !a.LockedUntil.IsZero() && now.Before(a.LockedUntil)
}

// RecordFailedLogin increments the failed login counter and locks the account
// after MaxFailedLogins failures.
// POST: FailedLogins incremented; LockedUntil set once the limit is reached
func (a *Account) RecordFailedLogin(now time.Time) {
	a.FailedLogins++
	if a.FailedLogins >= MaxFailedLogins {
		a.LockedUntil = now.Add(LockoutDuration)
	}
}

// ResetFailedLogins clears the failed login counter and lock.
// POST: FailedLogins is 0, LockedUntil is zero
func (a *Account) ResetFailedLogins() {
	a.FailedLogins = 0
	a.LockedUntil = time.Time{}
}

// IsAdmin returns true if the account has admin role.
func (a *Account) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// IsStaff returns true for tutors and admins.
func (a *Account) IsStaff() bool {
	return a.Role == RoleAdmin || a.Role == RoleTutor
}

// ActorID is the identity used on absence requests: the linked student ID
// for students, the account ID otherwise.
func (a *Account) ActorID() string {
	if a.Role == RoleStudent {
		return a.StudentID
	}
	return a.ID
}

func isValidRole(role string) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}
