package outbox

import (
	"errors"
	"time"
)

// Status constants for outbox entry lifecycle.
const (
	StatusPending   = "pending"
	StatusRetrying  = "retrying"
	StatusDone      = "done"
	StatusFailed    = "failed"
	StatusAbandoned = "abandoned"
)

// ActionTypeEmail is a notification email that failed its first delivery.
const ActionTypeEmail = "email"

// DefaultMaxAttempts bounds retries when an entry does not set its own.
const DefaultMaxAttempts = 5

// Domain errors.
var (
	ErrEmptyActionType = errors.New("action type is required")
	ErrEmptyPayload    = errors.New("payload is required")
	ErrEmptyCreatedAt  = errors.New("created_at must be set")
	ErrNotFound        = errors.New("outbox entry not found")
)

// Entry is a deferred external action replayed by the background worker.
type Entry struct {
	ID              string
	ActionType      string
	Payload         string // JSON payload for replay
	Status          string
	Attempts        int
	MaxAttempts     int
	LastAttemptedAt time.Time
	CreatedAt       time.Time
	ExternalID      string // provider message ID once delivered
	ErrorMessage    string
}

// Validate checks that the Entry has valid data.
// PRE: Entry struct is populated
// POST: Returns nil if valid; MaxAttempts defaulted when unset
func (e *Entry) Validate() error {
	if e.ActionType == "" {
		return ErrEmptyActionType
	}
	if e.Payload == "" {
		return ErrEmptyPayload
	}
	if e.CreatedAt.IsZero() {
		return ErrEmptyCreatedAt
	}
	if e.MaxAttempts <= 0 {
		e.MaxAttempts = DefaultMaxAttempts
	}
	return nil
}

// CanRetry returns true if the entry can be retried.
// POST: Returns true for pending/retrying/failed with attempts < max
func (e *Entry) CanRetry() bool {
	return (e.Status == StatusPending || e.Status == StatusRetrying || e.Status == StatusFailed) &&
		e.Attempts < e.MaxAttempts
}

// IsTerminal returns true if the entry has reached a terminal state.
func (e *Entry) IsTerminal() bool {
	switch {
	case e.Status == StatusDone, e.Status == StatusAbandoned:
		return true
	case e.Status == StatusFailed && e.Attempts >= e.MaxAttempts:
		return true
	}
	return false
}

// IsDue returns true once the backoff delay since the last attempt has elapsed.
func (e *Entry) IsDue(now time.Time, baseDelay, maxDelay time.Duration) bool {
	if e.LastAttemptedAt.IsZero() {
		return true
	}
	return !now.Before(e.LastAttemptedAt.Add(e.NextRetryDelay(baseDelay, maxDelay)))
}

// MarkAttempt records a retry attempt.
// POST: Attempts incremented, LastAttemptedAt = now, status retrying
func (e *Entry) MarkAttempt(now time.Time) {
	e.Attempts++
	e.LastAttemptedAt = now
	e.Status = StatusRetrying
}

// MarkSuccess marks the entry as delivered.
func (e *Entry) MarkSuccess(externalID string) {
	e.Status = StatusDone
	e.ExternalID = externalID
	e.ErrorMessage = ""
}

// MarkFailed records the error; the entry becomes failed once attempts run out.
func (e *Entry) MarkFailed(err error) {
	e.ErrorMessage = err.Error()
	if e.Attempts >= e.MaxAttempts {
		e.Status = StatusFailed
	}
}

// MarkAbandoned marks the entry as abandoned by an admin.
func (e *Entry) MarkAbandoned() {
	e.Status = StatusAbandoned
}

// NextRetryDelay uses exponential backoff: 2^attempts * baseDelay, capped at maxDelay.
func (e *Entry) NextRetryDelay(baseDelay time.Duration, maxDelay time.Duration) time.Duration {
	if e.Attempts >= 30 {
		return maxDelay
	}
	delay := baseDelay * (1 << e.Attempts)
	if delay > maxDelay {
		return maxDelay
	}
	return delay
}
