package email

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Domain errors
var (
	ErrNoRecipients = errors.New("email has no recipients")
	ErrNoSubject    = errors.New("email has no subject")
)

// SendRequest is one notification email.
type SendRequest struct {
	To      []string // recipient addresses
	From    string   // overrides the sender's default, e.g. "Campus Office <office@campus.edu>"
	Subject string
	HTML    string
	ReplyTo string
}

// Validate checks the request before it reaches a provider.
// POST: Returns ErrNoRecipients or ErrNoSubject, nil otherwise
func (r SendRequest) Validate() error {
	n := 0
	for _, to := range r.To {
		if strings.TrimSpace(to) != "" {
			n++
		}
	}
	if n == 0 {
		return ErrNoRecipients
	}
	if strings.TrimSpace(r.Subject) == "" {
		return ErrNoSubject
	}
	return nil
}

// SendResult is what the provider reported for an accepted message.
type SendResult struct {
	MessageID string
	SentAt    time.Time
}

// Sender delivers notification emails.
type Sender interface {
	Send(ctx context.Context, req SendRequest) (SendResult, error)
}

func fromOrDefault(req SendRequest, fallback string) string {
	if req.From != "" {
		return req.From
	}
	return fallback
}
