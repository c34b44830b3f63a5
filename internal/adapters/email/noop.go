package email

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// NoopSender logs emails instead of delivering them. It is used when no
// provider is configured and keeps the sent messages for inspection.
type NoopSender struct {
	mu   sync.Mutex
	sent []SendRequest
}

// NewNoopSender creates a NoopSender.
func NewNoopSender() *NoopSender {
	return &NoopSender{}
}

// Send records and logs the email.
// POST: Returns a synthetic message ID
func (s *NoopSender) Send(_ context.Context, req SendRequest) (SendResult, error) {
	if err := req.Validate(); err != nil {
		return SendResult{}, err
	}
	s.mu.Lock()
	s.sent = append(s.sent, req)
	n := len(s.sent)
	s.mu.Unlock()
	slog.Info("notify_sent", "provider", "noop", "to", req.To, "subject", req.Subject)
	return SendResult{MessageID: fmt.Sprintf("noop-%d", n), SentAt: time.Now()}, nil
}

// Sent returns a copy of every email recorded so far.
func (s *NoopSender) Sent() []SendRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]SendRequest(nil), s.sent...)
}
