package email

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/resend/resend-go/v2"
)

// ResendSender sends emails through the Resend API.
type ResendSender struct {
	client *resend.Client
	from   string
	now    func() time.Time
}

// NewResendSender creates a ResendSender.
// PRE: apiKey is a Resend API key; from is a verified sender address
func NewResendSender(apiKey, from string) *ResendSender {
	return &ResendSender{client: resend.NewClient(apiKey), from: from, now: time.Now}
}

// Send queues one email with Resend.
// PRE: req passes Validate
// POST: Returns the Resend message ID
func (s *ResendSender) Send(ctx context.Context, req SendRequest) (SendResult, error) {
	if err := req.Validate(); err != nil {
		return SendResult{}, err
	}
	params := &resend.SendEmailRequest{
		From:    fromOrDefault(req, s.from),
		To:      req.To,
		Subject: req.Subject,
		Html:    req.HTML,
		ReplyTo: req.ReplyTo,
	}
	sent, err := s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return SendResult{}, fmt.Errorf("resend send: %w", err)
	}
	slog.Info("notify_sent", "provider", "resend", "message_id", sent.Id, "recipients", len(req.To), "subject", req.Subject)
	return SendResult{MessageID: sent.Id, SentAt: s.now()}, nil
}
