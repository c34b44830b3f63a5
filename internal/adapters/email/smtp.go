package email

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/gomail.v2"
)

// SMTPConfig holds relay settings for SMTPSender.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// dialer is the part of *gomail.Dialer used by SMTPSender.
type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPSender sends emails through an SMTP relay.
type SMTPSender struct {
	dialer dialer
	from   string
	domain string
	now    func() time.Time
}

// NewSMTPSender creates an SMTPSender for the given relay.
// PRE: cfg.Host and cfg.From are set
func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	return &SMTPSender{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
		domain: cfg.Host,
		now:    time.Now,
	}
}

// Send delivers one email. The relay call itself cannot be cancelled, so ctx
// is only checked before dialing.
// PRE: req passes Validate
// POST: Returns the Message-Id header set on the email
func (s *SMTPSender) Send(ctx context.Context, req SendRequest) (SendResult, error) {
	if err := req.Validate(); err != nil {
		return SendResult{}, err
	}
	if err := ctx.Err(); err != nil {
		return SendResult{}, err
	}
	msg, id := s.buildMessage(req)
	if err := s.dialer.DialAndSend(msg); err != nil {
		return SendResult{}, fmt.Errorf("smtp send via %s: %w", s.domain, err)
	}
	slog.Info("notify_sent", "provider", "smtp", "message_id", id, "recipients", len(req.To), "subject", req.Subject)
	return SendResult{MessageID: id, SentAt: s.now()}, nil
}

func (s *SMTPSender) buildMessage(req SendRequest) (*gomail.Message, string) {
	id := fmt.Sprintf("<%s@%s>", uuid.NewString(), s.domain)
	m := gomail.NewMessage()
	m.SetHeader("From", fromOrDefault(req, s.from))
	var to []string
	for _, addr := range req.To {
		if addr = strings.TrimSpace(addr); addr != "" {
			to = append(to, addr)
		}
	}
	m.SetHeader("To", to...)
	m.SetHeader("Subject", req.Subject)
	m.SetHeader("Message-Id", id)
	if req.ReplyTo != "" {
		m.SetHeader("Reply-To", req.ReplyTo)
	}
	m.SetDateHeader("Date", s.now())
	m.SetBody("text/html", req.HTML)
	return m, id
}
