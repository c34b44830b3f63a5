package email

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"gopkg.in/gomail.v2"
)

// TestSendRequestValidate covers recipient and subject checks.
func TestSendRequestValidate(t *testing.T) {
	tests := []struct {
		name string
		req  SendRequest
		want error
	}{
		{"valid", SendRequest{To: []string{"a@campus.edu"}, Subject: "Hi"}, nil},
		{"no recipients", SendRequest{Subject: "Hi"}, ErrNoRecipients},
		{"blank recipients", SendRequest{To: []string{" ", ""}, Subject: "Hi"}, ErrNoRecipients},
		{"no subject", SendRequest{To: []string{"a@campus.edu"}}, ErrNoSubject},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.req.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

// TestNoopSender records messages and numbers them.
func TestNoopSender(t *testing.T) {
	s := NewNoopSender()
	res, err := s.Send(context.Background(), SendRequest{To: []string{"a@campus.edu"}, Subject: "One"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.MessageID != "noop-1" {
		t.Errorf("MessageID = %q", res.MessageID)
	}
	if _, err := s.Send(context.Background(), SendRequest{Subject: "Two"}); !errors.Is(err, ErrNoRecipients) {
		t.Errorf("err = %v, want ErrNoRecipients", err)
	}
	if got := s.Sent(); len(got) != 1 || got[0].Subject != "One" {
		t.Errorf("Sent() = %+v", got)
	}
}

type fakeDialer struct {
	msgs []*gomail.Message
	err  error
}

func (d *fakeDialer) DialAndSend(m ...*gomail.Message) error {
	if d.err != nil {
		return d.err
	}
	d.msgs = append(d.msgs, m...)
	return nil
}

func newTestSMTPSender(d dialer) *SMTPSender {
	return &SMTPSender{
		dialer: d,
		from:   "Campus Office <office@campus.edu>",
		domain: "smtp.campus.edu",
		now:    func() time.Time { return time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC) },
	}
}

// TestSMTPSender_Send verifies headers on the relayed message.
func TestSMTPSender_Send(t *testing.T) {
	d := &fakeDialer{}
	s := newTestSMTPSender(d)
	res, err := s.Send(context.Background(), SendRequest{
		To:      []string{"tutor@campus.edu", " "},
		Subject: "Request awaiting approval",
		HTML:    "<p>hello</p>",
		ReplyTo: "noreply@campus.edu",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(d.msgs) != 1 {
		t.Fatalf("sent %d messages, want 1", len(d.msgs))
	}
	m := d.msgs[0]
	if got := m.GetHeader("To"); len(got) != 1 || got[0] != "tutor@campus.edu" {
		t.Errorf("To = %v", got)
	}
	if got := m.GetHeader("From"); len(got) != 1 || got[0] != "Campus Office <office@campus.edu>" {
		t.Errorf("From = %v", got)
	}
	if got := m.GetHeader("Message-Id"); len(got) != 1 || got[0] != res.MessageID {
		t.Errorf("Message-Id = %v, result %q", got, res.MessageID)
	}
	if !strings.HasSuffix(res.MessageID, "@smtp.campus.edu>") {
		t.Errorf("MessageID = %q", res.MessageID)
	}
}

// TestSMTPSender_Failures covers relay errors and cancelled contexts.
func TestSMTPSender_Failures(t *testing.T) {
	relayErr := errors.New("535 authentication failed")
	s := newTestSMTPSender(&fakeDialer{err: relayErr})
	req := SendRequest{To: []string{"a@campus.edu"}, Subject: "x"}
	if _, err := s.Send(context.Background(), req); !errors.Is(err, relayErr) {
		t.Errorf("err = %v, want wrapped relay error", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d := &fakeDialer{}
	if _, err := newTestSMTPSender(d).Send(ctx, req); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if len(d.msgs) != 0 {
		t.Error("cancelled send must not dial")
	}
}
