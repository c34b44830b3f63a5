package orchestrators

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/yuin/goldmark"

	emailAdapter "campus/internal/adapters/email"
	"campus/internal/domain/absence"
	"campus/internal/domain/account"
	"campus/internal/domain/outbox"
	"campus/internal/domain/student"
)

// Notifier receives lifecycle events after the write that produced them has committed.
// INVARIANT: Notify never changes the outcome of the transition that triggered it
type Notifier interface {
	Notify(ctx context.Context, event string, req absence.Request)
}

// StudentLookup resolves a student directory entry.
type StudentLookup interface {
	GetByID(ctx context.Context, id string) (student.Student, error)
}

// StaffDirectory resolves tutor and admin accounts for notifications.
type StaffDirectory interface {
	ListTutorsForSection(ctx context.Context, section string) ([]account.Account, error)
	ListByRole(ctx context.Context, role string) ([]account.Account, error)
}

// OutboxWriter persists deferred deliveries.
type OutboxWriter interface {
	Save(ctx context.Context, e outbox.Entry) error
}

// EmailNotifierDeps holds dependencies for EmailNotifier.
type EmailNotifierDeps struct {
	Students   StudentLookup
	Staff      StaffDirectory
	Sender     emailAdapter.Sender
	Outbox     OutboxWriter
	From       string
	Now        func() time.Time
	GenerateID func() string
}

// EmailNotifier renders lifecycle events as markdown emails. A failed send is
// logged and queued in the outbox for the background worker.
type EmailNotifier struct {
	deps EmailNotifierDeps
	md   goldmark.Markdown
}

// NewEmailNotifier creates an EmailNotifier.
func NewEmailNotifier(deps EmailNotifierDeps) *EmailNotifier {
	return &EmailNotifier{deps: deps, md: goldmark.New()}
}

type message struct {
	to      []string
	subject string
	body    string // markdown
}

// Notify sends the messages an event produces.
// PRE: req is the committed state after the event
// POST: Each message is delivered or queued; errors are logged only
// INVARIANT: Delivery outlives cancellation of the caller's context
func (n *EmailNotifier) Notify(ctx context.Context, event string, req absence.Request) {
	ctx = context.WithoutCancel(ctx)
	msgs, err := n.messages(ctx, event, req)
	if err != nil {
		slog.Error("notify_recipients_failed", "event", event, "request_id", req.ID, "error", err)
		return
	}
	for _, m := range msgs {
		if len(m.to) == 0 {
			slog.Warn("notify_no_recipients", "event", event, "request_id", req.ID, "subject", m.subject)
			continue
		}
		n.deliver(ctx, event, req, m)
	}
}

func (n *EmailNotifier) deliver(ctx context.Context, event string, req absence.Request, m message) {
	var html bytes.Buffer
	if err := n.md.Convert([]byte(m.body), &html); err != nil {
		slog.Error("notify_render_failed", "event", event, "request_id", req.ID, "error", err)
		return
	}
	sendReq := emailAdapter.SendRequest{To: m.to, From: n.deps.From, Subject: m.subject, HTML: html.String()}
	res, err := n.deps.Sender.Send(ctx, sendReq)
	if err == nil {
		slog.Info("notify_sent", "event", event, "request_id", req.ID, "recipients", len(m.to), "message_id", res.MessageID)
		return
	}
	slog.Warn("notify_send_failed", "event", event, "request_id", req.ID, "error", err)
	if err := n.enqueue(ctx, sendReq, err); err != nil {
		slog.Error("notify_enqueue_failed", "event", event, "request_id", req.ID, "error", err)
	}
}

func (n *EmailNotifier) enqueue(ctx context.Context, sendReq emailAdapter.SendRequest, cause error) error {
	if n.deps.Outbox == nil {
		return fmt.Errorf("no outbox configured")
	}
	payload, err := json.Marshal(EmailPayload{To: sendReq.To, From: sendReq.From, Subject: sendReq.Subject, HTML: sendReq.HTML})
	if err != nil {
		return err
	}
	entry := outbox.Entry{
		ID:           n.deps.GenerateID(),
		ActionType:   outbox.ActionTypeEmail,
		Payload:      string(payload),
		Status:       outbox.StatusPending,
		CreatedAt:    n.deps.Now(),
		ErrorMessage: cause.Error(),
	}
	if err := entry.Validate(); err != nil {
		return err
	}
	return n.deps.Outbox.Save(ctx, entry)
}

// messages decides who hears about an event.
func (n *EmailNotifier) messages(ctx context.Context, event string, req absence.Request) ([]message, error) {
	summary := describe(req)
	switch event {
	case absence.EventSubmitted:
		if req.Kind != absence.KindOnDuty {
			return nil, nil
		}
		to, err := n.tutorEmails(ctx, req.Section)
		if err != nil {
			return nil, err
		}
		return []message{{to, "New on-duty request awaiting review", summary + "\n\nPlease review and forward it to the office."}}, nil

	case absence.EventForwarded:
		admins, err := n.roleEmails(ctx, account.RoleAdmin)
		if err != nil {
			return nil, err
		}
		own, err := n.studentEmail(ctx, req.RequesterID)
		if err != nil {
			return nil, err
		}
		return []message{
			{admins, "Request forwarded for approval", summary + "\n\nForwarded by the class tutor for an admin decision."},
			{own, "Your request was forwarded", summary + "\n\nYour tutor has forwarded it to the office for a decision."},
		}, nil

	case absence.EventCancelRequested:
		var to []string
		var err error
		if req.TutorOwnsCancellation() {
			to, err = n.tutorEmails(ctx, req.Section)
		} else {
			to, err = n.roleEmails(ctx, account.RoleAdmin)
		}
		if err != nil {
			return nil, err
		}
		return []message{{to, "Cancellation requested", summary + "\n\nThe student has asked to cancel this request."}}, nil

	case absence.EventApproved, absence.EventRejected, absence.EventCancelled, absence.EventReinstated, absence.EventRevoked:
		own, err := n.studentEmail(ctx, req.RequesterID)
		if err != nil {
			return nil, err
		}
		body := summary + "\n\n" + outcomeLine(event, req)
		return []message{{own, "Your request was " + event, body}}, nil
	}
	return nil, nil
}

func (n *EmailNotifier) tutorEmails(ctx context.Context, section string) ([]string, error) {
	tutors, err := n.deps.Staff.ListTutorsForSection(ctx, section)
	if err != nil {
		return nil, fmt.Errorf("tutors for %s: %w", section, err)
	}
	return emails(tutors), nil
}

func (n *EmailNotifier) roleEmails(ctx context.Context, role string) ([]string, error) {
	accts, err := n.deps.Staff.ListByRole(ctx, role)
	if err != nil {
		return nil, fmt.Errorf("accounts with role %s: %w", role, err)
	}
	return emails(accts), nil
}

func (n *EmailNotifier) studentEmail(ctx context.Context, id string) ([]string, error) {
	st, err := n.deps.Students.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("student %s: %w", id, err)
	}
	if st.Email == "" {
		return nil, nil
	}
	return []string{st.Email}, nil
}

func emails(accts []account.Account) []string {
	out := make([]string, 0, len(accts))
	for _, a := range accts {
		if a.Email != "" {
			out = append(out, a.Email)
		}
	}
	return out
}

func describe(req absence.Request) string {
	kind := "Leave"
	if req.Kind == absence.KindOnDuty {
		kind = "On-duty"
	}
	dates := req.StartDate.Format("2 Jan 2006")
	if !req.EndDate.Equal(req.StartDate) {
		dates += " to " + req.EndDate.Format("2 Jan 2006")
	}
	var b strings.Builder
	fmt.Fprintf(&b, "**%s request** `%s` (section %s)\n\n", kind, req.ID, req.Section)
	fmt.Fprintf(&b, "- Dates: %s\n", dates)
	fmt.Fprintf(&b, "- Working days: %s\n", req.WorkingDays.String())
	if req.Category != "" {
		fmt.Fprintf(&b, "- Category: %s\n", req.Category)
	}
	if req.PlaceToVisit != "" {
		fmt.Fprintf(&b, "- Place: %s\n", req.PlaceToVisit)
	}
	fmt.Fprintf(&b, "- Reason: %s", req.Reason)
	return b.String()
}

func outcomeLine(event string, req absence.Request) string {
	switch event {
	case absence.EventApproved:
		return "The request has been **approved**."
	case absence.EventRejected:
		return "The request has been **rejected**: " + req.RejectionReason
	case absence.EventCancelled:
		return "The request has been **cancelled** as you asked."
	case absence.EventReinstated:
		return "Your cancellation was declined; the request is **" + req.Status + "** again."
	case absence.EventRevoked:
		return "The earlier approval was **revoked** and the request is back under review."
	}
	return ""
}
