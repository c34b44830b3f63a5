package absence

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Request kinds
const (
	KindLeave  = "leave"
	KindOnDuty = "on_duty"
)

// Durations
const (
	DurationFullDay          = "full_day"
	DurationHalfDayMorning   = "half_day_morning"
	DurationHalfDayAfternoon = "half_day_afternoon"
)

// Request statuses
const (
	StatusPending         = "pending"
	StatusPendingAdmin    = "pending_admin"
	StatusApproved        = "approved"
	StatusRejected        = "rejected"
	StatusCancelRequested = "cancel_requested"
	StatusCancelled       = "cancelled"
)

// Actor roles
const (
	RoleStudent = "student"
	RoleTutor   = "tutor"
	RoleAdmin   = "admin"
)

// ActiveStatuses are the non-terminal states that block an overlapping submission.
var ActiveStatuses = []string{StatusPending, StatusPendingAdmin, StatusCancelRequested}

// Actor is the authenticated party invoking a lifecycle operation.
// Sections is only meaningful for tutors.
type Actor struct {
	ID       string
	Role     string
	Sections []string
}

// InSection reports whether the actor is assigned to the given section.
func (a Actor) InSection(section string) bool {
	for _, s := range a.Sections {
		if strings.EqualFold(s, section) {
			return true
		}
	}
	return false
}

// Request is a Leave or On-Duty absence request.
type Request struct {
	ID              string
	Kind            string // leave or on_duty
	RequesterID     string
	Section         string
	Batch           string
	Category        string
	StartDate       time.Time
	EndDate         time.Time
	Duration        string
	WorkingDays     decimal.Decimal
	Reason          string
	PlaceToVisit    string // on_duty only
	ProofURL        string
	Status          string
	DecisionRole    string // empty until decided
	DecisionBy      string
	DecidedAt       time.Time
	RejectionReason string
	ForwardedBy     string
	ForwardedAt     time.Time
	CancelledFrom   string // status the cancellation was raised from
	Version         int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Validate checks the submitted fields of a Request.
// PRE: Request struct is populated from a submission
// POST: Returns nil if valid, a validation *Error otherwise
func (r *Request) Validate() error {
	if r.RequesterID == "" {
		return Validationf("missing_requester", "requester is required")
	}
	if r.Kind != KindLeave && r.Kind != KindOnDuty {
		return Validationf("invalid_kind", "kind must be one of: leave, on_duty")
	}
	if !isValidDuration(r.Duration) {
		return Validationf("invalid_duration", "duration must be one of: full_day, half_day_morning, half_day_afternoon")
	}
	if strings.TrimSpace(r.Reason) == "" {
		return Validationf("missing_reason", "reason is required")
	}
	if r.StartDate.IsZero() || r.EndDate.IsZero() {
		return Validationf("missing_dates", "start and end dates are required")
	}
	if r.EndDate.Before(r.StartDate) {
		return ErrInvalidDateRange
	}
	if r.Kind == KindOnDuty && strings.TrimSpace(r.ProofURL) == "" {
		return &Error{Kind: KindValidation, Code: ErrMissingProof.Code, Message: "on-duty requests must carry proof"}
	}
	if r.Kind == KindLeave && r.PlaceToVisit != "" {
		return Validationf("unexpected_place", "place to visit only applies to on-duty requests")
	}
	return nil
}

// IsHalfDay returns true for either half-day duration.
func (r *Request) IsHalfDay() bool {
	return r.Duration == DurationHalfDayMorning || r.Duration == DurationHalfDayAfternoon
}

// IsActive returns true while the request blocks overlapping submissions.
func (r *Request) IsActive() bool {
	return IsActiveStatus(r.Status)
}

// IsTerminal returns true once no further transition is possible.
func (r *Request) IsTerminal() bool {
	return r.Status == StatusRejected || r.Status == StatusCancelled
}

// NeedsAttendanceGate returns true for casual-leave submissions.
// INVARIANT: On-duty requests never pass through the attendance gate
func (r *Request) NeedsAttendanceGate() bool {
	return r.Kind == KindLeave && strings.Contains(strings.ToLower(r.Category), "casual")
}

// TutorOwnsCancellation is true when a pending cancellation belongs in the
// tutor's queue: the request was still pending, or a tutor decided it alone.
func (r *Request) TutorOwnsCancellation() bool {
	if r.CancelledFrom == StatusPending {
		return true
	}
	return r.DecisionRole == RoleTutor && r.ForwardedBy == ""
}

// IsActiveStatus reports whether a status is non-terminal and not approved.
func IsActiveStatus(status string) bool {
	for _, s := range ActiveStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// IsValidStatus reports whether status is a known request status.
func IsValidStatus(status string) bool {
	switch status {
	case StatusPending, StatusPendingAdmin, StatusApproved, StatusRejected, StatusCancelRequested, StatusCancelled:
		return true
	}
	return false
}

func isValidDuration(d string) bool {
	return d == DurationFullDay || d == DurationHalfDayMorning || d == DurationHalfDayAfternoon
}
