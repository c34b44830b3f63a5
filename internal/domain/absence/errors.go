package absence

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Kind classifies a lifecycle error. Each kind maps to one HTTP status.
type Kind string

// Error kinds.
const (
	KindValidation    Kind = "validation"
	KindEligibility   Kind = "eligibility"
	KindConflict      Kind = "conflict"
	KindState         Kind = "state"
	KindAuthorization Kind = "authorization"
	KindNotFound      Kind = "not_found"
)

// Error is the typed failure returned by every lifecycle operation.
// Percentage/Threshold are set for eligibility failures and Dates for conflicts.
type Error struct {
	Kind       Kind
	Code       string
	Message    string
	Percentage *decimal.Decimal
	Threshold  *decimal.Decimal
	Dates      []time.Time
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Is matches on Kind when the target carries no Code, otherwise on Code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Code == "" {
		return e.Kind == t.Kind
	}
	return e.Code == t.Code
}

// DateStrings renders Dates in the wire layout.
func (e *Error) DateStrings() []string {
	out := make([]string, 0, len(e.Dates))
	for _, d := range e.Dates {
		out = append(out, d.Format("2006-01-02"))
	}
	return out
}

// Kind sentinels for errors.Is.
var (
	ErrValidation    = &Error{Kind: KindValidation}
	ErrEligibility   = &Error{Kind: KindEligibility}
	ErrConflict      = &Error{Kind: KindConflict}
	ErrState         = &Error{Kind: KindState}
	ErrAuthorization = &Error{Kind: KindAuthorization}
	ErrNotFound      = &Error{Kind: KindNotFound}
)

// Code sentinels for errors.Is.
var (
	ErrTutorCapExceeded   = &Error{Kind: KindState, Code: "tutor_cap_exceeded"}
	ErrStaleState         = &Error{Kind: KindState, Code: "stale_state"}
	ErrOverlap            = &Error{Kind: KindConflict, Code: "overlap"}
	ErrExamConflict       = &Error{Kind: KindConflict, Code: "exam_conflict"}
	ErrAttendanceTooLow   = &Error{Kind: KindEligibility, Code: "attendance_below_threshold"}
	ErrMissingProof       = &Error{Kind: KindValidation, Code: "missing_proof"}
	ErrRequestNotFound    = &Error{Kind: KindNotFound, Code: "request_not_found"}
	ErrTransitionDenied   = &Error{Kind: KindAuthorization, Code: "transition_not_permitted"}
	ErrOutsideScope       = &Error{Kind: KindAuthorization, Code: "outside_scope"}
	ErrStartInPast        = &Error{Kind: KindValidation, Code: "start_in_past"}
	ErrAlreadyStarted     = &Error{Kind: KindState, Code: "already_started"}
	ErrInvalidTransition  = &Error{Kind: KindState, Code: "invalid_transition"}
	ErrNoWorkingDays      = &Error{Kind: KindValidation, Code: "no_working_days"}
	ErrInvalidDateRange   = &Error{Kind: KindValidation, Code: "invalid_date_range"}
	ErrHalfDayMultipleDay = &Error{Kind: KindValidation, Code: "half_day_multiple_days"}
)

// Validationf builds a validation error with the given code.
func Validationf(code, format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: fmt.Sprintf(format, args...)}
}

// Statef builds a state error with the given code.
func Statef(code, format string, args ...any) *Error {
	return &Error{Kind: KindState, Code: code, Message: fmt.Sprintf(format, args...)}
}

// Deniedf builds an authorization error with the given code.
func Deniedf(code, format string, args ...any) *Error {
	return &Error{Kind: KindAuthorization, Code: code, Message: fmt.Sprintf(format, args...)}
}

// NotFound builds a not-found error for the given request ID.
func NotFound(id string) *Error {
	return &Error{Kind: KindNotFound, Code: ErrRequestNotFound.Code, Message: fmt.Sprintf("request %s not found", id)}
}

// Stale is returned when a conditional write found the record changed underneath it.
func Stale(id string) *Error {
	return &Error{Kind: KindState, Code: ErrStaleState.Code, Message: fmt.Sprintf("request %s was modified concurrently", id)}
}

// Ineligible reports an attendance gate failure with the exact figures.
func Ineligible(pct, threshold decimal.Decimal) *Error {
	return &Error{
		Kind:       KindEligibility,
		Code:       ErrAttendanceTooLow.Code,
		Message:    fmt.Sprintf("attendance %s%% is below the required %s%%", pct.StringFixed(2), threshold.String()),
		Percentage: &pct,
		Threshold:  &threshold,
	}
}

// Overlapping reports an existing active request that intersects the range.
func Overlapping(existing []Request) *Error {
	var dates []time.Time
	var ids []string
	for _, r := range existing {
		dates = append(dates, r.StartDate, r.EndDate)
		ids = append(ids, r.ID)
	}
	return &Error{
		Kind:    KindConflict,
		Code:    ErrOverlap.Code,
		Message: fmt.Sprintf("an active request already covers these dates (%s)", strings.Join(ids, ", ")),
		Dates:   dates,
	}
}

// ExamClash reports exams scheduled inside the requested range.
func ExamClash(dates []time.Time) *Error {
	parts := make([]string, 0, len(dates))
	for _, d := range dates {
		parts = append(parts, d.Format("2006-01-02"))
	}
	return &Error{
		Kind:    KindConflict,
		Code:    ErrExamConflict.Code,
		Message: "exams are scheduled on " + strings.Join(parts, ", "),
		Dates:   dates,
	}
}
