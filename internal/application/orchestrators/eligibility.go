package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"campus/internal/domain/absence"
	"campus/internal/domain/attendance"
	"campus/internal/domain/calendar"
	"campus/internal/domain/student"
	"campus/internal/domain/term"
)

// TermLister lists academic terms.
type TermLister interface {
	List(ctx context.Context) ([]term.Term, error)
}

// AttendanceLister returns a student's daily marks in a date range.
type AttendanceLister interface {
	ListByStudentAndDateRange(ctx context.Context, studentID string, start, end time.Time) ([]attendance.Record, error)
}

// RequesterLister returns a student's requests in the given statuses.
type RequesterLister interface {
	ListByRequester(ctx context.Context, requesterID string, statuses ...string) ([]absence.Request, error)
}

// EligibilityInput carries input for the attendance gate.
type EligibilityInput struct {
	StudentID string
}

// EligibilityDeps holds dependencies for the attendance gate.
type EligibilityDeps struct {
	StudentStore    StudentLookup
	TermStore       TermLister
	AttendanceStore AttendanceLister
	RequestStore    RequesterLister
	Threshold       decimal.Decimal
	Location        *time.Location
	Now             func() time.Time
}

// ExecuteCheckLeaveEligibility computes the student's attendance over the
// elapsed part of the active term and applies the threshold.
// PRE: StudentID refers to a directory entry
// POST: Percentage is rounded half-up to two decimals; 100 when nothing is recorded
// INVARIANT: Days covered by approved requests never count as present
func ExecuteCheckLeaveEligibility(ctx context.Context, input EligibilityInput, deps EligibilityDeps) (attendance.Eligibility, error) {
	st, err := deps.StudentStore.GetByID(ctx, input.StudentID)
	if err != nil {
		if errors.Is(err, student.ErrNotFound) {
			return attendance.Eligibility{}, studentNotFound(input.StudentID)
		}
		return attendance.Eligibility{}, err
	}
	return checkEligibility(ctx, st, deps)
}

func checkEligibility(ctx context.Context, st student.Student, deps EligibilityDeps) (attendance.Eligibility, error) {
	today := calendar.Today(deps.Now(), deps.Location)

	terms, err := deps.TermStore.List(ctx)
	if err != nil {
		return attendance.Eligibility{}, fmt.Errorf("list terms: %w", err)
	}
	current, err := term.Current(terms, st.Batch, today)
	if errors.Is(err, term.ErrNoActiveTerm) {
		slog.Info("absence_event", "event", "eligibility_no_term", "student_id", st.ID, "batch", st.Batch)
		return attendance.Evaluate(decimal.NewFromInt(100), deps.Threshold), nil
	}
	if err != nil {
		return attendance.Eligibility{}, err
	}

	start, end := current.Elapsed(today)
	records, err := deps.AttendanceStore.ListByStudentAndDateRange(ctx, st.ID, start, end)
	if err != nil {
		return attendance.Eligibility{}, fmt.Errorf("attendance for %s: %w", st.ID, err)
	}

	approved, err := deps.RequestStore.ListByRequester(ctx, st.ID, absence.StatusApproved)
	if err != nil {
		return attendance.Eligibility{}, fmt.Errorf("approved requests for %s: %w", st.ID, err)
	}
	excused := calendar.NewHolidaySet()
	for _, r := range approved {
		excused.AddRange(r.StartDate, r.EndDate)
	}

	return attendance.Evaluate(attendance.Percentage(records, excused), deps.Threshold), nil
}

func studentNotFound(id string) *absence.Error {
	return &absence.Error{Kind: absence.KindNotFound, Code: "student_not_found", Message: fmt.Sprintf("student %s not found", id)}
}
