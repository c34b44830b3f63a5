package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"campus/internal/domain/absence"
	"campus/internal/domain/calendar"
	"campus/internal/domain/holiday"
	"campus/internal/domain/student"
)

// RequestStoreForSubmit defines the store interface needed by SubmitRequest.
type RequestStoreForSubmit interface {
	OverlapLister
	RequesterLister
	CreateIfNoOverlap(ctx context.Context, req absence.Request) error
}

// HolidayLister returns the holidays that apply to a batch.
type HolidayLister interface {
	ListForBatch(ctx context.Context, batch string) ([]holiday.Holiday, error)
}

// SubmitRequestInput carries a student's Leave or OD submission.
type SubmitRequestInput struct {
	RequesterID  string
	Kind         string
	Category     string
	StartDate    time.Time
	EndDate      time.Time
	Duration     string
	Reason       string
	PlaceToVisit string
	ProofURL     string
}

// SubmitRequestDeps holds dependencies for SubmitRequest.
type SubmitRequestDeps struct {
	RequestStore    RequestStoreForSubmit
	StudentStore    StudentLookup
	HolidayStore    HolidayLister
	ExamStore       ExamLister
	TermStore       TermLister
	AttendanceStore AttendanceLister
	Notifier        Notifier
	RestDay         time.Weekday
	Threshold       decimal.Decimal
	Location        *time.Location
	Now             func() time.Time
	GenerateID      func() string
}

// ExecuteSubmitRequest runs a submission through the calendar, attendance and
// conflict gates and stores it as pending.
// PRE: RequesterID is the authenticated student
// POST: A pending request is stored, or a typed *absence.Error is returned with nothing stored
// INVARIANT: At most one active request per requester covers any date
func ExecuteSubmitRequest(ctx context.Context, input SubmitRequestInput, deps SubmitRequestDeps) (absence.Request, error) {
	now := deps.Now()
	req := absence.Request{
		Kind:         input.Kind,
		RequesterID:  input.RequesterID,
		Category:     strings.TrimSpace(input.Category),
		StartDate:    calendar.DateOf(input.StartDate),
		EndDate:      calendar.DateOf(input.EndDate),
		Duration:     input.Duration,
		Reason:       strings.TrimSpace(input.Reason),
		PlaceToVisit: strings.TrimSpace(input.PlaceToVisit),
		ProofURL:     strings.TrimSpace(input.ProofURL),
	}
	if req.Duration == "" {
		req.Duration = absence.DurationFullDay
	}
	if err := req.Validate(); err != nil {
		return absence.Request{}, err
	}
	today := calendar.Today(now, deps.Location)
	if req.StartDate.Before(today) {
		return absence.Request{}, absence.Validationf(absence.ErrStartInPast.Code, "start date %s is before today", req.StartDate.Format(calendar.DateLayout))
	}

	st, err := deps.StudentStore.GetByID(ctx, req.RequesterID)
	if err != nil {
		if errors.Is(err, student.ErrNotFound) {
			return absence.Request{}, studentNotFound(req.RequesterID)
		}
		return absence.Request{}, err
	}
	req.Section = st.Section
	req.Batch = st.Batch

	days, err := countWorkingDays(ctx, req, deps)
	if err != nil {
		return absence.Request{}, err
	}
	req.WorkingDays = days

	if req.NeedsAttendanceGate() {
		elig, err := checkEligibility(ctx, st, EligibilityDeps{
			TermStore:       deps.TermStore,
			AttendanceStore: deps.AttendanceStore,
			RequestStore:    deps.RequestStore,
			Threshold:       deps.Threshold,
			Location:        deps.Location,
			Now:             deps.Now,
		})
		if err != nil {
			return absence.Request{}, err
		}
		if !elig.Allowed {
			slog.Info("absence_event", "event", "submission_ineligible", "student_id", st.ID, "percentage", elig.Percentage.String())
			return absence.Request{}, absence.Ineligible(elig.Percentage, elig.Threshold)
		}
	}

	conflict, existing, err := HasConflict(ctx, st.ID, req.StartDate, req.EndDate, ConflictDeps{RequestStore: deps.RequestStore})
	if err != nil {
		return absence.Request{}, err
	}
	if conflict {
		return absence.Request{}, absence.Overlapping(existing)
	}
	exams, err := examConflictForSection(ctx, st.Section, req.StartDate, req.EndDate, deps.ExamStore)
	if err != nil {
		return absence.Request{}, err
	}
	if exams.HasExams {
		return absence.Request{}, absence.ExamClash(exams.ExamDates)
	}

	req.ID = deps.GenerateID()
	req.Status = absence.StatusPending
	req.Version = 1
	req.CreatedAt = now
	req.UpdatedAt = now
	if err := deps.RequestStore.CreateIfNoOverlap(ctx, req); err != nil {
		return absence.Request{}, err
	}

	slog.Info("absence_event", "event", absence.EventSubmitted, "request_id", req.ID, "kind", req.Kind,
		"student_id", req.RequesterID, "working_days", req.WorkingDays.String())
	if deps.Notifier != nil {
		deps.Notifier.Notify(ctx, absence.EventSubmitted, req)
	}
	return req, nil
}

// countWorkingDays applies the calendar gate to a submission.
func countWorkingDays(ctx context.Context, req absence.Request, deps SubmitRequestDeps) (decimal.Decimal, error) {
	holidays, err := deps.HolidayStore.ListForBatch(ctx, req.Batch)
	if err != nil {
		return decimal.Zero, fmt.Errorf("holidays for batch %s: %w", req.Batch, err)
	}
	days, err := calendar.RequestDays(req.StartDate, req.EndDate, req.IsHalfDay(), deps.RestDay, holiday.BuildSet(holidays, req.Batch))
	switch {
	case errors.Is(err, calendar.ErrInvalidRange):
		return decimal.Zero, absence.ErrInvalidDateRange
	case errors.Is(err, calendar.ErrHalfDaySpan):
		return decimal.Zero, absence.Validationf(absence.ErrHalfDayMultipleDay.Code, "a half-day request must start and end on the same date")
	case err != nil:
		return decimal.Zero, err
	}
	if days.IsZero() {
		return decimal.Zero, absence.Validationf(absence.ErrNoWorkingDays.Code, "no working days between %s and %s",
			req.StartDate.Format(calendar.DateLayout), req.EndDate.Format(calendar.DateLayout))
	}
	return days, nil
}
