package orchestrators

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"campus/internal/domain/calendar"
	"campus/internal/domain/exam"
	"campus/internal/domain/holiday"
	"campus/internal/domain/term"
)

// HolidayStoreForCreate defines the store interface needed by AddHoliday.
type HolidayStoreForCreate interface {
	Save(ctx context.Context, h holiday.Holiday) error
}

// TermStoreForCreate defines the store interface needed by AddTerm.
type TermStoreForCreate interface {
	Save(ctx context.Context, t term.Term) error
}

// ExamStoreForCreate defines the store interface needed by ScheduleExam.
type ExamStoreForCreate interface {
	Save(ctx context.Context, e exam.Exam) error
}

// CalendarDeps holds dependencies for maintaining the academic calendar.
type CalendarDeps struct {
	HolidayStore HolidayStoreForCreate
	TermStore    TermStoreForCreate
	ExamStore    ExamStoreForCreate
	GenerateID   func() string
}

// ExecuteAddHoliday records a holiday range for a batch (empty batch: everyone).
// PRE: Name is non-empty, StartDate <= EndDate
// POST: Holiday persisted; later submissions exclude its dates
// INVARIANT: Working days of existing requests are not recomputed
func ExecuteAddHoliday(ctx context.Context, h holiday.Holiday, deps CalendarDeps) (holiday.Holiday, error) {
	h.ID = deps.GenerateID()
	h.Name = strings.TrimSpace(h.Name)
	h.Batch = strings.TrimSpace(h.Batch)
	h.StartDate = calendar.DateOf(h.StartDate)
	h.EndDate = calendar.DateOf(h.EndDate)
	if err := h.Validate(); err != nil {
		return holiday.Holiday{}, err
	}
	if err := deps.HolidayStore.Save(ctx, h); err != nil {
		return holiday.Holiday{}, err
	}
	slog.Info("calendar_event", "event", "holiday_added", "holiday_id", h.ID, "batch", h.Batch,
		"start", h.StartDate.Format(calendar.DateLayout), "end", h.EndDate.Format(calendar.DateLayout))
	return h, nil
}

// ExecuteAddTerm records an academic term.
// PRE: Name is non-empty, StartDate < EndDate
// POST: Term persisted
func ExecuteAddTerm(ctx context.Context, t term.Term, deps CalendarDeps) (term.Term, error) {
	t.ID = deps.GenerateID()
	t.Name = strings.TrimSpace(t.Name)
	t.Batch = strings.TrimSpace(t.Batch)
	t.StartDate = calendar.DateOf(t.StartDate)
	t.EndDate = calendar.DateOf(t.EndDate)
	if err := t.Validate(); err != nil {
		return term.Term{}, err
	}
	if err := deps.TermStore.Save(ctx, t); err != nil {
		return term.Term{}, err
	}
	slog.Info("calendar_event", "event", "term_added", "term_id", t.ID, "batch", t.Batch)
	return t, nil
}

// ExecuteScheduleExam records an exam for a section.
// PRE: Section and Subject are non-empty
// POST: Exam persisted; submissions covering its date are refused
func ExecuteScheduleExam(ctx context.Context, e exam.Exam, deps CalendarDeps) (exam.Exam, error) {
	e.ID = deps.GenerateID()
	e.Section = strings.ToUpper(strings.TrimSpace(e.Section))
	e.Subject = strings.TrimSpace(e.Subject)
	e.Date = calendar.DateOf(e.Date)
	if err := e.Validate(); err != nil {
		return exam.Exam{}, err
	}
	if err := deps.ExamStore.Save(ctx, e); err != nil {
		return exam.Exam{}, err
	}
	slog.Info("calendar_event", "event", "exam_scheduled", "exam_id", e.ID, "section", e.Section,
		"date", e.Date.Format(calendar.DateLayout))
	return e, nil
}

// dateOnly is shared by orchestrators that accept wall-clock input.
func dateOnly(t time.Time) time.Time { return calendar.DateOf(t) }
