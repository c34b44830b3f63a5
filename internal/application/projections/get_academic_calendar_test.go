package projections

import (
	"context"
	"testing"
	"time"

	domainExam "campus/internal/domain/exam"
	domainHoliday "campus/internal/domain/holiday"
	domainOutbox "campus/internal/domain/outbox"
	domainTerm "campus/internal/domain/term"
)

type holidayList []domainHoliday.Holiday

func (l holidayList) List(context.Context) ([]domainHoliday.Holiday, error) { return l, nil }

type termList []domainTerm.Term

func (l termList) List(context.Context) ([]domainTerm.Term, error) { return l, nil }

type examList []domainExam.Exam

func (l examList) List(context.Context) ([]domainExam.Exam, error) { return l, nil }

func calendarDeps() GetAcademicCalendarDeps {
	return GetAcademicCalendarDeps{
		HolidayStore: holidayList{
			{ID: "h2", Name: "Founders Day", Batch: "2024", StartDate: nov(20), EndDate: nov(20)},
			{ID: "h1", Name: "Deepavali", StartDate: nov(9), EndDate: nov(10)},
			{ID: "h3", Name: "Industrial visit", Batch: "2025", StartDate: nov(5), EndDate: nov(5)},
		},
		TermStore: termList{
			{ID: "t2", Name: "Odd semester", Batch: "2025", StartDate: time.Date(2026, 7, 15, 0, 0, 0, 0, time.UTC), EndDate: nov(30)},
			{ID: "t1", Name: "Odd semester", Batch: "2024", StartDate: time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC), EndDate: nov(30)},
		},
		ExamStore: examList{
			{ID: "e2", Section: "CSE-A", Subject: "Compilers", Date: nov(21)},
			{ID: "e1", Section: "CSE-A", Subject: "Networks", Date: nov(20)},
			{ID: "e3", Section: "ECE-B", Subject: "Signals", Date: nov(19)},
		},
	}
}

// TestQueryGetHolidays verifies batch filtering keeps institution-wide holidays.
func TestQueryGetHolidays(t *testing.T) {
	all, err := QueryGetHolidays(context.Background(), GetAcademicCalendarQuery{}, calendarDeps())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 3 || all[0].ID != "h3" || all[1].ID != "h1" {
		t.Errorf("all holidays = %+v", all)
	}

	batch, err := QueryGetHolidays(context.Background(), GetAcademicCalendarQuery{Batch: "2024"}, calendarDeps())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(batch) != 2 || batch[0].ID != "h1" || batch[1].ID != "h2" {
		t.Errorf("batch 2024 holidays = %+v", batch)
	}
	if batch[0].StartDate != "2026-11-09" || batch[0].EndDate != "2026-11-10" {
		t.Errorf("dates = %s..%s", batch[0].StartDate, batch[0].EndDate)
	}
}

// TestQueryGetTermsAndExams verifies ordering and filters.
func TestQueryGetTermsAndExams(t *testing.T) {
	terms, err := QueryGetTerms(context.Background(), GetAcademicCalendarQuery{Batch: "2025"}, calendarDeps())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(terms) != 1 || terms[0].ID != "t2" {
		t.Errorf("terms = %+v", terms)
	}

	exams, err := QueryGetExams(context.Background(), GetAcademicCalendarQuery{Section: "cse-a"}, calendarDeps())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(exams) != 2 || exams[0].Subject != "Networks" || exams[1].Subject != "Compilers" {
		t.Errorf("exams = %+v", exams)
	}
}

type mockOutbox struct {
	pending, failed []domainOutbox.Entry
}

func (m *mockOutbox) ListPending(context.Context, int) ([]domainOutbox.Entry, error) { return m.pending, nil }
func (m *mockOutbox) ListFailed(context.Context, int) ([]domainOutbox.Entry, error)  { return m.failed, nil }

// TestQueryGetOutbox verifies entries are mapped without payloads.
func TestQueryGetOutbox(t *testing.T) {
	store := &mockOutbox{
		pending: []domainOutbox.Entry{{ID: "o1", ActionType: "email", Status: domainOutbox.StatusRetrying, Attempts: 1, MaxAttempts: 5, CreatedAt: fixedTime, LastAttemptedAt: fixedTime, Payload: `{"to":["a@b"]}`}},
		failed:  []domainOutbox.Entry{{ID: "o2", ActionType: "email", Status: domainOutbox.StatusFailed, Attempts: 5, MaxAttempts: 5, CreatedAt: fixedTime, ErrorMessage: "smtp: 550"}},
	}
	res, err := QueryGetOutbox(context.Background(), GetOutboxDeps{OutboxStore: store})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Pending) != 1 || res.Pending[0].LastAttemptedAt != "2026-10-15T09:30:00Z" {
		t.Errorf("pending = %+v", res.Pending)
	}
	if len(res.Failed) != 1 || res.Failed[0].ErrorMessage != "smtp: 550" || res.Failed[0].LastAttemptedAt != "" {
		t.Errorf("failed = %+v", res.Failed)
	}
}
