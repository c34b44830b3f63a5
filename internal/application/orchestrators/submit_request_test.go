package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"campus/internal/domain/absence"
	"campus/internal/domain/attendance"
	"campus/internal/domain/exam"
	"campus/internal/domain/holiday"
	"campus/internal/domain/student"
	"campus/internal/domain/term"
)

// septemberMarks returns ten instructional days with the given number present.
func septemberMarks(studentID string, present int) []attendance.Record {
	var out []attendance.Record
	for i := 0; i < 10; i++ {
		status := attendance.StatusAbsent
		if i < present {
			status = attendance.StatusPresent
		}
		out = append(out, attendance.Record{
			ID:        fmt.Sprintf("%s-%d", studentID, i),
			StudentID: studentID,
			Date:      time.Date(2026, 9, 1+i, 0, 0, 0, 0, time.UTC),
			Status:    status,
		})
	}
	return out
}

type submitFixture struct {
	store    *mockRequestStore
	calendar *mockCalendarStore
	notifier *recordingNotifier
	deps     SubmitRequestDeps
}

func newSubmitFixture(existing ...absence.Request) *submitFixture {
	store := newMockRequestStore(existing...)
	cal := &mockCalendarStore{
		terms: []term.Term{{ID: "t1", Name: "Odd 2026", Batch: "2024",
			StartDate: time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC), EndDate: time.Date(2026, 11, 30, 0, 0, 0, 0, time.UTC)}},
		holidays: []holiday.Holiday{{ID: "h1", Name: "Deepavali", StartDate: nov(9), EndDate: nov(9)}},
		exams:    []exam.Exam{{ID: "e1", Section: "CSE-A", Subject: "Compilers", Date: nov(20)}},
	}
	marks := append(septemberMarks("stu-1", 9), septemberMarks("stu-2", 7)...)
	notifier := &recordingNotifier{}
	return &submitFixture{
		store:    store,
		calendar: cal,
		notifier: notifier,
		deps: SubmitRequestDeps{
			RequestStore: store,
			StudentStore: newMockStudentStore(
				student.Student{ID: "stu-1", Name: "Anika", Email: "anika@college.edu", Section: "CSE-A", Batch: "2024"},
				student.Student{ID: "stu-2", Name: "Rahul", Email: "rahul@college.edu", Section: "CSE-A", Batch: "2024"},
			),
			HolidayStore:    cal,
			ExamStore:       cal,
			TermStore:       cal,
			AttendanceStore: &mockAttendanceStore{records: marks},
			Notifier:        notifier,
			RestDay:         time.Sunday,
			Threshold:       attendance.DefaultThreshold,
			Location:        time.UTC,
			Now:             fixedNow,
			GenerateID:      sequentialIDs(),
		},
	}
}

func casualLeave(studentID string, start, end time.Time) SubmitRequestInput {
	return SubmitRequestInput{
		RequesterID: studentID,
		Kind:        absence.KindLeave,
		Category:    "Casual Leave",
		StartDate:   start,
		EndDate:     end,
		Reason:      "family function",
	}
}

// TestExecuteSubmitRequest covers every gate a submission passes through.
func TestExecuteSubmitRequest(t *testing.T) {
	tests := []struct {
		name     string
		input    SubmitRequestInput
		wantErr  error
		wantDays string
	}{
		{"casual leave with good attendance", casualLeave("stu-1", nov(2), nov(3)), nil, "2"},
		{"holiday excluded from count", casualLeave("stu-1", nov(7), nov(10)), nil, "2"},
		{"half day on a single date", func() SubmitRequestInput {
			in := casualLeave("stu-1", nov(4), nov(4))
			in.Duration = absence.DurationHalfDayMorning
			return in
		}(), nil, "0.5"},
		{"on-duty bypasses attendance", SubmitRequestInput{
			RequesterID: "stu-2", Kind: absence.KindOnDuty, StartDate: nov(2), EndDate: nov(4),
			Reason: "symposium", PlaceToVisit: "IIT Madras", ProofURL: "https://files/invite.pdf",
		}, nil, "3"},
		{"medical leave bypasses attendance", func() SubmitRequestInput {
			in := casualLeave("stu-2", nov(2), nov(2))
			in.Category = "Medical"
			return in
		}(), nil, "1"},
		{"on-duty without proof", SubmitRequestInput{
			RequesterID: "stu-1", Kind: absence.KindOnDuty, StartDate: nov(2), EndDate: nov(2), Reason: "hackathon",
		}, absence.ErrMissingProof, ""},
		{"start before today", casualLeave("stu-1", time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC), nov(2)), absence.ErrStartInPast, ""},
		{"end before start", casualLeave("stu-1", nov(3), nov(2)), absence.ErrInvalidDateRange, ""},
		{"half day across two dates", func() SubmitRequestInput {
			in := casualLeave("stu-1", nov(2), nov(3))
			in.Duration = absence.DurationHalfDayAfternoon
			return in
		}(), absence.ErrHalfDayMultipleDay, ""},
		{"only the rest day", casualLeave("stu-1", nov(1), nov(1)), absence.ErrNoWorkingDays, ""},
		{"casual leave with low attendance", casualLeave("stu-2", nov(2), nov(2)), absence.ErrAttendanceTooLow, ""},
		{"exam inside the range", casualLeave("stu-1", nov(19), nov(21)), absence.ErrExamConflict, ""},
		{"unknown student", casualLeave("stu-9", nov(2), nov(2)), absence.ErrNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newSubmitFixture()
			req, err := ExecuteSubmitRequest(context.Background(), tt.input, fx.deps)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				if fx.store.count() != 0 {
					t.Errorf("a refused submission must not be stored")
				}
				if len(fx.notifier.events) != 0 {
					t.Errorf("unexpected events %v", fx.notifier.events)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if req.Status != absence.StatusPending || req.Version != 1 {
				t.Errorf("status/version = %s/%d, want pending/1", req.Status, req.Version)
			}
			if !req.WorkingDays.Equal(decimal.RequireFromString(tt.wantDays)) {
				t.Errorf("WorkingDays = %s, want %s", req.WorkingDays, tt.wantDays)
			}
			if req.Section != "CSE-A" || req.Batch != "2024" {
				t.Errorf("allocation snapshot = %s/%s", req.Section, req.Batch)
			}
			if _, err := fx.store.GetByID(context.Background(), req.ID); err != nil {
				t.Errorf("request not stored: %v", err)
			}
			if len(fx.notifier.events) != 1 || fx.notifier.events[0] != absence.EventSubmitted {
				t.Errorf("events = %v, want [submitted]", fx.notifier.events)
			}
		})
	}
}

// TestExecuteSubmitRequest_IneligibleCarriesPercentage tests the exact figure on the error.
func TestExecuteSubmitRequest_IneligibleCarriesPercentage(t *testing.T) {
	fx := newSubmitFixture()
	_, err := ExecuteSubmitRequest(context.Background(), casualLeave("stu-2", nov(2), nov(2)), fx.deps)

	var aerr *absence.Error
	if !errors.As(err, &aerr) || aerr.Kind != absence.KindEligibility {
		t.Fatalf("err = %v, want eligibility error", err)
	}
	if aerr.Percentage == nil || aerr.Percentage.StringFixed(2) != "70.00" {
		t.Errorf("Percentage = %v, want 70.00", aerr.Percentage)
	}
	if aerr.Threshold == nil || !aerr.Threshold.Equal(decimal.NewFromInt(80)) {
		t.Errorf("Threshold = %v, want 80", aerr.Threshold)
	}
}

// TestExecuteSubmitRequest_OverlapAcrossKinds tests that leave and on-duty block each other.
func TestExecuteSubmitRequest_OverlapAcrossKinds(t *testing.T) {
	od := absence.Request{
		ID: "od-1", Kind: absence.KindOnDuty, RequesterID: "stu-1", StartDate: nov(3), EndDate: nov(5),
		Status: absence.StatusPendingAdmin, Version: 2,
	}
	fx := newSubmitFixture(od)

	_, err := ExecuteSubmitRequest(context.Background(), casualLeave("stu-1", nov(5), nov(6)), fx.deps)
	var aerr *absence.Error
	if !errors.As(err, &aerr) || aerr.Code != absence.ErrOverlap.Code {
		t.Fatalf("err = %v, want overlap conflict", err)
	}
	if len(aerr.Dates) != 2 || !aerr.Dates[0].Equal(nov(3)) || !aerr.Dates[1].Equal(nov(5)) {
		t.Errorf("conflict dates = %v", aerr.DateStrings())
	}

	// Approved and rejected requests do not block.
	fx = newSubmitFixture(absence.Request{ID: "old", RequesterID: "stu-1", StartDate: nov(5), EndDate: nov(5), Status: absence.StatusRejected})
	if _, err := ExecuteSubmitRequest(context.Background(), casualLeave("stu-1", nov(5), nov(6)), fx.deps); err != nil {
		t.Errorf("submission over a rejected request: %v", err)
	}
}

// TestExecuteSubmitRequest_ConcurrentOverlap races identical submissions.
func TestExecuteSubmitRequest_ConcurrentOverlap(t *testing.T) {
	fx := newSubmitFixture()
	fx.deps.Notifier = nil

	const workers = 12
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = ExecuteSubmitRequest(context.Background(), casualLeave("stu-1", nov(2), nov(4)), fx.deps)
		}(i)
	}
	wg.Wait()

	var ok, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, absence.ErrConflict):
			conflicts++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if ok != 1 || conflicts != workers-1 {
		t.Errorf("ok=%d conflicts=%d, want 1 and %d", ok, conflicts, workers-1)
	}
	if fx.store.count() != 1 {
		t.Errorf("stored %d requests, want 1", fx.store.count())
	}
}
