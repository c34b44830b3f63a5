package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"campus/internal/domain/absence"
	"campus/internal/domain/attendance"
	"campus/internal/domain/calendar"
	"campus/internal/domain/student"
)

// AttendanceStoreForRecord defines the store interface needed by RecordAttendance.
type AttendanceStoreForRecord interface {
	Save(ctx context.Context, r attendance.Record) error
}

// RecordAttendanceInput carries one day's marks for a section roster.
type RecordAttendanceInput struct {
	Actor absence.Actor
	Date  time.Time
	Marks map[string]string // student ID -> status
}

// RecordAttendanceDeps holds dependencies for RecordAttendance.
type RecordAttendanceDeps struct {
	AttendanceStore AttendanceStoreForRecord
	StudentStore    StudentLookup
	Location        *time.Location
	Now             func() time.Time
	GenerateID      func() string
}

// ExecuteRecordAttendance stores daily marks. Tutors may mark only their own sections.
// PRE: Actor is a tutor or admin; Date is not in the future
// POST: Nothing is written unless every mark is valid; a repeated mark replaces the earlier one
func ExecuteRecordAttendance(ctx context.Context, input RecordAttendanceInput, deps RecordAttendanceDeps) (int, error) {
	if input.Actor.Role != absence.RoleTutor && input.Actor.Role != absence.RoleAdmin {
		return 0, absence.Deniedf(absence.ErrTransitionDenied.Code, "%s may not record attendance", input.Actor.Role)
	}
	day := dateOnly(input.Date)
	if day.After(calendar.Today(deps.Now(), deps.Location)) {
		return 0, absence.Validationf("future_attendance", "attendance cannot be recorded for %s yet", day.Format(calendar.DateLayout))
	}

	records := make([]attendance.Record, 0, len(input.Marks))
	for studentID, status := range input.Marks {
		st, err := deps.StudentStore.GetByID(ctx, studentID)
		if errors.Is(err, student.ErrNotFound) {
			return 0, studentNotFound(studentID)
		}
		if err != nil {
			return 0, err
		}
		if input.Actor.Role == absence.RoleTutor && !input.Actor.InSection(st.Section) {
			return 0, absence.Deniedf(absence.ErrOutsideScope.Code, "section %s is not assigned to this tutor", st.Section)
		}
		rec := attendance.Record{ID: deps.GenerateID(), StudentID: st.ID, Date: day, Status: status}
		if err := rec.Validate(); err != nil {
			return 0, absence.Validationf("invalid_attendance", "%s: %v", studentID, err)
		}
		records = append(records, rec)
	}

	saved := 0
	for _, rec := range records {
		if err := deps.AttendanceStore.Save(ctx, rec); err != nil {
			return saved, err
		}
		saved++
	}

	slog.Info("attendance_event", "event", "attendance_recorded", "actor_id", input.Actor.ID,
		"date", day.Format(calendar.DateLayout), "count", saved)
	return saved, nil
}
