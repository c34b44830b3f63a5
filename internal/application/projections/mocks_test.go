package projections

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	absenceStore "campus/internal/adapters/storage/absence"
	"campus/internal/domain/absence"
	domainStudent "campus/internal/domain/student"
)

var fixedTime = time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)

func fixedNow() time.Time { return fixedTime }

func nov(day int) time.Time { return time.Date(2026, 11, day, 0, 0, 0, 0, time.UTC) }

// mockRequestStore applies Filter in memory the way the SQLite store does.
type mockRequestStore struct {
	requests []absence.Request
	filters  []absenceStore.Filter
}

func (m *mockRequestStore) GetByID(_ context.Context, id string) (absence.Request, error) {
	for _, r := range m.requests {
		if r.ID == id {
			return r, nil
		}
	}
	return absence.Request{}, absence.NotFound(id)
}

func (m *mockRequestStore) List(_ context.Context, f absenceStore.Filter) ([]absence.Request, int, error) {
	m.filters = append(m.filters, f)
	var out []absence.Request
	for _, r := range m.requests {
		if f.RequesterID != "" && r.RequesterID != f.RequesterID {
			continue
		}
		if len(f.Sections) > 0 && !has(f.Sections, r.Section) {
			continue
		}
		if len(f.Statuses) > 0 && !has(f.Statuses, r.Status) {
			continue
		}
		if f.Kind != "" && r.Kind != f.Kind {
			continue
		}
		if !f.From.IsZero() && r.EndDate.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && r.StartDate.After(f.To) {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if f.Desc {
			return out[i].StartDate.After(out[j].StartDate)
		}
		return out[i].StartDate.Before(out[j].StartDate)
	})
	total := len(out)
	if f.Limit > 0 {
		if f.Offset >= len(out) {
			return nil, total, nil
		}
		end := f.Offset + f.Limit
		if end > len(out) {
			end = len(out)
		}
		out = out[f.Offset:end]
	}
	return out, total, nil
}

type mockStudentStore struct {
	students map[string]domainStudent.Student
}

func (m *mockStudentStore) GetByID(_ context.Context, id string) (domainStudent.Student, error) {
	s, ok := m.students[id]
	if !ok {
		return domainStudent.Student{}, domainStudent.ErrNotFound
	}
	return s, nil
}

func has(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func request(id, requester, section, status string, start time.Time, days int64) absence.Request {
	return absence.Request{
		ID:          id,
		Kind:        absence.KindLeave,
		RequesterID: requester,
		Section:     section,
		Batch:       "2024",
		Category:    "Casual Leave",
		StartDate:   start,
		EndDate:     start.AddDate(0, 0, int(days)-1),
		Duration:    absence.DurationFullDay,
		WorkingDays: decimal.NewFromInt(days),
		Reason:      "family function",
		Status:      status,
		Version:     1,
		CreatedAt:   fixedTime,
		UpdatedAt:   fixedTime,
	}
}

var (
	studentActor = absence.Actor{ID: "stu-1", Role: absence.RoleStudent}
	tutorActor   = absence.Actor{ID: "tut-1", Role: absence.RoleTutor, Sections: []string{"cse-a"}}
	adminActor   = absence.Actor{ID: "adm-1", Role: absence.RoleAdmin}
)

// seededRequests spans two sections, three students and several statuses.
func seededRequests() *mockRequestStore {
	cancelByTutor := request("r5", "stu-2", "CSE-A", absence.StatusCancelRequested, nov(24), 1)
	cancelByTutor.CancelledFrom = absence.StatusApproved
	cancelByTutor.DecisionRole = absence.RoleTutor
	cancelByAdmin := request("r6", "stu-2", "CSE-A", absence.StatusCancelRequested, nov(26), 3)
	cancelByAdmin.CancelledFrom = absence.StatusApproved
	cancelByAdmin.DecisionRole = absence.RoleAdmin
	cancelByAdmin.ForwardedBy = "tut-1"
	od := request("r7", "stu-1", "CSE-A", absence.StatusPending, nov(30), 1)
	od.Kind = absence.KindOnDuty
	od.ProofURL = "https://files.example.edu/od.pdf"
	return &mockRequestStore{requests: []absence.Request{
		request("r1", "stu-1", "CSE-A", absence.StatusPending, nov(3), 1),
		request("r2", "stu-1", "CSE-A", absence.StatusApproved, nov(10), 2),
		request("r3", "stu-2", "CSE-A", absence.StatusPendingAdmin, nov(12), 3),
		request("r4", "stu-3", "ECE-B", absence.StatusPending, nov(17), 1),
		cancelByTutor,
		cancelByAdmin,
		od,
	}}
}

func seededStudents() *mockStudentStore {
	return &mockStudentStore{students: map[string]domainStudent.Student{
		"stu-1": {ID: "stu-1", Name: "Asha Raman", Section: "CSE-A", Batch: "2024"},
		"stu-2": {ID: "stu-2", Name: "Vikram Das", Section: "CSE-A", Batch: "2024"},
	}}
}
