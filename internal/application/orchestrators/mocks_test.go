package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	emailAdapter "campus/internal/adapters/email"
	"campus/internal/domain/absence"
	"campus/internal/domain/account"
	"campus/internal/domain/attendance"
	"campus/internal/domain/calendar"
	"campus/internal/domain/exam"
	"campus/internal/domain/holiday"
	"campus/internal/domain/outbox"
	"campus/internal/domain/student"
	"campus/internal/domain/term"
)

var fixedTime = time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)

func fixedNow() time.Time { return fixedTime }

// sequentialIDs returns a generator yielding id-01, id-02, ...
func sequentialIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("id-%02d", n)
	}
}

func nov(day int) time.Time { return time.Date(2026, 11, day, 0, 0, 0, 0, time.UTC) }

// mockRequestStore is an in-memory absence store. The overlap check and insert
// share one lock so concurrent submissions behave like the SQLite transaction.
type mockRequestStore struct {
	mu       sync.Mutex
	requests map[string]absence.Request
	getErr   error
}

func newMockRequestStore(reqs ...absence.Request) *mockRequestStore {
	m := &mockRequestStore{requests: make(map[string]absence.Request)}
	for _, r := range reqs {
		m.requests[r.ID] = r
	}
	return m
}

// GetByID implements RequestStoreForTransition.
func (m *mockRequestStore) GetByID(_ context.Context, id string) (absence.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return absence.Request{}, m.getErr
	}
	r, ok := m.requests[id]
	if !ok {
		return absence.Request{}, absence.NotFound(id)
	}
	return r, nil
}

// ListByRequester implements RequesterLister.
func (m *mockRequestStore) ListByRequester(_ context.Context, requesterID string, statuses ...string) ([]absence.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []absence.Request
	for _, r := range m.requests {
		if r.RequesterID != requesterID {
			continue
		}
		if len(statuses) > 0 && !contains(statuses, r.Status) {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out, nil
}

// ListActiveOverlapping implements OverlapLister.
func (m *mockRequestStore) ListActiveOverlapping(_ context.Context, requesterID string, start, end time.Time) ([]absence.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.overlapping(requesterID, start, end), nil
}

func (m *mockRequestStore) overlapping(requesterID string, start, end time.Time) []absence.Request {
	var out []absence.Request
	for _, r := range m.requests {
		if r.RequesterID == requesterID && r.IsActive() && calendar.Overlaps(r.StartDate, r.EndDate, start, end) {
			out = append(out, r)
		}
	}
	return out
}

// CreateIfNoOverlap implements RequestStoreForSubmit.
func (m *mockRequestStore) CreateIfNoOverlap(_ context.Context, req absence.Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing := m.overlapping(req.RequesterID, req.StartDate, req.EndDate); len(existing) > 0 {
		return absence.Overlapping(existing)
	}
	m.requests[req.ID] = req
	return nil
}

// UpdateIfStatus implements RequestStoreForTransition.
func (m *mockRequestStore) UpdateIfStatus(_ context.Context, req absence.Request, expectedStatus string, expectedVersion int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.requests[req.ID]
	if !ok {
		return absence.NotFound(req.ID)
	}
	if cur.Status != expectedStatus || cur.Version != expectedVersion {
		return absence.Stale(req.ID)
	}
	if req.IsActive() && !absence.IsActiveStatus(expectedStatus) {
		var others []absence.Request
		for _, r := range m.overlapping(req.RequesterID, req.StartDate, req.EndDate) {
			if r.ID != req.ID {
				others = append(others, r)
			}
		}
		if len(others) > 0 {
			return absence.Overlapping(others)
		}
	}
	m.requests[req.ID] = req
	return nil
}

func (m *mockRequestStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// mockStudentStore implements StudentLookup and the directory writers.
type mockStudentStore struct {
	students map[string]student.Student
	saveErr  error
}

func newMockStudentStore(students ...student.Student) *mockStudentStore {
	m := &mockStudentStore{students: make(map[string]student.Student)}
	for _, s := range students {
		m.students[s.ID] = s
	}
	return m
}

func (m *mockStudentStore) GetByID(_ context.Context, id string) (student.Student, error) {
	s, ok := m.students[id]
	if !ok {
		return student.Student{}, student.ErrNotFound
	}
	return s, nil
}

func (m *mockStudentStore) Save(_ context.Context, s student.Student) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.students[s.ID] = s
	return nil
}

// mockCalendarStore serves holidays, terms and exams.
type mockCalendarStore struct {
	holidays []holiday.Holiday
	terms    []term.Term
	exams    []exam.Exam
}

func (m *mockCalendarStore) ListForBatch(_ context.Context, batch string) ([]holiday.Holiday, error) {
	var out []holiday.Holiday
	for _, h := range m.holidays {
		if h.AppliesTo(batch) {
			out = append(out, h)
		}
	}
	return out, nil
}

func (m *mockCalendarStore) List(_ context.Context) ([]term.Term, error) {
	return m.terms, nil
}

func (m *mockCalendarStore) ListBySectionInRange(_ context.Context, section string, start, end time.Time) ([]exam.Exam, error) {
	var out []exam.Exam
	for _, e := range m.exams {
		if strings.EqualFold(e.Section, section) && !e.Date.Before(start) && !e.Date.After(end) {
			out = append(out, e)
		}
	}
	return out, nil
}

// mockAttendanceStore implements AttendanceLister and AttendanceStoreForRecord.
type mockAttendanceStore struct {
	records []attendance.Record
}

func (m *mockAttendanceStore) ListByStudentAndDateRange(_ context.Context, studentID string, start, end time.Time) ([]attendance.Record, error) {
	var out []attendance.Record
	for _, r := range m.records {
		if r.StudentID == studentID && !r.Date.Before(start) && !r.Date.After(end) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockAttendanceStore) Save(_ context.Context, r attendance.Record) error {
	for i, existing := range m.records {
		if existing.StudentID == r.StudentID && existing.Date.Equal(r.Date) {
			m.records[i].Status = r.Status
			return nil
		}
	}
	m.records = append(m.records, r)
	return nil
}

// mockAccountStore implements the account store interfaces.
type mockAccountStore struct {
	byID    map[string]account.Account
	saveErr error
}

func newMockAccountStore(accts ...account.Account) *mockAccountStore {
	m := &mockAccountStore{byID: make(map[string]account.Account)}
	for _, a := range accts {
		m.byID[a.ID] = a
	}
	return m
}

func (m *mockAccountStore) GetByID(_ context.Context, id string) (account.Account, error) {
	a, ok := m.byID[id]
	if !ok {
		return account.Account{}, account.ErrNotFound
	}
	return a, nil
}

func (m *mockAccountStore) GetByEmail(_ context.Context, email string) (account.Account, error) {
	for _, a := range m.byID {
		if strings.EqualFold(a.Email, email) {
			return a, nil
		}
	}
	return account.Account{}, account.ErrNotFound
}

func (m *mockAccountStore) Save(_ context.Context, a account.Account) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.byID[a.ID] = a
	return nil
}

func (m *mockAccountStore) Count(_ context.Context) (int, error) {
	return len(m.byID), nil
}

func (m *mockAccountStore) ListByRole(_ context.Context, role string) ([]account.Account, error) {
	var out []account.Account
	for _, a := range m.byID {
		if a.Role == role {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (m *mockAccountStore) ListTutorsForSection(_ context.Context, section string) ([]account.Account, error) {
	var out []account.Account
	for _, a := range m.byID {
		if a.Role == account.RoleTutor && contains(a.Sections, section) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

// mockOutboxStore implements OutboxStoreForProcessor.
type mockOutboxStore struct {
	entries map[string]outbox.Entry
}

func newMockOutboxStore(entries ...outbox.Entry) *mockOutboxStore {
	m := &mockOutboxStore{entries: make(map[string]outbox.Entry)}
	for _, e := range entries {
		m.entries[e.ID] = e
	}
	return m
}

func (m *mockOutboxStore) GetByID(_ context.Context, id string) (outbox.Entry, error) {
	e, ok := m.entries[id]
	if !ok {
		return outbox.Entry{}, outbox.ErrNotFound
	}
	return e, nil
}

func (m *mockOutboxStore) Save(ctx context.Context, e outbox.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.entries[e.ID] = e
	return nil
}

func (m *mockOutboxStore) ListPending(_ context.Context, limit int) ([]outbox.Entry, error) {
	var out []outbox.Entry
	for _, e := range m.entries {
		if e.Status == outbox.StatusPending || e.Status == outbox.StatusRetrying {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// recordingNotifier captures published events.
type recordingNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *recordingNotifier) Notify(_ context.Context, event string, _ absence.Request) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

// fakeSender records sends and fails while err is set.
type fakeSender struct {
	mu   sync.Mutex
	sent []emailAdapter.SendRequest
	err  error
}

func (s *fakeSender) Send(ctx context.Context, req emailAdapter.SendRequest) (emailAdapter.SendResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return emailAdapter.SendResult{}, err
	}
	if s.err != nil {
		return emailAdapter.SendResult{}, s.err
	}
	s.sent = append(s.sent, req)
	return emailAdapter.SendResult{MessageID: "msg-" + req.Subject, SentAt: fixedTime}, nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if strings.EqualFold(s, v) {
			return true
		}
	}
	return false
}

var errStoreDown = errors.New("store unavailable")
