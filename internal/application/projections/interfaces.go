package projections

import (
	"context"

	absenceStore "campus/internal/adapters/storage/absence"
	domainAbsence "campus/internal/domain/absence"
	domainExam "campus/internal/domain/exam"
	domainHoliday "campus/internal/domain/holiday"
	domainOutbox "campus/internal/domain/outbox"
	domainStudent "campus/internal/domain/student"
	domainTerm "campus/internal/domain/term"
)

// RequestStore interface for request queries.
type RequestStore interface {
	GetByID(ctx context.Context, id string) (domainAbsence.Request, error)
	List(ctx context.Context, f absenceStore.Filter) ([]domainAbsence.Request, int, error)
}

// StudentStore interface for student lookups.
type StudentStore interface {
	GetByID(ctx context.Context, id string) (domainStudent.Student, error)
}

// HolidayStore interface for holiday queries.
type HolidayStore interface {
	List(ctx context.Context) ([]domainHoliday.Holiday, error)
}

// TermStore interface for academic term queries.
type TermStore interface {
	List(ctx context.Context) ([]domainTerm.Term, error)
}

// ExamStore interface for exam queries.
type ExamStore interface {
	List(ctx context.Context) ([]domainExam.Exam, error)
}

// OutboxStore interface for outbox queries.
type OutboxStore interface {
	ListPending(ctx context.Context, limit int) ([]domainOutbox.Entry, error)
	ListFailed(ctx context.Context, limit int) ([]domainOutbox.Entry, error)
}
