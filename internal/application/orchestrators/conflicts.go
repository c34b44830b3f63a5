package orchestrators

import (
	"context"
	"fmt"
	"time"

	"campus/internal/domain/absence"
	"campus/internal/domain/exam"
)

// OverlapLister finds a requester's active requests in a date range.
type OverlapLister interface {
	ListActiveOverlapping(ctx context.Context, requesterID string, start, end time.Time) ([]absence.Request, error)
}

// ExamLister finds a section's exams in a date range.
type ExamLister interface {
	ListBySectionInRange(ctx context.Context, section string, start, end time.Time) ([]exam.Exam, error)
}

// ConflictDeps holds dependencies for the conflict checks.
type ConflictDeps struct {
	RequestStore OverlapLister
	ExamStore    ExamLister
	StudentStore StudentLookup
}

// ExamConflictResult lists the exam days falling inside a requested range.
type ExamConflictResult struct {
	HasExams  bool
	ExamDates []time.Time
}

// HasConflict reports whether any active request of either kind intersects [start, end].
// PRE: start <= end
// POST: Returns the intersecting requests alongside the flag
func HasConflict(ctx context.Context, studentID string, start, end time.Time, deps ConflictDeps) (bool, []absence.Request, error) {
	existing, err := deps.RequestStore.ListActiveOverlapping(ctx, studentID, start, end)
	if err != nil {
		return false, nil, fmt.Errorf("overlap lookup: %w", err)
	}
	return len(existing) > 0, existing, nil
}

// ExamConflict reports exams of the student's section scheduled within [start, end].
// PRE: studentID refers to a directory entry
func ExamConflict(ctx context.Context, studentID string, start, end time.Time, deps ConflictDeps) (ExamConflictResult, error) {
	st, err := deps.StudentStore.GetByID(ctx, studentID)
	if err != nil {
		return ExamConflictResult{}, fmt.Errorf("student %s: %w", studentID, err)
	}
	return examConflictForSection(ctx, st.Section, start, end, deps.ExamStore)
}

func examConflictForSection(ctx context.Context, section string, start, end time.Time, store ExamLister) (ExamConflictResult, error) {
	exams, err := store.ListBySectionInRange(ctx, section, start, end)
	if err != nil {
		return ExamConflictResult{}, fmt.Errorf("exam lookup: %w", err)
	}
	dates := exam.Dates(exams)
	return ExamConflictResult{HasExams: len(dates) > 0, ExamDates: dates}, nil
}
