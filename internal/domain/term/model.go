package term

import (
	"errors"
	"strings"
	"time"

	"campus/internal/domain/calendar"
)

// Domain errors
var (
	ErrEmptyName      = errors.New("term name cannot be empty")
	ErrInvalidDates   = errors.New("start date must be before end date")
	ErrEmptyStartDate = errors.New("start date cannot be zero")
	ErrEmptyEndDate   = errors.New("end date cannot be zero")
	ErrNoActiveTerm   = errors.New("no academic term is active")
)

// Term is an academic term for a batch. An empty Batch applies to every batch.
type Term struct {
	ID        string
	Name      string
	Batch     string
	StartDate time.Time
	EndDate   time.Time
}

// Validate checks if the Term has valid data.
// PRE: Term struct is populated
// POST: Returns nil if valid, error otherwise
func (t *Term) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return ErrEmptyName
	}
	if t.StartDate.IsZero() {
		return ErrEmptyStartDate
	}
	if t.EndDate.IsZero() {
		return ErrEmptyEndDate
	}
	if !t.StartDate.Before(t.EndDate) {
		return ErrInvalidDates
	}
	return nil
}

// Contains returns true if the given date falls within this term.
// INVARIANT: Term fields are not mutated
func (t *Term) Contains(date time.Time) bool {
	return calendar.Overlaps(t.StartDate, t.EndDate, date, date)
}

// Current picks the term covering today for batch. A batch-specific term
// wins over an institution-wide one.
// POST: Returns ErrNoActiveTerm when none applies
func Current(terms []Term, batch string, today time.Time) (Term, error) {
	var fallback *Term
	for i := range terms {
		t := &terms[i]
		if !t.Contains(today) {
			continue
		}
		if t.Batch != "" && strings.EqualFold(t.Batch, batch) {
			return *t, nil
		}
		if t.Batch == "" && fallback == nil {
			fallback = t
		}
	}
	if fallback != nil {
		return *fallback, nil
	}
	return Term{}, ErrNoActiveTerm
}

// Elapsed returns the range of the term up to and including today.
// POST: end is the earlier of today and EndDate
func (t *Term) Elapsed(today time.Time) (start, end time.Time) {
	end = calendar.DateOf(t.EndDate)
	if today.Before(end) {
		end = calendar.DateOf(today)
	}
	return calendar.DateOf(t.StartDate), end
}
