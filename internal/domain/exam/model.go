package exam

import (
	"errors"
	"strings"
	"time"
)

// Domain errors
var (
	ErrEmptySection = errors.New("exam section cannot be empty")
	ErrEmptySubject = errors.New("exam subject cannot be empty")
	ErrEmptyDate    = errors.New("exam date cannot be zero")
)

// Exam is a scheduled examination for a section.
type Exam struct {
	ID      string
	Section string
	Subject string
	Date    time.Time
}

// Validate checks if the Exam has valid data.
// PRE: Exam struct is populated
// POST: Returns nil if valid, error otherwise
func (e *Exam) Validate() error {
	if strings.TrimSpace(e.Section) == "" {
		return ErrEmptySection
	}
	if strings.TrimSpace(e.Subject) == "" {
		return ErrEmptySubject
	}
	if e.Date.IsZero() {
		return ErrEmptyDate
	}
	return nil
}

// Dates returns the distinct exam dates in ascending input order.
func Dates(exams []Exam) []time.Time {
	seen := make(map[string]bool, len(exams))
	var out []time.Time
	for _, e := range exams {
		key := e.Date.Format("2006-01-02")
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, e.Date)
	}
	return out
}
