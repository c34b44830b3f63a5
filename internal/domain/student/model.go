package student

import (
	"errors"
	"strings"
)

// Domain errors
var (
	ErrEmptyID      = errors.New("student ID cannot be empty")
	ErrEmptyName    = errors.New("student name cannot be empty")
	ErrInvalidEmail = errors.New("email must contain '@'")
	ErrEmptySection = errors.New("student must be allocated to a section")
	ErrEmptyBatch   = errors.New("student must belong to a batch")
	ErrNotFound     = errors.New("student not found")
)

// Student is a directory entry with the student's current allocation.
type Student struct {
	ID      string
	Name    string
	Email   string
	Section string
	Batch   string
}

// Validate checks if the Student has valid data.
// PRE: Student struct is populated
// POST: Returns nil if valid, error otherwise
func (s *Student) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return ErrEmptyName
	}
	if s.Email != "" && !strings.Contains(s.Email, "@") {
		return ErrInvalidEmail
	}
	if strings.TrimSpace(s.Section) == "" {
		return ErrEmptySection
	}
	if strings.TrimSpace(s.Batch) == "" {
		return ErrEmptyBatch
	}
	return nil
}
