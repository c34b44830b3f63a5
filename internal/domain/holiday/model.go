package holiday

import (
	"errors"
	"strings"
	"time"

	"campus/internal/domain/calendar"
)

// Domain errors
var (
	ErrEmptyName      = errors.New("holiday name cannot be empty")
	ErrInvalidDates   = errors.New("start date must be before or equal to end date")
	ErrEmptyStartDate = errors.New("start date cannot be zero")
	ErrEmptyEndDate   = errors.New("end date cannot be zero")
)

// Holiday is a named date range on which no classes are held.
// An empty Batch applies to every batch.
type Holiday struct {
	ID        string
	Name      string
	Batch     string
	StartDate time.Time
	EndDate   time.Time
}

// Validate checks if the Holiday has valid data.
// PRE: Holiday struct is populated
// POST: Returns nil if valid, error otherwise
func (h *Holiday) Validate() error {
	if strings.TrimSpace(h.Name) == "" {
		return ErrEmptyName
	}
	if h.StartDate.IsZero() {
		return ErrEmptyStartDate
	}
	if h.EndDate.IsZero() {
		return ErrEmptyEndDate
	}
	if h.StartDate.After(h.EndDate) {
		return ErrInvalidDates
	}
	return nil
}

// Contains returns true if the given date falls within this holiday.
// INVARIANT: Holiday fields are not mutated
func (h *Holiday) Contains(date time.Time) bool {
	return calendar.Overlaps(h.StartDate, h.EndDate, date, date)
}

// AppliesTo returns true if the holiday covers the given batch.
func (h *Holiday) AppliesTo(batch string) bool {
	return h.Batch == "" || strings.EqualFold(h.Batch, batch)
}

// BuildSet expands the holidays that apply to batch into a date set.
// POST: Returns a non-nil set
func BuildSet(holidays []Holiday, batch string) calendar.HolidaySet {
	set := calendar.NewHolidaySet()
	for _, h := range holidays {
		if h.AppliesTo(batch) {
			set.AddRange(h.StartDate, h.EndDate)
		}
	}
	return set
}
