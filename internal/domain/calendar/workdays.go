package calendar

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the storage and wire format for calendar dates.
const DateLayout = "2006-01-02"

// DefaultRestDay is the weekly rest day when none is configured.
const DefaultRestDay = time.Sunday

// Domain errors
var (
	ErrInvalidRange   = errors.New("end date must not be before start date")
	ErrHalfDaySpan    = errors.New("a half-day request must cover exactly one day")
	ErrInvalidWeekday = errors.New("unknown weekday")
)

var halfDay = decimal.New(5, -1)

// DateOf returns the calendar date of t as midnight UTC.
// The date is taken in t's own location, so convert first if needed.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today returns the calendar date of now as observed in loc.
// PRE: loc may be nil (UTC is used)
// POST: Returns a midnight-UTC date value
func Today(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return DateOf(now.In(loc))
}

// ParseDate parses a YYYY-MM-DD string into a calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (use YYYY-MM-DD): %w", s, err)
	}
	return t, nil
}

// ParseWeekday parses an English weekday name such as "sunday" or "Sun".
func ParseWeekday(s string) (time.Weekday, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for d := time.Sunday; d <= time.Saturday; d++ {
		full := strings.ToLower(d.String())
		if name == full || name == full[:3] {
			return d, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidWeekday, s)
}

// Overlaps reports whether two inclusive date ranges share at least one day.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !DateOf(aStart).After(DateOf(bEnd)) && !DateOf(bStart).After(DateOf(aEnd))
}

// Dates lists every calendar date in the inclusive range.
// POST: Returns nil when end is before start
func Dates(start, end time.Time) []time.Time {
	start, end = DateOf(start), DateOf(end)
	var out []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		out = append(out, d)
	}
	return out
}

// HolidaySet is a set of excluded calendar dates.
type HolidaySet map[string]struct{}

// NewHolidaySet builds a set from individual dates.
func NewHolidaySet(dates ...time.Time) HolidaySet {
	s := make(HolidaySet, len(dates))
	for _, d := range dates {
		s.Add(d)
	}
	return s
}

// Add marks a single date as a holiday.
func (s HolidaySet) Add(d time.Time) {
	s[DateOf(d).Format(DateLayout)] = struct{}{}
}

// AddRange marks every date in the inclusive range as a holiday.
func (s HolidaySet) AddRange(start, end time.Time) {
	for _, d := range Dates(start, end) {
		s.Add(d)
	}
}

// Contains reports whether d is a holiday. A nil set contains nothing.
func (s HolidaySet) Contains(d time.Time) bool {
	_, ok := s[DateOf(d).Format(DateLayout)]
	return ok
}

// IsWorkingDay reports whether d is neither the rest day nor a holiday.
func IsWorkingDay(d time.Time, restDay time.Weekday, holidays HolidaySet) bool {
	d = DateOf(d)
	return d.Weekday() != restDay && !holidays.Contains(d)
}

// WorkingDays counts the working days in the inclusive range [start, end].
// PRE: start and end are calendar dates
// POST: Returns ErrInvalidRange if end < start; otherwise a non-negative whole count
// INVARIANT: No side effects
func WorkingDays(start, end time.Time, restDay time.Weekday, holidays HolidaySet) (decimal.Decimal, error) {
	start, end = DateOf(start), DateOf(end)
	if end.Before(start) {
		return decimal.Zero, ErrInvalidRange
	}
	var n int64
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if IsWorkingDay(d, restDay, holidays) {
			n++
		}
	}
	return decimal.NewFromInt(n), nil
}

// RequestDays resolves the working-day size of a request. A half-day request
// counts as 0.5 of its single day, and a single non-working day counts as 0.
// PRE: half requests must have start == end
// POST: Returns ErrHalfDaySpan for a multi-day half-day range
func RequestDays(start, end time.Time, half bool, restDay time.Weekday, holidays HolidaySet) (decimal.Decimal, error) {
	days, err := WorkingDays(start, end, restDay, holidays)
	if err != nil {
		return decimal.Zero, err
	}
	if !half {
		return days, nil
	}
	if !DateOf(start).Equal(DateOf(end)) {
		return decimal.Zero, ErrHalfDaySpan
	}
	return days.Mul(halfDay), nil
}
