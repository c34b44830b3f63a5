package attendance

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"campus/internal/domain/calendar"
)

// Day statuses
const (
	StatusPresent = "present"
	StatusAbsent  = "absent"
	StatusLate    = "late"
)

// DefaultThreshold is the minimum attendance percentage for casual leave.
var DefaultThreshold = decimal.NewFromInt(80)

var hundred = decimal.NewFromInt(100)

// Domain errors
var (
	ErrEmptyStudentID = errors.New("attendance must be associated with a student")
	ErrEmptyDate      = errors.New("attendance date must be set")
	ErrInvalidStatus  = errors.New("status must be one of: present, absent, late")
)

// Record is one student's attendance for one instructional day.
type Record struct {
	ID        string
	StudentID string
	Date      time.Time
	Status    string
}

// Validate checks if the Record has valid data.
// PRE: Record struct is initialized
// POST: Returns error if validation fails, nil otherwise
func (r *Record) Validate() error {
	if strings.TrimSpace(r.StudentID) == "" {
		return ErrEmptyStudentID
	}
	if r.Date.IsZero() {
		return ErrEmptyDate
	}
	switch r.Status {
	case StatusPresent, StatusAbsent, StatusLate:
		return nil
	}
	return ErrInvalidStatus
}

// Attended returns true if the student was in class. Late counts as present.
func (r *Record) Attended() bool {
	return r.Status == StatusPresent || r.Status == StatusLate
}

// Percentage computes present days over instructional days, scaled to 100 and
// rounded half-up to two decimals. Days in excused are not counted as present.
// POST: Returns 100 when there are no instructional days
// INVARIANT: Records are not mutated
func Percentage(records []Record, excused calendar.HolidaySet) decimal.Decimal {
	seen := make(map[string]bool, len(records))
	var present, total int64
	for _, r := range records {
		key := calendar.DateOf(r.Date).Format(calendar.DateLayout)
		if seen[key] {
			continue
		}
		seen[key] = true
		total++
		if r.Attended() && !excused.Contains(r.Date) {
			present++
		}
	}
	if total == 0 {
		return hundred
	}
	return decimal.NewFromInt(present).Mul(hundred).Div(decimal.NewFromInt(total)).Round(2)
}

// Eligibility is the attendance gate outcome for a student.
type Eligibility struct {
	Allowed    bool
	Percentage decimal.Decimal
	Threshold  decimal.Decimal
	Message    string
}

// Evaluate applies the threshold to a percentage.
// POST: Allowed iff pct >= threshold
func Evaluate(pct, threshold decimal.Decimal) Eligibility {
	if threshold.IsZero() {
		threshold = DefaultThreshold
	}
	e := Eligibility{Percentage: pct, Threshold: threshold}
	if pct.GreaterThanOrEqual(threshold) {
		e.Allowed = true
		e.Message = "attendance " + pct.StringFixed(2) + "% meets the " + threshold.String() + "% requirement"
		return e
	}
	e.Message = "attendance " + pct.StringFixed(2) + "% is below the required " + threshold.String() + "%"
	return e
}
