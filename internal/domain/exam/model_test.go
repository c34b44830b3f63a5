package exam_test

import (
	"testing"
	"time"

	"campus/internal/domain/exam"
)

// TestExam_Validate tests validation of Exam.
func TestExam_Validate(t *testing.T) {
	day := time.Date(2026, 11, 9, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name    string
		exam    exam.Exam
		wantErr error
	}{
		{"valid", exam.Exam{Section: "CSE-A", Subject: "Compilers", Date: day}, nil},
		{"no section", exam.Exam{Subject: "Compilers", Date: day}, exam.ErrEmptySection},
		{"no subject", exam.Exam{Section: "CSE-A", Date: day}, exam.ErrEmptySubject},
		{"no date", exam.Exam{Section: "CSE-A", Subject: "Compilers"}, exam.ErrEmptyDate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.exam.Validate(); err != tt.wantErr {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// TestDates tests de-duplication of exam dates.
func TestDates(t *testing.T) {
	d1 := time.Date(2026, 11, 9, 0, 0, 0, 0, time.UTC)
	d2 := d1.AddDate(0, 0, 2)
	got := exam.Dates([]exam.Exam{{Date: d1, Subject: "A"}, {Date: d1, Subject: "B"}, {Date: d2, Subject: "C"}})
	if len(got) != 2 || !got[0].Equal(d1) || !got[1].Equal(d2) {
		t.Errorf("Dates() = %v, want [%v %v]", got, d1, d2)
	}
}
