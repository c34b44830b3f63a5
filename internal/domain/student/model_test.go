package student_test

import (
	"testing"

	"campus/internal/domain/student"
)

// TestStudent_Validate tests validation of Student.
func TestStudent_Validate(t *testing.T) {
	tests := []struct {
		name    string
		s       student.Student
		wantErr error
	}{
		{"valid", student.Student{Name: "Anika", Email: "anika@college.edu", Section: "CSE-A", Batch: "2024"}, nil},
		{"valid without email", student.Student{Name: "Anika", Section: "CSE-A", Batch: "2024"}, nil},
		{"no name", student.Student{Section: "CSE-A", Batch: "2024"}, student.ErrEmptyName},
		{"bad email", student.Student{Name: "Anika", Email: "anika", Section: "CSE-A", Batch: "2024"}, student.ErrInvalidEmail},
		{"no section", student.Student{Name: "Anika", Batch: "2024"}, student.ErrEmptySection},
		{"no batch", student.Student{Name: "Anika", Section: "CSE-A"}, student.ErrEmptyBatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.s.Validate(); err != tt.wantErr {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
