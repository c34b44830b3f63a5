package orchestrators

import (
	"context"
	"errors"
	"strings"
	"testing"

	"campus/internal/domain/student"
)

const roster = `ID,Name,Email,Section,Batch
stu-1,Anika,anika@college.edu,cse-b,2024
stu-2,Rahul,rahul@college.edu,CSE-A,2024
stu-3,,x@college.edu,CSE-A,2024
stu-4,Farah,not-an-email,CSE-A,2024
stu-5,Dev,,ECE-A,2025
stu-6,Ira,ira@college.edu,CSE-A,2024
`

// TestExecuteImportStudents tests creation, reallocation and row errors.
func TestExecuteImportStudents(t *testing.T) {
	tests := []struct {
		name   string
		dryRun bool
	}{
		{"apply", false},
		{"dry run", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMockStudentStore(
				student.Student{ID: "stu-1", Name: "Anika", Email: "anika@college.edu", Section: "CSE-A", Batch: "2024"},
				student.Student{ID: "stu-2", Name: "Rahul", Email: "rahul@college.edu", Section: "CSE-A", Batch: "2024"},
			)
			res, err := ExecuteImportStudents(context.Background(), ImportStudentsInput{
				Reader: strings.NewReader(roster), AdminID: "adm-1", DryRun: tt.dryRun,
			}, ImportStudentsDeps{StudentStore: store})
			if err != nil {
				t.Fatalf("import: %v", err)
			}
			if res.Total != 6 || res.Created != 2 || res.Reallocated != 1 || res.Unchanged != 1 || len(res.Errors) != 2 {
				t.Errorf("result = %+v", res)
			}
			if len(res.Errors) == 2 && (res.Errors[0].Row != 4 || res.Errors[1].Row != 5) {
				t.Errorf("error rows = %+v", res.Errors)
			}

			wantSection := "CSE-B"
			if tt.dryRun {
				wantSection = "CSE-A"
			}
			if got := store.students["stu-1"].Section; got != wantSection {
				t.Errorf("stu-1 section = %s, want %s", got, wantSection)
			}
			if _, ok := store.students["stu-5"]; ok == tt.dryRun {
				t.Errorf("stu-5 stored = %v with dry run %v", ok, tt.dryRun)
			}
		})
	}
}

// TestExecuteImportStudents_MissingColumn tests header validation.
func TestExecuteImportStudents_MissingColumn(t *testing.T) {
	_, err := ExecuteImportStudents(context.Background(), ImportStudentsInput{
		Reader: strings.NewReader("ID,Name,Section\nstu-1,Anika,CSE-A\n"),
	}, ImportStudentsDeps{StudentStore: newMockStudentStore()})

	var verr *ImportValidationError
	if !errors.As(err, &verr) || !strings.Contains(verr.Message, "BATCH") {
		t.Errorf("err = %v, want missing BATCH column", err)
	}
}
