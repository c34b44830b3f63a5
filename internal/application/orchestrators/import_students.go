package orchestrators

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"log/slog"
	"net/mail"
	"strings"

	"campus/internal/domain/student"
)

// StudentStoreForImport defines the store interface needed by ImportStudents.
type StudentStoreForImport interface {
	GetByID(ctx context.Context, id string) (student.Student, error)
	Save(ctx context.Context, s student.Student) error
}

// ImportStudentsInput carries the CSV stream and import options.
// PRE: Reader is a CSV stream with a header row containing ID, NAME, SECTION and BATCH
type ImportStudentsInput struct {
	Reader  io.Reader
	AdminID string
	DryRun  bool
}

// ImportStudentsResult holds aggregate counts and per-row errors from an import run.
type ImportStudentsResult struct {
	Total       int
	Created     int
	Reallocated int
	Unchanged   int
	Errors      []ImportRowError
	DryRun      bool
}

// ImportRowError describes a problem with a single CSV row.
type ImportRowError struct {
	Row     int
	Message string
}

// ImportStudentsDeps holds dependencies for the import orchestrator.
type ImportStudentsDeps struct {
	StudentStore StudentStoreForImport
}

// ImportValidationError is returned when the CSV structure is unusable.
type ImportValidationError struct {
	Message string
}

func (e *ImportValidationError) Error() string {
	return e.Message
}

// ExecuteImportStudents creates or updates directory entries from a roster CSV.
// Existing students are matched on ID; a changed section or batch counts as a reallocation.
// PRE: Input.Reader is non-nil
// POST: Rows are applied unless DryRun; counts and per-row errors are returned
// INVARIANT: Students are never deleted; requests keep the section they were submitted under
func ExecuteImportStudents(ctx context.Context, input ImportStudentsInput, deps ImportStudentsDeps) (ImportStudentsResult, error) {
	cr := csv.NewReader(input.Reader)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return ImportStudentsResult{}, &ImportValidationError{Message: "CSV has no header row"}
	}
	colIdx := make(map[string]int, len(header))
	for i, h := range header {
		colIdx[strings.ToUpper(strings.TrimSpace(h))] = i
	}
	for _, col := range []string{"ID", "NAME", "SECTION", "BATCH"} {
		if _, ok := colIdx[col]; !ok {
			return ImportStudentsResult{}, &ImportValidationError{Message: "CSV missing required column: " + col}
		}
	}
	getCol := func(row []string, col string) string {
		i, ok := colIdx[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	result := ImportStudentsResult{DryRun: input.DryRun}
	rowNum := 1
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		rowNum++
		if err != nil {
			result.Errors = append(result.Errors, ImportRowError{Row: rowNum, Message: err.Error()})
			continue
		}
		result.Total++

		st := student.Student{
			ID:      getCol(row, "ID"),
			Name:    getCol(row, "NAME"),
			Section: strings.ToUpper(getCol(row, "SECTION")),
			Batch:   getCol(row, "BATCH"),
		}
		if st.ID == "" {
			result.Errors = append(result.Errors, ImportRowError{Row: rowNum, Message: "id is required"})
			continue
		}
		if raw := getCol(row, "EMAIL"); raw != "" {
			addr, err := mail.ParseAddress(raw)
			if err != nil {
				result.Errors = append(result.Errors, ImportRowError{Row: rowNum, Message: "invalid email: " + raw})
				continue
			}
			st.Email = strings.ToLower(addr.Address)
		}
		if err := st.Validate(); err != nil {
			result.Errors = append(result.Errors, ImportRowError{Row: rowNum, Message: err.Error()})
			continue
		}

		existing, lookupErr := deps.StudentStore.GetByID(ctx, st.ID)
		if lookupErr == nil && st.Email == "" {
			st.Email = existing.Email
		}
		switch {
		case lookupErr == nil && existing == st:
			result.Unchanged++
			continue
		case lookupErr == nil:
			result.Reallocated++
		case errors.Is(lookupErr, student.ErrNotFound):
			result.Created++
		default:
			return result, lookupErr
		}
		if input.DryRun {
			continue
		}
		if err := deps.StudentStore.Save(ctx, st); err != nil {
			slog.Error("students_import_save_failed", "row", rowNum, "student_id", st.ID, "error", err)
			result.Errors = append(result.Errors, ImportRowError{Row: rowNum, Message: "save failed (see server log)"})
		}
	}

	slog.Info("students_import",
		"admin", input.AdminID,
		"dry_run", input.DryRun,
		"total", result.Total,
		"created", result.Created,
		"reallocated", result.Reallocated,
		"unchanged", result.Unchanged,
		"errors", len(result.Errors),
	)
	return result, nil
}
