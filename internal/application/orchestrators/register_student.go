package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"campus/internal/domain/account"
	"campus/internal/domain/student"
)

// StudentStoreForRegister defines the store interface needed by RegisterStudent.
type StudentStoreForRegister interface {
	GetByID(ctx context.Context, id string) (student.Student, error)
	Save(ctx context.Context, s student.Student) error
}

// RegisterStudentInput carries a directory entry and the student's initial password.
type RegisterStudentInput struct {
	Student  student.Student
	Password string
}

// RegisterStudentDeps holds dependencies for RegisterStudent.
type RegisterStudentDeps struct {
	StudentStore StudentStoreForRegister
	Accounts     CreateAccountDeps
}

// ErrStudentExists is returned when the roll number is already registered.
var ErrStudentExists = errors.New("a student with this ID already exists")

// ExecuteRegisterStudent creates a directory entry and its linked login account.
// PRE: Student.ID is the roll number; Student.Email is set
// POST: Student and a student-role account exist
// INVARIANT: Student IDs are unique
func ExecuteRegisterStudent(ctx context.Context, input RegisterStudentInput, deps RegisterStudentDeps) (student.Student, error) {
	st := input.Student
	st.ID = strings.TrimSpace(st.ID)
	st.Name = strings.TrimSpace(st.Name)
	st.Email = strings.ToLower(strings.TrimSpace(st.Email))
	st.Section = strings.ToUpper(strings.TrimSpace(st.Section))
	st.Batch = strings.TrimSpace(st.Batch)
	if st.ID == "" {
		return student.Student{}, student.ErrEmptyID
	}
	if st.Email == "" {
		return student.Student{}, account.ErrEmptyEmail
	}
	if err := st.Validate(); err != nil {
		return student.Student{}, err
	}

	_, err := deps.StudentStore.GetByID(ctx, st.ID)
	if err == nil {
		return student.Student{}, ErrStudentExists
	}
	if !errors.Is(err, student.ErrNotFound) {
		return student.Student{}, err
	}

	if len(input.Password) < 12 {
		return student.Student{}, account.ErrPasswordTooShort
	}
	if _, err := deps.Accounts.AccountStore.GetByEmail(ctx, st.Email); err == nil {
		return student.Student{}, ErrEmailAlreadyExists
	}

	if err := deps.StudentStore.Save(ctx, st); err != nil {
		return student.Student{}, err
	}
	if _, err := ExecuteCreateAccount(ctx, CreateAccountInput{
		Email:     st.Email,
		Password:  input.Password,
		Role:      account.RoleStudent,
		StudentID: st.ID,
	}, deps.Accounts); err != nil {
		return student.Student{}, err
	}

	slog.Info("directory_event", "event", "student_registered", "student_id", st.ID, "section", st.Section, "batch", st.Batch)
	return st, nil
}
