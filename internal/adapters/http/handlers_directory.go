package web

import (
	"net/http"
	"strconv"
	"time"

	"campus/internal/application/orchestrators"
	"campus/internal/domain/calendar"
	"campus/internal/domain/student"
)

// maxImportBytes bounds a roster upload.
const maxImportBytes = 5 << 20

func accountDeps() orchestrators.CreateAccountDeps {
	return orchestrators.CreateAccountDeps{AccountStore: stores.AccountStore, GenerateID: generateID, Now: timeNow}
}

type registerStudentBody struct {
	ID       string `json:"id" validate:"required,max=32"`
	Name     string `json:"name" validate:"required,max=120"`
	Email    string `json:"email" validate:"required,email"`
	Section  string `json:"section" validate:"required,max=32"`
	Batch    string `json:"batch" validate:"required,max=32"`
	Password string `json:"password" validate:"required,min=12"`
}

type studentView struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Section string `json:"section"`
	Batch   string `json:"batch"`
}

// handleRegisterStudent adds a directory entry and its student login.
func handleRegisterStudent(w http.ResponseWriter, r *http.Request) {
	var body registerStudentBody
	if err := strictDecode(r, &body); err != nil {
		writeError(w, err)
		return
	}
	st, err := orchestrators.ExecuteRegisterStudent(r.Context(), orchestrators.RegisterStudentInput{
		Student:  student.Student{ID: body.ID, Name: body.Name, Email: body.Email, Section: body.Section, Batch: body.Batch},
		Password: body.Password,
	}, orchestrators.RegisterStudentDeps{StudentStore: stores.StudentStore, Accounts: accountDeps()})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, studentView{ID: st.ID, Name: st.Name, Email: st.Email, Section: st.Section, Batch: st.Batch})
}

type importRowErrorView struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

type importResultView struct {
	Total       int                  `json:"total"`
	Created     int                  `json:"created"`
	Reallocated int                  `json:"reallocated"`
	Unchanged   int                  `json:"unchanged"`
	Errors      []importRowErrorView `json:"errors"`
	DryRun      bool                 `json:"dry_run"`
}

// handleImportStudents applies a roster CSV (ID, NAME, SECTION, BATCH[, EMAIL]).
// Query: dry_run=true validates without writing.
func handleImportStudents(w http.ResponseWriter, r *http.Request) {
	dryRun, _ := strconv.ParseBool(r.URL.Query().Get("dry_run"))
	result, err := orchestrators.ExecuteImportStudents(r.Context(), orchestrators.ImportStudentsInput{
		Reader:  http.MaxBytesReader(w, r.Body, maxImportBytes),
		AdminID: actorOf(r).ID,
		DryRun:  dryRun,
	}, orchestrators.ImportStudentsDeps{StudentStore: stores.StudentStore})
	if err != nil {
		writeError(w, err)
		return
	}
	view := importResultView{
		Total:       result.Total,
		Created:     result.Created,
		Reallocated: result.Reallocated,
		Unchanged:   result.Unchanged,
		Errors:      make([]importRowErrorView, 0, len(result.Errors)),
		DryRun:      result.DryRun,
	}
	for _, e := range result.Errors {
		view.Errors = append(view.Errors, importRowErrorView{Row: e.Row, Message: e.Message})
	}
	writeJSON(w, http.StatusOK, view)
}

type createAccountBody struct {
	Email     string   `json:"email" validate:"required,email"`
	Password  string   `json:"password" validate:"required,min=12"`
	Role      string   `json:"role" validate:"required,oneof=admin tutor student"`
	StudentID string   `json:"student_id" validate:"required_if=Role student"`
	Sections  []string `json:"sections" validate:"dive,required,max=32"`
}

type accountView struct {
	ID        string   `json:"id"`
	Email     string   `json:"email"`
	Role      string   `json:"role"`
	StudentID string   `json:"student_id,omitempty"`
	Sections  []string `json:"sections,omitempty"`
}

// handleCreateAccount creates a staff account, or a login for an existing student.
func handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var body createAccountBody
	if err := strictDecode(r, &body); err != nil {
		writeError(w, err)
		return
	}
	acct, err := orchestrators.ExecuteCreateAccount(r.Context(), orchestrators.CreateAccountInput{
		Email:     body.Email,
		Password:  body.Password,
		Role:      body.Role,
		StudentID: body.StudentID,
		Sections:  body.Sections,
	}, accountDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, accountView{ID: acct.ID, Email: acct.Email, Role: acct.Role, StudentID: acct.StudentID, Sections: acct.Sections})
}

type attendanceBody struct {
	Date  string            `json:"date" validate:"required,datetime=2006-01-02"`
	Marks map[string]string `json:"marks" validate:"required,min=1,dive,keys,required,endkeys,oneof=present absent late"`
}

// handleRecordAttendance stores one day's marks; tutors are limited to their sections.
func handleRecordAttendance(w http.ResponseWriter, r *http.Request) {
	var body attendanceBody
	if err := strictDecode(r, &body); err != nil {
		writeError(w, err)
		return
	}
	date, _ := time.Parse(calendar.DateLayout, body.Date)
	n, err := orchestrators.ExecuteRecordAttendance(r.Context(), orchestrators.RecordAttendanceInput{
		Actor: actorOf(r),
		Date:  date,
		Marks: body.Marks,
	}, orchestrators.RecordAttendanceDeps{
		AttendanceStore: stores.AttendanceStore,
		StudentStore:    stores.StudentStore,
		Location:        deps.Config.Location,
		Now:             timeNow,
		GenerateID:      generateID,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"recorded": n})
}
