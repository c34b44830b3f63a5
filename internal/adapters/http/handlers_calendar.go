package web

import (
	"net/http"
	"time"

	"campus/internal/application/orchestrators"
	"campus/internal/application/projections"
	"campus/internal/domain/calendar"
	"campus/internal/domain/exam"
	"campus/internal/domain/holiday"
	"campus/internal/domain/term"
)

type dateRangeBody struct {
	Name      string `json:"name" validate:"required,max=120"`
	Batch     string `json:"batch" validate:"max=32"`
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"required,datetime=2006-01-02"`
}

func (b dateRangeBody) dates() (time.Time, time.Time) {
	start, _ := time.Parse(calendar.DateLayout, b.StartDate)
	end, _ := time.Parse(calendar.DateLayout, b.EndDate)
	return start, end
}

type examBody struct {
	Section string `json:"section" validate:"required,max=32"`
	Subject string `json:"subject" validate:"required,max=120"`
	Date    string `json:"date" validate:"required,datetime=2006-01-02"`
}

func calendarDeps() orchestrators.CalendarDeps {
	return orchestrators.CalendarDeps{
		HolidayStore: stores.HolidayStore,
		TermStore:    stores.TermStore,
		ExamStore:    stores.ExamStore,
		GenerateID:   generateID,
	}
}

func calendarQuery(r *http.Request) projections.GetAcademicCalendarQuery {
	q := r.URL.Query()
	return projections.GetAcademicCalendarQuery{Batch: q.Get("batch"), Section: q.Get("section")}
}

func calendarReadDeps() projections.GetAcademicCalendarDeps {
	return projections.GetAcademicCalendarDeps{HolidayStore: stores.HolidayStore, TermStore: stores.TermStore, ExamStore: stores.ExamStore}
}

func handleListHolidays(w http.ResponseWriter, r *http.Request) {
	list, err := projections.QueryGetHolidays(r.Context(), calendarQuery(r), calendarReadDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func handleListTerms(w http.ResponseWriter, r *http.Request) {
	list, err := projections.QueryGetTerms(r.Context(), calendarQuery(r), calendarReadDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func handleListExams(w http.ResponseWriter, r *http.Request) {
	list, err := projections.QueryGetExams(r.Context(), calendarQuery(r), calendarReadDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// handleAddHoliday records a holiday; an empty batch applies to everyone.
func handleAddHoliday(w http.ResponseWriter, r *http.Request) {
	var body dateRangeBody
	if err := strictDecode(r, &body); err != nil {
		writeError(w, err)
		return
	}
	start, end := body.dates()
	h, err := orchestrators.ExecuteAddHoliday(r.Context(), holiday.Holiday{Name: body.Name, Batch: body.Batch, StartDate: start, EndDate: end}, calendarDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, projections.CalendarEntryView{
		ID: h.ID, Name: h.Name, Batch: h.Batch,
		StartDate: h.StartDate.Format(calendar.DateLayout), EndDate: h.EndDate.Format(calendar.DateLayout),
	})
}

func handleAddTerm(w http.ResponseWriter, r *http.Request) {
	var body dateRangeBody
	if err := strictDecode(r, &body); err != nil {
		writeError(w, err)
		return
	}
	start, end := body.dates()
	t, err := orchestrators.ExecuteAddTerm(r.Context(), term.Term{Name: body.Name, Batch: body.Batch, StartDate: start, EndDate: end}, calendarDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, projections.CalendarEntryView{
		ID: t.ID, Name: t.Name, Batch: t.Batch,
		StartDate: t.StartDate.Format(calendar.DateLayout), EndDate: t.EndDate.Format(calendar.DateLayout),
	})
}

func handleScheduleExam(w http.ResponseWriter, r *http.Request) {
	var body examBody
	if err := strictDecode(r, &body); err != nil {
		writeError(w, err)
		return
	}
	date, _ := time.Parse(calendar.DateLayout, body.Date)
	e, err := orchestrators.ExecuteScheduleExam(r.Context(), exam.Exam{Section: body.Section, Subject: body.Subject, Date: date}, calendarDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, projections.ExamView{
		ID: e.ID, Section: e.Section, Subject: e.Subject, Date: e.Date.Format(calendar.DateLayout),
	})
}
