package projections

import (
	"context"
	"sort"
	"strings"
	"time"

	"campus/internal/domain/calendar"
)

// CalendarEntryView is a holiday or academic term.
type CalendarEntryView struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Batch     string `json:"batch,omitempty"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// ExamView is a scheduled exam.
type ExamView struct {
	ID      string `json:"id"`
	Section string `json:"section"`
	Subject string `json:"subject"`
	Date    string `json:"date"`
}

// GetAcademicCalendarQuery narrows the calendar listings.
type GetAcademicCalendarQuery struct {
	Batch   string // holidays and terms applying to this batch; empty lists all
	Section string // exams for this section; empty lists all
}

// GetAcademicCalendarDeps holds dependencies for the calendar listings.
type GetAcademicCalendarDeps struct {
	HolidayStore HolidayStore
	TermStore    TermStore
	ExamStore    ExamStore
}

// QueryGetHolidays lists holidays by start date.
// POST: Institution-wide holidays are included for every batch filter
func QueryGetHolidays(ctx context.Context, query GetAcademicCalendarQuery, deps GetAcademicCalendarDeps) ([]CalendarEntryView, error) {
	list, err := deps.HolidayStore.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]CalendarEntryView, 0, len(list))
	for _, h := range list {
		if query.Batch != "" && !h.AppliesTo(query.Batch) {
			continue
		}
		out = append(out, CalendarEntryView{ID: h.ID, Name: h.Name, Batch: h.Batch, StartDate: day(h.StartDate), EndDate: day(h.EndDate)})
	}
	sortEntries(out)
	return out, nil
}

// QueryGetTerms lists academic terms by start date.
func QueryGetTerms(ctx context.Context, query GetAcademicCalendarQuery, deps GetAcademicCalendarDeps) ([]CalendarEntryView, error) {
	list, err := deps.TermStore.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]CalendarEntryView, 0, len(list))
	for _, t := range list {
		if query.Batch != "" && t.Batch != "" && !strings.EqualFold(t.Batch, query.Batch) {
			continue
		}
		out = append(out, CalendarEntryView{ID: t.ID, Name: t.Name, Batch: t.Batch, StartDate: day(t.StartDate), EndDate: day(t.EndDate)})
	}
	sortEntries(out)
	return out, nil
}

// QueryGetExams lists exams by date.
func QueryGetExams(ctx context.Context, query GetAcademicCalendarQuery, deps GetAcademicCalendarDeps) ([]ExamView, error) {
	list, err := deps.ExamStore.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]ExamView, 0, len(list))
	for _, e := range list {
		if query.Section != "" && !strings.EqualFold(e.Section, query.Section) {
			continue
		}
		out = append(out, ExamView{ID: e.ID, Section: e.Section, Subject: e.Subject, Date: day(e.Date)})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

func sortEntries(list []CalendarEntryView) {
	sort.SliceStable(list, func(i, j int) bool { return list[i].StartDate < list[j].StartDate })
}

func day(t time.Time) string {
	return t.Format(calendar.DateLayout)
}
