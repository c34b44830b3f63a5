package web

import (
	"context"
	"net/http"
	"strings"
	"time"

	"campus/internal/application/listutil"
	"campus/internal/application/orchestrators"
	"campus/internal/application/projections"
	"campus/internal/domain/absence"
	"campus/internal/domain/calendar"
)

type submitRequestBody struct {
	Kind         string `json:"kind" validate:"required,oneof=leave on_duty"`
	Category     string `json:"category" validate:"max=64"`
	StartDate    string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate      string `json:"end_date" validate:"required,datetime=2006-01-02"`
	Duration     string `json:"duration" validate:"omitempty,oneof=full_day half_day_morning half_day_afternoon"`
	Reason       string `json:"reason" validate:"max=2000"`
	PlaceToVisit string `json:"place_to_visit" validate:"max=200"`
	ProofURL     string `json:"proof_url" validate:"omitempty,url"`
}

type transitionBody struct {
	Reason string `json:"reason" validate:"max=2000"`
}

// handleSubmitRequest runs a student's Leave or OD submission through the gates.
func handleSubmitRequest(w http.ResponseWriter, r *http.Request) {
	var body submitRequestBody
	if err := strictDecode(r, &body); err != nil {
		writeError(w, err)
		return
	}
	start, _ := time.Parse(calendar.DateLayout, body.StartDate)
	end, _ := time.Parse(calendar.DateLayout, body.EndDate)

	req, err := orchestrators.ExecuteSubmitRequest(r.Context(), orchestrators.SubmitRequestInput{
		RequesterID:  actorOf(r).ID,
		Kind:         body.Kind,
		Category:     body.Category,
		StartDate:    start,
		EndDate:      end,
		Duration:     body.Duration,
		Reason:       body.Reason,
		PlaceToVisit: body.PlaceToVisit,
		ProofURL:     body.ProofURL,
	}, submitDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	view := projections.NewRequestView(req)
	view.Actions = deps.Router.Available(req, actorOf(r), timeNow())
	writeJSON(w, http.StatusCreated, view)
}

func submitDeps() orchestrators.SubmitRequestDeps {
	return orchestrators.SubmitRequestDeps{
		RequestStore:    stores.RequestStore,
		StudentStore:    stores.StudentStore,
		HolidayStore:    stores.HolidayStore,
		ExamStore:       stores.ExamStore,
		TermStore:       stores.TermStore,
		AttendanceStore: stores.AttendanceStore,
		Notifier:        deps.Notifier,
		RestDay:         deps.Config.RestDay,
		Threshold:       deps.Config.AttendanceThreshold,
		Location:        deps.Config.Location,
		Now:             timeNow,
		GenerateID:      generateID,
	}
}

// handleListRequests lists the requests visible to the caller.
// Query: page, per_page, sort, dir, status, kind, from, to, section, student.
func handleListRequests(w http.ResponseWriter, r *http.Request) {
	params := listutil.ParseListParams(r.URL.Query(), projections.RequestSortColumns, projections.RequestFilterKeys)
	result, err := projections.QueryGetRequestList(r.Context(), projections.GetRequestListQuery{
		Actor:  actorOf(r),
		Params: params,
	}, projections.GetRequestListDeps{RequestStore: stores.RequestStore, StudentStore: stores.StudentStore})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func handleGetRequest(w http.ResponseWriter, r *http.Request) {
	view, err := projections.QueryGetRequest(r.Context(), projections.GetRequestQuery{
		Actor:     actorOf(r),
		RequestID: r.PathValue("id"),
	}, projections.GetRequestDeps{
		RequestStore: stores.RequestStore,
		StudentStore: stores.StudentStore,
		Router:       deps.Router,
		Now:          timeNow,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handleTransition applies approve, forward, reject, revoke or cancel to a request.
func handleTransition(w http.ResponseWriter, r *http.Request) {
	action := r.PathValue("action")
	if action == absence.TransitionSubmit || !absence.IsTransition(action) {
		writeError(w, absence.Validationf("unknown_transition", "unknown action %q", action))
		return
	}
	var body transitionBody
	if err := optionalDecode(r, &body); err != nil {
		writeError(w, err)
		return
	}
	actor := actorOf(r)
	req, err := orchestrators.ExecuteTransitionRequest(r.Context(), orchestrators.TransitionRequestInput{
		RequestID:  r.PathValue("id"),
		Actor:      actor,
		Transition: action,
		Reason:     strings.TrimSpace(body.Reason),
	}, orchestrators.TransitionRequestDeps{
		RequestStore: stores.RequestStore,
		Router:       deps.Router,
		Notifier:     deps.Notifier,
		Now:          timeNow,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	view := projections.NewRequestView(req)
	view.Actions = deps.Router.Available(req, actor, timeNow())
	writeJSON(w, http.StatusOK, view)
}

func handleApprovalQueue(w http.ResponseWriter, r *http.Request) {
	result, err := projections.QueryGetApprovalQueue(r.Context(), projections.GetApprovalQueueQuery{Actor: actorOf(r)},
		projections.GetApprovalQueueDeps{
			RequestStore: stores.RequestStore,
			StudentStore: stores.StudentStore,
			Router:       deps.Router,
			Now:          timeNow,
		})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type eligibilityView struct {
	StudentID  string `json:"student_id"`
	Allowed    bool   `json:"allowed"`
	Percentage string `json:"percentage"`
	Threshold  string `json:"threshold"`
	Message    string `json:"message,omitempty"`
}

// handleEligibility reports the attendance gate for the caller, or for
// ?student= when the caller is staff.
func handleEligibility(w http.ResponseWriter, r *http.Request) {
	studentID, err := scopedStudent(r.Context(), actorOf(r), r.URL.Query().Get("student"))
	if err != nil {
		writeError(w, err)
		return
	}
	elig, err := orchestrators.ExecuteCheckLeaveEligibility(r.Context(), orchestrators.EligibilityInput{StudentID: studentID},
		orchestrators.EligibilityDeps{
			StudentStore:    stores.StudentStore,
			TermStore:       stores.TermStore,
			AttendanceStore: stores.AttendanceStore,
			RequestStore:    stores.RequestStore,
			Threshold:       deps.Config.AttendanceThreshold,
			Location:        deps.Config.Location,
			Now:             timeNow,
		})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, eligibilityView{
		StudentID:  studentID,
		Allowed:    elig.Allowed,
		Percentage: elig.Percentage.StringFixed(2),
		Threshold:  elig.Threshold.StringFixed(2),
		Message:    elig.Message,
	})
}

type conflictView struct {
	StudentID   string                    `json:"student_id"`
	Overlap     bool                      `json:"overlap"`
	Overlapping []projections.RequestView `json:"overlapping"`
	ExamDates   []string                  `json:"exam_dates"`
}

// handleConflicts previews the overlap and exam checks for a date range.
// Query: start, end (YYYY-MM-DD), student for staff callers.
func handleConflicts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, err := requiredDate(q.Get("start"), "start")
	if err != nil {
		writeError(w, err)
		return
	}
	end, err := requiredDate(q.Get("end"), "end")
	if err != nil {
		writeError(w, err)
		return
	}
	if end.Before(start) {
		writeError(w, absence.ErrInvalidDateRange)
		return
	}
	studentID, err := scopedStudent(r.Context(), actorOf(r), q.Get("student"))
	if err != nil {
		writeError(w, err)
		return
	}

	cdeps := orchestrators.ConflictDeps{RequestStore: stores.RequestStore, ExamStore: stores.ExamStore, StudentStore: stores.StudentStore}
	overlap, existing, err := orchestrators.HasConflict(r.Context(), studentID, start, end, cdeps)
	if err != nil {
		writeError(w, err)
		return
	}
	exams, err := orchestrators.ExamConflict(r.Context(), studentID, start, end, cdeps)
	if err != nil {
		writeError(w, err)
		return
	}
	view := conflictView{StudentID: studentID, Overlap: overlap, Overlapping: []projections.RequestView{}, ExamDates: []string{}}
	for _, req := range existing {
		view.Overlapping = append(view.Overlapping, projections.NewRequestView(req))
	}
	for _, d := range exams.ExamDates {
		view.ExamDates = append(view.ExamDates, d.Format(calendar.DateLayout))
	}
	writeJSON(w, http.StatusOK, view)
}

// scopedStudent resolves the student a read is about. Students may only ask
// about themselves; tutors only about students of their sections.
func scopedStudent(ctx context.Context, actor absence.Actor, param string) (string, error) {
	param = strings.TrimSpace(param)
	switch actor.Role {
	case absence.RoleStudent:
		if param != "" && param != actor.ID {
			return "", absence.Deniedf(absence.ErrOutsideScope.Code, "students may only view their own records")
		}
		return actor.ID, nil
	case absence.RoleTutor:
		if param == "" {
			return "", requiredParam("student")
		}
		st, err := stores.StudentStore.GetByID(ctx, param)
		if err != nil {
			return "", err
		}
		if !actor.InSection(st.Section) {
			return "", absence.Deniedf(absence.ErrOutsideScope.Code, "student %s is not in your sections", param)
		}
		return st.ID, nil
	case absence.RoleAdmin:
		if param == "" {
			return "", requiredParam("student")
		}
		return param, nil
	}
	return "", absence.Deniedf(absence.ErrTransitionDenied.Code, "unknown role %q", actor.Role)
}

func requiredDate(raw, field string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, requiredParam(field)
	}
	d, err := time.Parse(calendar.DateLayout, raw)
	if err != nil {
		return time.Time{}, badDate(field, raw)
	}
	return d, nil
}
