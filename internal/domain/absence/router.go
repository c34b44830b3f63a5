package absence

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transitions an actor may invoke on an existing request.
const (
	TransitionSubmit        = "submit"
	TransitionApprove       = "approve"
	TransitionForward       = "forward"
	TransitionReject        = "reject"
	TransitionRevoke        = "revoke"
	TransitionRequestCancel = "cancel"
)

// Events emitted by a successful transition.
const (
	EventSubmitted       = "submitted"
	EventApproved        = "approved"
	EventRejected        = "rejected"
	EventForwarded       = "forwarded"
	EventRevoked         = "revoked"
	EventCancelRequested = "cancel_requested"
	EventCancelled       = "cancelled"
	EventReinstated      = "reinstated"
)

// DefaultTutorDayCap is the largest request a tutor may approve alone.
var DefaultTutorDayCap = decimal.NewFromInt(2)

type permission struct {
	role       string
	transition string
}

// authorization lists every (role, transition) pair that may be attempted.
// A pair not listed here is refused before any state is inspected.
var authorization = map[permission]bool{
	{RoleStudent, TransitionSubmit}:        true,
	{RoleStudent, TransitionRequestCancel}: true,
	{RoleTutor, TransitionApprove}:         true,
	{RoleTutor, TransitionForward}:         true,
	{RoleTutor, TransitionReject}:          true,
	{RoleTutor, TransitionRevoke}:          true,
	{RoleAdmin, TransitionApprove}:         true,
	{RoleAdmin, TransitionReject}:          true,
	{RoleAdmin, TransitionRevoke}:          true,
}

// Permitted reports whether role may attempt transition at all.
func Permitted(role, transition string) bool {
	return authorization[permission{role, transition}]
}

// IsTransition reports whether name is a known transition.
func IsTransition(name string) bool {
	switch name {
	case TransitionSubmit, TransitionApprove, TransitionForward, TransitionReject, TransitionRevoke, TransitionRequestCancel:
		return true
	}
	return false
}

// Command is a transition request against a stored Request.
type Command struct {
	Transition string
	Reason     string // required for reject
}

// Outcome is the result of a transition: the updated request and the event to publish.
type Outcome struct {
	Request Request
	Event   string
	// From is the status the transition was validated against.
	From string
}

// Router applies lifecycle transitions under the authorization table.
type Router struct {
	TutorDayCap decimal.Decimal
	Location    *time.Location
}

// NewRouter returns a Router with the given tutor cap, falling back to DefaultTutorDayCap.
func NewRouter(dayCap decimal.Decimal, loc *time.Location) Router {
	if dayCap.LessThanOrEqual(decimal.Zero) {
		dayCap = DefaultTutorDayCap
	}
	if loc == nil {
		loc = time.UTC
	}
	return Router{TutorDayCap: dayCap, Location: loc}
}

// Apply validates and applies a transition to req.
// PRE: req is the current stored state
// POST: Returns the updated request (Version incremented) or a typed *Error
// INVARIANT: req is not mutated
func (rt Router) Apply(req Request, actor Actor, cmd Command, now time.Time) (Outcome, error) {
	if !Permitted(actor.Role, cmd.Transition) {
		return Outcome{}, Deniedf(ErrTransitionDenied.Code, "%s may not %s requests", actor.Role, cmd.Transition)
	}
	if err := checkScope(req, actor); err != nil {
		return Outcome{}, err
	}

	var (
		out Outcome
		err error
	)
	switch cmd.Transition {
	case TransitionApprove, TransitionReject:
		approve := cmd.Transition == TransitionApprove
		if req.Status == StatusCancelRequested {
			out, err = rt.ResolveCancellation(req, actor, approve, now)
		} else {
			out, err = rt.Decide(req, actor, approve, cmd.Reason, now)
		}
	case TransitionForward:
		out, err = rt.Forward(req, actor, now)
	case TransitionRevoke:
		out, err = rt.Revoke(req, actor, now)
	case TransitionRequestCancel:
		out, err = rt.RequestCancel(req, actor, now)
	default:
		return Outcome{}, Statef(ErrInvalidTransition.Code, "%s does not apply to an existing request", cmd.Transition)
	}
	if err != nil {
		return Outcome{}, err
	}
	out.From = req.Status
	out.Request.Version = req.Version + 1
	out.Request.UpdatedAt = now
	return out, nil
}

// Decide approves or rejects a request that is awaiting a decision.
// PRE: actor is permitted and in scope
// POST: Approved or Rejected with the decision actor recorded
func (rt Router) Decide(req Request, actor Actor, approve bool, reason string, now time.Time) (Outcome, error) {
	if !approve {
		if req.Status != StatusPending && req.Status != StatusPendingAdmin {
			return Outcome{}, invalidFrom(req, TransitionReject)
		}
		if reason == "" {
			return Outcome{}, Validationf("missing_reason", "a rejection reason is required")
		}
		req.Status = StatusRejected
		req.RejectionReason = reason
		recordDecision(&req, actor, now)
		return Outcome{Request: req, Event: EventRejected}, nil
	}

	switch actor.Role {
	case RoleTutor:
		if req.Status != StatusPending {
			return Outcome{}, invalidFrom(req, TransitionApprove)
		}
		if req.Kind == KindOnDuty {
			return Outcome{}, Statef("forward_only", "on-duty requests must be forwarded to an admin")
		}
		if req.WorkingDays.GreaterThan(rt.dayCap()) {
			return Outcome{}, Statef(ErrTutorCapExceeded.Code, "%s working days exceeds the tutor limit of %s", req.WorkingDays, rt.dayCap())
		}
	case RoleAdmin:
		if req.Status != StatusPendingAdmin {
			return Outcome{}, invalidFrom(req, TransitionApprove)
		}
	}
	req.Status = StatusApproved
	req.RejectionReason = ""
	recordDecision(&req, actor, now)
	return Outcome{Request: req, Event: EventApproved}, nil
}

// ResolveCancellation approves a cancellation (Cancelled) or rejects it,
// reinstating the status the cancellation was raised from.
// PRE: req.Status is cancel_requested
// POST: Cancelled records the resolving actor; a reinstated request keeps its original decision
func (rt Router) ResolveCancellation(req Request, actor Actor, approve bool, now time.Time) (Outcome, error) {
	if req.Status != StatusCancelRequested {
		return Outcome{}, Statef(ErrInvalidTransition.Code, "no cancellation is pending for request %s", req.ID)
	}
	if actor.Role == RoleTutor && !req.TutorOwnsCancellation() {
		return Outcome{}, Deniedf("admin_decision", "cancellation of an admin-handled request must be resolved by an admin")
	}
	if approve {
		req.Status = StatusCancelled
		recordDecision(&req, actor, now)
		return Outcome{Request: req, Event: EventCancelled}, nil
	}
	req.Status = req.CancelledFrom
	if req.Status == "" {
		req.Status = StatusApproved
	}
	req.CancelledFrom = ""
	return Outcome{Request: req, Event: EventReinstated}, nil
}

// Forward escalates a pending request to admin.
// PRE: req is pending and either on-duty or a leave above the tutor cap
// POST: pending_admin with ForwardedBy/ForwardedAt set
func (rt Router) Forward(req Request, actor Actor, now time.Time) (Outcome, error) {
	if req.Status != StatusPending {
		return Outcome{}, invalidFrom(req, TransitionForward)
	}
	if req.Kind == KindLeave && req.WorkingDays.LessThanOrEqual(rt.dayCap()) {
		return Outcome{}, Statef("within_tutor_cap", "leave of %s working days is decided by the tutor", req.WorkingDays)
	}
	req.Status = StatusPendingAdmin
	req.ForwardedBy = actor.ID
	req.ForwardedAt = now
	return Outcome{Request: req, Event: EventForwarded}, nil
}

// Revoke returns an approved request to the approver's queue.
// PRE: req is approved and has not started
// POST: pending_admin (admin) or pending (tutor) with decision fields cleared
func (rt Router) Revoke(req Request, actor Actor, now time.Time) (Outcome, error) {
	if req.Status != StatusApproved {
		return Outcome{}, invalidFrom(req, TransitionRevoke)
	}
	if err := rt.requireFutureStart(req, now); err != nil {
		return Outcome{}, err
	}
	next := StatusPendingAdmin
	if actor.Role == RoleTutor {
		if req.ForwardedBy != "" || req.DecisionRole == RoleAdmin {
			return Outcome{}, Deniedf("admin_decision", "request %s was decided by an admin", req.ID)
		}
		if req.WorkingDays.GreaterThanOrEqual(rt.dayCap()) {
			return Outcome{}, Statef(ErrTutorCapExceeded.Code, "tutors may only revoke requests shorter than %s working days", rt.dayCap())
		}
		next = StatusPending
	}
	req.Status = next
	clearDecision(&req)
	return Outcome{Request: req, Event: EventRevoked}, nil
}

// RequestCancel is raised by the owning student on a pending or approved request.
// PRE: req has not started
// POST: cancel_requested with CancelledFrom recording the prior status
func (rt Router) RequestCancel(req Request, actor Actor, now time.Time) (Outcome, error) {
	if req.Status != StatusPending && req.Status != StatusApproved {
		return Outcome{}, invalidFrom(req, TransitionRequestCancel)
	}
	if err := rt.requireFutureStart(req, now); err != nil {
		return Outcome{}, err
	}
	req.CancelledFrom = req.Status
	req.Status = StatusCancelRequested
	return Outcome{Request: req, Event: EventCancelRequested}, nil
}

func (rt Router) dayCap() decimal.Decimal {
	if rt.TutorDayCap.LessThanOrEqual(decimal.Zero) {
		return DefaultTutorDayCap
	}
	return rt.TutorDayCap
}

func (rt Router) requireFutureStart(req Request, now time.Time) error {
	loc := rt.Location
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := now.In(loc).Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	if !req.StartDate.After(today) {
		return Statef(ErrAlreadyStarted.Code, "request %s starts on %s and can no longer be changed", req.ID, req.StartDate.Format("2006-01-02"))
	}
	return nil
}

func checkScope(req Request, actor Actor) error {
	switch actor.Role {
	case RoleStudent:
		if req.RequesterID != actor.ID {
			return Deniedf(ErrOutsideScope.Code, "request %s belongs to another student", req.ID)
		}
	case RoleTutor:
		if !actor.InSection(req.Section) {
			return Deniedf(ErrOutsideScope.Code, "section %s is not assigned to this tutor", req.Section)
		}
	}
	return nil
}

func recordDecision(req *Request, actor Actor, now time.Time) {
	req.DecisionRole = actor.Role
	req.DecisionBy = actor.ID
	req.DecidedAt = now
}

func clearDecision(req *Request) {
	req.DecisionRole = ""
	req.DecisionBy = ""
	req.DecidedAt = time.Time{}
	req.RejectionReason = ""
}

func invalidFrom(req Request, transition string) *Error {
	return Statef(ErrInvalidTransition.Code, "cannot %s a request that is %s", transition, req.Status)
}

// Available lists the transitions actor could apply to req right now.
// POST: Every returned transition would succeed through Apply at now
func (rt Router) Available(req Request, actor Actor, now time.Time) []string {
	var out []string
	for _, t := range []string{TransitionApprove, TransitionForward, TransitionReject, TransitionRevoke, TransitionRequestCancel} {
		if _, err := rt.Apply(req, actor, Command{Transition: t, Reason: "-"}, now); err == nil {
			out = append(out, t)
		}
	}
	return out
}
