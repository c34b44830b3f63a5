package projections

import (
	"context"
	"strings"
	"time"

	absenceStore "campus/internal/adapters/storage/absence"
	"campus/internal/domain/absence"
)

// queueLimit bounds a single approval queue read.
const queueLimit = 500

// GetApprovalQueueQuery carries query parameters.
type GetApprovalQueueQuery struct {
	Actor absence.Actor
}

// GetApprovalQueueResult carries the query result.
type GetApprovalQueueResult struct {
	Requests []RequestView `json:"requests"`
}

// GetApprovalQueueDeps holds dependencies for GetApprovalQueue.
type GetApprovalQueueDeps struct {
	RequestStore RequestStore
	StudentStore StudentStore
	Router       absence.Router
	Now          func() time.Time
}

// QueryGetApprovalQueue lists the requests waiting on the actor's decision,
// oldest start date first.
// PRE: Actor is a tutor or admin
// POST: Tutors see pending requests in their sections and the cancellations they own;
// admins see forwarded requests and the remaining cancellations
func QueryGetApprovalQueue(ctx context.Context, query GetApprovalQueueQuery, deps GetApprovalQueueDeps) (GetApprovalQueueResult, error) {
	var filter absenceStore.Filter
	switch query.Actor.Role {
	case absence.RoleTutor:
		if len(query.Actor.Sections) == 0 {
			return GetApprovalQueueResult{Requests: []RequestView{}}, nil
		}
		for _, sec := range query.Actor.Sections {
			filter.Sections = append(filter.Sections, strings.ToUpper(sec))
		}
		filter.Statuses = []string{absence.StatusPending, absence.StatusCancelRequested}
	case absence.RoleAdmin:
		filter.Statuses = []string{absence.StatusPendingAdmin, absence.StatusCancelRequested}
	default:
		return GetApprovalQueueResult{}, absence.Deniedf(absence.ErrTransitionDenied.Code, "%s has no approval queue", query.Actor.Role)
	}
	filter.Limit = queueLimit

	list, _, err := deps.RequestStore.List(ctx, filter)
	if err != nil {
		return GetApprovalQueueResult{}, err
	}

	now := time.Now
	if deps.Now != nil {
		now = deps.Now
	}
	names := newNameCache(deps.StudentStore)
	views := make([]RequestView, 0, len(list))
	for _, r := range list {
		if r.Status == absence.StatusCancelRequested && r.TutorOwnsCancellation() != (query.Actor.Role == absence.RoleTutor) {
			continue
		}
		v := NewRequestView(r)
		v.StudentName = names.lookup(ctx, r.RequesterID)
		v.Actions = deps.Router.Available(r, query.Actor, now())
		views = append(views, v)
	}
	return GetApprovalQueueResult{Requests: views}, nil
}
