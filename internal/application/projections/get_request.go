package projections

import (
	"context"
	"time"

	"campus/internal/domain/absence"
)

// GetRequestQuery carries query parameters.
type GetRequestQuery struct {
	Actor     absence.Actor
	RequestID string
}

// GetRequestDeps holds dependencies for GetRequest.
type GetRequestDeps struct {
	RequestStore RequestStore
	StudentStore StudentStore
	Router       absence.Router
	Now          func() time.Time
}

// QueryGetRequest returns one request with the actions the actor may take on it.
// PRE: Actor comes from the authenticated session
// POST: Returns an authorization *absence.Error when the request is outside the actor's scope
func QueryGetRequest(ctx context.Context, query GetRequestQuery, deps GetRequestDeps) (RequestView, error) {
	req, err := deps.RequestStore.GetByID(ctx, query.RequestID)
	if err != nil {
		return RequestView{}, err
	}
	if !visibleTo(req, query.Actor) {
		return RequestView{}, absence.Deniedf(absence.ErrOutsideScope.Code, "request %s is outside your scope", req.ID)
	}

	now := time.Now
	if deps.Now != nil {
		now = deps.Now
	}
	v := NewRequestView(req)
	v.StudentName = newNameCache(deps.StudentStore).lookup(ctx, req.RequesterID)
	v.Actions = deps.Router.Available(req, query.Actor, now())
	return v, nil
}

func visibleTo(req absence.Request, actor absence.Actor) bool {
	switch actor.Role {
	case absence.RoleStudent:
		return req.RequesterID == actor.ID
	case absence.RoleTutor:
		return actor.InSection(req.Section)
	case absence.RoleAdmin:
		return true
	}
	return false
}
