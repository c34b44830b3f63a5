package orchestrators

import (
	"context"
	"log/slog"
	"time"

	"campus/internal/domain/absence"
)

// RequestStoreForTransition defines the store interface needed by TransitionRequest.
type RequestStoreForTransition interface {
	GetByID(ctx context.Context, id string) (absence.Request, error)
	UpdateIfStatus(ctx context.Context, req absence.Request, expectedStatus string, expectedVersion int) error
}

// TransitionRequestInput carries an actor's command against a stored request.
type TransitionRequestInput struct {
	RequestID  string
	Actor      absence.Actor
	Transition string
	Reason     string
}

// TransitionRequestDeps holds dependencies for TransitionRequest.
type TransitionRequestDeps struct {
	RequestStore RequestStoreForTransition
	Router       absence.Router
	Notifier     Notifier
	Now          func() time.Time
}

// ExecuteTransitionRequest applies one lifecycle transition.
// PRE: Actor comes from the authenticated session
// POST: The new state is written with a conditional update and the event is published
// INVARIANT: A concurrent writer causes a stale_state error, never a lost update
func ExecuteTransitionRequest(ctx context.Context, input TransitionRequestInput, deps TransitionRequestDeps) (absence.Request, error) {
	if !absence.IsTransition(input.Transition) {
		return absence.Request{}, absence.Validationf("unknown_transition", "unknown transition %q", input.Transition)
	}
	current, err := deps.RequestStore.GetByID(ctx, input.RequestID)
	if err != nil {
		return absence.Request{}, err
	}

	out, err := deps.Router.Apply(current, input.Actor, absence.Command{Transition: input.Transition, Reason: input.Reason}, deps.Now())
	if err != nil {
		slog.Info("absence_event", "event", "transition_refused", "request_id", current.ID, "transition", input.Transition,
			"role", input.Actor.Role, "actor_id", input.Actor.ID, "status", current.Status, "error", err)
		return absence.Request{}, err
	}
	if err := deps.RequestStore.UpdateIfStatus(ctx, out.Request, out.From, current.Version); err != nil {
		return absence.Request{}, err
	}

	slog.Info("absence_event", "event", out.Event, "request_id", out.Request.ID, "from", out.From,
		"to", out.Request.Status, "role", input.Actor.Role, "actor_id", input.Actor.ID)
	if deps.Notifier != nil {
		deps.Notifier.Notify(ctx, out.Event, out.Request)
	}
	return out.Request, nil
}
