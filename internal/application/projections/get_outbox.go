package projections

import (
	"context"

	domainOutbox "campus/internal/domain/outbox"
)

const outboxListLimit = 100

// OutboxEntryView is an outbox entry shown to administrators. The payload is
// omitted because it carries message bodies.
type OutboxEntryView struct {
	ID              string `json:"id"`
	ActionType      string `json:"action_type"`
	Status          string `json:"status"`
	Attempts        int    `json:"attempts"`
	MaxAttempts     int    `json:"max_attempts"`
	LastAttemptedAt string `json:"last_attempted_at,omitempty"`
	CreatedAt       string `json:"created_at"`
	ErrorMessage    string `json:"error_message,omitempty"`
}

// GetOutboxResult carries the query result.
type GetOutboxResult struct {
	Pending []OutboxEntryView `json:"pending"`
	Failed  []OutboxEntryView `json:"failed"`
}

// GetOutboxDeps holds dependencies for GetOutbox.
type GetOutboxDeps struct {
	OutboxStore OutboxStore
}

// QueryGetOutbox lists queued and failed notification deliveries.
// POST: Each list holds at most outboxListLimit entries
func QueryGetOutbox(ctx context.Context, deps GetOutboxDeps) (GetOutboxResult, error) {
	pending, err := deps.OutboxStore.ListPending(ctx, outboxListLimit)
	if err != nil {
		return GetOutboxResult{}, err
	}
	failed, err := deps.OutboxStore.ListFailed(ctx, outboxListLimit)
	if err != nil {
		return GetOutboxResult{}, err
	}
	return GetOutboxResult{Pending: outboxViews(pending), Failed: outboxViews(failed)}, nil
}

func outboxViews(list []domainOutbox.Entry) []OutboxEntryView {
	out := make([]OutboxEntryView, 0, len(list))
	for _, e := range list {
		out = append(out, OutboxEntryView{
			ID:              e.ID,
			ActionType:      e.ActionType,
			Status:          e.Status,
			Attempts:        e.Attempts,
			MaxAttempts:     e.MaxAttempts,
			LastAttemptedAt: timestamp(e.LastAttemptedAt),
			CreatedAt:       timestamp(e.CreatedAt),
			ErrorMessage:    e.ErrorMessage,
		})
	}
	return out
}
