package web

import (
	"errors"
	"log/slog"
	"net/http"

	"campus/internal/adapters/http/middleware"
	"campus/internal/application/projections"
	"campus/internal/domain/absence"
	"campus/internal/domain/outbox"
)

// handleListOutbox lists queued and permanently failed notification deliveries.
func handleListOutbox(w http.ResponseWriter, r *http.Request) {
	result, err := projections.QueryGetOutbox(r.Context(), projections.GetOutboxDeps{OutboxStore: stores.OutboxStore})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleOutboxAction retries or abandons one entry.
// Routes: POST /api/admin/outbox/{id}/retry, POST /api/admin/outbox/{id}/abandon
func handleOutboxAction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if deps.Outbox == nil {
		writeErrorBody(w, http.StatusServiceUnavailable, errorBody{Kind: "internal", Code: "outbox_disabled", Message: "outbox processing is not configured"})
		return
	}
	entryID := r.PathValue("id")
	action := r.PathValue("action")

	var err error
	switch action {
	case "retry":
		err = deps.Outbox.ProcessSingle(ctx, entryID)
	case "abandon":
		err = deps.Outbox.AbandonEntry(ctx, entryID)
	default:
		writeError(w, absence.Validationf("unknown_action", "unknown outbox action %q", action))
		return
	}
	if errors.Is(err, outbox.ErrNotFound) {
		writeError(w, err)
		return
	}
	if err != nil {
		writeError(w, absence.Statef("outbox_action_failed", "%v", err))
		return
	}

	sess, _ := middleware.GetSessionFromContext(ctx)
	slog.Info("outbox_event", "event", "admin_"+action, "entry_id", entryID, "account_id", sess.AccountID)
	entry, err := stores.OutboxStore.GetByID(ctx, entryID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": entry.ID, "status": entry.Status, "error_message": entry.ErrorMessage})
}

type statsView struct {
	Requests middleware.RequestCounts `json:"requests"`
	Queries  *queryCounts             `json:"queries,omitempty"`
}

type queryCounts struct {
	Total int64 `json:"total"`
	Slow  int64 `json:"slow"`
}

// handleStats reports request and query counters since startup.
func handleStats(w http.ResponseWriter, r *http.Request) {
	view := statsView{Requests: requestStats.Snapshot()}
	if deps.DBStats != nil {
		total, slow := deps.DBStats.QueryStats()
		view.Queries = &queryCounts{Total: total, Slow: slow}
	}
	writeJSON(w, http.StatusOK, view)
}
