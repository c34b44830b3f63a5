package projections

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"campus/internal/domain/absence"
	"campus/internal/domain/calendar"
)

// RequestView is the read model of a request returned to clients.
type RequestView struct {
	ID              string          `json:"id"`
	Kind            string          `json:"kind"`
	RequesterID     string          `json:"requester_id"`
	StudentName     string          `json:"student_name,omitempty"`
	Section         string          `json:"section"`
	Batch           string          `json:"batch"`
	Category        string          `json:"category"`
	StartDate       string          `json:"start_date"`
	EndDate         string          `json:"end_date"`
	Duration        string          `json:"duration"`
	WorkingDays     decimal.Decimal `json:"working_days"`
	Reason          string          `json:"reason"`
	PlaceToVisit    string          `json:"place_to_visit,omitempty"`
	ProofURL        string          `json:"proof_url,omitempty"`
	Status          string          `json:"status"`
	DecisionRole    string          `json:"decision_role,omitempty"`
	DecisionBy      string          `json:"decision_by,omitempty"`
	DecidedAt       string          `json:"decided_at,omitempty"`
	RejectionReason string          `json:"rejection_reason,omitempty"`
	ForwardedBy     string          `json:"forwarded_by,omitempty"`
	ForwardedAt     string          `json:"forwarded_at,omitempty"`
	CancelledFrom   string          `json:"cancelled_from,omitempty"`
	Version         int             `json:"version"`
	CreatedAt       string          `json:"created_at"`
	UpdatedAt       string          `json:"updated_at"`
	Actions         []string        `json:"actions,omitempty"`
}

// NewRequestView maps a stored request to its read model.
func NewRequestView(r absence.Request) RequestView {
	return RequestView{
		ID:              r.ID,
		Kind:            r.Kind,
		RequesterID:     r.RequesterID,
		Section:         r.Section,
		Batch:           r.Batch,
		Category:        r.Category,
		StartDate:       r.StartDate.Format(calendar.DateLayout),
		EndDate:         r.EndDate.Format(calendar.DateLayout),
		Duration:        r.Duration,
		WorkingDays:     r.WorkingDays,
		Reason:          r.Reason,
		PlaceToVisit:    r.PlaceToVisit,
		ProofURL:        r.ProofURL,
		Status:          r.Status,
		DecisionRole:    r.DecisionRole,
		DecisionBy:      r.DecisionBy,
		DecidedAt:       timestamp(r.DecidedAt),
		RejectionReason: r.RejectionReason,
		ForwardedBy:     r.ForwardedBy,
		ForwardedAt:     timestamp(r.ForwardedAt),
		CancelledFrom:   r.CancelledFrom,
		Version:         r.Version,
		CreatedAt:       timestamp(r.CreatedAt),
		UpdatedAt:       timestamp(r.UpdatedAt),
	}
}

func timestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// nameCache resolves student names once per query. A nil store leaves names empty.
type nameCache struct {
	store StudentStore
	names map[string]string
}

func newNameCache(store StudentStore) *nameCache {
	return &nameCache{store: store, names: make(map[string]string)}
}

func (c *nameCache) lookup(ctx context.Context, id string) string {
	if c.store == nil {
		return ""
	}
	if name, ok := c.names[id]; ok {
		return name
	}
	name := ""
	if st, err := c.store.GetByID(ctx, id); err == nil {
		name = st.Name
	}
	c.names[id] = name
	return name
}
