package projections

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"campus/internal/domain/absence"
)

func testRouter() absence.Router {
	return absence.NewRouter(decimal.NewFromInt(2), time.UTC)
}

// TestQueryGetRequest covers visibility and the offered actions.
func TestQueryGetRequest(t *testing.T) {
	outsider := absence.Actor{ID: "tut-9", Role: absence.RoleTutor, Sections: []string{"MECH-C"}}
	tests := []struct {
		name        string
		actor       absence.Actor
		id          string
		wantErr     error
		wantActions []string
	}{
		{"owner", studentActor, "r1", nil, []string{absence.TransitionRequestCancel}},
		{"other student", absence.Actor{ID: "stu-2", Role: absence.RoleStudent}, "r1", absence.ErrAuthorization, nil},
		{"tutor in section", tutorActor, "r1", nil, []string{absence.TransitionApprove, absence.TransitionReject}},
		{"tutor outside section", outsider, "r1", absence.ErrAuthorization, nil},
		{"admin forwarded", adminActor, "r3", nil, []string{absence.TransitionApprove, absence.TransitionReject}},
		{"missing", adminActor, "nope", absence.ErrNotFound, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := QueryGetRequest(context.Background(), GetRequestQuery{Actor: tt.actor, RequestID: tt.id}, GetRequestDeps{
				RequestStore: seededRequests(),
				StudentStore: seededStudents(),
				Router:       testRouter(),
				Now:          fixedNow,
			})
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if v.ID != tt.id {
				t.Errorf("ID = %q", v.ID)
			}
			if !sameIDs(v.Actions, tt.wantActions) {
				t.Errorf("Actions = %v, want %v", v.Actions, tt.wantActions)
			}
		})
	}
}

// TestNewRequestView verifies wire formatting of dates and optional fields.
func TestNewRequestView(t *testing.T) {
	r := request("r1", "stu-1", "CSE-A", absence.StatusApproved, nov(3), 2)
	r.WorkingDays = decimal.RequireFromString("1.5")
	r.DecidedAt = fixedTime
	v := NewRequestView(r)
	if v.StartDate != "2026-11-03" || v.EndDate != "2026-11-04" {
		t.Errorf("dates = %s..%s", v.StartDate, v.EndDate)
	}
	if v.DecidedAt != "2026-10-15T09:30:00Z" {
		t.Errorf("DecidedAt = %q", v.DecidedAt)
	}
	if v.ForwardedAt != "" {
		t.Errorf("zero ForwardedAt should render empty, got %q", v.ForwardedAt)
	}
	if v.WorkingDays.String() != "1.5" {
		t.Errorf("WorkingDays = %s", v.WorkingDays)
	}
}
