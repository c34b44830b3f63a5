package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"campus/internal/domain/absence"
)

// TestSessionStore covers creation, expiry and per-account revocation.
func TestSessionStore(t *testing.T) {
	now := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	ss := NewSessionStore()
	ss.now = func() time.Time { return now }

	tok, err := ss.Create(Session{AccountID: "acc-1", ActorID: "stu-1", Role: absence.RoleStudent})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	s, ok := ss.Get(tok)
	if !ok || s.Actor().ID != "stu-1" || s.Actor().Role != absence.RoleStudent {
		t.Fatalf("Get() = %+v, %v", s, ok)
	}

	other, _ := ss.Create(Session{AccountID: "acc-1", ActorID: "stu-1", Role: absence.RoleStudent})
	if n := ss.DeleteAccount("acc-1"); n != 2 {
		t.Errorf("DeleteAccount removed %d, want 2", n)
	}
	if _, ok := ss.Get(other); ok {
		t.Error("revoked session still valid")
	}

	tok, _ = ss.Create(Session{AccountID: "acc-2", Role: absence.RoleAdmin})
	now = now.Add(SessionTTL + time.Minute)
	if _, ok := ss.Get(tok); ok {
		t.Error("expired session still valid")
	}
}

// TestRequireRole verifies 401 without a session and 403 for other roles.
func TestRequireRole(t *testing.T) {
	h := RequireRole(absence.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	tests := []struct {
		name    string
		session *Session
		want    int
	}{
		{"anonymous", nil, http.StatusUnauthorized},
		{"tutor", &Session{AccountID: "t", Role: absence.RoleTutor}, http.StatusForbidden},
		{"admin", &Session{AccountID: "a", Role: absence.RoleAdmin}, http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/admin/outbox", nil)
			if tt.session != nil {
				req = req.WithContext(ContextWithSession(req.Context(), *tt.session))
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			if rr.Code != tt.want {
				t.Errorf("status = %d, want %d", rr.Code, tt.want)
			}
			if tt.want >= 400 && !strings.Contains(rr.Body.String(), `"error"`) {
				t.Errorf("body = %s", rr.Body.String())
			}
		})
	}
}

// TestRateLimiter verifies the bucket empties and refills.
func TestRateLimiter(t *testing.T) {
	now := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(2, time.Second)
	rl.now = func() time.Time { return now }

	if !rl.Allow("10.0.0.1") || !rl.Allow("10.0.0.1") {
		t.Fatal("first two requests must pass")
	}
	if rl.Allow("10.0.0.1") {
		t.Error("third request in the same second must be limited")
	}
	if !rl.Allow("10.0.0.2") {
		t.Error("other IPs have their own bucket")
	}
	now = now.Add(time.Second)
	if !rl.Allow("10.0.0.1") {
		t.Error("bucket should refill after the interval")
	}
	now = now.Add(10 * time.Minute)
	rl.evict(5 * time.Minute)
	if len(rl.visitors) != 0 {
		t.Errorf("evict left %d visitors", len(rl.visitors))
	}
}

// TestCSRF_ExemptsJSON verifies JSON posts pass and form posts need a token.
func TestCSRF_ExemptsJSON(t *testing.T) {
	h := CSRF(make([]byte, 32), false, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/requests", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusNoContent {
		t.Errorf("json status = %d", rr.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/students/import", strings.NewReader("ID,NAME"))
	req.Header.Set("Content-Type", "text/csv")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Errorf("csv status = %d, want 403", rr.Code)
	}
}
