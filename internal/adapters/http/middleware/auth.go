package middleware

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"sync"
	"time"

	"campus/internal/domain/absence"
)

// contextKey is an unexported type for context keys in this package.
type contextKey string

const sessionContextKey contextKey = "session"

// SessionTTL is how long a session stays valid after login.
const SessionTTL = 12 * time.Hour

// Session is an authenticated login. ActorID is the student ID for students
// and the account ID for staff.
type Session struct {
	AccountID string
	ActorID   string
	Email     string
	Role      string
	Sections  []string
	CreatedAt time.Time
}

// Actor returns the identity the lifecycle operations run as.
func (s Session) Actor() absence.Actor {
	return absence.Actor{ID: s.ActorID, Role: s.Role, Sections: s.Sections}
}

// SessionStore is an in-memory session store.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
	now      func() time.Time
}

// NewSessionStore creates a new in-memory session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]Session), now: time.Now}
}

// Create stores a session and returns its token.
// PRE: s.AccountID and s.Role are non-empty
// POST: Session is stored with CreatedAt set
func (ss *SessionStore) Create(s Session) (string, error) {
	token, err := generateToken()
	if err != nil {
		return "", err
	}
	s.CreatedAt = ss.now()
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.sessions[token] = s
	return token, nil
}

// Get returns the session for token unless it is unknown or expired.
func (ss *SessionStore) Get(token string) (Session, bool) {
	ss.mu.RLock()
	s, ok := ss.sessions[token]
	ss.mu.RUnlock()
	if !ok {
		return Session{}, false
	}
	if ss.now().Sub(s.CreatedAt) > SessionTTL {
		ss.Delete(token)
		return Session{}, false
	}
	return s, true
}

// Delete removes a session by token.
func (ss *SessionStore) Delete(token string) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	delete(ss.sessions, token)
}

// DeleteAccount removes every session of an account, e.g. after a password change.
// POST: Returns the number of sessions removed
func (ss *SessionStore) DeleteAccount(accountID string) int {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	n := 0
	for token, s := range ss.sessions {
		if s.AccountID == accountID {
			delete(ss.sessions, token)
			n++
		}
	}
	return n
}

// SessionCookieName is the cookie carrying the session token.
const SessionCookieName = "campus_session"

// SecureCookies marks session cookies Secure; enabled in production.
var SecureCookies = false

// Auth returns middleware that attaches the session from the cookie to the context.
// It does not block unauthenticated requests; use RequireAuth or RequireRole for that.
func Auth(sessions *SessionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
				if s, ok := sessions.Get(cookie.Value); ok {
					r = r.WithContext(ContextWithSession(r.Context(), s))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuth blocks requests without a session with 401.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetSessionFromContext(r.Context()); !ok {
			writeStatus(w, http.StatusUnauthorized, "unauthenticated", "login required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole blocks requests without a session (401) or from other roles (403).
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	roleSet := make(map[string]bool, len(roles))
	for _, r := range roles {
		roleSet[r] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s, ok := GetSessionFromContext(r.Context())
			if !ok {
				writeStatus(w, http.StatusUnauthorized, "unauthenticated", "login required")
				return
			}
			if !roleSet[s.Role] {
				writeStatus(w, http.StatusForbidden, "role_required", "this endpoint is not available to "+s.Role+" accounts")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetSessionFromContext extracts the session from the request context.
func GetSessionFromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionContextKey).(Session)
	return s, ok
}

// ContextWithSession returns a context carrying sess.
func ContextWithSession(ctx context.Context, sess Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, sess)
}

// SetSessionCookie sets the session cookie on the response.
func SetSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		HttpOnly: true,
		Secure:   SecureCookies,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
		MaxAge:   int(SessionTTL.Seconds()),
	})
}

// ClearSessionCookie removes the session cookie.
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		HttpOnly: true,
		Secure:   SecureCookies,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
		MaxAge:   -1,
	})
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
