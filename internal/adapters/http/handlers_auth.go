package web

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/csrf"

	"campus/internal/adapters/http/middleware"
	"campus/internal/application/orchestrators"
)

type loginBody struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type sessionView struct {
	AccountID string   `json:"account_id"`
	ActorID   string   `json:"actor_id"`
	Email     string   `json:"email"`
	Role      string   `json:"role"`
	Sections  []string `json:"sections,omitempty"`
}

func newSessionView(s middleware.Session) sessionView {
	return sessionView{AccountID: s.AccountID, ActorID: s.ActorID, Email: s.Email, Role: s.Role, Sections: s.Sections}
}

// handleLogin checks credentials and starts a session.
func handleLogin(w http.ResponseWriter, r *http.Request) {
	var body loginBody
	if err := strictDecode(r, &body); err != nil {
		writeError(w, err)
		return
	}
	acct, err := orchestrators.ExecuteLogin(r.Context(), orchestrators.LoginInput{Email: body.Email, Password: body.Password},
		orchestrators.LoginDeps{AccountStore: stores.AccountStore, Now: timeNow})
	if err != nil {
		writeError(w, err)
		return
	}
	sess := middleware.Session{
		AccountID: acct.ID,
		ActorID:   acct.ActorID(),
		Email:     acct.Email,
		Role:      acct.Role,
		Sections:  acct.Sections,
	}
	token, err := sessions.Create(sess)
	if err != nil {
		internalError(w, err)
		return
	}
	middleware.SetSessionCookie(w, token)
	writeJSON(w, http.StatusOK, newSessionView(sess))
}

// handleLogout ends the current session. It succeeds without one.
func handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(middleware.SessionCookieName); err == nil {
		sessions.Delete(cookie.Value)
	}
	middleware.ClearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func handleMe(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.GetSessionFromContext(r.Context())
	writeJSON(w, http.StatusOK, newSessionView(sess))
}

// handleCSRFToken issues the token required for non-JSON posts such as the roster import.
func handleCSRFToken(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"token": csrf.Token(r), "header": "X-CSRF-Token"})
}

type changePasswordBody struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=12"`
}

// handleChangePassword updates the password and replaces every session of the
// account with a fresh one for the caller.
func handleChangePassword(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.GetSessionFromContext(r.Context())
	var body changePasswordBody
	if err := strictDecode(r, &body); err != nil {
		writeError(w, err)
		return
	}
	err := orchestrators.ExecuteChangePassword(r.Context(), orchestrators.ChangePasswordInput{
		AccountID:       sess.AccountID,
		CurrentPassword: body.CurrentPassword,
		NewPassword:     body.NewPassword,
	}, orchestrators.ChangePasswordDeps{AccountStore: stores.AccountStore, Now: timeNow})
	if err != nil {
		writeError(w, err)
		return
	}

	revoked := sessions.DeleteAccount(sess.AccountID)
	slog.Info("auth_event", "event", "sessions_revoked", "account_id", sess.AccountID, "count", revoked)
	token, err := sessions.Create(sess)
	if err != nil {
		internalError(w, err)
		return
	}
	middleware.SetSessionCookie(w, token)
	w.WriteHeader(http.StatusNoContent)
}
