package web

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"campus/internal/adapters/http/middleware"
	absenceStore "campus/internal/adapters/storage/absence"
	accountStore "campus/internal/adapters/storage/account"
	attendanceStore "campus/internal/adapters/storage/attendance"
	examStore "campus/internal/adapters/storage/exam"
	holidayStore "campus/internal/adapters/storage/holiday"
	outboxStore "campus/internal/adapters/storage/outbox"
	studentStore "campus/internal/adapters/storage/student"
	termStore "campus/internal/adapters/storage/term"
	"campus/internal/application/orchestrators"
	"campus/internal/config"
	"campus/internal/domain/absence"
)

// Stores holds all storage dependencies.
type Stores struct {
	AccountStore    accountStore.Store
	StudentStore    studentStore.Store
	RequestStore    absenceStore.Store
	AttendanceStore attendanceStore.Store
	HolidayStore    holidayStore.Store
	TermStore       termStore.Store
	ExamStore       examStore.Store
	OutboxStore     outboxStore.Store
}

// QueryStatser reports database query counters.
type QueryStatser interface {
	QueryStats() (total, slow int64)
}

// Deps holds everything the handlers need besides the stores.
type Deps struct {
	Config   config.Config
	Router   absence.Router
	Notifier orchestrators.Notifier
	Outbox   *orchestrators.OutboxProcessor
	DBStats  QueryStatser // optional
	// Stop ends background work started by NewMux (rate limiter cleanup).
	Stop <-chan struct{}
}

// Global stores instance (set by NewMux)
var stores *Stores

// Global handler dependencies (set by NewMux)
var deps Deps

// Global session store instance
var sessions *middleware.SessionStore

// Request counters served by /api/admin/stats
var requestStats *middleware.RequestStats

// RateLimitPerSecond controls the per-IP rate limit. Tests can increase this.
var RateLimitPerSecond = 10

// SlowRequest is the Timing middleware threshold.
var SlowRequest = middleware.DefaultSlowRequest

// timeNow is a variable for testability.
var timeNow = time.Now

// generateID creates a new UUID string.
func generateID() string {
	return uuid.New().String()
}

// NewMux wires HTTP handlers for the app.
func NewMux(s *Stores, d Deps) http.Handler {
	stores = s
	deps = d
	if deps.Config.Location == nil {
		deps.Config.Location = time.UTC
	}
	sessions = middleware.NewSessionStore()
	requestStats = &middleware.RequestStats{}
	middleware.SecureCookies = d.Config.IsProduction()

	mux := http.NewServeMux()
	registerRoutes(mux)

	limiter := middleware.NewRateLimiter(RateLimitPerSecond, time.Second)
	if d.Stop != nil {
		limiter.StartCleanup(d.Stop)
	}

	// Timing -> SecurityHeaders -> RateLimit -> Auth -> CSRF -> Mux
	return middleware.Chain(mux,
		middleware.CSRF(d.Config.CSRFKey, d.Config.IsProduction(), nil),
		middleware.Auth(sessions),
		middleware.RateLimit(limiter),
		middleware.SecurityHeaders,
		middleware.Timing(requestStats, SlowRequest),
	)
}

func registerRoutes(mux *http.ServeMux) {
	staff := middleware.RequireRole(absence.RoleTutor, absence.RoleAdmin)
	admin := middleware.RequireRole(absence.RoleAdmin)
	student := middleware.RequireRole(absence.RoleStudent)
	auth := middleware.RequireAuth

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("POST /login", handleLogin)
	mux.HandleFunc("POST /logout", handleLogout)

	mux.Handle("GET /api/me", auth(http.HandlerFunc(handleMe)))
	mux.Handle("GET /api/csrf", auth(http.HandlerFunc(handleCSRFToken)))
	mux.Handle("POST /api/password", auth(http.HandlerFunc(handleChangePassword)))

	mux.Handle("GET /api/requests", auth(http.HandlerFunc(handleListRequests)))
	mux.Handle("POST /api/requests", student(http.HandlerFunc(handleSubmitRequest)))
	mux.Handle("GET /api/requests/{id}", auth(http.HandlerFunc(handleGetRequest)))
	mux.Handle("POST /api/requests/{id}/{action}", auth(http.HandlerFunc(handleTransition)))
	mux.Handle("GET /api/queue", staff(http.HandlerFunc(handleApprovalQueue)))
	mux.Handle("GET /api/eligibility", auth(http.HandlerFunc(handleEligibility)))
	mux.Handle("GET /api/conflicts", auth(http.HandlerFunc(handleConflicts)))

	mux.Handle("GET /api/holidays", auth(http.HandlerFunc(handleListHolidays)))
	mux.Handle("POST /api/holidays", admin(http.HandlerFunc(handleAddHoliday)))
	mux.Handle("GET /api/terms", auth(http.HandlerFunc(handleListTerms)))
	mux.Handle("POST /api/terms", admin(http.HandlerFunc(handleAddTerm)))
	mux.Handle("GET /api/exams", auth(http.HandlerFunc(handleListExams)))
	mux.Handle("POST /api/exams", admin(http.HandlerFunc(handleScheduleExam)))

	mux.Handle("POST /api/students", admin(http.HandlerFunc(handleRegisterStudent)))
	mux.Handle("POST /api/students/import", admin(http.HandlerFunc(handleImportStudents)))
	mux.Handle("POST /api/accounts", admin(http.HandlerFunc(handleCreateAccount)))
	mux.Handle("POST /api/attendance", staff(http.HandlerFunc(handleRecordAttendance)))

	mux.Handle("GET /api/admin/outbox", admin(http.HandlerFunc(handleListOutbox)))
	mux.Handle("POST /api/admin/outbox/{id}/{action}", admin(http.HandlerFunc(handleOutboxAction)))
	mux.Handle("GET /api/admin/stats", admin(http.HandlerFunc(handleStats)))
}

// handleHealth reports liveness. It pings the store through the account count.
func handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if _, err := stores.AccountStore.Count(ctx); err != nil {
		writeErrorBody(w, http.StatusServiceUnavailable, errorBody{Kind: "internal", Code: "store_unavailable", Message: "database unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// actorOf returns the actor of an authenticated request.
// PRE: route is wrapped by RequireAuth or RequireRole
func actorOf(r *http.Request) absence.Actor {
	sess, _ := middleware.GetSessionFromContext(r.Context())
	return sess.Actor()
}
