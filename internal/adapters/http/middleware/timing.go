package middleware

import (
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"
)

// DefaultSlowRequest is the threshold above which a request is logged at WARN.
const DefaultSlowRequest = 200 * time.Millisecond

// RequestStats counts served requests by outcome.
type RequestStats struct {
	total       atomic.Int64
	slow        atomic.Int64
	clientError atomic.Int64
	serverError atomic.Int64
}

// RequestCounts is a point-in-time copy of RequestStats.
type RequestCounts struct {
	Total       int64 `json:"total"`
	Slow        int64 `json:"slow"`
	ClientError int64 `json:"client_error"`
	ServerError int64 `json:"server_error"`
}

// Snapshot returns the current counts.
func (s *RequestStats) Snapshot() RequestCounts {
	return RequestCounts{
		Total:       s.total.Load(),
		Slow:        s.slow.Load(),
		ClientError: s.clientError.Load(),
		ServerError: s.serverError.Load(),
	}
}

var requestIDCounter atomic.Uint64

// statusWriter captures the status code written by the handler.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (sw *statusWriter) WriteHeader(code int) {
	sw.status = code
	sw.ResponseWriter.WriteHeader(code)
}

// Timing logs each request's duration and status. Slow requests log at WARN,
// others at DEBUG. A nil stats skips counting.
func Timing(stats *RequestStats, threshold time.Duration) func(http.Handler) http.Handler {
	if threshold <= 0 {
		threshold = DefaultSlowRequest
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqID := requestIDCounter.Add(1)
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(sw, r)

			elapsed := time.Since(start)
			attrs := []any{
				"request_id", reqID,
				"method", r.Method,
				"path", r.URL.Path,
				"status", sw.status,
				"duration_ms", float64(elapsed.Microseconds()) / 1000.0,
			}
			if elapsed >= threshold {
				slog.Warn("slow_request", attrs...)
			} else {
				slog.Debug("request", attrs...)
			}
			if stats == nil {
				return
			}
			stats.total.Add(1)
			if elapsed >= threshold {
				stats.slow.Add(1)
			}
			switch {
			case sw.status >= 500:
				stats.serverError.Add(1)
			case sw.status >= 400:
				stats.clientError.Add(1)
			}
		})
	}
}
