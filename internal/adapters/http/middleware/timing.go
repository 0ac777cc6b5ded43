package middleware

import (
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"society/internal/adapters/http/perf"
)

// DefaultSlowRequestMs is the default threshold for slow request warnings.
const DefaultSlowRequestMs = 200

// SlowRequestThreshold reads SOCIETY_SLOW_REQUEST_MS once.
var SlowRequestThreshold = sync.OnceValue(func() float64 {
	if v := os.Getenv("SOCIETY_SLOW_REQUEST_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return float64(n)
		}
	}
	return DefaultSlowRequestMs
})

// RequestIDHeader carries the per-request ID back to the client.
const RequestIDHeader = "X-Request-ID"

type statusWriter struct {
	http.ResponseWriter
	status int
}

// WriteHeader captures the status code.
func (sw *statusWriter) WriteHeader(code int) {
	sw.status = code
	sw.ResponseWriter.WriteHeader(code)
}

// Timing logs request duration and feeds the perf collector.
// Static assets are skipped. Entries are keyed by method and path; query strings
// are dropped so every chart size aggregates under one route.
func Timing(collector *perf.Collector) func(http.Handler) http.Handler {
	threshold := SlowRequestThreshold()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, "/static/") {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			reqID := uuid.NewString()
			w.Header().Set(RequestIDHeader, reqID)
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

			defer func() {
				durationMs := float64(time.Since(start).Microseconds()) / 1000.0
				route := r.Method + " " + r.URL.Path

				attrs := []any{
					"request_id", reqID,
					"route", route,
					"status", sw.status,
					"duration_ms", durationMs,
				}
				if durationMs >= threshold {
					slog.Warn("slow_request", attrs...)
				} else {
					slog.Debug("request", attrs...)
				}

				if collector != nil {
					collector.Record(perf.Entry{
						Kind:       perf.KindRequest,
						Path:       route,
						StatusCode: sw.status,
						DurationMs: durationMs,
						Timestamp:  start,
					})
				}
			}()

			next.ServeHTTP(sw, r)
		})
	}
}
