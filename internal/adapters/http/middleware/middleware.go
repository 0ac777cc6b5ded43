package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/csrf"
)

// visitorTTL is how long an idle client keeps its bucket.
const visitorTTL = 5 * time.Minute

// RateLimiter is a per-client token bucket.
type RateLimiter struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	rate      int
	interval  time.Duration
	lastSweep time.Time
	now       func() time.Time
}

type visitor struct {
	tokens   int
	lastSeen time.Time
}

// NewRateLimiter allows rate requests per interval for each client.
func NewRateLimiter(rate int, interval time.Duration) *RateLimiter {
	return &RateLimiter{
		visitors:  make(map[string]*visitor),
		rate:      rate,
		interval:  interval,
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

// Allow takes a token for client.
// PRE: client is non-empty
// POST: Returns false when the client's bucket is empty
func (rl *RateLimiter) Allow(client string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastSweep) > time.Minute {
		for k, v := range rl.visitors {
			if now.Sub(v.lastSeen) > visitorTTL {
				delete(rl.visitors, k)
			}
		}
		rl.lastSweep = now
	}

	v, ok := rl.visitors[client]
	if !ok {
		rl.visitors[client] = &visitor{tokens: rl.rate - 1, lastSeen: now}
		return true
	}

	refill := int(now.Sub(v.lastSeen)/rl.interval) * rl.rate
	v.tokens = min(v.tokens+refill, rl.rate)
	v.lastSeen = now

	if v.tokens <= 0 {
		slog.Warn("rate_limit_exceeded", "client", client)
		return false
	}
	v.tokens--
	return true
}

// RateLimit rejects clients that exceed the limiter with 429.
func RateLimit(limiter *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(clientIP(r)) {
				http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// SecurityHeaders adds OWASP recommended headers. Chart images are served
// from the same origin, so img-src only needs 'self' and data: URIs.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'; script-src 'self'; img-src 'self' data:; connect-src 'self'")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// CSRFConfig configures the CSRF middleware.
type CSRFConfig struct {
	Key            []byte // 32 bytes
	Secure         bool   // cookies only over HTTPS
	TrustedOrigins []string
}

// CSRF protects form submissions. JSON API requests are exempt, and requests
// that arrived over plain HTTP are marked as such so origin checks still apply.
func CSRF(cfg CSRFConfig) func(http.Handler) http.Handler {
	protect := csrf.Protect(
		cfg.Key,
		csrf.Secure(cfg.Secure),
		csrf.Path("/"),
		csrf.TrustedOrigins(cfg.TrustedOrigins),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			slog.Warn("csrf_rejected", "path", r.URL.Path, "reason", csrf.FailureReason(r))
			http.Error(w, "Forbidden - CSRF token invalid", http.StatusForbidden)
		})),
	)

	return func(next http.Handler) http.Handler {
		protected := protect(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
				next.ServeHTTP(w, r)
				return
			}
			if r.TLS == nil {
				r = csrf.PlaintextHTTPRequest(r)
			}
			protected.ServeHTTP(w, r)
		})
	}
}

// Chain applies middlewares in order; the last one listed is the outermost.
func Chain(h http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	for _, m := range middlewares {
		h = m(h)
	}
	return h
}
