package web

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"society/internal/adapters/email"
	"society/internal/adapters/http/middleware"
	"society/internal/adapters/http/perf"
	contentStore "society/internal/adapters/storage/content"
	digestStore "society/internal/adapters/storage/digest"
	memberStore "society/internal/adapters/storage/member"
	"society/internal/application/orchestrators"
	"society/internal/application/projections"
)

// Stores holds all storage dependencies.
type Stores struct {
	ContentStore contentStore.Store
	MemberStore  memberStore.Store
	DigestStore  digestStore.Store
}

// loadCSRFKey reads the CSRF secret from SOCIETY_CSRF_KEY (hex-encoded, 32 bytes).
// In production, the key MUST be set. In development, a random key is generated per startup.
func loadCSRFKey() []byte {
	if keyHex := os.Getenv("SOCIETY_CSRF_KEY"); keyHex != "" {
		key, err := hex.DecodeString(keyHex)
		if err != nil || len(key) != 32 {
			log.Fatal("SOCIETY_CSRF_KEY must be 64 hex characters (32 bytes)")
		}
		return key
	}
	if isProduction() {
		log.Fatal("SOCIETY_CSRF_KEY is required in production")
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		log.Fatalf("failed to generate CSRF key: %v", err)
	}
	log.Println("WARNING: using random CSRF key (forms won't survive restart). Set SOCIETY_CSRF_KEY for production.")
	return key
}

func isProduction() bool {
	return os.Getenv("SOCIETY_ENV") == "production"
}

// Global stores instance (set by NewMux)
var stores *Stores

// RateLimitPerSecond controls the per-IP rate limit. Tests can increase this.
var RateLimitPerSecond = 20

// Global perf collector (set by NewMux)
var perfCollector *perf.Collector

// Global email sender instance (set by SetEmailSender)
var emailSender email.Sender

// digestRecipients is the default audience of the "send now" digest form.
var digestRecipients []string

// SetEmailSender sets the global email sender for the application.
// From and reply-to addresses are the sender's own defaults.
func SetEmailSender(sender email.Sender) {
	emailSender = sender
}

// SetDigestRecipients sets the addresses the dashboard digest goes to by default.
func SetDigestRecipients(to []string) {
	digestRecipients = to
}

// NewMux wires HTTP handlers for the app.
func NewMux(staticDir string, s *Stores, collector *perf.Collector) http.Handler {
	stores = s
	perfCollector = collector

	mux := http.NewServeMux()
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir))))
	registerRoutes(mux)

	csrfCfg := middleware.CSRFConfig{
		Key:            loadCSRFKey(),
		Secure:         isProduction(),
		TrustedOrigins: trustedOrigins(),
	}

	limiter := middleware.NewRateLimiter(RateLimitPerSecond, time.Second)

	// Apply middleware: Timing -> RateLimit -> CSRF -> SecurityHeaders -> Mux
	return middleware.Chain(mux,
		middleware.SecurityHeaders,
		middleware.CSRF(csrfCfg),
		middleware.RateLimit(limiter),
		middleware.Timing(collector),
	)
}

// trustedOrigins reads SOCIETY_TRUSTED_ORIGINS (comma-separated host[:port] values).
func trustedOrigins() []string {
	var out []string
	for _, o := range strings.Split(os.Getenv("SOCIETY_TRUSTED_ORIGINS"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// DigestDeps wires the dashboard digest to the configured stores and sender.
// PRE: NewMux and SetEmailSender have been called
// POST: Returns deps usable by the HTTP handler and the scheduler alike
func DigestDeps() orchestrators.SendDashboardDigestDeps {
	return orchestrators.SendDashboardDigestDeps{
		LoadStats: func(ctx context.Context) (projections.DashboardStats, error) {
			return projections.QueryGetDashboardStats(ctx, statsDeps())
		},
		Sender:      emailSender,
		DigestStore: stores.DigestStore,
		GenerateID:  generateID,
		Now:         time.Now,
	}
}

func datasetDeps() projections.GetDashboardDatasetDeps {
	return projections.GetDashboardDatasetDeps{
		ContentStore: stores.ContentStore,
		MemberStore:  stores.MemberStore,
	}
}

func statsDeps() projections.GetDashboardStatsDeps {
	return projections.GetDashboardStatsDeps{DatasetDeps: datasetDeps(), Now: time.Now}
}
