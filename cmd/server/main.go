package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	emailPkg "society/internal/adapters/email"
	web "society/internal/adapters/http"
	"society/internal/adapters/http/perf"
	"society/internal/adapters/storage"
	contentStore "society/internal/adapters/storage/content"
	digestStore "society/internal/adapters/storage/digest"
	memberStore "society/internal/adapters/storage/member"
	"society/internal/application/orchestrators"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// Initialize database with WAL mode, foreign keys, and busy timeout
	dbPath := envOrDefault("SOCIETY_DB_PATH", "society.db")
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	// Connection pool settings for WAL mode
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)

	if err := db.Ping(); err != nil {
		log.Fatalf("database unreachable: %v", err)
	}

	if err := storage.MigrateDB(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	log.Println("Database initialized successfully!")

	// Performance instrumentation: wrap DB with timing, create collector
	collector := perf.NewCollector(perf.DefaultRingSize)
	timedDB := storage.NewTimedDB(db, collector)

	stores := &web.Stores{
		ContentStore: contentStore.NewSQLiteStore(timedDB),
		MemberStore:  memberStore.NewSQLiteStore(timedDB),
		DigestStore:  digestStore.NewSQLiteStore(timedDB),
	}

	// Seed a sample catalog for development only
	if !isProduction() {
		seedDeps := orchestrators.SeedContentDeps{
			ContentStore: stores.ContentStore,
			MemberStore:  stores.MemberStore,
			GenerateID:   func() string { return uuid.New().String() },
			Now:          time.Now,
		}
		if err := orchestrators.ExecuteSeedContent(context.Background(), seedDeps); err != nil {
			log.Fatalf("failed to seed content: %v", err)
		}
	}

	// Configure email sender
	resendKey := os.Getenv("SOCIETY_RESEND_KEY")
	emailFrom := envOrDefault("SOCIETY_RESEND_FROM", "Society <noreply@example.org>")
	emailReply := envOrDefault("SOCIETY_REPLY_TO", "office@example.org")
	if resendKey != "" {
		web.SetEmailSender(emailPkg.NewResendSender(resendKey, emailFrom, emailReply))
		log.Println("Email sender configured (Resend)")
	} else {
		web.SetEmailSender(emailPkg.NewNoopSender())
		if isProduction() {
			log.Println("WARNING: SOCIETY_RESEND_KEY is not set, digest email is DISABLED in production")
		} else {
			log.Println("Email sender configured (noop, set SOCIETY_RESEND_KEY for real delivery)")
		}
	}
	digestTo := splitList(os.Getenv("SOCIETY_DIGEST_TO"))
	web.SetDigestRecipients(digestTo)

	// Create HTTP handler with middleware (pass collector for timing + perf endpoint)
	mux := web.NewMux("static", stores, collector)

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		log.Fatalf("failed to create scheduler: %v", err)
	}
	if every := os.Getenv("SOCIETY_DIGEST_INTERVAL"); every != "" {
		interval, err := time.ParseDuration(every)
		if err != nil {
			log.Fatalf("SOCIETY_DIGEST_INTERVAL: %v", err)
		}
		_, err = orchestrators.ExecuteScheduleDashboardDigest(scheduler, orchestrators.ScheduleDashboardDigestInput{
			Every:      interval,
			Recipients: digestTo,
		}, web.DigestDeps())
		if err != nil {
			log.Fatalf("failed to schedule digest: %v", err)
		}
	}
	scheduler.Start()

	addr := envOrDefault("SOCIETY_ADDR", ":8080")
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("Society %s starting on %s (env=%s, schema=%d)", version, addr, envOrDefault("SOCIETY_ENV", "development"), storage.LatestSchemaVersion())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown: %v", err)
	}
	if err := scheduler.Shutdown(); err != nil {
		log.Printf("scheduler shutdown: %v", err)
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func isProduction() bool {
	return os.Getenv("SOCIETY_ENV") == "production"
}

// splitList parses a comma-separated env value, dropping blanks.
func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
