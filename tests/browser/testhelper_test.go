package browser_test

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/playwright-community/playwright-go"

	_ "modernc.org/sqlite"

	"society/internal/adapters/email"
	web "society/internal/adapters/http"
	"society/internal/adapters/http/perf"
	"society/internal/adapters/storage"
	contentStore "society/internal/adapters/storage/content"
	digestStore "society/internal/adapters/storage/digest"
	memberStore "society/internal/adapters/storage/member"
	"society/internal/domain/content"
	"society/internal/domain/member"
)

// testApp holds the running test server and Playwright handles.
type testApp struct {
	BaseURL string
	DB      *sql.DB
	Server  *http.Server
	PW      *playwright.Playwright
	Browser playwright.Browser
	Stores  *web.Stores
	Sender  *email.NoopSender
	tmpDir  string
}

// newTestApp creates a fully wired app with a temp SQLite DB and starts an HTTP server.
func newTestApp(t *testing.T) *testApp {
	t.Helper()

	// Create temp directory for the database
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("failed to open test DB: %v", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)

	// Run migrations
	if err := storage.MigrateDB(db); err != nil {
		t.Fatalf("failed to migrate test DB: %v", err)
	}

	collector := perf.NewCollector(1000)
	timed := storage.NewTimedDB(db, collector)
	stores := &web.Stores{
		ContentStore: contentStore.NewSQLiteStore(timed),
		MemberStore:  memberStore.NewSQLiteStore(timed),
		DigestStore:  digestStore.NewSQLiteStore(timed),
	}
	sender := email.NewNoopSender()
	web.SetEmailSender(sender)
	web.SetDigestRecipients([]string{"committee@test.com"})

	// Find a free port
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to find free port: %v", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port
	listener.Close()

	// Change to project root so relative template/static paths work
	projectRoot := findProjectRoot(t)
	origDir, _ := os.Getwd()
	if err := os.Chdir(projectRoot); err != nil {
		t.Fatalf("failed to chdir to project root: %v", err)
	}
	t.Cleanup(func() { os.Chdir(origDir) })

	// Add test port to CSRF trusted origins before creating mux
	t.Setenv("SOCIETY_TRUSTED_ORIGINS", fmt.Sprintf("127.0.0.1:%d,localhost:%d", port, port))

	// Start HTTP server
	mux := web.NewMux("static", stores, collector)
	srv := &http.Server{
		Addr:    fmt.Sprintf("127.0.0.1:%d", port),
		Handler: mux,
	}
	go func() {
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("test server error: %v", err)
		}
	}()

	// Wait for server to be ready
	baseURL := fmt.Sprintf("http://127.0.0.1:%d", port)
	for i := 0; i < 50; i++ {
		resp, err := http.Get(baseURL + "/dashboard")
		if err == nil {
			resp.Body.Close()
			break
		}
		time.Sleep(100 * time.Millisecond)
	}

	// Start Playwright
	pw, err := playwright.Run()
	if err != nil {
		t.Fatalf("failed to start Playwright: %v", err)
	}
	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
	})
	if err != nil {
		t.Fatalf("failed to launch browser: %v", err)
	}

	app := &testApp{
		BaseURL: baseURL,
		DB:      db,
		Server:  srv,
		PW:      pw,
		Browser: browser,
		Stores:  stores,
		Sender:  sender,
		tmpDir:  tmpDir,
	}

	t.Cleanup(func() {
		browser.Close()
		pw.Stop()
		srv.Close()
		db.Close()
	})

	return app
}

// newPage creates a new browser page (tab).
func (a *testApp) newPage(t *testing.T) playwright.Page {
	t.Helper()
	page, err := a.Browser.NewPage()
	if err != nil {
		t.Fatalf("failed to create page: %v", err)
	}
	t.Cleanup(func() { page.Close() })
	return page
}

// seedCounts stores n published items per content category and n active members for "users".
func (a *testApp) seedCounts(t *testing.T, counts map[string]int) {
	t.Helper()
	ctx := context.Background()
	now := time.Now()
	for category, n := range counts {
		for i := 0; i < n; i++ {
			if category == content.CategoryUsers {
				m := member.Member{
					ID:       uuid.New().String(),
					Name:     fmt.Sprintf("Member %d", i+1),
					Email:    fmt.Sprintf("member%d@test.com", i+1),
					Role:     member.RoleMember,
					Status:   member.StatusActive,
					JoinedAt: now,
				}
				if err := a.Stores.MemberStore.Save(ctx, m); err != nil {
					t.Fatalf("seed member: %v", err)
				}
				continue
			}
			it := content.Item{
				ID:        uuid.New().String(),
				Category:  category,
				Title:     fmt.Sprintf("%s %d", content.Label(category), i+1),
				Status:    content.StatusPublished,
				CreatedAt: now,
			}
			if err := a.Stores.ContentStore.Save(ctx, it); err != nil {
				t.Fatalf("seed content: %v", err)
			}
		}
	}
}

// findProjectRoot walks up from the working directory to find the project root (contains go.mod).
func findProjectRoot(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatalf("could not find project root (go.mod) from working directory")
		}
		dir = parent
	}
}
