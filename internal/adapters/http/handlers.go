package web

import (
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/csrf"
)

func generateID() string {
	return uuid.New().String()
}

// internalError logs the real error and returns a generic message to the client.
// This prevents leaking internal details per OWASP A05.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

// templatesDir is relative to the repository root; package tests point it at ./templates.
var templatesDir = "internal/adapters/http/templates"

// registerRoutes maps every page and API endpoint.
func registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/", handleRoot)
	mux.HandleFunc("/dashboard", handleDashboard)
	mux.HandleFunc("/dashboard/category", handleDashboardCategory)
	mux.HandleFunc("/dashboard/digest", handleDashboardDigest)
	mux.HandleFunc("/api/dashboard/chart", handleDashboardChart)
	mux.HandleFunc("/api/dashboard/hit", handleDashboardHit)
	mux.HandleFunc("/api/dashboard/segments", handleDashboardSegments)
	mux.HandleFunc("/api/dashboard/export.xlsx", handleDashboardExport)
	mux.HandleFunc("/api/admin/perf", handleAdminPerf)
}

func handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

// renderTemplate executes layout.html together with the named page template.
func renderTemplate(w http.ResponseWriter, r *http.Request, templateName string, data any) {
	funcMap := template.FuncMap{
		"csrfToken": func() string { return csrf.Token(r) },
		"csrfField": func() template.HTML { return csrf.TemplateField(r) },
		"percent":   func(p float64) string { return strconv.FormatFloat(p, 'f', 1, 64) + "%" },
		"date":      func(t time.Time) string { return t.Format("2 Jan 2006") },
		"dateTime":  func(t time.Time) string { return t.Format("2 Jan 2006 15:04") },
	}

	tmpl, err := template.New("layout.html").Funcs(funcMap).ParseFiles(
		filepath.Join(templatesDir, "layout.html"),
		filepath.Join(templatesDir, templateName),
	)
	if err != nil {
		internalError(w, fmt.Errorf("parse %s: %w", templateName, err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "layout.html", data); err != nil {
		slog.Error("template_error", "template", templateName, "error", err.Error())
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json_encode_failed", "error", err.Error())
	}
}

func methodNotAllowed(w http.ResponseWriter, allowed string) {
	w.Header().Set("Allow", allowed)
	http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
}
