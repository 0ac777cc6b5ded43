package storage

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"society/internal/adapters/http/perf"
)

// SQLDB is the database interface used by all stores.
// Both *sql.DB and *TimedDB satisfy this interface.
type SQLDB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

var _ SQLDB = (*sql.DB)(nil)

// DefaultSlowQueryMs is the default threshold for slow query warnings.
const DefaultSlowQueryMs = 50

// SlowQueryThreshold reads SOCIETY_SLOW_QUERY_MS once; invalid values fall back to the default.
var SlowQueryThreshold = sync.OnceValue(func() float64 {
	if v := os.Getenv("SOCIETY_SLOW_QUERY_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return float64(n)
		}
	}
	return DefaultSlowQueryMs
})

// TimedDB wraps a *sql.DB, logs slow statements and feeds the perf collector.
type TimedDB struct {
	db        *sql.DB
	collector *perf.Collector
	threshold float64
}

var _ SQLDB = (*TimedDB)(nil)

// NewTimedDB wraps a *sql.DB with timing instrumentation.
// PRE: db is a valid database connection; collector may be nil
// POST: Returns a TimedDB that logs slow queries and records to collector
func NewTimedDB(db *sql.DB, collector *perf.Collector) *TimedDB {
	return &TimedDB{
		db:        db,
		collector: collector,
		threshold: SlowQueryThreshold(),
	}
}

// RawDB returns the underlying *sql.DB for migrations and pool config.
func (t *TimedDB) RawDB() *sql.DB {
	return t.db
}

// StatementName reduces a SQL statement to "VERB table", e.g. "SELECT content_item",
// so timings aggregate per table rather than per literal query.
func StatementName(query string) string {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return "EMPTY"
	}
	verb := strings.ToUpper(fields[0])
	marker := ""
	switch verb {
	case "SELECT", "DELETE":
		marker = "FROM"
	case "INSERT":
		marker = "INTO"
	case "UPDATE":
		return verb + " " + tableName(fields, 1)
	default:
		return verb
	}
	for i, f := range fields {
		if strings.EqualFold(f, marker) {
			return verb + " " + tableName(fields, i+1)
		}
	}
	return verb
}

func tableName(fields []string, i int) string {
	if i >= len(fields) {
		return "?"
	}
	name := fields[i]
	if j := strings.IndexAny(name, "( "); j > 0 {
		name = name[:j]
	}
	return strings.ToLower(name)
}

func (t *TimedDB) observe(op string, start time.Time, err error) {
	durationMs := float64(time.Since(start).Microseconds()) / 1000.0

	switch {
	case err != nil:
		slog.Warn("query_failed", "op", op, "duration_ms", durationMs, "error", err)
	case durationMs >= t.threshold:
		slog.Warn("slow_query", "op", op, "duration_ms", durationMs)
	default:
		slog.Debug("query", "op", op, "duration_ms", durationMs)
	}

	if t.collector != nil {
		t.collector.Record(perf.Entry{
			Kind:       perf.KindQuery,
			Path:       op,
			DurationMs: durationMs,
			Timestamp:  start,
		})
	}
}

// ExecContext runs a statement and records its timing, also on error.
func (t *TimedDB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	start := time.Now()
	result, err := t.db.ExecContext(ctx, query, args...)
	t.observe(StatementName(query), start, err)
	return result, err
}

// QueryContext runs a query and records its timing, also on error.
func (t *TimedDB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	start := time.Now()
	rows, err := t.db.QueryContext(ctx, query, args...)
	t.observe(StatementName(query), start, err)
	return rows, err
}

// QueryRowContext runs a single-row query. Scan errors surface to the caller, not here.
func (t *TimedDB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	start := time.Now()
	row := t.db.QueryRowContext(ctx, query, args...)
	t.observe(StatementName(query), start, nil)
	return row
}

// BeginTx starts a transaction; statements inside it are not timed individually.
func (t *TimedDB) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	start := time.Now()
	tx, err := t.db.BeginTx(ctx, opts)
	t.observe("BEGIN", start, err)
	return tx, err
}

// Close closes the underlying database connection.
func (t *TimedDB) Close() error {
	return t.db.Close()
}

// Ping verifies the database connection.
func (t *TimedDB) Ping() error {
	return t.db.Ping()
}
