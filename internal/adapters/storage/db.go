package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// migration is one forward-only schema step.
type migration struct {
	version     int
	description string
	sql         string
}

// migrations are applied in order; never edit a released step, append a new one.
var migrations = []migration{
	{
		version:     1,
		description: "content catalog and members",
		sql: `
	CREATE TABLE IF NOT EXISTS content_item (
		id TEXT PRIMARY KEY,
		category TEXT NOT NULL,
		title TEXT NOT NULL,
		summary TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'draft',
		created_at TEXT NOT NULL,
		updated_at TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_content_item_category_status ON content_item(category, status);

	CREATE TABLE IF NOT EXISTS member (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		role TEXT NOT NULL,
		status TEXT NOT NULL,
		joined_at TEXT NOT NULL
	);
	`,
	},
	{
		version:     2,
		description: "dashboard digest log",
		sql: `
	CREATE TABLE IF NOT EXISTS digest_log (
		id TEXT PRIMARY KEY,
		subject TEXT NOT NULL,
		recipients TEXT NOT NULL,
		total INTEGER NOT NULL DEFAULT 0,
		message_id TEXT NOT NULL DEFAULT '',
		trigger TEXT NOT NULL,
		sent_at TEXT NOT NULL
	);
	`,
	},
}

// LatestSchemaVersion returns the version the database has after MigrateDB.
func LatestSchemaVersion() int {
	return migrations[len(migrations)-1].version
}

// MigrateDB brings the schema up to LatestSchemaVersion.
// PRE: db is a valid database connection
// POST: All pending migrations applied in order, schema_version updated; foreign keys enabled
func MigrateDB(db *sql.DB) error {
	ctx := context.Background()
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		description TEXT NOT NULL,
		applied_at TEXT NOT NULL DEFAULT (datetime('now'))
	)`); err != nil {
		return fmt.Errorf("failed to create schema_version: %w", err)
	}

	current, err := CurrentSchemaVersion(db)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if err := applyMigration(ctx, db, m); err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.version, m.description, err)
		}
		slog.Info("schema_migrated", "version", m.version, "description", m.description)
	}
	return nil
}

// CurrentSchemaVersion returns the highest applied migration, 0 for a fresh database.
// PRE: schema_version table exists
// POST: Returns version >= 0
func CurrentSchemaVersion(db *sql.DB) (int, error) {
	var v sql.NullInt64
	if err := db.QueryRow("SELECT MAX(version) FROM schema_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return int(v.Int64), nil
}

func applyMigration(ctx context.Context, db *sql.DB, m migration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, m.sql); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO schema_version (version, description) VALUES (?, ?)", m.version, m.description); err != nil {
		return err
	}
	return tx.Commit()
}
