package content

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"society/internal/adapters/storage"
	domain "society/internal/domain/content"
)

const itemColumns = "id, category, title, summary, status, created_at, updated_at"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new content store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (domain.Item, error) {
	var item domain.Item
	var createdAt string
	var updatedAt sql.NullString
	if err := row.Scan(&item.ID, &item.Category, &item.Title, &item.Summary, &item.Status, &createdAt, &updatedAt); err != nil {
		return domain.Item{}, err
	}
	item.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	if updatedAt.Valid {
		item.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt.String)
	}
	return item, nil
}

// GetByID retrieves an item by its ID.
// PRE: id is non-empty
// POST: Returns the item or an error wrapping sql.ErrNoRows if not found
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Item, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+itemColumns+" FROM content_item WHERE id = ?", id)
	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return domain.Item{}, fmt.Errorf("content item not found: %w", err)
	}
	return item, err
}

// Save inserts or updates an item.
// PRE: item has been validated
// POST: Item is persisted; created_at is kept from the first insert
func (s *SQLiteStore) Save(ctx context.Context, item domain.Item) error {
	var updatedAt any
	if !item.UpdatedAt.IsZero() {
		updatedAt = item.UpdatedAt.UTC().Format(time.RFC3339)
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO content_item (`+itemColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			category=excluded.category, title=excluded.title, summary=excluded.summary,
			status=excluded.status, updated_at=excluded.updated_at`,
		item.ID,
		item.Category,
		item.Title,
		item.Summary,
		item.Status,
		item.CreatedAt.UTC().Format(time.RFC3339),
		updatedAt,
	)
	return err
}

// Delete removes an item. Deleting a missing item is not an error.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM content_item WHERE id = ?", id)
	return err
}

// List returns items matching the filter, newest first.
// PRE: filter has valid parameters
// POST: Returns at most filter.Limit items (1000 when unset)
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Item, error) {
	query := "SELECT " + itemColumns + " FROM content_item WHERE 1=1"
	var args []any
	if filter.Category != "" {
		query += " AND category = ?"
		args = append(args, filter.Category)
	}
	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, filter.Status)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 1000
	}
	query += " ORDER BY created_at DESC, id LIMIT ? OFFSET ?"
	args = append(args, limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, item)
	}
	return results, rows.Err()
}

// CountByCategory counts published items per category.
// POST: Categories with no published items are absent from the map
func (s *SQLiteStore) CountByCategory(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT category, COUNT(*) FROM content_item WHERE status = ? GROUP BY category", domain.StatusPublished)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var category string
		var n int
		if err := rows.Scan(&category, &n); err != nil {
			return nil, err
		}
		counts[category] = n
	}
	return counts, rows.Err()
}
