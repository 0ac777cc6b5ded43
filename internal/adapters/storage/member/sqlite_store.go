package member

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"society/internal/adapters/storage"
	domain "society/internal/domain/member"
)

const memberColumns = "id, name, email, role, status, joined_at"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new member store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMember(row rowScanner) (domain.Member, error) {
	var m domain.Member
	var joinedAt string
	if err := row.Scan(&m.ID, &m.Name, &m.Email, &m.Role, &m.Status, &joinedAt); err != nil {
		return domain.Member{}, err
	}
	m.JoinedAt, _ = time.Parse(time.RFC3339, joinedAt)
	return m, nil
}

// GetByID retrieves a Member by its ID.
// PRE: id is non-empty
// POST: Returns the entity or an error if not found
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Member, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+memberColumns+" FROM member WHERE id = ?", id)
	m, err := scanMember(row)
	if err == sql.ErrNoRows {
		return domain.Member{}, fmt.Errorf("member not found: %w", err)
	}
	return m, err
}

// Save persists a Member to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, m domain.Member) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO member (`+memberColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name=excluded.name, email=excluded.email, role=excluded.role,
			status=excluded.status, joined_at=excluded.joined_at`,
		m.ID, m.Name, m.Email, m.Role, m.Status, m.JoinedAt.UTC().Format(time.RFC3339),
	)
	return err
}

// Delete removes a Member from the database.
// PRE: id is non-empty
// POST: Entity with given id is removed
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM member WHERE id = ?", id)
	return err
}

// listWhereClause builds the WHERE clause and args for List/Count queries.
func listWhereClause(filter ListFilter) (string, []any) {
	where := " WHERE 1=1"
	var args []any

	if filter.Status != "" {
		where += " AND status = ?"
		args = append(args, filter.Status)
	}
	if filter.Role != "" {
		where += " AND role = ?"
		args = append(args, filter.Role)
	}
	return where, args
}

// Count returns the number of members matching the filter.
// PRE: filter has valid parameters
// POST: Returns count >= 0
func (s *SQLiteStore) Count(ctx context.Context, filter ListFilter) (int, error) {
	where, args := listWhereClause(filter)
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM member"+where, args...).Scan(&count)
	return count, err
}

// List retrieves members matching the filter, ordered by name.
// PRE: filter has valid parameters
// POST: Returns matching entities
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Member, error) {
	where, args := listWhereClause(filter)
	query := "SELECT " + memberColumns + " FROM member" + where + " ORDER BY name ASC"

	limit := filter.Limit
	if limit <= 0 {
		limit = 1000
	}
	query += " LIMIT ? OFFSET ?"
	args = append(args, limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, m)
	}
	return results, rows.Err()
}
