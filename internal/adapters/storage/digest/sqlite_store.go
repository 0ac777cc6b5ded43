package digest

import (
	"context"
	"strings"
	"time"

	"society/internal/adapters/storage"
	domain "society/internal/domain/digest"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new digest log store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Save appends a digest record. Recipients are stored comma separated.
// PRE: record has been validated
// POST: Record is persisted
func (s *SQLiteStore) Save(ctx context.Context, r domain.Record) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO digest_log (id, subject, recipients, total, message_id, trigger, sent_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Subject, strings.Join(r.Recipients, ","), r.Total, r.MessageID, r.Trigger,
		r.SentAt.UTC().Format(time.RFC3339),
	)
	return err
}

// ListRecent returns the latest digests, newest first.
// PRE: limit > 0
// POST: Returns at most limit records
func (s *SQLiteStore) ListRecent(ctx context.Context, limit int) ([]domain.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, subject, recipients, total, message_id, trigger, sent_at
		FROM digest_log ORDER BY sent_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Record
	for rows.Next() {
		var r domain.Record
		var recipients, sentAt string
		if err := rows.Scan(&r.ID, &r.Subject, &recipients, &r.Total, &r.MessageID, &r.Trigger, &sentAt); err != nil {
			return nil, err
		}
		if recipients != "" {
			r.Recipients = strings.Split(recipients, ",")
		}
		r.SentAt, _ = time.Parse(time.RFC3339, sentAt)
		results = append(results, r)
	}
	return results, rows.Err()
}
