package digest

import (
	"context"

	domain "society/internal/domain/digest"
)

// Store keeps the log of sent dashboard digests.
type Store interface {
	Save(ctx context.Context, value domain.Record) error
	ListRecent(ctx context.Context, limit int) ([]domain.Record, error)
}
