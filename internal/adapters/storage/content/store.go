package content

import (
	"context"

	domain "society/internal/domain/content"
)

// Store persists content items.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Item, error)
	Save(ctx context.Context, value domain.Item) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter ListFilter) ([]domain.Item, error)
	CountByCategory(ctx context.Context) (map[string]int, error)
}

// ListFilter carries filtering parameters for List operations.
type ListFilter struct {
	Limit    int
	Offset   int
	Category string
	Status   string
}
