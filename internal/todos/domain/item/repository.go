package item

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for item persistence.
type Repository interface {
	// Save inserts a new item or updates an existing one. Updates are
	// conditional on the version the item was loaded with; a lost race
	// returns ErrConcurrentModification.
	Save(ctx context.Context, item *Item) error
	// FindByID returns nil, nil when no item has the id.
	FindByID(ctx context.Context, id uuid.UUID) (*Item, error)
	List(ctx context.Context, req PageRequest) (Page, error)
	ListByStatus(ctx context.Context, status Status, req PageRequest) (Page, error)
	// MarkPastDue moves every NOT_DONE item with dueDate <= cutoff to
	// PAST_DUE in a single statement and returns how many rows changed.
	MarkPastDue(ctx context.Context, cutoff time.Time) (int64, error)
}
