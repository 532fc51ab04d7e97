package activity

import (
	"context"
	"time"
)

// Repository stores settled fetches.
type Repository interface {
	Log(ctx context.Context, entry *ActivityEntry) error
	List(ctx context.Context, opts ListActivityOptions) ([]ActivityEntry, error)
	// Prune deletes entries created before the instant and reports how many
	// were removed.
	Prune(ctx context.Context, before time.Time) (int64, error)
}
