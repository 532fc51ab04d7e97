package hierarchy

import (
	"context"
	"time"

	"github.com/rpggio/arcview/internal/repository"
)

// Lister enumerates the children of a collection path.
type Lister interface {
	ListChildren(ctx context.Context, collectionPath string) ([]repository.Document, error)
}

// FetchRecorder observes completed aggregations.
type FetchRecorder interface {
	RecordFetch(operation, status string, duration time.Duration)
}
