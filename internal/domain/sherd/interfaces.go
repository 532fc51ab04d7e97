package sherd

import (
	"context"
	"time"

	"github.com/rpggio/arcview/internal/repository"
)

// Finder runs flat queries against the document store.
type Finder interface {
	Find(ctx context.Context, q repository.Query) ([]repository.Document, error)
}

// FetchRecorder observes queries and rejected filters.
type FetchRecorder interface {
	RecordFetch(operation, status string, duration time.Duration)
	RecordValidationError(operation string)
}
