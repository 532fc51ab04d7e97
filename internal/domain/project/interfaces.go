package project

import (
	"context"

	"github.com/rpggio/arcview/internal/repository"
)

// Lister enumerates a collection of the document store.
type Lister interface {
	ListChildren(ctx context.Context, collectionPath string) ([]repository.Document, error)
}
