// Package firestore adapts a Cloud Firestore database to repository.DocumentStore.
package firestore

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/rpggio/arcview/internal/repository"
)

// Config selects the Firestore database to read.
type Config struct {
	ProjectID       string
	Database        string
	CredentialsFile string
}

// Store implements repository.DocumentStore and repository.DocumentWriter
// on top of a Firestore client.
type Store struct {
	client *firestore.Client
}

// New opens a Firestore client for the configured project.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("%w: firestore project id is required", repository.ErrInvalidInput)
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	database := cfg.Database
	if database == "" {
		database = firestore.DefaultDatabaseID
	}

	client, err := firestore.NewClientWithDatabase(ctx, cfg.ProjectID, database, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}

	return &Store{client: client}, nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *firestore.Client) *Store {
	return &Store{client: client}
}

// Close releases the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}

// ListChildren returns every document directly under a collection path.
func (s *Store) ListChildren(ctx context.Context, collectionPath string) ([]repository.Document, error) {
	collectionPath = repository.CollectionPath(collectionPath)
	if collectionPath == "" {
		return nil, repository.ErrInvalidInput
	}

	iter := s.client.Collection(collectionPath).Documents(ctx)
	return collect(collectionPath, iter)
}

// Find runs a flat query. Conditions translate to Where clauses; no ordering is requested.
func (s *Store) Find(ctx context.Context, q repository.Query) ([]repository.Document, error) {
	collectionPath := repository.CollectionPath(q.Collection)
	if collectionPath == "" {
		return nil, repository.ErrInvalidInput
	}

	query := s.client.Collection(collectionPath).Query
	for _, cond := range q.Conditions {
		op, err := whereOperator(cond.Op)
		if err != nil {
			return nil, err
		}
		query = query.Where(cond.Field, op, cond.Value)
	}
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}

	return collect(collectionPath, query.Documents(ctx))
}

// PutDocument creates or replaces a document.
func (s *Store) PutDocument(ctx context.Context, collectionPath, id string, data map[string]any) error {
	collectionPath = repository.CollectionPath(collectionPath)
	if collectionPath == "" || id == "" {
		return repository.ErrInvalidInput
	}
	if data == nil {
		data = map[string]any{}
	}

	if _, err := s.client.Collection(collectionPath).Doc(id).Set(ctx, data); err != nil {
		return fmt.Errorf("failed to put document %s: %w", id, err)
	}
	return nil
}

func collect(collectionPath string, iter *firestore.DocumentIterator) ([]repository.Document, error) {
	defer iter.Stop()

	docs := []repository.Document{}
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", collectionPath, err)
		}
		docs = append(docs, toDocument(collectionPath, snap.Ref.ID, snap.Data()))
	}

	return docs, nil
}

func toDocument(collectionPath, id string, data map[string]any) repository.Document {
	if data == nil {
		data = map[string]any{}
	}
	return repository.Document{
		ID:   id,
		Path: repository.DocumentPath(collectionPath, id),
		Data: data,
	}
}

func whereOperator(op repository.Operator) (string, error) {
	switch op {
	case repository.OpEqual:
		return "==", nil
	case repository.OpIn:
		return "in", nil
	default:
		return "", fmt.Errorf("%w: %q", repository.ErrUnsupportedOperator, op)
	}
}
