// Package memstore is an in-memory repository.DocumentStore for tests.
package memstore

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/rpggio/arcview/internal/docvalue"
	"github.com/rpggio/arcview/internal/repository"
)

// Store keeps documents per collection path. ListChildren orders by id,
// Find returns documents in insertion order.
type Store struct {
	mu          sync.Mutex
	collections map[string][]repository.Document
	failures    map[string]error
	calls       int
}

// New creates an empty store.
func New() *Store {
	return &Store{
		collections: map[string][]repository.Document{},
		failures:    map[string]error{},
	}
}

// Put creates or replaces a document.
func (s *Store) Put(collectionPath, id string, data map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	collectionPath = repository.CollectionPath(collectionPath)
	if data == nil {
		data = map[string]any{}
	}
	doc := repository.Document{ID: id, Path: repository.DocumentPath(collectionPath, id), Data: data}

	docs := s.collections[collectionPath]
	for i := range docs {
		if docs[i].ID == id {
			docs[i] = doc
			return
		}
	}
	s.collections[collectionPath] = append(docs, doc)
}

// PutDocument implements repository.DocumentWriter.
func (s *Store) PutDocument(_ context.Context, collectionPath, id string, data map[string]any) error {
	s.Put(collectionPath, id, data)
	return nil
}

// FailOn makes every read of collectionPath return err.
func (s *Store) FailOn(collectionPath string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[repository.CollectionPath(collectionPath)] = err
}

// Calls reports how many reads were issued.
func (s *Store) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// ListChildren implements repository.DocumentStore.
func (s *Store) ListChildren(ctx context.Context, collectionPath string) ([]repository.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++

	collectionPath = repository.CollectionPath(collectionPath)
	if err := s.failures[collectionPath]; err != nil {
		return nil, err
	}

	docs := append([]repository.Document{}, s.collections[collectionPath]...)
	sort.SliceStable(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs, nil
}

// Find implements repository.DocumentStore.
func (s *Store) Find(ctx context.Context, q repository.Query) ([]repository.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++

	collectionPath := repository.CollectionPath(q.Collection)
	if err := s.failures[collectionPath]; err != nil {
		return nil, err
	}

	docs := []repository.Document{}
	for _, doc := range s.collections[collectionPath] {
		ok, err := matches(doc, q.Conditions)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		docs = append(docs, doc)
		if q.Limit > 0 && len(docs) == q.Limit {
			break
		}
	}
	return docs, nil
}

func matches(doc repository.Document, conds []repository.Condition) (bool, error) {
	for _, cond := range conds {
		field := docvalue.Lookup(doc.Data, cond.Field)
		switch cond.Op {
		case repository.OpEqual:
			if !reflect.DeepEqual(field, cond.Value) {
				return false, nil
			}
		case repository.OpIn:
			rv := reflect.ValueOf(cond.Value)
			if rv.Kind() != reflect.Slice {
				return false, fmt.Errorf("%w: \"in\" needs a slice value", repository.ErrInvalidInput)
			}
			found := false
			for i := 0; i < rv.Len(); i++ {
				if reflect.DeepEqual(field, rv.Index(i).Interface()) {
					found = true
					break
				}
			}
			if !found {
				return false, nil
			}
		default:
			return false, fmt.Errorf("%w: %q", repository.ErrUnsupportedOperator, cond.Op)
		}
	}
	return true, nil
}
