package mocks

import (
	"context"

	"github.com/rpggio/arcview/internal/repository"
	"github.com/stretchr/testify/mock"
)

// DocumentStore is a mock for repository.DocumentStore.
type DocumentStore struct {
	mock.Mock
}

func (m *DocumentStore) ListChildren(ctx context.Context, collectionPath string) ([]repository.Document, error) {
	args := m.Called(ctx, collectionPath)
	if docs, ok := args.Get(0).([]repository.Document); ok {
		return docs, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *DocumentStore) Find(ctx context.Context, q repository.Query) ([]repository.Document, error) {
	args := m.Called(ctx, q)
	if docs, ok := args.Get(0).([]repository.Document); ok {
		return docs, args.Error(1)
	}
	return nil, args.Error(1)
}

// DocumentWriter is a mock for repository.DocumentWriter.
type DocumentWriter struct {
	mock.Mock
}

func (m *DocumentWriter) PutDocument(ctx context.Context, collectionPath, id string, data map[string]any) error {
	args := m.Called(ctx, collectionPath, id, data)
	return args.Error(0)
}
