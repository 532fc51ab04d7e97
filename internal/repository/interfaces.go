package repository

import "context"

// Operator is a comparison supported by DocumentStore.Find.
type Operator string

const (
	// OpEqual matches documents whose field equals the condition value.
	OpEqual Operator = "=="
	// OpIn matches documents whose field equals any of the condition values.
	OpIn Operator = "in"
)

// Document is a single stored document with its decoded fields.
type Document struct {
	ID   string         `json:"id"`
	Path string         `json:"path"`
	Data map[string]any `json:"data"`
}

// Condition is one predicate of a Query. For OpIn the value must be a slice.
type Condition struct {
	Field string
	Op    Operator
	Value any
}

// Query selects documents from a flat collection. Conditions are combined
// with AND. No ordering is applied; Limit <= 0 means unbounded.
type Query struct {
	Collection string
	Conditions []Condition
	Limit      int
}

// DocumentStore is the read side of the hierarchical document database.
type DocumentStore interface {
	// ListChildren returns every document directly under a collection path,
	// in the store's native enumeration order.
	ListChildren(ctx context.Context, collectionPath string) ([]Document, error)
	// Find returns documents from a flat collection matching the query.
	Find(ctx context.Context, q Query) ([]Document, error)
}

// DocumentWriter stores documents. Only fixture seeding writes.
type DocumentWriter interface {
	PutDocument(ctx context.Context, collectionPath, id string, data map[string]any) error
}
