package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/rpggio/arcview/internal/repository"
)

// fieldPattern restricts condition fields to dotted identifiers so they can
// be embedded in a json_extract path.
var fieldPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*$`)

// DocumentRepository implements repository.DocumentStore and
// repository.DocumentWriter for SQLite
type DocumentRepository struct {
	db *DB
}

// NewDocumentRepository creates a new DocumentRepository
func NewDocumentRepository(db *DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// PutDocument creates or replaces a document
func (r *DocumentRepository) PutDocument(ctx context.Context, collectionPath, id string, data map[string]any) error {
	collectionPath = repository.CollectionPath(collectionPath)
	if collectionPath == "" || strings.TrimSpace(id) == "" || strings.Contains(id, "/") {
		return repository.ErrInvalidInput
	}
	if data == nil {
		data = map[string]any{}
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode document %s: %w", id, err)
	}

	query := `
		INSERT INTO documents (path, collection, id, data, updated_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(path) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at
	`

	_, err = r.db.ExecContext(ctx, query,
		repository.DocumentPath(collectionPath, id),
		collectionPath,
		id,
		string(raw),
	)
	if err != nil {
		return fmt.Errorf("failed to put document: %w", err)
	}

	return nil
}

// ListChildren returns the documents of a collection ordered by id
func (r *DocumentRepository) ListChildren(ctx context.Context, collectionPath string) ([]repository.Document, error) {
	query := `
		SELECT id, path, data
		FROM documents
		WHERE collection = ?
		ORDER BY id
	`

	return r.queryDocuments(ctx, query, repository.CollectionPath(collectionPath))
}

// Find returns documents of a collection matching every condition
func (r *DocumentRepository) Find(ctx context.Context, q repository.Query) ([]repository.Document, error) {
	query := `
		SELECT id, path, data
		FROM documents
		WHERE collection = ?
	`

	args := []interface{}{repository.CollectionPath(q.Collection)}
	conditions := []string{}

	for _, cond := range q.Conditions {
		if !fieldPattern.MatchString(cond.Field) {
			return nil, fmt.Errorf("%w: field %q", repository.ErrInvalidInput, cond.Field)
		}
		extract := fmt.Sprintf("json_extract(data, '$.%s')", cond.Field)

		switch cond.Op {
		case repository.OpEqual:
			conditions = append(conditions, extract+" = ?")
			args = append(args, cond.Value)
		case repository.OpIn:
			values, err := sliceValues(cond.Value)
			if err != nil {
				return nil, err
			}
			if len(values) == 0 {
				return []repository.Document{}, nil
			}
			placeholders := make([]string, len(values))
			for i, v := range values {
				placeholders[i] = "?"
				args = append(args, v)
			}
			conditions = append(conditions, fmt.Sprintf("%s IN (%s)", extract, strings.Join(placeholders, ",")))
		default:
			return nil, fmt.Errorf("%w: %q", repository.ErrUnsupportedOperator, cond.Op)
		}
	}

	if len(conditions) > 0 {
		query += " AND " + strings.Join(conditions, " AND ")
	}

	query += " ORDER BY id"

	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
	}

	return r.queryDocuments(ctx, query, args...)
}

func (r *DocumentRepository) queryDocuments(ctx context.Context, query string, args ...interface{}) ([]repository.Document, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	docs := []repository.Document{}
	for rows.Next() {
		var doc repository.Document
		var raw string
		if err := rows.Scan(&doc.ID, &doc.Path, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		if err := json.Unmarshal([]byte(raw), &doc.Data); err != nil {
			return nil, fmt.Errorf("failed to decode document %s: %w", doc.Path, err)
		}
		if doc.Data == nil {
			doc.Data = map[string]any{}
		}
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating document rows: %w", err)
	}

	return docs, nil
}

// sliceValues flattens the value of an "in" condition into driver arguments.
func sliceValues(value any) ([]interface{}, error) {
	rv := reflect.ValueOf(value)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return nil, fmt.Errorf("%w: \"in\" needs a slice value, got %T", repository.ErrInvalidInput, value)
	}
	values := make([]interface{}, rv.Len())
	for i := range values {
		values[i] = rv.Index(i).Interface()
	}
	return values, nil
}
