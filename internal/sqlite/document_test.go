package sqlite

import (
	"context"
	"testing"

	"github.com/rpggio/arcview/internal/repository"
	"github.com/stretchr/testify/require"
)

func putDoc(t *testing.T, repo *DocumentRepository, collection, id string, data map[string]any) {
	t.Helper()
	require.NoError(t, repo.PutDocument(context.Background(), collection, id, data))
}

func TestDocumentRepository_ListChildren(t *testing.T) {
	db := NewTestDB(t)
	repo := NewDocumentRepository(db)
	ctx := context.Background()

	areas := repository.StudyAreasPath("p1")
	putDoc(t, repo, areas, "b", map[string]any{"name": "Area B"})
	putDoc(t, repo, areas, "a", map[string]any{"name": "Area A"})
	putDoc(t, repo, repository.StudyAreasPath("p2"), "c", nil)
	putDoc(t, repo, repository.StratUnitsPath("p1", "a"), "s1", nil)

	docs, err := repo.ListChildren(ctx, areas)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	require.Equal(t, "a", docs[0].ID)
	require.Equal(t, "projects/p1/studyAreas/a", docs[0].Path)
	require.Equal(t, "Area A", docs[0].Data["name"])
	require.Equal(t, "b", docs[1].ID)
}

func TestDocumentRepository_ListChildrenEmpty(t *testing.T) {
	db := NewTestDB(t)
	repo := NewDocumentRepository(db)

	docs, err := repo.ListChildren(context.Background(), repository.StudyAreasPath("missing"))
	require.NoError(t, err)
	require.Empty(t, docs)
}

func TestDocumentRepository_PutReplaces(t *testing.T) {
	db := NewTestDB(t)
	repo := NewDocumentRepository(db)
	ctx := context.Background()

	putDoc(t, repo, "universal", "u1", map[string]any{"weight": 1.5})
	putDoc(t, repo, "universal", "u1", map[string]any{"weight": 2.5})

	docs, err := repo.ListChildren(ctx, "universal")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.Equal(t, 2.5, docs[0].Data["weight"])
}

func TestDocumentRepository_PutValidation(t *testing.T) {
	db := NewTestDB(t)
	repo := NewDocumentRepository(db)
	ctx := context.Background()

	require.ErrorIs(t, repo.PutDocument(ctx, "", "id", nil), repository.ErrInvalidInput)
	require.ErrorIs(t, repo.PutDocument(ctx, "universal", " ", nil), repository.ErrInvalidInput)
	require.ErrorIs(t, repo.PutDocument(ctx, "universal", "a/b", nil), repository.ErrInvalidInput)
}

func seedUniversal(t *testing.T, repo *DocumentRepository) {
	t.Helper()
	putDoc(t, repo, "universal", "u1", map[string]any{"projectId": "00042", "diagnosticType": "Rim"})
	putDoc(t, repo, "universal", "u2", map[string]any{"projectId": "00042", "diagnosticType": "Base"})
	putDoc(t, repo, "universal", "u3", map[string]any{"projectId": "ABC", "diagnosticType": "Rim"})
	putDoc(t, repo, "universal", "u4", map[string]any{"projectId": "00042", "diagnosticType": "Handle"})
	putDoc(t, repo, "other", "x1", map[string]any{"projectId": "00042", "diagnosticType": "Rim"})
}

func TestDocumentRepository_FindEquality(t *testing.T) {
	db := NewTestDB(t)
	repo := NewDocumentRepository(db)
	seedUniversal(t, repo)

	docs, err := repo.Find(context.Background(), repository.Query{
		Collection: "universal",
		Conditions: []repository.Condition{{Field: "projectId", Op: repository.OpEqual, Value: "00042"}},
	})
	require.NoError(t, err)
	require.Len(t, docs, 3)
	for _, doc := range docs {
		require.Equal(t, "00042", doc.Data["projectId"])
	}
}

func TestDocumentRepository_FindCombined(t *testing.T) {
	db := NewTestDB(t)
	repo := NewDocumentRepository(db)
	seedUniversal(t, repo)

	docs, err := repo.Find(context.Background(), repository.Query{
		Collection: "universal",
		Conditions: []repository.Condition{
			{Field: "projectId", Op: repository.OpEqual, Value: "00042"},
			{Field: "diagnosticType", Op: repository.OpIn, Value: []string{"Rim", "Base"}},
		},
	})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	require.Equal(t, "u1", docs[0].ID)
	require.Equal(t, "u2", docs[1].ID)
}

func TestDocumentRepository_FindLimit(t *testing.T) {
	db := NewTestDB(t)
	repo := NewDocumentRepository(db)
	seedUniversal(t, repo)

	docs, err := repo.Find(context.Background(), repository.Query{Collection: "universal", Limit: 2})
	require.NoError(t, err)
	require.Len(t, docs, 2)
}

func TestDocumentRepository_FindEmptyInMatchesNothing(t *testing.T) {
	db := NewTestDB(t)
	repo := NewDocumentRepository(db)
	seedUniversal(t, repo)

	docs, err := repo.Find(context.Background(), repository.Query{
		Collection: "universal",
		Conditions: []repository.Condition{{Field: "diagnosticType", Op: repository.OpIn, Value: []string{}}},
	})
	require.NoError(t, err)
	require.Empty(t, docs)
}

func TestDocumentRepository_FindRejectsBadConditions(t *testing.T) {
	db := NewTestDB(t)
	repo := NewDocumentRepository(db)
	ctx := context.Background()

	_, err := repo.Find(ctx, repository.Query{
		Collection: "universal",
		Conditions: []repository.Condition{{Field: "x') OR 1=1 --", Op: repository.OpEqual, Value: "a"}},
	})
	require.ErrorIs(t, err, repository.ErrInvalidInput)

	_, err = repo.Find(ctx, repository.Query{
		Collection: "universal",
		Conditions: []repository.Condition{{Field: "weight", Op: ">", Value: 1}},
	})
	require.ErrorIs(t, err, repository.ErrUnsupportedOperator)

	_, err = repo.Find(ctx, repository.Query{
		Collection: "universal",
		Conditions: []repository.Condition{{Field: "diagnosticType", Op: repository.OpIn, Value: "Rim"}},
	})
	require.ErrorIs(t, err, repository.ErrInvalidInput)
}

func TestDocumentRepository_FindNestedField(t *testing.T) {
	db := NewTestDB(t)
	repo := NewDocumentRepository(db)
	putDoc(t, repo, "universal", "u1", map[string]any{"boundingBox": map[string]any{"x": 3}})
	putDoc(t, repo, "universal", "u2", map[string]any{"boundingBox": map[string]any{"x": 4}})

	docs, err := repo.Find(context.Background(), repository.Query{
		Collection: "universal",
		Conditions: []repository.Condition{{Field: "boundingBox.x", Op: repository.OpEqual, Value: 4}},
	})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.Equal(t, "u2", docs[0].ID)
}
