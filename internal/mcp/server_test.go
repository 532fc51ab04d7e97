package mcp_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"

	"github.com/rpggio/arcview/internal/domain/activity"
	"github.com/rpggio/arcview/internal/domain/hierarchy"
	"github.com/rpggio/arcview/internal/domain/project"
	"github.com/rpggio/arcview/internal/domain/session"
	"github.com/rpggio/arcview/internal/domain/sherd"
	"github.com/rpggio/arcview/internal/mcp"
	"github.com/rpggio/arcview/internal/repository"
	"github.com/rpggio/arcview/internal/repository/memstore"
)

type fakeActivity struct {
	entries []activity.ActivityEntry
	opts    activity.ListActivityOptions

	mu     sync.Mutex
	logged []activity.ActivityEntry
}

func (f *fakeActivity) LogActivity(_ context.Context, entry *activity.ActivityEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logged = append(f.logged, *entry)
	return nil
}

func (f *fakeActivity) loggedEntries() []activity.ActivityEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]activity.ActivityEntry(nil), f.logged...)
}

func (f *fakeActivity) GetRecentActivity(_ context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error) {
	f.opts = opts
	return f.entries, nil
}

func seed(store *memstore.Store) {
	base := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	for i, r := range []struct{ id, project, diagnostic string }{
		{"u1", "00042", "Rim"},
		{"u2", "00042", "Base"},
		{"u3", "00107", "Handle"},
	} {
		store.Put(repository.CollectionUniversal, r.id, map[string]any{
			"projectId":      r.project,
			"diagnosticType": r.diagnostic,
			"weight":         1.5,
			"createdAt":      base.Add(time.Duration(i) * time.Hour),
		})
	}

	store.Put(repository.CollectionProjects, "00042", nil)
	store.Put(repository.StudyAreasPath("00042"), "SA1", nil)
	store.Put(repository.StratUnitsPath("00042", "SA1"), "SU1", nil)
	store.Put(repository.ContainersPath("00042", "SA1", "SU1"), "C1", nil)
	store.Put(repository.GroupsPath("00042", "SA1", "SU1", "C1"), "G1", map[string]any{"label": "Lot 7"})
	store.Put(repository.ObjectsPath("00042", "SA1", "SU1", "C1", "G1"), "o1", map[string]any{
		"diagnostic":          "Rim",
		"count":               2,
		"weight":              4.5,
		"created_from_image":  true,
		"analysis_confidence": 0.873,
	})
}

func setup(t *testing.T) (*sdkmcp.ClientSession, *memstore.Store, *fakeActivity) {
	t.Helper()

	store := memstore.New()
	seed(store)
	act := &fakeActivity{}

	queries := sherd.NewService(store, sherd.Options{}, nil)
	aggregates := hierarchy.NewService(store, hierarchy.Options{}, nil)
	projects := project.NewService(store, nil)

	server := mcp.NewServer(mcp.Config{
		Services: mcp.Services{
			Projects: projects,
			Activity: act,
			Viewers: session.NewRegistry(session.Dependencies{
				Queries:    queries,
				Aggregator: aggregates,
				Projects:   projects,
				Activity:   act,
			}, nil),
		},
		Version: "test",
	})

	ctx := context.Background()
	serverTransport, clientTransport := sdkmcp.NewInMemoryTransports()
	ss, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = cs.Close()
		_ = ss.Wait()
	})
	return cs, store, act
}

func call(t *testing.T, cs *sdkmcp.ClientSession, viewID, name string, args any) *sdkmcp.CallToolResult {
	t.Helper()

	params := &sdkmcp.CallToolParams{Name: name, Arguments: args}
	if viewID != "" {
		params.Meta = sdkmcp.Meta{"view_id": viewID}
	}
	res, err := cs.CallTool(context.Background(), params)
	require.NoError(t, err)
	return res
}

func text(t *testing.T, res *sdkmcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(*sdkmcp.TextContent)
	require.True(t, ok, "unexpected content %T", res.Content[0])
	return tc.Text
}

func decode[T any](t *testing.T, res *sdkmcp.CallToolResult) T {
	t.Helper()
	require.False(t, res.IsError, "tool error: %s", text(t, res))
	var out T
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &out))
	return out
}

func apiError(t *testing.T, res *sdkmcp.CallToolResult) mcp.APIError {
	t.Helper()
	require.True(t, res.IsError)
	var out mcp.APIError
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &out))
	return out
}

func TestListTools(t *testing.T) {
	cs, _, _ := setup(t)

	res, err := cs.ListTools(context.Background(), nil)
	require.NoError(t, err)

	names := map[string]bool{}
	for _, tool := range res.Tools {
		names[tool.Name] = true
	}
	for _, name := range []string{
		"list_projects", "select_project", "view_project_row",
		"search_sherds", "apply_filters", "clear_filters", "clear_all", "view_sherd",
		"get_view_state", "query_sherds", "aggregate_project", "get_recent_activity",
	} {
		require.True(t, names[name], "missing tool %s", name)
	}
}

func TestUniversalViewTools(t *testing.T) {
	cs, _, _ := setup(t)

	resp := decode[mcp.UniversalViewResponse](t, call(t, cs, "a", "search_sherds", map[string]any{"project_id": "00042"}))
	require.Equal(t, "a", resp.ViewID)
	require.Len(t, resp.State.Rows, 2)
	require.Equal(t, "u2", resp.State.Rows[0].ID)
	require.Equal(t, []string{"Base", "Rim"}, resp.State.AvailableDiagnostics)

	resp = decode[mcp.UniversalViewResponse](t, call(t, cs, "a", "apply_filters", map[string]any{"diagnostics": []string{"Rim"}}))
	require.Len(t, resp.State.Rows, 1)
	require.Equal(t, "00042", resp.State.SearchProject)

	detail := decode[mcp.SherdResponse](t, call(t, cs, "a", "view_sherd", map[string]any{"id": "u1"}))
	require.Equal(t, "Rim", detail.Sherd.DiagnosticType)
	require.Equal(t, "00042", detail.DisplayProjectID)

	resp = decode[mcp.UniversalViewResponse](t, call(t, cs, "a", "clear_all", map[string]any{}))
	require.Len(t, resp.State.Rows, 3)
	require.Empty(t, resp.State.SelectedDiagnostics)

	// Another viewer is untouched.
	state := decode[mcp.ViewStateResponse](t, call(t, cs, "b", "get_view_state", map[string]any{"view": "universal"}))
	require.Equal(t, "b", state.ViewID)
	require.NotNil(t, state.Universal)
	require.Nil(t, state.Project)
	require.Empty(t, state.Universal.Rows)
}

func TestApplyFiltersRejectsTooMany(t *testing.T) {
	cs, _, _ := setup(t)

	decode[mcp.UniversalViewResponse](t, call(t, cs, "", "search_sherds", map[string]any{}))

	diagnostics := make([]string, 11)
	for i := range diagnostics {
		diagnostics[i] = string(rune('A' + i))
	}
	apiErr := apiError(t, call(t, cs, "", "apply_filters", map[string]any{"diagnostics": diagnostics}))
	require.Equal(t, "VALIDATION_ERROR", apiErr.Code)

	state := decode[mcp.ViewStateResponse](t, call(t, cs, "", "get_view_state", map[string]any{}))
	require.Equal(t, session.DefaultViewerID, state.ViewID)
	require.Empty(t, state.Universal.Rows)
	require.Equal(t, session.ErrorValidation, state.Universal.ErrorKind)
	require.NotEmpty(t, state.Universal.AvailableDiagnostics)
}

func TestFetchErrorMapsToFetchCode(t *testing.T) {
	cs, store, _ := setup(t)
	store.FailOn(repository.CollectionUniversal, errors.New("unavailable"))

	apiErr := apiError(t, call(t, cs, "", "query_sherds", map[string]any{"project_id": "00042"}))
	require.Equal(t, "FETCH_ERROR", apiErr.Code)
	require.Contains(t, apiErr.Message, "failed to fetch data")
}

func TestProjectViewTools(t *testing.T) {
	cs, _, _ := setup(t)

	list := decode[mcp.ListProjectsResponse](t, call(t, cs, "p", "list_projects", map[string]any{}))
	require.Len(t, list.Projects, 1)
	require.Equal(t, "00042", list.Projects[0].ID)

	resp := decode[mcp.ProjectViewResponse](t, call(t, cs, "p", "select_project", map[string]any{"project_id": "00042"}))
	require.Len(t, resp.State.Rows, 1)
	require.Equal(t, 2, resp.State.Stats.TotalSherds)

	row := decode[mcp.RowResponse](t, call(t, cs, "p", "view_project_row", map[string]any{"row_id": resp.State.Rows[0].ID}))
	require.Equal(t, "Lot 7", row.Row.Group)
	require.Equal(t, hierarchy.SourceAI, row.Row.Source)
	require.Equal(t, "87.3%", row.Row.Confidence)

	apiErr := apiError(t, call(t, cs, "p", "view_project_row", map[string]any{"row_id": "nope"}))
	require.Equal(t, "NOT_FOUND", apiErr.Code)
}

func TestViewBeforeLoadReturnsNoRows(t *testing.T) {
	cs, _, _ := setup(t)

	apiErr := apiError(t, call(t, cs, "fresh", "view_sherd", map[string]any{"id": "u1"}))
	require.Equal(t, "NO_ROWS", apiErr.Code)
}

func TestGetViewStateRejectsUnknownView(t *testing.T) {
	cs, _, _ := setup(t)

	apiErr := apiError(t, call(t, cs, "", "get_view_state", map[string]any{"view": "map"}))
	require.Equal(t, "INVALID_INPUT", apiErr.Code)
}

func TestStatelessTools(t *testing.T) {
	cs, _, _ := setup(t)

	q := decode[sherd.Result](t, call(t, cs, "", "query_sherds", map[string]any{"diagnostics": []string{"Handle"}}))
	require.Len(t, q.Rows, 1)
	require.Equal(t, 1, q.Stats.Projects)

	agg := decode[hierarchy.Result](t, call(t, cs, "", "aggregate_project", map[string]any{"project_id": "00042"}))
	require.Len(t, agg.Rows, 1)

	// Neither touched the default viewer.
	state := decode[mcp.ViewStateResponse](t, call(t, cs, "", "get_view_state", map[string]any{}))
	require.Empty(t, state.Universal.Rows)
	require.Empty(t, state.Project.Rows)
}

func TestStatelessToolsLogActivity(t *testing.T) {
	cs, _, act := setup(t)

	decode[sherd.Result](t, call(t, cs, "s", "query_sherds", map[string]any{"project_id": "00042"}))
	decode[hierarchy.Result](t, call(t, cs, "s", "aggregate_project", map[string]any{"project_id": "00042"}))
	diagnostics := make([]string, 11)
	for i := range diagnostics {
		diagnostics[i] = string(rune('A' + i))
	}
	apiError(t, call(t, cs, "s", "query_sherds", map[string]any{"diagnostics": diagnostics}))

	logged := act.loggedEntries()
	require.Len(t, logged, 3)
	require.Equal(t, activity.TypeQuery, logged[0].ActivityType)
	require.Equal(t, 2, logged[0].ResultCount)
	require.Equal(t, activity.TypeAggregate, logged[1].ActivityType)
	require.Equal(t, "00042", logged[1].ProjectID)
	require.Equal(t, activity.TypeQueryRejected, logged[2].ActivityType)
	for _, e := range logged {
		require.Equal(t, "s", e.SessionID)
		require.Zero(t, e.Tick)
	}
}

func TestGetRecentActivity(t *testing.T) {
	cs, _, act := setup(t)
	act.entries = []activity.ActivityEntry{{ID: 1, ActivityType: activity.TypeQuery, Summary: "2 sherds"}}

	resp := decode[mcp.ActivityResponse](t, call(t, cs, "", "get_recent_activity", map[string]any{"session_id": "a", "limit": 5}))
	require.Len(t, resp.Entries, 1)
	require.Equal(t, "a", act.opts.SessionID)
	require.Equal(t, 5, act.opts.Limit)

	apiErr := apiError(t, call(t, cs, "", "get_recent_activity", map[string]any{"since": "last week"}))
	require.Equal(t, "INVALID_INPUT", apiErr.Code)
}

func TestDocResources(t *testing.T) {
	cs, _, _ := setup(t)

	res, err := cs.ReadResource(context.Background(), &sdkmcp.ReadResourceParams{URI: "arcview://docs/index"})
	require.NoError(t, err)
	require.Len(t, res.Contents, 1)
	require.Contains(t, res.Contents[0].Text, "VALIDATION_ERROR")
}

func TestMapError(t *testing.T) {
	require.Nil(t, mcp.MapError(nil))
	require.Nil(t, mcp.MapError(errors.New("other")))
	require.Equal(t, "SUPERSEDED", mcp.MapError(session.ErrSuperseded).Code)
	require.Equal(t, "FETCH_ERROR", mcp.MapError(project.ErrFetch).Code)

	limitErr := sherd.ValidateFilter(sherd.Filter{Diagnostics: make([]string, 4)}, 3)
	apiErr := mcp.MapError(fmt.Errorf("apply: %w", limitErr))
	require.Equal(t, "VALIDATION_ERROR", apiErr.Code)
	require.Equal(t, "Select at most 3 diagnostic types", apiErr.RecoveryHint)
}
