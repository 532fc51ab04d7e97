package session_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rpggio/arcview/internal/domain/activity"
	"github.com/rpggio/arcview/internal/domain/hierarchy"
	"github.com/rpggio/arcview/internal/domain/project"
	"github.com/rpggio/arcview/internal/domain/session"
	"github.com/rpggio/arcview/internal/domain/sherd"
	"github.com/rpggio/arcview/internal/repository"
	"github.com/rpggio/arcview/internal/repository/memstore"
	"github.com/stretchr/testify/require"
)

type activityLog struct {
	mu      sync.Mutex
	entries []activity.ActivityEntry
}

func (l *activityLog) LogActivity(_ context.Context, entry *activity.ActivityEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, *entry)
	return nil
}

func (l *activityLog) types() []activity.ActivityType {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := []activity.ActivityType{}
	for _, e := range l.entries {
		out = append(out, e.ActivityType)
	}
	return out
}

type staleCounter struct {
	mu    sync.Mutex
	count map[string]int
}

func (c *staleCounter) RecordStaleResponse(operation string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.count == nil {
		c.count = map[string]int{}
	}
	c.count[operation]++
}

func (c *staleCounter) get(operation string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count[operation]
}

func seedUniversal(store *memstore.Store) {
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	records := []struct {
		id, project, diagnostic string
	}{
		{"u1", "00042", "Rim"},
		{"u2", "00042", "Base"},
		{"u3", "ABC", "Rim"},
		{"u4", "ABC", "Handle"},
	}
	for i, r := range records {
		store.Put(repository.CollectionUniversal, r.id, map[string]any{
			"projectId":      r.project,
			"diagnosticType": r.diagnostic,
			"createdAt":      base.Add(time.Duration(i) * time.Hour),
		})
	}
}

func newRegistry(store *memstore.Store, log *activityLog) *session.Registry {
	deps := session.Dependencies{
		Queries:    sherd.NewService(store, sherd.Options{}, nil),
		Aggregator: hierarchy.NewService(store, hierarchy.Options{}, nil),
		Projects:   project.NewService(store, nil),
	}
	if log != nil {
		deps.Activity = log
	}
	return session.NewRegistry(deps, nil)
}

func TestUniversalViewSearchAndFilters(t *testing.T) {
	store := memstore.New()
	seedUniversal(store)
	log := &activityLog{}
	view := newRegistry(store, log).Get("viewer-1").Universal
	ctx := context.Background()

	state, err := view.Search(ctx, "")
	require.NoError(t, err)
	require.Len(t, state.Rows, 4)
	require.False(t, state.Loading)
	require.Equal(t, int64(1), state.Tick)
	require.ElementsMatch(t, []string{"Rim", "Base", "Handle"}, state.AvailableDiagnostics)

	state, err = view.Search(ctx, "abc")
	require.NoError(t, err)
	require.Len(t, state.Rows, 2)
	require.Equal(t, "abc", state.SearchProject)

	state, err = view.ApplyFilters(ctx, []string{"Rim"})
	require.NoError(t, err)
	require.Len(t, state.Rows, 1)
	require.Equal(t, "u3", state.Rows[0].ID)

	state, err = view.ClearFilters(ctx)
	require.NoError(t, err)
	require.Len(t, state.Rows, 2)
	require.Equal(t, "abc", state.SearchProject)

	state, err = view.ClearAll(ctx)
	require.NoError(t, err)
	require.Len(t, state.Rows, 4)
	require.Empty(t, state.SearchProject)
	require.Empty(t, state.SelectedDiagnostics)
	require.Equal(t, int64(5), state.Tick)

	require.Equal(t, []activity.ActivityType{
		activity.TypeQuery, activity.TypeQuery, activity.TypeQuery, activity.TypeQuery, activity.TypeQuery,
	}, log.types())
}

func TestUniversalViewValidationErrorClearsRows(t *testing.T) {
	store := memstore.New()
	seedUniversal(store)
	log := &activityLog{}
	view := newRegistry(store, log).Get("viewer-1").Universal
	ctx := context.Background()

	_, err := view.Search(ctx, "")
	require.NoError(t, err)
	calls := store.Calls()

	tooMany := make([]string, 11)
	for i := range tooMany {
		tooMany[i] = fmt.Sprintf("D%d", i)
	}
	state, err := view.ApplyFilters(ctx, tooMany)
	require.ErrorIs(t, err, sherd.ErrTooManyDiagnostics)
	require.Equal(t, calls, store.Calls())

	require.Equal(t, session.ErrorValidation, state.ErrorKind)
	require.NotEmpty(t, state.Error)
	require.Empty(t, state.Rows)
	require.Zero(t, state.Stats.TotalSherds)
	require.Len(t, state.AvailableDiagnostics, 3)
	require.False(t, state.Loading)
	require.Equal(t, activity.TypeQueryRejected, log.types()[1])
}

func TestUniversalViewFetchErrorThenRecovery(t *testing.T) {
	store := memstore.New()
	seedUniversal(store)
	log := &activityLog{}
	view := newRegistry(store, log).Get("viewer-1").Universal
	ctx := context.Background()

	store.FailOn(repository.CollectionUniversal, errors.New("unavailable"))
	state, err := view.Search(ctx, "")
	require.ErrorIs(t, err, sherd.ErrFetch)
	require.Equal(t, session.ErrorFetch, state.ErrorKind)
	require.Equal(t, "failed to fetch data: unavailable", state.Error)
	require.Empty(t, state.Rows)
	require.False(t, state.Loading)

	store.FailOn(repository.CollectionUniversal, nil)
	state, err = view.Search(ctx, "")
	require.NoError(t, err)
	require.Empty(t, state.Error)
	require.Len(t, state.Rows, 4)
	require.Equal(t, []activity.ActivityType{activity.TypeFetchFailed, activity.TypeQuery}, log.types())
}

func TestUniversalViewDetail(t *testing.T) {
	store := memstore.New()
	seedUniversal(store)
	view := newRegistry(store, nil).Get("").Universal

	_, err := view.ViewDetail("u1")
	require.ErrorIs(t, err, session.ErrNoSelection)

	_, err = view.Search(context.Background(), "")
	require.NoError(t, err)

	rec, err := view.ViewDetail("u2")
	require.NoError(t, err)
	require.Equal(t, "Base", rec.DiagnosticType)
	require.Equal(t, "u2", view.State().Selected.ID)

	_, err = view.ViewDetail("missing")
	require.ErrorIs(t, err, sherd.ErrRecordNotFound)
}

// blockingQuerier lets a test control when each accepted query settles.
type blockingQuerier struct {
	started chan sherd.Filter
	release map[string]chan struct{}
	ctxs    map[string]context.Context
	mu      sync.Mutex
}

func newBlockingQuerier(projects ...string) *blockingQuerier {
	q := &blockingQuerier{
		started: make(chan sherd.Filter, len(projects)),
		release: map[string]chan struct{}{},
		ctxs:    map[string]context.Context{},
	}
	for _, p := range projects {
		q.release[p] = make(chan struct{})
	}
	return q
}

func (q *blockingQuerier) Query(ctx context.Context, f sherd.Filter) (*sherd.Result, error) {
	if err := sherd.ValidateFilter(f, sherd.DefaultMaxFilterValues); err != nil {
		return nil, err
	}

	q.mu.Lock()
	q.ctxs[f.ProjectID] = ctx
	q.mu.Unlock()
	q.started <- f

	<-q.release[f.ProjectID]
	res := sherd.EmptyResult()
	res.Rows = []sherd.SherdRecord{{ID: "from-" + f.ProjectID, ProjectID: f.ProjectID}}
	return res, nil
}

func (q *blockingQuerier) ctx(project string) context.Context {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.ctxs[project]
}

func TestUniversalViewDiscardsStaleResponse(t *testing.T) {
	querier := newBlockingQuerier("A", "B")
	stale := &staleCounter{}
	log := &activityLog{}
	registry := session.NewRegistry(session.Dependencies{Queries: querier, Activity: log, Stale: stale}, nil)
	view := registry.Get("v").Universal
	ctx := context.Background()

	type outcome struct {
		state session.UniversalState
		err   error
	}
	first := make(chan outcome, 1)
	go func() {
		state, err := view.Search(ctx, "A")
		first <- outcome{state, err}
	}()
	<-querier.started
	require.True(t, view.State().Loading)

	second := make(chan outcome, 1)
	go func() {
		state, err := view.Search(ctx, "B")
		second <- outcome{state, err}
	}()
	<-querier.started

	require.ErrorIs(t, querier.ctx("A").Err(), context.Canceled)

	close(querier.release["B"])
	got := <-second
	require.NoError(t, got.err)
	require.Equal(t, "from-B", got.state.Rows[0].ID)
	require.False(t, got.state.Loading)

	close(querier.release["A"])
	late := <-first
	require.ErrorIs(t, late.err, session.ErrSuperseded)

	state := view.State()
	require.Equal(t, "from-B", state.Rows[0].ID)
	require.Equal(t, int64(2), state.Tick)
	require.False(t, state.Loading)
	require.Equal(t, 1, stale.get("query"))
	require.Equal(t, []activity.ActivityType{activity.TypeQuery}, log.types())
}

func TestUniversalViewLoadingClearedWhenLatestFails(t *testing.T) {
	querier := newBlockingQuerier("A")
	registry := session.NewRegistry(session.Dependencies{Queries: querier}, nil)
	view := registry.Get("v").Universal

	done := make(chan error, 1)
	go func() {
		_, err := view.Search(context.Background(), "A")
		done <- err
	}()
	<-querier.started

	tooMany := make([]string, 11)
	state, err := view.ApplyFilters(context.Background(), tooMany)
	require.Error(t, err)
	require.NotErrorIs(t, err, session.ErrSuperseded)
	require.False(t, state.Loading)

	close(querier.release["A"])
	require.ErrorIs(t, <-done, session.ErrSuperseded)
	require.False(t, view.State().Loading)
}

func seedProject(store *memstore.Store) {
	store.Put(repository.CollectionProjects, "p1", nil)
	store.Put(repository.CollectionProjects, "p2", nil)
	store.Put(repository.StudyAreasPath("p1"), "SA1", nil)
	store.Put(repository.StratUnitsPath("p1", "SA1"), "SU1", nil)
	store.Put(repository.ContainersPath("p1", "SA1", "SU1"), "C1", nil)
	store.Put(repository.GroupsPath("p1", "SA1", "SU1", "C1"), "G1", map[string]any{"label": "Lot"})
	store.Put(repository.ObjectsPath("p1", "SA1", "SU1", "C1", "G1"), "o1", map[string]any{"count": 2, "weight": 4.5})
	store.Put(repository.ObjectsPath("p1", "SA1", "SU1", "C1", "G1"), "o2", map[string]any{"count": 1, "weight": 1.2})
}

func TestProjectViewSelectRoot(t *testing.T) {
	store := memstore.New()
	seedProject(store)
	log := &activityLog{}
	view := newRegistry(store, log).Get("v").Project
	ctx := context.Background()

	state, err := view.LoadProjects(ctx)
	require.NoError(t, err)
	require.Len(t, state.Projects, 2)
	require.Equal(t, "P1", state.Projects[0].Name)

	state, err = view.SelectRoot(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, state.Rows, 2)
	require.Equal(t, 3, state.Stats.TotalSherds)
	require.Equal(t, "p1", state.SelectedProject)

	row, err := view.ViewDetail("SA1-SU1-C1-G1-o2")
	require.NoError(t, err)
	require.Equal(t, 1, row.Count)

	calls := store.Calls()
	state, err = view.SelectRoot(ctx, "")
	require.NoError(t, err)
	require.Empty(t, state.Rows)
	require.Zero(t, state.Stats.TotalSherds)
	require.Nil(t, state.Selected)
	require.Equal(t, calls, store.Calls())

	require.Equal(t, []activity.ActivityType{activity.TypeProjectsListed, activity.TypeAggregate}, log.types())
}

func TestProjectViewAggregateError(t *testing.T) {
	store := memstore.New()
	seedProject(store)
	view := newRegistry(store, nil).Get("v").Project
	ctx := context.Background()

	_, err := view.SelectRoot(ctx, "p1")
	require.NoError(t, err)

	store.FailOn(repository.ContainersPath("p1", "SA1", "SU1"), errors.New("timeout"))
	state, err := view.SelectRoot(ctx, "p1")
	require.ErrorIs(t, err, hierarchy.ErrFetch)
	require.Empty(t, state.Rows)
	require.Contains(t, state.Error, "failed to fetch project data")
	require.False(t, state.Loading)
}

func TestProjectViewListError(t *testing.T) {
	store := memstore.New()
	store.FailOn(repository.CollectionProjects, errors.New("offline"))
	view := newRegistry(store, nil).Get("v").Project

	state, err := view.LoadProjects(context.Background())
	require.ErrorIs(t, err, project.ErrFetch)
	require.Contains(t, state.Error, "failed to fetch projects")
	require.False(t, state.Loading)
}

func TestRegistry(t *testing.T) {
	registry := session.NewRegistry(session.Dependencies{}, nil)

	a := registry.Get("a")
	require.Same(t, a, registry.Get("a"))
	require.Equal(t, session.DefaultViewerID, registry.Get(" ").ID)
	require.Equal(t, []string{"a", "default"}, registry.IDs())

	registry.Drop("a")
	require.NotSame(t, a, registry.Get("a"))
}

func TestRegistryStatelessFetchesAreLogged(t *testing.T) {
	store := memstore.New()
	seedUniversal(store)
	store.FailOn(repository.StudyAreasPath("BAD"), errors.New("unavailable"))
	log := &activityLog{}
	registry := session.NewRegistry(session.Dependencies{
		Queries:    sherd.NewService(store, sherd.Options{}, nil),
		Aggregator: hierarchy.NewService(store, hierarchy.Options{}, nil),
		Activity:   log,
	}, nil)
	ctx := context.Background()

	res, err := registry.Query(ctx, "", sherd.Filter{ProjectID: "abc"})
	require.NoError(t, err)
	require.Len(t, res.Rows, 2)

	_, err = registry.Query(ctx, "v", sherd.Filter{Diagnostics: make([]string, 11)})
	require.ErrorIs(t, err, sherd.ErrTooManyDiagnostics)

	_, err = registry.Aggregate(ctx, "v", "BAD")
	require.ErrorIs(t, err, hierarchy.ErrFetch)

	_, err = registry.Aggregate(ctx, "v", " ")
	require.NoError(t, err)

	require.Equal(t, []activity.ActivityType{
		activity.TypeQuery,
		activity.TypeQueryRejected,
		activity.TypeFetchFailed,
	}, log.types())

	log.mu.Lock()
	defer log.mu.Unlock()
	require.Equal(t, session.DefaultViewerID, log.entries[0].SessionID)
	require.Equal(t, "ABC", log.entries[0].ProjectID)
	require.Equal(t, 2, log.entries[0].ResultCount)
	require.Equal(t, "BAD", log.entries[2].ProjectID)

	// Stateless fetches leave the views alone.
	require.Empty(t, registry.IDs())
}
