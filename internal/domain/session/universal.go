package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rpggio/arcview/internal/domain/sherd"
)

const universalOperation = "query"

// UniversalView holds the flat sherd view of one viewer. Every fetching
// operation blocks until its request settles and returns the resulting
// state. A dispatch superseded by a newer one returns ErrSuperseded and
// leaves the state to the newer dispatch.
type UniversalView struct {
	viewerID string
	deps     Dependencies
	logger   *slog.Logger

	mu    sync.Mutex
	seq   sequencer
	state UniversalState
}

func newUniversalView(viewerID string, deps Dependencies, logger *slog.Logger) *UniversalView {
	return &UniversalView{
		viewerID: viewerID,
		deps:     deps,
		logger:   logger,
		state:    newUniversalState(),
	}
}

// State returns a snapshot of the view.
func (v *UniversalView) State() UniversalState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state.copy()
}

// Search sets the project predicate and fetches with the current
// diagnostic selection. An empty project id fetches every project.
func (v *UniversalView) Search(ctx context.Context, projectID string) (UniversalState, error) {
	return v.dispatch(ctx, func(s *UniversalState) {
		s.SearchProject = projectID
	})
}

// ApplyFilters replaces the diagnostic selection and fetches.
func (v *UniversalView) ApplyFilters(ctx context.Context, diagnostics []string) (UniversalState, error) {
	return v.dispatch(ctx, func(s *UniversalState) {
		s.SelectedDiagnostics = append([]string{}, diagnostics...)
	})
}

// ClearFilters drops the diagnostic selection and fetches.
func (v *UniversalView) ClearFilters(ctx context.Context) (UniversalState, error) {
	return v.dispatch(ctx, func(s *UniversalState) {
		s.SelectedDiagnostics = []string{}
	})
}

// ClearAll drops both predicates and fetches.
func (v *UniversalView) ClearAll(ctx context.Context) (UniversalState, error) {
	return v.dispatch(ctx, func(s *UniversalState) {
		s.SearchProject = ""
		s.SelectedDiagnostics = []string{}
	})
}

// ViewDetail selects a row of the current result.
func (v *UniversalView) ViewDetail(id string) (sherd.SherdRecord, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if len(v.state.Rows) == 0 {
		return sherd.SherdRecord{}, ErrNoSelection
	}
	for _, rec := range v.state.Rows {
		if rec.ID == id {
			sel := rec
			v.state.Selected = &sel
			return rec, nil
		}
	}
	return sherd.SherdRecord{}, fmt.Errorf("%w: %s", sherd.ErrRecordNotFound, id)
}

func (v *UniversalView) dispatch(ctx context.Context, mutate func(*UniversalState)) (UniversalState, error) {
	v.mu.Lock()
	mutate(&v.state)
	filter := sherd.Filter{
		ProjectID:   v.state.SearchProject,
		Diagnostics: append([]string(nil), v.state.SelectedDiagnostics...),
	}
	ctx, tick := v.seq.begin(ctx)
	v.state.Tick = tick
	v.state.Loading = true
	v.state.Error = ""
	v.state.ErrorKind = ErrorNone
	v.mu.Unlock()

	res, err := v.deps.Queries.Query(ctx, filter)

	v.mu.Lock()
	if !v.seq.settle(tick) {
		snapshot := v.state.copy()
		v.mu.Unlock()
		v.discard(tick)
		return snapshot, ErrSuperseded
	}

	v.state.Loading = false
	v.state.UpdatedAt = time.Now()
	v.state.Selected = nil
	if err != nil {
		empty := sherd.EmptyResult()
		v.state.Rows = empty.Rows
		v.state.Stats = empty.Stats
		v.state.Distribution = empty.Distribution
		v.state.Error = err.Error()
		v.state.ErrorKind = ErrorFetch
		if errors.Is(err, sherd.ErrTooManyDiagnostics) {
			v.state.ErrorKind = ErrorValidation
		}
	} else {
		v.state.Rows = res.Rows
		v.state.Stats = res.Stats
		v.state.Distribution = res.Distribution
		v.state.AvailableDiagnostics = res.DistinctDiagnostics
	}
	snapshot := v.state.copy()
	v.mu.Unlock()

	v.logActivity(ctx, tick, filter, res, err)
	return snapshot, err
}

func (v *UniversalView) discard(tick int64) {
	v.logger.Debug("discarded stale response",
		"viewer", v.viewerID,
		"tick", tick,
		"latest", v.seq.current(),
	)
	if v.deps.Stale != nil {
		v.deps.Stale.RecordStaleResponse(universalOperation)
	}
}

func (v *UniversalView) logActivity(ctx context.Context, tick int64, filter sherd.Filter, res *sherd.Result, err error) {
	logEntry(ctx, v.deps.Activity, v.logger, queryEntry(v.viewerID, tick, filter, res, err))
}
