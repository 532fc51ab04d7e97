package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/rpggio/arcview/internal/domain/activity"
	"github.com/rpggio/arcview/internal/domain/hierarchy"
)

const projectOperation = "aggregate"

// ProjectView holds the project tree view of one viewer.
type ProjectView struct {
	viewerID string
	deps     Dependencies
	logger   *slog.Logger

	mu          sync.Mutex
	seq         sequencer
	listSeq     sequencer
	aggLoading  bool
	listLoading bool
	state       ProjectState
}

func newProjectView(viewerID string, deps Dependencies, logger *slog.Logger) *ProjectView {
	return &ProjectView{
		viewerID: viewerID,
		deps:     deps,
		logger:   logger,
		state:    newProjectState(),
	}
}

// State returns a snapshot of the view.
func (v *ProjectView) State() ProjectState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.snapshot()
}

func (v *ProjectView) snapshot() ProjectState {
	s := v.state.copy()
	s.Loading = v.aggLoading || v.listLoading
	return s
}

// LoadProjects refreshes the selectable project list.
func (v *ProjectView) LoadProjects(ctx context.Context) (ProjectState, error) {
	v.mu.Lock()
	ctx, tick := v.listSeq.begin(ctx)
	v.listLoading = true
	v.mu.Unlock()

	projects, err := v.deps.Projects.List(ctx)

	v.mu.Lock()
	if !v.listSeq.settle(tick) {
		snapshot := v.snapshot()
		v.mu.Unlock()
		v.discard("projects", tick)
		return snapshot, ErrSuperseded
	}
	v.listLoading = false
	if err != nil {
		v.state.Error = err.Error()
	} else {
		v.state.Projects = projects
		v.state.Error = ""
	}
	snapshot := v.snapshot()
	v.mu.Unlock()

	entry := &activity.ActivityEntry{
		SessionID:    v.viewerID,
		ActivityType: activity.TypeProjectsListed,
		Summary:      fmt.Sprintf("%d projects", len(projects)),
		ResultCount:  len(projects),
	}
	if err != nil {
		entry.ActivityType = activity.TypeFetchFailed
		entry.Summary = err.Error()
	}
	v.logActivity(ctx, entry)

	return snapshot, err
}

// SelectRoot aggregates the selected project. An empty id clears the view
// without contacting the store.
func (v *ProjectView) SelectRoot(ctx context.Context, projectID string) (ProjectState, error) {
	projectID = strings.TrimSpace(projectID)

	v.mu.Lock()
	v.state.SelectedProject = projectID
	ctx, tick := v.seq.begin(ctx)
	v.state.Tick = tick
	v.state.Error = ""
	v.state.Selected = nil

	if projectID == "" {
		v.seq.settle(tick)
		empty := hierarchy.EmptyResult()
		v.state.Rows = empty.Rows
		v.state.Stats = empty.Stats
		v.state.UpdatedAt = time.Now()
		v.aggLoading = false
		snapshot := v.snapshot()
		v.mu.Unlock()
		return snapshot, nil
	}

	v.aggLoading = true
	v.mu.Unlock()

	res, err := v.deps.Aggregator.Aggregate(ctx, projectID)

	v.mu.Lock()
	if !v.seq.settle(tick) {
		snapshot := v.snapshot()
		v.mu.Unlock()
		v.discard(projectOperation, tick)
		return snapshot, ErrSuperseded
	}

	v.aggLoading = false
	v.state.UpdatedAt = time.Now()
	if err != nil {
		empty := hierarchy.EmptyResult()
		v.state.Rows = empty.Rows
		v.state.Stats = empty.Stats
		v.state.Error = err.Error()
	} else {
		v.state.Rows = res.Rows
		v.state.Stats = res.Stats
	}
	snapshot := v.snapshot()
	v.mu.Unlock()

	v.logActivity(ctx, aggregateEntry(v.viewerID, tick, projectID, res, err))

	return snapshot, err
}

// ViewDetail selects a row of the current table.
func (v *ProjectView) ViewDetail(rowID string) (hierarchy.FlatRow, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if len(v.state.Rows) == 0 {
		return hierarchy.FlatRow{}, ErrNoSelection
	}
	for _, row := range v.state.Rows {
		if row.ID == rowID {
			sel := row
			v.state.Selected = &sel
			return row, nil
		}
	}
	return hierarchy.FlatRow{}, fmt.Errorf("%w: %s", hierarchy.ErrRowNotFound, rowID)
}

func (v *ProjectView) discard(operation string, tick int64) {
	v.logger.Debug("discarded stale response",
		"viewer", v.viewerID,
		"operation", operation,
		"tick", tick,
	)
	if v.deps.Stale != nil {
		v.deps.Stale.RecordStaleResponse(operation)
	}
}

func (v *ProjectView) logActivity(ctx context.Context, entry *activity.ActivityEntry) {
	logEntry(ctx, v.deps.Activity, v.logger, entry)
}
