package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rpggio/arcview/internal/domain/activity"
	"github.com/rpggio/arcview/internal/domain/hierarchy"
	"github.com/rpggio/arcview/internal/domain/project"
	"github.com/rpggio/arcview/internal/domain/sherd"
)

// Query runs a filtered query on behalf of a viewer without touching its
// view state. The settled fetch is logged with tick 0.
func (r *Registry) Query(ctx context.Context, viewerID string, f sherd.Filter) (*sherd.Result, error) {
	res, err := r.deps.Queries.Query(ctx, f)
	logEntry(ctx, r.deps.Activity, r.logger, queryEntry(normalizeViewerID(viewerID), 0, f, res, err))
	return res, err
}

// Aggregate flattens a project tree on behalf of a viewer without touching
// its view state. An empty project id is not logged.
func (r *Registry) Aggregate(ctx context.Context, viewerID, projectID string) (*hierarchy.Result, error) {
	res, err := r.deps.Aggregator.Aggregate(ctx, projectID)
	if strings.TrimSpace(projectID) != "" {
		logEntry(ctx, r.deps.Activity, r.logger, aggregateEntry(normalizeViewerID(viewerID), 0, strings.TrimSpace(projectID), res, err))
	}
	return res, err
}

func normalizeViewerID(id string) string {
	if id = strings.TrimSpace(id); id == "" {
		return DefaultViewerID
	}
	return id
}

func queryEntry(viewerID string, tick int64, filter sherd.Filter, res *sherd.Result, err error) *activity.ActivityEntry {
	details, _ := json.Marshal(filter)
	entry := &activity.ActivityEntry{
		SessionID: viewerID,
		ProjectID: project.NormalizeID(filter.ProjectID),
		Details:   string(details),
		Tick:      tick,
	}

	switch {
	case errors.Is(err, sherd.ErrTooManyDiagnostics):
		entry.ActivityType = activity.TypeQueryRejected
		entry.Summary = err.Error()
	case err != nil:
		entry.ActivityType = activity.TypeFetchFailed
		entry.Summary = err.Error()
	default:
		entry.ActivityType = activity.TypeQuery
		entry.ResultCount = len(res.Rows)
		entry.Summary = fmt.Sprintf("%d sherds, %d diagnostic types", len(res.Rows), len(res.Stats.DiagnosticCounts))
	}
	return entry
}

func aggregateEntry(viewerID string, tick int64, projectID string, res *hierarchy.Result, err error) *activity.ActivityEntry {
	entry := &activity.ActivityEntry{
		SessionID:    viewerID,
		ProjectID:    projectID,
		ActivityType: activity.TypeAggregate,
		Tick:         tick,
	}
	if err != nil {
		entry.ActivityType = activity.TypeFetchFailed
		entry.Summary = err.Error()
	} else {
		entry.ResultCount = len(res.Rows)
		entry.Summary = fmt.Sprintf("%d rows, %d sherds", len(res.Rows), res.Stats.TotalSherds)
	}
	return entry
}

// logEntry appends entry to the activity log. Failures are only logged.
func logEntry(ctx context.Context, log ActivityLogger, logger *slog.Logger, entry *activity.ActivityEntry) {
	if log == nil {
		return
	}
	if err := log.LogActivity(context.WithoutCancel(ctx), entry); err != nil {
		logger.Warn("failed to log activity", "viewer", entry.SessionID, "error", err)
	}
}
