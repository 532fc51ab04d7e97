package session

import (
	"context"

	"github.com/rpggio/arcview/internal/domain/activity"
	"github.com/rpggio/arcview/internal/domain/hierarchy"
	"github.com/rpggio/arcview/internal/domain/project"
	"github.com/rpggio/arcview/internal/domain/sherd"
)

// Querier runs filtered queries over the universal collection.
type Querier interface {
	Query(ctx context.Context, f sherd.Filter) (*sherd.Result, error)
}

// Aggregator flattens a project tree.
type Aggregator interface {
	Aggregate(ctx context.Context, projectID string) (*hierarchy.Result, error)
}

// ProjectLister lists selectable projects.
type ProjectLister interface {
	List(ctx context.Context) ([]project.ProjectSummary, error)
}

// ActivityLogger appends settled fetches to the activity log.
type ActivityLogger interface {
	LogActivity(ctx context.Context, entry *activity.ActivityEntry) error
}

// StaleRecorder counts discarded responses.
type StaleRecorder interface {
	RecordStaleResponse(operation string)
}
