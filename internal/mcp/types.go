package mcp

import (
	"github.com/rpggio/arcview/internal/domain/activity"
	"github.com/rpggio/arcview/internal/domain/hierarchy"
	"github.com/rpggio/arcview/internal/domain/project"
	"github.com/rpggio/arcview/internal/domain/session"
	"github.com/rpggio/arcview/internal/domain/sherd"
)

type EmptyParams struct{}

type SelectProjectParams struct {
	ProjectID string `json:"project_id,omitempty" jsonschema:"project id from list_projects; empty clears the selection"`
}

type ViewRowParams struct {
	RowID string `json:"row_id" jsonschema:"row id from the current project table"`
}

type SearchSherdsParams struct {
	ProjectID string `json:"project_id,omitempty" jsonschema:"project id to match; empty matches every project"`
}

type ApplyFiltersParams struct {
	Diagnostics []string `json:"diagnostics" jsonschema:"diagnostic types to keep, at most 10 by default"`
}

type ViewSherdParams struct {
	ID string `json:"id" jsonschema:"record id from the current sherd rows"`
}

type GetViewStateParams struct {
	View string `json:"view,omitempty" jsonschema:"universal or project; empty returns both"`
}

type QuerySherdsParams struct {
	ProjectID   string   `json:"project_id,omitempty" jsonschema:"project id to match, compared upper-cased"`
	Diagnostics []string `json:"diagnostics,omitempty" jsonschema:"diagnostic types to match, at most 10 by default"`
}

type AggregateProjectParams struct {
	ProjectID string `json:"project_id" jsonschema:"project id to flatten"`
}

type GetRecentActivityParams struct {
	ProjectID    string                 `json:"project_id,omitempty"`
	SessionID    string                 `json:"session_id,omitempty" jsonschema:"viewer id; empty lists every viewer"`
	ActivityType *activity.ActivityType `json:"activity_type,omitempty"`
	Since        string                 `json:"since,omitempty" jsonschema:"RFC 3339 time; only entries at or after it"`
	Limit        int                    `json:"limit,omitempty"`
	Offset       int                    `json:"offset,omitempty"`
}

type ListProjectsResponse struct {
	ViewID   string                   `json:"view_id"`
	Projects []project.ProjectSummary `json:"projects"`
}

type ProjectViewResponse struct {
	ViewID string               `json:"view_id"`
	State  session.ProjectState `json:"state"`
}

type UniversalViewResponse struct {
	ViewID string                 `json:"view_id"`
	State  session.UniversalState `json:"state"`
}

type ViewStateResponse struct {
	ViewID    string                  `json:"view_id"`
	Universal *session.UniversalState `json:"universal,omitempty"`
	Project   *session.ProjectState   `json:"project,omitempty"`
}

type RowResponse struct {
	Row hierarchy.FlatRow `json:"row"`
}

type SherdResponse struct {
	Sherd            sherd.SherdRecord `json:"sherd"`
	DisplayProjectID string            `json:"display_project_id"`
}

type ActivityResponse struct {
	Entries []activity.ActivityEntry `json:"entries"`
}
