package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rpggio/arcview/internal/domain/activity"
	"github.com/rpggio/arcview/internal/domain/project"
	"github.com/rpggio/arcview/internal/domain/session"
	"github.com/rpggio/arcview/internal/domain/sherd"
)

// registerTools adds every tool to the server.
func registerTools(server *sdkmcp.Server, svc Services, logger *slog.Logger) {
	h := &toolHandlers{svc: svc, logger: logger}

	// Project tree view
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_projects",
		Description: "List the projects that can be selected in the project view",
	}, h.listProjects)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "select_project",
		Description: "Select a project and flatten its study area, strat unit, container, group and object tree into rows with totals",
	}, h.selectProject)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "view_project_row",
		Description: "Show one row of the selected project's table",
	}, h.viewProjectRow)

	// Universal sherd view
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "search_sherds",
		Description: "Search the universal sherd collection by project id, keeping the current diagnostic filter",
	}, h.searchSherds)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "apply_filters",
		Description: "Filter the sherd view by up to 10 diagnostic types",
	}, h.applyFilters)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "clear_filters",
		Description: "Drop the diagnostic filter and refetch",
	}, h.clearFilters)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "clear_all",
		Description: "Drop the project search and the diagnostic filter and refetch",
	}, h.clearAll)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "view_sherd",
		Description: "Show the details of one sherd of the current result",
	}, h.viewSherd)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_view_state",
		Description: "Return the current state of the caller's views without fetching",
	}, h.getViewState)

	// Stateless
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "query_sherds",
		Description: "Run one filtered query without touching any view",
	}, h.querySherds)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "aggregate_project",
		Description: "Flatten one project tree without touching any view",
	}, h.aggregateProject)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_recent_activity",
		Description: "List recent fetches, newest first",
	}, h.getRecentActivity)
}

type toolHandlers struct {
	svc    Services
	logger *slog.Logger
}

func (h *toolHandlers) viewer(ctx context.Context, req *sdkmcp.CallToolRequest) *session.Viewer {
	return h.svc.Viewers.Get(viewerID(ctx, req))
}

func (h *toolHandlers) listProjects(ctx context.Context, req *sdkmcp.CallToolRequest, _ EmptyParams) (*sdkmcp.CallToolResult, any, error) {
	v := h.viewer(ctx, req)
	state, err := v.Project.LoadProjects(ctx)
	if err != nil {
		return toolError(err, nil), nil, nil
	}
	return nil, ListProjectsResponse{ViewID: v.ID, Projects: state.Projects}, nil
}

func (h *toolHandlers) selectProject(ctx context.Context, req *sdkmcp.CallToolRequest, in SelectProjectParams) (*sdkmcp.CallToolResult, any, error) {
	v := h.viewer(ctx, req)
	state, err := v.Project.SelectRoot(ctx, in.ProjectID)
	if err != nil {
		return toolError(err, ProjectViewResponse{ViewID: v.ID, State: state}), nil, nil
	}
	return nil, ProjectViewResponse{ViewID: v.ID, State: state}, nil
}

func (h *toolHandlers) viewProjectRow(ctx context.Context, req *sdkmcp.CallToolRequest, in ViewRowParams) (*sdkmcp.CallToolResult, any, error) {
	row, err := h.viewer(ctx, req).Project.ViewDetail(in.RowID)
	if err != nil {
		return toolError(err, nil), nil, nil
	}
	return nil, RowResponse{Row: row}, nil
}

func (h *toolHandlers) searchSherds(ctx context.Context, req *sdkmcp.CallToolRequest, in SearchSherdsParams) (*sdkmcp.CallToolResult, any, error) {
	v := h.viewer(ctx, req)
	return universalResult(v, func() (session.UniversalState, error) {
		return v.Universal.Search(ctx, in.ProjectID)
	})
}

func (h *toolHandlers) applyFilters(ctx context.Context, req *sdkmcp.CallToolRequest, in ApplyFiltersParams) (*sdkmcp.CallToolResult, any, error) {
	v := h.viewer(ctx, req)
	return universalResult(v, func() (session.UniversalState, error) {
		return v.Universal.ApplyFilters(ctx, in.Diagnostics)
	})
}

func (h *toolHandlers) clearFilters(ctx context.Context, req *sdkmcp.CallToolRequest, _ EmptyParams) (*sdkmcp.CallToolResult, any, error) {
	v := h.viewer(ctx, req)
	return universalResult(v, func() (session.UniversalState, error) {
		return v.Universal.ClearFilters(ctx)
	})
}

func (h *toolHandlers) clearAll(ctx context.Context, req *sdkmcp.CallToolRequest, _ EmptyParams) (*sdkmcp.CallToolResult, any, error) {
	v := h.viewer(ctx, req)
	return universalResult(v, func() (session.UniversalState, error) {
		return v.Universal.ClearAll(ctx)
	})
}

func universalResult(v *session.Viewer, fetch func() (session.UniversalState, error)) (*sdkmcp.CallToolResult, any, error) {
	state, err := fetch()
	resp := UniversalViewResponse{ViewID: v.ID, State: state}
	if err != nil {
		return toolError(err, resp), nil, nil
	}
	return nil, resp, nil
}

func (h *toolHandlers) viewSherd(ctx context.Context, req *sdkmcp.CallToolRequest, in ViewSherdParams) (*sdkmcp.CallToolResult, any, error) {
	rec, err := h.viewer(ctx, req).Universal.ViewDetail(in.ID)
	if err != nil {
		return toolError(err, nil), nil, nil
	}
	return nil, SherdResponse{Sherd: rec, DisplayProjectID: project.FormatID(rec.ProjectID)}, nil
}

func (h *toolHandlers) getViewState(ctx context.Context, req *sdkmcp.CallToolRequest, in GetViewStateParams) (*sdkmcp.CallToolResult, any, error) {
	v := h.viewer(ctx, req)
	resp := ViewStateResponse{ViewID: v.ID}

	switch strings.ToLower(strings.TrimSpace(in.View)) {
	case "":
		u, p := v.Universal.State(), v.Project.State()
		resp.Universal, resp.Project = &u, &p
	case "universal":
		u := v.Universal.State()
		resp.Universal = &u
	case "project":
		p := v.Project.State()
		resp.Project = &p
	default:
		return toolError(session.ErrInvalidInput, map[string]string{"view": in.View}), nil, nil
	}
	return nil, resp, nil
}

func (h *toolHandlers) querySherds(ctx context.Context, req *sdkmcp.CallToolRequest, in QuerySherdsParams) (*sdkmcp.CallToolResult, any, error) {
	filter := sherd.Filter{ProjectID: in.ProjectID, Diagnostics: in.Diagnostics}
	res, err := h.svc.Viewers.Query(ctx, viewerID(ctx, req), filter)
	if err != nil {
		return toolError(err, nil), nil, nil
	}
	return nil, res, nil
}

func (h *toolHandlers) aggregateProject(ctx context.Context, req *sdkmcp.CallToolRequest, in AggregateProjectParams) (*sdkmcp.CallToolResult, any, error) {
	res, err := h.svc.Viewers.Aggregate(ctx, viewerID(ctx, req), in.ProjectID)
	if err != nil {
		return toolError(err, nil), nil, nil
	}
	return nil, res, nil
}

func (h *toolHandlers) getRecentActivity(ctx context.Context, _ *sdkmcp.CallToolRequest, in GetRecentActivityParams) (*sdkmcp.CallToolResult, any, error) {
	opts := activity.ListActivityOptions{
		SessionID:    in.SessionID,
		ProjectID:    in.ProjectID,
		ActivityType: in.ActivityType,
		Limit:        in.Limit,
		Offset:       in.Offset,
	}
	if in.Since != "" {
		since, err := time.Parse(time.RFC3339, in.Since)
		if err != nil {
			return toolError(fmt.Errorf("%w: since must be an RFC 3339 time", session.ErrInvalidInput), nil), nil, nil
		}
		opts.Since = since
	}

	entries, err := h.svc.Activity.GetRecentActivity(ctx, opts)
	if err != nil {
		h.logger.Error("listing activity failed", "error", err)
		return toolError(err, nil), nil, nil
	}
	if entries == nil {
		entries = []activity.ActivityEntry{}
	}
	return nil, ActivityResponse{Entries: entries}, nil
}
