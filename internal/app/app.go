// Package app wires the stores, domain services and surfaces together.
package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/rpggio/arcview/internal/config"
	"github.com/rpggio/arcview/internal/domain/activity"
	"github.com/rpggio/arcview/internal/domain/hierarchy"
	"github.com/rpggio/arcview/internal/domain/project"
	"github.com/rpggio/arcview/internal/domain/session"
	"github.com/rpggio/arcview/internal/domain/sherd"
	"github.com/rpggio/arcview/internal/mcp"
	"github.com/rpggio/arcview/internal/metrics"
	"github.com/rpggio/arcview/internal/repository"
	"github.com/rpggio/arcview/internal/transport"
)

// Deps are the storage collaborators of an App.
type Deps struct {
	Documents repository.DocumentStore
	Activity  activity.Repository
	// Registry enables metrics when set.
	Registry *prometheus.Registry
}

// App holds the wired services.
type App struct {
	Projects   *project.Service
	Aggregates *hierarchy.Service
	Queries    *sherd.Service
	Activity   *activity.Service
	Viewers    *session.Registry
	Metrics    *metrics.FetchMetrics

	cfg    config.Config
	logger *slog.Logger
}

// New builds the services over deps.
func New(cfg config.Config, deps Deps, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	a := &App{cfg: cfg, logger: logger}

	var (
		aggRecorder   hierarchy.FetchRecorder
		queryRecorder sherd.FetchRecorder
		stale         session.StaleRecorder
	)
	if deps.Registry != nil {
		m, err := metrics.NewFetchMetrics(deps.Registry)
		if err != nil {
			return nil, err
		}
		a.Metrics = m
		aggRecorder, queryRecorder, stale = m, m, m
	}

	a.Projects = project.NewService(deps.Documents, logger)
	a.Aggregates = hierarchy.NewService(deps.Documents, hierarchy.Options{
		Parallel: cfg.Aggregate.Parallel,
		Recorder: aggRecorder,
	}, logger)
	a.Queries = sherd.NewService(deps.Documents, sherd.Options{
		PageSize:        cfg.Query.PageSize,
		MaxFilterValues: cfg.Query.MaxFilterValues,
		Recorder:        queryRecorder,
	}, logger)
	a.Activity = activity.NewService(deps.Activity, logger)
	a.Viewers = session.NewRegistry(session.Dependencies{
		Queries:    a.Queries,
		Aggregator: a.Aggregates,
		Projects:   a.Projects,
		Activity:   a.Activity,
		Stale:      stale,
	}, logger)

	return a, nil
}

// viewerIdleTimeout matches the MCP HTTP session timeout.
const viewerIdleTimeout = 30 * time.Minute

// ExpireViewers drops idle viewers every interval until ctx is done.
func (a *App) ExpireViewers(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if dropped := a.Viewers.Expire(viewerIdleTimeout); len(dropped) > 0 {
				a.logger.Info("expired idle viewers", "count", len(dropped))
			}
		}
	}
}

// MCPServer creates an MCP server over the app's services.
func (a *App) MCPServer(version string) *sdkmcp.Server {
	return mcp.NewServer(mcp.Config{
		Services: mcp.Services{
			Projects: a.Projects,
			Activity: a.Activity,
			Viewers:  a.Viewers,
		},
		TransportMode: a.cfg.Transport.Mode,
		Version:       version,
		Logger:        a.logger,
	})
}

// Handler returns the HTTP router with the API, /metrics and the MCP
// streamable HTTP endpoint mounted.
func (a *App) Handler(server *sdkmcp.Server) http.Handler {
	mcpHandler := sdkmcp.NewStreamableHTTPHandler(
		func(*http.Request) *sdkmcp.Server { return server },
		&sdkmcp.StreamableHTTPOptions{
			Stateless:      false,
			SessionTimeout: viewerIdleTimeout,
		},
	)

	opts := transport.Options{MCP: mcpHandler, Logger: a.logger}
	if a.Metrics != nil && a.cfg.Metrics.Enabled {
		opts.Metrics = a.Metrics.Handler()
	}

	return transport.NewServer(transport.Services{
		Projects: a.Projects,
		Activity: a.Activity,
		Viewers:  a.Viewers,
	}, opts)
}
