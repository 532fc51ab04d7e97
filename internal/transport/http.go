package transport

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rpggio/arcview/internal/domain/activity"
	"github.com/rpggio/arcview/internal/domain/project"
	"github.com/rpggio/arcview/internal/domain/session"
	"github.com/rpggio/arcview/internal/domain/sherd"
)

// ProjectLister lists selectable projects.
type ProjectLister interface {
	List(ctx context.Context) ([]project.ProjectSummary, error)
}

// ActivityLister lists recent fetch activity.
type ActivityLister interface {
	GetRecentActivity(ctx context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error)
}

// Services are the domain services behind the API.
type Services struct {
	Projects ProjectLister
	Activity ActivityLister
	// Viewers holds view state and runs the logged stateless fetches.
	Viewers *session.Registry
}

// Options mounts optional handlers. Nil handlers are not routed.
type Options struct {
	MCP     http.Handler
	Metrics http.Handler
	Logger  *slog.Logger
}

// Server wires HTTP handlers.
type Server struct {
	svc    Services
	logger *slog.Logger
}

// NewServer creates the HTTP router.
func NewServer(svc Services, opts Options) *chi.Mux {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	srv := &Server{svc: svc, logger: logger}

	r := chi.NewRouter()
	r.Use(ViewerMiddleware)

	r.Get("/health", srv.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/projects", srv.handleProjects)
		r.Get("/projects/{projectID}/rows", srv.handleProjectRows)
		r.Get("/sherds", srv.handleSherds)
		r.Get("/activity", srv.handleActivity)
		r.Get("/view", srv.handleView)
	})

	if opts.Metrics != nil {
		r.Handle("/metrics", opts.Metrics)
	}
	if opts.MCP != nil {
		r.Handle("/mcp", opts.MCP)
		r.Handle("/mcp/*", opts.MCP)
	}

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.svc.Projects.List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"projects": projects})
}

func (s *Server) handleProjectRows(w http.ResponseWriter, r *http.Request) {
	id, _ := ViewerIDFromContext(r.Context())
	res, err := s.svc.Viewers.Aggregate(r.Context(), id, chi.URLParam(r, "projectID"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleSherds accepts diagnostic as a repeated or comma-separated parameter.
func (s *Server) handleSherds(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := sherd.Filter{ProjectID: q.Get("project")}
	for _, raw := range q["diagnostic"] {
		for _, d := range strings.Split(raw, ",") {
			if d = strings.TrimSpace(d); d != "" {
				filter.Diagnostics = append(filter.Diagnostics, d)
			}
		}
	}

	id, _ := ViewerIDFromContext(r.Context())
	res, err := s.svc.Viewers.Query(r.Context(), id, filter)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := activity.ListActivityOptions{
		SessionID: q.Get("viewer"),
		ProjectID: q.Get("project"),
	}
	if t := q.Get("type"); t != "" {
		at := activity.ActivityType(t)
		opts.ActivityType = &at
	}
	var err error
	if opts.Since, err = timeParam(q.Get("since")); err != nil {
		s.fail(w, r, err)
		return
	}
	if opts.Limit, err = intParam(q.Get("limit")); err != nil {
		s.fail(w, r, err)
		return
	}
	if opts.Offset, err = intParam(q.Get("offset")); err != nil {
		s.fail(w, r, err)
		return
	}

	entries, err := s.svc.Activity.GetRecentActivity(r.Context(), opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if entries == nil {
		entries = []activity.ActivityEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

// handleView returns both views of the caller's viewer without fetching.
func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	id, _ := ViewerIDFromContext(r.Context())
	v := s.svc.Viewers.Get(id)
	writeJSON(w, http.StatusOK, map[string]any{
		"view_id":   v.ID,
		"universal": v.Universal.State(),
		"project":   v.Project.State(),
	})
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, _ := classify(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "status", status, "error", err)
	} else {
		s.logger.Debug("request rejected", "path", r.URL.Path, "status", status, "error", err)
	}
	writeError(w, err)
}

func intParam(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %q is not a non-negative integer", session.ErrInvalidInput, raw)
	}
	return n, nil
}

func timeParam(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q is not an RFC 3339 time", session.ErrInvalidInput, raw)
	}
	return t, nil
}
