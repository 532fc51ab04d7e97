package session

import (
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"
)

// DefaultViewerID names the viewer of callers without a session.
const DefaultViewerID = "default"

// Dependencies are the collaborators shared by every viewer.
type Dependencies struct {
	Queries    Querier
	Aggregator Aggregator
	Projects   ProjectLister
	Activity   ActivityLogger
	Stale      StaleRecorder
}

// Viewer is the view state of one client session.
type Viewer struct {
	ID        string
	Universal *UniversalView
	Project   *ProjectView
	CreatedAt time.Time

	lastUsed time.Time
}

// Registry keys viewers by session id and creates them on first use.
type Registry struct {
	deps   Dependencies
	logger *slog.Logger

	mu      sync.Mutex
	viewers map[string]*Viewer
	now     func() time.Time
}

// NewRegistry creates an empty registry.
func NewRegistry(deps Dependencies, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Registry{
		deps:    deps,
		logger:  logger,
		viewers: map[string]*Viewer{},
		now:     time.Now,
	}
}

// Get returns the viewer of a session, creating it if missing.
func (r *Registry) Get(id string) *Viewer {
	id = strings.TrimSpace(id)
	if id == "" {
		id = DefaultViewerID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if v, ok := r.viewers[id]; ok {
		v.lastUsed = now
		return v
	}

	logger := r.logger.With("viewer", id)
	v := &Viewer{
		ID:        id,
		Universal: newUniversalView(id, r.deps, logger),
		Project:   newProjectView(id, r.deps, logger),
		CreatedAt: now,
		lastUsed:  now,
	}
	r.viewers[id] = v
	r.logger.Debug("created viewer", "viewer", id)
	return v
}

// Drop forgets a viewer.
func (r *Registry) Drop(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.viewers, id)
}

// Expire drops viewers not used within maxIdle and returns their ids.
func (r *Registry) Expire(maxIdle time.Duration) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-maxIdle)
	var dropped []string
	for id, v := range r.viewers {
		if v.lastUsed.Before(cutoff) {
			delete(r.viewers, id)
			dropped = append(dropped, id)
		}
	}
	sort.Strings(dropped)
	if len(dropped) > 0 {
		r.logger.Debug("expired idle viewers", "count", len(dropped))
	}
	return dropped
}

// IDs lists the known viewers.
func (r *Registry) IDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]string, 0, len(r.viewers))
	for id := range r.viewers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
