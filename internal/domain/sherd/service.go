package sherd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rpggio/arcview/internal/domain/project"
	"github.com/rpggio/arcview/internal/repository"
)

const operation = "query"

// Service runs filtered queries over the universal collection and derives
// ordering and statistics in memory.
type Service struct {
	store  Finder
	opts   Options
	logger *slog.Logger
}

// NewService creates a new query engine.
func NewService(store Finder, opts Options, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{store: store, opts: opts.withDefaults(), logger: logger}
}

// MaxFilterValues reports the values-per-predicate ceiling in effect.
func (s *Service) MaxFilterValues() int {
	return s.opts.MaxFilterValues
}

// BuildQuery compiles a filter into a single bounded, unordered query.
// The project id is upper-cased, never padded.
func (s *Service) BuildQuery(f Filter) repository.Query {
	q := repository.Query{
		Collection: repository.CollectionUniversal,
		Conditions: []repository.Condition{},
		Limit:      s.opts.PageSize,
	}

	if id := project.NormalizeID(f.ProjectID); id != "" {
		q.Conditions = append(q.Conditions, repository.Condition{
			Field: "projectId",
			Op:    repository.OpEqual,
			Value: id,
		})
	}
	if len(f.Diagnostics) > 0 {
		q.Conditions = append(q.Conditions, repository.Condition{
			Field: "diagnosticType",
			Op:    repository.OpIn,
			Value: append([]string(nil), f.Diagnostics...),
		})
	}

	return q
}

// Query validates the filter, issues one request and post-processes the
// page: normalize, sort newest first, compute stats and distinct tags.
func (s *Service) Query(ctx context.Context, f Filter) (*Result, error) {
	if err := ValidateFilter(f, s.opts.MaxFilterValues); err != nil {
		if s.opts.Recorder != nil {
			s.opts.Recorder.RecordValidationError(operation)
		}
		s.logger.Warn("rejected filter", "diagnostics", len(f.Diagnostics), "error", err)
		return nil, err
	}

	q := s.BuildQuery(f)

	start := time.Now()
	docs, err := s.store.Find(ctx, q)
	s.record(err, time.Since(start))
	if err != nil {
		s.logger.Error("query failed", "project_id", f.ProjectID, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}

	res := EmptyResult()
	res.Filter = Filter{
		ProjectID:   project.NormalizeID(f.ProjectID),
		Diagnostics: append([]string(nil), f.Diagnostics...),
	}
	if len(docs) == 0 {
		return res, nil
	}

	rows := make([]SherdRecord, 0, len(docs))
	for _, doc := range docs {
		rows = append(rows, Normalize(doc))
	}
	sortNewestFirst(rows)

	res.Rows = rows
	res.Stats = computeStats(rows)
	res.DistinctDiagnostics = distinctDiagnostics(rows)
	res.Distribution = distribution(res.Stats)

	s.logger.Debug("queried sherds",
		"conditions", len(q.Conditions),
		"rows", len(rows),
		"duration", time.Since(start),
	)
	return res, nil
}

func (s *Service) record(err error, d time.Duration) {
	if s.opts.Recorder == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	s.opts.Recorder.RecordFetch(operation, status, d)
}
