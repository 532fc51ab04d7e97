package hierarchy

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rpggio/arcview/internal/repository"
)

const operation = "aggregate"

// Service flattens a project tree into rows with running totals.
type Service struct {
	store  Lister
	opts   Options
	logger *slog.Logger
}

// NewService creates a new aggregator.
func NewService(store Lister, opts Options, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{store: store, opts: opts, logger: logger}
}

// Aggregate walks every study area, strat unit, container, group and object
// of the project depth first. An empty project id returns an empty result
// without contacting the store. Any failed enumeration fails the whole
// aggregation and no partial rows are returned.
func (s *Service) Aggregate(ctx context.Context, projectID string) (*Result, error) {
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		return EmptyResult(), nil
	}

	start := time.Now()
	res, err := s.aggregate(ctx, projectID)
	s.record(err, time.Since(start))
	if err != nil {
		s.logger.Error("aggregation failed", "project_id", projectID, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}

	s.logger.Debug("aggregated project",
		"project_id", projectID,
		"rows", len(res.Rows),
		"total_sherds", res.Stats.TotalSherds,
		"duration", time.Since(start),
	)
	return res, nil
}

func (s *Service) aggregate(ctx context.Context, projectID string) (*Result, error) {
	areas, err := s.store.ListChildren(ctx, repository.StudyAreasPath(projectID))
	if err != nil {
		return nil, fmt.Errorf("listing study areas: %w", err)
	}

	branches := make([]*branch, len(areas))

	if !s.opts.Parallel {
		for i, area := range areas {
			b, err := s.walkStudyArea(ctx, projectID, area.ID)
			if err != nil {
				return nil, err
			}
			branches[i] = b
		}
		return merge(projectID, branches), nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, area := range areas {
		g.Go(func() error {
			b, err := s.walkStudyArea(gctx, projectID, area.ID)
			if err != nil {
				return err
			}
			branches[i] = b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return merge(projectID, branches), nil
}

func (s *Service) walkStudyArea(ctx context.Context, projectID, areaID string) (*branch, error) {
	b := newBranch()

	units, err := s.store.ListChildren(ctx, repository.StratUnitsPath(projectID, areaID))
	if err != nil {
		return nil, fmt.Errorf("listing strat units of %s: %w", areaID, err)
	}

	for _, unit := range units {
		containers, err := s.store.ListChildren(ctx, repository.ContainersPath(projectID, areaID, unit.ID))
		if err != nil {
			return nil, fmt.Errorf("listing containers of %s/%s: %w", areaID, unit.ID, err)
		}
		b.containers += len(containers)

		for _, container := range containers {
			groups, err := s.store.ListChildren(ctx, repository.GroupsPath(projectID, areaID, unit.ID, container.ID))
			if err != nil {
				return nil, fmt.Errorf("listing groups of container %s: %w", container.ID, err)
			}

			for _, group := range groups {
				objects, err := s.store.ListChildren(ctx, repository.ObjectsPath(projectID, areaID, unit.ID, container.ID, group.ID))
				if err != nil {
					return nil, fmt.Errorf("listing objects of group %s: %w", group.ID, err)
				}

				a := ancestry{
					studyArea: areaID,
					stratUnit: unit.ID,
					container: container.ID,
					groupID:   group.ID,
					group:     groupLabel(group),
				}
				for _, obj := range objects {
					b.add(flattenObject(a, obj))
				}
			}
		}
	}

	return b, nil
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
