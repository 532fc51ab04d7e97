package project

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rpggio/arcview/internal/repository"
)

// displayWidth is the zero-padded width of a displayed project id.
const displayWidth = 5

// Service handles project discovery.
type Service struct {
	store  Lister
	logger *slog.Logger
}

// NewService creates a new project service.
func NewService(store Lister, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{store: store, logger: logger}
}

// List returns every project of the store in its native order.
func (s *Service) List(ctx context.Context) ([]ProjectSummary, error) {
	docs, err := s.store.ListChildren(ctx, repository.CollectionProjects)
	if err != nil {
		s.logger.Error("listing projects failed", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}

	projects := make([]ProjectSummary, 0, len(docs))
	for _, doc := range docs {
		projects = append(projects, ProjectSummary{
			ID:        doc.ID,
			Name:      strings.ToUpper(doc.ID),
			DisplayID: FormatID(doc.ID),
		})
	}

	s.logger.Debug("listed projects", "count", len(projects))
	return projects, nil
}

// FormatID left-pads a project id with zeros for display.
func FormatID(id string) string {
	if len(id) >= displayWidth {
		return id
	}
	return strings.Repeat("0", displayWidth-len(id)) + id
}

// NormalizeID returns the canonical comparison key of a project id.
// Ids are upper-cased, never padded.
func NormalizeID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}
