package activity

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
	maxSummaryRunes  = 200
)

// Service records what each viewer fetched.
type Service struct {
	repo   Repository
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates an activity service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// LogActivity appends an entry. CreatedAt defaults to now and long
// summaries are cut to maxSummaryRunes.
func (s *Service) LogActivity(ctx context.Context, entry *ActivityEntry) error {
	if entry == nil || entry.ActivityType == "" {
		return ErrInvalidInput
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now()
	}
	entry.CreatedAt = entry.CreatedAt.UTC()
	if utf8.RuneCountInString(entry.Summary) > maxSummaryRunes {
		entry.Summary = string([]rune(entry.Summary)[:maxSummaryRunes])
	}

	if err := s.repo.Log(ctx, entry); err != nil {
		return fmt.Errorf("logging activity: %w", err)
	}
	return nil
}

// GetRecentActivity lists entries newest first. The limit defaults to 50
// and is capped at 500.
func (s *Service) GetRecentActivity(ctx context.Context, opts ListActivityOptions) ([]ActivityEntry, error) {
	switch {
	case opts.Limit <= 0:
		opts.Limit = defaultListLimit
	case opts.Limit > maxListLimit:
		opts.Limit = maxListLimit
	}
	entries, err := s.repo.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("listing activity: %w", err)
	}
	return entries, nil
}

// Prune drops entries older than retention. A non-positive retention keeps
// everything.
func (s *Service) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	if retention <= 0 {
		return 0, nil
	}
	cutoff := s.now().Add(-retention).UTC()
	n, err := s.repo.Prune(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("pruning activity: %w", err)
	}
	if n > 0 {
		s.logger.Info("pruned activity log", "removed", n, "before", cutoff)
	}
	return n, nil
}
