package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rpggio/arcview/internal/domain/activity"
)

const activityColumns = `id, session_id, project_id, activity_type, summary, details, result_count, created_at, tick`

// ActivityRepository implements activity.Repository on the activity_log table.
// Times are stored in UTC so they compare as text.
type ActivityRepository struct {
	db *DB
}

// NewActivityRepository creates an ActivityRepository.
func NewActivityRepository(db *DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Log appends an entry and sets its ID.
func (r *ActivityRepository) Log(ctx context.Context, entry *activity.ActivityEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	entry.CreatedAt = entry.CreatedAt.UTC()

	result, err := r.db.ExecContext(ctx, `
		INSERT INTO activity_log (session_id, project_id, activity_type, summary, details, result_count, created_at, tick)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.SessionID,
		entry.ProjectID,
		entry.ActivityType,
		entry.Summary,
		entry.Details,
		entry.ResultCount,
		entry.CreatedAt,
		entry.Tick,
	)
	if err != nil {
		return fmt.Errorf("failed to log activity: %w", err)
	}

	if id, err := result.LastInsertId(); err == nil {
		entry.ID = id
	}
	return nil
}

// List returns matching entries, newest first.
func (r *ActivityRepository) List(ctx context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error) {
	where, args := activityFilter(opts)
	query := "SELECT " + activityColumns + " FROM activity_log" + where + " ORDER BY created_at DESC, id DESC"

	switch {
	case opts.Limit > 0:
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	case opts.Offset > 0:
		// OFFSET needs a LIMIT clause.
		query += " LIMIT -1"
	}
	if opts.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, opts.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}
	defer rows.Close()

	entries := []activity.ActivityEntry{}
	for rows.Next() {
		var e activity.ActivityEntry
		if err := rows.Scan(
			&e.ID, &e.SessionID, &e.ProjectID, &e.ActivityType, &e.Summary,
			&e.Details, &e.ResultCount, &e.CreatedAt, &e.Tick,
		); err != nil {
			return nil, fmt.Errorf("failed to scan activity entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activity rows: %w", err)
	}
	return entries, nil
}

// Prune deletes entries created before the instant.
func (r *ActivityRepository) Prune(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM activity_log WHERE created_at < ?`, before.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to prune activity: %w", err)
	}
	return result.RowsAffected()
}

func activityFilter(opts activity.ListActivityOptions) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		conds = append(conds, cond)
		args = append(args, arg)
	}

	if opts.SessionID != "" {
		add("session_id = ?", opts.SessionID)
	}
	if opts.ProjectID != "" {
		add("project_id = ?", opts.ProjectID)
	}
	if opts.ActivityType != nil {
		add("activity_type = ?", string(*opts.ActivityType))
	}
	if !opts.Since.IsZero() {
		add("created_at >= ?", opts.Since.UTC())
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
