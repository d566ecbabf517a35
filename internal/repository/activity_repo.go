package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"safeguard/internal/database"
	"safeguard/internal/models"
)

// ActivityRepository handles database operations for activity logs
type ActivityRepository struct {
	db database.DBTX
}

// NewActivityRepository creates a new activity log repository
func NewActivityRepository(db database.DBTX) *ActivityRepository {
	return &ActivityRepository{db: db}
}

const activityColumns = `id, child_id, activity_type, domain, title, duration_seconds, flagged, reason, comments_hidden, recorded_at`

// CreateLog stores an activity log entry, assigning an ID if it has none
func (r *ActivityRepository) CreateLog(ctx context.Context, l *models.ActivityLog) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	l.RecordedAt = database.Timestamp(l.RecordedAt)

	query := "INSERT INTO activity_logs (" + activityColumns + ") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"
	_, err := r.db.ExecContext(ctx, query,
		l.ID, l.ChildID, l.ActivityType, l.Domain, l.Title, l.DurationSeconds,
		l.Flagged, l.Reason, l.CommentsHidden, l.RecordedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create activity log: %w", err)
	}
	return nil
}

// ListRecent returns a child's latest activity entries, newest first
func (r *ActivityRepository) ListRecent(ctx context.Context, childID string, limit int) ([]models.ActivityLog, error) {
	query := "SELECT " + activityColumns + " FROM activity_logs WHERE child_id = ? ORDER BY recorded_at DESC LIMIT ?"
	return r.list(ctx, query, childID, limit)
}

// ListAll returns every activity entry
func (r *ActivityRepository) ListAll(ctx context.Context) ([]models.ActivityLog, error) {
	return r.list(ctx, "SELECT "+activityColumns+" FROM activity_logs ORDER BY child_id, recorded_at")
}

// CountWithHiddenComments counts entries in [start, end] that hid at least one comment
func (r *ActivityRepository) CountWithHiddenComments(ctx context.Context, childID string, start, end time.Time) (int, error) {
	var count int
	query := `
		SELECT COUNT(*) FROM activity_logs
		WHERE child_id = ? AND recorded_at >= ? AND recorded_at <= ? AND comments_hidden > 0
	`
	err := r.db.QueryRowContext(ctx, query, childID, database.Timestamp(start), database.Timestamp(end)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count hidden comment activity: %w", err)
	}
	return count, nil
}

func (r *ActivityRepository) list(ctx context.Context, query string, args ...interface{}) ([]models.ActivityLog, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query activity logs: %w", err)
	}
	defer rows.Close()

	logs := []models.ActivityLog{}
	for rows.Next() {
		var l models.ActivityLog
		if err := rows.Scan(
			&l.ID,
			&l.ChildID,
			&l.ActivityType,
			&l.Domain,
			&l.Title,
			&l.DurationSeconds,
			&l.Flagged,
			&l.Reason,
			&l.CommentsHidden,
			&l.RecordedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan activity log: %w", err)
		}
		l.RecordedAt = l.RecordedAt.UTC()
		logs = append(logs, l)
	}

	return logs, rows.Err()
}

// WithTx returns a repository bound to tx
func (r *ActivityRepository) WithTx(tx *database.Tx) *ActivityRepository {
	return &ActivityRepository{db: tx}
}
