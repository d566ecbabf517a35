package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"safeguard/internal/database"
	"safeguard/internal/models"
)

// VideoRepository handles database operations for tracked videos
type VideoRepository struct {
	db database.DBTX
}

// NewVideoRepository creates a new tracked video repository
func NewVideoRepository(db database.DBTX) *VideoRepository {
	return &VideoRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *VideoRepository) WithTx(tx *database.Tx) *VideoRepository {
	return &VideoRepository{db: tx}
}

const videoColumns = `id, child_id, url, title, uploader, duration_seconds, categories, content_rating, flags, watched_at`

// SeenSince reports whether the child watched url at or after since
func (r *VideoRepository) SeenSince(ctx context.Context, childID, url string, since time.Time) (bool, error) {
	var count int
	query := "SELECT COUNT(*) FROM tracked_videos WHERE child_id = ? AND url = ? AND watched_at >= ?"
	err := r.db.QueryRowContext(ctx, query, childID, url, database.Timestamp(since)).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check recent video: %w", err)
	}
	return count > 0, nil
}

// CreateVideo appends a tracked video, assigning an ID if it has none
func (r *VideoRepository) CreateVideo(ctx context.Context, v *models.TrackedVideo) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	v.WatchedAt = database.Timestamp(v.WatchedAt)

	categories, err := json.Marshal(v.Categories)
	if err != nil {
		return fmt.Errorf("failed to encode categories: %w", err)
	}
	flags := v.Flags
	if flags == nil {
		flags = []models.SafetyFlag{}
	}
	flagsJSON, err := json.Marshal(flags)
	if err != nil {
		return fmt.Errorf("failed to encode flags: %w", err)
	}

	query := "INSERT INTO tracked_videos (" + videoColumns + ") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"
	_, err = r.db.ExecContext(ctx, query,
		v.ID, v.ChildID, v.URL, v.Title, v.Uploader, v.DurationSeconds,
		string(categories), string(v.Rating), string(flagsJSON), v.WatchedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create tracked video: %w", err)
	}
	return nil
}

// ListRecent returns the child's most recent videos, newest first
func (r *VideoRepository) ListRecent(ctx context.Context, childID string, limit int) ([]models.TrackedVideo, error) {
	query := "SELECT " + videoColumns + " FROM tracked_videos WHERE child_id = ? ORDER BY watched_at DESC LIMIT ?"
	return r.list(ctx, query, childID, limit)
}

// ListBetween returns the child's videos watched within [start, end], oldest first
func (r *VideoRepository) ListBetween(ctx context.Context, childID string, start, end time.Time) ([]models.TrackedVideo, error) {
	query := "SELECT " + videoColumns + " FROM tracked_videos WHERE child_id = ? AND watched_at >= ? AND watched_at <= ? ORDER BY watched_at ASC"
	return r.list(ctx, query, childID, database.Timestamp(start), database.Timestamp(end))
}

// ListAll returns every tracked video
func (r *VideoRepository) ListAll(ctx context.Context) ([]models.TrackedVideo, error) {
	return r.list(ctx, "SELECT "+videoColumns+" FROM tracked_videos ORDER BY child_id, watched_at")
}

// CountByChild returns how many videos a child has on record
func (r *VideoRepository) CountByChild(ctx context.Context, childID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM tracked_videos WHERE child_id = ?", childID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count tracked videos: %w", err)
	}
	return count, nil
}

func (r *VideoRepository) list(ctx context.Context, query string, args ...interface{}) ([]models.TrackedVideo, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracked videos: %w", err)
	}
	defer rows.Close()

	videos := []models.TrackedVideo{}
	for rows.Next() {
		var v models.TrackedVideo
		var categories, flags, rating string
		if err := rows.Scan(
			&v.ID,
			&v.ChildID,
			&v.URL,
			&v.Title,
			&v.Uploader,
			&v.DurationSeconds,
			&categories,
			&rating,
			&flags,
			&v.WatchedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan tracked video: %w", err)
		}
		if err := json.Unmarshal([]byte(categories), &v.Categories); err != nil {
			return nil, fmt.Errorf("failed to decode categories: %w", err)
		}
		if err := json.Unmarshal([]byte(flags), &v.Flags); err != nil {
			return nil, fmt.Errorf("failed to decode flags: %w", err)
		}
		v.Rating = models.ContentRating(rating)
		v.WatchedAt = v.WatchedAt.UTC()
		videos = append(videos, v)
	}

	return videos, rows.Err()
}
