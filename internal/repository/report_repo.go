package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"safeguard/internal/database"
	"safeguard/internal/models"
)

// ReportRepository handles database operations for weekly report snapshots
type ReportRepository struct {
	db database.DBTX
}

// NewReportRepository creates a new weekly report repository
func NewReportRepository(db database.DBTX) *ReportRepository {
	return &ReportRepository{db: db}
}

const reportColumns = `id, child_id, week_start, week_end, total_videos, total_minutes, average_minutes,
	flagged_videos, blocked_videos, hidden_comments, summary, videos, generated_at`

// SaveReport stores a snapshot. A snapshot for the same child and week is
// kept as is; SaveReport reports whether a new row was written.
func (r *ReportRepository) SaveReport(ctx context.Context, rep *models.WeeklyReport) (bool, error) {
	if rep.ID == "" {
		rep.ID = uuid.NewString()
	}
	videos := rep.Videos
	if videos == nil {
		videos = []models.WeeklyReportVideo{}
	}
	videosJSON, err := json.Marshal(videos)
	if err != nil {
		return false, fmt.Errorf("failed to encode report videos: %w", err)
	}

	query := r.db.GetDialect().InsertIgnore("weekly_reports", []string{
		"id", "child_id", "week_start", "week_end", "total_videos", "total_minutes", "average_minutes",
		"flagged_videos", "blocked_videos", "hidden_comments", "summary", "videos", "generated_at",
	})
	result, err := r.db.ExecContext(ctx, query,
		rep.ID, rep.ChildID, database.Timestamp(rep.WeekStart), database.Timestamp(rep.WeekEnd),
		rep.TotalVideos, rep.TotalMinutes, rep.AverageMinutes,
		rep.FlaggedVideos, rep.BlockedVideos, rep.HiddenComments, rep.SafetySummary,
		string(videosJSON), database.Timestamp(rep.GeneratedAt),
	)
	if err != nil {
		return false, fmt.Errorf("failed to save weekly report: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check saved weekly report: %w", err)
	}
	return n > 0, nil
}

// ListByChild returns a child's stored reports, newest week first
func (r *ReportRepository) ListByChild(ctx context.Context, childID string) ([]models.WeeklyReport, error) {
	query := "SELECT " + reportColumns + " FROM weekly_reports WHERE child_id = ? ORDER BY week_start DESC"
	return r.list(ctx, query, childID)
}

// ListAll returns every stored report
func (r *ReportRepository) ListAll(ctx context.Context) ([]models.WeeklyReport, error) {
	return r.list(ctx, "SELECT "+reportColumns+" FROM weekly_reports ORDER BY child_id, week_start")
}

func (r *ReportRepository) list(ctx context.Context, query string, args ...interface{}) ([]models.WeeklyReport, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query weekly reports: %w", err)
	}
	defer rows.Close()

	reports := []models.WeeklyReport{}
	for rows.Next() {
		var rep models.WeeklyReport
		var videos string
		if err := rows.Scan(
			&rep.ID,
			&rep.ChildID,
			&rep.WeekStart,
			&rep.WeekEnd,
			&rep.TotalVideos,
			&rep.TotalMinutes,
			&rep.AverageMinutes,
			&rep.FlaggedVideos,
			&rep.BlockedVideos,
			&rep.HiddenComments,
			&rep.SafetySummary,
			&videos,
			&rep.GeneratedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan weekly report: %w", err)
		}
		if err := json.Unmarshal([]byte(videos), &rep.Videos); err != nil {
			return nil, fmt.Errorf("failed to decode report videos: %w", err)
		}
		rep.WeekStart = rep.WeekStart.UTC()
		rep.WeekEnd = rep.WeekEnd.UTC()
		rep.GeneratedAt = rep.GeneratedAt.UTC()
		reports = append(reports, rep)
	}

	return reports, rows.Err()
}

// WithTx returns a repository bound to tx
func (r *ReportRepository) WithTx(tx *database.Tx) *ReportRepository {
	return &ReportRepository{db: tx}
}
