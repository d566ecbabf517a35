package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"safeguard/internal/models"
	"safeguard/internal/repository"
	"safeguard/internal/validation"
)

// ReportService builds weekly activity reports and keeps snapshots of finished weeks
type ReportService struct {
	videoRepo    *repository.VideoRepository
	activityRepo *repository.ActivityRepository
	reportRepo   *repository.ReportRepository
	logger       *zap.Logger
	now          func() time.Time
}

// NewReportService creates a new report service
func NewReportService(
	videoRepo *repository.VideoRepository,
	activityRepo *repository.ActivityRepository,
	reportRepo *repository.ReportRepository,
	logger *zap.Logger,
) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		videoRepo:    videoRepo,
		activityRepo: activityRepo,
		reportRepo:   reportRepo,
		logger:       logger,
		now:          time.Now,
	}
}

// CurrentWeek returns the report for the week containing now
func (s *ReportService) CurrentWeek(ctx context.Context, childID string) (*models.WeeklyReport, error) {
	childID = strings.TrimSpace(childID)
	if err := validation.ValidateChildID(childID); err != nil {
		return nil, invalid(err)
	}
	return s.BuildReport(ctx, childID, s.now())
}

// BuildReport computes the report for the week containing at
func (s *ReportService) BuildReport(ctx context.Context, childID string, at time.Time) (*models.WeeklyReport, error) {
	start, end := models.WeekBounds(at)

	videos, err := s.videoRepo.ListBetween(ctx, childID, start, end)
	if err != nil {
		return nil, err
	}
	hidden, err := s.activityRepo.CountWithHiddenComments(ctx, childID, start, end)
	if err != nil {
		return nil, err
	}

	report := &models.WeeklyReport{
		ChildID:        childID,
		WeekStart:      start,
		WeekEnd:        end,
		TotalVideos:    len(videos),
		HiddenComments: hidden,
		Videos:         make([]models.WeeklyReportVideo, 0, len(videos)),
		GeneratedAt:    s.now().UTC(),
	}

	for _, v := range videos {
		minutes := v.DurationSeconds / 60
		report.TotalMinutes += minutes
		switch v.Rating {
		case models.RatingWarning:
			report.FlaggedVideos++
		case models.RatingBlocked:
			report.BlockedVideos++
		}
		report.Videos = append(report.Videos, models.WeeklyReportVideo{
			Title:           v.Title,
			Uploader:        v.Uploader,
			DurationMinutes: minutes,
			Rating:          v.Rating,
			Categories:      v.Categories,
			WatchedAt:       v.WatchedAt,
		})
	}
	if report.TotalVideos > 0 {
		report.AverageMinutes = report.TotalMinutes / report.TotalVideos
	}
	report.SafetySummary = models.SafetySummaryLine(report.FlaggedVideos, report.HiddenComments)

	return report, nil
}

// SnapshotPreviousWeek stores the report of the last completed week. An
// existing snapshot is left untouched; the bool reports whether one was written.
func (s *ReportService) SnapshotPreviousWeek(ctx context.Context, childID string) (*models.WeeklyReport, bool, error) {
	start, _ := models.WeekBounds(s.now())
	report, err := s.BuildReport(ctx, childID, start.Add(-time.Second))
	if err != nil {
		return nil, false, err
	}

	saved, err := s.reportRepo.SaveReport(ctx, report)
	if err != nil {
		return nil, false, err
	}
	if saved {
		s.logger.Info("weekly report stored",
			zap.String("child_id", childID),
			zap.Time("week_start", report.WeekStart),
			zap.Int("total_videos", report.TotalVideos),
		)
	}
	return report, saved, nil
}

// AllReports lists stored snapshots for a child, newest week first
func (s *ReportService) AllReports(ctx context.Context, childID string) ([]models.WeeklyReport, error) {
	childID = strings.TrimSpace(childID)
	if err := validation.ValidateChildID(childID); err != nil {
		return nil, invalid(err)
	}
	return s.reportRepo.ListByChild(ctx, childID)
}
