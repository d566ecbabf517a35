package service

import (
	"context"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"safeguard/internal/models"
	"safeguard/internal/repository"
	"safeguard/internal/validation"
)

// Activity types recorded in the browsing history
const (
	ActivityVideoView   = "video-view"
	ActivityCommentSeen = "comment-seen"
	ActivitySiteVisit   = "site-visit"
)

// ActivityService records and lists a child's browsing history
type ActivityService struct {
	activityRepo *repository.ActivityRepository
	logger       *zap.Logger
	now          func() time.Time
}

// NewActivityService creates a new activity service
func NewActivityService(activityRepo *repository.ActivityRepository, logger *zap.Logger) *ActivityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActivityService{
		activityRepo: activityRepo,
		logger:       logger,
		now:          time.Now,
	}
}

// Record validates and stores one activity entry. A zero timestamp is
// replaced by the current time.
func (s *ActivityService) Record(ctx context.Context, entry *models.ActivityLog) error {
	entry.ChildID = strings.TrimSpace(entry.ChildID)
	if err := validation.ValidateChildID(entry.ChildID); err != nil {
		return invalid(err)
	}
	if entry.ActivityType == "" {
		entry.ActivityType = ActivitySiteVisit
	}
	if entry.CommentsHidden < 0 {
		return validationError("comments_hidden cannot be negative")
	}
	if entry.DurationSeconds < 0 {
		return validationError("duration cannot be negative")
	}
	if entry.RecordedAt.IsZero() {
		entry.RecordedAt = s.now()
	}
	entry.RecordedAt = entry.RecordedAt.UTC()

	if err := s.activityRepo.CreateLog(ctx, entry); err != nil {
		return err
	}

	s.logger.Debug("activity recorded",
		zap.String("child_id", entry.ChildID),
		zap.String("type", entry.ActivityType),
		zap.String("domain", entry.Domain),
		zap.Int("comments_hidden", entry.CommentsHidden),
	)
	return nil
}

// Recent returns the latest entries for a child, newest first
func (s *ActivityService) Recent(ctx context.Context, childID string, limit int) ([]models.ActivityLog, error) {
	if err := validation.ValidateChildID(strings.TrimSpace(childID)); err != nil {
		return nil, invalid(err)
	}
	return s.activityRepo.ListRecent(ctx, childID, clampLimit(limit))
}

// clampLimit keeps list sizes between 1 and 100, defaulting to 10
func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return 10
	case limit > 100:
		return 100
	default:
		return limit
	}
}

// domainOf returns the host of rawURL without a leading "www."
func domainOf(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}
