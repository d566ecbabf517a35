package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"safeguard/internal/classifier"
	"safeguard/internal/database"
	"safeguard/internal/metadata"
	"safeguard/internal/metrics"
	"safeguard/internal/models"
	"safeguard/internal/repository"
	"safeguard/internal/validation"
)

// Ingestion statuses
const (
	StatusSuccess        = "success"
	StatusSkipped        = "skipped"
	StatusPartialSuccess = "partial_success"
	StatusIgnored        = "ignored"
	StatusRecorded       = "recorded"
)

// Profile read statuses
const (
	ProfileNotStarted = "not_started"
	ProfileInProgress = "in_progress"
	ProfileReady      = "ready"
)

const unknownMetadata = "Unknown"

// ActivityEvent is a raw observation reported by a browser or device agent
type ActivityEvent struct {
	ChildID         string    `json:"child_id"`
	Kind            string    `json:"kind"`
	URL             string    `json:"url"`
	Domain          string    `json:"domain"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Transcript      string    `json:"transcript"`
	Uploader        string    `json:"uploader"`
	DurationSeconds int       `json:"duration"`
	Timestamp       time.Time `json:"timestamp"`
	CommentsHidden  int       `json:"comments_hidden"`
	Flagged         bool      `json:"flagged"`
	Reason          string    `json:"reason"`
}

// TrackResult is the outcome of ingesting one event
type TrackResult struct {
	Status           string               `json:"status"`
	Message          string               `json:"message,omitempty"`
	Video            *models.TrackedVideo `json:"video,omitempty"`
	Categories       []string             `json:"categories,omitempty"`
	Rating           models.ContentRating `json:"content_rating,omitempty"`
	Flags            []models.SafetyFlag  `json:"flags,omitempty"`
	DaysTracked      int                  `json:"days_tracked"`
	TotalVideos      int                  `json:"total_videos"`
	ProfileAvailable bool                 `json:"profile_available"`
	Profile          string               `json:"profile,omitempty"`
	Activity         *models.ActivityLog  `json:"activity,omitempty"`
}

// BehaviorStats is the live view of a child's counters
type BehaviorStats struct {
	Status            string              `json:"status"`
	ChildID           string              `json:"child_id"`
	TotalVideos       int                 `json:"total_videos"`
	TotalWatchMinutes float64             `json:"total_watch_time_minutes"`
	DaysTracked       int                 `json:"days_tracked"`
	Categories        []models.CountEntry `json:"categories"`
	TopCategories     []models.CountEntry `json:"top_categories"`
	TopUploaders      []models.CountEntry `json:"top_uploaders"`
	ProfileAvailable  bool                `json:"profile_available"`
	LastUpdated       *time.Time          `json:"last_updated,omitempty"`
}

// ProfileView is the behavior profile as returned to a guardian
type ProfileView struct {
	Status            string           `json:"status"`
	ChildID           string           `json:"child_id"`
	DaysTracked       int              `json:"days_tracked"`
	DaysRemaining     int              `json:"days_remaining"`
	TotalVideos       int              `json:"total_videos"`
	TotalWatchMinutes float64          `json:"total_watch_time_minutes"`
	Profile           string           `json:"profile,omitempty"`
	Insights          *ProfileInsights `json:"insights,omitempty"`
	GeneratedAt       *time.Time       `json:"generated_at,omitempty"`
}

// TrackingConfig tunes ingestion and profile generation
type TrackingConfig struct {
	DedupWindow          time.Duration
	ProfileThresholdDays int
	MetadataTimeout      time.Duration
}

// DefaultTrackingConfig returns the stock settings
func DefaultTrackingConfig() TrackingConfig {
	return TrackingConfig{
		DedupWindow:          time.Hour,
		ProfileThresholdDays: 7,
		MetadataTimeout:      10 * time.Second,
	}
}

// TrackingService ingests activity events and maintains behavior profiles
type TrackingService struct {
	db           *database.DB
	behaviorRepo *repository.BehaviorRepository
	videoRepo    *repository.VideoRepository
	activity     *ActivityService
	classifier   *classifier.Classifier
	extractor    metadata.Extractor
	locks        *ChildLocks
	cfg          TrackingConfig
	logger       *zap.Logger
	metrics      *metrics.Metrics
	now          func() time.Time
}

// NewTrackingService creates a tracking service. extractor may be nil.
func NewTrackingService(
	db *database.DB,
	cls *classifier.Classifier,
	extractor metadata.Extractor,
	activity *ActivityService,
	cfg TrackingConfig,
	logger *zap.Logger,
	m *metrics.Metrics,
) *TrackingService {
	defaults := DefaultTrackingConfig()
	if cfg.DedupWindow <= 0 {
		cfg.DedupWindow = defaults.DedupWindow
	}
	if cfg.ProfileThresholdDays <= 0 {
		cfg.ProfileThresholdDays = defaults.ProfileThresholdDays
	}
	if cfg.MetadataTimeout <= 0 {
		cfg.MetadataTimeout = defaults.MetadataTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TrackingService{
		db:           db,
		behaviorRepo: repository.NewBehaviorRepository(db),
		videoRepo:    repository.NewVideoRepository(db),
		activity:     activity,
		classifier:   cls,
		extractor:    extractor,
		locks:        NewChildLocks(),
		cfg:          cfg,
		logger:       logger,
		metrics:      m,
		now:          time.Now,
	}
}

// Ingest routes an event by kind. Video views go through classification and
// profile aggregation; other kinds are stored as activity log entries.
func (s *TrackingService) Ingest(ctx context.Context, ev ActivityEvent) (*TrackResult, error) {
	switch ev.Kind {
	case ActivityVideoView:
		return s.TrackVideo(ctx, ev)
	case ActivityCommentSeen, ActivitySiteVisit:
		entry := &models.ActivityLog{
			ChildID:         ev.ChildID,
			ActivityType:    ev.Kind,
			Domain:          ev.Domain,
			Title:           ev.Title,
			DurationSeconds: ev.DurationSeconds,
			Flagged:         ev.Flagged,
			Reason:          ev.Reason,
			CommentsHidden:  ev.CommentsHidden,
			RecordedAt:      ev.Timestamp,
		}
		if entry.Domain == "" {
			entry.Domain = domainOf(ev.URL)
		}
		if err := s.activity.Record(ctx, entry); err != nil {
			s.metrics.RecordEvent(ev.Kind, "error")
			return nil, err
		}
		s.metrics.RecordEvent(ev.Kind, StatusRecorded)
		return &TrackResult{Status: StatusRecorded, Activity: entry}, nil
	default:
		return nil, validationError("unknown event kind %q", ev.Kind)
	}
}

// TrackVideo ingests one video view
func (s *TrackingService) TrackVideo(ctx context.Context, ev ActivityEvent) (*TrackResult, error) {
	result, err := s.trackVideo(ctx, ev)
	if err != nil {
		s.metrics.RecordEvent(ActivityVideoView, "error")
		return nil, err
	}
	s.metrics.RecordEvent(ActivityVideoView, result.Status)
	return result, nil
}

func (s *TrackingService) trackVideo(ctx context.Context, ev ActivityEvent) (*TrackResult, error) {
	childID := strings.TrimSpace(ev.ChildID)
	url := strings.TrimSpace(ev.URL)
	if err := validation.ValidateChildID(childID); err != nil {
		return nil, invalid(err)
	}
	if url == "" {
		return nil, validationError("url is required for video events")
	}
	if ev.DurationSeconds < 0 {
		return nil, validationError("duration cannot be negative")
	}

	if !s.classifier.Lexicon().AcceptsVideoURL(url) {
		return &TrackResult{Status: StatusIgnored, Message: "url is not a tracked video"}, nil
	}

	// Cheap check before paying for metadata; repeated under the lock below
	seen, err := s.videoRepo.SeenSince(ctx, childID, url, s.now().Add(-s.cfg.DedupWindow))
	if err != nil {
		return nil, err
	}
	if seen {
		return s.skipped(ctx, childID)
	}

	md, status := s.resolveMetadata(ctx, url, ev)
	categories := s.classifier.Categorize(md.Title, md.Description, md.Transcript)
	verdict := s.classifier.ScoreContent(md.Title, md.Description, md.Transcript)

	unlock := s.locks.Lock(childID)
	defer unlock()

	var (
		profile   *models.BehaviorProfile
		video     *models.TrackedVideo
		generated bool
	)
	err = s.db.WithinTx(ctx, func(tx *database.Tx) error {
		behaviorRepo := s.behaviorRepo.WithTx(tx)
		videoRepo := s.videoRepo.WithTx(tx)
		now := s.now().UTC()

		if _, err := behaviorRepo.EnsureProfile(ctx, childID, now); err != nil {
			return err
		}
		// Dedup runs under the profile row lock
		var err error
		profile, err = behaviorRepo.GetProfileForUpdate(ctx, childID)
		if err != nil {
			return err
		}
		if profile == nil {
			return errors.New("behavior profile missing after create")
		}

		dup, err := videoRepo.SeenSince(ctx, childID, url, now.Add(-s.cfg.DedupWindow))
		if err != nil {
			return err
		}
		if dup {
			return errDuplicateView
		}

		profile.RecordVideo(md.DurationSeconds, categories, md.Uploader, now)

		video = &models.TrackedVideo{
			ChildID:         childID,
			URL:             url,
			Title:           md.Title,
			Uploader:        md.Uploader,
			DurationSeconds: md.DurationSeconds,
			Categories:      categories,
			Rating:          verdict.Rating,
			Flags:           verdict.Flags,
			WatchedAt:       now,
		}
		if err := videoRepo.CreateVideo(ctx, video); err != nil {
			return err
		}

		generated = s.maybeGenerate(profile, now)
		return behaviorRepo.UpdateProfile(ctx, profile)
	})
	if errors.Is(err, errDuplicateView) {
		return s.skipped(ctx, childID)
	}
	if err != nil {
		return nil, err
	}

	if generated {
		s.metrics.RecordProfileGenerated("threshold")
		s.logger.Info("behavior profile generated",
			zap.String("child_id", childID),
			zap.Int("days_tracked", profile.DaysTracked),
			zap.Int("total_videos", profile.TotalVideos),
		)
	}
	if verdict.Flagged() {
		s.logger.Warn("flagged video watched",
			zap.String("child_id", childID),
			zap.String("url", url),
			zap.String("rating", string(verdict.Rating)),
			zap.Int("flags", len(verdict.Flags)),
		)
	}

	result := &TrackResult{
		Status:           status,
		Video:            video,
		Categories:       categories,
		Rating:           verdict.Rating,
		Flags:            verdict.Flags,
		DaysTracked:      profile.DaysTracked,
		TotalVideos:      profile.TotalVideos,
		ProfileAvailable: profile.DaysTracked >= s.cfg.ProfileThresholdDays,
	}
	if profile.HasProfileText() {
		result.Profile = profile.ProfileText
	}
	return result, nil
}

// maybeGenerate renders the narrative the first time the threshold is reached
func (s *TrackingService) maybeGenerate(p *models.BehaviorProfile, now time.Time) bool {
	if p.DaysTracked < s.cfg.ProfileThresholdDays || p.HasProfileText() {
		return false
	}
	p.ProfileText = RenderProfile(p, now)
	generatedAt := now
	p.ProfileGeneratedAt = &generatedAt
	return true
}

func (s *TrackingService) skipped(ctx context.Context, childID string) (*TrackResult, error) {
	result := &TrackResult{Status: StatusSkipped, Message: "video already tracked recently"}
	profile, err := s.behaviorRepo.GetProfile(ctx, childID)
	if err != nil {
		return nil, err
	}
	if profile != nil {
		result.DaysTracked = profile.DaysTracked
		result.TotalVideos = profile.TotalVideos
		result.ProfileAvailable = profile.DaysTracked >= s.cfg.ProfileThresholdDays
	}
	return result, nil
}

// resolveMetadata starts from what the event carried and lets the extractor
// fill in or correct it. Missing titles fall back to a placeholder.
func (s *TrackingService) resolveMetadata(ctx context.Context, url string, ev ActivityEvent) (metadata.Metadata, string) {
	md := metadata.Metadata{
		Title:           strings.TrimSpace(ev.Title),
		Uploader:        strings.TrimSpace(ev.Uploader),
		Description:     ev.Description,
		Transcript:      ev.Transcript,
		DurationSeconds: ev.DurationSeconds,
	}
	status := StatusSuccess

	if s.extractor != nil && s.extractor.Supports(url) {
		extractCtx, cancel := context.WithTimeout(ctx, s.cfg.MetadataTimeout)
		extracted, err := s.extractor.Extract(extractCtx, url)
		cancel()
		if err != nil {
			s.metrics.RecordMetadataFallback()
			s.logger.Warn("metadata extraction failed", zap.String("url", url), zap.Error(err))
			if md.Title == "" {
				md.Title = unknownMetadata
				md.Uploader = unknownMetadata
				md.DurationSeconds = 0
				status = StatusPartialSuccess
			}
		} else {
			mergeMetadata(&md, extracted)
		}
	}

	if md.Title == "" {
		md.Title = unknownMetadata
		status = StatusPartialSuccess
	}
	if md.Uploader == "" {
		md.Uploader = unknownMetadata
	}
	return md, status
}

func mergeMetadata(dst *metadata.Metadata, src *metadata.Metadata) {
	if src == nil {
		return
	}
	if src.Title != "" {
		dst.Title = src.Title
	}
	if src.Uploader != "" {
		dst.Uploader = src.Uploader
	}
	if src.Description != "" {
		dst.Description = src.Description
	}
	if src.Transcript != "" {
		dst.Transcript = src.Transcript
	}
	if src.DurationSeconds > 0 {
		dst.DurationSeconds = src.DurationSeconds
	}
}

// Stats returns the current counters for a child without modifying them
func (s *TrackingService) Stats(ctx context.Context, childID string) (*BehaviorStats, error) {
	childID = strings.TrimSpace(childID)
	if err := validation.ValidateChildID(childID); err != nil {
		return nil, invalid(err)
	}

	profile, err := s.behaviorRepo.GetProfile(ctx, childID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return &BehaviorStats{
			Status:        ProfileNotStarted,
			ChildID:       childID,
			Categories:    []models.CountEntry{},
			TopCategories: []models.CountEntry{},
			TopUploaders:  []models.CountEntry{},
		}, nil
	}

	days := profile.DaysTracked
	if elapsed := profile.ElapsedDays(s.now()); elapsed > days {
		days = elapsed
	}
	lastUpdated := profile.LastUpdated
	return &BehaviorStats{
		Status:            StatusSuccess,
		ChildID:           childID,
		TotalVideos:       profile.TotalVideos,
		TotalWatchMinutes: float64(profile.TotalWatchSeconds) / 60,
		DaysTracked:       days,
		Categories:        profile.Categories,
		TopCategories:     profile.Categories.Top(profileTopN),
		TopUploaders:      profile.Uploaders.Top(profileTopN),
		ProfileAvailable:  days >= s.cfg.ProfileThresholdDays,
		LastUpdated:       &lastUpdated,
	}, nil
}

// Profile returns the behavior narrative once the threshold is reached,
// generating it on first read if no ingestion has done so yet.
func (s *TrackingService) Profile(ctx context.Context, childID string) (*ProfileView, error) {
	childID = strings.TrimSpace(childID)
	if err := validation.ValidateChildID(childID); err != nil {
		return nil, invalid(err)
	}

	unlock := s.locks.Lock(childID)
	defer unlock()

	var (
		profile   *models.BehaviorProfile
		generated bool
	)
	err := s.db.WithinTx(ctx, func(tx *database.Tx) error {
		repo := s.behaviorRepo.WithTx(tx)
		var err error
		profile, err = repo.GetProfileForUpdate(ctx, childID)
		if err != nil || profile == nil {
			return err
		}

		now := s.now().UTC()
		before := profile.DaysTracked
		profile.RefreshDaysTracked(now)
		generated = s.maybeGenerate(profile, now)
		if profile.DaysTracked == before && !generated {
			return nil
		}
		return repo.UpdateProfile(ctx, profile)
	})
	if err != nil {
		return nil, err
	}

	threshold := s.cfg.ProfileThresholdDays
	if profile == nil {
		return &ProfileView{Status: ProfileNotStarted, ChildID: childID, DaysRemaining: threshold}, nil
	}
	if generated {
		s.metrics.RecordProfileGenerated("read")
		s.logger.Info("behavior profile generated on read", zap.String("child_id", childID))
	}

	view := &ProfileView{
		Status:            ProfileInProgress,
		ChildID:           childID,
		DaysTracked:       profile.DaysTracked,
		DaysRemaining:     profile.DaysRemaining(threshold),
		TotalVideos:       profile.TotalVideos,
		TotalWatchMinutes: float64(profile.TotalWatchSeconds) / 60,
	}
	if profile.DaysTracked >= threshold && profile.HasProfileText() {
		insights := AnalyzeProfile(profile)
		view.Status = ProfileReady
		view.Profile = profile.ProfileText
		view.Insights = &insights
		view.GeneratedAt = profile.ProfileGeneratedAt
	}
	return view, nil
}

// RegenerateProfile re-renders the narrative from the current counters
func (s *TrackingService) RegenerateProfile(ctx context.Context, childID string) (*ProfileView, error) {
	childID = strings.TrimSpace(childID)
	if err := validation.ValidateChildID(childID); err != nil {
		return nil, invalid(err)
	}

	unlock := s.locks.Lock(childID)
	defer unlock()

	var profile *models.BehaviorProfile
	err := s.db.WithinTx(ctx, func(tx *database.Tx) error {
		repo := s.behaviorRepo.WithTx(tx)
		var err error
		profile, err = repo.GetProfileForUpdate(ctx, childID)
		if err != nil {
			return err
		}
		if profile == nil {
			return ErrNotFound
		}

		now := s.now().UTC()
		profile.RefreshDaysTracked(now)
		if profile.DaysTracked < s.cfg.ProfileThresholdDays {
			return ErrProfileNotReady
		}
		profile.ProfileText = RenderProfile(profile, now)
		profile.ProfileGeneratedAt = &now
		return repo.UpdateProfile(ctx, profile)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordProfileGenerated("regenerate")
	insights := AnalyzeProfile(profile)
	return &ProfileView{
		Status:            ProfileReady,
		ChildID:           childID,
		DaysTracked:       profile.DaysTracked,
		TotalVideos:       profile.TotalVideos,
		TotalWatchMinutes: float64(profile.TotalWatchSeconds) / 60,
		Profile:           profile.ProfileText,
		Insights:          &insights,
		GeneratedAt:       profile.ProfileGeneratedAt,
	}, nil
}

// RecentVideos lists a child's latest tracked videos, newest first
func (s *TrackingService) RecentVideos(ctx context.Context, childID string, limit int) ([]models.TrackedVideo, error) {
	childID = strings.TrimSpace(childID)
	if err := validation.ValidateChildID(childID); err != nil {
		return nil, invalid(err)
	}
	return s.videoRepo.ListRecent(ctx, childID, clampLimit(limit))
}
