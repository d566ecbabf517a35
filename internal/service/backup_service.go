package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"safeguard/internal/database"
	"safeguard/internal/models"
	"safeguard/internal/repository"
)

const backupVersion = "1.0"

// BackupData represents the complete database backup structure
type BackupData struct {
	Version        string                 `json:"version"`
	ExportedAt     time.Time              `json:"exported_at"`
	DatabaseType   string                 `json:"database_type"`
	Profiles       []ProfileBackup        `json:"profiles"`
	Videos         []models.TrackedVideo  `json:"videos"`
	HiddenComments []models.HiddenComment `json:"hidden_comments"`
	ActivityLogs   []models.ActivityLog   `json:"activity_logs"`
	WeeklyReports  []models.WeeklyReport  `json:"weekly_reports"`
}

// ProfileBackup represents a behavior profile for backup
type ProfileBackup struct {
	ChildID            string              `json:"child_id"`
	TotalVideos        int                 `json:"total_videos"`
	TotalWatchSeconds  int64               `json:"total_watch_seconds"`
	StartDate          time.Time           `json:"start_date"`
	LastUpdated        time.Time           `json:"last_updated"`
	Categories         []models.CountEntry `json:"categories"`
	Uploaders          []models.CountEntry `json:"uploaders"`
	DaysTracked        int                 `json:"days_tracked"`
	ProfileText        string              `json:"profile_text,omitempty"`
	ProfileGeneratedAt *time.Time          `json:"profile_generated_at,omitempty"`
}

// BackupService handles database backup and restore operations
type BackupService struct {
	db     *database.DB
	logger *zap.Logger
}

// NewBackupService creates a new backup service
func NewBackupService(db *database.DB, logger *zap.Logger) *BackupService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BackupService{db: db, logger: logger}
}

// Export creates a complete backup of the database to a file
func (s *BackupService) Export(ctx context.Context, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	if err := s.ExportToWriter(ctx, file); err != nil {
		return err
	}
	s.logger.Info("database exported", zap.String("path", outputPath))
	return nil
}

// ExportToWriter writes the backup as indented JSON
func (s *BackupService) ExportToWriter(ctx context.Context, w io.Writer) error {
	backup, err := s.collect(ctx)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return fmt.Errorf("failed to encode backup: %w", err)
	}

	s.logger.Info("backup written",
		zap.Int("profiles", len(backup.Profiles)),
		zap.Int("videos", len(backup.Videos)),
		zap.Int("hidden_comments", len(backup.HiddenComments)),
		zap.Int("activity_logs", len(backup.ActivityLogs)),
		zap.Int("weekly_reports", len(backup.WeeklyReports)),
	)
	return nil
}

func (s *BackupService) collect(ctx context.Context) (*BackupData, error) {
	backup := &BackupData{
		Version:      backupVersion,
		ExportedAt:   time.Now().UTC(),
		DatabaseType: s.db.Dialect.DriverName(),
	}

	profiles, err := repository.NewBehaviorRepository(s.db).ListProfiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to export profiles: %w", err)
	}
	for _, p := range profiles {
		backup.Profiles = append(backup.Profiles, ProfileBackup{
			ChildID:            p.ChildID,
			TotalVideos:        p.TotalVideos,
			TotalWatchSeconds:  p.TotalWatchSeconds,
			StartDate:          p.StartDate,
			LastUpdated:        p.LastUpdated,
			Categories:         p.Categories,
			Uploaders:          p.Uploaders,
			DaysTracked:        p.DaysTracked,
			ProfileText:        p.ProfileText,
			ProfileGeneratedAt: p.ProfileGeneratedAt,
		})
	}

	if backup.Videos, err = repository.NewVideoRepository(s.db).ListAll(ctx); err != nil {
		return nil, fmt.Errorf("failed to export videos: %w", err)
	}
	if backup.HiddenComments, err = repository.NewCommentRepository(s.db).ListAll(ctx); err != nil {
		return nil, fmt.Errorf("failed to export hidden comments: %w", err)
	}
	if backup.ActivityLogs, err = repository.NewActivityRepository(s.db).ListAll(ctx); err != nil {
		return nil, fmt.Errorf("failed to export activity logs: %w", err)
	}
	if backup.WeeklyReports, err = repository.NewReportRepository(s.db).ListAll(ctx); err != nil {
		return nil, fmt.Errorf("failed to export weekly reports: %w", err)
	}
	return backup, nil
}

// Import restores a database from a backup file
func (s *BackupService) Import(ctx context.Context, inputPath string) error {
	file, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()

	return s.ImportFromReader(ctx, file)
}

// ImportFromReader restores a backup in a single transaction. Profiles that
// already have activity are kept; every other record is inserted as is.
func (s *BackupService) ImportFromReader(ctx context.Context, reader io.Reader) error {
	var backup BackupData
	if err := json.NewDecoder(reader).Decode(&backup); err != nil {
		return fmt.Errorf("failed to decode backup: %w", err)
	}
	if backup.Version != backupVersion {
		return fmt.Errorf("unsupported backup version %q", backup.Version)
	}

	s.logger.Info("importing backup",
		zap.String("version", backup.Version),
		zap.Time("exported_at", backup.ExportedAt),
		zap.String("source_database", backup.DatabaseType),
	)

	err := s.db.WithinTx(ctx, func(tx *database.Tx) error {
		behaviorRepo := repository.NewBehaviorRepository(tx)
		for _, p := range backup.Profiles {
			profile := &models.BehaviorProfile{
				ChildID:            p.ChildID,
				TotalVideos:        p.TotalVideos,
				TotalWatchSeconds:  p.TotalWatchSeconds,
				StartDate:          p.StartDate,
				LastUpdated:        p.LastUpdated,
				Categories:         models.Counter(p.Categories),
				Uploaders:          models.Counter(p.Uploaders),
				DaysTracked:        p.DaysTracked,
				ProfileText:        p.ProfileText,
				ProfileGeneratedAt: p.ProfileGeneratedAt,
			}
			if err := behaviorRepo.RestoreProfile(ctx, profile); err != nil {
				return fmt.Errorf("failed to import profile %s: %w", p.ChildID, err)
			}
		}

		videoRepo := repository.NewVideoRepository(tx)
		for i := range backup.Videos {
			if err := videoRepo.CreateVideo(ctx, &backup.Videos[i]); err != nil {
				return fmt.Errorf("failed to import video %s: %w", backup.Videos[i].ID, err)
			}
		}

		commentRepo := repository.NewCommentRepository(tx)
		for i := range backup.HiddenComments {
			if err := commentRepo.CreateHiddenComment(ctx, &backup.HiddenComments[i]); err != nil {
				return fmt.Errorf("failed to import hidden comment %s: %w", backup.HiddenComments[i].ID, err)
			}
		}

		activityRepo := repository.NewActivityRepository(tx)
		for i := range backup.ActivityLogs {
			if err := activityRepo.CreateLog(ctx, &backup.ActivityLogs[i]); err != nil {
				return fmt.Errorf("failed to import activity log %s: %w", backup.ActivityLogs[i].ID, err)
			}
		}

		reportRepo := repository.NewReportRepository(tx)
		for i := range backup.WeeklyReports {
			if _, err := reportRepo.SaveReport(ctx, &backup.WeeklyReports[i]); err != nil {
				return fmt.Errorf("failed to import weekly report %s: %w", backup.WeeklyReports[i].ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("database import completed")
	return nil
}

// Tables lists engine tables in the order they can be cleared
func Tables() []string {
	return []string{"weekly_reports", "activity_logs", "hidden_comments", "tracked_videos", "behavior_profiles"}
}
