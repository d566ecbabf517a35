package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"safeguard/internal/database"
	"safeguard/internal/models"
)

// BehaviorRepository handles database operations for behavior profiles
type BehaviorRepository struct {
	db database.DBTX
}

// NewBehaviorRepository creates a new behavior profile repository
func NewBehaviorRepository(db database.DBTX) *BehaviorRepository {
	return &BehaviorRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *BehaviorRepository) WithTx(tx *database.Tx) *BehaviorRepository {
	return &BehaviorRepository{db: tx}
}

const profileColumns = `id, child_id, total_videos, total_watch_seconds, start_date, last_updated,
	categories, uploaders, days_tracked, profile_text, profile_generated_at`

// EnsureProfile creates an empty profile for childID unless one exists.
// It reports whether a new row was inserted.
func (r *BehaviorRepository) EnsureProfile(ctx context.Context, childID string, now time.Time) (bool, error) {
	query := r.db.GetDialect().InsertIgnore("behavior_profiles", []string{
		"id", "child_id", "total_videos", "total_watch_seconds", "start_date", "last_updated",
		"categories", "uploaders", "days_tracked",
	})
	ts := database.Timestamp(now)
	result, err := r.db.ExecContext(ctx, query, uuid.NewString(), childID, 0, 0, ts, ts, "[]", "[]", 0)
	if err != nil {
		return false, fmt.Errorf("failed to create behavior profile: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check created behavior profile: %w", err)
	}
	return n > 0, nil
}

// GetProfile retrieves the profile of a child, or nil if none exists
func (r *BehaviorRepository) GetProfile(ctx context.Context, childID string) (*models.BehaviorProfile, error) {
	query := "SELECT " + profileColumns + " FROM behavior_profiles WHERE child_id = ?"
	return r.scanProfile(r.db.QueryRowContext(ctx, query, childID))
}

// GetProfileForUpdate retrieves the profile and, where the database supports
// it, locks the row until the surrounding transaction ends
func (r *BehaviorRepository) GetProfileForUpdate(ctx context.Context, childID string) (*models.BehaviorProfile, error) {
	query := "SELECT " + profileColumns + " FROM behavior_profiles WHERE child_id = ?" + r.db.GetDialect().LockClause()
	return r.scanProfile(r.db.QueryRowContext(ctx, query, childID))
}

// UpdateProfile persists every mutable field of a profile
func (r *BehaviorRepository) UpdateProfile(ctx context.Context, p *models.BehaviorProfile) error {
	categories, err := json.Marshal(p.Categories)
	if err != nil {
		return fmt.Errorf("failed to encode categories: %w", err)
	}
	uploaders, err := json.Marshal(p.Uploaders)
	if err != nil {
		return fmt.Errorf("failed to encode uploaders: %w", err)
	}

	var profileText sql.NullString
	if p.ProfileText != "" {
		profileText = sql.NullString{String: p.ProfileText, Valid: true}
	}
	var generatedAt sql.NullTime
	if p.ProfileGeneratedAt != nil {
		generatedAt = sql.NullTime{Time: database.Timestamp(*p.ProfileGeneratedAt), Valid: true}
	}

	query := `
		UPDATE behavior_profiles
		SET total_videos = ?, total_watch_seconds = ?, last_updated = ?, categories = ?, uploaders = ?,
			days_tracked = ?, profile_text = ?, profile_generated_at = ?
		WHERE child_id = ?
	`
	_, err = r.db.ExecContext(ctx, query,
		p.TotalVideos, p.TotalWatchSeconds, database.Timestamp(p.LastUpdated), string(categories), string(uploaders),
		p.DaysTracked, profileText, generatedAt, p.ChildID,
	)
	if err != nil {
		return fmt.Errorf("failed to update behavior profile: %w", err)
	}
	return nil
}

// ListChildIDs returns every child that has a profile
func (r *BehaviorRepository) ListChildIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT child_id FROM behavior_profiles ORDER BY child_id")
	if err != nil {
		return nil, fmt.Errorf("failed to query child ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan child id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListProfiles returns every stored profile
func (r *BehaviorRepository) ListProfiles(ctx context.Context) ([]models.BehaviorProfile, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+profileColumns+" FROM behavior_profiles ORDER BY child_id")
	if err != nil {
		return nil, fmt.Errorf("failed to query behavior profiles: %w", err)
	}
	defer rows.Close()

	var profiles []models.BehaviorProfile
	for rows.Next() {
		p, err := r.scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, *p)
	}
	return profiles, rows.Err()
}

// RestoreProfile inserts a complete profile, skipping children that already have one
func (r *BehaviorRepository) RestoreProfile(ctx context.Context, p *models.BehaviorProfile) error {
	if _, err := r.EnsureProfile(ctx, p.ChildID, p.StartDate); err != nil {
		return err
	}
	existing, err := r.GetProfile(ctx, p.ChildID)
	if err != nil {
		return err
	}
	if existing.TotalVideos > 0 {
		return nil
	}
	_, err = r.db.ExecContext(ctx, "UPDATE behavior_profiles SET start_date = ? WHERE child_id = ?",
		database.Timestamp(p.StartDate), p.ChildID)
	if err != nil {
		return fmt.Errorf("failed to restore start date: %w", err)
	}
	return r.UpdateProfile(ctx, p)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *BehaviorRepository) scanProfile(row rowScanner) (*models.BehaviorProfile, error) {
	p := &models.BehaviorProfile{}
	var categories, uploaders string
	var profileText sql.NullString
	var generatedAt sql.NullTime

	err := row.Scan(
		&p.ID,
		&p.ChildID,
		&p.TotalVideos,
		&p.TotalWatchSeconds,
		&p.StartDate,
		&p.LastUpdated,
		&categories,
		&uploaders,
		&p.DaysTracked,
		&profileText,
		&generatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get behavior profile: %w", err)
	}

	if err := json.Unmarshal([]byte(categories), &p.Categories); err != nil {
		return nil, fmt.Errorf("failed to decode categories: %w", err)
	}
	if err := json.Unmarshal([]byte(uploaders), &p.Uploaders); err != nil {
		return nil, fmt.Errorf("failed to decode uploaders: %w", err)
	}
	if p.Categories == nil {
		p.Categories = models.Counter{}
	}
	if p.Uploaders == nil {
		p.Uploaders = models.Counter{}
	}
	p.StartDate = p.StartDate.UTC()
	p.LastUpdated = p.LastUpdated.UTC()
	if profileText.Valid {
		p.ProfileText = profileText.String
	}
	if generatedAt.Valid {
		t := generatedAt.Time.UTC()
		p.ProfileGeneratedAt = &t
	}

	return p, nil
}
