package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"safeguard/internal/database"
	"safeguard/internal/models"
)

// CommentRepository handles database operations for hidden comments
type CommentRepository struct {
	db database.DBTX
}

// NewCommentRepository creates a new hidden comment repository
func NewCommentRepository(db database.DBTX) *CommentRepository {
	return &CommentRepository{db: db}
}

const commentColumns = `id, child_id, post_url, post_title, comment_text, reason, severity, domain, hidden_at`

// CreateHiddenComment stores a hidden comment, assigning an ID if it has none
func (r *CommentRepository) CreateHiddenComment(ctx context.Context, c *models.HiddenComment) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.HiddenAt = database.Timestamp(c.HiddenAt)

	query := "INSERT INTO hidden_comments (" + commentColumns + ") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)"
	_, err := r.db.ExecContext(ctx, query,
		c.ID, c.ChildID, c.PostURL, c.PostTitle, c.Text, c.Reason, c.Severity, c.Domain, c.HiddenAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create hidden comment: %w", err)
	}
	return nil
}

// ListByChild returns a child's hidden comments, newest first
func (r *CommentRepository) ListByChild(ctx context.Context, childID string) ([]models.HiddenComment, error) {
	query := "SELECT " + commentColumns + " FROM hidden_comments WHERE child_id = ? ORDER BY hidden_at DESC, id"
	return r.list(ctx, query, childID)
}

// ListAll returns every hidden comment
func (r *CommentRepository) ListAll(ctx context.Context) ([]models.HiddenComment, error) {
	return r.list(ctx, "SELECT "+commentColumns+" FROM hidden_comments ORDER BY child_id, hidden_at")
}

func (r *CommentRepository) list(ctx context.Context, query string, args ...interface{}) ([]models.HiddenComment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query hidden comments: %w", err)
	}
	defer rows.Close()

	comments := []models.HiddenComment{}
	for rows.Next() {
		var c models.HiddenComment
		if err := rows.Scan(
			&c.ID,
			&c.ChildID,
			&c.PostURL,
			&c.PostTitle,
			&c.Text,
			&c.Reason,
			&c.Severity,
			&c.Domain,
			&c.HiddenAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan hidden comment: %w", err)
		}
		c.HiddenAt = c.HiddenAt.UTC()
		comments = append(comments, c)
	}

	return comments, rows.Err()
}

// WithTx returns a repository bound to tx
func (r *CommentRepository) WithTx(tx *database.Tx) *CommentRepository {
	return &CommentRepository{db: tx}
}
