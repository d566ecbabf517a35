package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"safeguard/internal/classifier"
	"safeguard/internal/models"
	"safeguard/internal/repository"
	"safeguard/internal/validation"
)

// AnalyzeCommentRequest is a comment to classify, with optional context
// used to log it when it ends up hidden
type AnalyzeCommentRequest struct {
	Text      string `json:"text"`
	ChildID   string `json:"child_id"`
	PostURL   string `json:"post_url"`
	PostTitle string `json:"post_title"`
	Domain    string `json:"domain"`
}

// HiddenCommentsView lists a child's hidden comments grouped by post
type HiddenCommentsView struct {
	Status        string                     `json:"status"`
	ChildID       string                     `json:"child_id"`
	TotalComments int                        `json:"total_comments"`
	TotalPosts    int                        `json:"total_posts"`
	Posts         []models.HiddenCommentPost `json:"posts"`
}

// CommentService classifies comments and keeps the log of hidden ones
type CommentService struct {
	pipeline    *classifier.CommentPipeline
	commentRepo *repository.CommentRepository
	logger      *zap.Logger
	now         func() time.Time
}

// NewCommentService creates a new comment service
func NewCommentService(pipeline *classifier.CommentPipeline, commentRepo *repository.CommentRepository, logger *zap.Logger) *CommentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CommentService{
		pipeline:    pipeline,
		commentRepo: commentRepo,
		logger:      logger,
		now:         time.Now,
	}
}

// Analyze runs a comment through the safety pipeline. When the comment is
// hidden and a child is named, it is also stored as a hidden comment.
func (s *CommentService) Analyze(ctx context.Context, req AnalyzeCommentRequest) (classifier.CommentVerdict, error) {
	verdict := s.pipeline.Analyze(ctx, req.Text)

	childID := strings.TrimSpace(req.ChildID)
	if !verdict.Hide || childID == "" {
		return verdict, nil
	}

	hidden := &models.HiddenComment{
		ChildID:   childID,
		PostURL:   req.PostURL,
		PostTitle: req.PostTitle,
		Text:      req.Text,
		Reason:    verdict.Reason,
		Severity:  verdict.Severity,
		Domain:    req.Domain,
	}
	if err := s.LogHidden(ctx, hidden); err != nil {
		return verdict, err
	}
	return verdict, nil
}

// LogHidden stores a comment that was hidden on the child's device
func (s *CommentService) LogHidden(ctx context.Context, c *models.HiddenComment) error {
	c.ChildID = strings.TrimSpace(c.ChildID)
	if err := validation.ValidateChildID(c.ChildID); err != nil {
		return invalid(err)
	}
	if err := validation.ValidateSeverity(c.Severity); err != nil {
		return invalid(err)
	}
	if c.Severity == models.CommentSeverityNone {
		c.Severity = models.CommentSeverityMild
	}
	if strings.TrimSpace(c.Reason) == "" {
		c.Reason = classifier.ReasonRemoteFallback
	}
	if c.Domain == "" {
		c.Domain = domainOf(c.PostURL)
	}
	if c.HiddenAt.IsZero() {
		c.HiddenAt = s.now()
	}
	c.HiddenAt = c.HiddenAt.UTC()

	if err := s.commentRepo.CreateHiddenComment(ctx, c); err != nil {
		return err
	}

	s.logger.Info("comment hidden",
		zap.String("child_id", c.ChildID),
		zap.String("domain", c.Domain),
		zap.Int("severity", c.Severity),
		zap.String("reason", c.Reason),
	)
	return nil
}

// HiddenByChild returns a child's hidden comments grouped by post. Posts are
// ordered by their most recent hidden comment.
func (s *CommentService) HiddenByChild(ctx context.Context, childID string) (*HiddenCommentsView, error) {
	childID = strings.TrimSpace(childID)
	if err := validation.ValidateChildID(childID); err != nil {
		return nil, invalid(err)
	}

	comments, err := s.commentRepo.ListByChild(ctx, childID)
	if err != nil {
		return nil, err
	}

	posts := []models.HiddenCommentPost{}
	index := make(map[string]int)
	for _, c := range comments {
		key := c.PostURL
		if key == "" {
			key = "unknown"
		}
		i, ok := index[key]
		if !ok {
			title := c.PostTitle
			if title == "" {
				title = "Untitled post"
			}
			posts = append(posts, models.HiddenCommentPost{
				PostURL:   key,
				PostTitle: title,
				Domain:    c.Domain,
				Comments:  []models.HiddenComment{},
			})
			i = len(posts) - 1
			index[key] = i
		}
		posts[i].CommentsCount++
		posts[i].Comments = append(posts[i].Comments, c)
	}

	return &HiddenCommentsView{
		Status:        StatusSuccess,
		ChildID:       childID,
		TotalComments: len(comments),
		TotalPosts:    len(posts),
		Posts:         posts,
	}, nil
}
