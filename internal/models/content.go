package models

import "time"

// ContentRating is the safety rating assigned to a video
type ContentRating string

const (
	RatingSafe    ContentRating = "safe"
	RatingWarning ContentRating = "warning"
	RatingBlocked ContentRating = "blocked"
)

// Severity levels attached to content flags
const (
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// SafetyFlag records one issue found in a video
type SafetyFlag struct {
	Issue    string `json:"issue"`
	Severity string `json:"severity"`
}

// ContentVerdict is the outcome of scoring a video for unsafe content
type ContentVerdict struct {
	Rating ContentRating `json:"rating"`
	Flags  []SafetyFlag  `json:"flags"`
}

// Flagged reports whether any issue was found
func (v ContentVerdict) Flagged() bool {
	return v.Rating != RatingSafe
}

// TrackedVideo is one accepted, deduplicated video view
type TrackedVideo struct {
	ID              string        `json:"id"`
	ChildID         string        `json:"child_id"`
	URL             string        `json:"url"`
	Title           string        `json:"title"`
	Uploader        string        `json:"uploader"`
	DurationSeconds int           `json:"duration_seconds"`
	Categories      []string      `json:"categories"`
	Rating          ContentRating `json:"content_rating"`
	Flags           []SafetyFlag  `json:"flags"`
	WatchedAt       time.Time     `json:"watched_at"`
}

// Comment severities
const (
	CommentSeverityNone   = 0
	CommentSeverityMild   = 1
	CommentSeveritySevere = 2
)

// HiddenComment is a comment the safety pipeline decided to hide
type HiddenComment struct {
	ID        string    `json:"id"`
	ChildID   string    `json:"child_id"`
	PostURL   string    `json:"post_url"`
	PostTitle string    `json:"post_title"`
	Text      string    `json:"comment_text"`
	Reason    string    `json:"reason"`
	Severity  int       `json:"severity"`
	Domain    string    `json:"domain"`
	HiddenAt  time.Time `json:"hidden_at"`
}

// HiddenCommentPost groups hidden comments by the post they appeared under
type HiddenCommentPost struct {
	PostURL       string          `json:"post_url"`
	PostTitle     string          `json:"post_title"`
	Domain        string          `json:"domain"`
	CommentsCount int             `json:"comments_count"`
	Comments      []HiddenComment `json:"comments"`
}

// ActivityLog is a single entry of a child's browsing history
type ActivityLog struct {
	ID              string    `json:"id"`
	ChildID         string    `json:"child_id"`
	ActivityType    string    `json:"type"`
	Domain          string    `json:"domain"`
	Title           string    `json:"title"`
	DurationSeconds int       `json:"duration"`
	Flagged         bool      `json:"flagged"`
	Reason          string    `json:"reason,omitempty"`
	CommentsHidden  int       `json:"comments_hidden"`
	RecordedAt      time.Time `json:"timestamp"`
}
