package models

import (
	"fmt"
	"time"
)

// WeeklyReport summarises one child's activity for one ISO week
type WeeklyReport struct {
	ID             string              `json:"id,omitempty"`
	ChildID        string              `json:"child_id"`
	WeekStart      time.Time           `json:"week_start"`
	WeekEnd        time.Time           `json:"week_end"`
	TotalVideos    int                 `json:"total_videos"`
	TotalMinutes   int                 `json:"total_duration_minutes"`
	AverageMinutes int                 `json:"average_duration_minutes"`
	FlaggedVideos  int                 `json:"flagged_videos"`
	BlockedVideos  int                 `json:"blocked_videos"`
	HiddenComments int                 `json:"hidden_comments"`
	SafetySummary  string              `json:"safety_summary"`
	Videos         []WeeklyReportVideo `json:"videos"`
	GeneratedAt    time.Time           `json:"generated_at"`
}

// WeeklyReportVideo is the per-video line of a weekly report
type WeeklyReportVideo struct {
	Title           string        `json:"title"`
	Uploader        string        `json:"uploader"`
	DurationMinutes int           `json:"duration_minutes"`
	Rating          ContentRating `json:"content_rating"`
	Categories      []string      `json:"categories"`
	WatchedAt       time.Time     `json:"watched_at"`
}

// WeekBounds returns the ISO week containing now, in UTC: Monday 00:00:00
// through Sunday 23:59:59.999999.
func WeekBounds(now time.Time) (time.Time, time.Time) {
	now = now.UTC()
	offset := (int(now.Weekday()) + 6) % 7 // days since Monday
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -offset)
	end := start.AddDate(0, 0, 7).Add(-time.Microsecond)
	return start, end
}

// SafetySummaryLine renders the one-line narrative of a weekly report
func SafetySummaryLine(flagged, hidden int) string {
	return fmt.Sprintf("This week, %d videos had content warnings and %d inappropriate comments were hidden.", flagged, hidden)
}
