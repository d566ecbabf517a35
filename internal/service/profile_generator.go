package service

import (
	"fmt"
	"strings"
	"time"

	"safeguard/internal/models"
)

const (
	profileTopN    = 5
	profileRuleLen = 70
)

// ProfileInsights are the derived figures shown in a behavior profile
type ProfileInsights struct {
	AverageMinutes  float64 `json:"average_minutes"`
	VideosPerDay    float64 `json:"videos_per_day"`
	PrimaryInterest string  `json:"primary_interest,omitempty"`
	ViewingPattern  string  `json:"viewing_pattern"`
	ActivityLevel   string  `json:"activity_level"`
}

// AnalyzeProfile derives the behavior insights from a profile's counters
func AnalyzeProfile(p *models.BehaviorProfile) ProfileInsights {
	var in ProfileInsights

	totalMinutes := float64(p.TotalWatchSeconds) / 60
	if p.TotalVideos > 0 {
		in.AverageMinutes = totalMinutes / float64(p.TotalVideos)
	}

	days := p.DaysTracked
	if days < 1 {
		days = 1
	}
	in.VideosPerDay = float64(p.TotalVideos) / float64(days)

	if top := p.Categories.Top(1); len(top) > 0 {
		in.PrimaryInterest = top[0].Key
	}

	switch {
	case in.AverageMinutes < 3:
		in.ViewingPattern = "short"
	case in.AverageMinutes < 10:
		in.ViewingPattern = "medium"
	default:
		in.ViewingPattern = "long"
	}

	switch {
	case in.VideosPerDay > 10:
		in.ActivityLevel = "high"
	case in.VideosPerDay > 5:
		in.ActivityLevel = "moderate"
	default:
		in.ActivityLevel = "light"
	}

	return in
}

var viewingPatternText = map[string]string{
	"short":  "Short-form content consumer (quick videos)",
	"medium": "Medium-form content consumer (moderate length)",
	"long":   "Long-form content consumer (detailed videos)",
}

var activityLevelText = map[string]string{
	"high":     "High (active user)",
	"moderate": "Moderate (regular user)",
	"light":    "Light (casual user)",
}

// RenderProfile produces the narrative behavior report for a profile.
// Output depends only on the counters and now.
func RenderProfile(p *models.BehaviorProfile, now time.Time) string {
	rule := strings.Repeat("=", profileRuleLen)
	in := AnalyzeProfile(p)
	totalMinutes := float64(p.TotalWatchSeconds) / 60

	var b strings.Builder
	fmt.Fprintf(&b, "%s\nUSER BEHAVIOR ANALYSIS REPORT\n%s\n", rule, rule)
	fmt.Fprintf(&b, "Generated: %s\n", now.UTC().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Tracking Period: %d days (from %s)\n\n", p.DaysTracked, p.StartDate.UTC().Format("2006-01-02"))

	fmt.Fprintf(&b, "VIEWING STATISTICS\n%s\n", rule)
	fmt.Fprintf(&b, "Total Videos Watched: %d\n", p.TotalVideos)
	fmt.Fprintf(&b, "Total Watch Time: %.1f minutes (%.1f hours)\n", totalMinutes, totalMinutes/60)
	fmt.Fprintf(&b, "Average Video Duration: %.1f minutes\n", in.AverageMinutes)
	fmt.Fprintf(&b, "Daily Average: %.1f videos/day\n\n", in.VideosPerDay)

	fmt.Fprintf(&b, "TOP CONTENT CATEGORIES\n%s\n", rule)
	for i, e := range p.Categories.Top(profileTopN) {
		fmt.Fprintf(&b, "%d. %s: %d videos (%.1f%%)\n", i+1, strings.ToUpper(e.Key), e.Count, share(e.Count, p.TotalVideos))
	}

	fmt.Fprintf(&b, "\nTOP CONTENT CREATORS\n%s\n", rule)
	for i, e := range p.Uploaders.Top(profileTopN) {
		fmt.Fprintf(&b, "%d. %s: %d videos (%.1f%%)\n", i+1, e.Key, e.Count, share(e.Count, p.TotalVideos))
	}

	fmt.Fprintf(&b, "\nBEHAVIOR INSIGHTS\n%s\n", rule)
	if in.PrimaryInterest != "" {
		fmt.Fprintf(&b, "- Primary Interest: %s\n", strings.ToUpper(in.PrimaryInterest))
	}
	fmt.Fprintf(&b, "- Viewing Pattern: %s\n", viewingPatternText[in.ViewingPattern])
	fmt.Fprintf(&b, "- Activity Level: %s\n", activityLevelText[in.ActivityLevel])
	b.WriteString(rule + "\n")

	return b.String()
}

func share(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(count) / float64(total) * 100
}
