package service

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"safeguard/internal/models"
)

func TestAnalyzeProfile(t *testing.T) {
	tests := []struct {
		name         string
		videos       int
		seconds      int64
		days         int
		wantPattern  string
		wantActivity string
		wantPerDay   float64
	}{
		{"short and light", 7, 7 * 60, 7, "short", "light", 1},
		{"medium and moderate", 42, 42 * 5 * 60, 7, "medium", "moderate", 6},
		{"long and high", 77, 77 * 20 * 60, 7, "long", "high", 11},
		{"zero days counts as one", 3, 3 * 60 * 60, 0, "long", "light", 3},
		{"boundary three minutes is medium", 1, 180, 1, "medium", "light", 1},
		{"boundary ten per day is moderate", 70, 70 * 60, 7, "short", "moderate", 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &models.BehaviorProfile{TotalVideos: tt.videos, TotalWatchSeconds: tt.seconds, DaysTracked: tt.days}
			in := AnalyzeProfile(p)
			assert.Equal(t, tt.wantPattern, in.ViewingPattern)
			assert.Equal(t, tt.wantActivity, in.ActivityLevel)
			assert.InDelta(t, tt.wantPerDay, in.VideosPerDay, 0.001)
			assert.Empty(t, in.PrimaryInterest)
		})
	}
}

func TestRenderProfile(t *testing.T) {
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	p := models.NewBehaviorProfile("p1", "c1", start)
	p.RecordVideo(600, []string{"educational", "technology"}, "Code Club", start.Add(time.Hour))
	p.RecordVideo(300, []string{"music"}, "Singalong", start.AddDate(0, 0, 3))
	p.RecordVideo(300, []string{"educational"}, "Code Club", start.AddDate(0, 0, 7))

	now := time.Date(2024, 5, 8, 12, 30, 0, 0, time.UTC)
	text := RenderProfile(p, now)

	rule := strings.Repeat("=", 70)
	assert.True(t, strings.HasPrefix(text, rule+"\nUSER BEHAVIOR ANALYSIS REPORT\n"))
	assert.Contains(t, text, "Generated: 2024-05-08 12:30:00")
	assert.Contains(t, text, "Tracking Period: 7 days (from 2024-05-01)")
	assert.Contains(t, text, "Total Videos Watched: 3")
	assert.Contains(t, text, "Total Watch Time: 20.0 minutes (0.3 hours)")
	assert.Contains(t, text, "1. EDUCATIONAL: 2 videos (66.7%)")
	assert.Contains(t, text, "2. TECHNOLOGY: 1 videos (33.3%)")
	assert.Contains(t, text, "1. Code Club: 2 videos (66.7%)")
	assert.Contains(t, text, "- Primary Interest: EDUCATIONAL")
	assert.Contains(t, text, "- Viewing Pattern: Medium-form content consumer (moderate length)")
	assert.Contains(t, text, "- Activity Level: Light (casual user)")

	assert.Equal(t, text, RenderProfile(p, now), "rendering is deterministic")
}
