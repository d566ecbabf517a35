package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"safeguard/internal/classifier"
	"safeguard/internal/database"
	"safeguard/internal/lexicon"
	"safeguard/internal/repository"
	"safeguard/internal/service"
)

func newTestAPI(t *testing.T, secret string) http.Handler {
	t.Helper()
	db, err := database.Initialize(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.RunMigrations(nil))

	lex, err := lexicon.Default()
	require.NoError(t, err)

	activity := service.NewActivityService(repository.NewActivityRepository(db), nil)
	tracking := service.NewTrackingService(db, classifier.New(lex), nil, activity, service.DefaultTrackingConfig(), nil, nil)
	reports := service.NewReportService(
		repository.NewVideoRepository(db),
		repository.NewActivityRepository(db),
		repository.NewReportRepository(db),
		nil,
	)
	pipeline := classifier.NewCommentPipeline(lex, nil, classifier.DefaultPipelineConfig(), nil, nil)
	comments := service.NewCommentService(pipeline, repository.NewCommentRepository(db), nil)

	return Routes(
		NewMiddleware(nil, secret, nil),
		NewTrackingHandler(tracking, nil),
		NewCommentHandler(comments, nil),
		NewReportHandler(reports, activity, nil),
		NewHealthHandler(db, false, nil),
		nil,
	)
}

func do(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	r := httptest.NewRequest(method, path, &buf)
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestTrackVideoEndpoint(t *testing.T) {
	api := newTestAPI(t, "")
	event := map[string]interface{}{
		"child_id": "c1",
		"url":      "https://www.youtube.com/watch?v=abc123",
		"title":    "Learn Python Tutorial",
		"uploader": "Code Club",
		"duration": 600,
	}

	w := do(t, api, http.MethodPost, "/api/track-video", event)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "success", body["status"])
	assert.Contains(t, body["categories"], "educational")
	assert.Equal(t, "safe", body["content_rating"])
	assert.Equal(t, float64(1), body["total_videos"])

	w = do(t, api, http.MethodPost, "/api/track-video", event)
	assert.Equal(t, "skipped", decode(t, w)["status"])

	w = do(t, api, http.MethodGet, "/api/behavior-stats/c1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode(t, w)
	assert.Equal(t, float64(1), stats["total_videos"])
	assert.Equal(t, float64(10), stats["total_watch_time_minutes"])
	assert.Equal(t, false, stats["profile_available"])

	w = do(t, api, http.MethodGet, "/api/recent-videos/c1?limit=5", nil)
	require.Equal(t, http.StatusOK, w.Code)
	recent := decode(t, w)
	assert.Equal(t, float64(1), recent["count"])

	w = do(t, api, http.MethodGet, "/api/recent-videos/c1?limit=lots", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEventsEndpoint(t *testing.T) {
	api := newTestAPI(t, "")

	w := do(t, api, http.MethodPost, "/api/events", map[string]interface{}{
		"child_id":        "c1",
		"kind":            "site-visit",
		"url":             "https://www.example.com/a",
		"comments_hidden": 2,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "recorded", body["status"])
	assert.Equal(t, "example.com", body["activity"].(map[string]interface{})["domain"])

	tests := []struct {
		name string
		body interface{}
	}{
		{"unknown kind", map[string]interface{}{"child_id": "c1", "kind": "teleport"}},
		{"missing child", map[string]interface{}{"kind": "video-view", "url": "https://x/v"}},
		{"malformed json", "{not json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, api, http.MethodPost, "/api/events", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, CodeInvalidRequest, decode(t, w)["code"])
		})
	}
}

func TestCommentEndpoints(t *testing.T) {
	api := newTestAPI(t, "")

	w := do(t, api, http.MethodPost, "/api/analyze-comment", map[string]interface{}{
		"text":       "you are an idiot",
		"child_id":   "c1",
		"post_url":   "https://social.example/p/1",
		"post_title": "Skate tricks",
	})
	require.Equal(t, http.StatusOK, w.Code)
	verdict := decode(t, w)
	assert.Equal(t, true, verdict["hide"])
	assert.Equal(t, float64(2), verdict["severity"])
	assert.Equal(t, classifier.ReasonToxicLanguage, verdict["reason"])

	w = do(t, api, http.MethodPost, "/api/analyze-comment", map[string]interface{}{"text": "great trick!"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode(t, w)["hide"])

	w = do(t, api, http.MethodPost, "/api/comments/hidden", map[string]interface{}{
		"child_id":     "c1",
		"post_url":     "https://social.example/p/2",
		"comment_text": "hidden on device",
		"severity":     1,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(t, api, http.MethodPost, "/api/comments/hidden", map[string]interface{}{"child_id": "c1", "severity": 7})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, api, http.MethodGet, "/api/comments/hidden/c1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	view := decode(t, w)
	assert.Equal(t, float64(2), view["total_comments"])
	assert.Equal(t, float64(2), view["total_posts"])
}

func TestProfileEndpoints(t *testing.T) {
	api := newTestAPI(t, "")

	w := do(t, api, http.MethodGet, "/api/behavior-profile/c1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "not_started", body["status"])
	assert.Equal(t, float64(7), body["days_remaining"])

	w = do(t, api, http.MethodPost, "/api/behavior-profile/c1/regenerate", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, api, http.MethodPost, "/api/track-video", map[string]interface{}{"child_id": "c1", "url": "https://x/v", "title": "Song"})
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, api, http.MethodPost, "/api/behavior-profile/c1/regenerate", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, CodeNotReady, decode(t, w)["code"])

	w = do(t, api, http.MethodGet, "/api/behavior-profile/c1", nil)
	assert.Equal(t, "in_progress", decode(t, w)["status"])
}

func TestReportEndpoints(t *testing.T) {
	api := newTestAPI(t, "")

	w := do(t, api, http.MethodPost, "/api/logs/history", map[string]interface{}{
		"child_id":        "c1",
		"domain":          "social.example",
		"comments_hidden": 4,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	entry := decode(t, w)["entry"].(map[string]interface{})
	assert.Equal(t, "site-visit", entry["type"])

	w = do(t, api, http.MethodPost, "/api/logs/history", map[string]interface{}{"domain": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, api, http.MethodGet, "/api/reports/weekly/c1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	report := decode(t, w)["report"].(map[string]interface{})
	assert.Equal(t, float64(1), report["hidden_comments"])
	assert.True(t, strings.HasPrefix(report["safety_summary"].(string), "This week, 0 videos"))

	w = do(t, api, http.MethodGet, "/api/reports/all/c1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	all := decode(t, w)
	assert.Equal(t, float64(0), all["count"])
	assert.Equal(t, []interface{}{}, all["reports"])
}

func TestAPIRequiresTokenWhenConfigured(t *testing.T) {
	api := newTestAPI(t, testSecret)

	w := do(t, api, http.MethodGet, "/api/behavior-stats/c1", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(t, api, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code, "health stays open")
	assert.Equal(t, "healthy", decode(t, w)["status"])
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

func TestUnknownRoute(t *testing.T) {
	api := newTestAPI(t, "")

	w := do(t, api, http.MethodGet, "/api/track-video", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
