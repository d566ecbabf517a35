package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"safeguard/internal/classifier"
	"safeguard/internal/database"
	"safeguard/internal/lexicon"
	"safeguard/internal/metadata"
	"safeguard/internal/repository"
)

// monday is the start of an ISO week, used as the base of most tests
var monday = time.Date(2024, 5, 6, 9, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock {
	return &fakeClock{now: t}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeExtractor struct {
	md        *metadata.Metadata
	err       error
	calls     int
	onExtract func()
	mu        sync.Mutex
}

func (f *fakeExtractor) Supports(url string) bool { return true }

func (f *fakeExtractor) Extract(ctx context.Context, url string) (*metadata.Metadata, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.onExtract != nil {
		f.onExtract()
	}
	if f.err != nil {
		return nil, f.err
	}
	md := *f.md
	return &md, nil
}

type testEnv struct {
	db       *database.DB
	clock    *fakeClock
	lex      *lexicon.Lexicon
	tracking *TrackingService
	activity *ActivityService
	reports  *ReportService
	comments *CommentService
}

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Initialize(filepath.Join(t.TempDir(), "service.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.RunMigrations(nil))
	return db
}

func defaultLexicon(t *testing.T) *lexicon.Lexicon {
	t.Helper()
	lex, err := lexicon.Default()
	require.NoError(t, err)
	return lex
}

func newTestEnv(t *testing.T) *testEnv {
	return newTestEnvWith(t, defaultLexicon(t), nil)
}

func newTestEnvWith(t *testing.T, lex *lexicon.Lexicon, extractor metadata.Extractor) *testEnv {
	t.Helper()
	db := newTestDB(t)
	clock := newFakeClock(monday)

	activity := NewActivityService(repository.NewActivityRepository(db), nil)
	activity.now = clock.Now

	tracking := NewTrackingService(db, classifier.New(lex), extractor, activity, DefaultTrackingConfig(), nil, nil)
	tracking.now = clock.Now

	reports := NewReportService(
		repository.NewVideoRepository(db),
		repository.NewActivityRepository(db),
		repository.NewReportRepository(db),
		nil,
	)
	reports.now = clock.Now

	pipeline := classifier.NewCommentPipeline(lex, nil, classifier.DefaultPipelineConfig(), nil, nil)
	comments := NewCommentService(pipeline, repository.NewCommentRepository(db), nil)
	comments.now = clock.Now

	return &testEnv{
		db:       db,
		clock:    clock,
		lex:      lex,
		tracking: tracking,
		activity: activity,
		reports:  reports,
		comments: comments,
	}
}

func videoEvent(childID, url, title string, duration int) ActivityEvent {
	return ActivityEvent{
		ChildID:         childID,
		Kind:            ActivityVideoView,
		URL:             url,
		Title:           title,
		Uploader:        "Test Channel",
		DurationSeconds: duration,
	}
}
