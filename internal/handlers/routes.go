package handlers

import "net/http"

// Routes wires every endpoint onto a new mux. metrics may be nil.
func Routes(mw *Middleware, tracking *TrackingHandler, comments *CommentHandler, reports *ReportHandler, health *HealthHandler, metrics http.Handler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", health.Health)
	if metrics != nil {
		mux.Handle("GET /metrics", metrics)
	}

	// Ingestion
	mux.HandleFunc("POST /api/events", mw.Protect(tracking.Events))
	mux.HandleFunc("POST /api/track-video", mw.Protect(tracking.TrackVideo))
	mux.HandleFunc("POST /api/logs/history", mw.Protect(reports.LogHistory))

	// Comments
	mux.HandleFunc("POST /api/analyze-comment", mw.Protect(comments.AnalyzeComment))
	mux.HandleFunc("POST /api/comments/hidden", mw.Protect(comments.LogHiddenComment))
	mux.HandleFunc("GET /api/comments/hidden/{childId}", mw.Protect(comments.HiddenComments))

	// Behavior
	mux.HandleFunc("GET /api/behavior-stats/{childId}", mw.Protect(tracking.BehaviorStats))
	mux.HandleFunc("GET /api/behavior-profile/{childId}", mw.Protect(tracking.BehaviorProfile))
	mux.HandleFunc("POST /api/behavior-profile/{childId}/regenerate", mw.Protect(tracking.RegenerateProfile))
	mux.HandleFunc("GET /api/recent-videos/{childId}", mw.Protect(tracking.RecentVideos))

	// Reports
	mux.HandleFunc("GET /api/reports/weekly/{childId}", mw.Protect(reports.WeeklyReport))
	mux.HandleFunc("GET /api/reports/all/{childId}", mw.Protect(reports.AllReports))

	return mw.Logging(mux)
}
