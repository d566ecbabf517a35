package handlers

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"safeguard/internal/database"
)

// HealthHandler reports liveness and store reachability
type HealthHandler struct {
	db               *database.DB
	remoteConfigured bool
	logger           *zap.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db *database.DB, remoteConfigured bool, logger *zap.Logger) *HealthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HealthHandler{db: db, remoteConfigured: remoteConfigured, logger: logger}
}

type healthResponse struct {
	Status           string    `json:"status"`
	Database         string    `json:"database"`
	RemoteClassifier bool      `json:"remote_classifier"`
	Timestamp        time.Time `json:"timestamp"`
}

// Health pings the database and reports the result
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := healthResponse{
		Status:           "healthy",
		Database:         h.db.Dialect.DriverName(),
		RemoteClassifier: h.remoteConfigured,
		Timestamp:        time.Now().UTC(),
	}
	if err := h.db.PingContext(ctx); err != nil {
		h.logger.Warn("health check failed", zap.Error(err))
		resp.Status = "unhealthy"
		respondJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}
