package handlers

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"safeguard/internal/models"
	"safeguard/internal/service"
)

// TrackingHandler serves event ingestion and behavior profile reads
type TrackingHandler struct {
	tracking *service.TrackingService
	logger   *zap.Logger
}

// NewTrackingHandler creates a new tracking handler
func NewTrackingHandler(tracking *service.TrackingService, logger *zap.Logger) *TrackingHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TrackingHandler{tracking: tracking, logger: logger}
}

// Events ingests an event of any kind
func (h *TrackingHandler) Events(w http.ResponseWriter, r *http.Request) {
	var ev service.ActivityEvent
	if err := decodeJSON(w, r, &ev); err != nil {
		respondWithError(w, h.logger, http.StatusBadRequest, CodeInvalidRequest, ErrInvalidRequestBody, "", err)
		return
	}

	result, err := h.tracking.Ingest(r.Context(), ev)
	if err != nil {
		respondServiceError(w, h.logger, "failed to ingest event", err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// TrackVideo ingests a video view
func (h *TrackingHandler) TrackVideo(w http.ResponseWriter, r *http.Request) {
	var ev service.ActivityEvent
	if err := decodeJSON(w, r, &ev); err != nil {
		respondWithError(w, h.logger, http.StatusBadRequest, CodeInvalidRequest, ErrInvalidRequestBody, "", err)
		return
	}
	ev.Kind = service.ActivityVideoView

	result, err := h.tracking.TrackVideo(r.Context(), ev)
	if err != nil {
		respondServiceError(w, h.logger, "failed to track video", err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// BehaviorStats returns a child's live counters
func (h *TrackingHandler) BehaviorStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.tracking.Stats(r.Context(), r.PathValue("childId"))
	if err != nil {
		respondServiceError(w, h.logger, "failed to load behavior stats", err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

// BehaviorProfile returns the narrative profile, or progress towards it
func (h *TrackingHandler) BehaviorProfile(w http.ResponseWriter, r *http.Request) {
	view, err := h.tracking.Profile(r.Context(), r.PathValue("childId"))
	if err != nil {
		respondServiceError(w, h.logger, "failed to load behavior profile", err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// RegenerateProfile re-renders the narrative from current counters
func (h *TrackingHandler) RegenerateProfile(w http.ResponseWriter, r *http.Request) {
	view, err := h.tracking.RegenerateProfile(r.Context(), r.PathValue("childId"))
	if err != nil {
		respondServiceError(w, h.logger, "failed to regenerate behavior profile", err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

type recentVideosResponse struct {
	Status  string                `json:"status"`
	ChildID string                `json:"child_id"`
	Count   int                   `json:"count"`
	Videos  []models.TrackedVideo `json:"videos"`
}

// RecentVideos lists the latest tracked videos for a child
func (h *TrackingHandler) RecentVideos(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			respondWithError(w, h.logger, http.StatusBadRequest, CodeInvalidRequest, "limit must be a number", "", nil)
			return
		}
		limit = n
	}

	childID := r.PathValue("childId")
	videos, err := h.tracking.RecentVideos(r.Context(), childID, limit)
	if err != nil {
		respondServiceError(w, h.logger, "failed to list recent videos", err)
		return
	}
	if videos == nil {
		videos = []models.TrackedVideo{}
	}
	respondJSON(w, http.StatusOK, recentVideosResponse{
		Status:  service.StatusSuccess,
		ChildID: childID,
		Count:   len(videos),
		Videos:  videos,
	})
}
