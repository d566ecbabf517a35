package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"safeguard/internal/models"
	"safeguard/internal/service"
)

// ReportHandler serves activity history and weekly reports
type ReportHandler struct {
	reports  *service.ReportService
	activity *service.ActivityService
	logger   *zap.Logger
}

// NewReportHandler creates a new report handler
func NewReportHandler(reports *service.ReportService, activity *service.ActivityService, logger *zap.Logger) *ReportHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportHandler{reports: reports, activity: activity, logger: logger}
}

type historyResponse struct {
	Status string             `json:"status"`
	Entry  models.ActivityLog `json:"entry"`
}

// LogHistory stores one browsing history entry
func (h *ReportHandler) LogHistory(w http.ResponseWriter, r *http.Request) {
	var entry models.ActivityLog
	if err := decodeJSON(w, r, &entry); err != nil {
		respondWithError(w, h.logger, http.StatusBadRequest, CodeInvalidRequest, ErrInvalidRequestBody, "", err)
		return
	}

	if err := h.activity.Record(r.Context(), &entry); err != nil {
		respondServiceError(w, h.logger, "failed to log history", err)
		return
	}
	respondJSON(w, http.StatusCreated, historyResponse{Status: service.StatusSuccess, Entry: entry})
}

type weeklyReportResponse struct {
	Status string               `json:"status"`
	Report *models.WeeklyReport `json:"report"`
}

// WeeklyReport returns the report for the current week
func (h *ReportHandler) WeeklyReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.reports.CurrentWeek(r.Context(), r.PathValue("childId"))
	if err != nil {
		respondServiceError(w, h.logger, "failed to build weekly report", err)
		return
	}
	respondJSON(w, http.StatusOK, weeklyReportResponse{Status: service.StatusSuccess, Report: report})
}

type allReportsResponse struct {
	Status  string                `json:"status"`
	ChildID string                `json:"child_id"`
	Count   int                   `json:"count"`
	Reports []models.WeeklyReport `json:"reports"`
}

// AllReports lists stored weekly snapshots, newest first
func (h *ReportHandler) AllReports(w http.ResponseWriter, r *http.Request) {
	childID := r.PathValue("childId")
	reports, err := h.reports.AllReports(r.Context(), childID)
	if err != nil {
		respondServiceError(w, h.logger, "failed to list weekly reports", err)
		return
	}
	if reports == nil {
		reports = []models.WeeklyReport{}
	}
	respondJSON(w, http.StatusOK, allReportsResponse{
		Status:  service.StatusSuccess,
		ChildID: childID,
		Count:   len(reports),
		Reports: reports,
	})
}
