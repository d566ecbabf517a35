package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"safeguard/internal/models"
	"safeguard/internal/service"
)

// CommentHandler serves comment classification and the hidden comment log
type CommentHandler struct {
	comments *service.CommentService
	logger   *zap.Logger
}

// NewCommentHandler creates a new comment handler
func NewCommentHandler(comments *service.CommentService, logger *zap.Logger) *CommentHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CommentHandler{comments: comments, logger: logger}
}

// AnalyzeComment classifies a comment and returns whether to hide it
func (h *CommentHandler) AnalyzeComment(w http.ResponseWriter, r *http.Request) {
	var req service.AnalyzeCommentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, h.logger, http.StatusBadRequest, CodeInvalidRequest, ErrInvalidRequestBody, "", err)
		return
	}

	verdict, err := h.comments.Analyze(r.Context(), req)
	if err != nil {
		respondServiceError(w, h.logger, "failed to store hidden comment", err)
		return
	}
	respondJSON(w, http.StatusOK, verdict)
}

type logHiddenResponse struct {
	Status  string               `json:"status"`
	Comment models.HiddenComment `json:"comment"`
}

// LogHiddenComment stores a comment the device already hid
func (h *CommentHandler) LogHiddenComment(w http.ResponseWriter, r *http.Request) {
	var c models.HiddenComment
	if err := decodeJSON(w, r, &c); err != nil {
		respondWithError(w, h.logger, http.StatusBadRequest, CodeInvalidRequest, ErrInvalidRequestBody, "", err)
		return
	}

	if err := h.comments.LogHidden(r.Context(), &c); err != nil {
		respondServiceError(w, h.logger, "failed to log hidden comment", err)
		return
	}
	respondJSON(w, http.StatusCreated, logHiddenResponse{Status: service.StatusSuccess, Comment: c})
}

// HiddenComments lists a child's hidden comments grouped by post
func (h *CommentHandler) HiddenComments(w http.ResponseWriter, r *http.Request) {
	view, err := h.comments.HiddenByChild(r.Context(), r.PathValue("childId"))
	if err != nil {
		respondServiceError(w, h.logger, "failed to list hidden comments", err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}
