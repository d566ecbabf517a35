package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"safeguard/internal/service"
)

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondWithError(w http.ResponseWriter, logger *zap.Logger, status int, code, userMsg, logMsg string, err error) {
	if err != nil {
		if logMsg == "" {
			logMsg = userMsg
		}
		if status >= http.StatusInternalServerError {
			logger.Error(logMsg, zap.Error(err))
		} else {
			logger.Debug(logMsg, zap.Error(err))
		}
	}

	respondJSON(w, status, errorBody{Error: userMsg, Code: code})
}

// respondServiceError maps service errors onto HTTP statuses
func respondServiceError(w http.ResponseWriter, logger *zap.Logger, logMsg string, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		respondWithError(w, logger, http.StatusBadRequest, CodeInvalidRequest, err.Error(), logMsg, err)
	case errors.Is(err, service.ErrNotFound):
		respondWithError(w, logger, http.StatusNotFound, CodeNotFound, err.Error(), logMsg, err)
	case errors.Is(err, service.ErrProfileNotReady):
		respondWithError(w, logger, http.StatusConflict, CodeNotReady, err.Error(), logMsg, err)
	default:
		respondWithError(w, logger, http.StatusInternalServerError, CodeServerError, ErrInternalServerError, logMsg, err)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(dst)
}
