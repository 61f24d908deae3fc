package handler

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/crickarena/auction-api/pkg/errors"
	"github.com/crickarena/auction-api/pkg/logger"
)

// respondJSON writes a success envelope around the given payload
func respondJSON(w http.ResponseWriter, log *logger.Logger, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]interface{}{
		"success": true,
		"data":    data,
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.WithError(err).Error("failed to encode response")
	}
}

// respondError writes an error envelope. Unknown errors become opaque 500s
// so internals never leak to clients.
func respondError(w http.ResponseWriter, log *logger.Logger, err error) {
	appErr, ok := apperrors.IsAppError(err)
	if !ok {
		log.WithError(err).Error("unhandled error")
		appErr = apperrors.NewInternalError("internal server error", err)
	} else if appErr.StatusCode >= http.StatusInternalServerError {
		log.WithError(appErr).Error("request failed")
	} else {
		log.WithError(appErr).Debug("request rejected")
	}

	errBody := map[string]interface{}{
		"type":    string(appErr.Type),
		"message": appErr.Message,
	}
	if appErr.Details != nil {
		errBody["details"] = appErr.Details
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.StatusCode)

	response := map[string]interface{}{
		"success": false,
		"error":   errBody,
	}
	if encErr := json.NewEncoder(w).Encode(response); encErr != nil {
		log.WithError(encErr).Error("failed to encode error response")
	}
}
