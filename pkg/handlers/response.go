package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/fabric-fusion/fabric-fusion/pkg/apperrors"
)

// ApiResponse is the envelope for list endpoints.
type ApiResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse writes a JSON error response and returns any encoding error.
func ErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(map[string]string{
		"error":   errorCode,
		"message": message,
	})
}

// WriteJSON writes a JSON response and returns any encoding error.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	if statusCode != http.StatusOK {
		w.WriteHeader(statusCode)
	}
	return json.NewEncoder(w).Encode(data)
}

// writeError writes an error response, logging if the write itself fails.
func writeError(w http.ResponseWriter, logger *zap.Logger, statusCode int, errorCode, message string) {
	if err := ErrorResponse(w, statusCode, errorCode, message); err != nil {
		logger.Error("Failed to write error response", zap.Error(err))
	}
}

// writeServiceError maps domain errors to HTTP statuses. Unknown errors are
// logged and reported as 500 with fallbackCode.
func writeServiceError(w http.ResponseWriter, logger *zap.Logger, err error, fallbackCode, fallbackMessage string) {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		writeError(w, logger, http.StatusNotFound, "not_found", "Resource not found")
	case errors.Is(err, apperrors.ErrInvalidInput):
		writeError(w, logger, http.StatusBadRequest, "invalid_request", unwrapMessage(err))
	case errors.Is(err, apperrors.ErrInvalidRole):
		writeError(w, logger, http.StatusBadRequest, "invalid_role", "Invalid role. Must be one of: admin, user")
	case errors.Is(err, apperrors.ErrConflict):
		writeError(w, logger, http.StatusConflict, "conflict", unwrapMessage(err))
	default:
		logger.Error(fallbackMessage, zap.Error(err))
		writeError(w, logger, http.StatusInternalServerError, fallbackCode, fallbackMessage)
	}
}

// unwrapMessage returns the error text without the trailing sentinel,
// e.g. "fabric name is required" for "fabric name is required: invalid input".
func unwrapMessage(err error) string {
	msg := err.Error()
	if inner := errors.Unwrap(err); inner != nil {
		suffix := ": " + inner.Error()
		if len(msg) > len(suffix) && msg[len(msg)-len(suffix):] == suffix {
			return msg[:len(msg)-len(suffix)]
		}
	}
	return msg
}
