package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fabric-fusion/fabric-fusion/pkg/auth"
)

// ParseFabricID extracts and validates the fabric ID from the request path.
// Returns the parsed UUID and true on success, or uuid.Nil and false on error
// (after writing an error response).
// Expects path parameter: id
func ParseFabricID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, bool) {
	return parseUUID(w, r, "id", "invalid_fabric_id", "Invalid fabric ID format", logger)
}

// ParseGenerationID extracts and validates the generation ID from the request path.
// Expects path parameter: id
func ParseGenerationID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, bool) {
	return parseUUID(w, r, "id", "invalid_generation_id", "Invalid generation ID format", logger)
}

// ParseProfileID extracts and validates the profile ID from the request path.
// Expects path parameter: id
func ParseProfileID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, bool) {
	return parseUUID(w, r, "id", "invalid_profile_id", "Invalid profile ID format", logger)
}

// parseUUID is the internal helper that does the actual parsing work.
func parseUUID(w http.ResponseWriter, r *http.Request, pathParam, errorCode, errorMessage string, logger *zap.Logger) (uuid.UUID, bool) {
	idStr := r.PathValue(pathParam)
	id, err := uuid.Parse(idStr)
	if err != nil {
		writeError(w, logger, http.StatusBadRequest, errorCode, errorMessage)
		return uuid.Nil, false
	}
	return id, true
}

// requireUserID returns the caller's user ID set by auth.Middleware.RequireAuth.
func requireUserID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, bool) {
	userID, err := auth.RequireUserUUIDFromContext(r.Context())
	if err != nil {
		writeError(w, logger, http.StatusUnauthorized, "unauthorized", "Authentication required")
		return uuid.Nil, false
	}
	return userID, true
}
