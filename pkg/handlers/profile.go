package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/fabric-fusion/fabric-fusion/pkg/auth"
	"github.com/fabric-fusion/fabric-fusion/pkg/models"
	"github.com/fabric-fusion/fabric-fusion/pkg/services"
)

// UpdateRoleRequest is the body of PUT /api/admin/profiles/{id}/role.
type UpdateRoleRequest struct {
	Role string `json:"role"`
}

// ProfileHandler serves the caller's profile and admin role changes.
type ProfileHandler struct {
	profiles services.ProfileService
	logger   *zap.Logger
}

// NewProfileHandler creates a new profile handler.
func NewProfileHandler(profiles services.ProfileService, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{
		profiles: profiles,
		logger:   logger,
	}
}

// RegisterRoutes registers the profile routes.
func (h *ProfileHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("GET /api/me", authMiddleware.RequireAuth(h.Me))
	mux.HandleFunc("PUT /api/admin/profiles/{id}/role",
		authMiddleware.RequireAuth(auth.RequireRole(models.RoleAdmin)(h.UpdateRole)))
}

// Me handles GET /api/me.
func (h *ProfileHandler) Me(w http.ResponseWriter, r *http.Request) {
	profile, ok := auth.GetProfile(r.Context())
	if !ok || profile == nil {
		writeError(w, h.logger, http.StatusUnauthorized, "unauthorized", "Authentication required")
		return
	}

	if err := WriteJSON(w, http.StatusOK, profile); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}

// UpdateRole handles PUT /api/admin/profiles/{id}/role.
func (h *ProfileHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseProfileID(w, r, h.logger)
	if !ok {
		return
	}

	var req UpdateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	if err := h.profiles.SetRole(r.Context(), id, req.Role); err != nil {
		writeServiceError(w, h.logger, err, "update_role_failed", "Failed to update role")
		return
	}

	profile, err := h.profiles.GetProfile(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err, "update_role_failed", "Failed to load profile")
		return
	}

	if err := WriteJSON(w, http.StatusOK, profile); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}
