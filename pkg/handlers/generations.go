package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fabric-fusion/fabric-fusion/pkg/auth"
	"github.com/fabric-fusion/fabric-fusion/pkg/models"
	"github.com/fabric-fusion/fabric-fusion/pkg/services"
)

// CreateGenerationRequest is the body of POST /api/generations.
type CreateGenerationRequest struct {
	FabricID     string `json:"fabric_id"`
	StyleID      string `json:"style_id"`
	UserImageURL string `json:"user_image_url"`
	Prompt       string `json:"prompt,omitempty"`
}

// GenerationFailedResponse is returned when the relay could not produce an image.
type GenerationFailedResponse struct {
	Error      string             `json:"error"`
	Message    string             `json:"message"`
	Generation *models.Generation `json:"generation"`
}

// GenerationsHandler serves the caller's generation history and runs new generations.
type GenerationsHandler struct {
	generations services.GenerationService
	logger      *zap.Logger
}

// NewGenerationsHandler creates a new generations handler.
func NewGenerationsHandler(generations services.GenerationService, logger *zap.Logger) *GenerationsHandler {
	return &GenerationsHandler{
		generations: generations,
		logger:      logger,
	}
}

// RegisterRoutes registers the generation routes. All routes require authentication.
func (h *GenerationsHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("POST /api/generations", authMiddleware.RequireAuth(h.Create))
	mux.HandleFunc("GET /api/generations", authMiddleware.RequireAuth(h.List))
	mux.HandleFunc("GET /api/generations/{id}", authMiddleware.RequireAuth(h.Get))
}

// Create handles POST /api/generations.
func (h *GenerationsHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r, h.logger)
	if !ok {
		return
	}

	var req CreateGenerationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	fabricID, err := parseOptionalUUID(req.FabricID)
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "invalid_request", "Invalid fabric_id")
		return
	}
	styleID, err := parseOptionalUUID(req.StyleID)
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "invalid_request", "Invalid style_id")
		return
	}

	gen, err := h.generations.Create(r.Context(), userID, services.CreateGenerationInput{
		FabricID:     fabricID,
		StyleID:      styleID,
		UserImageURL: req.UserImageURL,
		Prompt:       req.Prompt,
	})
	if err != nil {
		var relayErr *services.RelayError
		if errors.As(err, &relayErr) && gen != nil {
			if err := WriteJSON(w, http.StatusBadGateway, GenerationFailedResponse{
				Error:      "generation_failed",
				Message:    relayErr.Message,
				Generation: gen,
			}); err != nil {
				h.logger.Error("Failed to encode response", zap.Error(err))
			}
			return
		}
		writeServiceError(w, h.logger, err, "create_generation_failed", "Failed to create generation")
		return
	}

	if err := WriteJSON(w, http.StatusCreated, gen); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}

// List handles GET /api/generations.
func (h *GenerationsHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r, h.logger)
	if !ok {
		return
	}

	generations, err := h.generations.List(r.Context(), userID)
	if err != nil {
		writeServiceError(w, h.logger, err, "list_generations_failed", "Failed to list generations")
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: generations}); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}

// Get handles GET /api/generations/{id}.
func (h *GenerationsHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := ParseGenerationID(w, r, h.logger)
	if !ok {
		return
	}

	gen, err := h.generations.Get(r.Context(), userID, id)
	if err != nil {
		writeServiceError(w, h.logger, err, "get_generation_failed", "Failed to get generation")
		return
	}

	if err := WriteJSON(w, http.StatusOK, gen); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}

// parseOptionalUUID maps a blank string to uuid.Nil so the service reports
// the missing selection.
func parseOptionalUUID(s string) (uuid.UUID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return uuid.Nil, nil
	}
	return uuid.Parse(s)
}
