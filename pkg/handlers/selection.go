package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/fabric-fusion/fabric-fusion/pkg/auth"
	"github.com/fabric-fusion/fabric-fusion/pkg/models"
)

// SelectionResponse is the stored selection plus whether it is complete.
type SelectionResponse struct {
	models.Selection
	ReadyToGenerate bool `json:"ready_to_generate"`
}

// SelectionHandler keeps the shopper's fabric, style and photo choice in a cookie.
type SelectionHandler struct {
	store  *auth.SelectionStore
	logger *zap.Logger
}

// NewSelectionHandler creates a new selection handler.
func NewSelectionHandler(store *auth.SelectionStore, logger *zap.Logger) *SelectionHandler {
	return &SelectionHandler{
		store:  store,
		logger: logger,
	}
}

// RegisterRoutes registers the selection routes.
func (h *SelectionHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/selection", h.Get)
	mux.HandleFunc("PUT /api/selection", h.Update)
	mux.HandleFunc("DELETE /api/selection", h.Clear)
}

// Get handles GET /api/selection.
func (h *SelectionHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.write(w, h.store.Load(r))
}

// Update handles PUT /api/selection. Omitted fields are kept, empty strings clear.
func (h *SelectionHandler) Update(w http.ResponseWriter, r *http.Request) {
	var update models.SelectionUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	sel := h.store.Load(r)
	sel.Apply(update)

	if err := h.store.Save(w, r, sel); err != nil {
		h.logger.Error("Failed to save selection", zap.Error(err))
		writeError(w, h.logger, http.StatusInternalServerError, "internal_error", "Failed to save selection")
		return
	}

	h.write(w, sel)
}

// Clear handles DELETE /api/selection.
func (h *SelectionHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Clear(w, r); err != nil {
		h.logger.Error("Failed to clear selection", zap.Error(err))
		writeError(w, h.logger, http.StatusInternalServerError, "internal_error", "Failed to clear selection")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SelectionHandler) write(w http.ResponseWriter, sel models.Selection) {
	resp := SelectionResponse{Selection: sel, ReadyToGenerate: sel.ReadyToGenerate()}
	if err := WriteJSON(w, http.StatusOK, resp); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}
