package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/fabric-fusion/fabric-fusion/pkg/auth"
	"github.com/fabric-fusion/fabric-fusion/pkg/logging"
	"github.com/fabric-fusion/fabric-fusion/pkg/storage"
)

// UploadPhotoResponse carries the public URL of an uploaded photo.
type UploadPhotoResponse struct {
	URL string `json:"url"`
}

// UploadsHandler accepts user photos for try-on.
type UploadsHandler struct {
	store  storage.ImageStore
	logger *zap.Logger
}

// NewUploadsHandler creates a new uploads handler.
func NewUploadsHandler(store storage.ImageStore, logger *zap.Logger) *UploadsHandler {
	return &UploadsHandler{
		store:  store,
		logger: logger,
	}
}

// RegisterRoutes registers the upload routes. All routes require authentication.
func (h *UploadsHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("POST /api/uploads/photo", authMiddleware.RequireAuth(h.UploadPhoto))
}

// UploadPhoto handles POST /api/uploads/photo (multipart field "photo").
func (h *UploadsHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r, h.logger)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxMultipartBytes)
	if err := r.ParseMultipartForm(maxMultipartBytes); err != nil {
		writeMultipartError(w, h.logger, err)
		return
	}

	photo, ok := formImage(w, r, "photo", h.logger)
	if !ok {
		return
	}
	if photo == nil {
		writeError(w, h.logger, http.StatusBadRequest, "invalid_request", "photo is required")
		return
	}
	defer closeUpload(photo)

	key := storage.UserPhotoKey(userID, photo.Filename)
	url, err := h.store.Put(r.Context(), key, photo.Body, photo.Size, photo.ContentType)
	if err != nil {
		h.logger.Error("Failed to store photo",
			zap.String("user_id", userID.String()),
			zap.String("error", logging.SanitizeError(err)))
		writeError(w, h.logger, http.StatusInternalServerError, "upload_failed", "Failed to upload photo")
		return
	}

	h.logger.Info("Stored user photo",
		zap.String("user_id", userID.String()),
		zap.String("key", key),
		zap.Int64("bytes", photo.Size))

	if err := WriteJSON(w, http.StatusCreated, UploadPhotoResponse{URL: url}); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}
