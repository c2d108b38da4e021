package handlers

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/fabric-fusion/fabric-fusion/pkg/auth"
	"github.com/fabric-fusion/fabric-fusion/pkg/models"
	"github.com/fabric-fusion/fabric-fusion/pkg/services"
)

// MaxImageBytes bounds every uploaded image.
const MaxImageBytes = 5 << 20

// maxMultipartBytes leaves room for the form fields around one image.
const maxMultipartBytes = MaxImageBytes + 64<<10

// CatalogHandler serves fabrics and kurti styles.
type CatalogHandler struct {
	catalog services.CatalogService
	logger  *zap.Logger
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(catalog services.CatalogService, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{
		catalog: catalog,
		logger:  logger,
	}
}

// RegisterRoutes registers the catalog routes. Admin routes require the admin role.
func (h *CatalogHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("GET /api/fabrics", h.ListFabrics)
	mux.HandleFunc("GET /api/fabrics/{id}", h.GetFabric)
	mux.HandleFunc("GET /api/styles", h.ListStyles)

	requireAdmin := func(next http.HandlerFunc) http.HandlerFunc {
		return authMiddleware.RequireAuth(auth.RequireRole(models.RoleAdmin)(next))
	}
	mux.HandleFunc("GET /api/admin/fabrics", requireAdmin(h.ListAllFabrics))
	mux.HandleFunc("POST /api/admin/fabrics", requireAdmin(h.CreateFabric))
	mux.HandleFunc("PUT /api/admin/fabrics/{id}", requireAdmin(h.UpdateFabric))
	mux.HandleFunc("DELETE /api/admin/fabrics/{id}", requireAdmin(h.DeleteFabric))
}

// ListFabrics handles GET /api/fabrics.
func (h *CatalogHandler) ListFabrics(w http.ResponseWriter, r *http.Request) {
	fabrics, err := h.catalog.ListActiveFabrics(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err, "list_fabrics_failed", "Failed to list fabrics")
		return
	}
	h.writeList(w, fabrics)
}

// ListAllFabrics handles GET /api/admin/fabrics.
func (h *CatalogHandler) ListAllFabrics(w http.ResponseWriter, r *http.Request) {
	fabrics, err := h.catalog.ListAllFabrics(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err, "list_fabrics_failed", "Failed to list fabrics")
		return
	}
	h.writeList(w, fabrics)
}

// GetFabric handles GET /api/fabrics/{id}.
func (h *CatalogHandler) GetFabric(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseFabricID(w, r, h.logger)
	if !ok {
		return
	}

	fabric, err := h.catalog.GetFabric(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err, "get_fabric_failed", "Failed to get fabric")
		return
	}

	if err := WriteJSON(w, http.StatusOK, fabric); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}

// CreateFabric handles POST /api/admin/fabrics (multipart/form-data).
func (h *CatalogHandler) CreateFabric(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r, h.logger)
	if !ok {
		return
	}

	input, image, ok := h.parseFabricForm(w, r)
	if !ok {
		return
	}
	if image == nil {
		writeError(w, h.logger, http.StatusBadRequest, "invalid_request", "image is required")
		return
	}
	defer closeUpload(image)

	fabric, err := h.catalog.CreateFabric(r.Context(), input, image, userID)
	if err != nil {
		writeServiceError(w, h.logger, err, "create_fabric_failed", "Failed to create fabric")
		return
	}

	if err := WriteJSON(w, http.StatusCreated, fabric); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}

// UpdateFabric handles PUT /api/admin/fabrics/{id} (multipart/form-data).
// The image part is optional.
func (h *CatalogHandler) UpdateFabric(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseFabricID(w, r, h.logger)
	if !ok {
		return
	}

	input, image, ok := h.parseFabricForm(w, r)
	if !ok {
		return
	}
	defer closeUpload(image)

	fabric, err := h.catalog.UpdateFabric(r.Context(), id, input, image)
	if err != nil {
		writeServiceError(w, h.logger, err, "update_fabric_failed", "Failed to update fabric")
		return
	}

	if err := WriteJSON(w, http.StatusOK, fabric); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}

// DeleteFabric handles DELETE /api/admin/fabrics/{id}.
func (h *CatalogHandler) DeleteFabric(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseFabricID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.catalog.DeleteFabric(r.Context(), id); err != nil {
		writeServiceError(w, h.logger, err, "delete_fabric_failed", "Failed to delete fabric")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListStyles handles GET /api/styles.
func (h *CatalogHandler) ListStyles(w http.ResponseWriter, r *http.Request) {
	styles, err := h.catalog.ListActiveStyles(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err, "list_styles_failed", "Failed to list styles")
		return
	}
	h.writeList(w, styles)
}

func (h *CatalogHandler) writeList(w http.ResponseWriter, data any) {
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: data}); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}

// parseFabricForm reads the fabric fields and optional image from a multipart
// form. It writes the error response itself and returns false on failure.
func (h *CatalogHandler) parseFabricForm(w http.ResponseWriter, r *http.Request) (services.FabricInput, *services.ImageUpload, bool) {
	var input services.FabricInput

	r.Body = http.MaxBytesReader(w, r.Body, maxMultipartBytes)
	if err := r.ParseMultipartForm(maxMultipartBytes); err != nil {
		writeMultipartError(w, h.logger, err)
		return input, nil, false
	}

	input.Name = r.FormValue("name")
	input.FabricType = optionalFormValue(r, "fabric_type")
	input.Description = optionalFormValue(r, "description")

	if raw := strings.TrimSpace(r.FormValue("price")); raw != "" {
		price, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			writeError(w, h.logger, http.StatusBadRequest, "invalid_request", "price must be a number")
			return input, nil, false
		}
		if err := services.ValidatePrice(price); err != nil {
			writeServiceError(w, h.logger, err, "invalid_request", "Invalid price")
			return input, nil, false
		}
		input.Price = &price
	}

	input.IsActive = true
	if raw := strings.TrimSpace(r.FormValue("is_active")); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, h.logger, http.StatusBadRequest, "invalid_request", "is_active must be true or false")
			return input, nil, false
		}
		input.IsActive = active
	}

	image, ok := formImage(w, r, "image", h.logger)
	if !ok {
		return input, nil, false
	}
	return input, image, true
}

// optionalFormValue returns nil when the field is absent from the form.
func optionalFormValue(r *http.Request, key string) *string {
	if r.MultipartForm == nil {
		return nil
	}
	values, ok := r.MultipartForm.Value[key]
	if !ok || len(values) == 0 {
		return nil
	}
	v := values[0]
	return &v
}

// formImage opens the image part named field. A missing part yields nil and
// true. Oversized or non-image parts are rejected with an error response.
// The returned body stays valid until the request's multipart form is removed.
func formImage(w http.ResponseWriter, r *http.Request, field string, logger *zap.Logger) (*services.ImageUpload, bool) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, true
	}
	if err != nil {
		writeError(w, logger, http.StatusBadRequest, "invalid_request", "Invalid "+field+" upload")
		return nil, false
	}

	if header.Size > MaxImageBytes {
		_ = file.Close()
		writeError(w, logger, http.StatusRequestEntityTooLarge, "file_too_large", "Image must be 5 MB or smaller")
		return nil, false
	}

	contentType, err := detectImageType(file, header)
	if err != nil {
		_ = file.Close()
		writeError(w, logger, http.StatusBadRequest, "invalid_request", "Invalid "+field+" upload")
		return nil, false
	}
	if !strings.HasPrefix(contentType, "image/") {
		_ = file.Close()
		writeError(w, logger, http.StatusUnsupportedMediaType, "unsupported_media_type", "Only image files are accepted")
		return nil, false
	}

	return &services.ImageUpload{
		Filename:    filepath.Base(header.Filename),
		ContentType: contentType,
		Size:        header.Size,
		Body:        file,
	}, true
}

func closeUpload(image *services.ImageUpload) {
	if image == nil {
		return
	}
	if c, ok := image.Body.(io.Closer); ok {
		_ = c.Close()
	}
}

// detectImageType prefers the part's declared type and falls back to sniffing.
func detectImageType(file multipart.File, header *multipart.FileHeader) (string, error) {
	if declared := header.Header.Get("Content-Type"); declared != "" && declared != "application/octet-stream" {
		return declared, nil
	}

	buf := make([]byte, 512)
	n, err := file.Read(buf)
	if err != nil && n == 0 {
		return "", err
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	return http.DetectContentType(buf[:n]), nil
}

func writeMultipartError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		writeError(w, logger, http.StatusRequestEntityTooLarge, "file_too_large", "Image must be 5 MB or smaller")
		return
	}
	writeError(w, logger, http.StatusBadRequest, "invalid_request", "Request must be multipart/form-data")
}
