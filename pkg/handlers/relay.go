package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/fabric-fusion/fabric-fusion/pkg/logging"
	"github.com/fabric-fusion/fabric-fusion/pkg/middleware"
	"github.com/fabric-fusion/fabric-fusion/pkg/services"
)

// RelayPath is the public path of the generation relay.
const RelayPath = "/functions/v1/generate-kurti"

const (
	relayMsgMethodNotAllowed = "Method not allowed"
	maxRelayBodyBytes        = 1 << 20
)

// RelayCORS is the cross-origin policy of the relay endpoint.
var RelayCORS = middleware.CORSOptions{
	AllowOrigin:     "*",
	AllowHeaders:    []string{"authorization", "x-client-info", "apikey", "content-type"},
	AllowMethods:    []string{http.MethodPost, http.MethodOptions},
	PreflightStatus: http.StatusOK,
}

// RelayResponse is the relay's response body.
type RelayResponse struct {
	Success  bool   `json:"success"`
	ImageURL string `json:"imageUrl,omitempty"`
	Prompt   string `json:"prompt,omitempty"`
	Error    string `json:"error,omitempty"`
}

// RelayHandler exposes the stateless generation relay.
type RelayHandler struct {
	relay  services.RelayService
	logger *zap.Logger
}

// NewRelayHandler creates a new relay handler.
func NewRelayHandler(relay services.RelayService, logger *zap.Logger) *RelayHandler {
	return &RelayHandler{
		relay:  relay,
		logger: logger,
	}
}

// RegisterRoutes registers the relay on mux. The route takes every method so
// that pre-flight and 405 answers carry the CORS headers.
func (h *RelayHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.Handle(RelayPath, middleware.CORS(RelayCORS)(http.HandlerFunc(h.Generate)))
}

// Generate handles POST /functions/v1/generate-kurti.
func (h *RelayHandler) Generate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.write(w, http.StatusMethodNotAllowed, RelayResponse{Error: relayMsgMethodNotAllowed})
		return
	}

	var req services.RelayRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRelayBodyBytes)).Decode(&req); err != nil {
		h.logger.Warn("Invalid relay request body", zap.Error(err))
		h.write(w, http.StatusInternalServerError, RelayResponse{Error: logging.SanitizeError(err)})
		return
	}

	result, err := h.relay.Generate(r.Context(), req)
	if err != nil {
		h.write(w, http.StatusInternalServerError, RelayResponse{Error: err.Error()})
		return
	}

	h.write(w, http.StatusOK, RelayResponse{
		Success:  true,
		ImageURL: result.ImageURL,
		Prompt:   result.Prompt,
	})
}

func (h *RelayHandler) write(w http.ResponseWriter, status int, body RelayResponse) {
	if err := WriteJSON(w, status, body); err != nil {
		h.logger.Error("Failed to encode relay response", zap.Error(err))
	}
}
