package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-jose/go-jose/v4"

	"relay/internal/keys"
	"relay/internal/platform/middleware"
	"relay/pkg/platform/httputil"
)

// Handler publishes the relay's public signing key.
type Handler struct {
	logger *slog.Logger
	key    keys.PublicKeyResponse
	jwks   jose.JSONWebKeySet
}

// New builds the key endpoints from a loaded public key.
func New(pk *keys.PublicKey, logger *slog.Logger) (*Handler, error) {
	jwks, err := pk.JWKS()
	if err != nil {
		return nil, err
	}
	return &Handler{logger: logger, key: pk.Response(), jwks: jwks}, nil
}

// Register registers the well-known key routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/.well-known/public-keys", h.handlePublicKey)
	r.Get("/.well-known/jwks.json", h.handleJWKS)
}

func (h *Handler) handlePublicKey(w http.ResponseWriter, r *http.Request) {
	h.logger.DebugContext(r.Context(), "serving public key",
		"request_id", middleware.GetRequestID(r.Context()),
		"kid", h.key.Kid,
	)
	w.Header().Set("Cache-Control", "public, max-age=300")
	httputil.WriteJSON(w, http.StatusOK, h.key)
}

func (h *Handler) handleJWKS(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Cache-Control", "public, max-age=300")
	httputil.WriteJSON(w, http.StatusOK, h.jwks)
}
