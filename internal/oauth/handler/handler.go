package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"relay/internal/oauth/models"
	"relay/internal/oauth/service"
	"relay/internal/platform/metrics"
	"relay/internal/platform/middleware"
	"relay/internal/session"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service,SessionManager,SessionTokenIssuer

// Service defines the authorization flow operations.
type Service interface {
	Initiate(ctx context.Context, req models.InitiateRequest) (*models.FlowInitiationResponse, error)
	Complete(ctx context.Context, req models.CallbackRequest, sess service.Session, embedded bool) (*models.Completion, error)
}

// SessionManager loads and persists browser sessions.
type SessionManager interface {
	Load(r *http.Request) (*session.Session, error)
	Save(w http.ResponseWriter, r *http.Request, sess *session.Session) error
}

// SessionTokenIssuer mints the relay_session assertion after a completed sign-in.
type SessionTokenIssuer interface {
	GenerateSessionToken(uid, email, sessionID, scope string, expiresIn time.Duration) (string, error)
}

// Config holds the handler settings.
type Config struct {
	RequestTimeout  time.Duration
	SessionTokenTTL time.Duration
	// Cookie carries the attributes for the relay_session cookie.
	Cookie session.CookieOptions
}

// Handler serves the sign-in initiation endpoints and the provider callback.
type Handler struct {
	logger   *slog.Logger
	flow     Service
	sessions SessionManager
	issuer   SessionTokenIssuer
	metrics  *metrics.Metrics
	cfg      Config
}

// New creates a new oauth Handler. issuer may be nil, in which case no
// relay_session assertion is minted.
func New(
	flow Service,
	sessions SessionManager,
	issuer SessionTokenIssuer,
	logger *slog.Logger,
	metrics *metrics.Metrics,
	cfg Config) *Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	return &Handler{
		logger:   logger,
		flow:     flow,
		sessions: sessions,
		issuer:   issuer,
		metrics:  metrics,
		cfg:      cfg,
	}
}

// Register registers the oauth routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(api chi.Router) {
		api.Use(middleware.Timeout(h.cfg.RequestTimeout))
		api.Use(middleware.LatencyMiddleware(h.metrics))

		api.Get("/api/login", h.initiate(models.ActionSignIn))
		api.Get("/api/signup", h.initiate(models.ActionSignUp))
		api.Get("/api/best_choice", h.initiate(models.ActionDefault))
		api.Get("/api/force_auth", h.initiate(models.ActionForceAuth))
		api.Get("/api/oauth", h.handleCallback)
	})
}
