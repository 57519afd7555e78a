package service

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"relay/internal/oauth/metrics"
	"relay/internal/oauth/models"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks NonceRegistry,TokenExchanger,ProfileFetcher,Session

// NonceRegistry tracks state values of pending flows.
type NonceRegistry interface {
	Issue(ctx context.Context) (string, error)
	Exists(ctx context.Context, nonce string) bool
	Consume(ctx context.Context, nonce string) bool
}

// TokenExchanger trades an authorization code for an access token at the identity provider.
type TokenExchanger interface {
	Exchange(ctx context.Context, req models.TokenExchangeRequest) (*models.TokenExchangeResponse, error)
}

// ProfileFetcher loads the authenticated user's profile with an access token.
type ProfileFetcher interface {
	FetchProfile(ctx context.Context, token models.TokenExchangeResponse) (*models.Profile, error)
}

// Session is the caller's browser session as seen by the flow.
type Session interface {
	// StateNonce is the nonce stored at initiation, or "" when none is stored.
	StateNonce() string
	// Email is the identity already bound to the session, or "".
	Email() string
	InvalidateStateNonce()
}

// Config is the client registration used by both flow phases.
type Config struct {
	Client       models.ClientSettings
	ClientSecret string
}

// Service drives the two-phase authorization code flow. It holds no flow
// state of its own; pending flows live in the NonceRegistry.
type Service struct {
	nonces   NonceRegistry
	tokens   TokenExchanger
	profiles ProfileFetcher
	cfg      Config
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
}

// New wires the flow service.
func New(
	nonces NonceRegistry,
	tokens TokenExchanger,
	profiles ProfileFetcher,
	cfg Config,
	logger *slog.Logger,
	metrics *metrics.Metrics,
) *Service {
	return &Service{
		nonces:   nonces,
		tokens:   tokens,
		profiles: profiles,
		cfg:      cfg,
		logger:   logger,
		metrics:  metrics,
		tracer:   otel.Tracer("relay/internal/oauth/service"),
	}
}
