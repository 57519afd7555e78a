package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	httpapi "relay/internal/http"
	jwttoken "relay/internal/jwt_token"
	"relay/internal/keys"
	keysHandler "relay/internal/keys/handler"
	"relay/internal/oauth/adapters"
	oauthHandler "relay/internal/oauth/handler"
	oauthMetrics "relay/internal/oauth/metrics"
	"relay/internal/oauth/models"
	"relay/internal/oauth/service"
	"relay/internal/oauth/store/nonce"
	"relay/internal/platform/config"
	"relay/internal/platform/httpserver"
	"relay/internal/platform/logger"
	"relay/internal/platform/metrics"
	"relay/internal/platform/redis"
	"relay/internal/session"
	sessionStore "relay/internal/session/store"
)

const shutdownTimeout = 10 * time.Second

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal packages.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Server.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("relay stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	publicKey, err := keys.LoadPublic(cfg.Keys.PublicKeyPath)
	if err != nil {
		return err
	}
	keyHandler, err := keysHandler.New(publicKey, log)
	if err != nil {
		return fmt.Errorf("publish public key: %w", err)
	}
	issuer := sessionTokenIssuer(cfg, publicKey, log)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	nonces := nonce.New()
	idp := adapters.NewIdentityProviderClient(
		cfg.Client.OAuthURI,
		cfg.Client.ProfileURI,
		&http.Client{Timeout: cfg.Server.UpstreamTimeout},
	)
	flow := service.New(nonces, idp, idp, service.Config{
		Client: models.ClientSettings{
			ClientID:    cfg.Client.ClientID,
			RedirectURI: cfg.Client.RedirectURI,
			OAuthURI:    cfg.Client.OAuthURI,
			ContentURI:  cfg.Client.ContentURI,
		},
		ClientSecret: cfg.Client.ClientSecret,
	}, log, oauthMetrics.New(reg, nonces.Len))

	cookieOpts := session.CookieOptions{
		Domain: cfg.Session.CookieDomain,
		Path:   cfg.Session.CookiePath,
		Secure: cfg.Session.CookieSecure,
		MaxAge: cfg.Session.TTL,
	}
	codec, err := session.NewCookieCodec(cfg.Client.ClientSecret, cookieOpts)
	if err != nil {
		return err
	}

	checks := map[string]httpapi.HealthChecker{}
	var store session.Store = sessionStore.NewMemory()
	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		store = sessionStore.NewRedis(redisClient.Client)
		checks["redis"] = redisClient
		log.Info("sessions stored in redis")
	}

	requestTimeout := 2*cfg.Server.UpstreamTimeout + 5*time.Second
	var tokenIssuer oauthHandler.SessionTokenIssuer
	if issuer != nil {
		tokenIssuer = issuer
	}
	oauth := oauthHandler.New(
		flow,
		session.NewManager(store, codec, cfg.Session.TTL, log),
		tokenIssuer,
		log,
		metrics.New(reg),
		oauthHandler.Config{
			RequestTimeout:  requestTimeout,
			SessionTokenTTL: cfg.Keys.SessionTokenTTL,
			Cookie:          cookieOpts,
		},
	)

	router := httpapi.NewRouter(log, reg, checks, oauth, keyHandler)
	srv := httpserver.New(cfg.Server.Addr, router, requestTimeout+5*time.Second)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting relay", "addr", cfg.Server.Addr, "kid", publicKey.Kid)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info("shutting down relay")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	})
	return g.Wait()
}

// sessionTokenIssuer loads the secret key for session assertions. The relay
// still serves sign-ins without it; only the relay_session cookie is skipped.
func sessionTokenIssuer(cfg config.Config, publicKey *keys.PublicKey, log *slog.Logger) *jwttoken.JWTService {
	secretKey, err := keys.LoadSecret(cfg.Keys.SecretKeyPath)
	if err != nil {
		log.Warn("secret key unavailable, session assertions disabled", "error", err)
		return nil
	}
	if !secretKey.Matches(publicKey) {
		log.Warn("secret key does not match the published public key, session assertions disabled")
		return nil
	}
	signingKey, err := secretKey.RSA()
	if err != nil {
		log.Warn("secret key unusable, session assertions disabled", "error", err)
		return nil
	}
	issuer := cfg.Keys.Issuer
	if issuer == "" {
		issuer = cfg.Client.RedirectURI
	}
	return jwttoken.NewJWTService(signingKey, publicKey.Kid, issuer, cfg.Client.ClientID)
}
