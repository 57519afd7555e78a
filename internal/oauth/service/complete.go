package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"relay/internal/oauth/models"
	dErrors "relay/pkg/domain-errors"
)

// Complete runs the callback sequence: verify, consume, exchange the code,
// fetch the profile. Upstream failures are returned, never retried.
//
// embedded reports whether the flow was started from an iframe.
func (s *Service) Complete(ctx context.Context, req models.CallbackRequest, sess Session, embedded bool) (*models.Completion, error) {
	// A provider error also covers a flow finished in another browser.
	if req.HasError() {
		s.logger.WarnContext(ctx, "identity provider reported an error", "provider_error", req.Error)
		s.metrics.IncrementOutcome(string(models.OutcomeAbandoned))
		return &models.Completion{Outcome: models.OutcomeAbandoned, Redirect: models.RedirectIncomplete}, nil
	}

	if !s.verifyAndConsume(ctx, req, sess) {
		if sess.Email() != "" {
			s.logger.InfoContext(ctx, "state mismatch on authenticated session, treating as resubmission")
			s.metrics.IncrementOutcome(string(models.OutcomeAlreadyAuthenticated))
			return &models.Completion{Outcome: models.OutcomeAlreadyAuthenticated, Redirect: models.RedirectHome}, nil
		}
		s.logger.WarnContext(ctx, "rejected callback with unknown or mismatched state")
		s.metrics.IncrementOutcome(string(models.OutcomeRejected))
		return nil, dErrors.New(dErrors.CodeBadRequest, "state does not match a pending authorization")
	}
	sess.InvalidateStateNonce()

	token, err := s.exchangeCode(ctx, req.Code)
	if err != nil {
		s.metrics.IncrementOutcome(string(models.OutcomeFailed))
		return nil, err
	}

	profile, err := s.fetchProfile(ctx, *token)
	if err != nil {
		s.metrics.IncrementOutcome(string(models.OutcomeFailed))
		return nil, err
	}

	redirect := models.RedirectHome
	if embedded {
		redirect = models.RedirectEmbedded
	}
	s.metrics.IncrementOutcome(string(models.OutcomeCompleted))
	s.logger.InfoContext(ctx, "authorization flow completed", "uid", profile.UID, "embedded", embedded)

	return &models.Completion{
		Outcome:  models.OutcomeCompleted,
		Redirect: redirect,
		Token:    token,
		Profile:  profile,
	}, nil
}

// verifyAndConsume requires a code, a state equal to the session nonce, and a
// pending registry entry. The registry entry is consumed only when the other
// checks pass; Consume itself settles concurrent resubmissions.
func (s *Service) verifyAndConsume(ctx context.Context, req models.CallbackRequest, sess Session) bool {
	if req.Code == "" || req.State == "" {
		return false
	}
	stored := sess.StateNonce()
	if stored == "" || subtle.ConstantTimeCompare([]byte(stored), []byte(req.State)) != 1 {
		return false
	}
	return s.nonces.Consume(ctx, req.State)
}

func (s *Service) exchangeCode(ctx context.Context, code string) (*models.TokenExchangeResponse, error) {
	ctx, span := s.tracer.Start(ctx, "oauth.token_exchange")
	defer span.End()

	start := time.Now()
	token, err := s.tokens.Exchange(ctx, models.TokenExchangeRequest{
		Code:         code,
		ClientID:     s.cfg.Client.ClientID,
		ClientSecret: s.cfg.ClientSecret,
	})
	s.metrics.ObserveUpstream(models.EndpointToken, start, err)
	if err != nil {
		recordSpanError(span, err)
		s.logger.ErrorContext(ctx, "token exchange failed", "error", err)
		return nil, upstreamFailure(err, "token exchange failed")
	}
	return token, nil
}

func (s *Service) fetchProfile(ctx context.Context, token models.TokenExchangeResponse) (*models.Profile, error) {
	ctx, span := s.tracer.Start(ctx, "oauth.profile_fetch")
	defer span.End()

	start := time.Now()
	profile, err := s.profiles.FetchProfile(ctx, token)
	s.metrics.ObserveUpstream(models.EndpointProfile, start, err)
	if err != nil {
		recordSpanError(span, err)
		s.logger.ErrorContext(ctx, "profile fetch failed", "error", err)
		return nil, upstreamFailure(err, "profile fetch failed")
	}
	return profile, nil
}

// upstreamFailure keeps typed upstream errors intact and codes everything else as a bad gateway.
func upstreamFailure(err error, msg string) error {
	var upstream *models.UpstreamError
	if errors.As(err, &upstream) || dErrors.HasCode(err) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeBadGateway, msg)
}

func recordSpanError(span trace.Span, err error) {
	var upstream *models.UpstreamError
	if errors.As(err, &upstream) {
		span.SetAttributes(attribute.Int("http.response.status_code", upstream.StatusCode))
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
