package service

import (
	"context"
	"net/mail"

	"relay/internal/oauth/models"
	dErrors "relay/pkg/domain-errors"
)

// Initiate issues a fresh nonce and returns what the browser needs to start the
// provider round-trip. Every call is independent; no network calls are made.
func (s *Service) Initiate(ctx context.Context, req models.InitiateRequest) (*models.FlowInitiationResponse, error) {
	if err := validateInitiate(req); err != nil {
		return nil, err
	}

	state, err := s.nonces.Issue(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to issue state nonce", "error", err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue state")
	}

	s.metrics.IncrementInitiated(string(req.Action))
	s.logger.DebugContext(ctx, "authorization flow initiated", "action", string(req.Action))

	resp := models.NewFlowInitiationResponse(state, req, s.cfg.Client)
	return &resp, nil
}

func validateInitiate(req models.InitiateRequest) error {
	if !req.Action.IsValid() {
		return dErrors.New(dErrors.CodeBadRequest, "unknown action")
	}
	if req.Action != models.ActionForceAuth {
		return nil
	}
	if req.Email == "" {
		return dErrors.New(dErrors.CodeValidation, "email is required for force_auth")
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return dErrors.New(dErrors.CodeValidation, "invalid email")
	}
	return nil
}
