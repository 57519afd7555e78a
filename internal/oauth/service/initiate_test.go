package service

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/mock/gomock"

	"relay/internal/oauth/metrics"
	"relay/internal/oauth/models"
	"relay/internal/oauth/service/mocks"
	dErrors "relay/pkg/domain-errors"
)

func (s *ServiceSuite) TestInitiate() {
	ctx := context.Background()

	s.Run("sign-in returns a registered 32 byte nonce", func() {
		resp, err := s.service.Initiate(ctx, models.InitiateRequest{Action: models.ActionSignIn})
		s.Require().NoError(err)

		raw, err := base64.RawURLEncoding.DecodeString(resp.State)
		s.Require().NoError(err)
		s.Len(raw, 32)
		s.True(s.nonces.Exists(ctx, resp.State))

		s.Require().NotNil(resp.Action)
		s.Equal("signin", *resp.Action)
		s.Nil(resp.Email)
		s.Equal(testClient.ClientID, resp.ClientID)
		s.Equal(testClient.RedirectURI, resp.RedirectURI)
		s.Equal(testClient.OAuthURI, resp.OAuthURI)
		s.Equal(testClient.ContentURI, resp.ContentURI)
	})

	s.Run("default action is omitted", func() {
		resp, err := s.service.Initiate(ctx, models.InitiateRequest{Action: models.ActionDefault})
		s.Require().NoError(err)
		s.Nil(resp.Action)
	})

	s.Run("force_auth carries the email hint", func() {
		resp, err := s.service.Initiate(ctx, models.InitiateRequest{Action: models.ActionForceAuth, Email: "a@b.com"})
		s.Require().NoError(err)
		s.Require().NotNil(resp.Action)
		s.Equal("force_auth", *resp.Action)
		s.Require().NotNil(resp.Email)
		s.Equal("a@b.com", *resp.Email)
	})

	s.Run("email is dropped for other actions", func() {
		resp, err := s.service.Initiate(ctx, models.InitiateRequest{Action: models.ActionSignUp, Email: "a@b.com"})
		s.Require().NoError(err)
		s.Nil(resp.Email)
	})

	s.Run("every call issues a distinct nonce", func() {
		before := s.nonces.Len()
		first, err := s.service.Initiate(ctx, models.InitiateRequest{Action: models.ActionSignIn})
		s.Require().NoError(err)
		second, err := s.service.Initiate(ctx, models.InitiateRequest{Action: models.ActionSignIn})
		s.Require().NoError(err)

		s.NotEqual(first.State, second.State)
		s.Equal(before+2, s.nonces.Len())
	})

	s.Run("rejects unknown action", func() {
		before := s.nonces.Len()
		_, err := s.service.Initiate(ctx, models.InitiateRequest{Action: "delete_account"})
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeBadRequest))
		s.Equal(before, s.nonces.Len())
	})

	s.Run("force_auth requires a valid email", func() {
		_, err := s.service.Initiate(ctx, models.InitiateRequest{Action: models.ActionForceAuth})
		s.True(dErrors.Is(err, dErrors.CodeValidation))

		_, err = s.service.Initiate(ctx, models.InitiateRequest{Action: models.ActionForceAuth, Email: "not-an-email"})
		s.True(dErrors.Is(err, dErrors.CodeValidation))
	})

	s.Run("counts initiations by action", func() {
		_, err := s.service.Initiate(ctx, models.InitiateRequest{Action: models.ActionDefault})
		s.Require().NoError(err)
		counter := s.service.metrics.FlowsInitiated.WithLabelValues("default")
		s.GreaterOrEqual(testutil.ToFloat64(counter), float64(1))
	})
}

func (s *ServiceSuite) TestInitiateIssueFailure() {
	registry := mocks.NewMockNonceRegistry(s.ctrl)
	registry.EXPECT().Issue(gomock.Any()).Return("", errors.New("entropy unavailable"))

	svc := New(
		registry,
		s.tokens,
		s.profiles,
		Config{Client: testClient},
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		metrics.New(prometheus.NewRegistry(), nil),
	)

	resp, err := svc.Initiate(context.Background(), models.InitiateRequest{Action: models.ActionSignIn})
	s.Nil(resp)
	s.True(dErrors.Is(err, dErrors.CodeInternal))
}
