package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/mock/gomock"

	"relay/internal/oauth/models"
	"relay/internal/oauth/service/mocks"
	dErrors "relay/pkg/domain-errors"
)

var (
	grantedToken = &models.TokenExchangeResponse{
		Scopes:      []string{"profile"},
		TokenType:   "Bearer",
		AccessToken: "abc",
	}
	userProfile = &models.Profile{UID: "u1", Email: "a@b.com"}
)

// pendingFlow initiates a sign-in and returns its state.
func (s *ServiceSuite) pendingFlow() string {
	resp, err := s.service.Initiate(context.Background(), models.InitiateRequest{Action: models.ActionSignIn})
	s.Require().NoError(err)
	return resp.State
}

func (s *ServiceSuite) session(state, email string) *mocks.MockSession {
	sess := mocks.NewMockSession(s.ctrl)
	sess.EXPECT().StateNonce().Return(state).AnyTimes()
	sess.EXPECT().Email().Return(email).AnyTimes()
	return sess
}

func (s *ServiceSuite) expectUpstreams() {
	s.tokens.EXPECT().
		Exchange(gomock.Any(), models.TokenExchangeRequest{Code: "c1", ClientID: testClient.ClientID, ClientSecret: testClientSecret}).
		Return(grantedToken, nil)
	s.profiles.EXPECT().FetchProfile(gomock.Any(), *grantedToken).Return(userProfile, nil)
}

func (s *ServiceSuite) outcomes(o models.Outcome) float64 {
	return testutil.ToFloat64(s.service.metrics.FlowOutcomes.WithLabelValues(string(o)))
}

func (s *ServiceSuite) TestComplete() {
	ctx := context.Background()

	s.Run("top-level flow completes and consumes the nonce", func() {
		state := s.pendingFlow()
		sess := s.session(state, "")
		sess.EXPECT().InvalidateStateNonce()
		s.expectUpstreams()

		got, err := s.service.Complete(ctx, models.CallbackRequest{State: state, Code: "c1"}, sess, false)
		s.Require().NoError(err)

		s.Equal(models.OutcomeCompleted, got.Outcome)
		s.Equal("/", got.Redirect)
		s.Equal(grantedToken, got.Token)
		s.Equal(userProfile, got.Profile)
		s.Equal("profile", got.Token.ScopeString())
		s.False(s.nonces.Exists(ctx, state))
	})

	s.Run("embedded flow redirects to the iframe", func() {
		state := s.pendingFlow()
		sess := s.session(state, "")
		sess.EXPECT().InvalidateStateNonce()
		s.expectUpstreams()

		got, err := s.service.Complete(ctx, models.CallbackRequest{State: state, Code: "c1"}, sess, true)
		s.Require().NoError(err)
		s.Equal("/iframe", got.Redirect)
	})

	s.Run("provider error abandons the flow and keeps the nonce", func() {
		state := s.pendingFlow()
		sess := mocks.NewMockSession(s.ctrl)
		sess.EXPECT().InvalidateStateNonce().Times(0)

		got, err := s.service.Complete(ctx, models.CallbackRequest{State: state, Error: "access_denied"}, sess, false)
		s.Require().NoError(err)

		s.Equal(models.OutcomeAbandoned, got.Outcome)
		s.Equal("/?oauth_incomplete=true", got.Redirect)
		s.Nil(got.Token)
		s.Nil(got.Profile)
		s.True(s.nonces.Exists(ctx, state))
	})

	s.Run("provider error wins over a code", func() {
		state := s.pendingFlow()
		sess := mocks.NewMockSession(s.ctrl)

		got, err := s.service.Complete(ctx, models.CallbackRequest{State: state, Code: "c1", Error: "access_denied"}, sess, false)
		s.Require().NoError(err)
		s.Equal(models.OutcomeAbandoned, got.Outcome)
		s.True(s.nonces.Exists(ctx, state))
	})

	s.Run("state mismatch on anonymous session is rejected", func() {
		state := s.pendingFlow()
		sess := s.session(state, "")
		before := s.outcomes(models.OutcomeRejected)

		got, err := s.service.Complete(ctx, models.CallbackRequest{State: "forged", Code: "c1"}, sess, false)
		s.Nil(got)
		s.True(dErrors.Is(err, dErrors.CodeBadRequest))
		s.True(s.nonces.Exists(ctx, state))
		s.Equal(before+1, s.outcomes(models.OutcomeRejected))
	})

	s.Run("state mismatch on authenticated session redirects home", func() {
		sess := s.session("", "a@b.com")

		got, err := s.service.Complete(ctx, models.CallbackRequest{State: "replayed", Code: "c1"}, sess, false)
		s.Require().NoError(err)
		s.Equal(models.OutcomeAlreadyAuthenticated, got.Outcome)
		s.Equal("/", got.Redirect)
	})

	s.Run("missing code is a verification failure", func() {
		state := s.pendingFlow()
		sess := s.session(state, "")

		_, err := s.service.Complete(ctx, models.CallbackRequest{State: state}, sess, false)
		s.True(dErrors.Is(err, dErrors.CodeBadRequest))
		s.True(s.nonces.Exists(ctx, state))
	})

	s.Run("missing session nonce is a verification failure", func() {
		state := s.pendingFlow()
		sess := s.session("", "")

		_, err := s.service.Complete(ctx, models.CallbackRequest{State: state, Code: "c1"}, sess, false)
		s.True(dErrors.Is(err, dErrors.CodeBadRequest))
		s.True(s.nonces.Exists(ctx, state))
	})

	s.Run("nonce unknown to the registry is rejected", func() {
		sess := s.session("never-issued", "")

		_, err := s.service.Complete(ctx, models.CallbackRequest{State: "never-issued", Code: "c1"}, sess, false)
		s.True(dErrors.Is(err, dErrors.CodeBadRequest))
	})

	s.Run("second completion of the same flow is rejected", func() {
		state := s.pendingFlow()
		sess := s.session(state, "")
		sess.EXPECT().InvalidateStateNonce()
		s.expectUpstreams()

		_, err := s.service.Complete(ctx, models.CallbackRequest{State: state, Code: "c1"}, sess, false)
		s.Require().NoError(err)

		_, err = s.service.Complete(ctx, models.CallbackRequest{State: state, Code: "c1"}, sess, false)
		s.True(dErrors.Is(err, dErrors.CodeBadRequest))
	})

	s.Run("profile rejection surfaces the upstream body", func() {
		state := s.pendingFlow()
		sess := s.session(state, "")
		sess.EXPECT().InvalidateStateNonce()
		s.tokens.EXPECT().Exchange(gomock.Any(), gomock.Any()).Return(grantedToken, nil)
		s.profiles.EXPECT().FetchProfile(gomock.Any(), gomock.Any()).Return(nil, &models.UpstreamError{
			Endpoint:   models.EndpointProfile,
			StatusCode: 400,
			Body:       []byte(`{"error":"invalid_token"}`),
		})

		got, err := s.service.Complete(ctx, models.CallbackRequest{State: state, Code: "c1"}, sess, false)
		s.Nil(got)

		var upstream *models.UpstreamError
		s.Require().ErrorAs(err, &upstream)
		s.Equal(400, upstream.StatusCode)
		s.JSONEq(`{"error":"invalid_token"}`, string(upstream.Body))
		s.False(s.nonces.Exists(ctx, state))
	})

	s.Run("token transport failure is a bad gateway", func() {
		state := s.pendingFlow()
		sess := s.session(state, "")
		sess.EXPECT().InvalidateStateNonce()
		s.tokens.EXPECT().Exchange(gomock.Any(), gomock.Any()).Return(nil, errors.New("connection refused"))
		s.profiles.EXPECT().FetchProfile(gomock.Any(), gomock.Any()).Times(0)
		before := s.outcomes(models.OutcomeFailed)

		_, err := s.service.Complete(ctx, models.CallbackRequest{State: state, Code: "c1"}, sess, false)
		s.True(dErrors.Is(err, dErrors.CodeBadGateway))
		s.Equal(before+1, s.outcomes(models.OutcomeFailed))
	})
}

func (s *ServiceSuite) TestCompleteConcurrentResubmission() {
	ctx := context.Background()
	state := s.pendingFlow()

	s.tokens.EXPECT().Exchange(gomock.Any(), gomock.Any()).Return(grantedToken, nil).Times(1)
	s.profiles.EXPECT().FetchProfile(gomock.Any(), gomock.Any()).Return(userProfile, nil).Times(1)

	const callers = 16
	var (
		wg        sync.WaitGroup
		completed atomic.Int32
	)
	for range callers {
		sess := s.session(state, "")
		sess.EXPECT().InvalidateStateNonce().MaxTimes(1)
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := s.service.Complete(ctx, models.CallbackRequest{State: state, Code: "c1"}, sess, false)
			if err == nil && got.Outcome == models.OutcomeCompleted {
				completed.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), completed.Load())
}
