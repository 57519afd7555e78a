package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"relay/internal/oauth/handler/mocks"
	"relay/internal/oauth/models"
	"relay/internal/oauth/service"
	"relay/internal/platform/metrics"
	"relay/internal/session"
	"relay/internal/session/store"
	dErrors "relay/pkg/domain-errors"
	"relay/pkg/testutil"
)

type HandlerSuite struct {
	suite.Suite
	ctrl        *gomock.Controller
	mockService *mocks.MockService
	mockIssuer  *mocks.MockSessionTokenIssuer
	sessions    *store.InMemorySessionStore
	router      chi.Router
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockService = mocks.NewMockService(s.ctrl)
	s.mockIssuer = mocks.NewMockSessionTokenIssuer(s.ctrl)
	s.sessions = store.NewMemory()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	codec, err := session.NewCookieCodec("s3cret", session.CookieOptions{Path: "/api"})
	s.Require().NoError(err)

	h := New(
		s.mockService,
		session.NewManager(s.sessions, codec, time.Hour, logger),
		s.mockIssuer,
		logger,
		metrics.New(prometheus.NewRegistry()),
		Config{SessionTokenTTL: time.Hour, Cookie: session.CookieOptions{Path: "/api"}},
	)
	s.router = chi.NewRouter()
	h.Register(s.router)
}

func (s *HandlerSuite) TearDownTest() {
	s.ctrl.Finish()
}

func initiation(state string, action models.Action) *models.FlowInitiationResponse {
	resp := models.NewFlowInitiationResponse(state, models.InitiateRequest{Action: action}, models.ClientSettings{
		ClientID:    "client-123",
		RedirectURI: "https://relay.example.com/api/oauth",
		OAuthURI:    "https://idp.example.com/v1",
		ContentURI:  "https://accounts.example.com",
	})
	return &resp
}

// login runs /api/login and returns the recorder carrying the session cookie.
func (s *HandlerSuite) login(state string) *httptest.ResponseRecorder {
	s.mockService.EXPECT().
		Initiate(gomock.Any(), models.InitiateRequest{Action: models.ActionSignIn}).
		Return(initiation(state, models.ActionSignIn), nil)
	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/api/login"))
	s.Require().Equal(http.StatusOK, rr.Code)
	return rr
}

func (s *HandlerSuite) callback(query string, prev *httptest.ResponseRecorder, referers ...string) *httptest.ResponseRecorder {
	req := testutil.NewRequest(s.T(), http.MethodGet, "/api/oauth?"+query)
	if prev != nil {
		req = testutil.WithCookiesFrom(req, prev)
	}
	req = testutil.WithReferer(req, referers...)
	return testutil.DoRequest(s.router, req)
}

func (s *HandlerSuite) TestInitiation() {
	s.Run("login returns the flow settings and stores the nonce", func() {
		rr := s.login("nonce-1")

		var body map[string]any
		s.Require().NoError(json.Unmarshal(rr.Body.Bytes(), &body))
		s.Equal("nonce-1", body["state"])
		s.Equal("signin", body["action"])
		s.Equal("client-123", body["client_id"])
		s.Nil(body["email"])

		cookies := rr.Result().Cookies()
		s.Require().Len(cookies, 1)
		s.Equal(session.CookieName, cookies[0].Name)
		s.True(cookies[0].HttpOnly)
	})

	s.Run("each entry point selects its action", func() {
		for path, action := range map[string]models.Action{
			"/api/signup":      models.ActionSignUp,
			"/api/best_choice": models.ActionDefault,
		} {
			s.mockService.EXPECT().
				Initiate(gomock.Any(), models.InitiateRequest{Action: action}).
				Return(initiation("n", action), nil)
			rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, path))
			s.Equal(http.StatusOK, rr.Code, path)
		}
	})

	s.Run("force_auth forwards the email hint", func() {
		s.mockService.EXPECT().
			Initiate(gomock.Any(), models.InitiateRequest{Action: models.ActionForceAuth, Email: "a@b.com"}).
			Return(initiation("n", models.ActionForceAuth), nil)
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/api/force_auth?email=a@b.com"))
		s.Equal(http.StatusOK, rr.Code)
	})

	s.Run("validation errors are 400", func() {
		s.mockService.EXPECT().
			Initiate(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeValidation, "email is required for force_auth"))
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/api/force_auth"))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")
	})

	s.Run("internal errors hide their description", func() {
		s.mockService.EXPECT().
			Initiate(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeInternal, "failed to issue state"))
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/api/login"))
		s.Equal(http.StatusInternalServerError, rr.Code)
		errBody := testutil.UnmarshalErrorResponse(s.T(), rr)
		s.Equal("internal_error", errBody["error"])
		s.Empty(errBody["error_description"])
	})
}

func (s *HandlerSuite) TestCallbackCompleted() {
	s.Run("binds the identity and redirects home", func() {
		prev := s.login("nonce-1")
		s.mockService.EXPECT().
			Complete(gomock.Any(), models.CallbackRequest{State: "nonce-1", Code: "c1"}, gomock.Any(), false).
			DoAndReturn(func(_ context.Context, _ models.CallbackRequest, sess service.Session, _ bool) (*models.Completion, error) {
				s.Equal("nonce-1", sess.StateNonce())
				sess.InvalidateStateNonce()
				return &models.Completion{
					Outcome:  models.OutcomeCompleted,
					Redirect: models.RedirectHome,
					Token:    &models.TokenExchangeResponse{Scopes: []string{"profile"}, TokenType: "Bearer", AccessToken: "abc"},
					Profile:  &models.Profile{UID: "u1", Email: "a@b.com"},
				}, nil
			})
		s.mockIssuer.EXPECT().
			GenerateSessionToken("u1", "a@b.com", gomock.Any(), "profile", time.Hour).
			Return("signed.jwt.value", nil)

		rr := s.callback("state=nonce-1&code=c1", prev, "https://app.example.com/")

		s.Equal(http.StatusSeeOther, rr.Code)
		s.Equal("/", rr.Header().Get("Location"))

		var token *http.Cookie
		for _, c := range rr.Result().Cookies() {
			if c.Name == SessionTokenCookie {
				token = c
			}
		}
		s.Require().NotNil(token)
		s.Equal("signed.jwt.value", token.Value)

		next := testutil.WithCookiesFrom(testutil.NewRequest(s.T(), http.MethodGet, "/api/login"), prev)
		id, ok := s.sessionID(next)
		s.Require().True(ok)
		stored, err := s.sessions.Get(context.Background(), id)
		s.Require().NoError(err)
		s.Equal("a@b.com", stored.Email())
		s.Equal("u1", stored.UID)
		s.Equal("profile", stored.Scopes)
		s.Equal("Bearer", stored.TokenType)
		s.Equal("abc", stored.Token)
		s.Empty(stored.StateNonce())
	})

	s.Run("iframe referer marks the flow embedded", func() {
		prev := s.login("nonce-2")
		s.mockService.EXPECT().
			Complete(gomock.Any(), gomock.Any(), gomock.Any(), true).
			Return(&models.Completion{
				Outcome:  models.OutcomeCompleted,
				Redirect: models.RedirectEmbedded,
				Token:    &models.TokenExchangeResponse{TokenType: "Bearer", AccessToken: "abc"},
				Profile:  &models.Profile{UID: "u1", Email: "a@b.com"},
			}, nil)
		s.mockIssuer.EXPECT().GenerateSessionToken(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return("t", nil)

		rr := s.callback("state=nonce-2&code=c1", prev, "https://app.example.com/iframe?x=1")
		s.Equal(http.StatusSeeOther, rr.Code)
		s.Equal("/iframe", rr.Header().Get("Location"))
	})
}

func (s *HandlerSuite) TestCallbackFailures() {
	s.Run("more than one referer is refused", func() {
		s.mockService.EXPECT().Complete(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
		rr := s.callback("state=n&code=c1", nil, "https://a.example.com/", "https://b.example.com/iframe")
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
	})

	s.Run("missing state is refused", func() {
		s.mockService.EXPECT().Complete(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
		rr := s.callback("code=c1", nil)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
	})

	s.Run("provider error redirects to the incomplete landing", func() {
		s.mockService.EXPECT().
			Complete(gomock.Any(), models.CallbackRequest{Error: "access_denied"}, gomock.Any(), false).
			Return(&models.Completion{Outcome: models.OutcomeAbandoned, Redirect: models.RedirectIncomplete}, nil)

		rr := s.callback("error=access_denied", nil)
		s.Equal(http.StatusSeeOther, rr.Code)
		s.Equal("/?oauth_incomplete=true", rr.Header().Get("Location"))
		s.Empty(rr.Result().Cookies())
	})

	s.Run("rejected state is a 400", func() {
		s.mockService.EXPECT().
			Complete(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeBadRequest, "state does not match a pending authorization"))

		rr := s.callback("state=forged&code=c1", nil)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
	})

	s.Run("upstream refusal exposes the provider body", func() {
		prev := s.login("nonce-3")
		s.mockService.EXPECT().
			Complete(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ models.CallbackRequest, sess service.Session, _ bool) (*models.Completion, error) {
				sess.InvalidateStateNonce()
				return nil, &models.UpstreamError{
					Endpoint:   models.EndpointProfile,
					StatusCode: http.StatusBadRequest,
					Body:       []byte(`{"error":"invalid_token"}`),
				}
			})

		rr := s.callback("state=nonce-3&code=c1", prev)
		s.Equal(http.StatusBadGateway, rr.Code)

		var body struct {
			Error          string          `json:"error"`
			UpstreamStatus int             `json:"upstream_status"`
			UpstreamBody   json.RawMessage `json:"upstream_body"`
		}
		s.Require().NoError(json.Unmarshal(rr.Body.Bytes(), &body))
		s.Equal("upstream_error", body.Error)
		s.Equal(http.StatusBadRequest, body.UpstreamStatus)
		s.JSONEq(`{"error":"invalid_token"}`, string(body.UpstreamBody))

		id, ok := s.sessionID(testutil.WithCookiesFrom(testutil.NewRequest(s.T(), http.MethodGet, "/"), prev))
		s.Require().True(ok)
		stored, err := s.sessions.Get(context.Background(), id)
		s.Require().NoError(err)
		s.Empty(stored.StateNonce())
	})

	s.Run("session token failure still completes the sign-in", func() {
		prev := s.login("nonce-4")
		s.mockService.EXPECT().
			Complete(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(&models.Completion{
				Outcome:  models.OutcomeCompleted,
				Redirect: models.RedirectHome,
				Token:    &models.TokenExchangeResponse{TokenType: "Bearer", AccessToken: "abc"},
				Profile:  &models.Profile{UID: "u1", Email: "a@b.com"},
			}, nil)
		s.mockIssuer.EXPECT().
			GenerateSessionToken(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return("", dErrors.New(dErrors.CodeInternal, "signing failed"))

		rr := s.callback("state=nonce-4&code=c1", prev)
		s.Equal(http.StatusSeeOther, rr.Code)
		for _, c := range rr.Result().Cookies() {
			s.NotEqual(SessionTokenCookie, c.Name)
		}
	})
}

func (s *HandlerSuite) sessionID(r *http.Request) (string, bool) {
	codec, err := session.NewCookieCodec("s3cret", session.CookieOptions{})
	s.Require().NoError(err)
	return codec.ID(r)
}
