package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"relay/internal/oauth/models"
	"relay/internal/platform/middleware"
	"relay/internal/session"
	dErrors "relay/pkg/domain-errors"
	"relay/pkg/platform/httputil"
)

// SessionTokenCookie holds the signed session assertion for downstream services.
const SessionTokenCookie = "relay_session"

// UpstreamErrorResponse is returned when the identity provider or profile
// service refuses a request. UpstreamBody is the provider's body, verbatim
// when it is JSON.
type UpstreamErrorResponse struct {
	httputil.ErrorResponse
	UpstreamStatus int `json:"upstream_status"`
	UpstreamBody   any `json:"upstream_body,omitempty"`
}

func (h *Handler) handleCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	embedded, ok := embeddedReferer(r)
	if !ok {
		h.logger.WarnContext(ctx, "callback carried more than one referer", "request_id", requestID)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "ambiguous referer"))
		return
	}

	q := r.URL.Query()
	req := models.CallbackRequest{
		State: q.Get("state"),
		Code:  q.Get("code"),
		Error: q.Get("error"),
	}
	if !req.HasError() && req.State == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "missing state"))
		return
	}

	sess, err := h.sessions.Load(r)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to load session",
			"request_id", requestID,
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "session unavailable"))
		return
	}
	pendingNonce := sess.StateNonce()

	completion, err := h.flow.Complete(ctx, req, sess, embedded)
	if err != nil {
		if sess.StateNonce() != pendingNonce {
			// The nonce is spent even though the flow failed.
			h.saveBestEffort(w, r, sess)
		}
		h.writeCallbackError(w, r, err)
		return
	}

	if completion.Outcome == models.OutcomeCompleted {
		sess.BindIdentity(*completion.Token, *completion.Profile)
		if err := h.sessions.Save(w, r, sess); err != nil {
			h.logger.ErrorContext(ctx, "failed to save session",
				"request_id", requestID,
				"error", err.Error(),
			)
			httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "session unavailable"))
			return
		}
		h.setSessionToken(w, r, sess)
	}

	http.Redirect(w, r, completion.Redirect, http.StatusSeeOther)
}

// embeddedReferer reports whether the single Referer header points at the
// iframe entry point. A missing Referer is a top-level flow; several are refused.
func embeddedReferer(r *http.Request) (embedded, ok bool) {
	referers := r.Header.Values("Referer")
	switch len(referers) {
	case 0:
		return false, true
	case 1:
		return strings.Contains(referers[0], "/iframe"), true
	default:
		return false, false
	}
}

func (h *Handler) writeCallbackError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	var upstream *models.UpstreamError
	if errors.As(err, &upstream) {
		h.logger.WarnContext(ctx, "upstream refused the flow",
			"request_id", requestID,
			"endpoint", upstream.Endpoint,
			"upstream_status", upstream.StatusCode,
		)
		httputil.WriteJSON(w, http.StatusBadGateway, UpstreamErrorResponse{
			ErrorResponse: httputil.ErrorResponse{
				Error:            string(dErrors.CodeBadGateway),
				ErrorDescription: upstream.Error(),
			},
			UpstreamStatus: upstream.StatusCode,
			UpstreamBody:   rawBody(upstream.Body),
		})
		return
	}

	if dErrors.Is(err, dErrors.CodeBadRequest) {
		h.logger.WarnContext(ctx, "rejected callback", "request_id", requestID, "error", err.Error())
	} else {
		h.logger.ErrorContext(ctx, "callback failed", "request_id", requestID, "error", err.Error())
	}
	httputil.WriteError(w, err)
}

func (h *Handler) setSessionToken(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	if h.issuer == nil {
		return
	}
	token, err := h.issuer.GenerateSessionToken(sess.UID, sess.Email(), sess.ID, sess.Scopes, h.cfg.SessionTokenTTL)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to mint session token",
			"request_id", middleware.GetRequestID(r.Context()),
			"error", err.Error(),
		)
		return
	}
	path := h.cfg.Cookie.Path
	if path == "" {
		path = "/"
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionTokenCookie,
		Value:    token,
		Domain:   h.cfg.Cookie.Domain,
		Path:     path,
		MaxAge:   int(h.cfg.SessionTokenTTL.Seconds()),
		Secure:   h.cfg.Cookie.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) saveBestEffort(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	if err := h.sessions.Save(w, r, sess); err != nil {
		h.logger.WarnContext(r.Context(), "failed to persist spent nonce",
			"request_id", middleware.GetRequestID(r.Context()),
			"error", err.Error(),
		)
	}
}

func rawBody(body []byte) any {
	if len(body) == 0 {
		return nil
	}
	if json.Valid(body) {
		return json.RawMessage(body)
	}
	return string(body)
}
