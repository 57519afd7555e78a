package handler

import (
	"net/http"

	"relay/internal/oauth/models"
	"relay/internal/platform/middleware"
	dErrors "relay/pkg/domain-errors"
	"relay/pkg/platform/httputil"
)

// initiate starts a flow for action and remembers its nonce in the caller's session.
func (h *Handler) initiate(action models.Action) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := middleware.GetRequestID(ctx)

		req := models.InitiateRequest{Action: action}
		if action == models.ActionForceAuth {
			req.Email = r.URL.Query().Get("email")
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

		resp, err := h.flow.Initiate(ctx, req)
		if err != nil {
			if dErrors.Is(err, dErrors.CodeInternal) || !dErrors.HasCode(err) {
				h.logger.ErrorContext(ctx, "failed to initiate flow",
					"request_id", requestID,
					"error", err.Error(),
				)
			} else {
				h.logger.WarnContext(ctx, "invalid initiation request",
					"request_id", requestID,
					"action", string(action),
					"error", err.Error(),
				)
			}
			httputil.WriteError(w, err)
			return
		}

		sess.SetStateNonce(resp.State)
		if err := h.sessions.Save(w, r, sess); err != nil {
			h.logger.ErrorContext(ctx, "failed to save session",
				"request_id", requestID,
				"error", err.Error(),
			)
			httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "session unavailable"))
			return
		}

		httputil.WriteJSON(w, http.StatusOK, resp)
	}
}
