package models

import (
	"strings"
)

// Action selects which identity-provider screen the browser lands on.
type Action string

const (
	ActionSignIn    Action = "signin"
	ActionSignUp    Action = "signup"
	ActionForceAuth Action = "force_auth"
	// ActionDefault lets the provider pick the best screen; it is omitted on the wire.
	ActionDefault Action = ""
)

// IsValid reports whether a is one of the known actions.
func (a Action) IsValid() bool {
	switch a {
	case ActionSignIn, ActionSignUp, ActionForceAuth, ActionDefault:
		return true
	}
	return false
}

// InitiateRequest is the input of flow initiation.
type InitiateRequest struct {
	Action Action
	// Email is the hint for force_auth; ignored for every other action.
	Email string
}

// ClientSettings is the slice of configuration echoed back to the browser.
type ClientSettings struct {
	ClientID    string
	RedirectURI string
	OAuthURI    string
	ContentURI  string
}

// FlowInitiationResponse tells the browser how to start the provider round-trip.
// Build it with NewFlowInitiationResponse; it is never mutated afterwards.
type FlowInitiationResponse struct {
	State       string  `json:"state"`
	Action      *string `json:"action"`
	ClientID    string  `json:"client_id"`
	Email       *string `json:"email"`
	RedirectURI string  `json:"redirect_uri"`
	OAuthURI    string  `json:"oauth_uri"`
	ContentURI  string  `json:"content_uri"`
}

// NewFlowInitiationResponse returns a fully populated initiation response.
func NewFlowInitiationResponse(state string, req InitiateRequest, client ClientSettings) FlowInitiationResponse {
	resp := FlowInitiationResponse{
		State:       state,
		ClientID:    client.ClientID,
		RedirectURI: client.RedirectURI,
		OAuthURI:    client.OAuthURI,
		ContentURI:  client.ContentURI,
	}
	if req.Action != ActionDefault {
		action := string(req.Action)
		resp.Action = &action
	}
	if req.Action == ActionForceAuth && req.Email != "" {
		email := req.Email
		resp.Email = &email
	}
	return resp
}

// CallbackRequest is what the identity provider sends back through the browser.
type CallbackRequest struct {
	State string
	Code  string
	Error string
}

// HasError reports whether the provider reported an error. An error wins over a code.
func (r CallbackRequest) HasError() bool {
	return r.Error != ""
}

// TokenExchangeRequest is POSTed as JSON to the provider token endpoint.
type TokenExchangeRequest struct {
	Code         string `json:"code"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

// TokenExchangeResponse carries credential material and must never be logged.
type TokenExchangeResponse struct {
	Scopes      []string `json:"scopes"`
	TokenType   string   `json:"token_type"`
	AccessToken string   `json:"access_token"`
}

// ScopeString joins the granted scopes the way they are stored in the session.
func (t TokenExchangeResponse) ScopeString() string {
	return strings.Join(t.Scopes, " ")
}

// Profile is the authenticated user's profile.
type Profile struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
}
