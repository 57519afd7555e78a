package session

import (
	"time"

	"relay/internal/oauth/models"
)

// Session is the server-side state behind a browser's session cookie.
// Keys mirror what the relay binds after a completed flow.
type Session struct {
	ID        string    `json:"-"`
	State     string    `json:"state,omitempty"`
	Scopes    string    `json:"scopes,omitempty"`
	TokenType string    `json:"token_type,omitempty"`
	Token     string    `json:"token,omitempty"`
	UserEmail string    `json:"email,omitempty"`
	UID       string    `json:"uid,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// StateNonce returns the nonce stored at initiation, or "".
func (s *Session) StateNonce() string {
	return s.State
}

// Email returns the identity bound to the session, or "".
func (s *Session) Email() string {
	return s.UserEmail
}

// InvalidateStateNonce clears the stored nonce once its flow has been verified.
func (s *Session) InvalidateStateNonce() {
	s.State = ""
}

// SetStateNonce records the nonce of a newly initiated flow, replacing any earlier one.
func (s *Session) SetStateNonce(nonce string) {
	s.State = nonce
}

// BindIdentity stores the granted token and the profile of a completed flow.
func (s *Session) BindIdentity(token models.TokenExchangeResponse, profile models.Profile) {
	s.Scopes = token.ScopeString()
	s.TokenType = token.TokenType
	s.Token = token.AccessToken
	s.UserEmail = profile.Email
	s.UID = profile.UID
}
