package models

// Outcome is the terminal state of a flow instance.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeAbandoned Outcome = "abandoned"
	OutcomeRejected  Outcome = "rejected"
	// OutcomeAlreadyAuthenticated is a state mismatch on a session that already
	// carries an identity; it is treated as a harmless re-submission.
	OutcomeAlreadyAuthenticated Outcome = "already_authenticated"
	// OutcomeFailed means verification passed but the token or profile call
	// failed. The nonce is spent; the caller has to start over.
	OutcomeFailed Outcome = "failed"
)

// Redirect targets.
const (
	RedirectHome       = "/"
	RedirectEmbedded   = "/iframe"
	RedirectIncomplete = "/?oauth_incomplete=true"
)

// Completion is the result of the callback sequence.
// Token and Profile are set only when Outcome is OutcomeCompleted.
type Completion struct {
	Outcome  Outcome
	Redirect string
	Token    *TokenExchangeResponse
	Profile  *Profile
}
