package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) and services translate them into coded domain errors:
//   - ErrNotFound: nonce, session or key file does not exist
//   - ErrConflict: a freshly generated value collided with an existing one
//   - ErrAlreadyExists: key material is present and must not be replaced
//   - ErrUnavailable: backing store temporarily unreachable
var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrAlreadyExists = errors.New("already exists")
	ErrUnavailable   = errors.New("unavailable")
)
