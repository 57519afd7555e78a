package models

import "fmt"

// Upstream endpoints, used in errors, spans and metrics.
const (
	EndpointToken   = "token"
	EndpointProfile = "profile"
)

// UpstreamError is a non-success response from the identity provider or the
// profile endpoint. Body is the raw response body, kept for diagnostics.
type UpstreamError struct {
	Endpoint   string
	StatusCode int
	Body       []byte
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s endpoint returned status %d", e.Endpoint, e.StatusCode)
}
