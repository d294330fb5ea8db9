package ai

import (
	"errors"
	"fmt"
)

// Sentinel and typed errors for completion failures. Callers branch on these
// to pick an HTTP status and a user-facing message; this layer never retries.
var (
	// ErrNoCredential means no API key is configured. It is returned before
	// any network traffic happens.
	ErrNoCredential = errors.New("ai: no api key configured")

	// ErrInvalidCredential means the provider rejected the configured key.
	ErrInvalidCredential = errors.New("ai: api key rejected")

	// ErrRateLimited means the provider throttled the request.
	ErrRateLimited = errors.New("ai: rate limited")

	// ErrMalformedResponse means the provider answered 2xx but the body had
	// no usable completion text.
	ErrMalformedResponse = errors.New("ai: malformed completion response")
)

// TransportError wraps a network-level failure reaching the provider.
type TransportError struct {
	Cause error
}

func (e *TransportError) Error() string {
	return "ai: transport failure: " + e.Cause.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Cause
}

// ServiceError is a non-2xx provider reply outside the credential and rate
// limit cases.
type ServiceError struct {
	Status  int
	Message string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("ai: provider error (%d): %s", e.Status, e.Message)
}
