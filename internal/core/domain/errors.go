package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input, rejected
	// before any network call.
	ErrInvalidInput = errors.New("invalid input")

	// ErrSyncInProgress indicates a sync is already running for the
	// integration. Syncs for the same integration never run concurrently.
	ErrSyncInProgress = errors.New("sync in progress")

	// Authentication errors. Never retried automatically.

	// ErrAuthFailed indicates the provider rejected the authorization code.
	ErrAuthFailed = errors.New("authentication failed")

	// ErrNoRefreshToken indicates a token refresh was required but no
	// refresh token is stored for the integration.
	ErrNoRefreshToken = errors.New("no refresh token available")

	// ErrTokenRefreshFailed indicates the provider rejected the refresh.
	// Callers decide retry or deactivation policy; the core never flips
	// an integration inactive on its own.
	ErrTokenRefreshFailed = errors.New("token refresh failed")

	// ErrRateLimited indicates the request quota for the current window is
	// exhausted. Callers should back off.
	ErrRateLimited = errors.New("rate limited")

	// ErrProviderUnavailable indicates a network failure, timeout or 5xx
	// from the provider. Retryable by the scheduler on its next cycle.
	ErrProviderUnavailable = errors.New("provider unavailable")
)

// IntegrationError wraps a failure with enough context for observability:
// which integration, provider and endpoint were involved.
type IntegrationError struct {
	IntegrationID int64
	Provider      ProviderType
	Endpoint      string
	Err           error
}

// Error implements the error interface.
func (e *IntegrationError) Error() string {
	return fmt.Sprintf("integration %d (%s, %s): %v", e.IntegrationID, e.Provider, e.Endpoint, e.Err)
}

// Unwrap exposes the underlying sentinel for errors.Is checks.
func (e *IntegrationError) Unwrap() error {
	return e.Err
}

// NewIntegrationError builds an IntegrationError for the given integration.
func NewIntegrationError(integration *Integration, endpoint string, err error) *IntegrationError {
	return &IntegrationError{
		IntegrationID: integration.ID,
		Provider:      integration.Provider,
		Endpoint:      endpoint,
		Err:           err,
	}
}
