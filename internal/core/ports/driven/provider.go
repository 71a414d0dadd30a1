package driven

import (
	"context"
	"time"

	"github.com/skedi/calendar-sync/internal/core/domain"
)

// ProviderAdapter is the per-provider strategy the core depends on.
// One implementation exists per provider (Google Calendar, Google Meet,
// Outlook Calendar); the Authenticator and sync engine hold a
// ProviderAdapter reference and never reach the wire themselves.
//
// Every method performing a network call must honour context cancellation
// and carry a bounded timeout. Network failures, timeouts and 5xx
// responses surface as domain.ErrProviderUnavailable.
type ProviderAdapter interface {
	// Type returns the provider this adapter serves.
	Type() domain.ProviderType

	// BuildAuthURL constructs the OAuth authorization URL. Pure.
	BuildAuthURL(cfg domain.OAuthAppConfig, state string) string

	// ExchangeCode exchanges an authorization code for tokens.
	// Provider error payloads surface as domain.ErrAuthFailed.
	ExchangeCode(ctx context.Context, cfg domain.OAuthAppConfig, code string) (*domain.OAuthToken, error)

	// RefreshToken obtains a new access token using a refresh token.
	// The returned RefreshToken is empty when the provider did not rotate it.
	RefreshToken(ctx context.Context, cfg domain.OAuthAppConfig, refreshToken string) (*domain.OAuthToken, error)

	// GetUserInfo fetches the account identity for an access token.
	GetUserInfo(ctx context.Context, accessToken string) (*domain.ProviderUserInfo, error)

	// ListCalendars returns the calendars available to the account.
	ListCalendars(ctx context.Context, accessToken string) ([]domain.Calendar, error)

	// FetchEvents returns all events on a calendar within [start, end).
	// A partial page failure fails the whole fetch; the sync engine never
	// reconciles against a partially degraded response.
	FetchEvents(ctx context.Context, accessToken, calendarID string, start, end time.Time) ([]domain.RemoteEvent, error)

	// CreateEvent creates an event at the provider and returns its mapped
	// representation.
	CreateEvent(ctx context.Context, accessToken string, input domain.CreateEventInput) (*domain.RemoteEvent, error)
}

// ProviderRegistry resolves provider adapters by type.
type ProviderRegistry interface {
	// Adapter returns the adapter for a provider type, or
	// domain.ErrInvalidInput for unsupported providers.
	Adapter(provider domain.ProviderType) (ProviderAdapter, error)
}
