package driving

import (
	"context"

	"github.com/skedi/calendar-sync/internal/core/domain"
)

// Authenticator manages the OAuth credential lifecycle for integrations.
type Authenticator interface {
	// AuthURL builds the provider authorize URL for the OAuth flow.
	// Pure: no side effects.
	AuthURL(provider domain.ProviderType, state string) (string, error)

	// HandleCallback exchanges an authorization code for tokens, fetches
	// the provider account identity, and creates or updates the active
	// integration row for (user, provider). Returns the persisted row.
	HandleCallback(ctx context.Context, userID int64, provider domain.ProviderType, code string) (*domain.Integration, error)

	// UserIntegration resolves an integration for a user. When
	// integrationID is non-zero the row must belong to the user, match the
	// provider and be active; otherwise the most recently created active
	// row for (user, provider) is returned.
	UserIntegration(ctx context.Context, userID int64, provider domain.ProviderType, integrationID int64) (*domain.Integration, error)

	// EnsureValidToken refreshes the integration's access token when it
	// expires within the refresh buffer, persisting the new token state.
	// A no-op when the token is still comfortably valid. Never flips the
	// integration's status; callers decide deactivation policy.
	EnsureValidToken(ctx context.Context, integration *domain.Integration) error
}
