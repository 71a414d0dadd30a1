package domain

import "time"

// IntegrationStatus is the lifecycle state of an integration.
type IntegrationStatus string

const (
	// IntegrationActive means the integration is usable for provider calls.
	IntegrationActive IntegrationStatus = "active"
	// IntegrationExpired means the tokens can no longer be refreshed.
	IntegrationExpired IntegrationStatus = "expired"
	// IntegrationRevoked means the user revoked access at the provider.
	IntegrationRevoked IntegrationStatus = "revoked"
)

// Integration represents one linked external calendar account for a user.
// It stores the OAuth tokens for that account; the OAuth application
// credentials live in OAuthAppConfig, enabling one OAuth app to serve
// many user accounts.
type Integration struct {
	// ID is the unique identifier assigned by the store.
	ID int64 `json:"id"`
	// UserID is the owning platform user.
	UserID int64 `json:"user_id"`
	// Provider identifies the calendar provider.
	Provider ProviderType `json:"provider"`
	// ExternalID is the provider-native account identifier. When the
	// provider omits one, a generated UUID is stored instead.
	ExternalID string `json:"external_id"`
	// Name is the display name shown to the user (usually the account email).
	Name string `json:"name"`

	// AccessToken is the bearer token for provider API access.
	// Never serialised outward; see Serialize.
	AccessToken string `json:"-"`
	// RefreshToken is used to obtain new access tokens. Optional: some
	// providers only issue one on the first consent.
	RefreshToken string `json:"-"`
	// TokenExpiry is when the access token expires.
	TokenExpiry time.Time `json:"token_expiry,omitempty"`
	// Scopes are the OAuth scopes granted to this integration.
	Scopes []string `json:"scopes,omitempty"`

	// Config holds free-form provider-specific settings, e.g. the list of
	// calendar IDs to sync.
	Config map[string]any `json:"config,omitempty"`

	// Status is the lifecycle state. Only active integrations are synced.
	Status IntegrationStatus `json:"status"`
	// LastSynced is when events were last reconciled for this integration.
	LastSynced time.Time `json:"last_synced,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsActive returns true if the integration can be used for provider calls.
func (i *Integration) IsActive() bool {
	return i.Status == IntegrationActive
}

// TokenExpiresWithin returns true if the access token expires within d,
// or has already expired. A zero expiry is treated as non-expiring.
func (i *Integration) TokenExpiresWithin(d time.Duration) bool {
	if i.TokenExpiry.IsZero() {
		return false
	}
	return time.Until(i.TokenExpiry) <= d
}

// HasRefreshToken returns true if a refresh token is available.
func (i *Integration) HasRefreshToken() bool {
	return i.RefreshToken != ""
}

// CalendarIDs returns the configured calendar IDs to sync.
// Defaults to the provider's primary calendar when unconfigured.
func (i *Integration) CalendarIDs() []string {
	raw, ok := i.Config["calendar_ids"]
	if !ok {
		return []string{"primary"}
	}

	switch v := raw.(type) {
	case []string:
		if len(v) == 0 {
			return []string{"primary"}
		}
		return v
	case []any:
		ids := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				ids = append(ids, s)
			}
		}
		if len(ids) == 0 {
			return []string{"primary"}
		}
		return ids
	default:
		return []string{"primary"}
	}
}

// IntegrationView is the outward-facing representation of an integration.
// Tokens are deliberately absent.
type IntegrationView struct {
	ID         int64        `json:"id"`
	UserID     int64        `json:"user_id"`
	Provider   ProviderType `json:"provider"`
	ExternalID string       `json:"external_id"`
	Name       string       `json:"name"`
	Status     string       `json:"status"`
	LastSynced *time.Time   `json:"last_synced,omitempty"`
	CreatedAt  time.Time    `json:"created"`
	UpdatedAt  time.Time    `json:"updated"`
}

// Serialize returns the outward representation of the integration.
// Access and refresh tokens never leave the core.
func (i *Integration) Serialize() IntegrationView {
	view := IntegrationView{
		ID:         i.ID,
		UserID:     i.UserID,
		Provider:   i.Provider,
		ExternalID: i.ExternalID,
		Name:       i.Name,
		Status:     string(i.Status),
		CreatedAt:  i.CreatedAt,
		UpdatedAt:  i.UpdatedAt,
	}
	if !i.LastSynced.IsZero() {
		t := i.LastSynced
		view.LastSynced = &t
	}
	return view
}
