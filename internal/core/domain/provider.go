package domain

import "fmt"

// ProviderType identifies a third-party calendar provider.
type ProviderType string

const (
	// ProviderGoogleCalendar is Google Calendar.
	ProviderGoogleCalendar ProviderType = "google_calendar"
	// ProviderGoogleMeet is Google Meet (events with conference links).
	ProviderGoogleMeet ProviderType = "google_meet"
	// ProviderOutlookCalendar is Microsoft Outlook Calendar via the Graph API.
	ProviderOutlookCalendar ProviderType = "outlook_calendar"
)

// AllProviders lists every supported provider type.
var AllProviders = []ProviderType{
	ProviderGoogleCalendar,
	ProviderGoogleMeet,
	ProviderOutlookCalendar,
}

// ParseProviderType validates and converts a string to a ProviderType.
func ParseProviderType(s string) (ProviderType, error) {
	switch ProviderType(s) {
	case ProviderGoogleCalendar, ProviderGoogleMeet, ProviderOutlookCalendar:
		return ProviderType(s), nil
	default:
		return "", fmt.Errorf("%w: unknown provider %q", ErrInvalidInput, s)
	}
}

// IsValid returns true if the provider type is supported.
func (p ProviderType) IsValid() bool {
	_, err := ParseProviderType(string(p))
	return err == nil
}

// String returns the wire representation of the provider type.
func (p ProviderType) String() string {
	return string(p)
}

// OAuthAppConfig stores OAuth application credentials for one provider.
// These are the client credentials from the provider's developer console,
// shared by every integration of that provider.
type OAuthAppConfig struct {
	// ClientID is the OAuth client ID from the developer console.
	ClientID string `json:"client_id" toml:"client_id"`
	// ClientSecret is the OAuth client secret from the developer console.
	ClientSecret string `json:"client_secret" toml:"client_secret"`
	// Scopes are the OAuth scopes to request.
	Scopes []string `json:"scopes" toml:"scopes"`
	// AuthURL is the authorization endpoint (optional override).
	AuthURL string `json:"auth_url,omitempty" toml:"auth_url,omitempty"`
	// TokenURL is the token exchange endpoint (optional override).
	TokenURL string `json:"token_url,omitempty" toml:"token_url,omitempty"`
	// RedirectURI is the callback URI registered with the provider.
	RedirectURI string `json:"redirect_uri,omitempty" toml:"redirect_uri,omitempty"`
}

// ProviderUserInfo is the account identity returned by a provider's
// userinfo endpoint after authentication.
type ProviderUserInfo struct {
	// ID is the provider-native account identifier. May be empty for
	// providers that only expose an email address.
	ID string
	// Email is the account email address.
	Email string
	// Name is the display name, if the provider exposes one.
	Name string
}

// AccountIdentifier returns the best available identifier for the account.
func (u *ProviderUserInfo) AccountIdentifier() string {
	if u.ID != "" {
		return u.ID
	}
	return u.Email
}
