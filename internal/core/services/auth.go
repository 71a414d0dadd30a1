package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/skedi/calendar-sync/internal/core/domain"
	"github.com/skedi/calendar-sync/internal/core/ports/driven"
	"github.com/skedi/calendar-sync/internal/core/ports/driving"
	"github.com/skedi/calendar-sync/internal/logger"
)

// refreshBuffer is how long before expiry a token is refreshed. The buffer
// absorbs clock skew and request latency so a token never expires mid-call.
const refreshBuffer = 5 * time.Minute

// Ensure AuthService implements the interface.
var _ driving.Authenticator = (*AuthService)(nil)

// AuthService manages the OAuth credential lifecycle: authorize URLs,
// code exchange, integration rows and token refresh.
//
// Refresh is synchronous: it completes (or fails loudly) before any
// provider call proceeds. There is no background refresh.
type AuthService struct {
	integrations driven.IntegrationStore
	registry     driven.ProviderRegistry
	apps         map[domain.ProviderType]domain.OAuthAppConfig
	cache        driven.Cache
	ttls         domain.CacheTTLTable
}

// NewAuthService creates an authenticator. The apps map holds one OAuth
// application configuration per provider. Cache is optional; when nil,
// userinfo responses are simply not cached.
func NewAuthService(
	integrations driven.IntegrationStore,
	registry driven.ProviderRegistry,
	apps map[domain.ProviderType]domain.OAuthAppConfig,
	cache driven.Cache,
	ttls domain.CacheTTLTable,
) *AuthService {
	return &AuthService{
		integrations: integrations,
		registry:     registry,
		apps:         apps,
		cache:        cache,
		ttls:         ttls,
	}
}

// AuthURL builds the provider authorize URL for the OAuth flow.
func (s *AuthService) AuthURL(provider domain.ProviderType, state string) (string, error) {
	adapter, err := s.registry.Adapter(provider)
	if err != nil {
		return "", err
	}
	cfg, ok := s.apps[provider]
	if !ok || cfg.ClientID == "" {
		return "", fmt.Errorf("%w: no OAuth app configured for %s", domain.ErrInvalidInput, provider)
	}
	return adapter.BuildAuthURL(cfg, state), nil
}

// HandleCallback exchanges the authorization code, fetches the account
// identity and creates or updates the integration row for (user, provider).
func (s *AuthService) HandleCallback(
	ctx context.Context,
	userID int64,
	provider domain.ProviderType,
	code string,
) (*domain.Integration, error) {
	if code == "" {
		return nil, fmt.Errorf("%w: empty authorization code", domain.ErrInvalidInput)
	}

	adapter, err := s.registry.Adapter(provider)
	if err != nil {
		return nil, err
	}
	cfg, ok := s.apps[provider]
	if !ok || cfg.ClientID == "" {
		return nil, fmt.Errorf("%w: no OAuth app configured for %s", domain.ErrInvalidInput, provider)
	}

	token, err := adapter.ExchangeCode(ctx, cfg, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrAuthFailed, err)
	}

	info, err := adapter.GetUserInfo(ctx, token.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("fetch user info: %w", err)
	}

	externalID := info.AccountIdentifier()
	if externalID == "" {
		// Provider omitted an account identifier; generate a stable fallback.
		externalID = uuid.NewString()
	}

	name := info.Name
	if name == "" {
		name = info.Email
	}

	integration, err := s.integrations.FindActive(ctx, userID, provider)
	switch {
	case err == nil:
		// Active row exists for (user, provider): update in place.
		integration.ExternalID = externalID
		integration.Name = name
	case errors.Is(err, domain.ErrNotFound):
		integration = &domain.Integration{
			UserID:     userID,
			Provider:   provider,
			ExternalID: externalID,
			Name:       name,
			Status:     domain.IntegrationActive,
			Config:     map[string]any{},
		}
	default:
		return nil, fmt.Errorf("find integration: %w", err)
	}

	integration.AccessToken = token.AccessToken
	if token.RefreshToken != "" {
		integration.RefreshToken = token.RefreshToken
	}
	integration.TokenExpiry = token.Expiry
	if token.Scope != "" {
		integration.Scopes = strings.Fields(token.Scope)
	} else if len(integration.Scopes) == 0 {
		integration.Scopes = cfg.Scopes
	}

	if err := s.integrations.Save(ctx, integration); err != nil {
		return nil, fmt.Errorf("save integration: %w", err)
	}

	s.cacheUserProfile(ctx, provider, externalID, info)

	logger.Info("Linked %s account %s for user %d (integration %d)",
		provider, integration.Name, userID, integration.ID)
	return integration, nil
}

// UserIntegration resolves an integration for a user. A non-zero
// integrationID must name a row owned by the user, for the provider, and
// active; zero resolves the most recently created active row.
func (s *AuthService) UserIntegration(
	ctx context.Context,
	userID int64,
	provider domain.ProviderType,
	integrationID int64,
) (*domain.Integration, error) {
	if integrationID == 0 {
		return s.integrations.FindActive(ctx, userID, provider)
	}

	integration, err := s.integrations.Get(ctx, integrationID)
	if err != nil {
		return nil, err
	}
	if integration.UserID != userID || integration.Provider != provider || !integration.IsActive() {
		return nil, domain.ErrNotFound
	}
	return integration, nil
}

// EnsureValidToken refreshes the access token when it expires within the
// refresh buffer. Refresh failures surface to the caller; the integration
// is never deactivated here.
func (s *AuthService) EnsureValidToken(ctx context.Context, integration *domain.Integration) error {
	if !integration.TokenExpiresWithin(refreshBuffer) {
		return nil
	}

	if !integration.HasRefreshToken() {
		return domain.NewIntegrationError(integration, "refresh", domain.ErrNoRefreshToken)
	}

	adapter, err := s.registry.Adapter(integration.Provider)
	if err != nil {
		return err
	}
	cfg, ok := s.apps[integration.Provider]
	if !ok {
		return fmt.Errorf("%w: no OAuth app configured for %s", domain.ErrInvalidInput, integration.Provider)
	}

	logger.Debug("Refreshing token for integration %d (%s)", integration.ID, integration.Provider)

	token, err := adapter.RefreshToken(ctx, cfg, integration.RefreshToken)
	if err != nil {
		return domain.NewIntegrationError(integration, "refresh",
			fmt.Errorf("%w: %w", domain.ErrTokenRefreshFailed, err))
	}

	integration.AccessToken = token.AccessToken
	integration.TokenExpiry = token.Expiry
	if token.RefreshToken != "" {
		// Provider rotated the refresh token.
		integration.RefreshToken = token.RefreshToken
	}

	if err := s.integrations.Save(ctx, integration); err != nil {
		return fmt.Errorf("save refreshed tokens: %w", err)
	}
	return nil
}

// cacheUserProfile stores the provider identity for later display.
// Best-effort: a missing cache is fine.
func (s *AuthService) cacheUserProfile(
	ctx context.Context,
	provider domain.ProviderType,
	externalID string,
	info *domain.ProviderUserInfo,
) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(info)
	if err != nil {
		return
	}
	key := fmt.Sprintf("%s:%s:%s", domain.CacheClassUserProfile, provider, externalID)
	s.cache.Set(ctx, key, payload, s.ttls.TTL(domain.CacheClassUserProfile))
}
