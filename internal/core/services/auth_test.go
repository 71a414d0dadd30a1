package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skedi/calendar-sync/internal/adapters/driven/storage/memory"
	"github.com/skedi/calendar-sync/internal/core/domain"
)

func newAuthService(adapter *fakeAdapter) (*AuthService, *memory.IntegrationStore) {
	store := memory.NewIntegrationStore()
	service := NewAuthService(
		store,
		&fakeRegistry{adapter: adapter},
		testApps(),
		memory.NewCache(),
		domain.DefaultCacheTTLTable(),
	)
	return service, store
}

func TestAuthURL(t *testing.T) {
	service, _ := newAuthService(&fakeAdapter{})

	url, err := service.AuthURL(domain.ProviderGoogleCalendar, "state-1")
	require.NoError(t, err)
	assert.Contains(t, url, "client_id=client-id")
	assert.Contains(t, url, "state=state-1")
}

func TestAuthURL_NoAppConfigured(t *testing.T) {
	service, _ := newAuthService(&fakeAdapter{})

	_, err := service.AuthURL(domain.ProviderOutlookCalendar, "state-1")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), "no OAuth app configured")
}

func TestHandleCallback_CreatesIntegration(t *testing.T) {
	adapter := &fakeAdapter{
		exchangeToken: &domain.OAuthToken{
			AccessToken:  "access-1",
			RefreshToken: "refresh-1",
			Expiry:       time.Now().Add(time.Hour),
			Scope:        "scope.a scope.b",
		},
		userInfo: &domain.ProviderUserInfo{ID: "acct-1", Email: "work@example.com"},
	}
	service, store := newAuthService(adapter)

	integration, err := service.HandleCallback(
		context.Background(), 7, domain.ProviderGoogleCalendar, "code-1")
	require.NoError(t, err)

	assert.NotZero(t, integration.ID)
	assert.Equal(t, "acct-1", integration.ExternalID)
	assert.Equal(t, "work@example.com", integration.Name)
	assert.Equal(t, domain.IntegrationActive, integration.Status)
	assert.Equal(t, []string{"scope.a", "scope.b"}, integration.Scopes)

	stored, err := store.Get(context.Background(), integration.ID)
	require.NoError(t, err)
	assert.Equal(t, "access-1", stored.AccessToken)
	assert.Equal(t, "refresh-1", stored.RefreshToken)
}

func TestHandleCallback_UpdatesExistingIntegration(t *testing.T) {
	adapter := &fakeAdapter{
		exchangeToken: &domain.OAuthToken{AccessToken: "access-2", Expiry: time.Now().Add(time.Hour)},
		userInfo:      &domain.ProviderUserInfo{ID: "acct-1", Email: "work@example.com"},
	}
	service, store := newAuthService(adapter)

	existing := activeIntegration(0, 7)
	existing.RefreshToken = "refresh-old"
	require.NoError(t, store.Save(context.Background(), existing))

	integration, err := service.HandleCallback(
		context.Background(), 7, domain.ProviderGoogleCalendar, "code-2")
	require.NoError(t, err)

	// Same row updated, refresh token preserved when the provider omits one.
	assert.Equal(t, existing.ID, integration.ID)
	assert.Equal(t, "access-2", integration.AccessToken)
	assert.Equal(t, "refresh-old", integration.RefreshToken)
}

func TestHandleCallback_EmptyCode(t *testing.T) {
	service, _ := newAuthService(&fakeAdapter{})

	_, err := service.HandleCallback(context.Background(), 7, domain.ProviderGoogleCalendar, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestHandleCallback_ExchangeFails(t *testing.T) {
	adapter := &fakeAdapter{exchangeErr: domain.ErrProviderUnavailable}
	service, _ := newAuthService(adapter)

	_, err := service.HandleCallback(context.Background(), 7, domain.ProviderGoogleCalendar, "code-1")
	assert.ErrorIs(t, err, domain.ErrAuthFailed)
}

func TestUserIntegration_NewestActive(t *testing.T) {
	service, store := newAuthService(&fakeAdapter{})

	first := activeIntegration(0, 7)
	first.CreatedAt = time.Now().Add(-time.Hour)
	require.NoError(t, store.Save(context.Background(), first))
	second := activeIntegration(0, 7)
	second.ExternalID = "acct-2"
	second.CreatedAt = time.Now()
	require.NoError(t, store.Save(context.Background(), second))

	integration, err := service.UserIntegration(
		context.Background(), 7, domain.ProviderGoogleCalendar, 0)
	require.NoError(t, err)
	assert.Equal(t, second.ID, integration.ID)
}

func TestUserIntegration_OwnershipChecked(t *testing.T) {
	service, store := newAuthService(&fakeAdapter{})

	integration := activeIntegration(0, 7)
	require.NoError(t, store.Save(context.Background(), integration))

	_, err := service.UserIntegration(
		context.Background(), 99, domain.ProviderGoogleCalendar, integration.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEnsureValidToken_NoOpWhenFresh(t *testing.T) {
	adapter := &fakeAdapter{}
	service, _ := newAuthService(adapter)

	integration := activeIntegration(1, 7)
	integration.TokenExpiry = time.Now().Add(time.Hour)

	require.NoError(t, service.EnsureValidToken(context.Background(), integration))
	assert.Zero(t, adapter.refreshCalls)
}

func TestEnsureValidToken_RefreshesWithinBuffer(t *testing.T) {
	adapter := &fakeAdapter{
		refreshResult: &domain.OAuthToken{
			AccessToken: "access-new",
			Expiry:      time.Now().Add(time.Hour),
		},
	}
	service, store := newAuthService(adapter)

	integration := activeIntegration(0, 7)
	integration.RefreshToken = "refresh-1"
	integration.TokenExpiry = time.Now().Add(2 * time.Minute)
	require.NoError(t, store.Save(context.Background(), integration))

	require.NoError(t, service.EnsureValidToken(context.Background(), integration))
	assert.Equal(t, 1, adapter.refreshCalls)
	assert.Equal(t, "access-new", integration.AccessToken)
	// Refresh token not rotated: the stored one survives.
	assert.Equal(t, "refresh-1", integration.RefreshToken)

	stored, err := store.Get(context.Background(), integration.ID)
	require.NoError(t, err)
	assert.Equal(t, "access-new", stored.AccessToken)
}

func TestEnsureValidToken_PersistsRotatedRefreshToken(t *testing.T) {
	adapter := &fakeAdapter{
		refreshResult: &domain.OAuthToken{
			AccessToken:  "access-new",
			RefreshToken: "refresh-rotated",
			Expiry:       time.Now().Add(time.Hour),
		},
	}
	service, store := newAuthService(adapter)

	integration := activeIntegration(0, 7)
	integration.RefreshToken = "refresh-1"
	integration.TokenExpiry = time.Now().Add(-time.Minute)
	require.NoError(t, store.Save(context.Background(), integration))

	require.NoError(t, service.EnsureValidToken(context.Background(), integration))

	stored, err := store.Get(context.Background(), integration.ID)
	require.NoError(t, err)
	assert.Equal(t, "refresh-rotated", stored.RefreshToken)
}

func TestEnsureValidToken_NoRefreshToken(t *testing.T) {
	service, _ := newAuthService(&fakeAdapter{})

	integration := activeIntegration(1, 7)
	integration.RefreshToken = ""
	integration.TokenExpiry = time.Now().Add(time.Minute)

	err := service.EnsureValidToken(context.Background(), integration)
	assert.ErrorIs(t, err, domain.ErrNoRefreshToken)
}

func TestEnsureValidToken_RefreshFails(t *testing.T) {
	adapter := &fakeAdapter{refreshErr: domain.ErrAuthFailed}
	service, _ := newAuthService(adapter)

	integration := activeIntegration(1, 7)
	integration.RefreshToken = "refresh-1"
	integration.TokenExpiry = time.Now().Add(time.Minute)

	err := service.EnsureValidToken(context.Background(), integration)
	assert.ErrorIs(t, err, domain.ErrTokenRefreshFailed)

	var integrationErr *domain.IntegrationError
	assert.ErrorAs(t, err, &integrationErr)
	assert.Equal(t, integration.ID, integrationErr.IntegrationID)
}
