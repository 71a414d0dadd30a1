package services

import (
	"context"
	"fmt"
	"time"

	"github.com/skedi/calendar-sync/internal/core/domain"
	"github.com/skedi/calendar-sync/internal/core/ports/driven"
)

// fakeAdapter is a scriptable driven.ProviderAdapter.
type fakeAdapter struct {
	provider domain.ProviderType

	exchangeToken *domain.OAuthToken
	exchangeErr   error

	refreshResult *domain.OAuthToken
	refreshErr    error
	refreshCalls  int

	userInfo    *domain.ProviderUserInfo
	userInfoErr error

	calendars     []domain.Calendar
	calendarCalls int

	// events maps calendar ID to the remote events returned by FetchEvents.
	events     map[string][]domain.RemoteEvent
	fetchErr   error
	fetchCalls int

	created   *domain.RemoteEvent
	createErr error
}

var _ driven.ProviderAdapter = (*fakeAdapter)(nil)

func (f *fakeAdapter) Type() domain.ProviderType {
	if f.provider == "" {
		return domain.ProviderGoogleCalendar
	}
	return f.provider
}

func (f *fakeAdapter) BuildAuthURL(cfg domain.OAuthAppConfig, state string) string {
	return fmt.Sprintf("https://example.com/authorize?client_id=%s&state=%s", cfg.ClientID, state)
}

func (f *fakeAdapter) ExchangeCode(context.Context, domain.OAuthAppConfig, string) (*domain.OAuthToken, error) {
	return f.exchangeToken, f.exchangeErr
}

func (f *fakeAdapter) RefreshToken(context.Context, domain.OAuthAppConfig, string) (*domain.OAuthToken, error) {
	f.refreshCalls++
	return f.refreshResult, f.refreshErr
}

func (f *fakeAdapter) GetUserInfo(context.Context, string) (*domain.ProviderUserInfo, error) {
	return f.userInfo, f.userInfoErr
}

func (f *fakeAdapter) ListCalendars(context.Context, string) ([]domain.Calendar, error) {
	f.calendarCalls++
	return f.calendars, nil
}

func (f *fakeAdapter) FetchEvents(_ context.Context, _, calendarID string, _, _ time.Time) ([]domain.RemoteEvent, error) {
	f.fetchCalls++
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.events[calendarID], nil
}

func (f *fakeAdapter) CreateEvent(context.Context, string, domain.CreateEventInput) (*domain.RemoteEvent, error) {
	return f.created, f.createErr
}

// fakeRegistry resolves a single fake adapter for every provider.
type fakeRegistry struct {
	adapter *fakeAdapter
}

func (r *fakeRegistry) Adapter(provider domain.ProviderType) (driven.ProviderAdapter, error) {
	if r.adapter == nil {
		return nil, fmt.Errorf("%w: no adapter registered for %s", domain.ErrInvalidInput, provider)
	}
	return r.adapter, nil
}

func testApps() map[domain.ProviderType]domain.OAuthAppConfig {
	return map[domain.ProviderType]domain.OAuthAppConfig{
		domain.ProviderGoogleCalendar: {
			ClientID:     "client-id",
			ClientSecret: "client-secret",
			Scopes:       []string{"https://www.googleapis.com/auth/calendar"},
			RedirectURI:  "http://localhost:8976/callback",
		},
	}
}

func activeIntegration(id, userID int64) *domain.Integration {
	return &domain.Integration{
		ID:          id,
		UserID:      userID,
		Provider:    domain.ProviderGoogleCalendar,
		ExternalID:  "acct-1",
		Name:        "work@example.com",
		AccessToken: "access-1",
		Status:      domain.IntegrationActive,
		TokenExpiry: time.Now().Add(time.Hour),
	}
}

func remoteEvent(externalID string, start, end time.Time) domain.RemoteEvent {
	return domain.RemoteEvent{
		ExternalID:   externalID,
		CalendarID:   "primary",
		Title:        "Event " + externalID,
		StartTime:    start,
		EndTime:      end,
		Status:       domain.EventConfirmed,
		Transparency: domain.TransparencyOpaque,
	}
}
