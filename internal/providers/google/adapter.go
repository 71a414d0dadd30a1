// Package google implements the Google Calendar provider adapter on top
// of the official Calendar API client.
package google

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	oauthx "github.com/skedi/calendar-sync/internal/adapters/driven/oauth"
	"github.com/skedi/calendar-sync/internal/core/domain"
	"github.com/skedi/calendar-sync/internal/core/ports/driven"
	"github.com/skedi/calendar-sync/internal/providers"
)

// Default Google OAuth endpoints, overridable per app config.
const (
	defaultAuthURL  = "https://accounts.google.com/o/oauth2/v2/auth"
	defaultTokenURL = "https://oauth2.googleapis.com/token"
	userInfoURL     = "https://www.googleapis.com/oauth2/v2/userinfo"
)

// Ensure Adapter implements the interface.
var _ driven.ProviderAdapter = (*Adapter)(nil)

// Adapter is the Google Calendar provider adapter.
type Adapter struct {
	pacer *providers.Pacer

	// newService is swappable for tests.
	newService func(ctx context.Context, accessToken string) (*calendar.Service, error)
}

// NewAdapter creates a Google Calendar adapter.
func NewAdapter() *Adapter {
	return &Adapter{
		// Conservative pacing, well below Google's published quota.
		pacer:      providers.NewPacer(providers.PacerConfig{RequestsPerSecond: 5.0, BurstSize: 10}),
		newService: newCalendarService,
	}
}

// newCalendarService creates a Calendar API service for an access token.
func newCalendarService(ctx context.Context, accessToken string) (*calendar.Service, error) {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})
	return calendar.NewService(ctx, option.WithTokenSource(ts))
}

// Type returns the provider this adapter serves.
func (a *Adapter) Type() domain.ProviderType {
	return domain.ProviderGoogleCalendar
}

// BuildAuthURL constructs the Google authorize URL. access_type=offline
// with prompt=consent makes Google issue a refresh token on every consent.
func (a *Adapter) BuildAuthURL(cfg domain.OAuthAppConfig, state string) string {
	authURL := cfg.AuthURL
	if authURL == "" {
		authURL = defaultAuthURL
	}

	params := url.Values{}
	params.Set("client_id", cfg.ClientID)
	params.Set("redirect_uri", cfg.RedirectURI)
	params.Set("response_type", "code")
	params.Set("scope", joinScopes(cfg.Scopes))
	params.Set("state", state)
	params.Set("access_type", "offline")
	params.Set("prompt", "consent")

	return authURL + "?" + params.Encode()
}

// ExchangeCode exchanges an authorization code for tokens.
func (a *Adapter) ExchangeCode(ctx context.Context, cfg domain.OAuthAppConfig, code string) (*domain.OAuthToken, error) {
	resp, err := oauthx.ExchangeCode(ctx, tokenURL(cfg), cfg.ClientID, cfg.ClientSecret, code, cfg.RedirectURI)
	if err != nil {
		return nil, err
	}
	return resp.Token(), nil
}

// RefreshToken obtains a new access token using a refresh token.
// Google does not rotate refresh tokens; the returned RefreshToken is empty.
func (a *Adapter) RefreshToken(ctx context.Context, cfg domain.OAuthAppConfig, refreshToken string) (*domain.OAuthToken, error) {
	resp, err := oauthx.RefreshToken(ctx, tokenURL(cfg), cfg.ClientID, cfg.ClientSecret, refreshToken)
	if err != nil {
		return nil, err
	}
	return resp.Token(), nil
}

// GetUserInfo fetches the account identity for an access token.
func (a *Adapter) GetUserInfo(ctx context.Context, accessToken string) (*domain.ProviderUserInfo, error) {
	if err := a.pacer.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, userInfoURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch user info: %w", domain.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("%w: user info returned status %d", domain.ErrProviderUnavailable, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("user info request failed with status %d", resp.StatusCode)
	}

	var info struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("decode user info: %w", err)
	}

	return &domain.ProviderUserInfo{
		ID:    info.ID,
		Email: info.Email,
		Name:  info.Name,
	}, nil
}

// ListCalendars returns the calendars available to the account.
func (a *Adapter) ListCalendars(ctx context.Context, accessToken string) ([]domain.Calendar, error) {
	if err := a.pacer.Wait(ctx); err != nil {
		return nil, err
	}

	svc, err := a.newService(ctx, accessToken)
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}

	var calendars []domain.Calendar
	pageToken := ""
	for {
		call := svc.CalendarList.List().Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		list, err := call.Do()
		if err != nil {
			return nil, wrapError("list calendars", err)
		}

		for _, item := range list.Items {
			calendars = append(calendars, domain.Calendar{
				ID:       item.Id,
				Name:     item.Summary,
				Primary:  item.Primary,
				TimeZone: item.TimeZone,
			})
		}

		pageToken = list.NextPageToken
		if pageToken == "" {
			break
		}
	}

	return calendars, nil
}

// FetchEvents returns all events on a calendar within [start, end).
// Recurring events are expanded into single instances. Any page failure
// fails the whole fetch.
func (a *Adapter) FetchEvents(
	ctx context.Context,
	accessToken, calendarID string,
	start, end time.Time,
) ([]domain.RemoteEvent, error) {
	svc, err := a.newService(ctx, accessToken)
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}

	var events []domain.RemoteEvent
	pageToken := ""
	for {
		if err := a.pacer.Wait(ctx); err != nil {
			return nil, err
		}

		call := svc.Events.List(calendarID).
			Context(ctx).
			TimeMin(start.Format(time.RFC3339)).
			TimeMax(end.Format(time.RFC3339)).
			SingleEvents(true).
			ShowDeleted(true).
			OrderBy("startTime").
			MaxResults(250)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		list, err := call.Do()
		if err != nil {
			return nil, wrapError("list events", err)
		}

		for _, item := range list.Items {
			event, err := mapEvent(item, calendarID)
			if err != nil {
				return nil, fmt.Errorf("map event %s: %w", item.Id, err)
			}
			events = append(events, *event)
		}

		pageToken = list.NextPageToken
		if pageToken == "" {
			break
		}
	}

	return events, nil
}

// CreateEvent creates an event at the provider.
func (a *Adapter) CreateEvent(
	ctx context.Context,
	accessToken string,
	input domain.CreateEventInput,
) (*domain.RemoteEvent, error) {
	if err := a.pacer.Wait(ctx); err != nil {
		return nil, err
	}

	svc, err := a.newService(ctx, accessToken)
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}

	calendarID := input.CalendarID
	if calendarID == "" {
		calendarID = "primary"
	}

	created, err := insertEvent(ctx, svc, calendarID, buildEvent(input), input.WithMeetLink)
	if err != nil {
		return nil, wrapError("create event", err)
	}

	return mapEvent(created, calendarID)
}

// insertEvent performs the insert call, requesting conference data when
// a meet link was asked for.
func insertEvent(
	ctx context.Context,
	svc *calendar.Service,
	calendarID string,
	event *calendar.Event,
	withConference bool,
) (*calendar.Event, error) {
	call := svc.Events.Insert(calendarID, event).Context(ctx)
	if withConference {
		call = call.ConferenceDataVersion(1)
	}
	return call.Do()
}

// tokenURL resolves the token endpoint, honouring per-app overrides.
func tokenURL(cfg domain.OAuthAppConfig) string {
	if cfg.TokenURL != "" {
		return cfg.TokenURL
	}
	return defaultTokenURL
}
