package microsoft

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	oauthx "github.com/skedi/calendar-sync/internal/adapters/driven/oauth"
	"github.com/skedi/calendar-sync/internal/core/domain"
	"github.com/skedi/calendar-sync/internal/core/ports/driven"
	"github.com/skedi/calendar-sync/internal/providers"
)

// Default Microsoft identity platform endpoints, overridable per app config.
const (
	defaultAuthURL  = "https://login.microsoftonline.com/common/oauth2/v2.0/authorize"
	defaultTokenURL = "https://login.microsoftonline.com/common/oauth2/v2.0/token"
)

// Ensure Adapter implements the interface.
var _ driven.ProviderAdapter = (*Adapter)(nil)

// Adapter is the Outlook Calendar provider adapter.
type Adapter struct {
	client *client
}

// NewAdapter creates an Outlook Calendar adapter.
func NewAdapter() *Adapter {
	// Graph throttles per app+mailbox; stay conservative.
	pacer := providers.NewPacer(providers.PacerConfig{RequestsPerSecond: 4.0, BurstSize: 8})
	return &Adapter{
		client: newClient(pacer),
	}
}

// Type returns the provider this adapter serves.
func (a *Adapter) Type() domain.ProviderType {
	return domain.ProviderOutlookCalendar
}

// BuildAuthURL constructs the Microsoft authorize URL. offline_access is
// required for Graph to issue a refresh token.
func (a *Adapter) BuildAuthURL(cfg domain.OAuthAppConfig, state string) string {
	authURL := cfg.AuthURL
	if authURL == "" {
		authURL = defaultAuthURL
	}

	scopes := cfg.Scopes
	if !containsScope(scopes, "offline_access") {
		scopes = append(append([]string(nil), scopes...), "offline_access")
	}

	params := url.Values{}
	params.Set("client_id", cfg.ClientID)
	params.Set("redirect_uri", cfg.RedirectURI)
	params.Set("response_type", "code")
	params.Set("response_mode", "query")
	params.Set("scope", strings.Join(scopes, " "))
	params.Set("state", state)

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
// Microsoft rotates refresh tokens; the returned RefreshToken replaces
// the stored one.
func (a *Adapter) RefreshToken(ctx context.Context, cfg domain.OAuthAppConfig, refreshToken string) (*domain.OAuthToken, error) {
	resp, err := oauthx.RefreshToken(ctx, tokenURL(cfg), cfg.ClientID, cfg.ClientSecret, refreshToken)
	if err != nil {
		return nil, err
	}
	return resp.Token(), nil
}

// GetUserInfo fetches the account identity for an access token.
// Falls back to userPrincipalName when mail is not set.
func (a *Adapter) GetUserInfo(ctx context.Context, accessToken string) (*domain.ProviderUserInfo, error) {
	var info struct {
		ID                string `json:"id"`
		DisplayName       string `json:"displayName"`
		Mail              string `json:"mail"`
		UserPrincipalName string `json:"userPrincipalName"`
	}
	if err := a.client.get(ctx, accessToken, "/me?$select=id,displayName,mail,userPrincipalName", &info); err != nil {
		return nil, fmt.Errorf("fetch user info: %w", err)
	}

	email := info.Mail
	if email == "" {
		email = info.UserPrincipalName
	}

	return &domain.ProviderUserInfo{
		ID:    info.ID,
		Email: email,
		Name:  info.DisplayName,
	}, nil
}

// ListCalendars returns the calendars available to the account.
func (a *Adapter) ListCalendars(ctx context.Context, accessToken string) ([]domain.Calendar, error) {
	var calendars []domain.Calendar
	next := "/me/calendars"
	for next != "" {
		var page graphCalendarPage
		if err := a.client.get(ctx, accessToken, next, &page); err != nil {
			return nil, fmt.Errorf("list calendars: %w", err)
		}
		for _, item := range page.Value {
			calendars = append(calendars, domain.Calendar{
				ID:      item.ID,
				Name:    item.Name,
				Primary: item.IsDefaultCalendar,
			})
		}
		next = page.NextLink
	}
	return calendars, nil
}

// FetchEvents returns all events on a calendar within [start, end).
// calendarView expands recurring events into single instances. Any page
// failure fails the whole fetch.
func (a *Adapter) FetchEvents(
	ctx context.Context,
	accessToken, calendarID string,
	start, end time.Time,
) ([]domain.RemoteEvent, error) {
	params := url.Values{}
	params.Set("startDateTime", start.UTC().Format(time.RFC3339))
	params.Set("endDateTime", end.UTC().Format(time.RFC3339))
	params.Set("$top", "100")

	next := calendarViewPath(calendarID) + "?" + params.Encode()

	var events []domain.RemoteEvent
	for next != "" {
		var page graphEventPage
		if err := a.client.get(ctx, accessToken, next, &page); err != nil {
			return nil, fmt.Errorf("list events: %w", err)
		}
		for i := range page.Value {
			event, err := mapEvent(&page.Value[i], calendarID)
			if err != nil {
				return nil, fmt.Errorf("map event %s: %w", page.Value[i].ID, err)
			}
			events = append(events, *event)
		}
		next = page.NextLink
	}

	return events, nil
}

// CreateEvent creates an event at the provider.
func (a *Adapter) CreateEvent(
	ctx context.Context,
	accessToken string,
	input domain.CreateEventInput,
) (*domain.RemoteEvent, error) {
	calendarID := input.CalendarID
	if calendarID == "" {
		calendarID = "primary"
	}

	path := "/me/events"
	if calendarID != "primary" {
		path = "/me/calendars/" + url.PathEscape(calendarID) + "/events"
	}

	var created graphEvent
	if err := a.client.post(ctx, accessToken, path, buildEvent(input), &created); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}

	return mapEvent(&created, calendarID)
}

// calendarViewPath resolves the calendarView path for a calendar ID;
// "primary" targets the mailbox default calendar.
func calendarViewPath(calendarID string) string {
	if calendarID == "" || calendarID == "primary" {
		return "/me/calendarView"
	}
	return "/me/calendars/" + url.PathEscape(calendarID) + "/calendarView"
}

// tokenURL resolves the token endpoint, honouring per-app overrides.
func tokenURL(cfg domain.OAuthAppConfig) string {
	if cfg.TokenURL != "" {
		return cfg.TokenURL
	}
	return defaultTokenURL
}

// containsScope reports whether the scope list already carries scope.
func containsScope(scopes []string, scope string) bool {
	for _, s := range scopes {
		if s == scope {
			return true
		}
	}
	return false
}
