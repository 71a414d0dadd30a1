package microsoft

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skedi/calendar-sync/internal/core/domain"
)

func TestParseGraphTime(t *testing.T) {
	got, err := parseGraphTime(graphDateTime{DateTime: "2026-03-10T09:00:00.0000000", TimeZone: "UTC"})
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)))

	// Without fractional seconds.
	got, err = parseGraphTime(graphDateTime{DateTime: "2026-03-10T09:00:00", TimeZone: "UTC"})
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)))

	_, err = parseGraphTime(graphDateTime{DateTime: "not-a-time"})
	assert.Error(t, err)
}

func TestMapEvent_ShowAsAndCancellation(t *testing.T) {
	base := graphEvent{
		ID:      "ev-1",
		Subject: "1:1",
		Start:   graphDateTime{DateTime: "2026-03-10T09:00:00.0000000", TimeZone: "UTC"},
		End:     graphDateTime{DateTime: "2026-03-10T09:30:00.0000000", TimeZone: "UTC"},
	}

	busy := base
	busy.ShowAs = "busy"
	mapped, err := mapEvent(&busy, "primary")
	require.NoError(t, err)
	assert.Equal(t, domain.EventConfirmed, mapped.Status)
	assert.Equal(t, domain.TransparencyOpaque, mapped.Transparency)

	free := base
	free.ShowAs = "free"
	mapped, err = mapEvent(&free, "primary")
	require.NoError(t, err)
	assert.Equal(t, domain.TransparencyTransparent, mapped.Transparency)

	tentative := base
	tentative.ShowAs = "tentative"
	mapped, err = mapEvent(&tentative, "primary")
	require.NoError(t, err)
	assert.Equal(t, domain.EventTentative, mapped.Status)

	cancelled := base
	cancelled.IsCancelled = true
	cancelled.ShowAs = "busy"
	mapped, err = mapEvent(&cancelled, "primary")
	require.NoError(t, err)
	assert.Equal(t, domain.EventCancelled, mapped.Status)
}

func TestMapEvent_Fields(t *testing.T) {
	event := graphEvent{
		ID:          "ev-2",
		Subject:     "Planning",
		BodyPreview: "Agenda",
		Start:       graphDateTime{DateTime: "2026-03-10T09:00:00", TimeZone: "UTC"},
		End:         graphDateTime{DateTime: "2026-03-10T10:00:00", TimeZone: "UTC"},
		ShowAs:      "busy",
		IsOrganizer: true,
		WebLink:     "https://outlook.office.com/calendar/item/ev-2",
		ETag:        `W/"abc"`,
	}
	event.Location.DisplayName = "Room 4"
	event.Organizer.EmailAddress.Address = "organiser@example.com"
	event.OnlineMeeting.JoinURL = "https://teams.microsoft.com/l/meetup-join/abc"

	mapped, err := mapEvent(&event, "cal-1")
	require.NoError(t, err)
	assert.Equal(t, "cal-1", mapped.CalendarID)
	assert.Equal(t, "Room 4", mapped.Location)
	assert.Equal(t, "organiser@example.com", mapped.OrganizerEmail)
	assert.True(t, mapped.IsOrganizer)
	assert.Equal(t, "https://teams.microsoft.com/l/meetup-join/abc", mapped.MeetingURL)
}

func TestBuildEvent(t *testing.T) {
	input := domain.CreateEventInput{
		Title:       "Sync call",
		Description: "Notes",
		Location:    "Teams",
		StartTime:   time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
		EndTime:     time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC),
		Attendees:   []string{"a@example.com", "b@example.com"},
	}

	event := buildEvent(input)
	assert.Equal(t, "Sync call", event["subject"])
	start := event["start"].(graphDateTime)
	assert.Equal(t, "2026-03-10T09:00:00", start.DateTime)
	assert.Equal(t, "UTC", start.TimeZone)
	assert.Len(t, event["attendees"], 2)
	_, hasOnline := event["isOnlineMeeting"]
	assert.False(t, hasOnline)

	input.WithMeetLink = true
	event = buildEvent(input)
	assert.Equal(t, true, event["isOnlineMeeting"])
	assert.Equal(t, "teamsForBusiness", event["onlineMeetingProvider"])
}

func TestBuildAuthURL_AddsOfflineAccess(t *testing.T) {
	adapter := NewAdapter()
	cfg := domain.OAuthAppConfig{
		ClientID:    "client-id",
		RedirectURI: "http://localhost:8976/callback",
		Scopes:      []string{"Calendars.ReadWrite", "User.Read"},
	}

	raw := adapter.BuildAuthURL(cfg, "state-456")
	parsed, err := url.Parse(raw)
	require.NoError(t, err)

	query := parsed.Query()
	assert.Equal(t, "client-id", query.Get("client_id"))
	assert.Equal(t, "query", query.Get("response_mode"))
	assert.True(t, strings.Contains(query.Get("scope"), "offline_access"))
	assert.Equal(t, "state-456", query.Get("state"))
}

func TestCalendarViewPath(t *testing.T) {
	assert.Equal(t, "/me/calendarView", calendarViewPath("primary"))
	assert.Equal(t, "/me/calendarView", calendarViewPath(""))
	assert.Equal(t, "/me/calendars/cal-1/calendarView", calendarViewPath("cal-1"))
}
