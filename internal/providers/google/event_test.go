package google

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/calendar/v3"

	"github.com/skedi/calendar-sync/internal/core/domain"
)

func TestMapEvent_TimedEvent(t *testing.T) {
	event := &calendar.Event{
		Id:      "ev-1",
		Summary: "Design review",
		Status:  "confirmed",
		Start:   &calendar.EventDateTime{DateTime: "2026-03-10T09:00:00Z"},
		End:     &calendar.EventDateTime{DateTime: "2026-03-10T10:00:00Z"},
		Organizer: &calendar.EventOrganizer{
			Email: "organiser@example.com",
			Self:  true,
		},
		HtmlLink: "https://calendar.google.com/event?eid=abc",
		Etag:     `"3381270"`,
	}

	mapped, err := mapEvent(event, "primary")
	require.NoError(t, err)

	assert.Equal(t, "ev-1", mapped.ExternalID)
	assert.Equal(t, "primary", mapped.CalendarID)
	assert.Equal(t, domain.EventConfirmed, mapped.Status)
	assert.Equal(t, domain.TransparencyOpaque, mapped.Transparency)
	assert.False(t, mapped.AllDay)
	assert.True(t, mapped.StartTime.Equal(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)))
	assert.Equal(t, "organiser@example.com", mapped.OrganizerEmail)
	assert.True(t, mapped.IsOrganizer)
}

func TestMapEvent_AllDay(t *testing.T) {
	event := &calendar.Event{
		Id:     "ev-2",
		Status: "confirmed",
		Start:  &calendar.EventDateTime{Date: "2026-03-10"},
		End:    &calendar.EventDateTime{Date: "2026-03-11"},
	}

	mapped, err := mapEvent(event, "primary")
	require.NoError(t, err)
	assert.True(t, mapped.AllDay)
	assert.True(t, mapped.StartTime.Equal(time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)))
}

func TestMapEvent_CancelledWithoutTimes(t *testing.T) {
	// ShowDeleted listings return cancelled instances with no times.
	event := &calendar.Event{Id: "ev-3", Status: "cancelled"}

	mapped, err := mapEvent(event, "primary")
	require.NoError(t, err)
	assert.Equal(t, domain.EventCancelled, mapped.Status)
	assert.True(t, mapped.StartTime.IsZero())
}

func TestMapEvent_Transparency(t *testing.T) {
	event := &calendar.Event{
		Id:           "ev-4",
		Status:       "confirmed",
		Transparency: "transparent",
		Start:        &calendar.EventDateTime{DateTime: "2026-03-10T09:00:00Z"},
		End:          &calendar.EventDateTime{DateTime: "2026-03-10T10:00:00Z"},
	}

	mapped, err := mapEvent(event, "primary")
	require.NoError(t, err)
	assert.Equal(t, domain.TransparencyTransparent, mapped.Transparency)
}

func TestMapEvent_MeetingURL(t *testing.T) {
	event := &calendar.Event{
		Id:          "ev-5",
		Status:      "confirmed",
		Start:       &calendar.EventDateTime{DateTime: "2026-03-10T09:00:00Z"},
		End:         &calendar.EventDateTime{DateTime: "2026-03-10T10:00:00Z"},
		HangoutLink: "https://meet.google.com/abc-defg-hij",
	}

	mapped, err := mapEvent(event, "primary")
	require.NoError(t, err)
	assert.Equal(t, "https://meet.google.com/abc-defg-hij", mapped.MeetingURL)
}

func TestBuildEvent_WithMeetLink(t *testing.T) {
	input := domain.CreateEventInput{
		Title:        "Intro call",
		StartTime:    time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
		EndTime:      time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC),
		Attendees:    []string{"guest@example.com"},
		WithMeetLink: true,
	}

	event := buildEvent(input)
	assert.Equal(t, "Intro call", event.Summary)
	require.Len(t, event.Attendees, 1)
	require.NotNil(t, event.ConferenceData)
	assert.Equal(t, "hangoutsMeet", event.ConferenceData.CreateRequest.ConferenceSolutionKey.Type)
}

func TestBuildAuthURL(t *testing.T) {
	adapter := NewAdapter()
	cfg := domain.OAuthAppConfig{
		ClientID:    "client-id",
		RedirectURI: "http://localhost:8976/callback",
		Scopes:      []string{"https://www.googleapis.com/auth/calendar"},
	}

	raw := adapter.BuildAuthURL(cfg, "state-123")
	assert.True(t, strings.HasPrefix(raw, defaultAuthURL+"?"))

	parsed, err := url.Parse(raw)
	require.NoError(t, err)
	query := parsed.Query()
	assert.Equal(t, "client-id", query.Get("client_id"))
	assert.Equal(t, "code", query.Get("response_type"))
	assert.Equal(t, "offline", query.Get("access_type"))
	assert.Equal(t, "consent", query.Get("prompt"))
	assert.Equal(t, "state-123", query.Get("state"))
}
