package microsoft

import (
	"fmt"
	"time"

	"github.com/skedi/calendar-sync/internal/core/domain"
)

// graphDateTime is Graph's event time shape: a wall-clock string plus an
// IANA or Windows time zone name.
type graphDateTime struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone"`
}

// graphEvent is the subset of the Graph event resource the adapter reads.
type graphEvent struct {
	ID          string `json:"id"`
	Subject     string `json:"subject"`
	BodyPreview string `json:"bodyPreview"`
	Location    struct {
		DisplayName string `json:"displayName"`
	} `json:"location"`
	Start       graphDateTime `json:"start"`
	End         graphDateTime `json:"end"`
	IsAllDay    bool          `json:"isAllDay"`
	IsCancelled bool          `json:"isCancelled"`
	ShowAs      string        `json:"showAs"`
	Organizer   struct {
		EmailAddress struct {
			Name    string `json:"name"`
			Address string `json:"address"`
		} `json:"emailAddress"`
	} `json:"organizer"`
	IsOrganizer   bool   `json:"isOrganizer"`
	WebLink       string `json:"webLink"`
	ETag          string `json:"@odata.etag"`
	OnlineMeeting struct {
		JoinURL string `json:"joinUrl"`
	} `json:"onlineMeeting"`
}

// graphEventPage is one page of an event listing.
type graphEventPage struct {
	Value    []graphEvent `json:"value"`
	NextLink string       `json:"@odata.nextLink"`
}

// graphCalendar is the subset of the Graph calendar resource the adapter reads.
type graphCalendar struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	IsDefaultCalendar bool   `json:"isDefaultCalendar"`
}

// graphCalendarPage is one page of a calendar listing.
type graphCalendarPage struct {
	Value    []graphCalendar `json:"value"`
	NextLink string          `json:"@odata.nextLink"`
}

// graphTimeLayout parses Graph's wall-clock format, with or without
// fractional seconds.
const graphTimeLayout = "2006-01-02T15:04:05"

// parseGraphTime parses a Graph dateTime; times are requested in UTC via
// the Prefer header, so the zone name is trusted only as UTC.
func parseGraphTime(value graphDateTime) (time.Time, error) {
	raw := value.DateTime
	if len(raw) > len(graphTimeLayout) {
		raw = raw[:len(graphTimeLayout)]
	}
	t, err := time.Parse(graphTimeLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse graph time %q: %w", value.DateTime, err)
	}
	return t.UTC(), nil
}

// mapEvent converts a Graph event to the provider-agnostic shape.
func mapEvent(event *graphEvent, calendarID string) (*domain.RemoteEvent, error) {
	start, err := parseGraphTime(event.Start)
	if err != nil {
		return nil, err
	}
	end, err := parseGraphTime(event.End)
	if err != nil {
		return nil, err
	}

	return &domain.RemoteEvent{
		ExternalID:     event.ID,
		CalendarID:     calendarID,
		Title:          event.Subject,
		Description:    event.BodyPreview,
		Location:       event.Location.DisplayName,
		StartTime:      start,
		EndTime:        end,
		AllDay:         event.IsAllDay,
		Status:         mapStatus(event),
		Transparency:   mapTransparency(event.ShowAs),
		OrganizerEmail: event.Organizer.EmailAddress.Address,
		IsOrganizer:    event.IsOrganizer,
		HTMLLink:       event.WebLink,
		ETag:           event.ETag,
		MeetingURL:     event.OnlineMeeting.JoinURL,
	}, nil
}

// mapStatus derives the event status from Graph's cancellation flag and
// showAs value.
func mapStatus(event *graphEvent) domain.EventStatus {
	if event.IsCancelled {
		return domain.EventCancelled
	}
	if event.ShowAs == "tentative" {
		return domain.EventTentative
	}
	return domain.EventConfirmed
}

// mapTransparency maps Graph's showAs: "free" means the event does not
// block availability.
func mapTransparency(showAs string) domain.Transparency {
	if showAs == "free" {
		return domain.TransparencyTransparent
	}
	return domain.TransparencyOpaque
}

// buildEvent converts create-event input to the Graph wire shape.
func buildEvent(input domain.CreateEventInput) map[string]any {
	event := map[string]any{
		"subject": input.Title,
		"start": graphDateTime{
			DateTime: input.StartTime.UTC().Format(graphTimeLayout),
			TimeZone: "UTC",
		},
		"end": graphDateTime{
			DateTime: input.EndTime.UTC().Format(graphTimeLayout),
			TimeZone: "UTC",
		},
	}

	if input.Description != "" {
		event["body"] = map[string]any{
			"contentType": "text",
			"content":     input.Description,
		}
	}
	if input.Location != "" {
		event["location"] = map[string]any{"displayName": input.Location}
	}

	if len(input.Attendees) > 0 {
		attendees := make([]map[string]any, 0, len(input.Attendees))
		for _, email := range input.Attendees {
			attendees = append(attendees, map[string]any{
				"emailAddress": map[string]any{"address": email},
				"type":         "required",
			})
		}
		event["attendees"] = attendees
	}

	if input.WithMeetLink {
		event["isOnlineMeeting"] = true
		event["onlineMeetingProvider"] = "teamsForBusiness"
	}

	return event
}
