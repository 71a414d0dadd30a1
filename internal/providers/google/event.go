package google

import (
	"fmt"
	"strings"
	"time"

	"google.golang.org/api/calendar/v3"

	"github.com/skedi/calendar-sync/internal/core/domain"
)

// mapEvent converts a Google Calendar event to the provider-agnostic shape.
func mapEvent(event *calendar.Event, calendarID string) (*domain.RemoteEvent, error) {
	start, end, allDay, err := extractTimes(event)
	if err != nil {
		return nil, err
	}

	mapped := &domain.RemoteEvent{
		ExternalID:   event.Id,
		CalendarID:   calendarID,
		Title:        event.Summary,
		Description:  event.Description,
		Location:     event.Location,
		StartTime:    start,
		EndTime:      end,
		AllDay:       allDay,
		Status:       mapStatus(event.Status),
		Transparency: mapTransparency(event.Transparency),
		HTMLLink:     event.HtmlLink,
		ETag:         event.Etag,
		MeetingURL:   extractMeetingURL(event),
	}

	if event.Organizer != nil {
		mapped.OrganizerEmail = event.Organizer.Email
		mapped.IsOrganizer = event.Organizer.Self
	}

	return mapped, nil
}

// extractTimes parses the event window. All-day events carry a date
// instead of a datetime. Cancelled instances may omit times entirely.
func extractTimes(event *calendar.Event) (start, end time.Time, allDay bool, err error) {
	if event.Start == nil || event.End == nil {
		if event.Status == "cancelled" {
			return time.Time{}, time.Time{}, false, nil
		}
		return time.Time{}, time.Time{}, false, fmt.Errorf("event %s has no times", event.Id)
	}

	if event.Start.Date != "" {
		start, err = time.Parse("2006-01-02", event.Start.Date)
		if err != nil {
			return time.Time{}, time.Time{}, false, fmt.Errorf("parse start date: %w", err)
		}
		end, err = time.Parse("2006-01-02", event.End.Date)
		if err != nil {
			return time.Time{}, time.Time{}, false, fmt.Errorf("parse end date: %w", err)
		}
		return start, end, true, nil
	}

	start, err = time.Parse(time.RFC3339, event.Start.DateTime)
	if err != nil {
		return time.Time{}, time.Time{}, false, fmt.Errorf("parse start time: %w", err)
	}
	end, err = time.Parse(time.RFC3339, event.End.DateTime)
	if err != nil {
		return time.Time{}, time.Time{}, false, fmt.Errorf("parse end time: %w", err)
	}
	return start, end, false, nil
}

// mapStatus converts a Google event status.
func mapStatus(status string) domain.EventStatus {
	switch status {
	case "cancelled":
		return domain.EventCancelled
	case "tentative":
		return domain.EventTentative
	default:
		return domain.EventConfirmed
	}
}

// mapTransparency converts Google transparency; Google omits the field
// for opaque events.
func mapTransparency(transparency string) domain.Transparency {
	if transparency == "transparent" {
		return domain.TransparencyTransparent
	}
	return domain.TransparencyOpaque
}

// extractMeetingURL returns the conference link, if any.
func extractMeetingURL(event *calendar.Event) string {
	if event.HangoutLink != "" {
		return event.HangoutLink
	}
	if event.ConferenceData != nil {
		for _, entry := range event.ConferenceData.EntryPoints {
			if entry.EntryPointType == "video" && entry.Uri != "" {
				return entry.Uri
			}
		}
	}
	return ""
}

// buildEvent converts create-event input to the Google wire shape.
func buildEvent(input domain.CreateEventInput) *calendar.Event {
	event := &calendar.Event{
		Summary:     input.Title,
		Description: input.Description,
		Location:    input.Location,
		Start:       &calendar.EventDateTime{DateTime: input.StartTime.Format(time.RFC3339)},
		End:         &calendar.EventDateTime{DateTime: input.EndTime.Format(time.RFC3339)},
	}

	for _, email := range input.Attendees {
		event.Attendees = append(event.Attendees, &calendar.EventAttendee{Email: email})
	}

	if input.WithMeetLink {
		event.ConferenceData = &calendar.ConferenceData{
			CreateRequest: &calendar.CreateConferenceRequest{
				RequestId: fmt.Sprintf("calsync-%d", time.Now().UnixNano()),
				ConferenceSolutionKey: &calendar.ConferenceSolutionKey{
					Type: "hangoutsMeet",
				},
			},
		}
	}

	return event
}

// joinScopes joins OAuth scopes into the space-separated wire form.
func joinScopes(scopes []string) string {
	return strings.Join(scopes, " ")
}
