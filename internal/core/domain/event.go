package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventStatus is the provider-reported status of a calendar event.
type EventStatus string

const (
	// EventConfirmed is a confirmed event.
	EventConfirmed EventStatus = "confirmed"
	// EventTentative is a tentatively accepted event.
	EventTentative EventStatus = "tentative"
	// EventCancelled is a cancelled event. Reconciliation never deletes
	// mirror rows; it flips them to cancelled instead.
	EventCancelled EventStatus = "cancelled"
)

// Transparency indicates whether an event blocks availability.
type Transparency string

const (
	// TransparencyOpaque blocks time on the calendar.
	TransparencyOpaque Transparency = "opaque"
	// TransparencyTransparent does not block time ("free" in Outlook terms).
	TransparencyTransparent Transparency = "transparent"
)

// CalendarEvent is one row of the local event mirror, keyed by
// (integration, external event ID).
type CalendarEvent struct {
	ID            int64        `json:"id"`
	UserID        int64        `json:"user_id"`
	IntegrationID int64        `json:"integration_id"`
	CalendarID    string       `json:"calendar_id"`
	CalendarName  string       `json:"calendar_name,omitempty"`
	// ExternalID is the provider-native event identifier.
	ExternalID   string       `json:"external_id"`
	Title        string       `json:"title"`
	Description  string       `json:"description,omitempty"`
	Location     string       `json:"location,omitempty"`
	StartTime    time.Time    `json:"start_time"`
	EndTime      time.Time    `json:"end_time"`
	AllDay       bool         `json:"all_day"`
	Status       EventStatus  `json:"status"`
	Transparency Transparency `json:"transparency"`
	// OrganizerEmail is the event organiser's address, if known.
	OrganizerEmail string `json:"organizer_email,omitempty"`
	// IsOrganizer is true when the integration's account organised the event.
	IsOrganizer bool `json:"is_organizer"`
	// HTMLLink is the provider's web link to the event.
	HTMLLink string `json:"html_link,omitempty"`
	// ETag is the provider's entity tag, used for change detection.
	ETag string `json:"etag,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	// SyncedAt is when this row was last confirmed against the provider.
	SyncedAt time.Time `json:"synced_at"`
}

// IsBusy reports whether the event blocks availability: anything that is
// not cancelled and not transparent counts as busy time.
func (e *CalendarEvent) IsBusy() bool {
	return e.Status != EventCancelled && e.Transparency != TransparencyTransparent
}

// MarshalJSON includes the derived is_busy field in the event's outward
// form, so consumers never have to re-derive the busy rule from status
// and transparency.
func (e CalendarEvent) MarshalJSON() ([]byte, error) {
	type plain CalendarEvent
	return json.Marshal(struct {
		plain
		IsBusy bool `json:"is_busy"`
	}{plain(e), e.IsBusy()})
}

// Overlaps returns true if the event overlaps the half-open range [start, end).
func (e *CalendarEvent) Overlaps(start, end time.Time) bool {
	return e.StartTime.Before(end) && e.EndTime.After(start)
}

// BusyBlockKey returns the stable availability key for this event,
// independent of the provider's own ID scheme.
func (e *CalendarEvent) BusyBlockKey(provider ProviderType) string {
	return fmt.Sprintf("%s_%s_%s", provider, e.CalendarID, e.ExternalID)
}

// Calendar describes one calendar available on an integration.
type Calendar struct {
	// ID is the provider-native calendar identifier.
	ID string `json:"id"`
	// Name is the calendar's display name.
	Name string `json:"name"`
	// Primary marks the account's default calendar.
	Primary bool `json:"primary"`
	// TimeZone is the calendar's default time zone, if reported.
	TimeZone string `json:"time_zone,omitempty"`
}

// RemoteEvent is a provider event mapped to a provider-agnostic shape.
// The sync engine upserts these into the CalendarEvent mirror.
type RemoteEvent struct {
	ExternalID     string
	CalendarID     string
	CalendarName   string
	Title          string
	Description    string
	Location       string
	StartTime      time.Time
	EndTime        time.Time
	AllDay         bool
	Status         EventStatus
	Transparency   Transparency
	OrganizerEmail string
	IsOrganizer    bool
	HTMLLink       string
	ETag           string
	// MeetingURL is the conference link, set by providers that create one.
	MeetingURL string
}

// BusyBlock is a published availability-blocking interval. Blocks are keyed
// by {provider}_{calendarID}_{externalEventID} so identity stays stable
// across resyncs.
type BusyBlock struct {
	Key           string    `json:"key"`
	UserID        int64     `json:"user_id"`
	IntegrationID int64     `json:"integration_id"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// CreateEventInput describes an event to create at the provider.
type CreateEventInput struct {
	// CalendarID is the target calendar; defaults to the primary calendar.
	CalendarID string
	// Title is the event summary. Required.
	Title string
	// Description is the free-text body.
	Description string
	// Location is the event location.
	Location string
	// StartTime and EndTime bound the event. Required, and end must be
	// after start.
	StartTime time.Time
	EndTime   time.Time
	// Attendees are email addresses to invite.
	Attendees []string
	// WithMeetLink requests a conference link (Google Meet provider).
	WithMeetLink bool
}

// Validate rejects malformed input before any network call is made.
func (in *CreateEventInput) Validate() error {
	if in.Title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if in.StartTime.IsZero() || in.EndTime.IsZero() {
		return fmt.Errorf("%w: start and end times are required", ErrInvalidInput)
	}
	if !in.EndTime.After(in.StartTime) {
		return fmt.Errorf("%w: end time must be after start time", ErrInvalidInput)
	}
	return nil
}
