package driving

import (
	"context"
	"time"

	"github.com/skedi/calendar-sync/internal/core/domain"
)

// CalendarSync is the bidirectional synchronisation engine: it pulls
// remote events into the local mirror, reconciles deletions, and
// republishes availability.
type CalendarSync interface {
	// SyncEvents reconciles the integration's calendars against the
	// provider for [start, end) and returns the upserted mirror rows.
	// A concurrent call for the same integration fails with
	// domain.ErrSyncInProgress.
	SyncEvents(ctx context.Context, integration *domain.Integration, start, end time.Time) ([]domain.CalendarEvent, error)

	// Calendars returns the calendars available on the integration,
	// served from cache when fresh.
	Calendars(ctx context.Context, integration *domain.Integration) ([]domain.Calendar, error)

	// CreateEvent creates an event at the provider. The local mirror is
	// untouched; the next sync pass picks the event up.
	CreateEvent(ctx context.Context, integration *domain.Integration, input domain.CreateEventInput) (*domain.RemoteEvent, error)

	// EventsForRange returns a user's non-cancelled mirrored events
	// overlapping [start, end), ordered by start time. Local-only.
	EventsForRange(ctx context.Context, userID int64, start, end time.Time) ([]domain.CalendarEvent, error)
}
