package driven

import (
	"context"
	"time"

	"github.com/skedi/calendar-sync/internal/core/domain"
)

// EventStore persists the local mirror of provider events.
// Rows are unique on (integration ID, external event ID) and are never
// physically removed by reconciliation.
type EventStore interface {
	// Upsert stores an event by (integration, external ID), updating all
	// mutable fields on conflict. The passed struct receives the row ID.
	Upsert(ctx context.Context, event *domain.CalendarEvent) error

	// Get retrieves an event by integration and external ID.
	Get(ctx context.Context, integrationID int64, externalID string) (*domain.CalendarEvent, error)

	// ListForCalendar returns all mirrored events for an integration's
	// calendar whose window overlaps [start, end). Zero start and end
	// return every event tied to the calendar (full-calendar cleanup pass).
	ListForCalendar(ctx context.Context, integrationID int64, calendarID string, start, end time.Time) ([]domain.CalendarEvent, error)

	// ListForUserRange returns a user's non-cancelled events overlapping
	// [start, end), ordered by start time ascending.
	ListForUserRange(ctx context.Context, userID int64, start, end time.Time) ([]domain.CalendarEvent, error)

	// MarkCancelled flips an event's status to cancelled, preserving the row.
	MarkCancelled(ctx context.Context, integrationID int64, externalID string, at time.Time) error

	// DeleteEndedBefore purges events whose end time precedes the cutoff.
	// Used only by the explicit retention cleanup, never by reconciliation.
	// Returns the number of rows removed.
	DeleteEndedBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// CountEndedBefore reports how many events a cleanup would remove.
	CountEndedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
