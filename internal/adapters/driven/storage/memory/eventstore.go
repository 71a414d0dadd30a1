package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/skedi/calendar-sync/internal/core/domain"
	"github.com/skedi/calendar-sync/internal/core/ports/driven"
)

// Ensure EventStore implements the interface.
var _ driven.EventStore = (*EventStore)(nil)

// eventKey uniquely identifies a mirrored event row.
type eventKey struct {
	integrationID int64
	externalID    string
}

// EventStore is an in-memory implementation of driven.EventStore.
// It optionally cascades retention deletes into a busy block store,
// mirroring the SQLite store's behaviour.
type EventStore struct {
	mu     sync.RWMutex
	events map[eventKey]domain.CalendarEvent
	nextID int64

	// blocks, when set, receives Remove calls for busy blocks derived
	// from purged events.
	blocks *BusyBlockStore
}

// NewEventStore creates a new in-memory event store.
func NewEventStore() *EventStore {
	return &EventStore{
		events: make(map[eventKey]domain.CalendarEvent),
		nextID: 1,
	}
}

// WithBusyBlocks wires a busy block store for retention cascade deletes.
func (s *EventStore) WithBusyBlocks(blocks *BusyBlockStore) *EventStore {
	s.blocks = blocks
	return s
}

// Upsert stores an event keyed by (integration, external ID).
func (s *EventStore) Upsert(_ context.Context, event *domain.CalendarEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := eventKey{integrationID: event.IntegrationID, externalID: event.ExternalID}
	now := time.Now().UTC()

	if existing, ok := s.events[key]; ok {
		event.ID = existing.ID
		event.CreatedAt = existing.CreatedAt
	} else {
		event.ID = s.nextID
		s.nextID++
		if event.CreatedAt.IsZero() {
			event.CreatedAt = now
		}
	}
	event.UpdatedAt = now

	s.events[key] = *event
	return nil
}

// Get retrieves an event by integration and external ID.
func (s *EventStore) Get(_ context.Context, integrationID int64, externalID string) (*domain.CalendarEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	event, ok := s.events[eventKey{integrationID: integrationID, externalID: externalID}]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &event, nil
}

// ListForCalendar returns events for an integration's calendar
// overlapping [start, end). Zero start and end return every event on
// the calendar.
func (s *EventStore) ListForCalendar(
	_ context.Context,
	integrationID int64,
	calendarID string,
	start, end time.Time,
) ([]domain.CalendarEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := start.IsZero() && end.IsZero()
	var result []domain.CalendarEvent
	for key := range s.events {
		event := s.events[key]
		if event.IntegrationID != integrationID || event.CalendarID != calendarID {
			continue
		}
		if all || event.Overlaps(start, end) {
			result = append(result, event)
		}
	}
	sortEventsByStart(result)
	return result, nil
}

// ListForUserRange returns a user's non-cancelled events overlapping
// [start, end), ordered by start time ascending.
func (s *EventStore) ListForUserRange(
	_ context.Context,
	userID int64,
	start, end time.Time,
) ([]domain.CalendarEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.CalendarEvent
	for key := range s.events {
		event := s.events[key]
		if event.UserID != userID || event.Status == domain.EventCancelled {
			continue
		}
		if event.Overlaps(start, end) {
			result = append(result, event)
		}
	}
	sortEventsByStart(result)
	return result, nil
}

// MarkCancelled flips an event's status to cancelled.
func (s *EventStore) MarkCancelled(_ context.Context, integrationID int64, externalID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := eventKey{integrationID: integrationID, externalID: externalID}
	event, ok := s.events[key]
	if !ok {
		return domain.ErrNotFound
	}
	event.Status = domain.EventCancelled
	event.UpdatedAt = at
	event.SyncedAt = at
	s.events[key] = event
	return nil
}

// DeleteEndedBefore purges events whose end time precedes the cutoff,
// cascading into derived busy blocks when a block store is wired.
func (s *EventStore) DeleteEndedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for key := range s.events {
		event := s.events[key]
		if !event.EndTime.Before(cutoff) {
			continue
		}
		delete(s.events, key)
		removed++

		if s.blocks != nil {
			// Best-effort cascade; the key scheme matches BusyBlockKey.
			_ = s.blocks.RemoveForEvent(ctx, &event)
		}
	}
	return removed, nil
}

// CountEndedBefore reports how many events a cleanup would remove.
func (s *EventStore) CountEndedBefore(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for key := range s.events {
		if s.events[key].EndTime.Before(cutoff) {
			count++
		}
	}
	return count, nil
}

// sortEventsByStart orders events ascending by start time, then by ID.
func sortEventsByStart(events []domain.CalendarEvent) {
	sort.Slice(events, func(i, j int) bool {
		if events[i].StartTime.Equal(events[j].StartTime) {
			return events[i].ID < events[j].ID
		}
		return events[i].StartTime.Before(events[j].StartTime)
	})
}
