package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/skedi/calendar-sync/internal/core/domain"
	"github.com/skedi/calendar-sync/internal/core/ports/driven"
	"github.com/skedi/calendar-sync/internal/core/ports/driving"
	"github.com/skedi/calendar-sync/internal/logger"
)

// Ensure SyncService implements the interface.
var _ driving.CalendarSync = (*SyncService)(nil)

// SyncService reconciles the local event mirror against provider
// calendars and republishes availability.
type SyncService struct {
	auth         driving.Authenticator
	registry     driven.ProviderRegistry
	integrations driven.IntegrationStore
	events       driven.EventStore
	busy         driven.BusyBlockPublisher
	limiter      *RateLimiter
	cache        driven.Cache
	ttls         domain.CacheTTLTable
	locker       driven.SyncLocker

	// now is injected for tests; defaults to time.Now.
	now func() time.Time
}

// NewSyncService creates the sync engine. Cache is optional; calendar
// lists are fetched uncached when nil.
func NewSyncService(
	auth driving.Authenticator,
	registry driven.ProviderRegistry,
	integrations driven.IntegrationStore,
	events driven.EventStore,
	busy driven.BusyBlockPublisher,
	limiter *RateLimiter,
	cache driven.Cache,
	ttls domain.CacheTTLTable,
	locker driven.SyncLocker,
) *SyncService {
	return &SyncService{
		auth:         auth,
		registry:     registry,
		integrations: integrations,
		events:       events,
		busy:         busy,
		limiter:      limiter,
		cache:        cache,
		ttls:         ttls,
		locker:       locker,
		now:          time.Now,
	}
}

// SyncEvents reconciles the integration's configured calendars for
// [start, end).
//
// The ordering below is the correctness core of the engine:
//
//  1. Fetch every calendar's remote events for the whole range first.
//     Any fetch failure aborts before the mirror is touched beyond
//     idempotent upserts, so the cancellation pass can never run against
//     a partially fetched range and wrongly cancel live events.
//  2. Upsert remote events and collect the keep-list of external IDs.
//  3. Flip local events absent from the keep-list to cancelled (soft
//     tombstone; rows are never deleted here).
//  4. Republish busy blocks for busy events and retract blocks for
//     events that stopped being busy.
func (s *SyncService) SyncEvents(
	ctx context.Context,
	integration *domain.Integration,
	start, end time.Time,
) ([]domain.CalendarEvent, error) {
	if err := domain.ValidateRange(start, end); err != nil {
		return nil, err
	}

	// Two concurrent syncs for one integration could race the keep-list
	// and cancel each other's upserts.
	if !s.locker.TryLock(integration.ID) {
		return nil, domain.NewIntegrationError(integration, domain.EndpointSync, domain.ErrSyncInProgress)
	}
	defer s.locker.Unlock(integration.ID)

	if err := s.auth.EnsureValidToken(ctx, integration); err != nil {
		return nil, err
	}
	if err := s.limiter.Check(ctx, integration, domain.EndpointSync); err != nil {
		return nil, err
	}

	adapter, err := s.registry.Adapter(integration.Provider)
	if err != nil {
		return nil, err
	}

	calendarIDs := integration.CalendarIDs()
	logger.Debug("Syncing integration %d (%s): %d calendar(s), %s to %s",
		integration.ID, integration.Provider, len(calendarIDs),
		start.Format(time.RFC3339), end.Format(time.RFC3339))

	// Phase 1: fetch the entire requested range before reconciling.
	remote := make(map[string][]domain.RemoteEvent, len(calendarIDs))
	for _, calID := range calendarIDs {
		events, err := adapter.FetchEvents(ctx, integration.AccessToken, calID, start, end)
		if err != nil {
			return nil, domain.NewIntegrationError(integration, domain.EndpointSync,
				fmt.Errorf("fetch calendar %s: %w", calID, err))
		}
		remote[calID] = events
	}

	now := s.now().UTC()
	var upserted []domain.CalendarEvent

	// Phase 2: upsert the mirror and collect the keep-list per calendar.
	keep := make(map[string]map[string]bool, len(calendarIDs))
	for calID, events := range remote {
		keep[calID] = make(map[string]bool, len(events))
		for i := range events {
			event := s.mirrorEvent(integration, &events[i], now)
			if err := s.events.Upsert(ctx, event); err != nil {
				return nil, fmt.Errorf("upsert event %s: %w", event.ExternalID, err)
			}
			keep[calID][event.ExternalID] = true
			upserted = append(upserted, *event)
		}
	}

	// Phase 3: soft-cancel local events the provider no longer returns.
	// Safe here because every calendar fetch above succeeded.
	cancelled := 0
	for _, calID := range calendarIDs {
		local, err := s.events.ListForCalendar(ctx, integration.ID, calID, start, end)
		if err != nil {
			return nil, fmt.Errorf("list mirrored events: %w", err)
		}
		for i := range local {
			event := &local[i]
			if keep[calID][event.ExternalID] || event.Status == domain.EventCancelled {
				continue
			}
			if err := s.events.MarkCancelled(ctx, integration.ID, event.ExternalID, now); err != nil {
				return nil, fmt.Errorf("cancel event %s: %w", event.ExternalID, err)
			}
			s.retractBusyBlock(ctx, integration, event)
			cancelled++
		}
	}

	// Phase 4: republish availability for the upserted rows.
	for i := range upserted {
		s.publishBusyBlock(ctx, integration, &upserted[i], now)
	}

	integration.LastSynced = now
	if err := s.integrations.SetLastSynced(ctx, integration.ID, now); err != nil {
		return nil, fmt.Errorf("record last synced: %w", err)
	}

	logger.Info("Synced integration %d: %d upserted, %d cancelled",
		integration.ID, len(upserted), cancelled)
	return upserted, nil
}

// Calendars returns the integration's calendar list, served from cache
// within the calendars_list TTL class.
func (s *SyncService) Calendars(ctx context.Context, integration *domain.Integration) ([]domain.Calendar, error) {
	if err := s.auth.EnsureValidToken(ctx, integration); err != nil {
		return nil, err
	}
	if err := s.limiter.Check(ctx, integration, domain.EndpointDefault); err != nil {
		return nil, err
	}

	adapter, err := s.registry.Adapter(integration.Provider)
	if err != nil {
		return nil, err
	}

	fetch := func(ctx context.Context) ([]byte, error) {
		calendars, err := adapter.ListCalendars(ctx, integration.AccessToken)
		if err != nil {
			return nil, domain.NewIntegrationError(integration, "calendars", err)
		}
		return json.Marshal(calendars)
	}

	var payload []byte
	if s.cache != nil {
		key := fmt.Sprintf("%s:%d", domain.CacheClassCalendarList, integration.ID)
		payload, err = s.cache.Remember(ctx, key, s.ttls.TTL(domain.CacheClassCalendarList), fetch)
	} else {
		payload, err = fetch(ctx)
	}
	if err != nil {
		return nil, err
	}

	var calendars []domain.Calendar
	if err := json.Unmarshal(payload, &calendars); err != nil {
		return nil, fmt.Errorf("decode cached calendars: %w", err)
	}
	return calendars, nil
}

// CreateEvent creates an event at the provider. The mirror is left
// untouched so create and sync stay independent, idempotent operations.
func (s *SyncService) CreateEvent(
	ctx context.Context,
	integration *domain.Integration,
	input domain.CreateEventInput,
) (*domain.RemoteEvent, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	if err := s.auth.EnsureValidToken(ctx, integration); err != nil {
		return nil, err
	}
	if err := s.limiter.Check(ctx, integration, domain.EndpointCreate); err != nil {
		return nil, err
	}

	adapter, err := s.registry.Adapter(integration.Provider)
	if err != nil {
		return nil, err
	}

	created, err := adapter.CreateEvent(ctx, integration.AccessToken, input)
	if err != nil {
		return nil, domain.NewIntegrationError(integration, domain.EndpointCreate, err)
	}

	logger.Info("Created event %s on integration %d", created.ExternalID, integration.ID)
	return created, nil
}

// EventsForRange returns a user's non-cancelled mirrored events
// overlapping [start, end). No provider call is made.
func (s *SyncService) EventsForRange(
	ctx context.Context,
	userID int64,
	start, end time.Time,
) ([]domain.CalendarEvent, error) {
	if err := domain.ValidateRange(start, end); err != nil {
		return nil, err
	}
	return s.events.ListForUserRange(ctx, userID, start, end)
}

// mirrorEvent maps a remote event onto a mirror row.
func (s *SyncService) mirrorEvent(
	integration *domain.Integration,
	remote *domain.RemoteEvent,
	now time.Time,
) *domain.CalendarEvent {
	status := remote.Status
	if status == "" {
		status = domain.EventConfirmed
	}
	transparency := remote.Transparency
	if transparency == "" {
		transparency = domain.TransparencyOpaque
	}

	return &domain.CalendarEvent{
		UserID:         integration.UserID,
		IntegrationID:  integration.ID,
		CalendarID:     remote.CalendarID,
		CalendarName:   remote.CalendarName,
		ExternalID:     remote.ExternalID,
		Title:          remote.Title,
		Description:    remote.Description,
		Location:       remote.Location,
		StartTime:      remote.StartTime,
		EndTime:        remote.EndTime,
		AllDay:         remote.AllDay,
		Status:         status,
		Transparency:   transparency,
		OrganizerEmail: remote.OrganizerEmail,
		IsOrganizer:    remote.IsOrganizer,
		HTMLLink:       remote.HTMLLink,
		ETag:           remote.ETag,
		SyncedAt:       now,
	}
}

// publishBusyBlock upserts or retracts the availability block for an
// event depending on whether it blocks time. Best-effort: availability
// publication failures are logged, not fatal to the sync.
func (s *SyncService) publishBusyBlock(
	ctx context.Context,
	integration *domain.Integration,
	event *domain.CalendarEvent,
	now time.Time,
) {
	if s.busy == nil {
		return
	}
	key := event.BusyBlockKey(integration.Provider)
	if !event.IsBusy() {
		if err := s.busy.Remove(ctx, key); err != nil {
			logger.Warn("Failed to retract busy block %s: %v", key, err)
		}
		return
	}
	block := domain.BusyBlock{
		Key:           key,
		UserID:        integration.UserID,
		IntegrationID: integration.ID,
		StartTime:     event.StartTime,
		EndTime:       event.EndTime,
		UpdatedAt:     now,
	}
	if err := s.busy.Publish(ctx, block); err != nil {
		logger.Warn("Failed to publish busy block %s: %v", key, err)
	}
}

// retractBusyBlock removes the availability block for a cancelled event.
func (s *SyncService) retractBusyBlock(
	ctx context.Context,
	integration *domain.Integration,
	event *domain.CalendarEvent,
) {
	if s.busy == nil {
		return
	}
	key := event.BusyBlockKey(integration.Provider)
	if err := s.busy.Remove(ctx, key); err != nil {
		logger.Warn("Failed to retract busy block %s: %v", key, err)
	}
}
