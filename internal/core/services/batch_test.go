package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skedi/calendar-sync/internal/adapters/driven/storage/memory"
	"github.com/skedi/calendar-sync/internal/core/domain"
)

// batchSync is a scriptable driving.CalendarSync for batch tests.
type batchSync struct {
	syncedIDs []int64
	failFor   map[int64]error
}

func (b *batchSync) SyncEvents(_ context.Context, integration *domain.Integration, _, _ time.Time) ([]domain.CalendarEvent, error) {
	if err, ok := b.failFor[integration.ID]; ok {
		return nil, err
	}
	b.syncedIDs = append(b.syncedIDs, integration.ID)
	return nil, nil
}

func (b *batchSync) Calendars(context.Context, *domain.Integration) ([]domain.Calendar, error) {
	return nil, nil
}

func (b *batchSync) CreateEvent(context.Context, *domain.Integration, domain.CreateEventInput) (*domain.RemoteEvent, error) {
	return nil, nil
}

func (b *batchSync) EventsForRange(context.Context, int64, time.Time, time.Time) ([]domain.CalendarEvent, error) {
	return nil, nil
}

func seedBatchIntegration(t *testing.T, store *memory.IntegrationStore, lastSynced time.Time) *domain.Integration {
	t.Helper()
	integration := activeIntegration(0, 7)
	integration.LastSynced = lastSynced
	require.NoError(t, store.Save(context.Background(), integration))
	return integration
}

func TestSyncAllForProvider_SkipsRecentlySynced(t *testing.T) {
	store := memory.NewIntegrationStore()
	sync := &batchSync{}
	service := NewBatchService(store, memory.NewEventStore(), sync, 0)

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	service.now = func() time.Time { return now }

	stale := seedBatchIntegration(t, store, now.Add(-2*time.Hour))
	seedBatchIntegration(t, store, now.Add(-10*time.Minute))
	never := seedBatchIntegration(t, store, time.Time{})

	report, err := service.SyncAllForProvider(
		context.Background(), domain.ProviderGoogleCalendar, false)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Synced)
	assert.Equal(t, 1, report.Skipped)
	assert.Zero(t, report.Failed)
	assert.ElementsMatch(t, []int64{stale.ID, never.ID}, sync.syncedIDs)
}

func TestSyncAllForProvider_DryRun(t *testing.T) {
	store := memory.NewIntegrationStore()
	sync := &batchSync{}
	service := NewBatchService(store, memory.NewEventStore(), sync, 0)

	seedBatchIntegration(t, store, time.Time{})
	seedBatchIntegration(t, store, time.Time{})

	report, err := service.SyncAllForProvider(
		context.Background(), domain.ProviderGoogleCalendar, true)
	require.NoError(t, err)

	assert.Zero(t, report.Synced)
	assert.Equal(t, 2, report.Skipped)
	assert.Empty(t, sync.syncedIDs)
}

func TestSyncAllForProvider_OneFailureDoesNotStopBatch(t *testing.T) {
	store := memory.NewIntegrationStore()
	first := seedBatchIntegration(t, store, time.Time{})
	second := seedBatchIntegration(t, store, time.Time{})

	sync := &batchSync{failFor: map[int64]error{first.ID: domain.ErrProviderUnavailable}}
	service := NewBatchService(store, memory.NewEventStore(), sync, 0)

	report, err := service.SyncAllForProvider(
		context.Background(), domain.ProviderGoogleCalendar, false)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Synced)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.Errors, 1)
	assert.ErrorIs(t, report.Errors[0], domain.ErrProviderUnavailable)
	assert.Equal(t, []int64{second.ID}, sync.syncedIDs)
}

func TestSyncAllForProvider_LockedIntegrationCountsAsSkipped(t *testing.T) {
	store := memory.NewIntegrationStore()
	locked := seedBatchIntegration(t, store, time.Time{})
	free := seedBatchIntegration(t, store, time.Time{})

	sync := &batchSync{failFor: map[int64]error{locked.ID: domain.ErrSyncInProgress}}
	service := NewBatchService(store, memory.NewEventStore(), sync, 0)

	report, err := service.SyncAllForProvider(
		context.Background(), domain.ProviderGoogleCalendar, false)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Synced)
	assert.Equal(t, 1, report.Skipped)
	assert.Zero(t, report.Failed)
	assert.Empty(t, report.Errors)
	assert.Equal(t, []int64{free.ID}, sync.syncedIDs)
}

func TestCleanupExpiredEvents(t *testing.T) {
	blocks := memory.NewBusyBlockStore()
	events := memory.NewEventStore().WithBusyBlocks(blocks)
	service := NewBatchService(memory.NewIntegrationStore(), events, &batchSync{}, 0)

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	service.now = func() time.Time { return now }

	old := &domain.CalendarEvent{
		UserID: 7, IntegrationID: 1, CalendarID: "primary", ExternalID: "ev-old",
		Title:     "Old",
		StartTime: now.AddDate(0, 0, -120),
		EndTime:   now.AddDate(0, 0, -120).Add(time.Hour),
		Status:    domain.EventConfirmed,
	}
	recent := &domain.CalendarEvent{
		UserID: 7, IntegrationID: 1, CalendarID: "primary", ExternalID: "ev-recent",
		Title:     "Recent",
		StartTime: now.AddDate(0, 0, -1),
		EndTime:   now.AddDate(0, 0, -1).Add(time.Hour),
		Status:    domain.EventConfirmed,
	}
	require.NoError(t, events.Upsert(context.Background(), old))
	require.NoError(t, events.Upsert(context.Background(), recent))

	// Dry run only counts.
	count, err := service.CleanupExpiredEvents(context.Background(), 90, true)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	_, err = events.Get(context.Background(), 1, "ev-old")
	assert.NoError(t, err)

	removed, err := service.CleanupExpiredEvents(context.Background(), 90, false)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	_, err = events.Get(context.Background(), 1, "ev-old")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = events.Get(context.Background(), 1, "ev-recent")
	assert.NoError(t, err)
}

func TestCleanupExpiredEvents_RequiresPositiveDays(t *testing.T) {
	service := NewBatchService(memory.NewIntegrationStore(), memory.NewEventStore(), &batchSync{}, 0)

	_, err := service.CleanupExpiredEvents(context.Background(), 0, false)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
