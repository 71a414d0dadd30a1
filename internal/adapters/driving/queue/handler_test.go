package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skedi/calendar-sync/internal/adapters/driven/storage/memory"
	"github.com/skedi/calendar-sync/internal/core/domain"
)

type stubSync struct {
	syncedIntegration int64
	syncedStart       time.Time
	syncedEnd         time.Time
	syncErr           error

	createdInput domain.CreateEventInput
	createErr    error
}

func (s *stubSync) SyncEvents(_ context.Context, integration *domain.Integration, start, end time.Time) ([]domain.CalendarEvent, error) {
	if s.syncErr != nil {
		return nil, s.syncErr
	}
	s.syncedIntegration = integration.ID
	s.syncedStart = start
	s.syncedEnd = end
	return []domain.CalendarEvent{{IntegrationID: integration.ID}}, nil
}

func (s *stubSync) Calendars(context.Context, *domain.Integration) ([]domain.Calendar, error) {
	return nil, nil
}

func (s *stubSync) CreateEvent(_ context.Context, _ *domain.Integration, input domain.CreateEventInput) (*domain.RemoteEvent, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	s.createdInput = input
	return &domain.RemoteEvent{ExternalID: "created-1"}, nil
}

func (s *stubSync) EventsForRange(context.Context, int64, time.Time, time.Time) ([]domain.CalendarEvent, error) {
	return nil, nil
}

type stubAuth struct {
	integration *domain.Integration
	err         error
}

func (a *stubAuth) AuthURL(domain.ProviderType, string) (string, error) { return "", nil }

func (a *stubAuth) HandleCallback(context.Context, int64, domain.ProviderType, string) (*domain.Integration, error) {
	return nil, nil
}

func (a *stubAuth) UserIntegration(context.Context, int64, domain.ProviderType, int64) (*domain.Integration, error) {
	return a.integration, a.err
}

func (a *stubAuth) EnsureValidToken(context.Context, *domain.Integration) error { return nil }

func newTestHandler(t *testing.T, sync *stubSync, auth *stubAuth) (*Handler, *memory.IntegrationStore) {
	t.Helper()
	store := memory.NewIntegrationStore()
	handler := NewHandler(store, auth, sync)
	handler.now = func() time.Time {
		return time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)
	}
	return handler, store
}

func seedIntegration(t *testing.T, store *memory.IntegrationStore, status domain.IntegrationStatus) *domain.Integration {
	t.Helper()
	integration := &domain.Integration{
		UserID:     7,
		Provider:   domain.ProviderGoogleCalendar,
		ExternalID: "acct-1",
		Status:     status,
	}
	require.NoError(t, store.Save(context.Background(), integration))
	return integration
}

func TestHandleSync_DefaultsRange(t *testing.T) {
	sync := &stubSync{}
	handler, store := newTestHandler(t, sync, &stubAuth{})
	integration := seedIntegration(t, store, domain.IntegrationActive)

	payload := []byte(`{"integration_id": 1}`)
	require.NoError(t, handler.HandleSync(context.Background(), payload))

	assert.Equal(t, integration.ID, sync.syncedIntegration)
	assert.True(t, sync.syncedStart.Equal(time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)))
	assert.True(t, sync.syncedEnd.Equal(time.Date(2026, 4, 9, 0, 0, 0, 0, time.UTC)))
}

func TestHandleSync_RelativeDates(t *testing.T) {
	sync := &stubSync{}
	handler, store := newTestHandler(t, sync, &stubAuth{})
	seedIntegration(t, store, domain.IntegrationActive)

	payload := []byte(`{"integration_id": 1, "start_date": "today", "end_date": "+7 days"}`)
	require.NoError(t, handler.HandleSync(context.Background(), payload))

	assert.True(t, sync.syncedEnd.Equal(time.Date(2026, 3, 17, 0, 0, 0, 0, time.UTC)))
}

func TestHandleSync_InactiveIntegrationSkipped(t *testing.T) {
	sync := &stubSync{}
	handler, store := newTestHandler(t, sync, &stubAuth{})
	seedIntegration(t, store, domain.IntegrationExpired)

	payload := []byte(`{"integration_id": 1}`)
	require.NoError(t, handler.HandleSync(context.Background(), payload))
	assert.Zero(t, sync.syncedIntegration)
}

func TestHandleSync_Validation(t *testing.T) {
	handler, _ := newTestHandler(t, &stubSync{}, &stubAuth{})

	err := handler.HandleSync(context.Background(), []byte(`not json`))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	err = handler.HandleSync(context.Background(), []byte(`{}`))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	err = handler.HandleSync(context.Background(),
		[]byte(`{"integration_id": 1, "start_date": "+7 days", "end_date": "today"}`))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestHandleSync_MissingIntegration(t *testing.T) {
	handler, _ := newTestHandler(t, &stubSync{}, &stubAuth{})

	err := handler.HandleSync(context.Background(), []byte(`{"integration_id": 42}`))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestHandleSync_PropagatesSyncError(t *testing.T) {
	sync := &stubSync{syncErr: domain.ErrSyncInProgress}
	handler, store := newTestHandler(t, sync, &stubAuth{})
	seedIntegration(t, store, domain.IntegrationActive)

	err := handler.HandleSync(context.Background(), []byte(`{"integration_id": 1}`))
	assert.ErrorIs(t, err, domain.ErrSyncInProgress)
}

func TestHandleCreateEvent(t *testing.T) {
	sync := &stubSync{}
	auth := &stubAuth{integration: &domain.Integration{
		ID:       3,
		UserID:   7,
		Provider: domain.ProviderGoogleCalendar,
		Status:   domain.IntegrationActive,
	}}
	handler, _ := newTestHandler(t, sync, auth)

	payload := []byte(`{
		"user_id": 7,
		"provider": "google_calendar",
		"title": "Planning",
		"start_time": "2026-03-12T09:00:00Z",
		"end_time": "2026-03-12T10:00:00Z",
		"attendees": ["a@example.com"]
	}`)
	require.NoError(t, handler.HandleCreateEvent(context.Background(), payload))

	assert.Equal(t, "Planning", sync.createdInput.Title)
	assert.Equal(t, []string{"a@example.com"}, sync.createdInput.Attendees)
	assert.True(t, sync.createdInput.StartTime.Equal(time.Date(2026, 3, 12, 9, 0, 0, 0, time.UTC)))
}

func TestHandleCreateEvent_UnknownProvider(t *testing.T) {
	handler, _ := newTestHandler(t, &stubSync{}, &stubAuth{})

	payload := []byte(`{"user_id": 7, "provider": "carrier_pigeon", "title": "x",
		"start_time": "2026-03-12T09:00:00Z", "end_time": "2026-03-12T10:00:00Z"}`)
	err := handler.HandleCreateEvent(context.Background(), payload)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestHandleCreateEvent_NoIntegration(t *testing.T) {
	auth := &stubAuth{err: domain.ErrNotFound}
	handler, _ := newTestHandler(t, &stubSync{}, auth)

	payload := []byte(`{"user_id": 7, "provider": "google_calendar", "title": "x",
		"start_time": "2026-03-12T09:00:00Z", "end_time": "2026-03-12T10:00:00Z"}`)
	err := handler.HandleCreateEvent(context.Background(), payload)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestHandle_Dispatch(t *testing.T) {
	sync := &stubSync{}
	handler, store := newTestHandler(t, sync, &stubAuth{})
	seedIntegration(t, store, domain.IntegrationActive)

	err := handler.Handle(context.Background(), TypeSync, []byte(`{"integration_id": 1}`))
	require.NoError(t, err)

	err = handler.Handle(context.Background(), "calendar.unknown", []byte(`{}`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}
