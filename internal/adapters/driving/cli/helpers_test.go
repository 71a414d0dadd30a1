package cli

import (
	"bytes"
	"context"
	"time"

	"github.com/skedi/calendar-sync/internal/core/domain"
	"github.com/skedi/calendar-sync/internal/core/ports/driving"
)

// mockAuthenticator implements driving.Authenticator for testing.
type mockAuthenticator struct {
	integration *domain.Integration
	err         error
}

func (m *mockAuthenticator) AuthURL(domain.ProviderType, string) (string, error) {
	return "https://example.com/authorize", nil
}

func (m *mockAuthenticator) HandleCallback(context.Context, int64, domain.ProviderType, string) (*domain.Integration, error) {
	return m.integration, m.err
}

func (m *mockAuthenticator) UserIntegration(context.Context, int64, domain.ProviderType, int64) (*domain.Integration, error) {
	return m.integration, m.err
}

func (m *mockAuthenticator) EnsureValidToken(context.Context, *domain.Integration) error {
	return nil
}

// mockCalendarSync implements driving.CalendarSync for testing.
type mockCalendarSync struct {
	events    []domain.CalendarEvent
	calendars []domain.Calendar
	created   *domain.RemoteEvent
	err       error
}

func (m *mockCalendarSync) SyncEvents(context.Context, *domain.Integration, time.Time, time.Time) ([]domain.CalendarEvent, error) {
	return m.events, m.err
}

func (m *mockCalendarSync) Calendars(context.Context, *domain.Integration) ([]domain.Calendar, error) {
	return m.calendars, m.err
}

func (m *mockCalendarSync) CreateEvent(context.Context, *domain.Integration, domain.CreateEventInput) (*domain.RemoteEvent, error) {
	return m.created, m.err
}

func (m *mockCalendarSync) EventsForRange(context.Context, int64, time.Time, time.Time) ([]domain.CalendarEvent, error) {
	return m.events, m.err
}

// mockBatchRunner implements driving.BatchRunner for testing.
type mockBatchRunner struct {
	report  *driving.BatchReport
	removed int64
	err     error
}

func (m *mockBatchRunner) SyncAllForProvider(context.Context, domain.ProviderType, bool) (*driving.BatchReport, error) {
	return m.report, m.err
}

func (m *mockBatchRunner) CleanupExpiredEvents(context.Context, int, bool) (int64, error) {
	return m.removed, m.err
}

// execute runs the root command with args and captures output.
func execute(args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}

func testIntegration() *domain.Integration {
	return &domain.Integration{
		ID:         3,
		UserID:     1,
		Provider:   domain.ProviderGoogleCalendar,
		ExternalID: "acct-1",
		Name:       "work@example.com",
		Status:     domain.IntegrationActive,
	}
}
