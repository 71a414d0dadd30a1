package file

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skedi/calendar-sync/internal/core/domain"
)

func TestNewStore_DefaultsWithoutFile(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 90, store.RetentionDays())
	assert.Equal(t, 30*24*time.Hour, store.SyncHorizon())
	assert.Equal(t, 8976, store.CallbackPort())
	assert.Empty(t, store.OAuthApps())
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()

	store, err := NewStore(dir)
	require.NoError(t, err)

	store.SetProvider(domain.ProviderGoogleCalendar, domain.OAuthAppConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		Scopes:       []string{"https://www.googleapis.com/auth/calendar"},
		RedirectURI:  "http://localhost:8976/callback",
	})
	require.NoError(t, store.Save())

	reloaded, err := NewStore(dir)
	require.NoError(t, err)

	apps := reloaded.OAuthApps()
	require.Contains(t, apps, domain.ProviderGoogleCalendar)
	assert.Equal(t, "client-id", apps[domain.ProviderGoogleCalendar].ClientID)
}

func TestStore_RateLimitTable_Overrides(t *testing.T) {
	dir := t.TempDir()
	content := `
[rate_limits.google_calendar.sync]
max_requests = 3
window_seconds = 60
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0600))

	store, err := NewStore(dir)
	require.NoError(t, err)

	table := store.RateLimitTable()
	rule, ok := table.Lookup(domain.ProviderGoogleCalendar, domain.EndpointSync)
	require.True(t, ok)
	assert.Equal(t, 3, rule.MaxRequests)
	assert.Equal(t, time.Minute, rule.Window)

	// Unconfigured providers keep defaults.
	_, ok = table.Lookup(domain.ProviderOutlookCalendar, domain.EndpointSync)
	assert.True(t, ok)
}

func TestStore_CacheTTLTable_Overrides(t *testing.T) {
	dir := t.TempDir()
	content := `
[cache_ttl_seconds]
calendars_list = 120
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0600))

	store, err := NewStore(dir)
	require.NoError(t, err)

	ttls := store.CacheTTLTable()
	assert.Equal(t, 2*time.Minute, ttls.TTL(domain.CacheClassCalendarList))
	assert.Equal(t, 24*time.Hour, ttls.TTL(domain.CacheClassUserProfile))
}

func TestStore_SchedulerConfig(t *testing.T) {
	dir := t.TempDir()
	content := `
[scheduler]
enabled = true
sync_interval_minutes = 15
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0600))

	store, err := NewStore(dir)
	require.NoError(t, err)

	cfg := store.SchedulerConfig()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 15*time.Minute, cfg.GetTaskConfig(domain.TaskIDCalendarSync).Interval)
	assert.Equal(t, 24*time.Hour, cfg.GetTaskConfig(domain.TaskIDEventCleanup).Interval)
}
