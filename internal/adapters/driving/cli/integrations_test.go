package cli

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skedi/calendar-sync/internal/adapters/driven/storage/memory"
	"github.com/skedi/calendar-sync/internal/core/domain"
)

func setupIntegrationsTest(t *testing.T) (*memory.IntegrationStore, func()) {
	t.Helper()
	store := memory.NewIntegrationStore()
	oldStore := integrationStore
	integrationStore = store
	return store, func() {
		integrationStore = oldStore
		integrationsUserID, integrationsJSON = 1, false
	}
}

func TestIntegrationsCmd_Empty(t *testing.T) {
	_, cleanup := setupIntegrationsTest(t)
	defer cleanup()

	out, err := execute("integrations")

	assert.NoError(t, err)
	assert.Contains(t, out, "No connected accounts.")
}

func TestIntegrationsCmd_List(t *testing.T) {
	store, cleanup := setupIntegrationsTest(t)
	defer cleanup()

	integration := testIntegration()
	integration.ID = 0
	require.NoError(t, store.Save(context.Background(), integration))

	out, err := execute("integrations", "--user", "1")

	assert.NoError(t, err)
	assert.Contains(t, out, "work@example.com")
	assert.Contains(t, out, "google_calendar")
	assert.Contains(t, out, "Last synced: never")
}

func TestIntegrationsCmd_JSONOmitsTokens(t *testing.T) {
	store, cleanup := setupIntegrationsTest(t)
	defer cleanup()

	integration := testIntegration()
	integration.ID = 0
	integration.AccessToken = "secret-token"
	require.NoError(t, store.Save(context.Background(), integration))

	out, err := execute("integrations", "--user", "1", "--json")

	assert.NoError(t, err)
	assert.Contains(t, out, "work@example.com")
	assert.NotContains(t, out, "secret-token")
}

func TestIntegrationsRemoveCmd(t *testing.T) {
	store, cleanup := setupIntegrationsTest(t)
	defer cleanup()

	integration := testIntegration()
	integration.ID = 0
	require.NoError(t, store.Save(context.Background(), integration))

	out, err := execute("integrations", "remove", "1")

	assert.NoError(t, err)
	assert.Contains(t, out, "Removed")

	_, err = store.Get(context.Background(), 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestIntegrationsRemoveCmd_NotFound(t *testing.T) {
	_, cleanup := setupIntegrationsTest(t)
	defer cleanup()

	_, err := execute("integrations", "remove", "99")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}
