package googlemeet

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/skedi/calendar-sync/internal/core/domain"
)

func TestAdapter_Type(t *testing.T) {
	adapter := NewAdapter()

	// The embedded Google Calendar adapter must not leak its own type.
	assert.Equal(t, domain.ProviderGoogleMeet, adapter.Type())
}
