// Package googlemeet implements the Google Meet provider adapter. It is
// Google Calendar with a conference link attached to every created
// event; everything else delegates to the Google Calendar adapter.
package googlemeet

import (
	"context"

	"github.com/skedi/calendar-sync/internal/core/domain"
	"github.com/skedi/calendar-sync/internal/core/ports/driven"
	"github.com/skedi/calendar-sync/internal/providers/google"
)

// Ensure Adapter implements the interface.
var _ driven.ProviderAdapter = (*Adapter)(nil)

// Adapter is the Google Meet provider adapter.
type Adapter struct {
	*google.Adapter
}

// NewAdapter creates a Google Meet adapter.
func NewAdapter() *Adapter {
	return &Adapter{Adapter: google.NewAdapter()}
}

// Type returns the provider this adapter serves.
func (a *Adapter) Type() domain.ProviderType {
	return domain.ProviderGoogleMeet
}

// CreateEvent creates a calendar event with a Meet conference link.
func (a *Adapter) CreateEvent(
	ctx context.Context,
	accessToken string,
	input domain.CreateEventInput,
) (*domain.RemoteEvent, error) {
	input.WithMeetLink = true
	return a.Adapter.CreateEvent(ctx, accessToken, input)
}
