package driven

import (
	"context"
	"time"

	"github.com/skedi/calendar-sync/internal/core/domain"
)

// IntegrationStore persists linked external calendar accounts.
type IntegrationStore interface {
	// Save stores an integration. Creates when ID is zero (assigning a new
	// ID on the passed struct), updates otherwise.
	Save(ctx context.Context, integration *domain.Integration) error

	// Get retrieves an integration by ID. Returns domain.ErrNotFound when
	// no row exists.
	Get(ctx context.Context, id int64) (*domain.Integration, error)

	// FindActive returns the most recently created active integration for
	// (user, provider), or domain.ErrNotFound.
	FindActive(ctx context.Context, userID int64, provider domain.ProviderType) (*domain.Integration, error)

	// ListByProvider returns all active integrations for a provider,
	// across users.
	ListByProvider(ctx context.Context, provider domain.ProviderType) ([]domain.Integration, error)

	// ListByUser returns all integrations for a user, any status.
	ListByUser(ctx context.Context, userID int64) ([]domain.Integration, error)

	// SetLastSynced updates only the last-synced timestamp.
	SetLastSynced(ctx context.Context, id int64, at time.Time) error

	// Delete removes an integration. Explicit user action only; the sync
	// path never deletes rows.
	Delete(ctx context.Context, id int64) error
}
