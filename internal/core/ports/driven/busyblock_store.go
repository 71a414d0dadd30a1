package driven

import (
	"context"

	"github.com/skedi/calendar-sync/internal/core/domain"
)

// BusyBlockPublisher publishes availability-blocking intervals derived
// from mirrored events. Blocks are keyed by
// {provider}_{calendarID}_{externalEventID} so identity stays stable
// across resyncs.
type BusyBlockPublisher interface {
	// Publish upserts a busy block by key.
	Publish(ctx context.Context, block domain.BusyBlock) error

	// Remove deletes a busy block by key. Removing an absent key is not
	// an error.
	Remove(ctx context.Context, key string) error

	// ListForUser returns all busy blocks for a user.
	ListForUser(ctx context.Context, userID int64) ([]domain.BusyBlock, error)
}
