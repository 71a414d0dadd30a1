package driven

import (
	"context"
	"time"

	"github.com/skedi/calendar-sync/internal/core/domain"
)

// RateLimitStore persists fixed-window request counters.
type RateLimitStore interface {
	// SumSince returns the total request count across all windows for
	// (integration, endpoint) with a window start at or after since.
	SumSince(ctx context.Context, integrationID int64, endpoint string, since time.Time) (int, error)

	// Increment adds one request to the bucket at windowStart, creating
	// the bucket when absent.
	Increment(ctx context.Context, integrationID int64, endpoint string, windowStart time.Time) error

	// PruneBefore garbage-collects windows older than the cutoff,
	// including windows orphaned by deleted integrations.
	PruneBefore(ctx context.Context, cutoff time.Time) error

	// ListWindows returns all windows for an (integration, endpoint) pair.
	// Primarily for tests and diagnostics.
	ListWindows(ctx context.Context, integrationID int64, endpoint string) ([]domain.RateLimitWindow, error)
}
