package services

import (
	"context"
	"time"

	"github.com/skedi/calendar-sync/internal/core/domain"
	"github.com/skedi/calendar-sync/internal/core/ports/driven"
	"github.com/skedi/calendar-sync/internal/logger"
)

// RateLimiter enforces per-(integration, endpoint) fixed-window request
// quotas backed by persisted counter buckets.
//
// Buckets are created lazily per call timestamp rather than per fixed
// clock tick, so concurrent buckets with slightly different starts can
// coexist; the check sums every bucket inside the lookback window, which
// trades minor over-counting for simplicity.
//
// Storage errors fail open: quota correctness is best-effort and must
// never turn a sync into a hard outage.
type RateLimiter struct {
	table domain.RateLimitTable
	store driven.RateLimitStore

	// now is injected for tests; defaults to time.Now.
	now func() time.Time
}

// NewRateLimiter creates a rate limiter with the given quota table.
func NewRateLimiter(table domain.RateLimitTable, store driven.RateLimitStore) *RateLimiter {
	return &RateLimiter{
		table: table,
		store: store,
		now:   time.Now,
	}
}

// Check counts the request against the quota for (integration, endpoint).
// It fails with domain.ErrRateLimited when the quota for the current
// window is exhausted; endpoints without a configured rule are unlimited.
func (l *RateLimiter) Check(ctx context.Context, integration *domain.Integration, endpoint string) error {
	rule, ok := l.table.Lookup(integration.Provider, endpoint)
	if !ok {
		return nil
	}

	now := l.now().UTC()
	since := now.Add(-rule.Window)

	used, err := l.store.SumSince(ctx, integration.ID, endpoint, since)
	if err != nil {
		logger.Warn("Rate limit check failed for integration %d (%s): %v — allowing request",
			integration.ID, endpoint, err)
		return nil
	}

	if used >= rule.MaxRequests {
		return domain.NewIntegrationError(integration, endpoint, domain.ErrRateLimited)
	}

	if err := l.store.Increment(ctx, integration.ID, endpoint, now); err != nil {
		logger.Warn("Rate limit increment failed for integration %d (%s): %v",
			integration.ID, endpoint, err)
	}
	return nil
}

// Prune garbage-collects counter buckets older than the longest
// configured window, including buckets orphaned by deleted integrations.
func (l *RateLimiter) Prune(ctx context.Context) error {
	var longest time.Duration
	for _, rules := range l.table {
		for _, rule := range rules {
			if rule.Window > longest {
				longest = rule.Window
			}
		}
	}
	if longest == 0 {
		longest = time.Hour
	}
	return l.store.PruneBefore(ctx, l.now().UTC().Add(-longest))
}
