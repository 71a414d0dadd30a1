package driven

import (
	"context"
	"time"
)

// Cache is a generic key-value store with per-entry expiry.
//
// All operations degrade to a miss on storage failure: a broken cache
// must never turn a sync into a hard outage. Get never returns an entry
// whose expiry has passed.
type Cache interface {
	// Get returns the cached value for key, or (nil, false) on miss.
	Get(ctx context.Context, key string) ([]byte, bool)

	// Set upserts a value with the given TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)

	// Remember returns the cached value for key if present and unexpired;
	// otherwise it calls compute, stores the result with the given TTL and
	// returns it. Compute errors propagate uncached.
	Remember(ctx context.Context, key string, ttl time.Duration, compute func(ctx context.Context) ([]byte, error)) ([]byte, error)

	// Delete removes an entry by key.
	Delete(ctx context.Context, key string)

	// DeleteByPrefix removes all entries whose key starts with prefix.
	DeleteByPrefix(ctx context.Context, prefix string)
}
