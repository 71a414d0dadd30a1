package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/skedi/calendar-sync/internal/core/domain"
	"github.com/skedi/calendar-sync/internal/core/ports/driven"
)

// Ensure RateLimitStore implements the interface.
var _ driven.RateLimitStore = (*RateLimitStore)(nil)

// windowKey identifies one fixed-window counter bucket.
type windowKey struct {
	integrationID int64
	endpoint      string
	windowStart   time.Time
}

// RateLimitStore is an in-memory implementation of driven.RateLimitStore.
type RateLimitStore struct {
	mu      sync.RWMutex
	windows map[windowKey]int

	// failing, when set, makes every operation return this error. Tests
	// use it to exercise the limiter's fail-open path.
	failing error
}

// NewRateLimitStore creates a new in-memory rate limit store.
func NewRateLimitStore() *RateLimitStore {
	return &RateLimitStore{
		windows: make(map[windowKey]int),
	}
}

// Fail makes every subsequent operation return err; nil restores
// normal behaviour.
func (s *RateLimitStore) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failing = err
}

// SumSince returns the total request count across windows starting at or
// after since.
func (s *RateLimitStore) SumSince(_ context.Context, integrationID int64, endpoint string, since time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.failing != nil {
		return 0, s.failing
	}

	total := 0
	for key, count := range s.windows {
		if key.integrationID != integrationID || key.endpoint != endpoint {
			continue
		}
		if !key.windowStart.Before(since) {
			total += count
		}
	}
	return total, nil
}

// Increment adds one request to the bucket at windowStart.
func (s *RateLimitStore) Increment(_ context.Context, integrationID int64, endpoint string, windowStart time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failing != nil {
		return s.failing
	}

	key := windowKey{integrationID: integrationID, endpoint: endpoint, windowStart: windowStart.UTC()}
	s.windows[key]++
	return nil
}

// PruneBefore garbage-collects windows older than the cutoff.
func (s *RateLimitStore) PruneBefore(_ context.Context, cutoff time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failing != nil {
		return s.failing
	}

	for key := range s.windows {
		if key.windowStart.Before(cutoff) {
			delete(s.windows, key)
		}
	}
	return nil
}

// ListWindows returns all windows for an (integration, endpoint) pair,
// ordered by window start ascending.
func (s *RateLimitStore) ListWindows(_ context.Context, integrationID int64, endpoint string) ([]domain.RateLimitWindow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.failing != nil {
		return nil, s.failing
	}

	var result []domain.RateLimitWindow
	for key, count := range s.windows {
		if key.integrationID != integrationID || key.endpoint != endpoint {
			continue
		}
		result = append(result, domain.RateLimitWindow{
			IntegrationID: key.integrationID,
			Endpoint:      key.endpoint,
			WindowStart:   key.windowStart,
			RequestCount:  count,
		})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].WindowStart.Before(result[j].WindowStart)
	})
	return result, nil
}
