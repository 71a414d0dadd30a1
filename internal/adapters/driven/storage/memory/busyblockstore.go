package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/skedi/calendar-sync/internal/core/domain"
	"github.com/skedi/calendar-sync/internal/core/ports/driven"
)

// Ensure BusyBlockStore implements the interface.
var _ driven.BusyBlockPublisher = (*BusyBlockStore)(nil)

// BusyBlockStore is an in-memory implementation of driven.BusyBlockPublisher.
type BusyBlockStore struct {
	mu     sync.RWMutex
	blocks map[string]domain.BusyBlock
}

// NewBusyBlockStore creates a new in-memory busy block store.
func NewBusyBlockStore() *BusyBlockStore {
	return &BusyBlockStore{
		blocks: make(map[string]domain.BusyBlock),
	}
}

// Publish upserts a busy block by key.
func (s *BusyBlockStore) Publish(_ context.Context, block domain.BusyBlock) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if block.UpdatedAt.IsZero() {
		block.UpdatedAt = time.Now().UTC()
	}
	s.blocks[block.Key] = block
	return nil
}

// Remove deletes a busy block by key. Absent keys are not an error.
func (s *BusyBlockStore) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blocks, key)
	return nil
}

// ListForUser returns all busy blocks for a user, ordered by start time.
func (s *BusyBlockStore) ListForUser(_ context.Context, userID int64) ([]domain.BusyBlock, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.BusyBlock
	for key := range s.blocks {
		block := s.blocks[key]
		if block.UserID == userID {
			result = append(result, block)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].StartTime.Equal(result[j].StartTime) {
			return result[i].Key < result[j].Key
		}
		return result[i].StartTime.Before(result[j].StartTime)
	})
	return result, nil
}

// RemoveForEvent removes any block derived from a mirrored event. The
// provider prefix varies per key, so matching is by integration and the
// {calendarID}_{externalEventID} suffix.
func (s *BusyBlockStore) RemoveForEvent(_ context.Context, event *domain.CalendarEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	suffix := fmt.Sprintf("_%s_%s", event.CalendarID, event.ExternalID)
	for key := range s.blocks {
		block := s.blocks[key]
		if block.IntegrationID == event.IntegrationID && strings.HasSuffix(key, suffix) {
			delete(s.blocks, key)
		}
	}
	return nil
}

// Len reports the number of stored blocks. For tests.
func (s *BusyBlockStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blocks)
}
