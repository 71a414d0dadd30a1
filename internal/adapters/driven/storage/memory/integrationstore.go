// Package memory provides in-memory implementations of the driven
// storage ports, used by tests and ephemeral setups.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/skedi/calendar-sync/internal/core/domain"
	"github.com/skedi/calendar-sync/internal/core/ports/driven"
)

// Ensure IntegrationStore implements the interface.
var _ driven.IntegrationStore = (*IntegrationStore)(nil)

// IntegrationStore is an in-memory implementation of driven.IntegrationStore.
type IntegrationStore struct {
	mu           sync.RWMutex
	integrations map[int64]domain.Integration
	nextID       int64
}

// NewIntegrationStore creates a new in-memory integration store.
func NewIntegrationStore() *IntegrationStore {
	return &IntegrationStore{
		integrations: make(map[int64]domain.Integration),
		nextID:       1,
	}
}

// Save stores an integration, assigning an ID when it has none.
func (s *IntegrationStore) Save(_ context.Context, integration *domain.Integration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	if integration.ID == 0 {
		integration.ID = s.nextID
		s.nextID++
		if integration.CreatedAt.IsZero() {
			integration.CreatedAt = now
		}
	}
	integration.UpdatedAt = now

	s.integrations[integration.ID] = cloneIntegration(integration)
	return nil
}

// Get retrieves an integration by ID.
func (s *IntegrationStore) Get(_ context.Context, id int64) (*domain.Integration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	integration, ok := s.integrations[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	found := cloneIntegration(&integration)
	return &found, nil
}

// FindActive returns the most recently created active integration for
// (user, provider).
func (s *IntegrationStore) FindActive(
	_ context.Context,
	userID int64,
	provider domain.ProviderType,
) (*domain.Integration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var best *domain.Integration
	for id := range s.integrations {
		integration := s.integrations[id]
		if integration.UserID != userID || integration.Provider != provider || !integration.IsActive() {
			continue
		}
		if best == nil || integration.CreatedAt.After(best.CreatedAt) ||
			(integration.CreatedAt.Equal(best.CreatedAt) && integration.ID > best.ID) {
			candidate := cloneIntegration(&integration)
			best = &candidate
		}
	}
	if best == nil {
		return nil, domain.ErrNotFound
	}
	return best, nil
}

// ListByProvider returns all active integrations for a provider.
func (s *IntegrationStore) ListByProvider(
	_ context.Context,
	provider domain.ProviderType,
) ([]domain.Integration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.Integration
	for id := range s.integrations {
		integration := s.integrations[id]
		if integration.Provider == provider && integration.IsActive() {
			result = append(result, cloneIntegration(&integration))
		}
	}
	sortIntegrationsByID(result)
	return result, nil
}

// ListByUser returns all integrations for a user, any status.
func (s *IntegrationStore) ListByUser(_ context.Context, userID int64) ([]domain.Integration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.Integration
	for id := range s.integrations {
		integration := s.integrations[id]
		if integration.UserID == userID {
			result = append(result, cloneIntegration(&integration))
		}
	}
	sortIntegrationsByID(result)
	return result, nil
}

// SetLastSynced updates only the last-synced timestamp.
func (s *IntegrationStore) SetLastSynced(_ context.Context, id int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	integration, ok := s.integrations[id]
	if !ok {
		return domain.ErrNotFound
	}
	integration.LastSynced = at
	integration.UpdatedAt = time.Now().UTC()
	s.integrations[id] = integration
	return nil
}

// Delete removes an integration.
func (s *IntegrationStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.integrations[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.integrations, id)
	return nil
}

// cloneIntegration deep-copies an integration so callers cannot mutate
// stored state through shared slices and maps.
func cloneIntegration(in *domain.Integration) domain.Integration {
	out := *in
	if in.Scopes != nil {
		out.Scopes = append([]string(nil), in.Scopes...)
	}
	if in.Config != nil {
		out.Config = make(map[string]any, len(in.Config))
		for k, v := range in.Config {
			out.Config[k] = v
		}
	}
	return out
}

// sortIntegrationsByID orders a slice ascending by ID for stable output.
func sortIntegrationsByID(integrations []domain.Integration) {
	sort.Slice(integrations, func(i, j int) bool {
		return integrations[i].ID < integrations[j].ID
	})
}
