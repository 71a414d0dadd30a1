package providers

import (
	"fmt"
	"sync"

	"github.com/skedi/calendar-sync/internal/core/domain"
	"github.com/skedi/calendar-sync/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.ProviderRegistry = (*Registry)(nil)

// Registry resolves provider adapters by type.
type Registry struct {
	mu       sync.RWMutex
	adapters map[domain.ProviderType]driven.ProviderAdapter
}

// NewRegistry creates a registry holding the given adapters.
func NewRegistry(adapters ...driven.ProviderAdapter) *Registry {
	r := &Registry{
		adapters: make(map[domain.ProviderType]driven.ProviderAdapter, len(adapters)),
	}
	for _, adapter := range adapters {
		r.adapters[adapter.Type()] = adapter
	}
	return r
}

// Register adds or replaces an adapter.
func (r *Registry) Register(adapter driven.ProviderAdapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[adapter.Type()] = adapter
}

// Adapter returns the adapter for a provider type.
func (r *Registry) Adapter(provider domain.ProviderType) (driven.ProviderAdapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	adapter, ok := r.adapters[provider]
	if !ok {
		return nil, fmt.Errorf("%w: no adapter registered for provider %q", domain.ErrInvalidInput, provider)
	}
	return adapter, nil
}
