package integration

import (
	"fmt"
	"sort"
	"sync"
)

// AdapterRegistry looks up marketplace adapters by source
type AdapterRegistry struct {
	mu       sync.RWMutex
	adapters map[SourceName]MarketplaceAdapter
}

// NewAdapterRegistry creates a registry holding the given adapters
func NewAdapterRegistry(adapters ...MarketplaceAdapter) *AdapterRegistry {
	r := &AdapterRegistry{adapters: make(map[SourceName]MarketplaceAdapter, len(adapters))}
	for _, a := range adapters {
		r.Register(a)
	}
	return r
}

// Register adds or replaces the adapter for its source
func (r *AdapterRegistry) Register(adapter MarketplaceAdapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[adapter.Source()] = adapter
}

// Get returns the adapter for source
func (r *AdapterRegistry) Get(source SourceName) (MarketplaceAdapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[source]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSourceUnknown, source)
	}
	return a, nil
}

// Sources returns registered sources in a stable order
func (r *AdapterRegistry) Sources() []SourceName {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]SourceName, 0, len(r.adapters))
	for s := range r.adapters {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
