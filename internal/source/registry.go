package source

import (
	"sync"

	"github.com/soprim/pricebot/internal/model"
)

// Registry manages the configured supplier adapters.
type Registry struct {
	mu       sync.RWMutex
	adapters map[model.Source]Adapter
}

// NewRegistry creates an empty adapter registry.
func NewRegistry() *Registry {
	return &Registry{
		adapters: make(map[model.Source]Adapter),
	}
}

// Register adds an adapter to the registry.
func (r *Registry) Register(a Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[a.Source()] = a
}

// Get returns the adapter for a source, or nil if not registered.
func (r *Registry) Get(src model.Source) Adapter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.adapters[src]
}

// List returns all registered source identifiers.
func (r *Registry) List() []model.Source {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sources := make([]model.Source, 0, len(r.adapters))
	for src := range r.adapters {
		sources = append(sources, src)
	}
	return sources
}
