package carrier

import (
	"fmt"
	"sync"
)

// Registry maps carrier identifiers to adapters. It is populated at startup
// and read concurrently afterwards.
type Registry struct {
	carriers map[string]Carrier
	order    []string
	mu       sync.RWMutex
}

// NewRegistry creates a new carrier registry.
func NewRegistry() *Registry {
	return &Registry{
		carriers: make(map[string]Carrier),
	}
}

// Register adds a carrier under its own identifier. Registering an identifier
// twice fails and leaves the first registration in place.
func (r *Registry) Register(c Carrier) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := c.ID()
	if _, ok := r.carriers[id]; ok {
		return fmt.Errorf("%w: carrier %q is already registered", ErrDuplicateCarrier, id)
	}
	r.carriers[id] = c
	r.order = append(r.order, id)
	return nil
}

// Get returns a carrier by identifier.
func (r *Registry) Get(id string) (Carrier, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if c, ok := r.carriers[id]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("%w: carrier %q is not registered", ErrCarrierNotFound, id)
}

// Has reports whether a carrier is registered under id.
func (r *Registry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.carriers[id]
	return ok
}

// All returns all registered carriers in registration order.
func (r *Registry) All() []Carrier {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]Carrier, 0, len(r.order))
	for _, id := range r.order {
		result = append(result, r.carriers[id])
	}
	return result
}

// IDs returns the identifiers of all registered carriers in registration order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, len(r.order))
	copy(ids, r.order)
	return ids
}

// Count returns the number of registered carriers.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
