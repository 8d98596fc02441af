// Package adapters holds the billing vendor adapter registry.
package adapters

import (
	"fmt"
	"strings"
	"sync"

	providerdomain "github.com/berhanpolat/ev-server/internal/provider/domain"
)

// Registry maps vendor names to adapter factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]providerdomain.AdapterFactory
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]providerdomain.AdapterFactory)}
}

// Register adds a vendor factory. Registering the same vendor twice is a
// wiring mistake and fails.
func (r *Registry) Register(factory providerdomain.AdapterFactory) error {
	if factory == nil {
		return providerdomain.ErrInvalidProvider
	}
	name := strings.ToLower(strings.TrimSpace(factory.Provider()))
	if name == "" {
		return providerdomain.ErrInvalidProvider
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("provider %q already registered", name)
	}
	r.factories[name] = factory
	return nil
}

// ProviderExists reports whether a factory is registered for the vendor.
func (r *Registry) ProviderExists(name string) bool {
	name = strings.ToLower(strings.TrimSpace(name))
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.factories[name]
	return exists
}

// NewAdapter builds a configured Provider for the vendor.
func (r *Registry) NewAdapter(name string, config providerdomain.AdapterConfig) (providerdomain.Provider, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return nil, providerdomain.ErrInvalidProvider
	}

	r.mu.RLock()
	factory, exists := r.factories[name]
	r.mu.RUnlock()
	if !exists {
		return nil, providerdomain.ErrProviderNotFound
	}

	config.Provider = name
	return factory.NewAdapter(config)
}
