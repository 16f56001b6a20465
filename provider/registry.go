package provider

import (
	"fmt"
	"sort"
	"sync"
)

// Registry keeps factories keyed by family and instances keyed by name.
// Factories are registered once at start-up; instances are created from
// configuration and looked up on every request.
type Registry[T Provider] struct {
	mu        sync.RWMutex
	factories map[string]Factory[T]
	instances map[string]T
}

// NewRegistry creates a new empty Registry.
func NewRegistry[T Provider]() *Registry[T] {
	return &Registry[T]{
		factories: make(map[string]Factory[T]),
		instances: make(map[string]T),
	}
}

// RegisterFactory registers a factory for a family.
func (r *Registry[T]) RegisterFactory(family string, factory Factory[T]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[family] = factory
}

// Create builds an instance with the family's factory and stores it under name.
func (r *Registry[T]) Create(family, name string, settings map[string]any) (T, error) {
	var zero T
	r.mu.RLock()
	factory, ok := r.factories[family]
	r.mu.RUnlock()
	if !ok {
		return zero, fmt.Errorf("provider factory %q not registered", family)
	}
	inst, err := factory(name, settings)
	if err != nil {
		return zero, fmt.Errorf("creating %s provider %q: %w", family, name, err)
	}
	r.Set(name, inst)
	return inst, nil
}

// Get returns an instance by name.
func (r *Registry[T]) Get(name string) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	inst, ok := r.instances[name]
	return inst, ok
}

// Set stores an instance under name, replacing any previous one.
func (r *Registry[T]) Set(name string, instance T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.instances[name] = instance
}

// Families returns the sorted names of registered factories.
func (r *Registry[T]) Families() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.factories)
}

// Names returns the sorted names of stored instances.
func (r *Registry[T]) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.instances)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
