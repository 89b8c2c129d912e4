/*
registry.go - Explicit, ordered rule registry

PURPOSE:
  Holds the rules a component evaluates (tax scales, adjustment kinds) in
  the order they were registered. The registry is assembled once at startup
  from a static list; nothing is discovered at runtime, so evaluation order
  is deterministic and the full rule set is visible in one place.

HOW IT WORKS:
  1. The caller builds the registry with a key function
  2. Rules are registered in their evaluation order
  3. Duplicate keys are rejected at registration time

USAGE:
  reg := generic.NewRegistry(func(s payg.Scale) string { return string(s.ID()) })
  if err := reg.Register(scales...); err != nil {
      return err
  }
  for _, s := range reg.All() { ... }

SEE ALSO:
  - payg/classifier.go: Registry of tax scales
  - factory/scales.go: Static scale catalog
*/
package generic

import (
	"fmt"
	"sync"
)

// =============================================================================
// REGISTRY
// =============================================================================

// Registry is an ordered set of items with unique keys. It is safe for
// concurrent reads once built.
type Registry[T any] struct {
	mu    sync.RWMutex
	key   func(T) string
	order []T
	index map[string]int
}

func NewRegistry[T any](key func(T) string) *Registry[T] {
	return &Registry[T]{key: key, index: make(map[string]int)}
}

// Register appends items in order. Fails on the first duplicate key and
// leaves the registry unchanged.
func (r *Registry[T]) Register(items ...T) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[string]bool, len(items))
	for _, item := range items {
		k := r.key(item)
		if _, exists := r.index[k]; exists || seen[k] {
			return fmt.Errorf("%w: duplicate registration %q", ErrInvalidInput, k)
		}
		seen[k] = true
	}
	for _, item := range items {
		r.index[r.key(item)] = len(r.order)
		r.order = append(r.order, item)
	}
	return nil
}

// Lookup finds an item by key.
func (r *Registry[T]) Lookup(key string) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.index[key]
	if !ok {
		var zero T
		return zero, false
	}
	return r.order[i], true
}

// All returns the items in registration order.
func (r *Registry[T]) All() []T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]T, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of registered items.
func (r *Registry[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
