// Package keyed provides a map over objects that lack usable equality or
// hashing. Each object is projected through a caller-supplied function to a
// comparable key, and a representative object can be recovered from a key
// through a second caller-supplied function.
package keyed

import (
	"fmt"
	"iter"
)

// NotFoundError reports a lookup whose projected key is absent from the map.
// It carries both the original object and its key for diagnostics.
type NotFoundError[T any, K comparable] struct {
	Object T
	Key    K
}

func (e *NotFoundError[T, K]) Error() string {
	return fmt.Sprintf("no entry for key %v", e.Key)
}

// Map associates values with objects of type T, keyed strictly by the
// projected key and never by identity or equality of T. project must be total
// and deterministic but need not be injective. unproject must return some
// object whose projection equals the given key; it need not be the object
// originally inserted.
type Map[T any, K comparable, V any] struct {
	project   func(T) K
	unproject func(K) T
	values    map[K]V
	order     []K
}

// NewMap creates an empty Map from its two projection functions.
func NewMap[T any, K comparable, V any](project func(T) K, unproject func(K) T) *Map[T, K, V] {
	return &Map[T, K, V]{
		project:   project,
		unproject: unproject,
		values:    make(map[K]V),
	}
}

// Put associates value with obj's key, overwriting any previous value. The
// key keeps its original insertion position.
func (m *Map[T, K, V]) Put(obj T, value V) {
	k := m.project(obj)
	if _, seen := m.values[k]; !seen {
		m.order = append(m.order, k)
	}
	m.values[k] = value
}

// Get returns the value stored under obj's key, or a *NotFoundError if the
// key is unknown.
func (m *Map[T, K, V]) Get(obj T) (V, error) {
	k := m.project(obj)
	v, ok := m.values[k]
	if !ok {
		var zero V
		return zero, &NotFoundError[T, K]{Object: obj, Key: k}
	}
	return v, nil
}

// Contains reports whether obj's key is present.
func (m *Map[T, K, V]) Contains(obj T) bool {
	_, ok := m.values[m.project(obj)]
	return ok
}

// Len returns the number of entries.
func (m *Map[T, K, V]) Len() int {
	return len(m.order)
}

// Keys returns a representative object for every key, in insertion order.
func (m *Map[T, K, V]) Keys() []T {
	out := make([]T, len(m.order))
	for i, k := range m.order {
		out[i] = m.unproject(k)
	}
	return out
}

// Values returns all values in insertion order.
func (m *Map[T, K, V]) Values() []V {
	out := make([]V, len(m.order))
	for i, k := range m.order {
		out[i] = m.values[k]
	}
	return out
}

// All iterates (representative object, value) pairs in insertion order.
func (m *Map[T, K, V]) All() iter.Seq2[T, V] {
	return func(yield func(T, V) bool) {
		for _, k := range m.order {
			if !yield(m.unproject(k), m.values[k]) {
				return
			}
		}
	}
}
