// Package cache memoizes host answers that cannot change during a session,
// so repeated lookups do not cross the extension boundary.
package cache

import "sync"

// Memo is a thread-safe key/value memo.
type Memo[K comparable, V any] struct {
	mu    sync.Mutex
	items map[K]V
	hits  int
	miss  int
}

func NewMemo[K comparable, V any]() *Memo[K, V] {
	return &Memo[K, V]{items: make(map[K]V)}
}

func (m *Memo[K, V]) Get(key K) (V, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.items[key]
	if ok {
		m.hits++
	} else {
		m.miss++
	}
	return v, ok
}

func (m *Memo[K, V]) Put(key K, v V) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = v
}

// GetOrLoad returns the memoized value for key, calling load on a miss.
// Values load returns with ok=false are handed back but not remembered.
// load runs without the lock held, so two concurrent misses may both load.
func (m *Memo[K, V]) GetOrLoad(key K, load func(K) (V, bool)) V {
	if v, ok := m.Get(key); ok {
		return v
	}
	v, ok := load(key)
	if ok {
		m.Put(key, v)
	}
	return v
}

// Reset forgets every value and zeroes the statistics.
func (m *Memo[K, V]) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = make(map[K]V)
	m.hits, m.miss = 0, 0
}

func (m *Memo[K, V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// Stats returns hit and miss counts since the last Reset.
func (m *Memo[K, V]) Stats() (hits, misses int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hits, m.miss
}
