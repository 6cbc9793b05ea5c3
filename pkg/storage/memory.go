package storage

import (
	"sort"
	"sync"
)

// memoryKV keeps every bucket in a map. Values are copied in and out so
// callers never share backing arrays with the store.
type memoryKV struct {
	mu      sync.RWMutex
	buckets map[string]map[string][]byte
}

// NewMemoryStore creates an empty in-memory Store
func NewMemoryStore() Store {
	m := &memoryKV{buckets: make(map[string]map[string][]byte, len(buckets))}
	for _, b := range buckets {
		m.buckets[b] = map[string][]byte{}
	}
	return &store{kv: m}
}

func (m *memoryKV) put(bucket, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.buckets[bucket][key] = append([]byte(nil), value...)
	return nil
}

func (m *memoryKV) get(bucket, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.buckets[bucket][key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), v...), nil
}

func (m *memoryKV) list(bucket string) ([][]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	b := m.buckets[bucket]
	keys := make([]string, 0, len(b))
	for k := range b {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([][]byte, len(keys))
	for i, k := range keys {
		out[i] = append([]byte(nil), b[k]...)
	}
	return out, nil
}

func (m *memoryKV) remove(bucket, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.buckets[bucket], key)
	return nil
}

func (m *memoryKV) count(bucket string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.buckets[bucket]), nil
}

func (m *memoryKV) close() error { return nil }
