package cache

import (
	"context"
	"sync"
)

// Memory is a process local cache.
// Entries are kept serialized so callers never share state with the store.
type Memory struct {
	lock  sync.RWMutex
	items map[string][]byte
}

var _ Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{items: make(map[string][]byte)}
}

func (m *Memory) Get(_ context.Context, key string) (*Entry, error) {
	m.lock.RLock()
	data, ok := m.items[key]
	m.lock.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}

	return Unmarshal(data)
}

func (m *Memory) Set(_ context.Context, key string, entry *Entry) error {
	data, err := Marshal(entry)
	if err != nil {
		return err
	}

	m.lock.Lock()
	m.items[key] = data
	m.lock.Unlock()

	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.lock.Lock()
	delete(m.items, key)
	m.lock.Unlock()

	return nil
}

func (m *Memory) Len() int {
	m.lock.RLock()
	defer m.lock.RUnlock()

	return len(m.items)
}
