package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Memory is a process-local KV. With a quota it behaves like browser storage:
// a write that would push the total size of keys and values past the quota fails
// and leaves the previous value in place.
type Memory struct {
	mu     sync.RWMutex
	data   map[string][]byte
	quota  int
	closed bool
}

// NewMemory creates an unlimited in-memory store.
func NewMemory() *Memory {
	return NewMemoryWithQuota(0)
}

// NewMemoryWithQuota creates an in-memory store capped at quota bytes (0 = unlimited).
func NewMemoryWithQuota(quota int) *Memory {
	return &Memory{
		data:  make(map[string][]byte),
		quota: quota,
	}
}

// Get returns a copy of the value stored for key.
func (m *Memory) Get(ctx context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, false, unavailable("read", key, errors.New("store closed"))
	}

	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

// Set stores a copy of value under key.
func (m *Memory) Set(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return unavailable("write", key, errors.New("store closed"))
	}

	if m.quota > 0 {
		size := m.sizeLocked() + len(key) + len(value)
		if old, ok := m.data[key]; ok {
			size -= len(key) + len(old)
		}
		if size > m.quota {
			return fmt.Errorf("%w: writing %s needs %d bytes, quota is %d", ErrQuotaExceeded, key, size, m.quota)
		}
	}

	m.data[key] = append([]byte(nil), value...)
	return nil
}

// Delete removes key.
func (m *Memory) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return unavailable("delete", key, errors.New("store closed"))
	}

	delete(m.data, key)
	return nil
}

// Size returns the bytes currently used by keys and values.
func (m *Memory) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sizeLocked()
}

func (m *Memory) sizeLocked() int {
	total := 0
	for k, v := range m.data {
		total += len(k) + len(v)
	}
	return total
}

// Close marks the store closed; later operations fail with ErrUnavailable.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
