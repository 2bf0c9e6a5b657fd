// SPDX-License-Identifier: MIT

package serialize

import (
	"maps"
	"slices"
	"sync"
)

// Backend is the raw tag → bytes store behind a Serializer.
//
// Implementations must be safe for concurrent use, must copy data on Put and
// return a caller-owned slice from Get. Get and Delete report a missing tag
// with ErrTagNotFound. Tags returns the stored tags in ascending order.
type Backend interface {
	Put(tag string, data []byte) error
	Get(tag string) ([]byte, error)
	Delete(tag string) error
	Tags() ([]string, error)
}

// MemoryBackend keeps records in a map guarded by a RWMutex.
type MemoryBackend struct {
	mu      sync.RWMutex
	records map[string][]byte
}

// NewMemoryBackend returns an empty in-process backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{records: make(map[string][]byte)}
}

// Put stores a copy of data under tag, replacing any previous record.
func (m *MemoryBackend) Put(tag string, data []byte) error {
	m.mu.Lock()
	m.records[tag] = slices.Clone(data)
	m.mu.Unlock()
	return nil
}

// Get returns a copy of the record stored under tag.
func (m *MemoryBackend) Get(tag string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.records[tag]
	if !ok {
		return nil, ErrTagNotFound
	}
	return slices.Clone(data), nil
}

// Delete removes tag.
func (m *MemoryBackend) Delete(tag string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[tag]; !ok {
		return ErrTagNotFound
	}
	delete(m.records, tag)
	return nil
}

// Tags returns the stored tags in ascending order.
func (m *MemoryBackend) Tags() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Sorted(maps.Keys(m.records)), nil
}
