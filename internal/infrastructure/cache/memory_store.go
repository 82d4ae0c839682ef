// Package cache implements the JSON local cache and its in-memory backend
package cache

import (
	"context"
	"sync"
)

// MemoryStore is a thread-safe in-process KeyValueStore.
// Entries live until overwritten, deleted or cleared.
type MemoryStore struct {
	entries map[string][]byte
	mutex   sync.RWMutex
}

// NewMemoryStore creates an empty memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string][]byte),
	}
}

// GetRaw returns a copy of the bytes stored under key
func (s *MemoryStore) GetRaw(_ context.Context, key string) ([]byte, bool, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	value, exists := s.entries[key]
	if !exists {
		return nil, false, nil
	}

	return append([]byte(nil), value...), true, nil
}

// SetRaw stores a copy of value under key
func (s *MemoryStore) SetRaw(_ context.Context, key string, value []byte) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.entries[key] = append([]byte(nil), value...)
	return nil
}

// Exists reports whether key is stored
func (s *MemoryStore) Exists(_ context.Context, key string) (bool, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	_, exists := s.entries[key]
	return exists, nil
}

// Delete removes key
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	delete(s.entries, key)
	return nil
}

// Clear removes every entry
func (s *MemoryStore) Clear(_ context.Context) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.entries = make(map[string][]byte)
	return nil
}

// Size returns the number of stored entries
func (s *MemoryStore) Size() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return len(s.entries)
}

// Close is a no-op
func (s *MemoryStore) Close() error {
	return nil
}
