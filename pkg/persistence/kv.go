// Package persistence keeps the four workspace slots (active tab, clients,
// faculty, selected client) in a key-value store.
package persistence

import (
	"context"
	"sync"
)

// KVStore is the key-value storage behind the workspace slots.
// Get reports found=false for a missing key rather than an error.
type KVStore interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Put(ctx context.Context, key string, value []byte) error
	Close() error
}

// MemoryStore is a process-local KVStore. Used by tests and the "memory" backend.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte

	// GetErr and PutErr, when set, are returned by every Get/Put call.
	GetErr error
	PutErr error
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

var _ KVStore = (*MemoryStore)(nil)

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.GetErr != nil {
		return nil, false, s.GetErr
	}
	v, ok := s.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (s *MemoryStore) Put(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.PutErr != nil {
		return s.PutErr
	}
	s.data[key] = append([]byte(nil), value...)
	return nil
}

// Raw returns the stored bytes for key, for test assertions.
func (s *MemoryStore) Raw(key string) []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data[key]
}

func (s *MemoryStore) Close() error { return nil }
