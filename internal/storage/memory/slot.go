package memory

import (
	"context"
	"sync"

	"github.com/velvetshop/storefront/internal/storage"
)

// Slot implements storage.Slot with a mutex-guarded map. It backs the
// non-interactive rendering environment, where no durable medium exists, and
// tests.
type Slot struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewSlot creates an empty in-memory slot.
func NewSlot() *Slot {
	return &Slot{values: make(map[string]string)}
}

// Read returns the value stored under key, or storage.ErrNotFound.
func (s *Slot) Read(ctx context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.values[key]
	if !ok {
		return "", storage.ErrNotFound
	}
	return value, nil
}

// Write stores the value under key.
func (s *Slot) Write(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

// Delete removes the key. Deleting an absent key is not an error.
func (s *Slot) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}
