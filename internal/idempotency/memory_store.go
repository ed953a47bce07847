package idempotency

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process Store for tests and single-node setups.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

// NewMemoryStore creates a MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
}

// Claim implements Store.
func (s *MemoryStore) Claim(_ context.Context, fingerprint string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if expiry, ok := s.entries[fingerprint]; ok && now.Before(expiry) {
		return false, nil
	}
	s.entries[fingerprint] = now.Add(ttl)
	return true, nil
}
