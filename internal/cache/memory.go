package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	val       []byte
	expiresAt time.Time
}

// MemoryStore keeps entries in process memory. Expired entries are dropped
// lazily on access.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrCacheMiss
	}
	if !e.expiresAt.IsZero() && !s.now().Before(e.expiresAt) {
		s.mu.Lock()
		// re-check, a Set may have replaced it meanwhile
		if cur, ok := s.entries[key]; ok && cur.expiresAt.Equal(e.expiresAt) {
			delete(s.entries, key)
		}
		s.mu.Unlock()
		return nil, ErrCacheMiss
	}
	return e.val, nil
}

// Set stores a private copy of val. A ttl of zero keeps the entry until it
// is removed.
func (s *MemoryStore) Set(_ context.Context, key string, val []byte, ttl time.Duration) error {
	e := memoryEntry{val: append([]byte(nil), val...)}
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}

	s.mu.Lock()
	s.entries[key] = e
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	return nil
}

// Len returns the number of stored entries, expired ones included
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
