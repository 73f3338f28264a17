package counter

import (
	"context"
	"sync"
	"time"
)

// MemStore is an in-process Store with the same window semantics as the
// Redis implementation. It backs tests and single-instance development runs
// where no Redis is available; it offers no cross-process atomicity.
type MemStore struct {
	mu      sync.Mutex
	entries map[string]*memEntry
}

type memEntry struct {
	count     int64
	expiresAt time.Time // zero means no expiry
}

func NewMemStore() *MemStore {
	return &MemStore{entries: make(map[string]*memEntry)}
}

func (s *MemStore) IncrWindow(_ context.Context, key string, n int64, ttl time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.live(key)
	if e == nil {
		e = &memEntry{}
		if ttl > 0 {
			e.expiresAt = time.Now().Add(ttl)
		}
		s.entries[key] = e
	}
	e.count += n
	return e.count, nil
}

func (s *MemStore) Get(_ context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e := s.live(key); e != nil {
		return e.count, nil
	}
	return 0, nil
}

func (s *MemStore) TTL(_ context.Context, key string) (time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.live(key)
	if e == nil || e.expiresAt.IsZero() {
		return 0, nil
	}
	return time.Until(e.expiresAt), nil
}

// live returns the entry for key, evicting it first when expired. Callers
// must hold mu.
func (s *MemStore) live(key string) *memEntry {
	e, ok := s.entries[key]
	if !ok {
		return nil
	}
	if !e.expiresAt.IsZero() && time.Now().After(e.expiresAt) {
		delete(s.entries, key)
		return nil
	}
	return e
}
