package mem

import (
	"sync"
	"time"
)

// Store is a small in-process TTL cache.
type Store[V any] interface {
	Set(key string, value V, ttl time.Duration)
	// Get returns the value for key if present and not expired.
	Get(key string) (V, bool)
	Delete(key string)
}

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// sweepEvery is the number of writes between sweeps of expired entries.
const sweepEvery = 256

type TTLCache[V any] struct {
	mu     sync.RWMutex
	data   map[string]entry[V]
	now    func() time.Time
	writes int
}

func NewTTLCache[V any]() *TTLCache[V] {
	return &TTLCache[V]{
		data: make(map[string]entry[V]),
		now:  time.Now,
	}
}

func (s *TTLCache[V]) Set(key string, value V, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.data[key] = entry[V]{
		value:     value,
		expiresAt: now.Add(ttl),
	}

	s.writes++
	if s.writes >= sweepEvery {
		s.writes = 0
		s.sweepLocked(now)
	}
}

func (s *TTLCache[V]) Get(key string) (V, bool) {
	s.mu.RLock()
	e, ok := s.data[key]
	s.mu.RUnlock()

	if !ok {
		var zero V
		return zero, false
	}
	if s.now().After(e.expiresAt) {
		s.evictExpired(key)
		var zero V
		return zero, false
	}
	return e.value, true
}

// evictExpired deletes key only if it is still expired, so a concurrent Set survives.
func (s *TTLCache[V]) evictExpired(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.data[key]; ok && s.now().After(e.expiresAt) {
		delete(s.data, key)
	}
}

// Sweep drops every expired entry.
func (s *TTLCache[V]) Sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked(s.now())
}

func (s *TTLCache[V]) sweepLocked(now time.Time) {
	for k, e := range s.data {
		if now.After(e.expiresAt) {
			delete(s.data, k)
		}
	}
}

func (s *TTLCache[V]) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
}
