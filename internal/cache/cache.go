// Package cache provides the gateway's TTL response cache.
package cache

import (
	"encoding/json"
	"sync"
	"time"
)

// Store caches successful listing responses under their command
// signature until they expire or a mutation invalidates them.
type Store struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]entry
	now     func() time.Time
}

type entry struct {
	value     json.RawMessage
	expiresAt time.Time
}

// New creates a store whose entries live for ttl. A non-positive ttl
// disables caching entirely.
func New(ttl time.Duration) *Store {
	return &Store{
		ttl:     ttl,
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// NewWithClock is New with an injected clock, for tests.
func NewWithClock(ttl time.Duration, now func() time.Time) *Store {
	s := New(ttl)
	s.now = now
	return s
}

// Get returns the cached value for key if present and unexpired.
func (s *Store) Get(key string) (json.RawMessage, bool) {
	if s.ttl <= 0 {
		return nil, false
	}
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok || s.now().After(e.expiresAt) {
		return nil, false
	}
	return e.value, true
}

// Put stores value under key. Callers must only cache successful,
// error-free responses.
func (s *Store) Put(key string, value json.RawMessage) {
	if s.ttl <= 0 {
		return
	}
	s.mu.Lock()
	s.entries[key] = entry{value: value, expiresAt: s.now().Add(s.ttl)}
	s.mu.Unlock()
}

// Invalidate drops the given keys. A mutation must call this before its
// response is written so no reader sees the pre-write listing.
func (s *Store) Invalidate(keys ...string) {
	s.mu.Lock()
	for _, k := range keys {
		delete(s.entries, k)
	}
	s.mu.Unlock()
}

// Flush drops everything.
func (s *Store) Flush() {
	s.mu.Lock()
	s.entries = make(map[string]entry)
	s.mu.Unlock()
}
