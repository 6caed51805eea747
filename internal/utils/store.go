package utils

import (
	"time"

	"github.com/jellydator/ttlcache/v3"
)

type storeEntry[T any] struct {
	value T
	owner string
}

// TTLStore keeps short-lived per-user state in memory. Each access extends
// the entry's lifetime; Sweep removes entries that were left idle.
type TTLStore[T any] struct {
	cache *ttlcache.Cache[string, storeEntry[T]]
}

// NewTTLStore creates a store whose entries live for ttl after their last access
func NewTTLStore[T any](ttl time.Duration) *TTLStore[T] {
	return &TTLStore[T]{
		cache: ttlcache.New[string, storeEntry[T]](
			ttlcache.WithTTL[string, storeEntry[T]](ttl),
		),
	}
}

// Put stores value under id for owner
func (s *TTLStore[T]) Put(id, owner string, value T) {
	s.cache.Set(id, storeEntry[T]{value: value, owner: owner}, ttlcache.DefaultTTL)
}

// Get returns the value stored under id when it belongs to owner and has not expired
func (s *TTLStore[T]) Get(id, owner string) (T, bool) {
	var zero T
	item := s.cache.Get(id)
	if item == nil || item.IsExpired() {
		return zero, false
	}
	entry := item.Value()
	if entry.owner != owner {
		return zero, false
	}
	return entry.value, true
}

// Delete removes an entry
func (s *TTLStore[T]) Delete(id string) {
	s.cache.Delete(id)
}

// Len reports the number of stored entries, expired or not
func (s *TTLStore[T]) Len() int {
	return s.cache.Len()
}

// Sweep removes expired entries and returns how many were evicted
func (s *TTLStore[T]) Sweep() int {
	before := s.cache.Len()
	s.cache.DeleteExpired()
	if evicted := before - s.cache.Len(); evicted > 0 {
		return evicted
	}
	return 0
}
