// Package timedcache provides a size-limited LRU cache whose entries also
// expire after a fixed time to live.
package timedcache

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// timedEntry wraps a cached value with its expiration time.
type timedEntry[V any] struct {
	expiresAt time.Time
	value     V
}

// TimedCache is a cache where entries are removed after exceeding their ttl.
// An entry is not guaranteed to live this long, it may be evicted when the
// cache fills up. Expiration is lazy: expired entries are dropped at the next
// access.
type TimedCache[K comparable, V any] struct {
	ttl   time.Duration
	cache *lru.Cache[K, timedEntry[V]]
	now   func() time.Time
	lock  sync.Mutex
}

// New creates a cache holding up to size entries for ttl each.
func New[K comparable, V any](size int, ttl time.Duration) (*TimedCache[K, V], error) {
	cache, err := lru.New[K, timedEntry[V]](size)
	if err != nil {
		return nil, err
	}
	return &TimedCache[K, V]{ttl: ttl, cache: cache, now: time.Now}, nil
}

// SetClock replaces the time source used to expire entries.
func (tc *TimedCache[K, V]) SetClock(now func() time.Time) {
	tc.lock.Lock()
	defer tc.lock.Unlock()
	tc.now = now
}

func (tc *TimedCache[K, V]) expired(e timedEntry[V]) bool {
	return tc.now().After(e.expiresAt)
}

// removeExpired removes any expired entries from the cache.
func (tc *TimedCache[K, V]) removeExpired() {
	for _, k := range tc.cache.Keys() {
		if e, ok := tc.cache.Peek(k); ok && tc.expired(e) {
			tc.cache.Remove(k)
		}
	}
}

// Add adds a value to the cache, or refreshes it. Returns true if an eviction
// occurred.
func (tc *TimedCache[K, V]) Add(key K, value V) (evicted bool) {
	tc.lock.Lock()
	defer tc.lock.Unlock()
	// Expired entries go first, so the LRU does not evict live ones to make
	// room.
	tc.removeExpired()
	return tc.cache.Add(key, timedEntry[V]{expiresAt: tc.now().Add(tc.ttl), value: value})
}

// Get looks up a key's value from the cache, removing it if it has expired.
func (tc *TimedCache[K, V]) Get(key K) (value V, ok bool) {
	tc.lock.Lock()
	defer tc.lock.Unlock()
	e, ok := tc.cache.Get(key)
	if !ok {
		return value, false
	}
	if tc.expired(e) {
		tc.cache.Remove(key)
		return value, false
	}
	return e.value, true
}

// Peek is like Get but does not update the recent-ness of the key.
func (tc *TimedCache[K, V]) Peek(key K) (value V, ok bool) {
	tc.lock.Lock()
	defer tc.lock.Unlock()
	e, ok := tc.cache.Peek(key)
	if !ok {
		return value, false
	}
	if tc.expired(e) {
		tc.cache.Remove(key)
		return value, false
	}
	return e.value, true
}

// Contains checks if a live key is in the cache.
func (tc *TimedCache[K, V]) Contains(key K) bool {
	_, ok := tc.Peek(key)
	return ok
}

// Remove removes the provided key from the cache.
func (tc *TimedCache[K, V]) Remove(key K) (present bool) {
	tc.lock.Lock()
	defer tc.lock.Unlock()
	return tc.cache.Remove(key)
}

// Keys returns the live keys, from oldest to newest.
func (tc *TimedCache[K, V]) Keys() []K {
	tc.lock.Lock()
	defer tc.lock.Unlock()
	tc.removeExpired()
	return tc.cache.Keys()
}

// Len returns the number of live entries.
func (tc *TimedCache[K, V]) Len() int {
	tc.lock.Lock()
	defer tc.lock.Unlock()
	tc.removeExpired()
	return tc.cache.Len()
}

// Purge clears the cache.
func (tc *TimedCache[K, V]) Purge() {
	tc.lock.Lock()
	defer tc.lock.Unlock()
	tc.cache.Purge()
}

// Ttl returns how long each entry is allowed to live.
func (tc *TimedCache[K, V]) Ttl() time.Duration { return tc.ttl }
