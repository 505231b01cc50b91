// Package cache provides a generic in-memory store of keyed lists.
//
// Each key maps to an ordered list of summaries. Lists are replaced
// wholesale (copy-on-write): readers keep whatever slice they obtained and
// writers install a fresh one, so partially-updated lists are never visible.
package cache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	items    []V
	storedAt time.Time
}

// Cache maps keys to ordered lists of V. Safe for concurrent use.
//
// Entries expire after ttl and the cache holds at most maxEntries lists;
// the oldest list is evicted when the bound is exceeded. A ttl or
// maxEntries of zero disables the respective bound.
type Cache[K comparable, V any] struct {
	mu         sync.RWMutex
	entries    map[K]entry[V]
	maxEntries int
	ttl        time.Duration
	now        func() time.Time
}

func New[K comparable, V any](maxEntries int, ttl time.Duration) *Cache[K, V] {
	return &Cache[K, V]{
		entries:    make(map[K]entry[V]),
		maxEntries: maxEntries,
		ttl:        ttl,
		now:        time.Now,
	}
}

// Get returns the list stored under key. The returned slice must be treated
// as immutable; use Update to change it. Expired entries are dropped and
// reported as a miss.
func (c *Cache[K, V]) Get(key K) ([]V, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if c.expired(e) {
		c.Invalidate(key)
		return nil, false
	}
	return e.items, true
}

// Put installs items under key, replacing any previous list. The slice is
// copied so later caller mutations cannot leak into the cache.
func (c *Cache[K, V]) Put(key K, items []V) {
	cp := make([]V, len(items))
	copy(cp, items)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry[V]{items: cp, storedAt: c.now()}
	c.evictLocked()
}

// Update applies fn to the current list under key and installs the result as
// a fresh list. Returns false without calling fn when the key is absent or
// expired. fn receives a copy it may mutate freely.
func (c *Cache[K, V]) Update(key K, fn func(items []V) []V) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || c.expired(e) {
		delete(c.entries, key)
		return false
	}

	cp := make([]V, len(e.items))
	copy(cp, e.items)

	c.entries[key] = entry[V]{items: fn(cp), storedAt: e.storedAt}
	return true
}

// Snapshot returns an independent copy of the list under key, suitable for
// restoring after a failed optimistic mutation.
func (c *Cache[K, V]) Snapshot(key K) ([]V, bool) {
	items, ok := c.Get(key)
	if !ok {
		return nil, false
	}
	cp := make([]V, len(items))
	copy(cp, items)
	return cp, true
}

// Restore reinstates a previously captured snapshot.
func (c *Cache[K, V]) Restore(key K, items []V) {
	c.Put(key, items)
}

// Invalidate removes the list under key so the next reader refetches.
func (c *Cache[K, V]) Invalidate(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Clear drops every cached list.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[K]entry[V])
}

// Len reports the number of cached lists.
func (c *Cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache[K, V]) expired(e entry[V]) bool {
	return c.ttl > 0 && c.now().Sub(e.storedAt) > c.ttl
}

func (c *Cache[K, V]) evictLocked() {
	if c.maxEntries <= 0 {
		return
	}
	for len(c.entries) > c.maxEntries {
		var oldestKey K
		var oldest time.Time
		first := true
		for k, e := range c.entries {
			if first || e.storedAt.Before(oldest) {
				oldestKey, oldest = k, e.storedAt
				first = false
			}
		}
		delete(c.entries, oldestKey)
	}
}
