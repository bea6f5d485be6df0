// Package cache provides a single-flight, TTL-bound key-value cache.
// Concurrent callers for the same key share exactly one in-flight
// computation; successful values are reused until they expire.
package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

type TTLCache[V any] struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	entries map[string]entry[V]
	group   singleflight.Group
}

func New[V any](ttl time.Duration) *TTLCache[V] {
	return &TTLCache[V]{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]entry[V]),
	}
}

// NewWithClock is for tests that need to control expiry.
func NewWithClock[V any](ttl time.Duration, now func() time.Time) *TTLCache[V] {
	c := New[V](ttl)
	c.now = now
	return c
}

// GetOrCompute returns the cached value for key, or runs compute exactly
// once for all concurrent callers and caches its result. Errors are never
// cached; a later call retries. The compute runs on the context of the
// caller that started the flight, so abandoning one request does not
// invalidate an already-stored result.
func (c *TTLCache[V]) GetOrCompute(ctx context.Context, key string, compute func(context.Context) (V, error)) (V, error) {
	if value, ok := c.lookup(key); ok {
		return value, nil
	}

	result, err, _ := c.group.Do(key, func() (any, error) {
		// a finished flight may have stored the value between the
		// lookup above and joining the group
		if value, ok := c.lookup(key); ok {
			return value, nil
		}
		value, err := compute(ctx)
		if err != nil {
			return value, err
		}
		c.store(key, value)
		return value, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return result.(V), nil
}

func (c *TTLCache[V]) lookup(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	if c.now().After(e.expiresAt) {
		delete(c.entries, key)
		var zero V
		return zero, false
	}
	return e.value, true
}

func (c *TTLCache[V]) store(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry[V]{
		value:     value,
		expiresAt: c.now().Add(c.ttl),
	}
}

// Len reports the number of live entries, expired ones included until
// their next lookup.
func (c *TTLCache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
