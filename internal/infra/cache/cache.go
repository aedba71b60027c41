// Package cache provides an in-memory TTL cache. The HTTP layer keeps
// idempotent write responses in it, keyed by the Idempotency-Key header.
package cache

import (
	"sync"
	"time"

	"github.com/boddenberg/finance-store-go/internal/port"
)

type entry[T any] struct {
	value     T
	expiresAt time.Time
}

// InMemory is a thread-safe in-memory cache with TTL.
type InMemory[T any] struct {
	mu    sync.RWMutex
	items map[string]entry[T]
	ttl   time.Duration
	now   func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// Option customizes a cache.
type Option func(*options)

type options struct {
	now   func() time.Time
	sweep time.Duration
}

// WithClock replaces time.Now for expiry decisions.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithSweepInterval sets how often expired entries are purged.
// Defaults to the TTL.
func WithSweepInterval(d time.Duration) Option {
	return func(o *options) { o.sweep = d }
}

// New creates an in-memory cache with the given TTL and starts its sweeper.
// Call Stop to end the sweeper goroutine.
func New[T any](ttl time.Duration, opts ...Option) *InMemory[T] {
	o := options{now: time.Now, sweep: ttl}
	for _, opt := range opts {
		opt(&o)
	}
	if o.sweep <= 0 {
		o.sweep = time.Minute
	}

	c := &InMemory[T]{
		items: make(map[string]entry[T]),
		ttl:   ttl,
		now:   o.now,
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	go c.sweep(o.sweep)
	return c
}

// Get retrieves a value from the cache. Returns false if not found or expired.
func (c *InMemory[T]) Get(key string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.items[key]
	if !ok || c.now().After(e.expiresAt) {
		var zero T
		return zero, false
	}
	return e.value, true
}

// Set stores a value in the cache with the configured TTL.
func (c *InMemory[T]) Set(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = entry[T]{value: value, expiresAt: c.now().Add(c.ttl)}
}

// Delete removes a value from the cache.
func (c *InMemory[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, key)
}

// Len returns the number of stored entries, expired or not.
func (c *InMemory[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Stop ends the sweeper and waits for it to exit. Safe to call twice.
func (c *InMemory[T]) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
	<-c.done
}

// Purge drops expired entries.
func (c *InMemory[T]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for k, v := range c.items {
		if now.After(v.expiresAt) {
			delete(c.items, k)
		}
	}
}

func (c *InMemory[T]) sweep(every time.Duration) {
	defer close(c.done)

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.Purge()
		}
	}
}

// Ensure InMemory implements port.Cache.
var _ port.Cache[int] = (*InMemory[int])(nil)
