package embed

import (
	"context"
	"sync"
	"time"

	"github.com/revisia/auditctx/core"
)

const defaultSweepInterval = 10 * time.Minute

type memoryEntry struct {
	vec       *core.EmbeddingVector
	expiresAt time.Time
}

// MemoryCache is an in-process Cache with per-entry TTL. Expired entries
// are dropped lazily on access and by a background sweep.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[core.Fingerprint]memoryEntry
	closed  bool

	now  func() time.Time
	stop chan struct{}
}

var _ Cache = (*MemoryCache)(nil)

// MemoryCacheOption configures a MemoryCache.
type MemoryCacheOption func(*MemoryCache)

// WithSweepInterval sets how often the background sweep removes expired
// entries. Default is 10 minutes.
func WithSweepInterval(interval time.Duration) MemoryCacheOption {
	return func(c *MemoryCache) {
		if interval <= 0 {
			return
		}
		go c.sweepLoop(interval)
	}
}

// NewMemoryCache creates an in-memory embedding cache. Without options no
// background sweep runs; lazy expiry on access still holds the TTL
// invariant.
func NewMemoryCache(opts ...MemoryCacheOption) *MemoryCache {
	c := &MemoryCache{
		entries: make(map[core.Fingerprint]memoryEntry),
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached embedding if present and unexpired.
func (c *MemoryCache) Get(_ context.Context, fp core.Fingerprint) (*core.EmbeddingVector, bool, error) {
	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return nil, false, ErrCacheClosed
	}
	entry, ok := c.entries[fp]
	now := c.now()
	c.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}
	if !now.Before(entry.expiresAt) {
		// Lazy expiry.
		c.mu.Lock()
		if cur, still := c.entries[fp]; still && cur.expiresAt.Equal(entry.expiresAt) {
			delete(c.entries, fp)
		}
		c.mu.Unlock()
		return nil, false, nil
	}
	return entry.vec, true, nil
}

// Put stores an embedding with the given TTL.
func (c *MemoryCache) Put(_ context.Context, fp core.Fingerprint, vec *core.EmbeddingVector, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrCacheClosed
	}
	c.entries[fp] = memoryEntry{vec: vec, expiresAt: c.now().Add(ttl)}
	return nil
}

// Delete removes the entry for the fingerprint.
func (c *MemoryCache) Delete(_ context.Context, fp core.Fingerprint) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrCacheClosed
	}
	delete(c.entries, fp)
	return nil
}

// Clear removes all entries.
func (c *MemoryCache) Clear(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrCacheClosed
	}
	c.entries = make(map[core.Fingerprint]memoryEntry)
	return nil
}

// Close stops the background sweep and rejects further operations.
func (c *MemoryCache) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()
	close(c.stop)
	return nil
}

// Len returns the number of live entries, counting unexpired only.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	now := c.now()
	n := 0
	for _, entry := range c.entries {
		if now.Before(entry.expiresAt) {
			n++
		}
	}
	return n
}

func (c *MemoryCache) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.sweep()
		}
	}
}

func (c *MemoryCache) sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	now := c.now()
	for fp, entry := range c.entries {
		if !now.Before(entry.expiresAt) {
			delete(c.entries, fp)
		}
	}
}
