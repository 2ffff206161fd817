package content

import (
	"slices"
	"sync"
	"time"
)

// listCache holds the most recent List result for a TTL. Writes through the
// Service invalidate it.
//
// Every invalidation bumps gen. A List that read the store across an
// invalidation carries the older generation and its result is dropped.
type listCache[T any] struct {
	ttl time.Duration

	mu      sync.RWMutex
	items   []T
	expires time.Time
	valid   bool
	gen     uint64
}

func newListCache[T any](ttl time.Duration) *listCache[T] {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &listCache[T]{ttl: ttl}
}

// get returns a copy of the cached items and the current generation. The
// generation is meaningful on a miss, to be handed back to put.
func (c *listCache[T]) get(now time.Time) ([]T, uint64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.valid || !now.Before(c.expires) {
		return nil, c.gen, false
	}
	return slices.Clone(c.items), c.gen, true
}

// put stores items read at generation gen, unless a write invalidated the
// cache since.
func (c *listCache[T]) put(items []T, gen uint64, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return
	}
	c.items = slices.Clone(items)
	c.expires = now.Add(c.ttl)
	c.valid = true
}

func (c *listCache[T]) invalidate() {
	c.mu.Lock()
	c.items = nil
	c.valid = false
	c.gen++
	c.mu.Unlock()
}
