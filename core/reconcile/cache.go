package reconcile

import (
	"context"
	"sync"
	"time"

	"contact-sync/core/identity"

	"golang.org/x/sync/singleflight"
)

// Loader enumerates a store and builds the identity index of one family.
type Loader func(ctx context.Context) (*identity.Index, error)

type cachedUniverse struct {
	index *identity.Index
	built time.Time
}

// UniverseCache holds built identity indices per family so that repeated
// dry-run reconciliations do not enumerate the store every time.
type UniverseCache struct {
	ttl     time.Duration
	mu      sync.RWMutex
	entries map[string]*cachedUniverse
	sf      singleflight.Group
}

// NewUniverseCache creates a cache. A zero ttl rebuilds on every call.
func NewUniverseCache(ttl time.Duration) *UniverseCache {
	return &UniverseCache{
		ttl:     ttl,
		entries: make(map[string]*cachedUniverse),
	}
}

func (c *UniverseCache) fresh(family string) (*identity.Index, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[family]
	if !ok || c.ttl == 0 || time.Since(e.built) > c.ttl {
		return nil, false
	}
	return e.index, true
}

// Get returns the cached index of family, or builds it with load if it is
// missing or expired. Concurrent callers share one build.
func (c *UniverseCache) Get(ctx context.Context, family string, load Loader) (*identity.Index, error) {
	// Fast path: check if cache exists and is fresh
	if idx, ok := c.fresh(family); ok {
		return idx, nil
	}

	// Slow path: build using singleflight to prevent stampedes
	result, err, _ := c.sf.Do(family, func() (interface{}, error) {
		if idx, ok := c.fresh(family); ok {
			return idx, nil
		}

		idx, err := load(ctx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.entries[family] = &cachedUniverse{index: idx, built: time.Now()}
		c.mu.Unlock()

		return idx, nil
	})
	if err != nil {
		return nil, err
	}

	return result.(*identity.Index), nil
}

// Invalidate removes the cached index of family, forcing a rebuild.
func (c *UniverseCache) Invalidate(family string) {
	c.mu.Lock()
	delete(c.entries, family)
	c.mu.Unlock()
}
