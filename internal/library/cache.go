package library

import (
	"context"
	"sync"

	"github.com/leapstack-labs/h5pup/pkg/core"
	"golang.org/x/sync/singleflight"
)

// CachedLoader memoizes successful lookups of another loader. Concurrent
// misses for the same library version share one underlying load. Errors
// are never cached.
type CachedLoader struct {
	next core.LibraryLoader

	mu      sync.Mutex
	entries map[string]*core.Library

	group singleflight.Group
}

// NewCachedLoader wraps next with a cache.
func NewCachedLoader(next core.LibraryLoader) *CachedLoader {
	return &CachedLoader{
		next:    next,
		entries: make(map[string]*core.Library),
	}
}

// LoadLibrary implements core.LibraryLoader.
func (c *CachedLoader) LoadLibrary(ctx context.Context, name string, v core.Version) (*core.Library, error) {
	key := core.FormatLibrary(name, v)

	c.mu.Lock()
	lib, ok := c.entries[key]
	c.mu.Unlock()
	if ok {
		return lib, nil
	}

	res, err, _ := c.group.Do(key, func() (any, error) {
		// A flight for key may have completed since the lookup above
		c.mu.Lock()
		lib, ok := c.entries[key]
		c.mu.Unlock()
		if ok {
			return lib, nil
		}

		lib, err := c.next.LoadLibrary(ctx, name, v)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.entries[key] = lib
		c.mu.Unlock()
		return lib, nil
	})
	if err != nil {
		return nil, err
	}
	return res.(*core.Library), nil
}

// Len returns the number of cached libraries.
func (c *CachedLoader) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Forget drops every cached entry.
func (c *CachedLoader) Forget() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*core.Library)
}
