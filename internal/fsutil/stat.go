package fsutil

import (
	"io/fs"
	"os"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Stater reads file metadata. Staleness checks go through it so tests and
// callers can swap in caching or fake implementations.
type Stater interface {
	Stat(name string) (fs.FileInfo, error)
}

// OSStater reads metadata straight from the operating system.
type OSStater struct{}

// Stat implements Stater.
func (OSStater) Stat(name string) (fs.FileInfo, error) {
	return os.Stat(name)
}

// DefaultStatCacheSize bounds the number of cached entries.
const DefaultStatCacheSize = 4096

// CachedStater memoizes successful Stat results. Every compile step lists
// every shared include as an input, so without the cache each include would
// be stat'ed once per shader.
//
// Entries for files rewritten during a run must be dropped with Invalidate.
// Failed lookups are never cached.
type CachedStater struct {
	next  Stater
	cache *lru.Cache[string, fs.FileInfo]
}

// NewCachedStater wraps next with an LRU cache of the given size. A
// non-positive size selects DefaultStatCacheSize.
func NewCachedStater(next Stater, size int) (*CachedStater, error) {
	if size <= 0 {
		size = DefaultStatCacheSize
	}
	cache, err := lru.New[string, fs.FileInfo](size)
	if err != nil {
		return nil, err
	}
	return &CachedStater{next: next, cache: cache}, nil
}

// Stat implements Stater.
func (c *CachedStater) Stat(name string) (fs.FileInfo, error) {
	if info, ok := c.cache.Get(name); ok {
		return info, nil
	}
	info, err := c.next.Stat(name)
	if err != nil {
		return nil, err
	}
	c.cache.Add(name, info)
	return info, nil
}

// Invalidate drops the cached entries for names.
func (c *CachedStater) Invalidate(names ...string) {
	for _, n := range names {
		c.cache.Remove(n)
	}
}

// Len reports the number of cached entries.
func (c *CachedStater) Len() int {
	return c.cache.Len()
}
