// Package regexcache keeps compiled regular expressions keyed by their source.
//
// Token patterns are rebuilt from the keyword list of every scan. Scans that
// share a keyword list (repeated MCP calls, batch runs) reuse one compiled
// pattern instead of compiling it again.
//
// Usage:
//
//	re, err := regexcache.Get(`(?i)(token|secret)["'\s:=]+([\w.-]+)`)
//	if err != nil {
//	    return err
//	}
package regexcache

import (
	"regexp"
	"sync"
	"sync/atomic"
)

// DefaultCapacity is the number of patterns the shared cache holds before it
// starts evicting.
const DefaultCapacity = 256

// Cache is a concurrency-safe pattern cache with a fixed capacity. When full,
// an arbitrary entry is evicted to make room.
type Cache struct {
	mu       sync.RWMutex
	entries  map[string]*regexp.Regexp
	capacity int

	hits   atomic.Int64
	misses atomic.Int64
}

// New returns an empty cache holding at most capacity patterns.
// A capacity below 1 means DefaultCapacity.
func New(capacity int) *Cache {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &Cache{
		entries:  make(map[string]*regexp.Regexp),
		capacity: capacity,
	}
}

// Get returns the compiled form of pattern, compiling it on first use.
func (c *Cache) Get(pattern string) (*regexp.Regexp, error) {
	c.mu.RLock()
	re, ok := c.entries[pattern]
	c.mu.RUnlock()
	if ok {
		c.hits.Add(1)
		return re, nil
	}

	compiled, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	c.misses.Add(1)

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.entries[pattern]; ok {
		return existing, nil
	}
	if len(c.entries) >= c.capacity {
		for k := range c.entries {
			delete(c.entries, k)
			break
		}
	}
	c.entries[pattern] = compiled
	return compiled, nil
}

// MustGet is like Get but panics on an invalid pattern. Use it only for
// patterns that are compile-time constants.
func (c *Cache) MustGet(pattern string) *regexp.Regexp {
	re, err := c.Get(pattern)
	if err != nil {
		panic("regexcache: " + err.Error())
	}
	return re
}

// Len returns the number of cached patterns.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns cache hit and miss counts.
func (c *Cache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Reset drops every entry and zeroes the counters.
func (c *Cache) Reset() {
	c.mu.Lock()
	c.entries = make(map[string]*regexp.Regexp)
	c.mu.Unlock()
	c.hits.Store(0)
	c.misses.Store(0)
}

var shared = New(DefaultCapacity)

// Get looks pattern up in the process-wide cache.
func Get(pattern string) (*regexp.Regexp, error) { return shared.Get(pattern) }

// MustGet looks pattern up in the process-wide cache and panics if it is invalid.
func MustGet(pattern string) *regexp.Regexp { return shared.MustGet(pattern) }

// Len returns the size of the process-wide cache.
func Len() int { return shared.Len() }
