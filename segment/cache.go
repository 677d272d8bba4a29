package segment

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

// Cache is the process-global CompiledSegment cache (spec.md §4.3, §5):
// content-hash keyed, monotonically additive, safe for concurrent use.
// Grounded on teacher's engine.TemplateCache (engine/cache.go), keyed by
// content hash instead of by template name + mtime.
type Cache struct {
	mu    sync.RWMutex
	byKey map[uint64]*CompiledSegment
}

// NewCache creates an empty segment cache. Most callers use the package-
// level default cache (Compile/ClearCache); NewCache exists for callers
// that want a cache scoped to one goroutine or test, per spec.md §5
// ("safe to have per-thread caches").
func NewCache() *Cache {
	return &Cache{byKey: make(map[uint64]*CompiledSegment)}
}

// Compile returns the CompiledSegment for content, compiling and caching
// it on first use. Concurrent callers compiling the same content may
// both compile (structurally equivalent results) but only one wins the
// cache slot, matching the "may race" contract of spec.md §4.3/§5.
func (c *Cache) Compile(content string) *CompiledSegment {
	key := hashContent(content)

	c.mu.RLock()
	if cs, ok := c.byKey[key]; ok {
		c.mu.RUnlock()
		return cs
	}
	c.mu.RUnlock()

	cs := compile(content)

	c.mu.Lock()
	if existing, ok := c.byKey[key]; ok {
		c.mu.Unlock()
		return existing
	}
	c.byKey[key] = cs
	c.mu.Unlock()

	return cs
}

// Clear purges the cache, e.g. on worker restart or in a test harness
// (spec.md §4.3 "Cache contract").
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byKey = make(map[uint64]*CompiledSegment)
}

// Size returns the number of distinct compiled segments currently cached.
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byKey)
}

func hashContent(content string) uint64 {
	return xxhash.Sum64String(content)
}

// defaultCache is the process-wide cache used by Compile/ClearCache.
var defaultCache = NewCache()

// Compile compiles (or returns the cached compilation of) content using
// the process-wide default cache.
func Compile(content string) *CompiledSegment {
	return defaultCache.Compile(content)
}

// ClearCache purges the process-wide default cache.
func ClearCache() {
	defaultCache.Clear()
}
