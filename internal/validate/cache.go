// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package validate

import (
	"container/list"
	"sync"
	"time"

	"github.com/pdiddy/citation-tracker/internal/citation"
)

// Default cache sizing. Registry records change rarely, so results stay
// fresh for a day.
const (
	DefaultCacheTTL  = 24 * time.Hour
	DefaultCacheSize = 1000
)

// cacheEntry records one validation outcome. Metadata is nil for invalid
// identifiers.
type cacheEntry struct {
	valid    bool
	metadata *citation.Citation
	fetched  time.Time
}

// resultCache is a bounded LRU cache of validation results with a TTL.
// Only definitive outcomes (valid, or confirmed not-found) are cached;
// transient registry failures are not.
type resultCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	maxSize int
	order   *list.List               // front = most recently used
	entries map[string]*list.Element // key → element whose Value is *cacheItem
}

type cacheItem struct {
	key   string
	entry cacheEntry
}

func newResultCache(ttl time.Duration, maxSize int) *resultCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if maxSize <= 0 {
		maxSize = DefaultCacheSize
	}
	return &resultCache{
		ttl:     ttl,
		maxSize: maxSize,
		order:   list.New(),
		entries: make(map[string]*list.Element),
	}
}

// get returns the cached entry for key if it exists and has not expired.
func (c *resultCache) get(key string) (cacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		return cacheEntry{}, false
	}
	item := elem.Value.(*cacheItem)
	if time.Since(item.entry.fetched) >= c.ttl {
		c.order.Remove(elem)
		delete(c.entries, key)
		return cacheEntry{}, false
	}
	c.order.MoveToFront(elem)
	return item.entry, true
}

// put stores an entry, evicting the least recently used one when full.
func (c *resultCache) put(key string, valid bool, metadata *citation.Citation) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := cacheEntry{valid: valid, metadata: metadata, fetched: time.Now()}
	if elem, ok := c.entries[key]; ok {
		elem.Value.(*cacheItem).entry = entry
		c.order.MoveToFront(elem)
		return
	}

	if c.order.Len() >= c.maxSize {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.entries, oldest.Value.(*cacheItem).key)
		}
	}
	c.entries[key] = c.order.PushFront(&cacheItem{key: key, entry: entry})
}

// clear drops all cached results.
func (c *resultCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order.Init()
	c.entries = make(map[string]*list.Element)
}

// len returns the number of cached entries.
func (c *resultCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
