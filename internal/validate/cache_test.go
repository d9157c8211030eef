// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package validate

import (
	"testing"
	"time"

	"github.com/pdiddy/citation-tracker/internal/citation"
)

func TestCacheHitAndMiss(t *testing.T) {
	c := newResultCache(time.Minute, 10)

	if _, ok := c.get("doi:10.1038/x"); ok {
		t.Error("empty cache should miss")
	}

	c.put("doi:10.1038/x", true, &citation.Citation{ID: "x"})
	entry, ok := c.get("doi:10.1038/x")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if !entry.valid || entry.metadata.ID != "x" {
		t.Errorf("entry = %+v", entry)
	}
}

func TestCacheNegativeEntry(t *testing.T) {
	c := newResultCache(time.Minute, 10)
	c.put("doi:10.1038/missing", false, nil)

	entry, ok := c.get("doi:10.1038/missing")
	if !ok {
		t.Fatal("negative results should be cached")
	}
	if entry.valid || entry.metadata != nil {
		t.Errorf("entry = %+v, want invalid with nil metadata", entry)
	}
}

func TestCacheTTLExpiry(t *testing.T) {
	c := newResultCache(10*time.Millisecond, 10)
	c.put("k", true, nil)

	time.Sleep(20 * time.Millisecond)

	if _, ok := c.get("k"); ok {
		t.Error("expired entry should miss")
	}
	if c.len() != 0 {
		t.Errorf("len = %d, expired entry should be removed", c.len())
	}
}

func TestCacheLRUEviction(t *testing.T) {
	c := newResultCache(time.Minute, 2)
	c.put("a", true, nil)
	c.put("b", true, nil)

	// Touch a so b becomes the eviction candidate.
	c.get("a")

	c.put("c", true, nil)

	if _, ok := c.get("b"); ok {
		t.Error("least recently used entry b should have been evicted")
	}
	if _, ok := c.get("a"); !ok {
		t.Error("recently used entry a should survive")
	}
	if _, ok := c.get("c"); !ok {
		t.Error("new entry c should be present")
	}
	if c.len() != 2 {
		t.Errorf("len = %d, want 2", c.len())
	}
}

func TestCacheUpdateExisting(t *testing.T) {
	c := newResultCache(time.Minute, 2)
	c.put("k", false, nil)
	c.put("k", true, &citation.Citation{ID: "k"})

	entry, ok := c.get("k")
	if !ok || !entry.valid {
		t.Errorf("entry = %+v, want updated valid entry", entry)
	}
	if c.len() != 1 {
		t.Errorf("len = %d, want 1", c.len())
	}
}

func TestCacheClear(t *testing.T) {
	c := newResultCache(time.Minute, 10)
	c.put("a", true, nil)
	c.put("b", true, nil)
	c.clear()

	if c.len() != 0 {
		t.Errorf("len = %d after clear, want 0", c.len())
	}
	if _, ok := c.get("a"); ok {
		t.Error("cleared cache should miss")
	}
}

func TestCacheDefaults(t *testing.T) {
	c := newResultCache(0, 0)
	if c.ttl != DefaultCacheTTL {
		t.Errorf("ttl = %v, want %v", c.ttl, DefaultCacheTTL)
	}
	if c.maxSize != DefaultCacheSize {
		t.Errorf("maxSize = %d, want %d", c.maxSize, DefaultCacheSize)
	}
}
