package musicindex

import (
	"context"

	"github.com/hashicorp/golang-lru/v2/simplelru"

	"github.com/mikey-austin/socos/internal/ports"
)

// CacheSize is the number of searches kept.
const CacheSize = 10

// Searcher runs uncached searches.
type Searcher interface {
	Search(ctx context.Context, category, field, pattern string) ([]ports.IndexRecord, error)
}

type cacheKey struct {
	category string
	field    string
	pattern  string
}

// Cache keeps the results of the last CacheSize distinct searches. Entries
// leave in insertion order; lookups do not refresh them. Failed searches are
// not cached.
type Cache struct {
	next    Searcher
	entries *simplelru.LRU[cacheKey, []ports.IndexRecord]
}

// NewCache wraps next with a result cache.
func NewCache(next Searcher) *Cache {
	entries, err := simplelru.NewLRU[cacheKey, []ports.IndexRecord](CacheSize, nil)
	if err != nil {
		// only fails for a non-positive size
		panic(err)
	}
	return &Cache{next: next, entries: entries}
}

// Search returns cached rows or runs the search and remembers the result.
func (c *Cache) Search(ctx context.Context, category, field, pattern string) ([]ports.IndexRecord, error) {
	key := cacheKey{category: category, field: field, pattern: "%" + pattern + "%"}
	if rows, ok := c.entries.Peek(key); ok {
		return rows, nil
	}
	rows, err := c.next.Search(ctx, category, field, pattern)
	if err != nil {
		return nil, err
	}
	c.entries.Add(key, rows)
	return rows, nil
}

// Len returns the number of cached searches.
func (c *Cache) Len() int {
	return c.entries.Len()
}
