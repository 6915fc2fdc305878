package dictionary

import (
	"context"
	"strconv"
	"strings"

	"japanesedict/model"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the number of lookups kept by NewLRUCache when size <= 0.
const DefaultCacheSize = 4096

// LRUCache memoizes exact lookups of an underlying oracle in process memory.
// Errors are not cached.
type LRUCache struct {
	next  Oracle
	cache *lru.Cache[string, []model.Entry]
}

var _ Oracle = (*LRUCache)(nil)

// NewLRUCache wraps next with an LRU of the given size.
func NewLRUCache(next Oracle, size int) (*LRUCache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, []model.Entry](size)
	if err != nil {
		return nil, err
	}
	return &LRUCache{next: next, cache: cache}, nil
}

// LookupExact serves from the cache, falling through to the wrapped oracle.
func (c *LRUCache) LookupExact(ctx context.Context, spans []string, limit int) ([]model.Entry, error) {
	key := cacheKey(spans, limit)
	if entries, ok := c.cache.Get(key); ok {
		return entries, nil
	}
	entries, err := c.next.LookupExact(ctx, spans, limit)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, entries)
	return entries, nil
}

// Len returns the number of cached lookups.
func (c *LRUCache) Len() int { return c.cache.Len() }

func cacheKey(spans []string, limit int) string {
	return strconv.Itoa(limit) + "\x00" + strings.Join(spans, "\x00")
}
