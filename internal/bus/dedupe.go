package bus

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// DedupeCache remembers recently handled item identifiers so the pollers do
// not answer the same question or review twice within the cache's horizon.
//
// Ids are recorded only after a confirmed-successful remote post — never
// speculatively — so a failed attempt stays eligible for retry on the next
// cycle. Each id is added exactly once, which makes the underlying LRU evict
// in pure insertion (FIFO) order when capacity is exceeded.
type DedupeCache struct {
	ids *lru.Cache[string, struct{}]
}

// DefaultDedupeCapacity bounds the remembered-id set when no capacity is configured.
const DefaultDedupeCapacity = 100

// NewDedupeCache creates a cache holding at most capacity ids.
func NewDedupeCache(capacity int) *DedupeCache {
	if capacity <= 0 {
		capacity = DefaultDedupeCapacity
	}
	ids, err := lru.New[string, struct{}](capacity)
	if err != nil {
		// lru.New only fails on capacity <= 0, which is normalized above.
		panic(err)
	}
	return &DedupeCache{ids: ids}
}

// Contains reports whether the id was recently handled. Lookup does not
// refresh the entry's position, preserving FIFO eviction.
func (c *DedupeCache) Contains(id string) bool {
	return c.ids.Contains(id)
}

// Record marks an id as handled, evicting the oldest entry when full.
func (c *DedupeCache) Record(id string) {
	c.ids.Add(id, struct{}{})
}

// Len returns the number of remembered ids.
func (c *DedupeCache) Len() int {
	return c.ids.Len()
}
