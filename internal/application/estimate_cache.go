package application

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// estimateCache stores recently computed wait estimates to avoid repeated
// turnover simulation for identical queries while the snapshot remains
// unchanged. Keys embed the snapshot version, so a stale entry can never be
// served across mutations even before its TTL lapses.
type estimateCache struct {
	lru *expirable.LRU[string, int]
}

func newEstimateCache(ttl time.Duration, maxEntries int) *estimateCache {
	if ttl <= 0 {
		ttl = 15 * time.Second
	}
	if maxEntries <= 0 {
		maxEntries = 256
	}
	return &estimateCache{lru: expirable.NewLRU[string, int](maxEntries, nil, ttl)}
}

func (c *estimateCache) Get(key string) (int, bool) {
	if c == nil || c.lru == nil {
		return 0, false
	}
	return c.lru.Get(key)
}

func (c *estimateCache) Store(key string, minutes int) {
	if c == nil || c.lru == nil {
		return
	}
	c.lru.Add(key, minutes)
}

func (c *estimateCache) Purge() {
	if c == nil || c.lru == nil {
		return
	}
	c.lru.Purge()
}
