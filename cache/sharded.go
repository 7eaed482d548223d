package cache

import (
	"context"
	"math/bits"
	"sort"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// DefaultShards is the shard count used when none is configured.
const DefaultShards = 64

// ShardedCache is an in-memory Cache whose keys are spread over
// lock-striped shards by xxhash. Operations on keys in different shards
// never contend.
type ShardedCache struct {
	shards []*shard
	mask   uint64
}

type shard struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewShardedCache creates a cache with n shards, rounded up to a power of
// two. n <= 0 selects DefaultShards.
func NewShardedCache(n int) *ShardedCache {
	n = ShardCount(n)
	c := &ShardedCache{
		shards: make([]*shard, n),
		mask:   uint64(n - 1),
	}
	for i := range c.shards {
		c.shards[i] = &shard{entries: make(map[string]string)}
	}
	return c
}

// ShardCount normalizes a configured shard count: values <= 0 become
// DefaultShards, anything else is rounded up to a power of two.
func ShardCount(n int) int {
	if n <= 0 {
		return DefaultShards
	}
	if n&(n-1) == 0 {
		return n
	}
	return 1 << bits.Len(uint(n))
}

func (c *ShardedCache) shardFor(key string) *shard {
	return c.shards[xxhash.Sum64String(key)&c.mask]
}

// Shards returns the number of shards.
func (c *ShardedCache) Shards() int { return len(c.shards) }

// Get retrieves a value from the cache. Returns ("", false) on miss.
func (c *ShardedCache) Get(_ context.Context, key string) (string, bool) {
	s := c.shardFor(key)
	s.mu.RLock()
	v, ok := s.entries[key]
	s.mu.RUnlock()
	return v, ok
}

// Set stores value under key.
func (c *ShardedCache) Set(_ context.Context, key, value string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	s := c.shardFor(key)
	s.mu.Lock()
	s.entries[key] = value
	s.mu.Unlock()
	return nil
}

// Delete removes a value from the cache. Idempotent - no error on miss.
func (c *ShardedCache) Delete(_ context.Context, key string) error {
	s := c.shardFor(key)
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	return nil
}

// Evict removes every matching key, one shard at a time, and returns the
// removed keys sorted.
func (c *ShardedCache) Evict(_ context.Context, match MatchFunc) []string {
	if match == nil {
		return nil
	}
	var removed []string
	for _, s := range c.shards {
		s.mu.Lock()
		for key := range s.entries {
			if match(key) {
				delete(s.entries, key)
				removed = append(removed, key)
			}
		}
		s.mu.Unlock()
	}
	sort.Strings(removed)
	return removed
}

// Len returns the number of entries across all shards.
func (c *ShardedCache) Len() int {
	n := 0
	for _, s := range c.shards {
		s.mu.RLock()
		n += len(s.entries)
		s.mu.RUnlock()
	}
	return n
}

// Keys returns a sorted snapshot of every key.
func (c *ShardedCache) Keys() []string {
	var keys []string
	for _, s := range c.shards {
		s.mu.RLock()
		for key := range s.entries {
			keys = append(keys, key)
		}
		s.mu.RUnlock()
	}
	sort.Strings(keys)
	return keys
}

// Ensure ShardedCache implements Cache
var _ Cache = (*ShardedCache)(nil)
