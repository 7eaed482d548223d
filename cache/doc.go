// Package cache provides the path-keyed fragment cache.
//
// ShardedCache is a string-to-string map spread over lock-striped shards.
// Entries have no TTL; they live until an explicit Delete or Evict. Loader
// sits in front of a Cache and computes missing values once per key with
// singleflight, refusing to store a value whose key was evicted while the
// computation was running.
package cache
