package cache

import (
	"context"
	"errors"
	"strings"
)

// MaxKeyLength is the maximum allowed length for a cache key.
const MaxKeyLength = 2048

// Sentinel errors for cache operations.
var (
	ErrNilCache   = errors.New("cache: cache is nil")
	ErrInvalidKey = errors.New("cache: key is invalid")
	ErrKeyTooLong = errors.New("cache: key exceeds max length")
)

// MatchFunc selects keys for eviction.
type MatchFunc func(key string) bool

// Cache stores derived string values by key.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Atomicity: Get, Set and Delete are atomic per key. Evict is not atomic
//   across keys.
// - Errors: Get never errors; it returns ("", false) on miss.
type Cache interface {
	// Get retrieves a cached value. Returns ("", false) on miss.
	Get(ctx context.Context, key string) (string, bool)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// Delete removes a cached value. Idempotent - no error on miss.
	Delete(ctx context.Context, key string) error

	// Evict removes every key for which match returns true and returns the
	// removed keys.
	Evict(ctx context.Context, match MatchFunc) []string

	// Len returns the number of entries.
	Len() int
}

// ValidateKey checks if a key is valid for caching.
func ValidateKey(key string) error {
	if key == "" || strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	if len(key) > MaxKeyLength {
		return ErrKeyTooLong
	}
	// Reject keys with newlines or carriage returns
	if strings.ContainsAny(key, "\n\r") {
		return ErrInvalidKey
	}
	return nil
}
