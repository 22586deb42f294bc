// Package cache provides the time-to-live stores used to memoize upstream fetches.
package cache

import (
	"context"
	"time"
)

// Store is a byte-valued TTL cache
type Store interface {
	// Get returns the value and true on a hit; an expired or absent key is a miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores value under key for ttl.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
