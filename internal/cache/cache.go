// Package cache defines the shared coverage cache tier.
package cache

import (
	"context"
	"time"
)

// Store is a byte cache keyed by string. Get reports found=false on a miss.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}
