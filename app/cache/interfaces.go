package cache

import (
	"context"
	"time"
)

// Cache stores short-lived string values. A miss is reported as found=false, not as an error.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Health(ctx context.Context) map[string]interface{}
	Close() error
}
