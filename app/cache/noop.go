package cache

import (
	"context"
	"time"
)

var _ Cache = NoopCache{}

// NoopCache is used when no Redis address is configured. Every lookup misses.
type NoopCache struct{}

func (NoopCache) Get(ctx context.Context, key string) (string, bool, error) {
	return "", false, nil
}

func (NoopCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return nil
}

func (NoopCache) Health(ctx context.Context) map[string]interface{} {
	return map[string]interface{}{"status": "disabled", "type": "none"}
}

func (NoopCache) Close() error {
	return nil
}
