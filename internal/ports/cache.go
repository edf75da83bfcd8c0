package ports

import (
	"context"
	"time"
)

// Cache is a generic key-value capability for usecases. The proxy uses it to
// keep the last raw detail payload per task so listings can fall back to
// stale detail when the upstream is down. Writes are best-effort.
type Cache interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
