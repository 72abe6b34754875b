package cache

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// ErrCacheMiss is returned by a Store when the key is absent or expired
var ErrCacheMiss = errors.New("cache miss")

// Store is a byte-oriented key/value backend with expiry. Implementations
// must make Set atomic per key: a concurrent Get sees the old value or the
// new one, never a mix.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Remove(ctx context.Context, key string) error
}
