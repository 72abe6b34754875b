package cache

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"

	"github.com/ctf-scoreboard/internal/metrics"
)

// ComputeFunc produces the value for a key on a cache miss
type ComputeFunc func(ctx context.Context) ([]byte, error)

// Cache is a cache-aside layer over a Store. Concurrent misses on the same
// key share a single computation, and backend failures degrade to computing
// directly instead of failing the caller.
type Cache struct {
	store          Store
	logger         *slog.Logger
	metrics        *metrics.Metrics
	computeTimeout time.Duration
	group          singleflight.Group

	// writeMu serializes backend writes with generation bumps so a compute
	// that raced with Set or Remove cannot write its older value back.
	writeMu     sync.Mutex
	generations map[string]uint64
}

// New creates a cache over store. computeTimeout bounds each shared
// computation; zero means no bound beyond the callers' own.
func New(store Store, logger *slog.Logger, m *metrics.Metrics, computeTimeout time.Duration) *Cache {
	return &Cache{
		store:          store,
		logger:         logger,
		metrics:        m,
		computeTimeout: computeTimeout,
		generations:    make(map[string]uint64),
	}
}

// GetOrCompute returns the live value for key, or runs fn, stores its result
// for ttl and returns it. A caller whose ctx ends while waiting gets
// ctx.Err(); the shared computation keeps running for the other waiters.
func (c *Cache) GetOrCompute(ctx context.Context, key string, ttl time.Duration, fn ComputeFunc) ([]byte, error) {
	val, err := c.store.Get(ctx, key)
	switch {
	case err == nil:
		c.metrics.CacheLookup(metrics.ResultHit)
		return val, nil
	case errors.Is(err, ErrCacheMiss):
		c.metrics.CacheLookup(metrics.ResultMiss)
	default:
		c.metrics.CacheLookup(metrics.ResultDegraded)
		c.logger.Warn("cache read failed, computing directly", "key", key, "error", err)
	}

	ch := c.group.DoChan(key, func() (any, error) {
		return c.compute(ctx, key, ttl, fn)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	}
}

func (c *Cache) compute(parent context.Context, key string, ttl time.Duration, fn ComputeFunc) ([]byte, error) {
	gen := c.generation(key)

	ctx := context.WithoutCancel(parent)
	if c.computeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.computeTimeout)
		defer cancel()
	}

	start := time.Now()
	val, err := fn(ctx)
	c.metrics.ObserveCompute("read", time.Since(start))
	if err != nil {
		return nil, err
	}
	if len(val) == 0 {
		return val, nil
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.generations[key] != gen {
		c.logger.Debug("skipping stale cache fill", "key", key)
		return val, nil
	}
	if err := c.store.Set(ctx, key, val, ttl); err != nil {
		c.metrics.CacheWriteError()
		c.logger.Warn("cache write failed", "key", key, "error", err)
	}
	return val, nil
}

// Set replaces the value for key. In-flight computations started before
// the call will not overwrite it.
func (c *Cache) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.bump(key)
	if err := c.store.Set(ctx, key, val, ttl); err != nil {
		c.metrics.CacheWriteError()
		return errors.Wrap(err, "setting cache entry")
	}
	return nil
}

// Remove evicts key
func (c *Cache) Remove(ctx context.Context, key string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.bump(key)
	return errors.Wrap(c.store.Remove(ctx, key), "removing cache entry")
}

// bump must be called with writeMu held
func (c *Cache) bump(key string) {
	c.generations[key]++
	c.group.Forget(key)
}

func (c *Cache) generation(key string) uint64 {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.generations[key]
}
