package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/ecodeclub/ecache"
	eredis "github.com/ecodeclub/ecache/redis"
	"github.com/ecodeclub/ekit/retry"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/ctf-scoreboard/internal/config"
)

// RedisStore keeps cache entries in Redis under a key namespace
type RedisStore struct {
	client *redis.Client
	cache  ecache.Cache
}

// NewRedisStore connects to Redis, retrying with exponential backoff while
// the server is not yet reachable.
func NewRedisStore(ctx context.Context, cfg *config.RedisConfig, logger *slog.Logger) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	strategy, err := retry.NewExponentialBackoffRetryStrategy(time.Second, 10*time.Second, int32(cfg.ConnectRetries))
	if err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "creating redis retry strategy")
	}
	for {
		err = client.Ping(ctx).Err()
		if err == nil {
			break
		}
		next, ok := strategy.Next()
		if !ok {
			_ = client.Close()
			return nil, errors.Wrap(err, "connecting to redis")
		}
		logger.Warn("redis not reachable, retrying", "addr", cfg.Addr, "retry_in", next, "error", err)
		select {
		case <-ctx.Done():
			_ = client.Close()
			return nil, errors.Wrap(ctx.Err(), "connecting to redis")
		case <-time.After(next):
		}
	}

	return NewRedisStoreFromClient(client, cfg.Namespace), nil
}

// NewRedisStoreFromClient wraps an existing client
func NewRedisStoreFromClient(client *redis.Client, namespace string) *RedisStore {
	return &RedisStore{
		client: client,
		cache: &ecache.NamespaceCache{
			Namespace: namespace,
			C:         eredis.NewCache(client),
		},
	}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	val := s.cache.Get(ctx, key)
	if val.KeyNotFound() {
		return nil, ErrCacheMiss
	}
	if val.Err != nil {
		return nil, errors.Wrapf(val.Err, "reading %s", key)
	}
	str, err := val.String()
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", key)
	}
	return []byte(str), nil
}

func (s *RedisStore) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	return errors.Wrapf(s.cache.Set(ctx, key, val, ttl), "writing %s", key)
}

func (s *RedisStore) Remove(ctx context.Context, key string) error {
	_, err := s.cache.Delete(ctx, key)
	return errors.Wrapf(err, "removing %s", key)
}

// Ping reports whether Redis answers
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (s *RedisStore) Close() error {
	return s.client.Close()
}
