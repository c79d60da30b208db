package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bobmcallan/heritage/internal/interfaces"
)

// RedisStore is a CacheStore backed by a Redis database.
type RedisStore struct {
	Client *redis.Client
}

// NewRedisStore connects a store with the given options.
func NewRedisStore(opt *redis.Options) *RedisStore {
	return &RedisStore{Client: redis.NewClient(opt)}
}

// Ping checks connectivity.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.Client.Ping(ctx).Err()
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := s.Client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

// Set stores value; ttl <= 0 keeps the key until deleted.
func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	return s.Client.Set(ctx, key, value, ttl).Err()
}

// Expire resets the key's time to live. Missing keys are ignored.
func (s *RedisStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return s.Client.Expire(ctx, key, ttl).Err()
}

func (s *RedisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.Client.Del(ctx, keys...).Err()
}

// Flush removes every key of the selected database.
func (s *RedisStore) Flush(ctx context.Context) error {
	return s.Client.FlushDB(ctx).Err()
}

// Close releases the connection pool.
func (s *RedisStore) Close() error {
	return s.Client.Close()
}

var _ interfaces.CacheStore = (*RedisStore)(nil)
