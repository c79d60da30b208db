// Package cache implements the cache-aside layer over a pluggable key-value store.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/bobmcallan/heritage/internal/common"
	"github.com/bobmcallan/heritage/internal/interfaces"
)

// Service stores JSON-encoded values with an absolute TTL set on write and a
// sliding TTL re-applied on read. It holds no lock around computation: two
// concurrent misses on one key both compute and the last write wins.
type Service struct {
	store   interfaces.CacheStore
	logger  *common.Logger
	ttl     time.Duration
	sliding time.Duration
}

// NewService creates a cache service over store.
func NewService(store interfaces.CacheStore, logger *common.Logger, ttl, sliding time.Duration) *Service {
	return &Service{
		store:   store,
		logger:  logger,
		ttl:     ttl,
		sliding: sliding,
	}
}

// DefaultExpiration is the absolute TTL applied when a value is computed.
func (s *Service) DefaultExpiration() time.Duration {
	return s.ttl
}

// SlidingExpiration is the TTL re-applied when a value is read.
func (s *Service) SlidingExpiration() time.Duration {
	return s.sliding
}

func validateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return common.NewValidationError("key", "must not be empty")
	}
	return nil
}

// GetOrSet returns the cached value of key, or runs compute, stores its result
// for ttl and returns it. hit reports whether the value came from the cache.
// Compute errors are returned and nothing is stored. Unreadable entries and
// store failures degrade to recomputation.
func GetOrSet[T any](ctx context.Context, s *Service, key string, compute func(context.Context) (T, error), ttl time.Duration) (value T, hit bool, err error) {
	if err := validateKey(key); err != nil {
		return value, false, err
	}

	raw, found, err := s.store.Get(ctx, key)
	switch {
	case err != nil:
		s.logger.Warn().Err(err).Str("key", key).Msg("Cache read failed, computing")
	case found:
		if err := json.Unmarshal(raw, &value); err == nil {
			s.logger.Debug().Str("key", key).Msg("Cache hit")
			return value, true, nil
		}
		s.logger.Warn().Str("key", key).Msg("Cache entry unreadable, computing")
		var zero T
		value = zero
	default:
		s.logger.Debug().Str("key", key).Msg("Cache miss")
	}

	value, err = compute(ctx)
	if err != nil {
		return value, false, err
	}

	if err := s.set(ctx, key, value, ttl); err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("Error setting cache")
	}
	return value, false, nil
}

func (s *Service) set(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode cache value: %w", err)
	}
	return s.store.Set(ctx, key, data, ttl)
}

// RefreshKey resets the expiration of key to ttl.
func (s *Service) RefreshKey(ctx context.Context, key string, ttl time.Duration) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if err := s.store.Expire(ctx, key, ttl); err != nil {
		return fmt.Errorf("failed to refresh cache key %s: %w", key, err)
	}
	return nil
}

// Delete removes keys.
func (s *Service) Delete(ctx context.Context, keys ...string) error {
	if err := s.store.Delete(ctx, keys...); err != nil {
		return fmt.Errorf("failed to delete cache keys: %w", err)
	}
	return nil
}

// DeleteAll removes every cached value.
func (s *Service) DeleteAll(ctx context.Context) error {
	if err := s.store.Flush(ctx); err != nil {
		return fmt.Errorf("failed to flush cache: %w", err)
	}
	s.logger.Info().Msg("Cache flushed")
	return nil
}
