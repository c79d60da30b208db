package valuation

import (
	"context"

	"github.com/bobmcallan/heritage/internal/cache"
	"github.com/bobmcallan/heritage/internal/common"
	"github.com/bobmcallan/heritage/internal/interfaces"
	"github.com/bobmcallan/heritage/internal/models"
)

// CachedService serves valuation results from the cache, computing them with
// the wrapped service on a miss. A hit re-applies the sliding expiration.
type CachedService struct {
	inner  interfaces.ValuationService
	cache  *cache.Service
	logger *common.Logger
}

// NewCachedService wraps inner with cache-aside reads.
func NewCachedService(inner interfaces.ValuationService, c *cache.Service, logger *common.Logger) *CachedService {
	return &CachedService{inner: inner, cache: c, logger: logger}
}

func cached[T any](ctx context.Context, s *CachedService, key string, compute func(context.Context) (T, error)) (T, error) {
	value, hit, err := cache.GetOrSet(ctx, s.cache, key, compute, s.cache.DefaultExpiration())
	if err != nil {
		return value, err
	}
	if hit {
		if err := s.cache.RefreshKey(ctx, key, s.cache.SlidingExpiration()); err != nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("Failed to refresh cache key")
		}
	}
	return value, nil
}

func (s *CachedService) GetPortfolio(ctx context.Context, userID string) (*models.Portfolio, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	return cached(ctx, s, cache.Keys.Portfolio(userID), func(ctx context.Context) (*models.Portfolio, error) {
		return s.inner.GetPortfolio(ctx, userID)
	})
}

func (s *CachedService) GetMonthlyHeritageEvolution(ctx context.Context, userID string, monthsToInclude int) (*models.MonthlyHeritageEvolution, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	if err := validateMonths(monthsToInclude); err != nil {
		return nil, err
	}
	return cached(ctx, s, cache.Keys.HeritageEvolution(userID, monthsToInclude), func(ctx context.Context) (*models.MonthlyHeritageEvolution, error) {
		return s.inner.GetMonthlyHeritageEvolution(ctx, userID, monthsToInclude)
	})
}

func (s *CachedService) GetMonthlyInvestmentEvolution(ctx context.Context, userID string, monthsToInclude int) (*models.MonthlyInvestmentEvolution, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	if err := validateMonths(monthsToInclude); err != nil {
		return nil, err
	}
	return cached(ctx, s, cache.Keys.InvestmentEvolution(userID, monthsToInclude), func(ctx context.Context) (*models.MonthlyInvestmentEvolution, error) {
		return s.inner.GetMonthlyInvestmentEvolution(ctx, userID, monthsToInclude)
	})
}

// InvalidateUser drops every cached result derived from userID's transactions.
func (s *CachedService) InvalidateUser(ctx context.Context, userID string) error {
	if err := s.cache.Delete(ctx, cache.Keys.ForUser(userID)...); err != nil {
		return err
	}
	s.logger.Debug().Str("user_id", userID).Msg("User valuation cache invalidated")
	return nil
}

// InvalidateAll drops every cached result, e.g. after prices change.
func (s *CachedService) InvalidateAll(ctx context.Context) error {
	return s.cache.DeleteAll(ctx)
}

// Compile-time checks
var (
	_ interfaces.ValuationService = (*CachedService)(nil)
	_ interfaces.CacheInvalidator = (*CachedService)(nil)
)
