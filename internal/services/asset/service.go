// Package asset provides the asset directory and its price maintenance.
package asset

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/bobmcallan/heritage/internal/common"
	"github.com/bobmcallan/heritage/internal/interfaces"
	"github.com/bobmcallan/heritage/internal/models"
)

const (
	allAssetsKey = "assets:all"

	// memoExpiration bounds how long the directory is served from memory
	memoExpiration = 10 * time.Minute
)

// Service implements AssetService over the asset store. The full directory
// is memoised in process and re-armed on every read.
type Service struct {
	store  interfaces.AssetStore
	prices interfaces.MonthlyPriceStore
	feed   interfaces.PriceFeedClient
	memo   *gocache.Cache
	logger *common.Logger
	now    func() time.Time
}

// Option configures the service
type Option func(*Service)

// WithClock overrides the clock used for price timestamps and month boundaries
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a new asset service. feed may be nil, in which case
// price synchronisation is disabled.
func NewService(store interfaces.AssetStore, prices interfaces.MonthlyPriceStore, feed interfaces.PriceFeedClient, logger *common.Logger, opts ...Option) *Service {
	s := &Service{
		store:  store,
		prices: prices,
		feed:   feed,
		memo:   gocache.New(memoExpiration, 2*memoExpiration),
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetAll returns every asset ordered by code.
func (s *Service) GetAll(ctx context.Context) ([]*models.Asset, error) {
	// the memo lives a fixed period from load; reads do not extend it
	if v, found := s.memo.Get(allAssetsKey); found {
		return v.([]*models.Asset), nil
	}

	assets, err := s.store.List(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list assets")
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}
	sort.Slice(assets, func(i, j int) bool { return assets[i].Code < assets[j].Code })

	s.memo.Set(allAssetsKey, assets, gocache.DefaultExpiration)
	return assets, nil
}

// GetDictionary returns the directory keyed by asset code.
func (s *Service) GetDictionary(ctx context.Context) (map[string]*models.Asset, error) {
	assets, err := s.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	dict := make(map[string]*models.Asset, len(assets))
	for _, a := range assets {
		dict[a.Code] = a
	}
	return dict, nil
}

// GetByID returns the asset with the given code or an ErrNotFound error.
func (s *Service) GetByID(ctx context.Context, code string) (*models.Asset, error) {
	if strings.TrimSpace(code) == "" {
		return nil, common.NewValidationError("code", "must not be empty")
	}
	dict, err := s.GetDictionary(ctx)
	if err != nil {
		return nil, err
	}
	a, ok := dict[code]
	if !ok {
		return nil, fmt.Errorf("asset %s: %w", code, common.ErrNotFound)
	}
	return a, nil
}

// Save validates and persists asset, then drops the memoised directory.
func (s *Service) Save(ctx context.Context, asset *models.Asset) error {
	if asset == nil {
		return common.NewValidationError("asset", "must not be nil")
	}
	asset.Code = strings.TrimSpace(asset.Code)
	asset.Ticker = strings.TrimSpace(asset.Ticker)
	if asset.Code == "" {
		return common.NewValidationError("code", "must not be empty")
	}
	if asset.Ticker == "" {
		return common.NewValidationError("ticker", "must not be empty")
	}
	if !asset.Type.Valid() {
		return common.NewValidationError("type", "unknown asset type %q", asset.Type)
	}
	if asset.CurrentPrice.Sign() < 0 {
		return common.NewValidationError("current_price", "must not be negative")
	}
	asset.CurrentPrice = asset.CurrentPrice.Round(models.PricePlaces)
	if asset.UpdatedAt.IsZero() {
		asset.UpdatedAt = s.now().UTC()
	}

	if err := s.store.Save(ctx, asset); err != nil {
		s.logger.Error().Err(err).Str("asset", asset.Code).Msg("Failed to save asset")
		return fmt.Errorf("failed to save asset %s: %w", asset.Code, err)
	}
	s.ClearCache()
	return nil
}

// ClearCache drops the memoised directory.
func (s *Service) ClearCache() {
	s.memo.Delete(allAssetsKey)
}

var errNoFeed = fmt.Errorf("%w: price feed not configured", common.ErrUnavailable)

// SyncPrices refreshes every asset's current price from the feed. Assets
// whose price cannot be fetched keep their previous price. Returns the
// number of assets updated.
func (s *Service) SyncPrices(ctx context.Context) (int, error) {
	if s.feed == nil {
		return 0, errNoFeed
	}

	assets, err := s.store.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list assets: %w", err)
	}

	updated := 0
	for _, a := range assets {
		if err := ctx.Err(); err != nil {
			return updated, err
		}
		price, err := s.feed.GetRealTimePrice(ctx, a.Ticker)
		if err != nil {
			s.logger.Warn().Err(err).Str("asset", a.Code).Str("ticker", a.Ticker).Msg("Price fetch failed, keeping previous price")
			continue
		}
		a.CurrentPrice = price.Round(models.PricePlaces)
		a.UpdatedAt = s.now().UTC()
		if err := s.store.Save(ctx, a); err != nil {
			s.logger.Warn().Err(err).Str("asset", a.Code).Msg("Failed to persist synced price")
			continue
		}
		updated++
	}

	s.ClearCache()
	s.logger.Info().Int("updated", updated).Int("assets", len(assets)).Msg("Asset prices synced")
	return updated, nil
}

// RecordMonthlyClose stores every asset's current price as its closing price
// for month. Only finished months can be recorded; rows that already exist
// are kept.
func (s *Service) RecordMonthlyClose(ctx context.Context, month models.Month) (int, error) {
	if !month.Before(models.MonthOf(s.now())) {
		return 0, common.NewValidationError("month", "%s has not finished", month)
	}

	assets, err := s.store.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list assets: %w", err)
	}

	prices := make([]models.AssetMonthlyPrice, 0, len(assets))
	for _, a := range assets {
		prices = append(prices, models.AssetMonthlyPrice{
			AssetCode: a.Code,
			Year:      month.Year,
			Month:     month.Month,
			Price:     a.CurrentPrice,
		})
	}
	if len(prices) == 0 {
		return 0, nil
	}

	if err := s.prices.SaveMonthlyPrices(ctx, prices); err != nil {
		s.logger.Error().Err(err).Str("month", month.String()).Msg("Failed to record monthly close")
		return 0, fmt.Errorf("failed to record monthly close for %s: %w", month, err)
	}

	s.logger.Info().Str("month", month.String()).Int("assets", len(prices)).Msg("Monthly close recorded")
	return len(prices), nil
}

// BackfillMonthlyPrices stores the feed's monthly closes of one asset from
// month from through the previous month.
func (s *Service) BackfillMonthlyPrices(ctx context.Context, code string, from models.Month) (int, error) {
	if s.feed == nil {
		return 0, errNoFeed
	}
	asset, err := s.GetByID(ctx, code)
	if err != nil {
		return 0, err
	}

	last := models.MonthOf(s.now()).AddMonths(-1)
	if from.After(last) {
		return 0, common.NewValidationError("from", "%s is not before the current month", from)
	}

	closes, err := s.feed.GetMonthlyCloses(ctx, asset.Ticker, from.Start(), last.End())
	if err != nil {
		s.logger.Error().Err(err).Str("asset", code).Msg("Failed to fetch monthly closes")
		return 0, fmt.Errorf("failed to fetch monthly closes for %s: %w", code, err)
	}

	prices := make([]models.AssetMonthlyPrice, 0, len(closes))
	for _, c := range closes {
		if c.Month.Before(from) || c.Month.After(last) {
			continue
		}
		prices = append(prices, models.AssetMonthlyPrice{
			AssetCode: asset.Code,
			Year:      c.Month.Year,
			Month:     c.Month.Month,
			Price:     c.Close.Round(models.PricePlaces),
		})
	}
	if len(prices) == 0 {
		return 0, nil
	}

	if err := s.prices.SaveMonthlyPrices(ctx, prices); err != nil {
		return 0, fmt.Errorf("failed to save monthly closes for %s: %w", code, err)
	}

	s.logger.Info().Str("asset", code).Str("from", from.String()).Int("months", len(prices)).Msg("Monthly prices backfilled")
	return len(prices), nil
}

// Compile-time check
var _ interfaces.AssetService = (*Service)(nil)
