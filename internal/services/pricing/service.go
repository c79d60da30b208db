// Package pricing resolves monthly asset prices for valuation.
package pricing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bobmcallan/heritage/internal/common"
	"github.com/bobmcallan/heritage/internal/interfaces"
	"github.com/bobmcallan/heritage/internal/models"
)

// Service implements PriceService. The current month is priced from live
// asset prices, every other month from the historical price store in one
// batched query.
type Service struct {
	assets interfaces.AssetService
	store  interfaces.MonthlyPriceStore
	logger *common.Logger
	now    func() time.Time
}

// Option configures the service
type Option func(*Service)

// WithClock overrides the clock that decides the current month
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a new pricing service
func NewService(assets interfaces.AssetService, store interfaces.MonthlyPriceStore, logger *common.Logger, opts ...Option) *Service {
	s := &Service{
		assets: assets,
		store:  store,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func validateRequest(req models.AssetMonthlyPriceRequest) error {
	if len(req.AssetCodes) == 0 {
		return common.NewValidationError("asset_codes", "must not be empty")
	}
	if len(req.Dates) == 0 {
		return common.NewValidationError("dates", "must not be empty")
	}
	if len(req.AssetCodes) != len(req.Dates) {
		return common.NewValidationError("asset_codes", "length %d does not match dates length %d", len(req.AssetCodes), len(req.Dates))
	}
	return nil
}

// GetAssetMonthlyPrices returns the price rows of every (codes, month) entry
// of req. Entries with no codes are skipped. Codes without a price produce no row.
func (s *Service) GetAssetMonthlyPrices(ctx context.Context, req models.AssetMonthlyPriceRequest) ([]models.AssetMonthlyPrice, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	current := models.MonthOf(s.now())
	var (
		live    [][]string
		queries []models.PriceQuery
	)
	for i, codes := range req.AssetCodes {
		if len(codes) == 0 {
			continue
		}
		month := models.MonthOf(req.Dates[i])
		if month == current {
			live = append(live, codes)
			continue
		}
		queries = append(queries, models.PriceQuery{AssetCodes: codes, Month: month})
	}

	var results []models.AssetMonthlyPrice
	if len(live) > 0 {
		directory, err := s.assets.GetDictionary(ctx)
		if err != nil {
			s.logger.Error().Err(err).Msg("Failed to load asset directory for live prices")
			return nil, fmt.Errorf("failed to load asset directory: %w", err)
		}
		for _, codes := range live {
			for _, code := range codes {
				asset, ok := directory[code]
				if !ok {
					continue
				}
				results = append(results, models.AssetMonthlyPrice{
					AssetCode: code,
					Year:      current.Year,
					Month:     current.Month,
					Price:     asset.CurrentPrice,
				})
			}
		}
	}

	if len(queries) > 0 {
		historical, err := s.store.GetMonthlyPrices(ctx, queries)
		if err != nil {
			s.logger.Error().Err(err).Int("months", len(queries)).Msg("Historical price query failed")
			return nil, fmt.Errorf("failed to query historical prices: %w", err)
		}
		results = append(results, historical...)
	}

	s.logger.Debug().
		Int("live_months", len(live)).
		Int("historical_months", len(queries)).
		Int("rows", len(results)).
		Msg("Monthly prices resolved")

	return results, nil
}

// AddMonthlyPrices maps imported closes to asset codes by ticker and stores
// them. Unknown tickers are skipped. Returns the number of rows submitted.
func (s *Service) AddMonthlyPrices(ctx context.Context, inputs []models.MonthlyPriceInput) (int, error) {
	if len(inputs) == 0 {
		return 0, nil
	}
	for i, in := range inputs {
		if in.Month < 1 || in.Month > 12 {
			return 0, common.NewValidationError(fmt.Sprintf("prices[%d].month", i), "%d is not a calendar month", in.Month)
		}
		if in.Price.Sign() < 0 {
			return 0, common.NewValidationError(fmt.Sprintf("prices[%d].price", i), "must not be negative")
		}
	}

	assets, err := s.assets.GetAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load assets: %w", err)
	}
	byTicker := make(map[string]*models.Asset, len(assets))
	for _, a := range assets {
		if strings.TrimSpace(a.Ticker) == "" || strings.TrimSpace(a.Code) == "" {
			continue
		}
		byTicker[strings.ToUpper(a.Ticker)] = a
	}

	prices := make([]models.AssetMonthlyPrice, 0, len(inputs))
	skipped := 0
	for _, in := range inputs {
		asset, ok := byTicker[strings.ToUpper(in.Ticker)]
		if !ok {
			skipped++
			continue
		}
		prices = append(prices, models.AssetMonthlyPrice{
			AssetCode: asset.Code,
			Year:      in.Year,
			Month:     time.Month(in.Month),
			Price:     in.Price.Round(models.PricePlaces),
		})
	}
	if len(prices) == 0 {
		s.logger.Warn().Int("skipped", skipped).Msg("No monthly prices matched a known ticker")
		return 0, nil
	}

	if err := s.store.SaveMonthlyPrices(ctx, prices); err != nil {
		s.logger.Error().Err(err).Int("rows", len(prices)).Msg("Failed to save monthly prices")
		return 0, fmt.Errorf("failed to save monthly prices: %w", err)
	}

	s.logger.Info().Int("rows", len(prices)).Int("skipped", skipped).Msg("Monthly prices imported")
	return len(prices), nil
}

// Compile-time check
var _ interfaces.PriceService = (*Service)(nil)
