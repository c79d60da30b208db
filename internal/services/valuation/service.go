package valuation

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bobmcallan/heritage/internal/common"
	"github.com/bobmcallan/heritage/internal/interfaces"
	"github.com/bobmcallan/heritage/internal/models"
	"github.com/shopspring/decimal"
)

// Service implements ValuationService by replaying a user's transactions on
// every call. Wrap it in CachedService to avoid recomputation.
type Service struct {
	transactions interfaces.TransactionStore
	assets       interfaces.AssetService
	prices       interfaces.PriceService
	logger       *common.Logger
	now          func() time.Time
}

// Option configures the service
type Option func(*Service)

// WithClock overrides the clock that decides the current month
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a new valuation service
func NewService(
	transactions interfaces.TransactionStore,
	assets interfaces.AssetService,
	prices interfaces.PriceService,
	logger *common.Logger,
	opts ...Option,
) *Service {
	s := &Service{
		transactions: transactions,
		assets:       assets,
		prices:       prices,
		logger:       logger,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func validateUserID(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return common.NewValidationError("user_id", "must not be empty")
	}
	return nil
}

func validateMonths(monthsToInclude int) error {
	if !models.IsAllowedMonths(monthsToInclude) {
		return common.NewValidationError("months_to_include", "%d is not one of %v", monthsToInclude, models.AllowedMonths)
	}
	return nil
}

func (s *Service) currentMonth() models.Month {
	return models.MonthOf(s.now().UTC())
}

func (s *Service) loadTransactions(ctx context.Context, userID string) ([]*models.Transaction, error) {
	txs, err := s.transactions.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to load transactions")
		return nil, fmt.Errorf("failed to load transactions for user %s: %w", userID, err)
	}
	return txs, nil
}

// GetPortfolio aggregates every transaction per asset and attaches the invested
// capital of the latest month. Fully sold assets are left out. Every referenced
// asset must exist in the directory.
func (s *Service) GetPortfolio(ctx context.Context, userID string) (*models.Portfolio, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}

	txs, err := s.loadTransactions(ctx, userID)
	if err != nil {
		return nil, err
	}

	portfolio := &models.Portfolio{Assets: []models.PortfolioAsset{}, TotalPurchase: decimal.Zero}
	if len(txs) == 0 {
		return portfolio, nil
	}

	investments, err := TrackInvestments(txs, s.currentMonth())
	if err != nil {
		return nil, fmt.Errorf("failed to track invested capital for user %s: %w", userID, err)
	}
	if len(investments) > 0 {
		portfolio.TotalPurchase = investments[len(investments)-1].TotalInvestment
	}

	positions := make(map[string]*models.PortfolioAsset)
	for _, tx := range txs {
		pos, ok := positions[tx.AssetCode]
		if !ok {
			pos = &models.PortfolioAsset{}
			positions[tx.AssetCode] = pos
		}
		pos.Quantity = pos.Quantity.Add(tx.SignedQuantity())
		if tx.IsBuy {
			pos.TotalSpent = pos.TotalSpent.Add(tx.TotalValue())
			pos.TotalQuantityBought = pos.TotalQuantityBought.Add(tx.Quantity)
		}
	}

	directory, err := s.assets.GetDictionary(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to load asset directory")
		return nil, fmt.Errorf("failed to load asset directory: %w", err)
	}

	codes := make([]string, 0, len(positions))
	for code := range positions {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	var missing []string
	for _, code := range codes {
		asset, ok := directory[code]
		if !ok {
			missing = append(missing, code)
			continue
		}
		pos := positions[code]
		if pos.Quantity.Sign() <= 0 {
			continue
		}
		pos.Asset = *asset
		portfolio.Assets = append(portfolio.Assets, *pos)
	}
	if len(missing) > 0 {
		err := common.NewAssetsNotFoundError(missing)
		s.logger.Warn().Str("user_id", userID).Strs("codes", err.Codes).Msg("Portfolio references unknown assets")
		return nil, err
	}

	return portfolio, nil
}

// GetMonthlyHeritageEvolution values the sampled holdings of the last
// monthsToInclude months. Prices are fetched for the sampled months only.
// Assets without a price in a month contribute nothing to that month.
func (s *Service) GetMonthlyHeritageEvolution(ctx context.Context, userID string, monthsToInclude int) (*models.MonthlyHeritageEvolution, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	if err := validateMonths(monthsToInclude); err != nil {
		return nil, err
	}

	txs, err := s.loadTransactions(ctx, userID)
	if err != nil {
		return nil, err
	}

	holdings := Sample(lastN(ReplayHoldings(txs, s.currentMonth()), monthsToInclude))
	evolution := &models.MonthlyHeritageEvolution{Records: make([]models.MonthlyHeritageRecord, 0, len(holdings))}
	if len(holdings) == 0 {
		return evolution, nil
	}

	req := models.AssetMonthlyPriceRequest{
		AssetCodes: make([][]string, len(holdings)),
		Dates:      make([]time.Time, len(holdings)),
	}
	for i, h := range holdings {
		req.AssetCodes[i] = h.AssetCodes()
		req.Dates[i] = h.MonthEnd
	}

	prices, err := s.prices.GetAssetMonthlyPrices(ctx, req)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Int("months", len(holdings)).Msg("Failed to resolve monthly prices")
		return nil, fmt.Errorf("failed to resolve monthly prices: %w", err)
	}

	priceIndex := make(map[models.Month]map[string]decimal.Decimal)
	for _, p := range prices {
		byCode, ok := priceIndex[p.Period()]
		if !ok {
			byCode = make(map[string]decimal.Decimal)
			priceIndex[p.Period()] = byCode
		}
		byCode[p.AssetCode] = p.Price
	}

	for _, h := range holdings {
		monthPrices := priceIndex[models.MonthOf(h.MonthEnd)]
		record := models.MonthlyHeritageRecord{
			MonthEnd:      h.MonthEnd,
			TotalHeritage: decimal.Zero,
			AssetValues:   make(map[string]decimal.Decimal, len(h.Holdings)),
		}
		for _, code := range h.AssetCodes() {
			price, ok := monthPrices[code]
			if !ok {
				continue
			}
			value := h.Holdings[code].Mul(price)
			record.AssetValues[code] = value
			record.TotalHeritage = record.TotalHeritage.Add(value)
		}
		evolution.Records = append(evolution.Records, record)
	}

	return evolution, nil
}

// GetMonthlyInvestmentEvolution returns the sampled invested capital of the
// last monthsToInclude months.
func (s *Service) GetMonthlyInvestmentEvolution(ctx context.Context, userID string, monthsToInclude int) (*models.MonthlyInvestmentEvolution, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	if err := validateMonths(monthsToInclude); err != nil {
		return nil, err
	}

	txs, err := s.loadTransactions(ctx, userID)
	if err != nil {
		return nil, err
	}

	investments, err := TrackInvestments(txs, s.currentMonth())
	if err != nil {
		return nil, fmt.Errorf("failed to track invested capital for user %s: %w", userID, err)
	}

	sampled := Sample(lastN(investments, monthsToInclude))
	evolution := &models.MonthlyInvestmentEvolution{Investments: make([]models.MonthlyInvestment, len(sampled))}
	copy(evolution.Investments, sampled)
	return evolution, nil
}

// Compile-time check
var _ interfaces.ValuationService = (*Service)(nil)
