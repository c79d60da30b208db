// Package interfaces defines service contracts for Heritage
package interfaces

import (
	"context"

	"github.com/bobmcallan/heritage/internal/models"
)

// ValuationService derives the portfolio snapshot and the monthly series
type ValuationService interface {
	// GetPortfolio returns the current positions and the latest invested capital
	GetPortfolio(ctx context.Context, userID string) (*models.Portfolio, error)

	// GetMonthlyHeritageEvolution values the sampled holdings of the last months
	GetMonthlyHeritageEvolution(ctx context.Context, userID string, monthsToInclude int) (*models.MonthlyHeritageEvolution, error)

	// GetMonthlyInvestmentEvolution returns the sampled invested capital of the last months
	GetMonthlyInvestmentEvolution(ctx context.Context, userID string, monthsToInclude int) (*models.MonthlyInvestmentEvolution, error)
}

// PriceService resolves monthly prices for (asset set, month) pairs
type PriceService interface {
	GetAssetMonthlyPrices(ctx context.Context, req models.AssetMonthlyPriceRequest) ([]models.AssetMonthlyPrice, error)

	// AddMonthlyPrices imports monthly closes keyed by ticker
	AddMonthlyPrices(ctx context.Context, inputs []models.MonthlyPriceInput) (int, error)
}

// AssetService is the asset directory
type AssetService interface {
	GetAll(ctx context.Context) ([]*models.Asset, error)
	GetDictionary(ctx context.Context) (map[string]*models.Asset, error)
	GetByID(ctx context.Context, code string) (*models.Asset, error)
	Save(ctx context.Context, asset *models.Asset) error
	ClearCache()

	// SyncPrices refreshes current prices from the price feed
	SyncPrices(ctx context.Context) (int, error)

	// RecordMonthlyClose stores current prices as the closing prices of month
	RecordMonthlyClose(ctx context.Context, month models.Month) (int, error)

	// BackfillMonthlyPrices stores the feed's monthly closes of an asset from
	// month from through the previous month
	BackfillMonthlyPrices(ctx context.Context, code string, from models.Month) (int, error)
}

// TransactionService is the write path for transactions
type TransactionService interface {
	List(ctx context.Context, userID string) ([]*models.Transaction, error)
	Add(ctx context.Context, tx *models.Transaction) (*models.Transaction, error)
	AddRange(ctx context.Context, userID string, txs []*models.Transaction) ([]*models.Transaction, error)
	Remove(ctx context.Context, userID, id string) error
}

// CacheInvalidator drops cached results derived from a user's transactions
type CacheInvalidator interface {
	InvalidateUser(ctx context.Context, userID string) error
	InvalidateAll(ctx context.Context) error
}
