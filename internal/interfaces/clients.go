// Package interfaces defines service contracts for Heritage
package interfaces

import (
	"context"
	"time"

	"github.com/bobmcallan/heritage/internal/models"
	"github.com/shopspring/decimal"
)

// PriceFeedClient provides market data for assets
type PriceFeedClient interface {
	// GetRealTimePrice returns the latest traded price for a ticker
	GetRealTimePrice(ctx context.Context, ticker string) (decimal.Decimal, error)

	// GetMonthlyCloses returns month-end closing prices between from and to
	GetMonthlyCloses(ctx context.Context, ticker string, from, to time.Time) ([]models.MonthlyClose, error)
}
