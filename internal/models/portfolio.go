package models

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Portfolio is the current-state snapshot of a user's positions.
type Portfolio struct {
	Assets        []PortfolioAsset `json:"assets"`
	TotalPurchase decimal.Decimal  `json:"total_purchase"` // invested capital of the latest month
}

// PortfolioAsset aggregates every transaction of one asset.
type PortfolioAsset struct {
	Asset               Asset           `json:"asset"`
	Quantity            decimal.Decimal `json:"quantity"`              // net of sells
	TotalSpent          decimal.Decimal `json:"total_spent"`           // sum of buy total values
	TotalQuantityBought decimal.Decimal `json:"total_quantity_bought"` // sum of buy quantities
}

// AveragePrice is the mean price paid per unit bought, zero when nothing was bought.
func (a PortfolioAsset) AveragePrice() decimal.Decimal {
	if a.TotalQuantityBought.IsZero() {
		return decimal.Zero
	}
	return a.TotalSpent.DivRound(a.TotalQuantityBought, PricePlaces)
}

// MarketValue values the net quantity at the asset's current price.
func (a PortfolioAsset) MarketValue() decimal.Decimal {
	return a.Quantity.Mul(a.Asset.CurrentPrice)
}

func sortedKeys(m map[string]decimal.Decimal) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
