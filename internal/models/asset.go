package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AssetType classifies a tradable asset
type AssetType string

const (
	AssetTypeStock          AssetType = "stock"
	AssetTypeETF            AssetType = "etf"
	AssetTypeCryptocurrency AssetType = "cryptocurrency"
	AssetTypeRealEstateFund AssetType = "real_estate_fund"
)

// Valid reports whether t is a known asset type.
func (t AssetType) Valid() bool {
	switch t {
	case AssetTypeStock, AssetTypeETF, AssetTypeCryptocurrency, AssetTypeRealEstateFund:
		return true
	}
	return false
}

// Asset is a tradable instrument identified by its ISIN-like code.
type Asset struct {
	Code         string          `json:"code"`
	Ticker       string          `json:"ticker"`
	Type         AssetType       `json:"type"`
	CurrentPrice decimal.Decimal `json:"current_price"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// AssetMonthlyPrice is the closing price of one asset in one calendar month.
// Identity is (AssetCode, Year, Month).
type AssetMonthlyPrice struct {
	AssetCode string          `json:"asset_code"`
	Year      int             `json:"year"`
	Month     time.Month      `json:"month"`
	Price     decimal.Decimal `json:"price"`
}

// Period returns the calendar month the price belongs to.
func (p AssetMonthlyPrice) Period() Month {
	return Month{Year: p.Year, Month: p.Month}
}

// PriceQuery selects the monthly prices of a set of assets in one month.
type PriceQuery struct {
	AssetCodes []string
	Month      Month
}

// AssetMonthlyPriceRequest pairs asset code sets with target dates.
// AssetCodes[i] is priced at the month of Dates[i].
type AssetMonthlyPriceRequest struct {
	AssetCodes [][]string  `json:"asset_codes"`
	Dates      []time.Time `json:"dates"`
}

// MonthlyClose is a month-end closing price reported by a price feed.
type MonthlyClose struct {
	Month Month           `json:"month"`
	Close decimal.Decimal `json:"close"`
}

// MonthlyPriceInput is an imported monthly close keyed by ticker.
type MonthlyPriceInput struct {
	Ticker string          `json:"ticker"`
	Year   int             `json:"year"`
	Month  int             `json:"month"`
	Price  decimal.Decimal `json:"price"`
}
