package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AllowedMonths are the window sizes accepted by the evolution operations.
var AllowedMonths = []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 60, 360}

// IsAllowedMonths reports whether n is an accepted evolution window.
func IsAllowedMonths(n int) bool {
	for _, m := range AllowedMonths {
		if m == n {
			return true
		}
	}
	return false
}

// MonthlyHolding is the quantity held per asset code at a month end.
// Assets whose running quantity reached zero or below are absent.
type MonthlyHolding struct {
	MonthEnd time.Time                  `json:"month_end"`
	Holdings map[string]decimal.Decimal `json:"holdings"`
}

// AssetCodes returns the held asset codes in ascending order.
func (h MonthlyHolding) AssetCodes() []string {
	return sortedKeys(h.Holdings)
}

// MonthlyInvestment is the cumulative outstanding invested capital at a month end.
type MonthlyInvestment struct {
	MonthEnd        time.Time       `json:"month_end"`
	TotalInvestment decimal.Decimal `json:"total_investment"`
}

// MonthlyHeritageRecord is the market value of the holdings at a month end.
type MonthlyHeritageRecord struct {
	MonthEnd      time.Time                  `json:"month_end"`
	TotalHeritage decimal.Decimal            `json:"total_heritage"`
	AssetValues   map[string]decimal.Decimal `json:"asset_values"`
}

// MonthlyHeritageEvolution is the sampled heritage series.
type MonthlyHeritageEvolution struct {
	Records []MonthlyHeritageRecord `json:"records"`
}

// MonthlyInvestmentEvolution is the sampled invested-capital series.
type MonthlyInvestmentEvolution struct {
	Investments []MonthlyInvestment `json:"investments"`
}
