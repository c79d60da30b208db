package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Decimal places persisted for transaction amounts.
const (
	QuantityPlaces = 8
	PricePlaces    = 2
)

// Transaction is a single buy or sell of an asset by a user.
// Immutable once persisted.
type Transaction struct {
	ID              string          `json:"id"`
	UserID          string          `json:"user_id"`
	AssetCode       string          `json:"asset_code"`
	IsBuy           bool            `json:"is_buy"`
	TransactionDate time.Time       `json:"transaction_date"`
	Quantity        decimal.Decimal `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	OtherCosts      decimal.Decimal `json:"other_costs"`
	CreatedAt       time.Time       `json:"created_at"`
}

// TotalValue is quantity × unit price, plus other costs on buys and minus
// other costs on sells.
func (t Transaction) TotalValue() decimal.Decimal {
	gross := t.Quantity.Mul(t.UnitPrice)
	if t.IsBuy {
		return gross.Add(t.OtherCosts)
	}
	return gross.Sub(t.OtherCosts)
}

// SignedQuantity is positive for buys and negative for sells.
func (t Transaction) SignedQuantity() decimal.Decimal {
	if t.IsBuy {
		return t.Quantity
	}
	return t.Quantity.Neg()
}

// Month returns the calendar month the transaction was executed in.
func (t Transaction) Month() Month {
	return MonthOf(t.TransactionDate)
}
