// Package valuation replays transaction histories into monthly holdings,
// invested capital and heritage series.
package valuation

import (
	"maps"
	"sort"

	"github.com/bobmcallan/heritage/internal/models"
	"github.com/shopspring/decimal"
)

// sortByDate returns a copy of txs ordered by transaction date, then by
// creation time. Remaining ties keep input order.
func sortByDate(txs []*models.Transaction) []*models.Transaction {
	sorted := make([]*models.Transaction, len(txs))
	copy(sorted, txs)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if !a.TransactionDate.Equal(b.TransactionDate) {
			return a.TransactionDate.Before(b.TransactionDate)
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
	return sorted
}

// monthCursor walks date-sorted transactions one calendar month at a time,
// from the month of the first transaction through the current month.
type monthCursor struct {
	txs     []*models.Transaction
	next    int
	month   models.Month
	current models.Month
}

func newMonthCursor(sorted []*models.Transaction, current models.Month) *monthCursor {
	return &monthCursor{
		txs:     sorted,
		month:   sorted[0].Month(),
		current: current,
	}
}

// step returns the next month and the transactions executed in it.
// ok is false once the current month has been emitted.
func (c *monthCursor) step() (month models.Month, txs []*models.Transaction, ok bool) {
	if c.month.After(c.current) {
		return models.Month{}, nil, false
	}
	start := c.next
	for c.next < len(c.txs) && !c.txs[c.next].Month().After(c.month) {
		c.next++
	}
	month = c.month
	c.month = c.month.Next()
	return month, c.txs[start:c.next], true
}

// ReplayHoldings produces one holding snapshot per month from the first
// transaction's month through current, inclusive. Months without transactions
// carry the previous snapshot forward. Each snapshot owns its map.
func ReplayHoldings(txs []*models.Transaction, current models.Month) []models.MonthlyHolding {
	if len(txs) == 0 {
		return nil
	}

	sorted := sortByDate(txs)
	cursor := newMonthCursor(sorted, current)
	running := make(map[string]decimal.Decimal)
	holdings := make([]models.MonthlyHolding, 0, models.MonthsBetween(cursor.month, current))

	for {
		month, monthTxs, ok := cursor.step()
		if !ok {
			break
		}
		for _, tx := range monthTxs {
			qty := running[tx.AssetCode].Add(tx.SignedQuantity())
			if qty.Sign() <= 0 {
				delete(running, tx.AssetCode)
				continue
			}
			running[tx.AssetCode] = qty
		}
		holdings = append(holdings, models.MonthlyHolding{
			MonthEnd: month.End(),
			Holdings: maps.Clone(running),
		})
	}

	return holdings
}
