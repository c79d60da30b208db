package valuation

import (
	"github.com/bobmcallan/heritage/internal/common"
	"github.com/bobmcallan/heritage/internal/models"
	"github.com/shopspring/decimal"
)

// buyLot is one buy transaction and how much of it later sells consumed.
type buyLot struct {
	buy      *models.Transaction
	consumed decimal.Decimal
}

func (l *buyLot) available() decimal.Decimal {
	return l.buy.Quantity.Sub(l.consumed)
}

// lotBook holds the open lots of each asset in FIFO order.
// A book lives for a single replay.
type lotBook map[string][]*buyLot

func (b lotBook) open(buy *models.Transaction) {
	b[buy.AssetCode] = append(b[buy.AssetCode], &buyLot{buy: buy})
}

// consume draws qty units from the oldest lots of code and returns the cost
// basis removed (units × the lot's unit price) plus any quantity left over
// once the lots ran out.
func (b lotBook) consume(code string, qty decimal.Decimal) (cost, remaining decimal.Decimal) {
	remaining = qty
	lots := b[code]
	for len(lots) > 0 && remaining.Sign() > 0 {
		lot := lots[0]
		units := decimal.Min(remaining, lot.available())
		cost = cost.Add(units.Mul(lot.buy.UnitPrice))
		lot.consumed = lot.consumed.Add(units)
		remaining = remaining.Sub(units)
		if lot.available().Sign() <= 0 {
			lots = lots[1:]
		}
	}
	b[code] = lots
	return cost, remaining
}

// TrackInvestments replays txs into one cumulative invested-capital point per
// month from the first transaction's month through current. Buys add their
// total value; sells remove cost basis from the oldest open lots. A sell larger
// than the open lots of its asset fails with *common.OversellError.
func TrackInvestments(txs []*models.Transaction, current models.Month) ([]models.MonthlyInvestment, error) {
	if len(txs) == 0 {
		return nil, nil
	}

	sorted := sortByDate(txs)
	cursor := newMonthCursor(sorted, current)
	book := make(lotBook)
	total := decimal.Zero
	investments := make([]models.MonthlyInvestment, 0, models.MonthsBetween(cursor.month, current))

	for {
		month, monthTxs, ok := cursor.step()
		if !ok {
			break
		}
		for _, tx := range monthTxs {
			if tx.IsBuy {
				book.open(tx)
				total = total.Add(tx.TotalValue())
				continue
			}
			cost, remaining := book.consume(tx.AssetCode, tx.Quantity)
			if remaining.Sign() > 0 {
				return nil, &common.OversellError{
					AssetCode: tx.AssetCode,
					Date:      tx.TransactionDate,
					Missing:   remaining,
				}
			}
			total = total.Sub(cost)
		}
		investments = append(investments, models.MonthlyInvestment{
			MonthEnd:        month.End(),
			TotalInvestment: total,
		})
	}

	return investments, nil
}
