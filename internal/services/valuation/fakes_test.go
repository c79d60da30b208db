package valuation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bobmcallan/heritage/internal/common"
	"github.com/bobmcallan/heritage/internal/interfaces"
	"github.com/bobmcallan/heritage/internal/models"
)

// now is the fixed clock of every test in this package: October 2026.
var now = time.Date(2026, time.October, 15, 9, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return now }

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func buy(code string, date time.Time, qty, price string) *models.Transaction {
	return &models.Transaction{
		UserID:          "u1",
		AssetCode:       code,
		IsBuy:           true,
		TransactionDate: date,
		Quantity:        dec(qty),
		UnitPrice:       dec(price),
		OtherCosts:      decimal.Zero,
	}
}

func sell(code string, date time.Time, qty, price string) *models.Transaction {
	tx := buy(code, date, qty, price)
	tx.IsBuy = false
	return tx
}

// fakeTransactions serves a fixed transaction list per user.
type fakeTransactions struct {
	mu     sync.Mutex
	byUser map[string][]*models.Transaction
	err    error
	calls  int
}

func newFakeTransactions(userID string, txs ...*models.Transaction) *fakeTransactions {
	return &fakeTransactions{byUser: map[string][]*models.Transaction{userID: txs}}
}

func (f *fakeTransactions) ListByUser(ctx context.Context, userID string) ([]*models.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.byUser[userID], nil
}

func (f *fakeTransactions) Get(ctx context.Context, userID, id string) (*models.Transaction, error) {
	return nil, fmt.Errorf("transaction %s: %w", id, common.ErrNotFound)
}

func (f *fakeTransactions) Save(ctx context.Context, tx *models.Transaction) error { return nil }

func (f *fakeTransactions) SaveBatch(ctx context.Context, txs []*models.Transaction) error {
	return nil
}

func (f *fakeTransactions) Delete(ctx context.Context, userID, id string) error { return nil }

func (f *fakeTransactions) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeAssets is an in-memory asset directory.
type fakeAssets struct {
	assets map[string]*models.Asset
}

func newFakeAssets(assets ...*models.Asset) *fakeAssets {
	f := &fakeAssets{assets: make(map[string]*models.Asset)}
	for _, a := range assets {
		f.assets[a.Code] = a
	}
	return f
}

func (f *fakeAssets) GetAll(ctx context.Context) ([]*models.Asset, error) {
	out := make([]*models.Asset, 0, len(f.assets))
	for _, a := range f.assets {
		out = append(out, a)
	}
	return out, nil
}

func (f *fakeAssets) GetDictionary(ctx context.Context) (map[string]*models.Asset, error) {
	return f.assets, nil
}

func (f *fakeAssets) GetByID(ctx context.Context, code string) (*models.Asset, error) {
	if a, ok := f.assets[code]; ok {
		return a, nil
	}
	return nil, fmt.Errorf("asset %s: %w", code, common.ErrNotFound)
}

func (f *fakeAssets) Save(ctx context.Context, asset *models.Asset) error {
	f.assets[asset.Code] = asset
	return nil
}

func (f *fakeAssets) ClearCache() {}

func (f *fakeAssets) SyncPrices(ctx context.Context) (int, error) { return 0, nil }

func (f *fakeAssets) RecordMonthlyClose(ctx context.Context, month models.Month) (int, error) {
	return 0, nil
}

func (f *fakeAssets) BackfillMonthlyPrices(ctx context.Context, code string, from models.Month) (int, error) {
	return 0, nil
}

// fakePrices prices every requested (code, month) from a table and records
// the requests it receives.
type fakePrices struct {
	table    map[models.Month]map[string]decimal.Decimal
	err      error
	requests []models.AssetMonthlyPriceRequest
}

func newFakePrices() *fakePrices {
	return &fakePrices{table: make(map[models.Month]map[string]decimal.Decimal)}
}

func (f *fakePrices) set(m models.Month, code, price string) {
	if f.table[m] == nil {
		f.table[m] = make(map[string]decimal.Decimal)
	}
	f.table[m][code] = dec(price)
}

func (f *fakePrices) GetAssetMonthlyPrices(ctx context.Context, req models.AssetMonthlyPriceRequest) ([]models.AssetMonthlyPrice, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	var out []models.AssetMonthlyPrice
	for i, codes := range req.AssetCodes {
		m := models.MonthOf(req.Dates[i])
		for _, code := range codes {
			if p, ok := f.table[m][code]; ok {
				out = append(out, models.AssetMonthlyPrice{AssetCode: code, Year: m.Year, Month: m.Month, Price: p})
			}
		}
	}
	return out, nil
}

func (f *fakePrices) AddMonthlyPrices(ctx context.Context, inputs []models.MonthlyPriceInput) (int, error) {
	return 0, nil
}

var (
	_ interfaces.TransactionStore = (*fakeTransactions)(nil)
	_ interfaces.AssetService     = (*fakeAssets)(nil)
	_ interfaces.PriceService     = (*fakePrices)(nil)
)
