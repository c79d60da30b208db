package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/heritage/internal/app"
	"github.com/bobmcallan/heritage/internal/common"
	"github.com/bobmcallan/heritage/internal/models"
)

type stubValuation struct {
	portfolio  *models.Portfolio
	lastUser   string
	lastMonths int
	err        error
}

func (s *stubValuation) GetPortfolio(_ context.Context, userID string) (*models.Portfolio, error) {
	s.lastUser = userID
	return s.portfolio, s.err
}

func (s *stubValuation) GetMonthlyHeritageEvolution(_ context.Context, userID string, months int) (*models.MonthlyHeritageEvolution, error) {
	s.lastUser, s.lastMonths = userID, months
	if s.err != nil {
		return nil, s.err
	}
	return &models.MonthlyHeritageEvolution{Records: []models.MonthlyHeritageRecord{}}, nil
}

func (s *stubValuation) GetMonthlyInvestmentEvolution(_ context.Context, userID string, months int) (*models.MonthlyInvestmentEvolution, error) {
	s.lastUser, s.lastMonths = userID, months
	if s.err != nil {
		return nil, s.err
	}
	return &models.MonthlyInvestmentEvolution{Investments: []models.MonthlyInvestment{}}, nil
}

type stubAssets struct {
	assets       map[string]*models.Asset
	saved        *models.Asset
	backfillCode string
	backfillFrom models.Month
}

func (s *stubAssets) GetAll(context.Context) ([]*models.Asset, error) {
	var out []*models.Asset
	for _, a := range s.assets {
		out = append(out, a)
	}
	return out, nil
}

func (s *stubAssets) GetDictionary(context.Context) (map[string]*models.Asset, error) {
	return s.assets, nil
}

func (s *stubAssets) GetByID(_ context.Context, code string) (*models.Asset, error) {
	if a, ok := s.assets[code]; ok {
		return a, nil
	}
	return nil, common.ErrNotFound
}

func (s *stubAssets) Save(_ context.Context, a *models.Asset) error {
	if a.Code == "" {
		return common.NewValidationError("code", "must not be empty")
	}
	s.saved = a
	return nil
}

func (s *stubAssets) ClearCache() {}

func (s *stubAssets) SyncPrices(context.Context) (int, error) { return 0, nil }

func (s *stubAssets) RecordMonthlyClose(context.Context, models.Month) (int, error) {
	return 0, nil
}

func (s *stubAssets) BackfillMonthlyPrices(_ context.Context, code string, from models.Month) (int, error) {
	s.backfillCode, s.backfillFrom = code, from
	return 7, nil
}

type stubPrices struct {
	inputs []models.MonthlyPriceInput
	req    models.AssetMonthlyPriceRequest
}

func (s *stubPrices) GetAssetMonthlyPrices(_ context.Context, req models.AssetMonthlyPriceRequest) ([]models.AssetMonthlyPrice, error) {
	s.req = req
	if len(req.AssetCodes) == 0 {
		return nil, common.NewValidationError("asset_codes", "must not be empty")
	}
	return []models.AssetMonthlyPrice{{AssetCode: "A", Year: 2026, Month: time.January, Price: decimal.NewFromInt(10)}}, nil
}

func (s *stubPrices) AddMonthlyPrices(_ context.Context, inputs []models.MonthlyPriceInput) (int, error) {
	s.inputs = inputs
	return len(inputs), nil
}

type stubTransactions struct {
	added   []*models.Transaction
	rangeOf string
	removed string
}

func (s *stubTransactions) List(context.Context, string) ([]*models.Transaction, error) {
	return nil, nil
}

func (s *stubTransactions) Add(_ context.Context, tx *models.Transaction) (*models.Transaction, error) {
	tx.ID = "generated"
	s.added = append(s.added, tx)
	return tx, nil
}

func (s *stubTransactions) AddRange(_ context.Context, userID string, txs []*models.Transaction) ([]*models.Transaction, error) {
	s.rangeOf = userID
	s.added = append(s.added, txs...)
	return txs, nil
}

func (s *stubTransactions) Remove(_ context.Context, _, id string) error {
	if id != "t1" {
		return common.ErrNotFound
	}
	s.removed = id
	return nil
}

type testEnv struct {
	handler      http.Handler
	valuation    *stubValuation
	assets       *stubAssets
	prices       *stubPrices
	transactions *stubTransactions
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		valuation: &stubValuation{portfolio: &models.Portfolio{Assets: []models.PortfolioAsset{}, TotalPurchase: decimal.NewFromInt(100)}},
		assets: &stubAssets{assets: map[string]*models.Asset{
			"A": {Code: "A", Ticker: "AAA", Type: models.AssetTypeStock, CurrentPrice: decimal.NewFromInt(12)},
		}},
		prices:       &stubPrices{},
		transactions: &stubTransactions{},
	}
	a := &app.App{
		Config:             common.NewDefaultConfig(),
		Logger:             common.NewSilentLogger(),
		AssetService:       env.assets,
		PriceService:       env.prices,
		ValuationService:   env.valuation,
		TransactionService: env.transactions,
		StartupTime:        time.Now(),
	}
	env.handler = NewServer(a).Handler()
	return env
}

func (e *testEnv) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	e.handler.ServeHTTP(rr, req)
	return rr
}

func TestHealthAndVersion(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())

	rr = env.do(http.MethodGet, "/api/version", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"version"`)
}

func TestPortfolio(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(http.MethodGet, "/api/users/u1/portfolio", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "u1", env.valuation.lastUser)
	assert.JSONEq(t, `{"assets":[],"total_purchase":"100"}`, rr.Body.String())

	rr = env.do(http.MethodPost, "/api/users/u1/portfolio", "{}")
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestEvolution_MonthsParam(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(http.MethodGet, "/api/users/u1/heritage?months=60", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 60, env.valuation.lastMonths)

	rr = env.do(http.MethodGet, "/api/users/u2/investments", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, defaultEvolutionMonths, env.valuation.lastMonths)
	assert.Equal(t, "u2", env.valuation.lastUser)

	rr = env.do(http.MethodGet, "/api/users/u1/heritage?months=six", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestEvolution_ServiceValidationIs400(t *testing.T) {
	env := newTestEnv(t)
	env.valuation.err = common.NewValidationError("months_to_include", "13 is not allowed")

	rr := env.do(http.MethodGet, "/api/users/u1/heritage?months=13", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestTransactions_PostSingle(t *testing.T) {
	env := newTestEnv(t)

	body := `{"asset_code":"A","is_buy":true,"transaction_date":"2026-01-10T00:00:00Z","quantity":"2","unit_price":"10","other_costs":"1"}`
	rr := env.do(http.MethodPost, "/api/users/u1/transactions", body)

	require.Equal(t, http.StatusCreated, rr.Code)
	require.Len(t, env.transactions.added, 1)
	assert.Equal(t, "u1", env.transactions.added[0].UserID)
	assert.True(t, env.transactions.added[0].Quantity.Equal(decimal.NewFromInt(2)))
}

func TestTransactions_PostArray(t *testing.T) {
	env := newTestEnv(t)

	body := `[{"asset_code":"A","is_buy":true,"transaction_date":"2026-01-10T00:00:00Z","quantity":"2","unit_price":"10"},
	          {"asset_code":"A","is_buy":false,"transaction_date":"2026-02-10T00:00:00Z","quantity":"1","unit_price":"11"}]`
	rr := env.do(http.MethodPost, "/api/users/u9/transactions", body)

	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "u9", env.transactions.rangeOf)
	assert.Len(t, env.transactions.added, 2)
}

func TestTransactions_ListEmptyIsArray(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(http.MethodGet, "/api/users/u1/transactions", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())
}

func TestTransactions_Delete(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(http.MethodDelete, "/api/users/u1/transactions/t1", "")
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "t1", env.transactions.removed)

	rr = env.do(http.MethodDelete, "/api/users/u1/transactions/missing", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestAssets(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(http.MethodGet, "/api/assets", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var assets []models.Asset
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &assets))
	require.Len(t, assets, 1)
	assert.Equal(t, "AAA", assets[0].Ticker)

	rr = env.do(http.MethodGet, "/api/assets/A", "")
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = env.do(http.MethodGet, "/api/assets/ZZZ", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = env.do(http.MethodPost, "/api/assets", `{"code":"B","ticker":"BBB","type":"etf","current_price":"5.5"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	require.NotNil(t, env.assets.saved)
	assert.Equal(t, "B", env.assets.saved.Code)

	rr = env.do(http.MethodPost, "/api/assets", `{"ticker":"BBB"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAssetBackfill(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(http.MethodPost, "/api/assets/A/backfill?from=2024-03", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "A", env.assets.backfillCode)
	assert.Equal(t, models.NewMonth(2024, time.March), env.assets.backfillFrom)
	assert.JSONEq(t, `{"code":"A","from":"2024-03","stored":7}`, rr.Body.String())

	rr = env.do(http.MethodPost, "/api/assets/A/backfill", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = env.do(http.MethodPost, "/api/assets/A/backfill?from=March", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestMonthlyPrices(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(http.MethodPost, "/api/prices/monthly", `[{"ticker":"aaa","year":2025,"month":12,"price":"9.99"}]`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"stored":1}`, rr.Body.String())
	require.Len(t, env.prices.inputs, 1)
	assert.Equal(t, "aaa", env.prices.inputs[0].Ticker)

	rr = env.do(http.MethodPost, "/api/prices/query", `{"asset_codes":[["A"]],"dates":["2026-01-31T00:00:00Z"]}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, [][]string{{"A"}}, env.prices.req.AssetCodes)

	rr = env.do(http.MethodPost, "/api/prices/query", `{"asset_codes":[],"dates":[]}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestUnknownRoutes(t *testing.T) {
	env := newTestEnv(t)

	assert.Equal(t, http.StatusNotFound, env.do(http.MethodGet, "/api/users/u1", "").Code)
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodGet, "/api/users/u1/unknown", "").Code)
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodGet, "/api/assets/A/b/c", "").Code)
}
