package surrealdb

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/bobmcallan/heritage/internal/common"
	"github.com/bobmcallan/heritage/internal/models"
)

type monthlyPriceRow struct {
	ID        *surrealmodels.RecordID `json:"id,omitempty"`
	AssetCode string                  `json:"asset_code"`
	Year      int                     `json:"year"`
	Month     int                     `json:"month"`
	Price     string                  `json:"price"`
}

func monthlyPriceID(code string, year int, month time.Month) string {
	return fmt.Sprintf("%s_%04d_%02d", code, year, int(month))
}

// PriceStore implements interfaces.MonthlyPriceStore. Rows are append-only
// and keyed by asset code and period.
type PriceStore struct {
	db     *surrealdb.DB
	logger *common.Logger
}

func NewPriceStore(db *surrealdb.DB, logger *common.Logger) *PriceStore {
	return &PriceStore{db: db, logger: logger}
}

// buildPriceQuery ORs one (codes, year, month) group per query into a single
// statement.
func buildPriceQuery(queries []models.PriceQuery) (string, map[string]any) {
	clauses := make([]string, 0, len(queries))
	vars := make(map[string]any, 3*len(queries))
	for i, q := range queries {
		clauses = append(clauses, fmt.Sprintf("(asset_code IN $codes%d AND year = $y%d AND month = $m%d)", i, i, i))
		vars[fmt.Sprintf("codes%d", i)] = q.AssetCodes
		vars[fmt.Sprintf("y%d", i)] = q.Month.Year
		vars[fmt.Sprintf("m%d", i)] = int(q.Month.Month)
	}
	sql := "SELECT asset_code, year, month, price FROM " + monthlyPriceTable +
		" WHERE " + strings.Join(clauses, " OR ") +
		" ORDER BY year ASC, month ASC, asset_code ASC"
	return sql, vars
}

func (s *PriceStore) GetMonthlyPrices(ctx context.Context, queries []models.PriceQuery) ([]models.AssetMonthlyPrice, error) {
	if len(queries) == 0 {
		return nil, nil
	}

	sql, vars := buildPriceQuery(queries)
	results, err := surrealdb.Query[[]monthlyPriceRow](ctx, s.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to query monthly prices: %w", err)
	}

	rows := firstResult(results)
	prices := make([]models.AssetMonthlyPrice, 0, len(rows))
	for _, r := range rows {
		price, err := decimal.NewFromString(r.Price)
		if err != nil {
			return nil, fmt.Errorf("monthly price %s: bad price %q: %w", monthlyPriceID(r.AssetCode, r.Year, time.Month(r.Month)), r.Price, err)
		}
		prices = append(prices, models.AssetMonthlyPrice{
			AssetCode: r.AssetCode,
			Year:      r.Year,
			Month:     time.Month(r.Month),
			Price:     price,
		})
	}
	return prices, nil
}

// SaveMonthlyPrices inserts prices, leaving rows that already exist untouched.
func (s *PriceStore) SaveMonthlyPrices(ctx context.Context, prices []models.AssetMonthlyPrice) error {
	if len(prices) == 0 {
		return nil
	}

	rows := make([]monthlyPriceRow, len(prices))
	for i, p := range prices {
		rid := surrealmodels.NewRecordID(monthlyPriceTable, monthlyPriceID(p.AssetCode, p.Year, p.Month))
		rows[i] = monthlyPriceRow{
			ID:        &rid,
			AssetCode: p.AssetCode,
			Year:      p.Year,
			Month:     int(p.Month),
			Price:     p.Price.String(),
		}
	}

	sql := "INSERT IGNORE INTO " + monthlyPriceTable + " $rows"
	if _, err := surrealdb.Query[[]monthlyPriceRow](ctx, s.db, sql, map[string]any{"rows": rows}); err != nil {
		return fmt.Errorf("failed to insert %d monthly prices: %w", len(prices), err)
	}
	s.logger.Debug().Int("rows", len(rows)).Msg("Monthly prices inserted")
	return nil
}
