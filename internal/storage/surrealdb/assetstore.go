package surrealdb

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/bobmcallan/heritage/internal/common"
	"github.com/bobmcallan/heritage/internal/models"
)

type assetRow struct {
	Code         string    `json:"code"`
	Ticker       string    `json:"ticker"`
	Type         string    `json:"type"`
	CurrentPrice string    `json:"current_price"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (r assetRow) toModel() (*models.Asset, error) {
	price := decimal.Zero
	if r.CurrentPrice != "" {
		var err error
		if price, err = decimal.NewFromString(r.CurrentPrice); err != nil {
			return nil, fmt.Errorf("asset %s: bad current price %q: %w", r.Code, r.CurrentPrice, err)
		}
	}
	return &models.Asset{
		Code:         r.Code,
		Ticker:       r.Ticker,
		Type:         models.AssetType(r.Type),
		CurrentPrice: price,
		UpdatedAt:    r.UpdatedAt.UTC(),
	}, nil
}

// AssetStore implements interfaces.AssetStore. Records are keyed by asset code.
type AssetStore struct {
	db     *surrealdb.DB
	logger *common.Logger
}

func NewAssetStore(db *surrealdb.DB, logger *common.Logger) *AssetStore {
	return &AssetStore{db: db, logger: logger}
}

func (s *AssetStore) List(ctx context.Context) ([]*models.Asset, error) {
	sql := "SELECT code, ticker, type, current_price, updated_at FROM " + assetTable + " ORDER BY code ASC"
	results, err := surrealdb.Query[[]assetRow](ctx, s.db, sql, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}

	rows := firstResult(results)
	assets := make([]*models.Asset, 0, len(rows))
	for _, r := range rows {
		a, err := r.toModel()
		if err != nil {
			return nil, err
		}
		assets = append(assets, a)
	}
	return assets, nil
}

func (s *AssetStore) Get(ctx context.Context, code string) (*models.Asset, error) {
	row, err := surrealdb.Select[assetRow](ctx, s.db, surrealmodels.NewRecordID(assetTable, code))
	if err != nil && !isNotFoundError(err) {
		return nil, fmt.Errorf("failed to select asset: %w", err)
	}
	if row == nil || row.Code == "" {
		return nil, fmt.Errorf("asset %s: %w", code, common.ErrNotFound)
	}
	return row.toModel()
}

func (s *AssetStore) Save(ctx context.Context, asset *models.Asset) error {
	row := assetRow{
		Code:         asset.Code,
		Ticker:       asset.Ticker,
		Type:         string(asset.Type),
		CurrentPrice: asset.CurrentPrice.String(),
		UpdatedAt:    asset.UpdatedAt.UTC(),
	}
	sql := "UPSERT $rid CONTENT $row"
	vars := map[string]any{"rid": surrealmodels.NewRecordID(assetTable, asset.Code), "row": row}

	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		_, err := surrealdb.Query[[]assetRow](ctx, s.db, sql, vars)
		if err == nil {
			return nil
		}
		lastErr = err
	}
	return fmt.Errorf("failed to save asset after retries: %w", lastErr)
}
