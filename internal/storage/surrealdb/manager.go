// Package surrealdb implements the persistent stores on SurrealDB.
package surrealdb

import (
	"context"
	"fmt"
	"strings"

	"github.com/surrealdb/surrealdb.go"

	"github.com/bobmcallan/heritage/internal/common"
	"github.com/bobmcallan/heritage/internal/interfaces"
)

const (
	transactionTable  = "transaction"
	assetTable        = "asset"
	monthlyPriceTable = "asset_monthly_price"
)

// schema is applied on every start. SurrealDB v3 errors on querying tables
// that were never defined.
var schema = []string{
	"DEFINE TABLE IF NOT EXISTS " + transactionTable + " SCHEMALESS",
	"DEFINE TABLE IF NOT EXISTS " + assetTable + " SCHEMALESS",
	"DEFINE TABLE IF NOT EXISTS " + monthlyPriceTable + " SCHEMALESS",
	"DEFINE INDEX IF NOT EXISTS transaction_user ON TABLE " + transactionTable + " FIELDS user_id",
	"DEFINE INDEX IF NOT EXISTS asset_ticker ON TABLE " + assetTable + " FIELDS ticker",
	"DEFINE INDEX IF NOT EXISTS monthly_price_period ON TABLE " + monthlyPriceTable + " FIELDS year, month, asset_code",
}

// Manager implements interfaces.StorageManager using SurrealDB.
type Manager struct {
	db     *surrealdb.DB
	logger *common.Logger

	transactionStore *TransactionStore
	assetStore       *AssetStore
	priceStore       *PriceStore
}

// NewManager connects to SurrealDB, applies the schema and creates the stores.
func NewManager(ctx context.Context, logger *common.Logger, config *common.Config) (*Manager, error) {
	db, err := surrealdb.New(config.Storage.Address)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SurrealDB: %w", err)
	}

	if _, err := db.SignIn(ctx, map[string]interface{}{
		"user": config.Storage.Username,
		"pass": config.Storage.Password,
	}); err != nil {
		db.Close(ctx)
		return nil, fmt.Errorf("failed to sign in to SurrealDB: %w", err)
	}

	if err := db.Use(ctx, config.Storage.Namespace, config.Storage.Database); err != nil {
		db.Close(ctx)
		return nil, fmt.Errorf("failed to select namespace/database: %w", err)
	}

	if err := applySchema(ctx, db); err != nil {
		db.Close(ctx)
		return nil, err
	}

	m := newManager(db, logger)

	logger.Info().
		Str("address", config.Storage.Address).
		Str("namespace", config.Storage.Namespace).
		Str("database", config.Storage.Database).
		Msg("SurrealDB storage manager initialized")

	return m, nil
}

func newManager(db *surrealdb.DB, logger *common.Logger) *Manager {
	return &Manager{
		db:               db,
		logger:           logger,
		transactionStore: NewTransactionStore(db, logger),
		assetStore:       NewAssetStore(db, logger),
		priceStore:       NewPriceStore(db, logger),
	}
}

func applySchema(ctx context.Context, db *surrealdb.DB) error {
	for _, sql := range schema {
		if _, err := surrealdb.Query[any](ctx, db, sql, nil); err != nil {
			return fmt.Errorf("failed to apply schema %q: %w", sql, err)
		}
	}
	return nil
}

func (m *Manager) TransactionStore() interfaces.TransactionStore {
	return m.transactionStore
}

func (m *Manager) AssetStore() interfaces.AssetStore {
	return m.assetStore
}

func (m *Manager) MonthlyPriceStore() interfaces.MonthlyPriceStore {
	return m.priceStore
}

func (m *Manager) Close() error {
	m.db.Close(context.Background())
	return nil
}

// isNotFoundError reports whether err is SurrealDB's missing-record error.
func isNotFoundError(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "not found")
}

// firstResult flattens the result set of the first statement of a query.
func firstResult[T any](results *[]surrealdb.QueryResult[[]T]) []T {
	if results == nil || len(*results) == 0 {
		return nil
	}
	return (*results)[0].Result
}

// Compile-time check
var _ interfaces.StorageManager = (*Manager)(nil)
