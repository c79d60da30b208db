// Package interfaces defines service contracts for Heritage
package interfaces

import (
	"context"
	"time"

	"github.com/bobmcallan/heritage/internal/models"
)

// StorageManager coordinates the persistent stores
type StorageManager interface {
	TransactionStore() TransactionStore
	AssetStore() AssetStore
	MonthlyPriceStore() MonthlyPriceStore

	// Lifecycle
	Close() error
}

// TransactionStore persists user transactions.
type TransactionStore interface {
	// ListByUser returns a user's transactions ordered by transaction date,
	// then creation time.
	ListByUser(ctx context.Context, userID string) ([]*models.Transaction, error)
	Get(ctx context.Context, userID, id string) (*models.Transaction, error)
	Save(ctx context.Context, tx *models.Transaction) error
	SaveBatch(ctx context.Context, txs []*models.Transaction) error
	Delete(ctx context.Context, userID, id string) error
}

// AssetStore persists the asset directory.
type AssetStore interface {
	List(ctx context.Context) ([]*models.Asset, error)
	Get(ctx context.Context, code string) (*models.Asset, error)
	Save(ctx context.Context, asset *models.Asset) error
}

// MonthlyPriceStore holds historical monthly closing prices.
type MonthlyPriceStore interface {
	// GetMonthlyPrices resolves every query in a single round trip.
	GetMonthlyPrices(ctx context.Context, queries []models.PriceQuery) ([]models.AssetMonthlyPrice, error)

	// SaveMonthlyPrices appends prices; rows that already exist are left untouched.
	SaveMonthlyPrices(ctx context.Context, prices []models.AssetMonthlyPrice) error
}

// CacheStore is a string-keyed byte store with per-key expiration.
type CacheStore interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Expire(ctx context.Context, key string, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Flush(ctx context.Context) error
}
