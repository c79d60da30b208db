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

// transactionRow is the stored shape of a transaction. Decimals are kept as
// strings so no precision is lost to floating point.
type transactionRow struct {
	ID              *surrealmodels.RecordID `json:"id,omitempty"`
	TransactionID   string                  `json:"transaction_id"`
	UserID          string                  `json:"user_id"`
	AssetCode       string                  `json:"asset_code"`
	IsBuy           bool                    `json:"is_buy"`
	TransactionDate time.Time               `json:"transaction_date"`
	Quantity        string                  `json:"quantity"`
	UnitPrice       string                  `json:"unit_price"`
	OtherCosts      string                  `json:"other_costs"`
	CreatedAt       time.Time               `json:"created_at"`
}

func toTransactionRow(tx *models.Transaction) transactionRow {
	rid := surrealmodels.NewRecordID(transactionTable, tx.ID)
	return transactionRow{
		ID:              &rid,
		TransactionID:   tx.ID,
		UserID:          tx.UserID,
		AssetCode:       tx.AssetCode,
		IsBuy:           tx.IsBuy,
		TransactionDate: tx.TransactionDate.UTC(),
		Quantity:        tx.Quantity.String(),
		UnitPrice:       tx.UnitPrice.String(),
		OtherCosts:      tx.OtherCosts.String(),
		CreatedAt:       tx.CreatedAt.UTC(),
	}
}

func (r transactionRow) toModel() (*models.Transaction, error) {
	quantity, err := decimal.NewFromString(r.Quantity)
	if err != nil {
		return nil, fmt.Errorf("transaction %s: bad quantity %q: %w", r.TransactionID, r.Quantity, err)
	}
	unitPrice, err := decimal.NewFromString(r.UnitPrice)
	if err != nil {
		return nil, fmt.Errorf("transaction %s: bad unit price %q: %w", r.TransactionID, r.UnitPrice, err)
	}
	otherCosts := decimal.Zero
	if r.OtherCosts != "" {
		if otherCosts, err = decimal.NewFromString(r.OtherCosts); err != nil {
			return nil, fmt.Errorf("transaction %s: bad other costs %q: %w", r.TransactionID, r.OtherCosts, err)
		}
	}
	return &models.Transaction{
		ID:              r.TransactionID,
		UserID:          r.UserID,
		AssetCode:       r.AssetCode,
		IsBuy:           r.IsBuy,
		TransactionDate: r.TransactionDate.UTC(),
		Quantity:        quantity,
		UnitPrice:       unitPrice,
		OtherCosts:      otherCosts,
		CreatedAt:       r.CreatedAt.UTC(),
	}, nil
}

// TransactionStore implements interfaces.TransactionStore.
type TransactionStore struct {
	db     *surrealdb.DB
	logger *common.Logger
}

func NewTransactionStore(db *surrealdb.DB, logger *common.Logger) *TransactionStore {
	return &TransactionStore{db: db, logger: logger}
}

const transactionFields = "transaction_id, user_id, asset_code, is_buy, transaction_date, quantity, unit_price, other_costs, created_at"

func (s *TransactionStore) ListByUser(ctx context.Context, userID string) ([]*models.Transaction, error) {
	sql := "SELECT " + transactionFields + " FROM " + transactionTable +
		" WHERE user_id = $user_id ORDER BY transaction_date ASC, created_at ASC, transaction_id ASC"
	vars := map[string]any{"user_id": userID}

	results, err := surrealdb.Query[[]transactionRow](ctx, s.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	rows := firstResult(results)
	txs := make([]*models.Transaction, 0, len(rows))
	for _, r := range rows {
		tx, err := r.toModel()
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

func (s *TransactionStore) Get(ctx context.Context, userID, id string) (*models.Transaction, error) {
	row, err := surrealdb.Select[transactionRow](ctx, s.db, surrealmodels.NewRecordID(transactionTable, id))
	if err != nil && !isNotFoundError(err) {
		return nil, fmt.Errorf("failed to select transaction: %w", err)
	}
	if row == nil || row.TransactionID == "" || row.UserID != userID {
		return nil, fmt.Errorf("transaction %s: %w", id, common.ErrNotFound)
	}
	return row.toModel()
}

func (s *TransactionStore) Save(ctx context.Context, tx *models.Transaction) error {
	row := toTransactionRow(tx)
	sql := "UPSERT $rid CONTENT $row"
	vars := map[string]any{"rid": *row.ID, "row": row}

	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		_, err := surrealdb.Query[[]transactionRow](ctx, s.db, sql, vars)
		if err == nil {
			return nil
		}
		lastErr = err
	}
	return fmt.Errorf("failed to save transaction after retries: %w", lastErr)
}

// SaveBatch inserts txs in a single statement, so either all rows are
// stored or none is.
func (s *TransactionStore) SaveBatch(ctx context.Context, txs []*models.Transaction) error {
	if len(txs) == 0 {
		return nil
	}
	rows := make([]transactionRow, len(txs))
	for i, tx := range txs {
		rows[i] = toTransactionRow(tx)
	}

	sql := "INSERT INTO " + transactionTable + " $rows"
	if _, err := surrealdb.Query[[]transactionRow](ctx, s.db, sql, map[string]any{"rows": rows}); err != nil {
		return fmt.Errorf("failed to insert %d transactions: %w", len(txs), err)
	}
	return nil
}

func (s *TransactionStore) Delete(ctx context.Context, userID, id string) error {
	sql := "DELETE $rid WHERE user_id = $user_id RETURN BEFORE"
	vars := map[string]any{
		"rid":     surrealmodels.NewRecordID(transactionTable, id),
		"user_id": userID,
	}

	results, err := surrealdb.Query[[]transactionRow](ctx, s.db, sql, vars)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	if len(firstResult(results)) == 0 {
		return fmt.Errorf("transaction %s: %w", id, common.ErrNotFound)
	}
	return nil
}
