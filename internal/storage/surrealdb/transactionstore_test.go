package surrealdb

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/heritage/internal/common"
	"github.com/bobmcallan/heritage/internal/models"
)

func newTx(userID, code string, isBuy bool, date time.Time, created time.Time) *models.Transaction {
	return &models.Transaction{
		ID:              uuid.NewString(),
		UserID:          userID,
		AssetCode:       code,
		IsBuy:           isBuy,
		TransactionDate: date,
		Quantity:        decimal.RequireFromString("0.12345678"),
		UnitPrice:       decimal.RequireFromString("1234.56"),
		OtherCosts:      decimal.RequireFromString("1.10"),
		CreatedAt:       created,
	}
}

func TestTransactionStore_SaveAndList(t *testing.T) {
	store := testManager(t).TransactionStore()
	ctx := context.Background()

	jan := time.Date(2025, time.January, 5, 0, 0, 0, 0, time.UTC)
	mar := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	created := time.Date(2026, time.October, 1, 10, 0, 0, 0, time.UTC)

	later := newTx("u1", "A", false, mar, created)
	first := newTx("u1", "A", true, jan, created)
	sameDay := newTx("u1", "B", true, jan, created.Add(time.Minute))
	other := newTx("u2", "A", true, jan, created)

	require.NoError(t, store.Save(ctx, later))
	require.NoError(t, store.SaveBatch(ctx, []*models.Transaction{sameDay, first, other}))

	txs, err := store.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, txs, 3)
	assert.Equal(t, first.ID, txs[0].ID)
	assert.Equal(t, sameDay.ID, txs[1].ID)
	assert.Equal(t, later.ID, txs[2].ID)

	got := txs[0]
	assert.True(t, first.Quantity.Equal(got.Quantity))
	assert.True(t, first.UnitPrice.Equal(got.UnitPrice))
	assert.True(t, first.OtherCosts.Equal(got.OtherCosts))
	assert.True(t, first.TransactionDate.Equal(got.TransactionDate))
	assert.True(t, got.IsBuy)

	none, err := store.ListByUser(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestTransactionStore_GetAndDelete(t *testing.T) {
	store := testManager(t).TransactionStore()
	ctx := context.Background()

	tx := newTx("u1", "A", true, time.Date(2025, time.January, 5, 0, 0, 0, 0, time.UTC), time.Now().UTC())
	require.NoError(t, store.Save(ctx, tx))

	got, err := store.Get(ctx, "u1", tx.ID)
	require.NoError(t, err)
	assert.Equal(t, "A", got.AssetCode)

	_, err = store.Get(ctx, "u2", tx.ID)
	require.ErrorIs(t, err, common.ErrNotFound)

	require.ErrorIs(t, store.Delete(ctx, "u2", tx.ID), common.ErrNotFound)
	require.NoError(t, store.Delete(ctx, "u1", tx.ID))

	_, err = store.Get(ctx, "u1", tx.ID)
	require.ErrorIs(t, err, common.ErrNotFound)
	require.ErrorIs(t, store.Delete(ctx, "u1", tx.ID), common.ErrNotFound)
}

func TestTransactionStore_ListOrdersSameDayByCreation(t *testing.T) {
	store := testManager(t).TransactionStore()
	ctx := context.Background()

	oct1 := time.Date(2026, time.October, 1, 0, 0, 0, 0, time.UTC)
	created := time.Date(2026, time.October, 15, 8, 0, 0, 0, time.UTC)

	buy := newTx("u1", "A", true, oct1, created)
	sell := newTx("u1", "A", false, oct1, created.Add(time.Nanosecond))
	again := newTx("u1", "A", true, oct1, created.Add(2*time.Nanosecond))
	require.NoError(t, store.SaveBatch(ctx, []*models.Transaction{again, sell, buy}))

	txs, err := store.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, txs, 3)
	assert.Equal(t, buy.ID, txs[0].ID)
	assert.Equal(t, sell.ID, txs[1].ID)
	assert.Equal(t, again.ID, txs[2].ID)

	// equal creation times fall back to the transaction id
	twinA := newTx("u2", "A", true, oct1, created)
	twinB := newTx("u2", "A", true, oct1, created)
	twinA.ID, twinB.ID = "b-second", "a-first"
	require.NoError(t, store.SaveBatch(ctx, []*models.Transaction{twinA, twinB}))

	twins, err := store.ListByUser(ctx, "u2")
	require.NoError(t, err)
	require.Len(t, twins, 2)
	assert.Equal(t, "a-first", twins[0].ID)
	assert.Equal(t, "b-second", twins[1].ID)
}
