package inventory

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gastaldl/lojaflow/internal/storage"
	"github.com/gastaldl/lojaflow/internal/storage/gormstore"
	"github.com/gastaldl/lojaflow/internal/storage/storagetest"
	"github.com/gastaldl/lojaflow/pkg/enums"
	pkgerrors "github.com/gastaldl/lojaflow/pkg/errors"
	"github.com/gastaldl/lojaflow/pkg/metrics"
)

func newStore(t *testing.T) storage.Store {
	t.Helper()
	store, err := gormstore.New(storagetest.NewSQLiteClient(t))
	require.NoError(t, err)
	return store
}

func TestDebitAndCreditRecordMovements(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	f := storagetest.Seed(t, store)
	ledger := NewLedger(nil)

	require.NoError(t, store.WithTx(ctx, func(tx storage.Tx) error {
		after, err := ledger.Debit(ctx, tx, f.Phone.ID, 4, nil)
		require.NoError(t, err)
		assert.Equal(t, 6, after)

		after, err = ledger.Credit(ctx, tx, f.Phone.ID, 1, enums.StockMovementReasonCancel, nil)
		require.NoError(t, err)
		assert.Equal(t, 7, after)

		after, err = ledger.Debit(ctx, tx, f.Phone.ID, 7, nil)
		require.NoError(t, err)
		assert.Equal(t, 0, after)

		after, err = ledger.Credit(ctx, tx, f.Phone.ID, 25, enums.StockMovementReasonReturn, nil)
		require.NoError(t, err)
		assert.Equal(t, 25, after, "credits have no ceiling")
		return nil
	}))

	movements, err := store.ListStockMovements(ctx, f.Phone.ID)
	require.NoError(t, err)
	require.Len(t, movements, 4)

	stock := f.Phone.Stock
	for _, m := range movements {
		stock += m.Delta
		assert.Equal(t, stock, m.StockAfter)
		assert.GreaterOrEqual(t, m.StockAfter, 0)
	}
	assert.Equal(t, storagetest.Stock(t, store, f.Phone.ID), stock)
	assert.Equal(t, enums.StockMovementReasonSale, movements[0].Reason)
	assert.Equal(t, enums.StockMovementReasonReturn, movements[3].Reason)
}

func TestDebitInsufficientStockCarriesDetails(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	f := storagetest.Seed(t, store)
	ledger := NewLedger(nil)

	err := store.WithTx(ctx, func(tx storage.Tx) error {
		_, err := ledger.Debit(ctx, tx, f.Case.ID, 6, nil)
		return err
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeInsufficientStock, typed.Code())
	details, ok := typed.Details().(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 5, details["available"])
	assert.Equal(t, 6, details["requested"])
	assert.ErrorIs(t, err, storage.ErrInsufficientStock)

	assert.Equal(t, 5, storagetest.Stock(t, store, f.Case.ID))
	movements, err := store.ListStockMovements(ctx, f.Case.ID)
	require.NoError(t, err)
	assert.Empty(t, movements)
}

func TestLedgerRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	f := storagetest.Seed(t, store)
	ledger := NewLedger(nil)

	err := store.WithTx(ctx, func(tx storage.Tx) error {
		_, err := ledger.Debit(ctx, tx, f.Case.ID, 0, nil)
		return err
	})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	err = store.WithTx(ctx, func(tx storage.Tx) error {
		_, err := ledger.Credit(ctx, tx, f.Case.ID, 1, enums.StockMovementReasonSale, nil)
		return err
	})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	err = store.WithTx(ctx, func(tx storage.Tx) error {
		_, err := ledger.Debit(ctx, tx, 9999, 1, nil)
		return err
	})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}

func TestSetRecordsAdjustment(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	f := storagetest.Seed(t, store)
	ledger := NewLedger(nil)

	require.NoError(t, store.WithTx(ctx, func(tx storage.Tx) error {
		product, err := tx.LockProduct(ctx, f.Case.ID)
		if err != nil {
			return err
		}
		if err := ledger.Set(ctx, tx, product, 12); err != nil {
			return err
		}
		// Same value again is a no-op.
		return ledger.Set(ctx, tx, product, 12)
	}))

	assert.Equal(t, 12, storagetest.Stock(t, store, f.Case.ID))
	movements, err := store.ListStockMovements(ctx, f.Case.ID)
	require.NoError(t, err)
	require.Len(t, movements, 1)
	assert.Equal(t, 7, movements[0].Delta)
	assert.Equal(t, enums.StockMovementReasonAdjustment, movements[0].Reason)

	err = store.WithTx(ctx, func(tx storage.Tx) error {
		product, err := tx.LockProduct(ctx, f.Case.ID)
		if err != nil {
			return err
		}
		return ledger.Set(ctx, tx, product, -1)
	})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestLedgerCountsUnits(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	f := storagetest.Seed(t, store)
	reg := prometheus.NewRegistry()
	m := metrics.NewOrderMetrics(reg)
	ledger := NewLedger(m)

	require.NoError(t, store.WithTx(ctx, func(tx storage.Tx) error {
		if _, err := ledger.Debit(ctx, tx, f.Phone.ID, 3, nil); err != nil {
			return err
		}
		_, err := ledger.Credit(ctx, tx, f.Phone.ID, 2, enums.StockMovementReasonCancel, nil)
		return err
	}))

	count, err := testutil.GatherAndCount(reg, "stock_units_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
