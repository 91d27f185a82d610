package sqlstore

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gastaldl/lojaflow/internal/storage"
	"github.com/gastaldl/lojaflow/internal/storage/storagetest"
	"github.com/gastaldl/lojaflow/pkg/config"
	"github.com/gastaldl/lojaflow/pkg/db"
	"github.com/gastaldl/lojaflow/pkg/db/models"
	"github.com/gastaldl/lojaflow/pkg/enums"
	"github.com/gastaldl/lojaflow/pkg/logger"
	"github.com/gastaldl/lojaflow/pkg/migrate"
)

func openSQLite(t *testing.T, logg *logger.Logger) *Store {
	t.Helper()
	ctx := context.Background()
	store, err := Open(ctx, config.DBConfig{DSN: storagetest.SQLiteDSN(t), Driver: config.DriverSQLite, MaxOpenConns: 3}, logg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, migrate.Up(ctx, store.DB(), store.Dialect()))
	return store
}

func TestSQLStoreConformance(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Store {
		return openSQLite(t, nil)
	})
}

func TestSQLStoreOverSharedPool(t *testing.T) {
	client := storagetest.NewSQLiteClient(t)
	sqlDB, err := client.SQL()
	require.NoError(t, err)
	store, err := New(sqlDB, client.Dialect())
	require.NoError(t, err)

	f := storagetest.Seed(t, store)
	assert.Equal(t, 10, storagetest.Stock(t, store, f.Phone.ID))
}

func TestOpenSQLite(t *testing.T) {
	ctx := context.Background()
	store := openSQLite(t, nil)

	assert.Equal(t, db.DialectSQLite, store.Dialect())
	assert.Equal(t, Name, store.Name())
	require.NoError(t, store.Ping(ctx))

	category := models.Category{Name: "Books"}
	require.NoError(t, store.CreateCategory(ctx, &category))
	assert.NotZero(t, category.ID)
}

func TestOpenSQLiteEnforcesForeignKeysOnBarePath(t *testing.T) {
	ctx := context.Background()
	store := openSQLite(t, nil)

	var enabled int
	require.NoError(t, store.DB().QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&enabled))
	assert.Equal(t, 1, enabled)

	f := storagetest.Seed(t, store)
	require.NoError(t, store.WithTx(ctx, func(tx storage.Tx) error {
		order := models.Order{OrderNumber: "PED-fk", OrderDate: time.Now().UTC(), Status: enums.OrderStatusConfirmed, Total: f.Phone.Price, Discount: decimal.Zero, CustomerID: f.Customer.ID}
		if err := tx.CreateOrder(ctx, &order); err != nil {
			return err
		}
		item := models.OrderItem{OrderID: order.ID, ProductID: f.Phone.ID, Quantity: 1, UnitPrice: f.Phone.Price, Discount: decimal.Zero}
		return tx.AddOrderItem(ctx, &item)
	}))

	assert.ErrorIs(t, store.DeleteProduct(ctx, f.Phone.ID), storage.ErrReferenced)
}

func TestOpenRequiresDSN(t *testing.T) {
	_, err := Open(context.Background(), config.DBConfig{}, nil)
	assert.Error(t, err)
}

func TestNewRejectsUnknownDialect(t *testing.T) {
	client := storagetest.NewSQLiteClient(t)
	sqlDB, err := client.SQL()
	require.NoError(t, err)
	_, err = New(sqlDB, "oracle")
	assert.Error(t, err)
}

func TestRebind(t *testing.T) {
	pg := repository{dialect: db.DialectPostgres}
	assert.Equal(t, "SELECT 1 FROM t WHERE a = $1 AND b = $2", pg.rebind("SELECT 1 FROM t WHERE a = ? AND b = ?"))
	assert.Equal(t, "SELECT 1 FOR UPDATE", pg.forUpdate("SELECT 1"))

	lite := repository{dialect: db.DialectSQLite}
	assert.Equal(t, "a = ?", lite.rebind("a = ?"))
	assert.Equal(t, "SELECT 1", lite.forUpdate("SELECT 1"))
}

func TestWithTxSurfacesRollbackFailure(t *testing.T) {
	client := storagetest.NewSQLiteClient(t)
	sqlDB, err := client.SQL()
	require.NoError(t, err)
	store, err := New(sqlDB, client.Dialect())
	require.NoError(t, err)

	cause := assert.AnError
	err = store.WithTx(context.Background(), func(tx storage.Tx) error {
		// Ending the transaction early makes the rollback fail.
		if err := tx.(*txRepository).q.(interface{ Commit() error }).Commit(); err != nil {
			return err
		}
		return cause
	})
	require.Error(t, err)
	assert.True(t, db.IsRollbackFailure(err))
	assert.ErrorIs(t, err, cause)
}

func TestWithTxLogsRollbackFailureOnPanic(t *testing.T) {
	logs := &bytes.Buffer{}
	store := openSQLite(t, logger.New(logger.Options{ServiceName: "sqlstore-test", Output: logs}))

	assert.PanicsWithValue(t, "kaboom", func() {
		_ = store.WithTx(context.Background(), func(tx storage.Tx) error {
			if err := tx.(*txRepository).q.(interface{ Commit() error }).Commit(); err != nil {
				return err
			}
			panic("kaboom")
		})
	})
	assert.Contains(t, logs.String(), "rollback after panic failed")
	assert.Contains(t, logs.String(), `"level":"error"`)
}
