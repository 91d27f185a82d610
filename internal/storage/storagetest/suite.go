package storagetest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gastaldl/lojaflow/internal/storage"
	"github.com/gastaldl/lojaflow/pkg/db/models"
	"github.com/gastaldl/lojaflow/pkg/enums"
)

// Factory builds a fresh, migrated and empty store for one subtest.
type Factory func(t *testing.T) storage.Store

// Run exercises the storage contract against the adapter produced by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("categories", func(t *testing.T) { testCategories(t, newStore(t)) })
	t.Run("products", func(t *testing.T) { testProducts(t, newStore(t)) })
	t.Run("customers", func(t *testing.T) { testCustomers(t, newStore(t)) })
	t.Run("orders", func(t *testing.T) { testOrders(t, newStore(t)) })
	t.Run("stock", func(t *testing.T) { testStock(t, newStore(t)) })
	t.Run("rollback", func(t *testing.T) { testRollback(t, newStore(t)) })
	t.Run("purge", func(t *testing.T) { testPurge(t, newStore(t)) })
	t.Run("concurrent last unit", func(t *testing.T) { testConcurrentLastUnit(t, newStore(t)) })
}

func testCategories(t *testing.T, store storage.Store) {
	ctx := context.Background()
	f := Seed(t, store)

	exists, err := store.CategoryNameExists(ctx, "ELECTRONICS")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = store.CategoryNameExists(ctx, "Books")
	require.NoError(t, err)
	assert.False(t, exists)

	dup := models.Category{Name: "electronics"}
	err = store.CreateCategory(ctx, &dup)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	books := models.Category{Name: "Books"}
	require.NoError(t, store.CreateCategory(ctx, &books))

	found, err := store.FindCategory(ctx, books.ID)
	require.NoError(t, err)
	assert.Equal(t, "Books", found.Name)
	assert.False(t, found.CreatedAt.IsZero())

	summaries, err := store.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, "Books", summaries[0].Name)
	assert.Zero(t, summaries[0].ProductCount)
	assert.Equal(t, f.Category.ID, summaries[1].ID)
	assert.EqualValues(t, 2, summaries[1].ProductCount)

	require.NoError(t, store.DeleteCategory(ctx, f.Category.ID))
	_, err = store.FindProduct(ctx, f.Phone.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound, "products cascade with their category")

	assert.ErrorIs(t, store.DeleteCategory(ctx, f.Category.ID), storage.ErrNotFound)
	_, err = store.FindCategory(ctx, 9999)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func testProducts(t *testing.T, store storage.Store) {
	ctx := context.Background()
	f := Seed(t, store)

	phone, err := store.FindProduct(ctx, f.Phone.ID)
	require.NoError(t, err)
	assert.True(t, phone.Price.Equal(decimal.RequireFromString("199.90")))
	assert.Equal(t, 10, phone.Stock)
	require.NotNil(t, phone.Category)
	assert.Equal(t, "Electronics", phone.Category.Name)

	other := models.Category{Name: "Accessories"}
	require.NoError(t, store.CreateCategory(ctx, &other))

	phone.Active = false
	phone.Stock = 999
	phone.Price = decimal.RequireFromString("189.90")
	phone.CategoryID = other.ID
	require.NoError(t, store.UpdateProduct(ctx, phone))

	updated, err := store.FindProduct(ctx, f.Phone.ID)
	require.NoError(t, err)
	assert.False(t, updated.Active)
	assert.Equal(t, 10, updated.Stock, "UpdateProduct never writes stock")
	assert.True(t, updated.Price.Equal(decimal.RequireFromString("189.90")))
	assert.Equal(t, other.ID, updated.CategoryID)

	all, err := store.ListProducts(ctx, storage.ProductFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Phone", all[0].Name, "ordered by category name first")
	assert.Equal(t, "Case", all[1].Name)

	active, err := store.ListProducts(ctx, storage.ProductFilter{ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, f.Case.ID, active[0].ID)

	byCategory, err := store.ListProducts(ctx, storage.ProductFilter{CategoryID: f.Category.ID})
	require.NoError(t, err)
	require.Len(t, byCategory, 1)
	assert.Equal(t, f.Case.ID, byCategory[0].ID)

	require.NoError(t, store.DeleteProduct(ctx, f.Case.ID))
	assert.ErrorIs(t, store.DeleteProduct(ctx, f.Case.ID), storage.ErrNotFound)
	assert.ErrorIs(t, store.UpdateProduct(ctx, &models.Product{ID: 9999, Name: "x", CategoryID: other.ID}), storage.ErrNotFound)
}

func testCustomers(t *testing.T, store storage.Store) {
	ctx := context.Background()
	f := Seed(t, store)

	dup := models.Customer{Name: "Other", Email: "ana@example.com", Active: true}
	assert.ErrorIs(t, store.CreateCustomer(ctx, &dup), storage.ErrDuplicateKey)

	byEmail, err := store.FindCustomerByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, f.Customer.ID, byEmail.ID)
	assert.True(t, byEmail.Active)

	_, err = store.FindCustomerByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	taken, err := store.EmailTaken(ctx, "ana@example.com", f.Customer.ID)
	require.NoError(t, err)
	assert.False(t, taken, "own email is not taken")
	taken, err = store.EmailTaken(ctx, "ana@example.com", 0)
	require.NoError(t, err)
	assert.True(t, taken)

	city := "Recife"
	byEmail.City = &city
	byEmail.Name = "Ana S."
	require.NoError(t, store.UpdateCustomer(ctx, byEmail))

	found, err := store.FindCustomer(ctx, f.Customer.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana S.", found.Name)
	require.NotNil(t, found.City)
	assert.Equal(t, "Recife", *found.City)
	assert.Nil(t, found.Phone)

	bruno := models.Customer{Name: "Bruno", Email: "bruno@example.com", Active: true}
	require.NoError(t, store.CreateCustomer(ctx, &bruno))
	createOrder(t, store, bruno.ID, "PED-1", time.Now().UTC())

	summaries, err := store.ListCustomers(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, "Ana S.", summaries[0].Name)
	assert.Zero(t, summaries[0].OrderCount)
	assert.EqualValues(t, 1, summaries[1].OrderCount)
}

func createOrder(t *testing.T, store storage.Store, customerID int64, number string, at time.Time) models.Order {
	t.Helper()
	order := models.Order{
		OrderNumber: number,
		OrderDate:   at,
		Status:      enums.OrderStatusPending,
		Total:       decimal.Zero,
		Discount:    decimal.Zero,
		CustomerID:  customerID,
	}
	require.NoError(t, store.WithTx(context.Background(), func(tx storage.Tx) error {
		return tx.CreateOrder(context.Background(), &order)
	}))
	require.NotZero(t, order.ID)
	return order
}

func testOrders(t *testing.T, store storage.Store) {
	ctx := context.Background()
	f := Seed(t, store)

	order := createOrder(t, store, f.Customer.ID, "PED-20250301-1", time.Now().UTC())

	err := store.WithTx(ctx, func(tx storage.Tx) error {
		dup := models.Order{OrderNumber: order.OrderNumber, OrderDate: time.Now().UTC(), Status: enums.OrderStatusPending, CustomerID: f.Customer.ID}
		return tx.CreateOrder(ctx, &dup)
	})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	require.NoError(t, store.WithTx(ctx, func(tx storage.Tx) error {
		locked, err := tx.LockOrderByNumber(ctx, order.OrderNumber)
		if err != nil {
			return err
		}
		for _, item := range []models.OrderItem{
			{OrderID: locked.ID, ProductID: f.Phone.ID, Quantity: 1, UnitPrice: f.Phone.Price, Discount: decimal.Zero},
			{OrderID: locked.ID, ProductID: f.Case.ID, Quantity: 1, UnitPrice: f.Case.Price, Discount: decimal.Zero},
		} {
			if err := tx.AddOrderItem(ctx, &item); err != nil {
				return err
			}
		}
		total := decimal.RequireFromString("259.80")
		status := enums.OrderStatusConfirmed
		notes := "gift"
		return tx.UpdateOrder(ctx, locked.ID, storage.OrderChanges{Total: &total, Status: &status, Notes: &notes})
	}))

	found, err := store.FindOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusConfirmed, found.Status)
	assert.True(t, found.Total.Equal(decimal.RequireFromString("259.80")))
	assert.Equal(t, "gift", found.Notes)
	require.Len(t, found.Items, 2)
	assert.Equal(t, f.Phone.ID, found.Items[0].ProductID)
	assert.True(t, found.Items[0].UnitPrice.Equal(decimal.RequireFromString("199.90")))

	byNumber, err := store.FindOrderByNumber(ctx, order.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, order.ID, byNumber.ID)
	assert.WithinDuration(t, order.OrderDate, byNumber.OrderDate, time.Second)

	_, err = store.FindOrderByNumber(ctx, "PED-missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	second := createOrder(t, store, f.Customer.ID, "PED-20250301-2", time.Now().UTC().Add(time.Minute))

	listed, err := store.ListOrders(ctx, storage.OrderFilter{CustomerID: f.Customer.ID})
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, second.ID, listed[0].ID, "newest first")
	assert.Len(t, listed[1].Items, 2)

	confirmed, err := store.ListOrders(ctx, storage.OrderFilter{Status: enums.OrderStatusConfirmed})
	require.NoError(t, err)
	require.Len(t, confirmed, 1)
	assert.Equal(t, order.ID, confirmed[0].ID)

	err = store.DeleteProduct(ctx, f.Phone.ID)
	assert.ErrorIs(t, err, storage.ErrReferenced, "products in order history cannot be deleted")

	err = store.WithTx(ctx, func(tx storage.Tx) error {
		_, err := tx.LockOrder(ctx, 9999)
		return err
	})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func testStock(t *testing.T, store storage.Store) {
	ctx := context.Background()
	f := Seed(t, store)

	var after int
	require.NoError(t, store.WithTx(ctx, func(tx storage.Tx) error {
		locked, err := tx.LockProduct(ctx, f.Case.ID)
		if err != nil {
			return err
		}
		if locked.Stock != 5 {
			return errors.New("unexpected locked stock")
		}
		after, err = tx.AdjustStock(ctx, f.Case.ID, -3)
		if err != nil {
			return err
		}
		return tx.RecordStockMovement(ctx, &models.StockMovement{
			ProductID:  f.Case.ID,
			Delta:      -3,
			Reason:     enums.StockMovementReasonSale,
			StockAfter: after,
		})
	}))
	assert.Equal(t, 2, after)
	assert.Equal(t, 2, Stock(t, store, f.Case.ID))

	err := store.WithTx(ctx, func(tx storage.Tx) error {
		_, err := tx.AdjustStock(ctx, f.Case.ID, -3)
		return err
	})
	require.ErrorIs(t, err, storage.ErrInsufficientStock)
	var stockErr *storage.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 2, stockErr.Available)
	assert.Equal(t, -3, stockErr.Delta)
	assert.Equal(t, 2, Stock(t, store, f.Case.ID))

	err = store.WithTx(ctx, func(tx storage.Tx) error {
		_, err := tx.AdjustStock(ctx, 9999, 1)
		return err
	})
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, store.WithTx(ctx, func(tx storage.Tx) error {
		return tx.SetStock(ctx, f.Case.ID, 40)
	}))
	assert.Equal(t, 40, Stock(t, store, f.Case.ID))

	movements, err := store.ListStockMovements(ctx, f.Case.ID)
	require.NoError(t, err)
	require.Len(t, movements, 1)
	assert.Equal(t, -3, movements[0].Delta)
	assert.Equal(t, enums.StockMovementReasonSale, movements[0].Reason)
	assert.Equal(t, 2, movements[0].StockAfter)
	assert.Nil(t, movements[0].OrderID)
}

func testRollback(t *testing.T, store storage.Store) {
	ctx := context.Background()
	f := Seed(t, store)

	boom := errors.New("boom")
	err := store.WithTx(ctx, func(tx storage.Tx) error {
		if _, err := tx.AdjustStock(ctx, f.Phone.ID, -4); err != nil {
			return err
		}
		order := models.Order{OrderNumber: "PED-rolled", OrderDate: time.Now().UTC(), Status: enums.OrderStatusPending, CustomerID: f.Customer.ID}
		if err := tx.CreateOrder(ctx, &order); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	assert.Equal(t, 10, Stock(t, store, f.Phone.ID))
	_, err = store.FindOrderByNumber(ctx, "PED-rolled")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func testPurge(t *testing.T, store storage.Store) {
	ctx := context.Background()
	f := Seed(t, store)

	now := time.Now().UTC()
	old := createOrder(t, store, f.Customer.ID, "PED-old", now.Add(-200*24*time.Hour))
	recent := createOrder(t, store, f.Customer.ID, "PED-recent", now.Add(-time.Hour))
	pendingOld := createOrder(t, store, f.Customer.ID, "PED-pending-old", now.Add(-200*24*time.Hour))

	cancelled := enums.OrderStatusCancelled
	require.NoError(t, store.WithTx(ctx, func(tx storage.Tx) error {
		item := models.OrderItem{OrderID: old.ID, ProductID: f.Case.ID, Quantity: 1, UnitPrice: f.Case.Price, Discount: decimal.Zero}
		if err := tx.AddOrderItem(ctx, &item); err != nil {
			return err
		}
		for _, id := range []int64{old.ID, recent.ID} {
			if err := tx.UpdateOrder(ctx, id, storage.OrderChanges{Status: &cancelled}); err != nil {
				return err
			}
		}
		return nil
	}))

	removed, err := store.DeleteOrdersBefore(ctx, enums.OrderStatusCancelled, now.Add(-180*24*time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)

	_, err = store.FindOrder(ctx, old.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = store.FindOrder(ctx, recent.ID)
	assert.NoError(t, err)
	_, err = store.FindOrder(ctx, pendingOld.ID)
	assert.NoError(t, err)

	assert.NoError(t, store.DeleteProduct(ctx, f.Case.ID), "purged orders take their items along")
}

func testConcurrentLastUnit(t *testing.T, store storage.Store) {
	ctx := context.Background()
	f := Seed(t, store)

	require.NoError(t, store.WithTx(ctx, func(tx storage.Tx) error {
		return tx.SetStock(ctx, f.Phone.ID, 1)
	}))

	const buyers = 4
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		rejected  int
		other     []error
	)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := store.WithTx(ctx, func(tx storage.Tx) error {
				_, err := tx.AdjustStock(ctx, f.Phone.ID, -1)
				return err
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, storage.ErrInsufficientStock):
				rejected++
			default:
				other = append(other, err)
			}
		}()
	}
	wg.Wait()

	require.Empty(t, other)
	assert.Equal(t, 1, successes)
	assert.Equal(t, buyers-1, rejected)
	assert.Equal(t, 0, Stock(t, store, f.Phone.ID))
}
