package storagetest

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/gastaldl/lojaflow/internal/storage"
	"github.com/gastaldl/lojaflow/pkg/db/models"
)

// Fixture is a minimal catalog: one category, two products and one customer.
type Fixture struct {
	Category models.Category
	Phone    models.Product
	Case     models.Product
	Customer models.Customer
}

// Seed inserts the Fixture rows.
func Seed(t testing.TB, store storage.Store) Fixture {
	t.Helper()
	ctx := context.Background()

	f := Fixture{
		Category: models.Category{Name: "Electronics"},
		Customer: models.Customer{Name: "Ana Souza", Email: "ana@example.com", Active: true},
	}
	require.NoError(t, store.CreateCategory(ctx, &f.Category))

	f.Phone = models.Product{
		Name:       "Phone",
		Price:      decimal.RequireFromString("199.90"),
		Stock:      10,
		Active:     true,
		CategoryID: f.Category.ID,
	}
	require.NoError(t, store.CreateProduct(ctx, &f.Phone))

	f.Case = models.Product{
		Name:       "Case",
		Price:      decimal.RequireFromString("59.90"),
		Stock:      5,
		Active:     true,
		CategoryID: f.Category.ID,
	}
	require.NoError(t, store.CreateProduct(ctx, &f.Case))

	require.NoError(t, store.CreateCustomer(ctx, &f.Customer))
	return f
}

// Stock reads the current stock of a product.
func Stock(t testing.TB, store storage.Store, productID int64) int {
	t.Helper()
	p, err := store.FindProduct(context.Background(), productID)
	require.NoError(t, err)
	return p.Stock
}
