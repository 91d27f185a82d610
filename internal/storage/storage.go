// Package storage defines the persistence contract shared by the ORM and SQL adapters.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gastaldl/lojaflow/pkg/db"
	"github.com/gastaldl/lojaflow/pkg/db/models"
	"github.com/gastaldl/lojaflow/pkg/enums"
)

var (
	ErrNotFound          = errors.New("storage: record not found")
	ErrInsufficientStock = errors.New("storage: insufficient stock")
	ErrDuplicateKey      = errors.New("storage: duplicate key")
	ErrReferenced        = errors.New("storage: record referenced by order history")
)

// CategorySummary is a category together with how many products it owns.
type CategorySummary struct {
	models.Category
	ProductCount int64
}

// CustomerSummary is a customer together with how many orders it placed.
type CustomerSummary struct {
	models.Customer
	OrderCount int64
}

// ProductFilter narrows ListProducts. Zero values mean "no filter".
type ProductFilter struct {
	CategoryID int64
	ActiveOnly bool
}

// OrderFilter narrows ListOrders. Zero values mean "no filter".
type OrderFilter struct {
	CustomerID int64
	Status     enums.OrderStatus
}

// OrderChanges lists the mutable order columns; nil fields are left untouched.
type OrderChanges struct {
	Status *enums.OrderStatus
	Total  *decimal.Decimal
	Notes  *string
}

// Repository holds the reads and single-row writes usable with or without a transaction.
type Repository interface {
	CreateCategory(ctx context.Context, category *models.Category) error
	FindCategory(ctx context.Context, id int64) (*models.Category, error)
	CategoryNameExists(ctx context.Context, name string) (bool, error)
	ListCategories(ctx context.Context) ([]CategorySummary, error)
	DeleteCategory(ctx context.Context, id int64) error

	CreateProduct(ctx context.Context, product *models.Product) error
	FindProduct(ctx context.Context, id int64) (*models.Product, error)
	ListProducts(ctx context.Context, filter ProductFilter) ([]models.Product, error)
	UpdateProduct(ctx context.Context, product *models.Product) error
	DeleteProduct(ctx context.Context, id int64) error
	ListStockMovements(ctx context.Context, productID int64) ([]models.StockMovement, error)

	CreateCustomer(ctx context.Context, customer *models.Customer) error
	FindCustomer(ctx context.Context, id int64) (*models.Customer, error)
	FindCustomerByEmail(ctx context.Context, email string) (*models.Customer, error)
	EmailTaken(ctx context.Context, email string, excludeID int64) (bool, error)
	ListCustomers(ctx context.Context) ([]CustomerSummary, error)
	UpdateCustomer(ctx context.Context, customer *models.Customer) error

	FindOrder(ctx context.Context, id int64) (*models.Order, error)
	FindOrderByNumber(ctx context.Context, number string) (*models.Order, error)
	ListOrders(ctx context.Context, filter OrderFilter) ([]models.Order, error)
	ListOrderItems(ctx context.Context, orderID int64) ([]models.OrderItem, error)
	DeleteOrdersBefore(ctx context.Context, status enums.OrderStatus, cutoff time.Time) (int64, error)
}

// Tx is a Repository bound to an open transaction. Stock and order mutations only exist
// here so they cannot run outside the unit of work they belong to.
type Tx interface {
	Repository

	// LockProduct reads a product and holds its row until the transaction ends.
	LockProduct(ctx context.Context, id int64) (*models.Product, error)
	// AdjustStock applies delta atomically and returns the new stock. It fails with
	// ErrInsufficientStock when the result would be negative and ErrNotFound when the
	// product does not exist.
	AdjustStock(ctx context.Context, productID int64, delta int) (int, error)
	SetStock(ctx context.Context, productID int64, stock int) error
	RecordStockMovement(ctx context.Context, movement *models.StockMovement) error

	CreateOrder(ctx context.Context, order *models.Order) error
	LockOrder(ctx context.Context, id int64) (*models.Order, error)
	LockOrderByNumber(ctx context.Context, number string) (*models.Order, error)
	AddOrderItem(ctx context.Context, item *models.OrderItem) error
	UpdateOrder(ctx context.Context, id int64, changes OrderChanges) error
}

// Store is the entry point services depend on.
type Store interface {
	Repository
	// WithTx runs fn in one transaction: commit when fn returns nil, rollback otherwise.
	WithTx(ctx context.Context, fn func(tx Tx) error) error
	Ping(ctx context.Context) error
	Name() string
}

// InsufficientStockError describes a rejected stock adjustment.
type InsufficientStockError struct {
	ProductID int64
	Available int
	Delta     int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("%s: product %d has %d, adjustment %d", ErrInsufficientStock, e.ProductID, e.Available, e.Delta)
}

// Is matches ErrInsufficientStock.
func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// TranslateDriverError maps constraint violations onto the storage sentinels while
// keeping the driver error in the chain.
func TranslateDriverError(err error) error {
	switch {
	case err == nil:
		return nil
	case db.IsUniqueViolation(err, ""):
		return fmt.Errorf("%w: %w", ErrDuplicateKey, err)
	case db.IsForeignKeyViolation(err):
		return fmt.Errorf("%w: %w", ErrReferenced, err)
	case db.IsCheckViolation(err) && strings.Contains(err.Error(), "stock"):
		return fmt.Errorf("%w: %w", ErrInsufficientStock, err)
	}
	return err
}
