// Package catalog manages categories, products and customers, including absolute stock
// changes that go through the inventory ledger.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/gastaldl/lojaflow/internal/inventory"
	"github.com/gastaldl/lojaflow/internal/storage"
	"github.com/gastaldl/lojaflow/pkg/db/models"
	pkgerrors "github.com/gastaldl/lojaflow/pkg/errors"
	"github.com/gastaldl/lojaflow/pkg/logger"
)

// Service exposes catalog and customer management.
type Service interface {
	CreateCategory(ctx context.Context, input CreateCategoryInput) (*models.Category, error)
	GetCategory(ctx context.Context, id int64) (*models.Category, error)
	ListCategories(ctx context.Context) ([]storage.CategorySummary, error)
	DeleteCategory(ctx context.Context, id int64) error
	BatchUpdateStock(ctx context.Context, categoryID int64, levels []StockLevel) (int, error)

	CreateProduct(ctx context.Context, input CreateProductInput) (*models.Product, error)
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	ListProducts(ctx context.Context, input ListProductsInput) ([]models.Product, error)
	UpdateProduct(ctx context.Context, id int64, input UpdateProductInput) (*models.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
	ListStockMovements(ctx context.Context, productID int64) ([]models.StockMovement, error)

	CreateCustomer(ctx context.Context, input CreateCustomerInput) (*models.Customer, error)
	GetCustomer(ctx context.Context, id int64) (*models.Customer, error)
	FindCustomerByEmail(ctx context.Context, email string) (*models.Customer, error)
	ListCustomers(ctx context.Context) ([]storage.CustomerSummary, error)
	UpdateCustomer(ctx context.Context, id int64, input UpdateCustomerInput) (*models.Customer, error)
}

type service struct {
	store  storage.Store
	ledger *inventory.Ledger
	logg   *logger.Logger
}

// NewService constructs a catalog service instance.
func NewService(store storage.Store, ledger *inventory.Ledger, logg *logger.Logger) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("catalog store required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("inventory ledger required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{store: store, ledger: ledger, logg: logg}, nil
}

func (s *service) CreateCategory(ctx context.Context, input CreateCategoryInput) (*models.Category, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	exists, err := s.store.CategoryNameExists(ctx, input.Name)
	if err != nil {
		return nil, storage.Typed(err, "category")
	}
	if exists {
		return nil, pkgerrors.New(pkgerrors.CodeDuplicateKey, "category already exists").
			WithDetails(map[string]any{"name": input.Name})
	}

	category := &models.Category{Name: input.Name, Description: input.Description}
	if err := s.store.CreateCategory(ctx, category); err != nil {
		return nil, storage.Typed(err, "category")
	}
	return category, nil
}

func (s *service) GetCategory(ctx context.Context, id int64) (*models.Category, error) {
	category, err := s.store.FindCategory(ctx, id)
	if err != nil {
		return nil, storage.Typed(err, "category")
	}
	return category, nil
}

func (s *service) ListCategories(ctx context.Context) ([]storage.CategorySummary, error) {
	categories, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, storage.Typed(err, "category")
	}
	return categories, nil
}

// DeleteCategory removes the category and its products. Products already sold keep the
// category alive.
func (s *service) DeleteCategory(ctx context.Context, id int64) error {
	if err := s.store.DeleteCategory(ctx, id); err != nil {
		return storage.Typed(err, "category")
	}
	s.logg.Info(s.logg.WithField(ctx, "category_id", id), "catalog.category_deleted")
	return nil
}

// BatchUpdateStock sets absolute stock for products of one category in a single
// transaction. Every level is checked before anything is written.
func (s *service) BatchUpdateStock(ctx context.Context, categoryID int64, levels []StockLevel) (int, error) {
	if err := validateStockLevels(levels); err != nil {
		return 0, err
	}
	if _, err := s.store.FindCategory(ctx, categoryID); err != nil {
		return 0, storage.Typed(err, "category")
	}
	products, err := s.store.ListProducts(ctx, storage.ProductFilter{CategoryID: categoryID})
	if err != nil {
		return 0, storage.Typed(err, "product")
	}
	members := make(map[int64]struct{}, len(products))
	for _, product := range products {
		members[product.ID] = struct{}{}
	}
	for _, level := range levels {
		if _, ok := members[level.ProductID]; !ok {
			return 0, notInCategory(level.ProductID, categoryID)
		}
	}

	err = s.store.WithTx(ctx, func(tx storage.Tx) error {
		for _, level := range levels {
			product, err := tx.LockProduct(ctx, level.ProductID)
			if err != nil {
				return storage.Typed(err, "product")
			}
			if product.CategoryID != categoryID {
				return notInCategory(product.ID, categoryID)
			}
			if err := s.ledger.Set(ctx, tx, product, level.Stock); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, storage.Typed(err, "product")
	}

	ctx = s.logg.WithFields(ctx, map[string]any{"category_id": categoryID, "products": len(levels)})
	s.logg.Info(ctx, "catalog.stock_batch_updated")
	return len(levels), nil
}

func (s *service) CreateProduct(ctx context.Context, input CreateProductInput) (*models.Product, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	if _, err := s.store.FindCategory(ctx, input.CategoryID); err != nil {
		return nil, storage.Typed(err, "category")
	}

	product := &models.Product{
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		Stock:       input.Stock,
		Active:      true,
		CategoryID:  input.CategoryID,
	}
	if err := s.store.CreateProduct(ctx, product); err != nil {
		return nil, storage.Typed(err, "product")
	}
	return s.GetProduct(ctx, product.ID)
}

func (s *service) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	product, err := s.store.FindProduct(ctx, id)
	if err != nil {
		return nil, storage.Typed(err, "product")
	}
	return product, nil
}

func (s *service) ListProducts(ctx context.Context, input ListProductsInput) ([]models.Product, error) {
	products, err := s.store.ListProducts(ctx, storage.ProductFilter{
		CategoryID: input.CategoryID,
		ActiveOnly: input.ActiveOnly,
	})
	if err != nil {
		return nil, storage.Typed(err, "product")
	}
	return products, nil
}

// UpdateProduct applies a partial update. A stock change is recorded as an adjustment
// in the same transaction.
func (s *service) UpdateProduct(ctx context.Context, id int64, input UpdateProductInput) (*models.Product, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	var updated *models.Product
	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		product, err := tx.LockProduct(ctx, id)
		if err != nil {
			return storage.Typed(err, "product")
		}
		if input.CategoryID != nil {
			if _, err := tx.FindCategory(ctx, *input.CategoryID); err != nil {
				return storage.Typed(err, "category")
			}
			product.CategoryID = *input.CategoryID
		}
		if input.Name != nil {
			product.Name = *input.Name
		}
		if input.Description != nil {
			product.Description = input.Description
		}
		if input.Price != nil {
			product.Price = *input.Price
		}
		if input.Active != nil {
			product.Active = *input.Active
		}
		if err := tx.UpdateProduct(ctx, product); err != nil {
			return storage.Typed(err, "product")
		}
		if input.Stock != nil {
			if err := s.ledger.Set(ctx, tx, product, *input.Stock); err != nil {
				return err
			}
		}
		updated, err = tx.FindProduct(ctx, id)
		return storage.Typed(err, "product")
	})
	if err != nil {
		return nil, storage.Typed(err, "product")
	}
	return updated, nil
}

func (s *service) DeleteProduct(ctx context.Context, id int64) error {
	if err := s.store.DeleteProduct(ctx, id); err != nil {
		return storage.Typed(err, "product")
	}
	s.logg.Info(s.logg.WithField(ctx, "product_id", id), "catalog.product_deleted")
	return nil
}

func (s *service) ListStockMovements(ctx context.Context, productID int64) ([]models.StockMovement, error) {
	if _, err := s.store.FindProduct(ctx, productID); err != nil {
		return nil, storage.Typed(err, "product")
	}
	movements, err := s.store.ListStockMovements(ctx, productID)
	if err != nil {
		return nil, storage.Typed(err, "stock movement")
	}
	return movements, nil
}

func (s *service) CreateCustomer(ctx context.Context, input CreateCustomerInput) (*models.Customer, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	taken, err := s.store.EmailTaken(ctx, input.Email, 0)
	if err != nil {
		return nil, storage.Typed(err, "customer")
	}
	if taken {
		return nil, emailTaken(input.Email)
	}

	customer := &models.Customer{
		Name:       input.Name,
		Email:      input.Email,
		Phone:      trimOptional(input.Phone),
		TaxID:      input.TaxID,
		Address:    trimOptional(input.Address),
		City:       trimOptional(input.City),
		State:      trimOptional(input.State),
		PostalCode: trimOptional(input.PostalCode),
		Active:     true,
	}
	if err := s.store.CreateCustomer(ctx, customer); err != nil {
		return nil, storage.Typed(err, "customer")
	}
	return customer, nil
}

func (s *service) GetCustomer(ctx context.Context, id int64) (*models.Customer, error) {
	customer, err := s.store.FindCustomer(ctx, id)
	if err != nil {
		return nil, storage.Typed(err, "customer")
	}
	return customer, nil
}

func (s *service) FindCustomerByEmail(ctx context.Context, email string) (*models.Customer, error) {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	customer, err := s.store.FindCustomerByEmail(ctx, normalized)
	if err != nil {
		return nil, storage.Typed(err, "customer")
	}
	return customer, nil
}

// ListCustomers orders customers by how many orders they placed, then by name.
func (s *service) ListCustomers(ctx context.Context) ([]storage.CustomerSummary, error) {
	customers, err := s.store.ListCustomers(ctx)
	if err != nil {
		return nil, storage.Typed(err, "customer")
	}
	sort.SliceStable(customers, func(i, j int) bool {
		return customers[i].OrderCount > customers[j].OrderCount
	})
	return customers, nil
}

func (s *service) UpdateCustomer(ctx context.Context, id int64, input UpdateCustomerInput) (*models.Customer, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	customer, err := s.store.FindCustomer(ctx, id)
	if err != nil {
		return nil, storage.Typed(err, "customer")
	}

	if input.Email != nil && *input.Email != customer.Email {
		taken, err := s.store.EmailTaken(ctx, *input.Email, id)
		if err != nil {
			return nil, storage.Typed(err, "customer")
		}
		if taken {
			return nil, emailTaken(*input.Email)
		}
		customer.Email = *input.Email
	}
	if input.Name != nil {
		customer.Name = *input.Name
	}
	if input.TaxID != nil {
		customer.TaxID = nil
		if *input.TaxID != "" {
			customer.TaxID = input.TaxID
		}
	}
	if input.Active != nil {
		customer.Active = *input.Active
	}
	setOptional(&customer.Phone, input.Phone)
	setOptional(&customer.Address, input.Address)
	setOptional(&customer.City, input.City)
	setOptional(&customer.State, input.State)
	setOptional(&customer.PostalCode, input.PostalCode)

	if err := s.store.UpdateCustomer(ctx, customer); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			return nil, emailTaken(customer.Email)
		}
		return nil, storage.Typed(err, "customer")
	}
	return customer, nil
}

func notInCategory(productID, categoryID int64) error {
	return pkgerrors.New(pkgerrors.CodeValidation, "product does not belong to category").
		WithDetails(map[string]any{"product_id": productID, "category_id": categoryID})
}

func emailTaken(email string) error {
	return pkgerrors.New(pkgerrors.CodeDuplicateKey, "email already registered").
		WithDetails(map[string]any{"email": email})
}

// setOptional replaces dst when a value was supplied; a blank value clears it.
func setOptional(dst **string, value *string) {
	if value == nil {
		return
	}
	trimmed := trimOptional(value)
	if *trimmed == "" {
		*dst = nil
		return
	}
	*dst = trimmed
}
