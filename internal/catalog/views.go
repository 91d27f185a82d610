package catalog

import (
	"time"

	"github.com/gastaldl/lojaflow/internal/storage"
	"github.com/gastaldl/lojaflow/pkg/db/models"
)

// CategoryDTO is the category payload returned to clients.
type CategoryDTO struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Description  *string   `json:"description,omitempty"`
	ProductCount *int64    `json:"product_count,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// ProductDTO is the product payload returned to clients. Money is a fixed two-decimal string.
type ProductDTO struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Description  *string   `json:"description,omitempty"`
	Price        string    `json:"price"`
	Stock        int       `json:"stock"`
	Active       bool      `json:"active"`
	CategoryID   int64     `json:"category_id"`
	CategoryName string    `json:"category_name,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// CustomerDTO is the customer payload returned to clients.
type CustomerDTO struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        *string   `json:"phone,omitempty"`
	TaxID        *string   `json:"tax_id,omitempty"`
	Address      *string   `json:"address,omitempty"`
	City         *string   `json:"city,omitempty"`
	State        *string   `json:"state,omitempty"`
	PostalCode   *string   `json:"postal_code,omitempty"`
	Active       bool      `json:"active"`
	OrderCount   *int64    `json:"order_count,omitempty"`
	RegisteredAt time.Time `json:"registered_at"`
}

// StockMovementDTO is one audit entry of a product's stock.
type StockMovementDTO struct {
	ID         int64     `json:"id"`
	ProductID  int64     `json:"product_id"`
	OrderID    *int64    `json:"order_id,omitempty"`
	Delta      int       `json:"delta"`
	Reason     string    `json:"reason"`
	StockAfter int       `json:"stock_after"`
	CreatedAt  time.Time `json:"created_at"`
}

func NewCategoryDTO(category *models.Category) CategoryDTO {
	return CategoryDTO{
		ID:          category.ID,
		Name:        category.Name,
		Description: category.Description,
		CreatedAt:   category.CreatedAt,
	}
}

func NewCategorySummaryDTOs(summaries []storage.CategorySummary) []CategoryDTO {
	out := make([]CategoryDTO, 0, len(summaries))
	for i := range summaries {
		dto := NewCategoryDTO(&summaries[i].Category)
		count := summaries[i].ProductCount
		dto.ProductCount = &count
		out = append(out, dto)
	}
	return out
}

func NewProductDTO(product *models.Product) ProductDTO {
	dto := ProductDTO{
		ID:          product.ID,
		Name:        product.Name,
		Description: product.Description,
		Price:       product.Price.StringFixed(2),
		Stock:       product.Stock,
		Active:      product.Active,
		CategoryID:  product.CategoryID,
		CreatedAt:   product.CreatedAt,
	}
	if product.Category != nil {
		dto.CategoryName = product.Category.Name
	}
	return dto
}

func NewProductDTOs(products []models.Product) []ProductDTO {
	out := make([]ProductDTO, 0, len(products))
	for i := range products {
		out = append(out, NewProductDTO(&products[i]))
	}
	return out
}

func NewCustomerDTO(customer *models.Customer) CustomerDTO {
	return CustomerDTO{
		ID:           customer.ID,
		Name:         customer.Name,
		Email:        customer.Email,
		Phone:        customer.Phone,
		TaxID:        customer.TaxID,
		Address:      customer.Address,
		City:         customer.City,
		State:        customer.State,
		PostalCode:   customer.PostalCode,
		Active:       customer.Active,
		RegisteredAt: customer.RegisteredAt,
	}
}

func NewCustomerSummaryDTOs(summaries []storage.CustomerSummary) []CustomerDTO {
	out := make([]CustomerDTO, 0, len(summaries))
	for i := range summaries {
		dto := NewCustomerDTO(&summaries[i].Customer)
		count := summaries[i].OrderCount
		dto.OrderCount = &count
		out = append(out, dto)
	}
	return out
}

func NewStockMovementDTOs(movements []models.StockMovement) []StockMovementDTO {
	out := make([]StockMovementDTO, 0, len(movements))
	for _, m := range movements {
		out = append(out, StockMovementDTO{
			ID:         m.ID,
			ProductID:  m.ProductID,
			OrderID:    m.OrderID,
			Delta:      m.Delta,
			Reason:     string(m.Reason),
			StockAfter: m.StockAfter,
			CreatedAt:  m.CreatedAt,
		})
	}
	return out
}
