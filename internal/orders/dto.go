package orders

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gastaldl/lojaflow/pkg/db/models"
	"github.com/gastaldl/lojaflow/pkg/enums"
	pkgerrors "github.com/gastaldl/lojaflow/pkg/errors"
)

// ItemInput is one product line requested for an order.
type ItemInput struct {
	ProductID int64
	Quantity  int
	Discount  decimal.Decimal
}

// CreateInput carries everything needed to open an order and fill it in one unit of work.
// Either CustomerID or CustomerEmail identifies the customer.
type CreateInput struct {
	CustomerID    int64
	CustomerEmail string
	Discount      decimal.Decimal
	Notes         string
	Items         []ItemInput
}

// Filter narrows List. Zero values mean "no filter".
type Filter struct {
	CustomerID int64
	Status     enums.OrderStatus
}

// PurgeResult reports what PurgeCancelled removed.
type PurgeResult struct {
	Cutoff  time.Time
	Removed int64
}

func (in ItemInput) validate() error {
	if in.ProductID <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if in.Quantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive").
			WithDetails(map[string]any{"product_id": in.ProductID, "quantity": in.Quantity})
	}
	if in.Discount.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "line discount cannot be negative")
	}
	return nil
}

func (in *CreateInput) validate() error {
	in.CustomerEmail = strings.ToLower(strings.TrimSpace(in.CustomerEmail))
	if in.CustomerID <= 0 && in.CustomerEmail == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer id or email required")
	}
	if in.Discount.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "discount cannot be negative")
	}
	for _, item := range in.Items {
		if err := item.validate(); err != nil {
			return err
		}
	}
	return nil
}

// OrderDTO is the order payload returned to clients. Money is a fixed two-decimal string.
type OrderDTO struct {
	ID          int64          `json:"id"`
	OrderNumber string         `json:"order_number"`
	OrderDate   time.Time      `json:"order_date"`
	Status      string         `json:"status"`
	CustomerID  int64          `json:"customer_id"`
	Total       string         `json:"total"`
	Discount    string         `json:"discount"`
	NetTotal    string         `json:"net_total"`
	Notes       string         `json:"notes"`
	Items       []OrderItemDTO `json:"items"`
}

// OrderItemDTO is one line of an order with its frozen unit price.
type OrderItemDTO struct {
	ID        int64  `json:"id"`
	ProductID int64  `json:"product_id"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	Discount  string `json:"discount"`
	Subtotal  string `json:"subtotal"`
}

// NewOrderDTO builds the client payload from the persisted order and its loaded items.
func NewOrderDTO(order *models.Order) OrderDTO {
	dto := OrderDTO{
		ID:          order.ID,
		OrderNumber: order.OrderNumber,
		OrderDate:   order.OrderDate.UTC(),
		Status:      order.Status.String(),
		CustomerID:  order.CustomerID,
		Total:       order.Total.StringFixed(2),
		Discount:    order.Discount.StringFixed(2),
		NetTotal:    order.NetTotal().StringFixed(2),
		Notes:       order.Notes,
		Items:       make([]OrderItemDTO, 0, len(order.Items)),
	}
	for _, item := range order.Items {
		dto.Items = append(dto.Items, OrderItemDTO{
			ID:        item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice.StringFixed(2),
			Discount:  item.Discount.StringFixed(2),
			Subtotal:  item.Subtotal().StringFixed(2),
		})
	}
	return dto
}

func NewOrderDTOs(orders []models.Order) []OrderDTO {
	out := make([]OrderDTO, 0, len(orders))
	for i := range orders {
		out = append(out, NewOrderDTO(&orders[i]))
	}
	return out
}
