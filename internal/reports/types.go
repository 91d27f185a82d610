package reports

import (
	"time"

	"github.com/shopspring/decimal"
)

// SalesRow is one line item of one order.
type SalesRow struct {
	OrderNumber  string          `json:"order_number" csv:"order_number"`
	OrderDate    time.Time       `json:"order_date" csv:"order_date"`
	CustomerName string          `json:"customer_name" csv:"customer"`
	ProductName  string          `json:"product_name" csv:"product"`
	Quantity     int             `json:"quantity" csv:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price" csv:"unit_price"`
	Discount     decimal.Decimal `json:"discount" csv:"discount"`
	Subtotal     decimal.Decimal `json:"subtotal" csv:"subtotal"`
}

// CustomerRevenueRow aggregates the non-cancelled orders of one customer.
type CustomerRevenueRow struct {
	CustomerID    int64           `json:"customer_id" csv:"customer_id"`
	CustomerName  string          `json:"customer_name" csv:"customer"`
	Email         string          `json:"email" csv:"email"`
	OrderCount    int64           `json:"order_count" csv:"orders"`
	Revenue       decimal.Decimal `json:"revenue" csv:"revenue"`
	AverageTicket decimal.Decimal `json:"average_ticket" csv:"average_ticket"`
}

// DeadStockRow is a product that never appeared on an order.
type DeadStockRow struct {
	ProductID    int64           `json:"product_id" csv:"product_id"`
	ProductName  string          `json:"product_name" csv:"product"`
	CategoryName string          `json:"category_name" csv:"category"`
	Price        decimal.Decimal `json:"price" csv:"price"`
	Stock        int             `json:"stock" csv:"stock"`
	Value        decimal.Decimal `json:"value" csv:"value"`
}

// DeadStockReport lists unsold products and the money tied up in them.
type DeadStockReport struct {
	Rows       []DeadStockRow  `json:"rows"`
	TotalValue decimal.Decimal `json:"total_value"`
}

// MonthlyRow is the net revenue of one calendar month. ChangePct is nil for the first
// month and whenever the previous month had no revenue.
type MonthlyRow struct {
	Month     string           `json:"month" csv:"month"`
	Revenue   decimal.Decimal  `json:"revenue" csv:"revenue"`
	ChangePct *decimal.Decimal `json:"change_pct" csv:"change_pct"`
}
