// Package reports serves read-only sales views straight from the relational store.
package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gastaldl/lojaflow/pkg/db"
	"github.com/gastaldl/lojaflow/pkg/enums"
	pkgerrors "github.com/gastaldl/lojaflow/pkg/errors"
)

// DefaultTrendMonths is the window used when MonthlyTrend is called with months <= 0.
const DefaultTrendMonths = 12

// MaxTrendMonths bounds the trend window.
const MaxTrendMonths = 120

const (
	salesSQL = `
SELECT
  o.order_number AS order_number,
  o.order_date   AS order_date,
  c.name         AS customer_name,
  p.name         AS product_name,
  oi.quantity    AS quantity,
  oi.unit_price  AS unit_price,
  oi.discount    AS discount
FROM order_items oi
JOIN orders o ON o.id = oi.order_id
JOIN customers c ON c.id = o.customer_id
JOIN products p ON p.id = oi.product_id
ORDER BY o.order_date, o.id, oi.id
`

	revenueByCustomerSQL = `
SELECT
  c.id    AS customer_id,
  c.name  AS customer_name,
  c.email AS email,
  COUNT(o.id) AS order_count,
  COALESCE(SUM(o.total - o.discount), 0) AS revenue
FROM customers c
LEFT JOIN orders o ON o.customer_id = c.id AND o.status <> ?
GROUP BY c.id, c.name, c.email
ORDER BY revenue DESC, c.name, c.id
`

	deadStockSQL = `
SELECT
  p.id    AS product_id,
  p.name  AS product_name,
  c.name  AS category_name,
  p.price AS price,
  p.stock AS stock
FROM products p
JOIN categories c ON c.id = p.category_id
WHERE NOT EXISTS (SELECT 1 FROM order_items oi WHERE oi.product_id = p.id)
ORDER BY c.name, p.name, p.id
`

	trendSQL = `
SELECT order_date, total, discount
FROM orders
WHERE status <> ?
  AND order_date >= ?
ORDER BY order_date
`
)

// Service exposes the reporting views.
type Service interface {
	Sales(ctx context.Context) ([]SalesRow, error)
	RevenueByCustomer(ctx context.Context) ([]CustomerRevenueRow, error)
	DeadStock(ctx context.Context) (*DeadStockReport, error)
	MonthlyTrend(ctx context.Context, months int) ([]MonthlyRow, error)
}

type service struct {
	client *db.Client
	now    func() time.Time
}

// NewService builds a report service over the shared database client. clock may be nil.
func NewService(client *db.Client, clock func() time.Time) (Service, error) {
	if client == nil {
		return nil, fmt.Errorf("db client required")
	}
	if clock == nil {
		clock = time.Now
	}
	return &service{client: client, now: clock}, nil
}

func (s *service) Sales(ctx context.Context) ([]SalesRow, error) {
	var rows []SalesRow
	if err := s.client.Raw(ctx, salesSQL).Scan(&rows).Error; err != nil {
		return nil, queryError("sales", err)
	}
	for i := range rows {
		row := &rows[i]
		row.OrderDate = row.OrderDate.UTC()
		row.Subtotal = money(row.UnitPrice.Mul(decimal.NewFromInt(int64(row.Quantity))).Sub(row.Discount))
		row.UnitPrice = money(row.UnitPrice)
		row.Discount = money(row.Discount)
	}
	return rows, nil
}

func (s *service) RevenueByCustomer(ctx context.Context) ([]CustomerRevenueRow, error) {
	var rows []CustomerRevenueRow
	if err := s.client.Raw(ctx, revenueByCustomerSQL, enums.OrderStatusCancelled).Scan(&rows).Error; err != nil {
		return nil, queryError("revenue by customer", err)
	}
	for i := range rows {
		row := &rows[i]
		row.Revenue = money(row.Revenue)
		row.AverageTicket = decimal.Zero
		if row.OrderCount > 0 {
			row.AverageTicket = money(row.Revenue.Div(decimal.NewFromInt(row.OrderCount)))
		}
	}
	return rows, nil
}

func (s *service) DeadStock(ctx context.Context) (*DeadStockReport, error) {
	var rows []DeadStockRow
	if err := s.client.Raw(ctx, deadStockSQL).Scan(&rows).Error; err != nil {
		return nil, queryError("dead stock", err)
	}
	report := &DeadStockReport{Rows: rows, TotalValue: decimal.Zero}
	for i := range report.Rows {
		row := &report.Rows[i]
		row.Price = money(row.Price)
		row.Value = money(row.Price.Mul(decimal.NewFromInt(int64(row.Stock))))
		report.TotalValue = report.TotalValue.Add(row.Value)
	}
	return report, nil
}

type trendOrder struct {
	OrderDate time.Time       `gorm:"column:order_date"`
	Total     decimal.Decimal `gorm:"column:total"`
	Discount  decimal.Decimal `gorm:"column:discount"`
}

// MonthlyTrend buckets non-cancelled net revenue by UTC calendar month, covering the
// current month and the months-1 before it. Months without sales are omitted.
func (s *service) MonthlyTrend(ctx context.Context, months int) ([]MonthlyRow, error) {
	if months <= 0 {
		months = DefaultTrendMonths
	}
	if months > MaxTrendMonths {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "months out of range").
			WithDetails(map[string]any{"max": MaxTrendMonths})
	}

	now := s.now().UTC()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(months - 1), 0)

	var orders []trendOrder
	if err := s.client.Raw(ctx, trendSQL, enums.OrderStatusCancelled, start).Scan(&orders).Error; err != nil {
		return nil, queryError("monthly trend", err)
	}

	var rows []MonthlyRow
	for _, order := range orders {
		month := order.OrderDate.UTC().Format("2006-01")
		net := order.Total.Sub(order.Discount)
		if n := len(rows); n > 0 && rows[n-1].Month == month {
			rows[n-1].Revenue = rows[n-1].Revenue.Add(net)
			continue
		}
		rows = append(rows, MonthlyRow{Month: month, Revenue: net})
	}

	for i := range rows {
		rows[i].Revenue = money(rows[i].Revenue)
		if i == 0 || rows[i-1].Revenue.IsZero() {
			continue
		}
		prev := rows[i-1].Revenue
		change := money(rows[i].Revenue.Sub(prev).Div(prev).Mul(decimal.NewFromInt(100)))
		rows[i].ChangePct = &change
	}
	return rows, nil
}

func money(value decimal.Decimal) decimal.Decimal {
	return value.Round(2)
}

func queryError(report string, err error) error {
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("%s report failed", report))
}
