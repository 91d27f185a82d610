package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/gastaldl/lojaflow/pkg/enums"
)

// Order is the aggregate root for line items. Total is the sum of committed line subtotals;
// Discount is applied on top of it.
type Order struct {
	ID          int64             `gorm:"column:id;primaryKey;autoIncrement"`
	OrderNumber string            `gorm:"column:order_number;not null;uniqueIndex"`
	OrderDate   time.Time         `gorm:"column:order_date;not null"`
	Status      enums.OrderStatus `gorm:"column:status;type:smallint;not null"`
	Total       decimal.Decimal   `gorm:"column:total;type:numeric(12,2);not null"`
	Discount    decimal.Decimal   `gorm:"column:discount;type:numeric(12,2);not null"`
	Notes       string            `gorm:"column:notes;not null"`
	CustomerID  int64             `gorm:"column:customer_id;not null"`
	Customer    *Customer         `gorm:"foreignKey:CustomerID"`
	Items       []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

// NetTotal is the amount owed after the order-level discount.
func (o Order) NetTotal() decimal.Decimal {
	return o.Total.Sub(o.Discount)
}
