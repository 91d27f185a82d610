package models

import "github.com/shopspring/decimal"

// OrderItem freezes the unit price of a product at the moment it was added.
type OrderItem struct {
	ID        int64           `gorm:"column:id;primaryKey;autoIncrement"`
	OrderID   int64           `gorm:"column:order_id;not null"`
	ProductID int64           `gorm:"column:product_id;not null"`
	Quantity  int             `gorm:"column:quantity;not null"`
	UnitPrice decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	Discount  decimal.Decimal `gorm:"column:discount;type:numeric(12,2);not null"`
	Product   *Product        `gorm:"foreignKey:ProductID;constraint:OnDelete:RESTRICT"`
}

func (OrderItem) TableName() string {
	return "order_items"
}

// Subtotal is quantity x unit price minus the line discount.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity))).Sub(i.Discount)
}
