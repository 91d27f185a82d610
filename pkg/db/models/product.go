package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a sellable catalog entry. Stock never drops below zero.
type Product struct {
	ID          int64           `gorm:"column:id;primaryKey;autoIncrement"`
	Name        string          `gorm:"column:name;not null"`
	Description *string         `gorm:"column:description"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	Stock       int             `gorm:"column:stock;not null"`
	Active      bool            `gorm:"column:active;not null"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	CategoryID  int64           `gorm:"column:category_id;not null"`
	Category    *Category       `gorm:"foreignKey:CategoryID"`
}

// StockValue is the money tied up in the product's current stock.
func (p Product) StockValue() decimal.Decimal {
	return p.Price.Mul(decimal.NewFromInt(int64(p.Stock)))
}
