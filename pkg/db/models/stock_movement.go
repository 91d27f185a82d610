package models

import (
	"time"

	"github.com/gastaldl/lojaflow/pkg/enums"
)

// StockMovement records one signed change to a product's stock.
type StockMovement struct {
	ID         int64                     `gorm:"column:id;primaryKey;autoIncrement"`
	ProductID  int64                     `gorm:"column:product_id;not null"`
	OrderID    *int64                    `gorm:"column:order_id"`
	Delta      int                       `gorm:"column:delta;not null"`
	Reason     enums.StockMovementReason `gorm:"column:reason;type:text;not null"`
	StockAfter int                       `gorm:"column:stock_after;not null"`
	CreatedAt  time.Time                 `gorm:"column:created_at;autoCreateTime"`
}
