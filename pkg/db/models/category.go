package models

import "time"

// Category groups products; deleting it removes its products.
type Category struct {
	ID          int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Name        string    `gorm:"column:name;not null"`
	Description *string   `gorm:"column:description"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	Products    []Product `gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE"`
}
