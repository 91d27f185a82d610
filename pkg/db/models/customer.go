package models

import "time"

// Customer places orders. Email is stored lowercased and is unique.
type Customer struct {
	ID           int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Name         string    `gorm:"column:name;not null"`
	Email        string    `gorm:"column:email;not null;uniqueIndex"`
	Phone        *string   `gorm:"column:phone"`
	TaxID        *string   `gorm:"column:tax_id"`
	Address      *string   `gorm:"column:address"`
	City         *string   `gorm:"column:city"`
	State        *string   `gorm:"column:state"`
	PostalCode   *string   `gorm:"column:postal_code"`
	RegisteredAt time.Time `gorm:"column:registered_at;autoCreateTime"`
	Active       bool      `gorm:"column:active;not null"`
	Orders       []Order   `gorm:"foreignKey:CustomerID;constraint:OnDelete:CASCADE"`
}
