package gormstore

import (
	"context"
	"time"

	"gorm.io/gorm/clause"

	"github.com/gastaldl/lojaflow/internal/storage"
	"github.com/gastaldl/lojaflow/pkg/db/models"
)

func (r repository) CreateCustomer(ctx context.Context, customer *models.Customer) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(customer).Error)
}

func (r repository) FindCustomer(ctx context.Context, id int64) (*models.Customer, error) {
	var customer models.Customer
	if err := r.db.WithContext(ctx).First(&customer, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &customer, nil
}

func (r repository) FindCustomerByEmail(ctx context.Context, email string) (*models.Customer, error) {
	var customer models.Customer
	if err := r.db.WithContext(ctx).First(&customer, "email = ?", email).Error; err != nil {
		return nil, translate(err)
	}
	return &customer, nil
}

func (r repository) EmailTaken(ctx context.Context, email string, excludeID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Customer{}).
		Where("email = ? AND id <> ?", email, excludeID).
		Count(&count).
		Error
	return count > 0, translate(err)
}

type customerRow struct {
	ID           int64
	Name         string
	Email        string
	Phone        *string
	TaxID        *string
	Address      *string
	City         *string
	State        *string
	PostalCode   *string
	RegisteredAt time.Time
	Active       bool
	OrderCount   int64
}

const listCustomersQuery = `
SELECT c.id, c.name, c.email, c.phone, c.tax_id, c.address, c.city, c.state, c.postal_code,
       c.registered_at, c.active, COUNT(o.id) AS order_count
FROM customers c
LEFT JOIN orders o ON o.customer_id = c.id
GROUP BY c.id, c.name, c.email, c.phone, c.tax_id, c.address, c.city, c.state, c.postal_code,
         c.registered_at, c.active
ORDER BY c.name, c.id
`

func (r repository) ListCustomers(ctx context.Context) ([]storage.CustomerSummary, error) {
	var rows []customerRow
	if err := r.db.WithContext(ctx).Raw(listCustomersQuery).Scan(&rows).Error; err != nil {
		return nil, translate(err)
	}
	out := make([]storage.CustomerSummary, 0, len(rows))
	for _, row := range rows {
		out = append(out, storage.CustomerSummary{
			Customer: models.Customer{
				ID:           row.ID,
				Name:         row.Name,
				Email:        row.Email,
				Phone:        row.Phone,
				TaxID:        row.TaxID,
				Address:      row.Address,
				City:         row.City,
				State:        row.State,
				PostalCode:   row.PostalCode,
				RegisteredAt: row.RegisteredAt,
				Active:       row.Active,
			},
			OrderCount: row.OrderCount,
		})
	}
	return out, nil
}

func (r repository) UpdateCustomer(ctx context.Context, customer *models.Customer) error {
	return affected(r.db.WithContext(ctx).
		Model(&models.Customer{}).
		Where("id = ?", customer.ID).
		Updates(map[string]any{
			"name":        customer.Name,
			"email":       customer.Email,
			"phone":       customer.Phone,
			"tax_id":      customer.TaxID,
			"address":     customer.Address,
			"city":        customer.City,
			"state":       customer.State,
			"postal_code": customer.PostalCode,
			"active":      customer.Active,
		}))
}
