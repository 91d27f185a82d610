package sqlstore

import (
	"context"

	"github.com/gastaldl/lojaflow/internal/storage"
	"github.com/gastaldl/lojaflow/pkg/db/models"
)

const customerColumns = `id, name, email, phone, tax_id, address, city, state, postal_code, registered_at, active`

func customerDest(c *models.Customer) []any {
	return []any{
		&c.ID, &c.Name, &c.Email, &c.Phone, &c.TaxID, &c.Address,
		&c.City, &c.State, &c.PostalCode, &c.RegisteredAt, &c.Active,
	}
}

func (r repository) CreateCustomer(ctx context.Context, customer *models.Customer) error {
	if customer.RegisteredAt.IsZero() {
		customer.RegisteredAt = now()
	}
	return translate(r.queryRow(ctx, `
		INSERT INTO customers (name, email, phone, tax_id, address, city, state, postal_code, registered_at, active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`, customer.Name, customer.Email, customer.Phone, customer.TaxID, customer.Address,
		customer.City, customer.State, customer.PostalCode, customer.RegisteredAt, customer.Active).
		Scan(&customer.ID))
}

func (r repository) findCustomer(ctx context.Context, where string, arg any) (*models.Customer, error) {
	var c models.Customer
	if err := r.queryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE `+where, arg).Scan(customerDest(&c)...); err != nil {
		return nil, translate(err)
	}
	c.RegisteredAt = c.RegisteredAt.UTC()
	return &c, nil
}

func (r repository) FindCustomer(ctx context.Context, id int64) (*models.Customer, error) {
	return r.findCustomer(ctx, "id = ?", id)
}

func (r repository) FindCustomerByEmail(ctx context.Context, email string) (*models.Customer, error) {
	return r.findCustomer(ctx, "email = ?", email)
}

func (r repository) EmailTaken(ctx context.Context, email string, excludeID int64) (bool, error) {
	var count int64
	err := r.queryRow(ctx, `SELECT COUNT(*) FROM customers WHERE email = ? AND id <> ?`, email, excludeID).Scan(&count)
	return count > 0, translate(err)
}

func (r repository) ListCustomers(ctx context.Context) ([]storage.CustomerSummary, error) {
	rows, err := r.query(ctx, `
		SELECT c.id, c.name, c.email, c.phone, c.tax_id, c.address, c.city, c.state, c.postal_code,
		       c.registered_at, c.active, COUNT(o.id)
		FROM customers c
		LEFT JOIN orders o ON o.customer_id = c.id
		GROUP BY c.id, c.name, c.email, c.phone, c.tax_id, c.address, c.city, c.state, c.postal_code,
		         c.registered_at, c.active
		ORDER BY c.name, c.id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]storage.CustomerSummary, 0, 16)
	for rows.Next() {
		var s storage.CustomerSummary
		if err := rows.Scan(append(customerDest(&s.Customer), &s.OrderCount)...); err != nil {
			return nil, err
		}
		s.RegisteredAt = s.RegisteredAt.UTC()
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r repository) UpdateCustomer(ctx context.Context, customer *models.Customer) error {
	return r.execOne(ctx, `
		UPDATE customers
		SET name = ?, email = ?, phone = ?, tax_id = ?, address = ?, city = ?, state = ?, postal_code = ?, active = ?
		WHERE id = ?
	`, customer.Name, customer.Email, customer.Phone, customer.TaxID, customer.Address,
		customer.City, customer.State, customer.PostalCode, customer.Active, customer.ID)
}
