package sqlstore

import (
	"context"

	"github.com/gastaldl/lojaflow/internal/storage"
	"github.com/gastaldl/lojaflow/pkg/db/models"
)

func (r repository) CreateCategory(ctx context.Context, category *models.Category) error {
	if category.CreatedAt.IsZero() {
		category.CreatedAt = now()
	}
	return translate(r.queryRow(ctx, `
		INSERT INTO categories (name, description, created_at)
		VALUES (?, ?, ?)
		RETURNING id
	`, category.Name, category.Description, category.CreatedAt).Scan(&category.ID))
}

func (r repository) FindCategory(ctx context.Context, id int64) (*models.Category, error) {
	var c models.Category
	err := r.queryRow(ctx, `
		SELECT id, name, description, created_at
		FROM categories
		WHERE id = ?
	`, id).Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt)
	if err != nil {
		return nil, translate(err)
	}
	c.CreatedAt = c.CreatedAt.UTC()
	return &c, nil
}

func (r repository) CategoryNameExists(ctx context.Context, name string) (bool, error) {
	var count int64
	err := r.queryRow(ctx, `SELECT COUNT(*) FROM categories WHERE lower(name) = lower(?)`, name).Scan(&count)
	return count > 0, translate(err)
}

func (r repository) ListCategories(ctx context.Context) ([]storage.CategorySummary, error) {
	rows, err := r.query(ctx, `
		SELECT c.id, c.name, c.description, c.created_at, COUNT(p.id)
		FROM categories c
		LEFT JOIN products p ON p.category_id = c.id
		GROUP BY c.id, c.name, c.description, c.created_at
		ORDER BY c.name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]storage.CategorySummary, 0, 16)
	for rows.Next() {
		var s storage.CategorySummary
		if err := rows.Scan(&s.ID, &s.Name, &s.Description, &s.CreatedAt, &s.ProductCount); err != nil {
			return nil, err
		}
		s.CreatedAt = s.CreatedAt.UTC()
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r repository) DeleteCategory(ctx context.Context, id int64) error {
	return r.execOne(ctx, `DELETE FROM categories WHERE id = ?`, id)
}

func (r repository) CreateProduct(ctx context.Context, product *models.Product) error {
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now()
	}
	return translate(r.queryRow(ctx, `
		INSERT INTO products (name, description, price, stock, active, created_at, category_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`, product.Name, product.Description, product.Price, product.Stock, product.Active, product.CreatedAt, product.CategoryID).
		Scan(&product.ID))
}

const productColumns = `
	p.id, p.name, p.description, p.price, p.stock, p.active, p.created_at, p.category_id,
	c.id, c.name, c.description, c.created_at`

func scanProduct(row scanner) (models.Product, error) {
	var (
		p models.Product
		c models.Category
	)
	if err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.Active, &p.CreatedAt, &p.CategoryID,
		&c.ID, &c.Name, &c.Description, &c.CreatedAt,
	); err != nil {
		return models.Product{}, err
	}
	p.CreatedAt = p.CreatedAt.UTC()
	c.CreatedAt = c.CreatedAt.UTC()
	p.Category = &c
	return p, nil
}

func (r repository) FindProduct(ctx context.Context, id int64) (*models.Product, error) {
	p, err := scanProduct(r.queryRow(ctx, `
		SELECT `+productColumns+`
		FROM products p
		JOIN categories c ON c.id = p.category_id
		WHERE p.id = ?
	`, id))
	if err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r repository) ListProducts(ctx context.Context, filter storage.ProductFilter) ([]models.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products p
		JOIN categories c ON c.id = p.category_id
		WHERE 1 = 1`
	args := []any{}
	if filter.CategoryID != 0 {
		query += ` AND p.category_id = ?`
		args = append(args, filter.CategoryID)
	}
	if filter.ActiveOnly {
		query += ` AND p.active = ?`
		args = append(args, true)
	}
	query += ` ORDER BY c.name, p.name, p.id`

	rows, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]models.Product, 0, 32)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// UpdateProduct writes the descriptive columns. Stock only moves through the Tx stock methods.
func (r repository) UpdateProduct(ctx context.Context, product *models.Product) error {
	return r.execOne(ctx, `
		UPDATE products
		SET name = ?, description = ?, price = ?, active = ?, category_id = ?
		WHERE id = ?
	`, product.Name, product.Description, product.Price, product.Active, product.CategoryID, product.ID)
}

func (r repository) DeleteProduct(ctx context.Context, id int64) error {
	return r.execOne(ctx, `DELETE FROM products WHERE id = ?`, id)
}

func (r repository) ListStockMovements(ctx context.Context, productID int64) ([]models.StockMovement, error) {
	rows, err := r.query(ctx, `
		SELECT id, product_id, order_id, delta, reason, stock_after, created_at
		FROM stock_movements
		WHERE product_id = ?
		ORDER BY id
	`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	movements := make([]models.StockMovement, 0, 16)
	for rows.Next() {
		var m models.StockMovement
		if err := rows.Scan(&m.ID, &m.ProductID, &m.OrderID, &m.Delta, &m.Reason, &m.StockAfter, &m.CreatedAt); err != nil {
			return nil, err
		}
		m.CreatedAt = m.CreatedAt.UTC()
		movements = append(movements, m)
	}
	return movements, rows.Err()
}
