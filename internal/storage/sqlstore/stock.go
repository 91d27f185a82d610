package sqlstore

import (
	"context"

	"github.com/gastaldl/lojaflow/internal/storage"
	"github.com/gastaldl/lojaflow/pkg/db/models"
)

func (r *txRepository) LockProduct(ctx context.Context, id int64) (*models.Product, error) {
	var p models.Product
	err := r.queryRow(ctx, r.forUpdate(`
		SELECT id, name, description, price, stock, active, created_at, category_id
		FROM products
		WHERE id = ?`), id).
		Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.Active, &p.CreatedAt, &p.CategoryID)
	if err != nil {
		return nil, translate(err)
	}
	p.CreatedAt = p.CreatedAt.UTC()
	return &p, nil
}

// AdjustStock guards the floor in the UPDATE itself so concurrent debits cannot overdraw.
func (r *txRepository) AdjustStock(ctx context.Context, productID int64, delta int) (int, error) {
	res, err := r.exec(ctx, `
		UPDATE products
		SET stock = stock + ?
		WHERE id = ? AND stock + ? >= 0
	`, delta, productID, delta)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	var current int
	if err := r.queryRow(ctx, `SELECT stock FROM products WHERE id = ?`, productID).Scan(&current); err != nil {
		return 0, translate(err)
	}
	if n == 0 {
		return 0, &storage.InsufficientStockError{ProductID: productID, Available: current, Delta: delta}
	}
	return current, nil
}

func (r *txRepository) SetStock(ctx context.Context, productID int64, stock int) error {
	return r.execOne(ctx, `UPDATE products SET stock = ? WHERE id = ?`, stock, productID)
}

func (r *txRepository) RecordStockMovement(ctx context.Context, m *models.StockMovement) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now()
	}
	return translate(r.queryRow(ctx, `
		INSERT INTO stock_movements (product_id, order_id, delta, reason, stock_after, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id
	`, m.ProductID, m.OrderID, m.Delta, string(m.Reason), m.StockAfter, m.CreatedAt).Scan(&m.ID))
}
