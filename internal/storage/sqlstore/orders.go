package sqlstore

import (
	"context"
	"strings"
	"time"

	"github.com/gastaldl/lojaflow/internal/storage"
	"github.com/gastaldl/lojaflow/pkg/db/models"
	"github.com/gastaldl/lojaflow/pkg/enums"
)

const orderColumns = `id, order_number, order_date, status, total, discount, notes, customer_id`

func scanOrder(row scanner) (models.Order, error) {
	var o models.Order
	if err := row.Scan(&o.ID, &o.OrderNumber, &o.OrderDate, &o.Status, &o.Total, &o.Discount, &o.Notes, &o.CustomerID); err != nil {
		return models.Order{}, err
	}
	o.OrderDate = o.OrderDate.UTC()
	return o, nil
}

func (r repository) findOrder(ctx context.Context, where string, arg any, lock bool) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE ` + where
	if lock {
		query = r.forUpdate(query)
	}
	o, err := scanOrder(r.queryRow(ctx, query, arg))
	if err != nil {
		return nil, translate(err)
	}
	return &o, nil
}

func (r repository) withItems(ctx context.Context, order *models.Order, err error) (*models.Order, error) {
	if err != nil {
		return nil, err
	}
	items, err := r.ListOrderItems(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	order.Items = items
	return order, nil
}

func (r repository) FindOrder(ctx context.Context, id int64) (*models.Order, error) {
	order, err := r.findOrder(ctx, "id = ?", id, false)
	return r.withItems(ctx, order, err)
}

func (r repository) FindOrderByNumber(ctx context.Context, number string) (*models.Order, error) {
	order, err := r.findOrder(ctx, "order_number = ?", number, false)
	return r.withItems(ctx, order, err)
}

func (r repository) ListOrders(ctx context.Context, filter storage.OrderFilter) ([]models.Order, error) {
	var (
		where []string
		args  []any
	)
	if filter.CustomerID != 0 {
		where = append(where, "customer_id = ?")
		args = append(args, filter.CustomerID)
	}
	if filter.Status != 0 {
		where = append(where, "status = ?")
		args = append(args, filter.Status)
	}
	query := `SELECT ` + orderColumns + ` FROM orders`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY order_date DESC, id DESC`

	rows, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	orders := make([]models.Order, 0, 32)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	// Items load after the cursor closes; a Tx holds a single connection.
	for i := range orders {
		items, err := r.ListOrderItems(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Items = items
	}
	return orders, nil
}

func (r repository) ListOrderItems(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	rows, err := r.query(ctx, `
		SELECT id, order_id, product_id, quantity, unit_price, discount
		FROM order_items
		WHERE order_id = ?
		ORDER BY id
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]models.OrderItem, 0, 8)
	for rows.Next() {
		var it models.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Quantity, &it.UnitPrice, &it.Discount); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r repository) DeleteOrdersBefore(ctx context.Context, status enums.OrderStatus, cutoff time.Time) (int64, error) {
	res, err := r.exec(ctx, `DELETE FROM orders WHERE status = ? AND order_date < ?`, status, cutoff.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *txRepository) CreateOrder(ctx context.Context, order *models.Order) error {
	return translate(r.queryRow(ctx, `
		INSERT INTO orders (order_number, order_date, status, total, discount, notes, customer_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`, order.OrderNumber, order.OrderDate.UTC(), order.Status, order.Total, order.Discount, order.Notes, order.CustomerID).
		Scan(&order.ID))
}

func (r *txRepository) LockOrder(ctx context.Context, id int64) (*models.Order, error) {
	return r.findOrder(ctx, "id = ?", id, true)
}

func (r *txRepository) LockOrderByNumber(ctx context.Context, number string) (*models.Order, error) {
	return r.findOrder(ctx, "order_number = ?", number, true)
}

func (r *txRepository) AddOrderItem(ctx context.Context, item *models.OrderItem) error {
	return translate(r.queryRow(ctx, `
		INSERT INTO order_items (order_id, product_id, quantity, unit_price, discount)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id
	`, item.OrderID, item.ProductID, item.Quantity, item.UnitPrice, item.Discount).Scan(&item.ID))
}

func (r *txRepository) UpdateOrder(ctx context.Context, id int64, changes storage.OrderChanges) error {
	var (
		sets []string
		args []any
	)
	if changes.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, *changes.Status)
	}
	if changes.Total != nil {
		sets = append(sets, "total = ?")
		args = append(args, *changes.Total)
	}
	if changes.Notes != nil {
		sets = append(sets, "notes = ?")
		args = append(args, *changes.Notes)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)
	return r.execOne(ctx, `UPDATE orders SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
}
