package gormstore

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/gastaldl/lojaflow/internal/storage"
	"github.com/gastaldl/lojaflow/pkg/db/models"
	"github.com/gastaldl/lojaflow/pkg/enums"
)

func itemsByID(db *gorm.DB) *gorm.DB {
	return db.Order("order_items.id")
}

func (r repository) FindOrder(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).Preload("Items", itemsByID).First(&order, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &order, nil
}

func (r repository) FindOrderByNumber(ctx context.Context, number string) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).Preload("Items", itemsByID).First(&order, "order_number = ?", number).Error; err != nil {
		return nil, translate(err)
	}
	return &order, nil
}

func (r repository) ListOrders(ctx context.Context, filter storage.OrderFilter) ([]models.Order, error) {
	q := r.db.WithContext(ctx).Model(&models.Order{}).Preload("Items", itemsByID)
	if filter.CustomerID != 0 {
		q = q.Where("customer_id = ?", filter.CustomerID)
	}
	if filter.Status != 0 {
		q = q.Where("status = ?", int(filter.Status))
	}

	var orders []models.Order
	if err := q.Order("order_date DESC, id DESC").Find(&orders).Error; err != nil {
		return nil, translate(err)
	}
	return orders, nil
}

func (r repository) ListOrderItems(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("id").
		Find(&items).
		Error
	return items, translate(err)
}

func (r repository) DeleteOrdersBefore(ctx context.Context, status enums.OrderStatus, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("status = ? AND order_date < ?", int(status), cutoff.UTC()).
		Delete(&models.Order{})
	if res.Error != nil {
		return 0, translate(res.Error)
	}
	return res.RowsAffected, nil
}

func (r *txRepository) CreateOrder(ctx context.Context, order *models.Order) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(order).Error)
}

func (r *txRepository) LockOrder(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	if err := r.forUpdate(ctx).First(&order, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &order, nil
}

func (r *txRepository) LockOrderByNumber(ctx context.Context, number string) (*models.Order, error) {
	var order models.Order
	if err := r.forUpdate(ctx).First(&order, "order_number = ?", number).Error; err != nil {
		return nil, translate(err)
	}
	return &order, nil
}

func (r *txRepository) AddOrderItem(ctx context.Context, item *models.OrderItem) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(item).Error)
}

func (r *txRepository) UpdateOrder(ctx context.Context, id int64, changes storage.OrderChanges) error {
	updates := map[string]any{}
	if changes.Status != nil {
		updates["status"] = int(*changes.Status)
	}
	if changes.Total != nil {
		updates["total"] = *changes.Total
	}
	if changes.Notes != nil {
		updates["notes"] = *changes.Notes
	}
	if len(updates) == 0 {
		return nil
	}
	return affected(r.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).Updates(updates))
}
