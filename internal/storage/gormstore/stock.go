package gormstore

import (
	"context"

	"gorm.io/gorm"

	"github.com/gastaldl/lojaflow/internal/storage"
	"github.com/gastaldl/lojaflow/pkg/db/models"
)

func (r *txRepository) LockProduct(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	if err := r.forUpdate(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &product, nil
}

// AdjustStock guards the floor in the UPDATE itself so concurrent debits cannot overdraw.
func (r *txRepository) AdjustStock(ctx context.Context, productID int64, delta int) (int, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND stock + ? >= 0", productID, delta).
		Update("stock", gorm.Expr("stock + ?", delta))
	if res.Error != nil {
		return 0, translate(res.Error)
	}

	current, err := r.currentStock(ctx, productID)
	if err != nil {
		return 0, err
	}
	if res.RowsAffected == 0 {
		return 0, &storage.InsufficientStockError{ProductID: productID, Available: current, Delta: delta}
	}
	return current, nil
}

func (r *txRepository) currentStock(ctx context.Context, productID int64) (int, error) {
	var stocks []int
	if err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", productID).
		Pluck("stock", &stocks).
		Error; err != nil {
		return 0, translate(err)
	}
	if len(stocks) == 0 {
		return 0, storage.ErrNotFound
	}
	return stocks[0], nil
}

func (r *txRepository) SetStock(ctx context.Context, productID int64, stock int) error {
	return affected(r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", productID).
		Update("stock", stock))
}

func (r *txRepository) RecordStockMovement(ctx context.Context, movement *models.StockMovement) error {
	return translate(r.db.WithContext(ctx).Create(movement).Error)
}
