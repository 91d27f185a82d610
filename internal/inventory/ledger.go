// Package inventory moves product stock inside a caller-owned transaction and records
// every movement.
package inventory

import (
	"context"
	"errors"

	"github.com/gastaldl/lojaflow/internal/storage"
	"github.com/gastaldl/lojaflow/pkg/db/models"
	"github.com/gastaldl/lojaflow/pkg/enums"
	pkgerrors "github.com/gastaldl/lojaflow/pkg/errors"
	"github.com/gastaldl/lojaflow/pkg/metrics"
)

// Ledger applies debits, credits and adjustments. It never opens a transaction of its own.
type Ledger struct {
	metrics *metrics.OrderMetrics
}

// NewLedger builds a ledger; a nil metrics recorder is allowed.
func NewLedger(m *metrics.OrderMetrics) *Ledger {
	return &Ledger{metrics: m}
}

// Debit removes qty units for a sale and returns the resulting stock.
func (l *Ledger) Debit(ctx context.Context, tx storage.Tx, productID int64, qty int, orderID *int64) (int, error) {
	if qty <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	after, err := l.move(ctx, tx, productID, -qty, enums.StockMovementReasonSale, orderID)
	if err != nil {
		return 0, err
	}
	l.metrics.AddStockUnits(metrics.StockDebit, qty)
	return after, nil
}

// Credit restores qty units for a cancellation or a return. There is no upper bound.
func (l *Ledger) Credit(ctx context.Context, tx storage.Tx, productID int64, qty int, reason enums.StockMovementReason, orderID *int64) (int, error) {
	if qty <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if reason != enums.StockMovementReasonCancel && reason != enums.StockMovementReasonReturn {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "credit reason must be cancel or return")
	}
	after, err := l.move(ctx, tx, productID, qty, reason, orderID)
	if err != nil {
		return 0, err
	}
	l.metrics.AddStockUnits(metrics.StockCredit, qty)
	return after, nil
}

// Set overwrites the stock of a locked product and records the difference as an adjustment.
func (l *Ledger) Set(ctx context.Context, tx storage.Tx, product *models.Product, stock int) error {
	if stock < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
	}
	delta := stock - product.Stock
	if delta == 0 {
		return nil
	}
	if err := tx.SetStock(ctx, product.ID, stock); err != nil {
		return translate(err, product.ID, delta)
	}
	if err := tx.RecordStockMovement(ctx, &models.StockMovement{
		ProductID:  product.ID,
		Delta:      delta,
		Reason:     enums.StockMovementReasonAdjustment,
		StockAfter: stock,
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record stock movement")
	}
	product.Stock = stock
	return nil
}

func (l *Ledger) move(ctx context.Context, tx storage.Tx, productID int64, delta int, reason enums.StockMovementReason, orderID *int64) (int, error) {
	after, err := tx.AdjustStock(ctx, productID, delta)
	if err != nil {
		return 0, translate(err, productID, delta)
	}
	if err := tx.RecordStockMovement(ctx, &models.StockMovement{
		ProductID:  productID,
		OrderID:    orderID,
		Delta:      delta,
		Reason:     reason,
		StockAfter: after,
	}); err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record stock movement")
	}
	return after, nil
}

func translate(err error, productID int64, delta int) error {
	var stockErr *storage.InsufficientStockError
	switch {
	case errors.As(err, &stockErr):
		return pkgerrors.Wrap(pkgerrors.CodeInsufficientStock, err, "insufficient stock").WithDetails(map[string]any{
			"product_id": productID,
			"available":  stockErr.Available,
			"requested":  -delta,
		})
	case errors.Is(err, storage.ErrInsufficientStock):
		return pkgerrors.Wrap(pkgerrors.CodeInsufficientStock, err, "insufficient stock").WithDetails(map[string]any{
			"product_id": productID,
			"requested":  -delta,
		})
	case errors.Is(err, storage.ErrNotFound):
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "product not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "adjust stock")
}
