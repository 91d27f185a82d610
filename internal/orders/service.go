// Package orders owns the order lifecycle: creation, line items, status changes,
// cancellation and returns, with stock kept consistent in the same transaction.
package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gastaldl/lojaflow/internal/inventory"
	"github.com/gastaldl/lojaflow/internal/storage"
	"github.com/gastaldl/lojaflow/pkg/db"
	"github.com/gastaldl/lojaflow/pkg/db/models"
	"github.com/gastaldl/lojaflow/pkg/enums"
	pkgerrors "github.com/gastaldl/lojaflow/pkg/errors"
	"github.com/gastaldl/lojaflow/pkg/logger"
	"github.com/gastaldl/lojaflow/pkg/metrics"
)

const auditTimeLayout = "2006-01-02 15:04 MST"

// DefaultPurgeRetention keeps cancelled orders for about six months.
const DefaultPurgeRetention = 4320 * time.Hour

// Service defines the order lifecycle operations.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Order, error)
	AppendItem(ctx context.Context, orderID int64, item ItemInput) (*models.Order, error)
	UpdateStatus(ctx context.Context, orderID int64, next enums.OrderStatus) (*models.Order, error)
	Cancel(ctx context.Context, orderID int64) (*models.Order, error)
	Return(ctx context.Context, orderNumber string) (*models.Order, error)
	Get(ctx context.Context, orderID int64) (*models.Order, error)
	GetByNumber(ctx context.Context, orderNumber string) (*models.Order, error)
	List(ctx context.Context, filter Filter) ([]models.Order, error)
	PurgeCancelled(ctx context.Context, olderThan time.Duration) (*PurgeResult, error)
}

// ServiceParams wires the service dependencies. Clock, AuditLocation and
// PurgeRetention are optional.
type ServiceParams struct {
	Store          storage.Store
	Ledger         *inventory.Ledger
	Numbers        NumberGenerator
	Logger         *logger.Logger
	Metrics        *metrics.OrderMetrics
	Clock          func() time.Time
	AuditLocation  *time.Location
	PurgeRetention time.Duration
}

type service struct {
	store     storage.Store
	ledger    *inventory.Ledger
	numbers   NumberGenerator
	logg      *logger.Logger
	metrics   *metrics.OrderMetrics
	now       func() time.Time
	auditLoc  *time.Location
	retention time.Duration
}

// NewService builds the order service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("order store required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("inventory ledger required")
	}
	if params.Numbers == nil {
		return nil, fmt.Errorf("order number generator required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	svc := &service{
		store:     params.Store,
		ledger:    params.Ledger,
		numbers:   params.Numbers,
		logg:      params.Logger,
		metrics:   params.Metrics,
		now:       params.Clock,
		auditLoc:  params.AuditLocation,
		retention: params.PurgeRetention,
	}
	if svc.now == nil {
		svc.now = time.Now
	}
	if svc.auditLoc == nil {
		svc.auditLoc = time.UTC
	}
	if svc.retention <= 0 {
		svc.retention = DefaultPurgeRetention
	}
	return svc, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Order, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	var order *models.Order
	err := s.track(ctx, "create", func() error {
		return s.store.WithTx(ctx, func(tx storage.Tx) error {
			customer, err := s.resolveCustomer(ctx, tx, input)
			if err != nil {
				return err
			}

			now := s.now().UTC()
			order = &models.Order{
				OrderNumber: s.numbers.Next(now),
				OrderDate:   now,
				Status:      enums.OrderStatusConfirmed,
				Total:       decimal.Zero,
				Discount:    input.Discount,
				Notes:       input.Notes,
				CustomerID:  customer.ID,
			}
			if err := tx.CreateOrder(ctx, order); err != nil {
				return storage.Typed(err, "order")
			}

			for _, item := range input.Items {
				if err := s.appendItem(ctx, tx, order, item); err != nil {
					return err
				}
			}

			if order.Discount.GreaterThan(order.Total) {
				return pkgerrors.New(pkgerrors.CodeValidation, "discount exceeds order total").WithDetails(map[string]any{
					"discount": order.Discount.StringFixed(2),
					"total":    order.Total.StringFixed(2),
				})
			}
			return s.saveTotal(ctx, tx, order)
		})
	})
	if err != nil {
		return nil, err
	}

	ctx = s.logg.WithOrderNumber(ctx, order.OrderNumber)
	ctx = s.logg.WithFields(ctx, map[string]any{
		"order_id": order.ID,
		"items":    len(order.Items),
		"total":    order.Total.StringFixed(2),
	})
	s.logg.Info(ctx, "order.created")
	return order, nil
}

func (s *service) AppendItem(ctx context.Context, orderID int64, item ItemInput) (*models.Order, error) {
	if err := item.validate(); err != nil {
		return nil, err
	}

	var order *models.Order
	err := s.track(ctx, "append_item", func() error {
		return s.store.WithTx(ctx, func(tx storage.Tx) error {
			locked, err := tx.LockOrder(ctx, orderID)
			if err != nil {
				return storage.Typed(err, "order")
			}
			if locked.Status != enums.OrderStatusPending && locked.Status != enums.OrderStatusConfirmed {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "items can only be added to pending or confirmed orders").
					WithDetails(map[string]any{"status": locked.Status.String()})
			}
			if err := s.appendItem(ctx, tx, locked, item); err != nil {
				return err
			}
			if err := s.saveTotal(ctx, tx, locked); err != nil {
				return err
			}
			order, err = tx.FindOrder(ctx, orderID)
			return storage.Typed(err, "order")
		})
	})
	if err != nil {
		return nil, err
	}

	ctx = s.logg.WithOrderNumber(ctx, order.OrderNumber)
	ctx = s.logg.WithFields(ctx, map[string]any{
		"product_id": item.ProductID,
		"quantity":   item.Quantity,
		"total":      order.Total.StringFixed(2),
	})
	s.logg.Info(ctx, "order.item_added")
	return order, nil
}

func (s *service) UpdateStatus(ctx context.Context, orderID int64, next enums.OrderStatus) (*models.Order, error) {
	if !next.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}
	if next == enums.OrderStatusCancelled {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidTransition, "use the cancel operation to cancel an order")
	}

	var (
		order    *models.Order
		previous enums.OrderStatus
	)
	err := s.track(ctx, "update_status", func() error {
		return s.store.WithTx(ctx, func(tx storage.Tx) error {
			locked, err := tx.LockOrder(ctx, orderID)
			if err != nil {
				return storage.Typed(err, "order")
			}
			previous = locked.Status
			if !locked.Status.CanTransitionTo(next) {
				return invalidTransition(locked.Status, next)
			}
			if err := tx.UpdateOrder(ctx, orderID, storage.OrderChanges{Status: &next}); err != nil {
				return storage.Typed(err, "order")
			}
			order, err = tx.FindOrder(ctx, orderID)
			return storage.Typed(err, "order")
		})
	})
	if err != nil {
		return nil, err
	}

	ctx = s.logg.WithOrderNumber(ctx, order.OrderNumber)
	ctx = s.logg.WithFields(ctx, map[string]any{"from": previous.String(), "to": next.String()})
	s.logg.Info(ctx, "order.status_changed")
	return order, nil
}

func (s *service) Cancel(ctx context.Context, orderID int64) (*models.Order, error) {
	var order *models.Order
	err := s.track(ctx, "cancel", func() error {
		return s.store.WithTx(ctx, func(tx storage.Tx) error {
			locked, err := tx.LockOrder(ctx, orderID)
			if err != nil {
				return storage.Typed(err, "order")
			}
			switch locked.Status {
			case enums.OrderStatusCancelled:
				return alreadyCancelled(locked)
			case enums.OrderStatusPending, enums.OrderStatusConfirmed:
			default:
				return invalidTransition(locked.Status, enums.OrderStatusCancelled).
					WithDetails(map[string]any{
						"from": locked.Status.String(),
						"to":   enums.OrderStatusCancelled.String(),
						"hint": "in-progress or delivered orders go through the return flow",
					})
			}
			order, err = s.restockAndCancel(ctx, tx, locked, enums.StockMovementReasonCancel, "Cancelled")
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	ctx = s.logg.WithOrderNumber(ctx, order.OrderNumber)
	s.logg.Info(ctx, "order.cancelled")
	return order, nil
}

func (s *service) Return(ctx context.Context, orderNumber string) (*models.Order, error) {
	if orderNumber == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order number required")
	}

	var order *models.Order
	err := s.track(ctx, "return", func() error {
		return s.store.WithTx(ctx, func(tx storage.Tx) error {
			locked, err := tx.LockOrderByNumber(ctx, orderNumber)
			if err != nil {
				return storage.Typed(err, "order")
			}
			if locked.Status == enums.OrderStatusCancelled {
				return alreadyCancelled(locked)
			}
			order, err = s.restockAndCancel(ctx, tx, locked, enums.StockMovementReasonReturn, "Returned")
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	ctx = s.logg.WithOrderNumber(ctx, order.OrderNumber)
	s.logg.Info(ctx, "order.returned")
	return order, nil
}

func (s *service) Get(ctx context.Context, orderID int64) (*models.Order, error) {
	order, err := s.store.FindOrder(ctx, orderID)
	if err != nil {
		return nil, storage.Typed(err, "order")
	}
	return order, nil
}

func (s *service) GetByNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	if orderNumber == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order number required")
	}
	order, err := s.store.FindOrderByNumber(ctx, orderNumber)
	if err != nil {
		return nil, storage.Typed(err, "order")
	}
	return order, nil
}

func (s *service) List(ctx context.Context, filter Filter) ([]models.Order, error) {
	if filter.Status != 0 && !filter.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}
	orders, err := s.store.ListOrders(ctx, storage.OrderFilter{CustomerID: filter.CustomerID, Status: filter.Status})
	if err != nil {
		return nil, storage.Typed(err, "orders")
	}
	return orders, nil
}

// PurgeCancelled deletes cancelled orders older than olderThan, or the configured
// retention when olderThan is zero. Stock is untouched.
func (s *service) PurgeCancelled(ctx context.Context, olderThan time.Duration) (*PurgeResult, error) {
	if olderThan < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "retention cannot be negative")
	}
	if olderThan == 0 {
		olderThan = s.retention
	}

	result := &PurgeResult{Cutoff: s.now().UTC().Add(-olderThan)}
	err := s.track(ctx, "purge", func() error {
		removed, err := s.store.DeleteOrdersBefore(ctx, enums.OrderStatusCancelled, result.Cutoff)
		if err != nil {
			return storage.Typed(err, "orders")
		}
		result.Removed = removed
		return nil
	})
	if err != nil {
		return nil, err
	}

	ctx = s.logg.WithFields(ctx, map[string]any{"removed": result.Removed, "cutoff": result.Cutoff})
	s.logg.Info(ctx, "order.purged")
	return result, nil
}

func (s *service) resolveCustomer(ctx context.Context, tx storage.Tx, input CreateInput) (*models.Customer, error) {
	var (
		customer *models.Customer
		err      error
	)
	if input.CustomerID > 0 {
		customer, err = tx.FindCustomer(ctx, input.CustomerID)
	} else {
		customer, err = tx.FindCustomerByEmail(ctx, input.CustomerEmail)
	}
	if err != nil {
		return nil, storage.Typed(err, "customer")
	}
	return customer, nil
}

// appendItem snapshots the current price, debits stock and grows the running total.
// The caller persists the total.
func (s *service) appendItem(ctx context.Context, tx storage.Tx, order *models.Order, in ItemInput) error {
	product, err := tx.LockProduct(ctx, in.ProductID)
	if err != nil {
		return storage.Typed(err, "product")
	}
	if !product.Active {
		return pkgerrors.New(pkgerrors.CodeValidation, "product is inactive").
			WithDetails(map[string]any{"product_id": product.ID})
	}

	item := models.OrderItem{
		OrderID:   order.ID,
		ProductID: product.ID,
		Quantity:  in.Quantity,
		UnitPrice: product.Price,
		Discount:  in.Discount,
	}
	if item.Subtotal().IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "line discount exceeds line value").
			WithDetails(map[string]any{"product_id": product.ID})
	}

	if _, err := s.ledger.Debit(ctx, tx, product.ID, in.Quantity, &order.ID); err != nil {
		return err
	}
	if err := tx.AddOrderItem(ctx, &item); err != nil {
		return storage.Typed(err, "order item")
	}

	order.Items = append(order.Items, item)
	order.Total = order.Total.Add(item.Subtotal())
	return nil
}

func (s *service) saveTotal(ctx context.Context, tx storage.Tx, order *models.Order) error {
	total := order.Total
	if err := tx.UpdateOrder(ctx, order.ID, storage.OrderChanges{Total: &total}); err != nil {
		return storage.Typed(err, "order")
	}
	return nil
}

// restockAndCancel credits every line item back and closes the order. The total is
// kept for audit.
func (s *service) restockAndCancel(ctx context.Context, tx storage.Tx, order *models.Order, reason enums.StockMovementReason, verb string) (*models.Order, error) {
	items, err := tx.ListOrderItems(ctx, order.ID)
	if err != nil {
		return nil, storage.Typed(err, "order items")
	}
	for _, item := range items {
		if _, err := s.ledger.Credit(ctx, tx, item.ProductID, item.Quantity, reason, &order.ID); err != nil {
			return nil, err
		}
	}

	status := enums.OrderStatusCancelled
	notes := appendAudit(order.Notes, verb, s.now().In(s.auditLoc))
	if err := tx.UpdateOrder(ctx, order.ID, storage.OrderChanges{Status: &status, Notes: &notes}); err != nil {
		return nil, storage.Typed(err, "order")
	}

	order.Status = status
	order.Notes = notes
	order.Items = items
	return order, nil
}

func appendAudit(notes, verb string, at time.Time) string {
	entry := fmt.Sprintf("%s at %s", verb, at.Format(auditTimeLayout))
	if notes == "" {
		return entry
	}
	return notes + " | " + entry
}

// track records duration and outcome, and logs rollback failures loudly.
func (s *service) track(ctx context.Context, operation string, fn func() error) error {
	started := time.Now()
	err := fn()
	s.metrics.ObserveDuration(operation, time.Since(started))
	if err == nil {
		s.metrics.IncSuccess(operation)
		return nil
	}

	code := pkgerrors.CodeInternal
	if typed := pkgerrors.As(err); typed != nil {
		code = typed.Code()
	}
	s.metrics.IncFailure(operation, string(code))
	if db.IsRollbackFailure(err) {
		logCtx := s.logg.WithField(ctx, "operation", operation)
		if details, ok := pkgerrors.As(err).Details().(map[string]any); ok {
			logCtx = s.logg.WithFields(logCtx, details)
		}
		s.logg.Error(logCtx, "order.rollback_failed", err)
	}
	return err
}

func invalidTransition(from, to enums.OrderStatus) *pkgerrors.Error {
	allowed := make([]string, 0, 2)
	for _, next := range from.AllowedTransitions() {
		allowed = append(allowed, next.String())
	}
	return pkgerrors.New(pkgerrors.CodeInvalidTransition, fmt.Sprintf("cannot move order from %s to %s", from, to)).
		WithDetails(map[string]any{"from": from.String(), "to": to.String(), "allowed": allowed})
}

func alreadyCancelled(order *models.Order) error {
	return pkgerrors.New(pkgerrors.CodeAlreadyCancelled, "order already cancelled").
		WithDetails(map[string]any{"order_number": order.OrderNumber})
}
