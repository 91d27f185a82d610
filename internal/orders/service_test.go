package orders

import (
	"bytes"
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gastaldl/lojaflow/internal/inventory"
	"github.com/gastaldl/lojaflow/internal/storage"
	"github.com/gastaldl/lojaflow/internal/storage/gormstore"
	"github.com/gastaldl/lojaflow/internal/storage/sqlstore"
	"github.com/gastaldl/lojaflow/internal/storage/storagetest"
	"github.com/gastaldl/lojaflow/pkg/db"
	"github.com/gastaldl/lojaflow/pkg/db/models"
	"github.com/gastaldl/lojaflow/pkg/enums"
	pkgerrors "github.com/gastaldl/lojaflow/pkg/errors"
	"github.com/gastaldl/lojaflow/pkg/logger"
	"github.com/gastaldl/lojaflow/pkg/metrics"
)

var adapters = map[string]func(t *testing.T) storage.Store{
	"gorm": func(t *testing.T) storage.Store {
		store, err := gormstore.New(storagetest.NewSQLiteClient(t))
		require.NoError(t, err)
		return store
	},
	"sql": func(t *testing.T) storage.Store {
		client := storagetest.NewSQLiteClient(t)
		sqlDB, err := client.SQL()
		require.NoError(t, err)
		store, err := sqlstore.New(sqlDB, client.Dialect())
		require.NoError(t, err)
		return store
	},
}

type harness struct {
	svc     Service
	store   storage.Store
	fixture storagetest.Fixture
	now     time.Time
	logs    *bytes.Buffer
	reg     *prometheus.Registry
}

func newHarness(t *testing.T, newStore func(t *testing.T) storage.Store) *harness {
	t.Helper()
	h := &harness{
		store: newStore(t),
		now:   time.Date(2025, 3, 1, 14, 5, 0, 0, time.UTC),
		logs:  &bytes.Buffer{},
		reg:   prometheus.NewRegistry(),
	}
	h.fixture = storagetest.Seed(t, h.store)

	numbers, err := NewSnowflakeNumbers(1)
	require.NoError(t, err)
	m := metrics.NewOrderMetrics(h.reg)
	svc, err := NewService(ServiceParams{
		Store:         h.store,
		Ledger:        inventory.NewLedger(m),
		Numbers:       numbers,
		Logger:        logger.New(logger.Options{ServiceName: "orders-test", Output: h.logs}),
		Metrics:       m,
		Clock:         func() time.Time { return h.now },
		AuditLocation: time.FixedZone("BRT", -3*3600),
	})
	require.NoError(t, err)
	h.svc = svc
	return h
}

func forEachAdapter(t *testing.T, fn func(t *testing.T, h *harness)) {
	for name, newStore := range adapters {
		t.Run(name, func(t *testing.T) {
			fn(t, newHarness(t, newStore))
		})
	}
}

func requireCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed, "expected typed error, got %v", err)
	require.Equal(t, code, typed.Code(), "unexpected error: %v", err)
}

func (h *harness) createPhoneAndCase(t *testing.T) *models.Order {
	t.Helper()
	order, err := h.svc.Create(context.Background(), CreateInput{
		CustomerID: h.fixture.Customer.ID,
		Notes:      "first order",
		Items: []ItemInput{
			{ProductID: h.fixture.Phone.ID, Quantity: 1},
			{ProductID: h.fixture.Case.ID, Quantity: 1},
		},
	})
	require.NoError(t, err)
	return order
}

func TestCreateComputesTotalAndDebitsStock(t *testing.T) {
	forEachAdapter(t, func(t *testing.T, h *harness) {
		ctx := context.Background()
		order := h.createPhoneAndCase(t)

		assert.Regexp(t, regexp.MustCompile(`^PED-20250301-\d+$`), order.OrderNumber)
		assert.Equal(t, enums.OrderStatusConfirmed, order.Status)
		assert.True(t, order.Total.Equal(decimal.RequireFromString("259.80")), "got %s", order.Total)
		assert.True(t, order.NetTotal().Equal(decimal.RequireFromString("259.80")))

		stored, err := h.svc.Get(ctx, order.ID)
		require.NoError(t, err)
		assert.True(t, stored.Total.Equal(decimal.RequireFromString("259.80")))
		require.Len(t, stored.Items, 2)
		assert.True(t, stored.Items[0].UnitPrice.Equal(decimal.RequireFromString("199.90")))

		assert.Equal(t, 9, storagetest.Stock(t, h.store, h.fixture.Phone.ID))
		assert.Equal(t, 4, storagetest.Stock(t, h.store, h.fixture.Case.ID))

		movements, err := h.store.ListStockMovements(ctx, h.fixture.Phone.ID)
		require.NoError(t, err)
		require.Len(t, movements, 1)
		require.NotNil(t, movements[0].OrderID)
		assert.Equal(t, order.ID, *movements[0].OrderID)

		byNumber, err := h.svc.GetByNumber(ctx, order.OrderNumber)
		require.NoError(t, err)
		assert.Equal(t, order.ID, byNumber.ID)

		assert.Contains(t, h.logs.String(), "order.created")
	})
}

func TestUnitPriceIsFrozenAtSale(t *testing.T) {
	forEachAdapter(t, func(t *testing.T, h *harness) {
		ctx := context.Background()
		order := h.createPhoneAndCase(t)

		phone, err := h.store.FindProduct(ctx, h.fixture.Phone.ID)
		require.NoError(t, err)
		phone.Price = decimal.RequireFromString("249.90")
		require.NoError(t, h.store.UpdateProduct(ctx, phone))

		stored, err := h.svc.Get(ctx, order.ID)
		require.NoError(t, err)
		assert.True(t, stored.Items[0].UnitPrice.Equal(decimal.RequireFromString("199.90")))
		assert.True(t, stored.Total.Equal(decimal.RequireFromString("259.80")))
	})
}

func TestCreateFailureLeavesNoTrace(t *testing.T) {
	forEachAdapter(t, func(t *testing.T, h *harness) {
		ctx := context.Background()
		_, err := h.svc.Create(ctx, CreateInput{
			CustomerID: h.fixture.Customer.ID,
			Items: []ItemInput{
				{ProductID: h.fixture.Phone.ID, Quantity: 2},
				{ProductID: h.fixture.Case.ID, Quantity: 6},
			},
		})
		requireCode(t, err, pkgerrors.CodeInsufficientStock)

		assert.Equal(t, 10, storagetest.Stock(t, h.store, h.fixture.Phone.ID))
		assert.Equal(t, 5, storagetest.Stock(t, h.store, h.fixture.Case.ID))
		orders, err := h.svc.List(ctx, Filter{})
		require.NoError(t, err)
		assert.Empty(t, orders)
		movements, err := h.store.ListStockMovements(ctx, h.fixture.Phone.ID)
		require.NoError(t, err)
		assert.Empty(t, movements)
	})
}

func TestCreateValidatesDiscountAgainstTotal(t *testing.T) {
	forEachAdapter(t, func(t *testing.T, h *harness) {
		ctx := context.Background()
		_, err := h.svc.Create(ctx, CreateInput{
			CustomerID: h.fixture.Customer.ID,
			Discount:   decimal.RequireFromString("100.00"),
			Items:      []ItemInput{{ProductID: h.fixture.Case.ID, Quantity: 1}},
		})
		requireCode(t, err, pkgerrors.CodeValidation)
		assert.Equal(t, 5, storagetest.Stock(t, h.store, h.fixture.Case.ID))

		order, err := h.svc.Create(ctx, CreateInput{
			CustomerEmail: "  ANA@example.com ",
			Discount:      decimal.RequireFromString("9.90"),
			Items:         []ItemInput{{ProductID: h.fixture.Case.ID, Quantity: 1}},
		})
		require.NoError(t, err)
		assert.Equal(t, h.fixture.Customer.ID, order.CustomerID)
		assert.True(t, order.NetTotal().Equal(decimal.RequireFromString("50.00")))
	})
}

func TestCreateRejectsBadInput(t *testing.T) {
	forEachAdapter(t, func(t *testing.T, h *harness) {
		ctx := context.Background()

		_, err := h.svc.Create(ctx, CreateInput{})
		requireCode(t, err, pkgerrors.CodeValidation)

		_, err = h.svc.Create(ctx, CreateInput{CustomerID: h.fixture.Customer.ID, Items: []ItemInput{{ProductID: h.fixture.Case.ID, Quantity: 0}}})
		requireCode(t, err, pkgerrors.CodeValidation)

		_, err = h.svc.Create(ctx, CreateInput{CustomerID: h.fixture.Customer.ID, Discount: decimal.NewFromInt(-1)})
		requireCode(t, err, pkgerrors.CodeValidation)

		_, err = h.svc.Create(ctx, CreateInput{CustomerID: 9999})
		requireCode(t, err, pkgerrors.CodeNotFound)

		_, err = h.svc.Create(ctx, CreateInput{CustomerEmail: "ghost@example.com"})
		requireCode(t, err, pkgerrors.CodeNotFound)

		_, err = h.svc.Create(ctx, CreateInput{CustomerID: h.fixture.Customer.ID, Items: []ItemInput{{ProductID: 9999, Quantity: 1}}})
		requireCode(t, err, pkgerrors.CodeNotFound)

		_, err = h.svc.Create(ctx, CreateInput{CustomerID: h.fixture.Customer.ID, Items: []ItemInput{
			{ProductID: h.fixture.Case.ID, Quantity: 1, Discount: decimal.RequireFromString("60.00")},
		}})
		requireCode(t, err, pkgerrors.CodeValidation)

		caseProduct, err := h.store.FindProduct(ctx, h.fixture.Case.ID)
		require.NoError(t, err)
		caseProduct.Active = false
		require.NoError(t, h.store.UpdateProduct(ctx, caseProduct))
		_, err = h.svc.Create(ctx, CreateInput{CustomerID: h.fixture.Customer.ID, Items: []ItemInput{{ProductID: h.fixture.Case.ID, Quantity: 1}}})
		requireCode(t, err, pkgerrors.CodeValidation)

		assert.Equal(t, 5, storagetest.Stock(t, h.store, h.fixture.Case.ID))
		orders, err := h.svc.List(ctx, Filter{})
		require.NoError(t, err)
		assert.Empty(t, orders)
	})
}

func TestAppendItemInsufficientStockHasNoPartialEffect(t *testing.T) {
	forEachAdapter(t, func(t *testing.T, h *harness) {
		ctx := context.Background()
		order := h.createPhoneAndCase(t)

		_, err := h.svc.AppendItem(ctx, order.ID, ItemInput{ProductID: h.fixture.Case.ID, Quantity: 5})
		requireCode(t, err, pkgerrors.CodeInsufficientStock)

		stored, err := h.svc.Get(ctx, order.ID)
		require.NoError(t, err)
		assert.Len(t, stored.Items, 2)
		assert.True(t, stored.Total.Equal(decimal.RequireFromString("259.80")))
		assert.Equal(t, 4, storagetest.Stock(t, h.store, h.fixture.Case.ID))

		updated, err := h.svc.AppendItem(ctx, order.ID, ItemInput{ProductID: h.fixture.Case.ID, Quantity: 4})
		require.NoError(t, err)
		assert.Len(t, updated.Items, 3)
		assert.True(t, updated.Total.Equal(decimal.RequireFromString("499.40")), "got %s", updated.Total)
		assert.Equal(t, 0, storagetest.Stock(t, h.store, h.fixture.Case.ID))
	})
}

func TestAppendItemRequiresOpenOrder(t *testing.T) {
	forEachAdapter(t, func(t *testing.T, h *harness) {
		ctx := context.Background()
		order := h.createPhoneAndCase(t)

		_, err := h.svc.UpdateStatus(ctx, order.ID, enums.OrderStatusInProgress)
		require.NoError(t, err)

		_, err = h.svc.AppendItem(ctx, order.ID, ItemInput{ProductID: h.fixture.Case.ID, Quantity: 1})
		requireCode(t, err, pkgerrors.CodeStateConflict)

		_, err = h.svc.AppendItem(ctx, 9999, ItemInput{ProductID: h.fixture.Case.ID, Quantity: 1})
		requireCode(t, err, pkgerrors.CodeNotFound)

		_, err = h.svc.AppendItem(ctx, order.ID, ItemInput{ProductID: h.fixture.Case.ID, Quantity: -1})
		requireCode(t, err, pkgerrors.CodeValidation)
	})
}

func TestCancelRestoresStockOnceAndKeepsTotal(t *testing.T) {
	forEachAdapter(t, func(t *testing.T, h *harness) {
		ctx := context.Background()
		order := h.createPhoneAndCase(t)

		cancelled, err := h.svc.Cancel(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, enums.OrderStatusCancelled, cancelled.Status)
		assert.Equal(t, "first order | Cancelled at 2025-03-01 11:05 BRT", cancelled.Notes)

		assert.Equal(t, 10, storagetest.Stock(t, h.store, h.fixture.Phone.ID))
		assert.Equal(t, 5, storagetest.Stock(t, h.store, h.fixture.Case.ID))

		stored, err := h.svc.Get(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, enums.OrderStatusCancelled, stored.Status)
		assert.True(t, stored.Total.Equal(decimal.RequireFromString("259.80")), "total kept for audit")
		assert.Equal(t, cancelled.Notes, stored.Notes)

		_, err = h.svc.Cancel(ctx, order.ID)
		requireCode(t, err, pkgerrors.CodeAlreadyCancelled)
		assert.Equal(t, 10, storagetest.Stock(t, h.store, h.fixture.Phone.ID))
		assert.Equal(t, 5, storagetest.Stock(t, h.store, h.fixture.Case.ID))

		movements, err := h.store.ListStockMovements(ctx, h.fixture.Phone.ID)
		require.NoError(t, err)
		require.Len(t, movements, 2)
		assert.Equal(t, enums.StockMovementReasonCancel, movements[1].Reason)

		_, err = h.svc.Cancel(ctx, 9999)
		requireCode(t, err, pkgerrors.CodeNotFound)
		assert.Contains(t, h.logs.String(), "order.cancelled")
	})
}

func TestCancelRejectsInProgressOrders(t *testing.T) {
	forEachAdapter(t, func(t *testing.T, h *harness) {
		ctx := context.Background()
		order := h.createPhoneAndCase(t)
		_, err := h.svc.UpdateStatus(ctx, order.ID, enums.OrderStatusInProgress)
		require.NoError(t, err)

		_, err = h.svc.Cancel(ctx, order.ID)
		requireCode(t, err, pkgerrors.CodeInvalidTransition)
		assert.Equal(t, 9, storagetest.Stock(t, h.store, h.fixture.Phone.ID))
	})
}

func TestReturnAfterDelivery(t *testing.T) {
	forEachAdapter(t, func(t *testing.T, h *harness) {
		ctx := context.Background()
		order := h.createPhoneAndCase(t)
		for _, next := range []enums.OrderStatus{enums.OrderStatusInProgress, enums.OrderStatusDelivered} {
			_, err := h.svc.UpdateStatus(ctx, order.ID, next)
			require.NoError(t, err)
		}

		returned, err := h.svc.Return(ctx, order.OrderNumber)
		require.NoError(t, err)
		assert.Equal(t, enums.OrderStatusCancelled, returned.Status)
		assert.Equal(t, "first order | Returned at 2025-03-01 11:05 BRT", returned.Notes)
		assert.Equal(t, 10, storagetest.Stock(t, h.store, h.fixture.Phone.ID))
		assert.Equal(t, 5, storagetest.Stock(t, h.store, h.fixture.Case.ID))

		_, err = h.svc.Return(ctx, order.OrderNumber)
		requireCode(t, err, pkgerrors.CodeAlreadyCancelled)
		assert.Equal(t, 10, storagetest.Stock(t, h.store, h.fixture.Phone.ID))

		_, err = h.svc.Return(ctx, "PED-00000000-1")
		requireCode(t, err, pkgerrors.CodeNotFound)

		_, err = h.svc.Return(ctx, "")
		requireCode(t, err, pkgerrors.CodeValidation)
	})
}

func TestUpdateStatusFollowsTransitionTable(t *testing.T) {
	forEachAdapter(t, func(t *testing.T, h *harness) {
		ctx := context.Background()
		order := h.createPhoneAndCase(t)

		_, err := h.svc.UpdateStatus(ctx, order.ID, enums.OrderStatusDelivered)
		requireCode(t, err, pkgerrors.CodeInvalidTransition)

		_, err = h.svc.UpdateStatus(ctx, order.ID, enums.OrderStatusCancelled)
		requireCode(t, err, pkgerrors.CodeInvalidTransition)

		_, err = h.svc.UpdateStatus(ctx, order.ID, enums.OrderStatus(42))
		requireCode(t, err, pkgerrors.CodeValidation)

		updated, err := h.svc.UpdateStatus(ctx, order.ID, enums.OrderStatusInProgress)
		require.NoError(t, err)
		assert.Equal(t, enums.OrderStatusInProgress, updated.Status)

		updated, err = h.svc.UpdateStatus(ctx, order.ID, enums.OrderStatusDelivered)
		require.NoError(t, err)
		assert.Equal(t, enums.OrderStatusDelivered, updated.Status)

		for _, next := range []enums.OrderStatus{enums.OrderStatusPending, enums.OrderStatusConfirmed, enums.OrderStatusInProgress} {
			_, err = h.svc.UpdateStatus(ctx, order.ID, next)
			requireCode(t, err, pkgerrors.CodeInvalidTransition)
		}
		assert.Equal(t, 9, storagetest.Stock(t, h.store, h.fixture.Phone.ID), "status changes never touch stock")

		pending := models.Order{
			OrderNumber: "PED-20250301-pending",
			OrderDate:   h.now,
			Status:      enums.OrderStatusPending,
			CustomerID:  h.fixture.Customer.ID,
		}
		require.NoError(t, h.store.WithTx(ctx, func(tx storage.Tx) error { return tx.CreateOrder(ctx, &pending) }))
		_, err = h.svc.UpdateStatus(ctx, pending.ID, enums.OrderStatusInProgress)
		requireCode(t, err, pkgerrors.CodeInvalidTransition)
		_, err = h.svc.UpdateStatus(ctx, pending.ID, enums.OrderStatusConfirmed)
		require.NoError(t, err)
		assert.Contains(t, h.logs.String(), "order.status_changed")
	})
}

func TestListFilters(t *testing.T) {
	forEachAdapter(t, func(t *testing.T, h *harness) {
		ctx := context.Background()
		first := h.createPhoneAndCase(t)
		h.now = h.now.Add(time.Hour)
		second := h.createPhoneAndCase(t)
		_, err := h.svc.Cancel(ctx, first.ID)
		require.NoError(t, err)

		all, err := h.svc.List(ctx, Filter{CustomerID: h.fixture.Customer.ID})
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, second.ID, all[0].ID)

		cancelled, err := h.svc.List(ctx, Filter{Status: enums.OrderStatusCancelled})
		require.NoError(t, err)
		require.Len(t, cancelled, 1)
		assert.Equal(t, first.ID, cancelled[0].ID)

		_, err = h.svc.List(ctx, Filter{Status: enums.OrderStatus(9)})
		requireCode(t, err, pkgerrors.CodeValidation)
	})
}

func TestPurgeCancelled(t *testing.T) {
	forEachAdapter(t, func(t *testing.T, h *harness) {
		ctx := context.Background()
		old := h.createPhoneAndCase(t)
		_, err := h.svc.Cancel(ctx, old.ID)
		require.NoError(t, err)
		kept := h.createPhoneAndCase(t)

		h.now = h.now.Add(DefaultPurgeRetention + 24*time.Hour)
		recent := h.createPhoneAndCase(t)
		_, err = h.svc.Cancel(ctx, recent.ID)
		require.NoError(t, err)

		result, err := h.svc.PurgeCancelled(ctx, 0)
		require.NoError(t, err)
		assert.EqualValues(t, 1, result.Removed)
		assert.Equal(t, h.now.Add(-DefaultPurgeRetention), result.Cutoff)

		_, err = h.svc.Get(ctx, old.ID)
		requireCode(t, err, pkgerrors.CodeNotFound)
		_, err = h.svc.Get(ctx, kept.ID)
		require.NoError(t, err)
		_, err = h.svc.Get(ctx, recent.ID)
		require.NoError(t, err)
		assert.Equal(t, 9, storagetest.Stock(t, h.store, h.fixture.Phone.ID), "purge never touches stock")

		_, err = h.svc.PurgeCancelled(ctx, -time.Hour)
		requireCode(t, err, pkgerrors.CodeValidation)
	})
}

func TestConcurrentOrdersForLastUnit(t *testing.T) {
	forEachAdapter(t, func(t *testing.T, h *harness) {
		ctx := context.Background()
		require.NoError(t, h.store.WithTx(ctx, func(tx storage.Tx) error {
			return tx.SetStock(ctx, h.fixture.Phone.ID, 1)
		}))

		var (
			wg       sync.WaitGroup
			mu       sync.Mutex
			ok       int
			rejected int
			other    []error
		)
		for i := 0; i < 2; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := h.svc.Create(ctx, CreateInput{
					CustomerID: h.fixture.Customer.ID,
					Items:      []ItemInput{{ProductID: h.fixture.Phone.ID, Quantity: 1}},
				})
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					ok++
				case pkgerrors.HasCode(err, pkgerrors.CodeInsufficientStock):
					rejected++
				default:
					other = append(other, err)
				}
			}()
		}
		wg.Wait()

		require.Empty(t, other)
		assert.Equal(t, 1, ok)
		assert.Equal(t, 1, rejected)
		assert.Equal(t, 0, storagetest.Stock(t, h.store, h.fixture.Phone.ID))
	})
}

func TestOperationsAreMetered(t *testing.T) {
	h := newHarness(t, adapters["gorm"])
	ctx := context.Background()
	order := h.createPhoneAndCase(t)
	_, err := h.svc.Cancel(ctx, order.ID)
	require.NoError(t, err)
	_, err = h.svc.Cancel(ctx, order.ID)
	require.Error(t, err)

	count, err := testutil.GatherAndCount(h.reg, "order_operation_success_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count, "create and cancel series")

	count, err = testutil.GatherAndCount(h.reg, "order_operation_failure_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

type rollbackFailingStore struct {
	storage.Store
}

func (rollbackFailingStore) WithTx(ctx context.Context, fn func(tx storage.Tx) error) error {
	return db.RollbackFailed(errors.New("write failed"), errors.New("connection reset"))
}

func TestRollbackFailureIsSurfacedAndLogged(t *testing.T) {
	h := newHarness(t, adapters["gorm"])
	numbers, err := NewSnowflakeNumbers(2)
	require.NoError(t, err)
	svc, err := NewService(ServiceParams{
		Store:   rollbackFailingStore{Store: h.store},
		Ledger:  inventory.NewLedger(nil),
		Numbers: numbers,
		Logger:  logger.New(logger.Options{Output: h.logs}),
	})
	require.NoError(t, err)

	_, err = svc.Cancel(context.Background(), 1)
	requireCode(t, err, pkgerrors.CodeConsistencyRisk)
	assert.True(t, db.IsRollbackFailure(err))
	assert.Contains(t, h.logs.String(), "order.rollback_failed")
	assert.Contains(t, h.logs.String(), "connection reset")
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	numbers, err := NewSnowflakeNumbers(1)
	require.NoError(t, err)
	logg := logger.New(logger.Options{Output: &bytes.Buffer{}})
	store := adapters["gorm"](t)

	cases := map[string]ServiceParams{
		"store":   {Ledger: inventory.NewLedger(nil), Numbers: numbers, Logger: logg},
		"ledger":  {Store: store, Numbers: numbers, Logger: logg},
		"numbers": {Store: store, Ledger: inventory.NewLedger(nil), Logger: logg},
		"logger":  {Store: store, Ledger: inventory.NewLedger(nil), Numbers: numbers},
	}
	for name, params := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewService(params)
			assert.Error(t, err)
		})
	}
}

func TestAppendAudit(t *testing.T) {
	at := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	assert.Equal(t, "Cancelled at 2025-03-01 09:30 UTC", appendAudit("", "Cancelled", at))
	assert.Equal(t, "gift | Returned at 2025-03-01 09:30 UTC", appendAudit("gift", "Returned", at))
}
