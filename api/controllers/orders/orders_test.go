package orders

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	internalorders "github.com/gastaldl/lojaflow/internal/orders"
	"github.com/gastaldl/lojaflow/pkg/db/models"
	"github.com/gastaldl/lojaflow/pkg/enums"
	pkgerrors "github.com/gastaldl/lojaflow/pkg/errors"
)

type stubOrdersService struct {
	create       func(ctx context.Context, input internalorders.CreateInput) (*models.Order, error)
	appendItem   func(ctx context.Context, orderID int64, item internalorders.ItemInput) (*models.Order, error)
	updateStatus func(ctx context.Context, orderID int64, next enums.OrderStatus) (*models.Order, error)
	cancel       func(ctx context.Context, orderID int64) (*models.Order, error)
	ret          func(ctx context.Context, orderNumber string) (*models.Order, error)
	get          func(ctx context.Context, orderID int64) (*models.Order, error)
	list         func(ctx context.Context, filter internalorders.Filter) ([]models.Order, error)
}

func (s *stubOrdersService) Create(ctx context.Context, input internalorders.CreateInput) (*models.Order, error) {
	return s.create(ctx, input)
}

func (s *stubOrdersService) AppendItem(ctx context.Context, orderID int64, item internalorders.ItemInput) (*models.Order, error) {
	return s.appendItem(ctx, orderID, item)
}

func (s *stubOrdersService) UpdateStatus(ctx context.Context, orderID int64, next enums.OrderStatus) (*models.Order, error) {
	return s.updateStatus(ctx, orderID, next)
}

func (s *stubOrdersService) Cancel(ctx context.Context, orderID int64) (*models.Order, error) {
	return s.cancel(ctx, orderID)
}

func (s *stubOrdersService) Return(ctx context.Context, orderNumber string) (*models.Order, error) {
	return s.ret(ctx, orderNumber)
}

func (s *stubOrdersService) Get(ctx context.Context, orderID int64) (*models.Order, error) {
	return s.get(ctx, orderID)
}

func (s *stubOrdersService) GetByNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	panic("not implemented")
}

func (s *stubOrdersService) List(ctx context.Context, filter internalorders.Filter) ([]models.Order, error) {
	return s.list(ctx, filter)
}

func (s *stubOrdersService) PurgeCancelled(ctx context.Context, olderThan time.Duration) (*internalorders.PurgeResult, error) {
	panic("not implemented")
}

func sampleOrder(status enums.OrderStatus) *models.Order {
	return &models.Order{
		ID:          7,
		OrderNumber: "PED-20250115-0001",
		OrderDate:   time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC),
		Status:      status,
		Total:       decimal.RequireFromString("199.90"),
		Discount:    decimal.RequireFromString("10"),
		CustomerID:  3,
		Items: []models.OrderItem{{
			ID:        1,
			OrderID:   7,
			ProductID: 11,
			Quantity:  1,
			UnitPrice: decimal.RequireFromString("199.90"),
			Discount:  decimal.Zero,
		}},
	}
}

func withOrderID(req *http.Request, id string) *http.Request {
	ctx := chi.NewRouteContext()
	ctx.URLParams.Add("orderId", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, ctx))
}

type orderEnvelope struct {
	Data internalorders.OrderDTO `json:"data"`
}

type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func TestCreateMapsPayload(t *testing.T) {
	svc := &stubOrdersService{
		create: func(ctx context.Context, input internalorders.CreateInput) (*models.Order, error) {
			if input.CustomerEmail != "ana@example.com" {
				t.Fatalf("unexpected customer email %q", input.CustomerEmail)
			}
			if !input.Discount.Equal(decimal.RequireFromString("10")) {
				t.Fatalf("unexpected discount %s", input.Discount)
			}
			if len(input.Items) != 1 || input.Items[0].ProductID != 11 || input.Items[0].Quantity != 1 {
				t.Fatalf("unexpected items %+v", input.Items)
			}
			return sampleOrder(enums.OrderStatusPending), nil
		},
	}

	body := `{"customer_email":"ana@example.com","discount":"10","items":[{"product_id":11,"quantity":1}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body))
	resp := httptest.NewRecorder()
	Create(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	var envelope orderEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Status != "pending" || envelope.Data.NetTotal != "189.90" {
		t.Fatalf("unexpected order payload %+v", envelope.Data)
	}
	if len(envelope.Data.Items) != 1 || envelope.Data.Items[0].Subtotal != "199.90" {
		t.Fatalf("unexpected items payload %+v", envelope.Data.Items)
	}
}

func TestCreateRejectsInvalidItem(t *testing.T) {
	svc := &stubOrdersService{
		create: func(ctx context.Context, input internalorders.CreateInput) (*models.Order, error) {
			t.Fatal("service must not be called")
			return nil, nil
		},
	}

	body := `{"customer_id":3,"items":[{"product_id":11,"quantity":0}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body))
	resp := httptest.NewRecorder()
	Create(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCreateSurfacesInsufficientStock(t *testing.T) {
	svc := &stubOrdersService{
		create: func(ctx context.Context, input internalorders.CreateInput) (*models.Order, error) {
			return nil, pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock")
		},
	}

	body := `{"customer_id":3,"items":[{"product_id":11,"quantity":99}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body))
	resp := httptest.NewRecorder()
	Create(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
	var envelope errorEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Error.Code != string(pkgerrors.CodeInsufficientStock) {
		t.Fatalf("unexpected error code %q", envelope.Error.Code)
	}
}

func TestListParsesFilters(t *testing.T) {
	svc := &stubOrdersService{
		list: func(ctx context.Context, filter internalorders.Filter) ([]models.Order, error) {
			if filter.CustomerID != 3 || filter.Status != enums.OrderStatusConfirmed {
				t.Fatalf("unexpected filter %+v", filter)
			}
			return []models.Order{*sampleOrder(enums.OrderStatusConfirmed)}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders?customer_id=3&status=confirmed", nil)
	resp := httptest.NewRecorder()
	List(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var envelope struct {
		Data []internalorders.OrderDTO `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data) != 1 || envelope.Data[0].OrderNumber != "PED-20250115-0001" {
		t.Fatalf("unexpected orders %+v", envelope.Data)
	}
}

func TestListRejectsUnknownStatus(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders?status=shipped", nil)
	resp := httptest.NewRecorder()
	List(&stubOrdersService{}, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestDetailNotFound(t *testing.T) {
	svc := &stubOrdersService{
		get: func(ctx context.Context, orderID int64) (*models.Order, error) {
			if orderID != 42 {
				t.Fatalf("unexpected order id %d", orderID)
			}
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		},
	}

	req := withOrderID(httptest.NewRequest(http.MethodGet, "/api/v1/orders/42", nil), "42")
	resp := httptest.NewRecorder()
	Detail(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestDetailRejectsBadID(t *testing.T) {
	req := withOrderID(httptest.NewRequest(http.MethodGet, "/api/v1/orders/abc", nil), "abc")
	resp := httptest.NewRecorder()
	Detail(&stubOrdersService{}, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestAppendItem(t *testing.T) {
	svc := &stubOrdersService{
		appendItem: func(ctx context.Context, orderID int64, item internalorders.ItemInput) (*models.Order, error) {
			if orderID != 7 || item.ProductID != 11 || item.Quantity != 2 {
				t.Fatalf("unexpected append %d %+v", orderID, item)
			}
			if !item.Discount.Equal(decimal.RequireFromString("5.50")) {
				t.Fatalf("unexpected line discount %s", item.Discount)
			}
			return sampleOrder(enums.OrderStatusPending), nil
		},
	}

	body := `{"product_id":11,"quantity":2,"discount":"5.50"}`
	req := withOrderID(httptest.NewRequest(http.MethodPost, "/api/v1/orders/7/items", strings.NewReader(body)), "7")
	resp := httptest.NewRecorder()
	AppendItem(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestUpdateStatusParsesName(t *testing.T) {
	svc := &stubOrdersService{
		updateStatus: func(ctx context.Context, orderID int64, next enums.OrderStatus) (*models.Order, error) {
			if next != enums.OrderStatusInProgress {
				t.Fatalf("unexpected status %s", next)
			}
			return sampleOrder(next), nil
		},
	}

	req := withOrderID(httptest.NewRequest(http.MethodPatch, "/api/v1/orders/7/status", strings.NewReader(`{"status":"in_progress"}`)), "7")
	resp := httptest.NewRecorder()
	UpdateStatus(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var envelope orderEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Status != "in_progress" {
		t.Fatalf("unexpected status %q", envelope.Data.Status)
	}
}

func TestUpdateStatusInvalidTransition(t *testing.T) {
	svc := &stubOrdersService{
		updateStatus: func(ctx context.Context, orderID int64, next enums.OrderStatus) (*models.Order, error) {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "invalid status transition")
		},
	}

	req := withOrderID(httptest.NewRequest(http.MethodPatch, "/api/v1/orders/7/status", strings.NewReader(`{"status":"delivered"}`)), "7")
	resp := httptest.NewRecorder()
	UpdateStatus(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
}

func TestCancelAlreadyCancelled(t *testing.T) {
	svc := &stubOrdersService{
		cancel: func(ctx context.Context, orderID int64) (*models.Order, error) {
			return nil, pkgerrors.New(pkgerrors.CodeAlreadyCancelled, "order already cancelled")
		},
	}

	req := withOrderID(httptest.NewRequest(http.MethodPost, "/api/v1/orders/7/cancel", nil), "7")
	resp := httptest.NewRecorder()
	Cancel(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
}

func TestReturnTrimsOrderNumber(t *testing.T) {
	svc := &stubOrdersService{
		ret: func(ctx context.Context, orderNumber string) (*models.Order, error) {
			if orderNumber != "PED-20250115-0001" {
				t.Fatalf("unexpected order number %q", orderNumber)
			}
			return sampleOrder(enums.OrderStatusCancelled), nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/returns", strings.NewReader(`{"order_number":"  PED-20250115-0001 "}`))
	resp := httptest.NewRecorder()
	Return(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestNilServiceIsInternalError(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	resp := httptest.NewRecorder()
	List(nil, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", resp.Code)
	}
}
