package orders

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/gastaldl/lojaflow/api/responses"
	"github.com/gastaldl/lojaflow/api/validators"
	internalorders "github.com/gastaldl/lojaflow/internal/orders"
	"github.com/gastaldl/lojaflow/pkg/enums"
	pkgerrors "github.com/gastaldl/lojaflow/pkg/errors"
	"github.com/gastaldl/lojaflow/pkg/logger"
)

type itemRequest struct {
	ProductID int64           `json:"product_id" validate:"required,min=1"`
	Quantity  int             `json:"quantity" validate:"required,min=1"`
	Discount  decimal.Decimal `json:"discount"`
}

type createRequest struct {
	CustomerID    int64           `json:"customer_id,omitempty" validate:"omitempty,min=1"`
	CustomerEmail string          `json:"customer_email,omitempty" validate:"omitempty,email"`
	Discount      decimal.Decimal `json:"discount"`
	Notes         string          `json:"notes,omitempty" validate:"max=2000"`
	Items         []itemRequest   `json:"items" validate:"dive"`
}

type statusRequest struct {
	Status string `json:"status" validate:"required"`
}

type returnRequest struct {
	OrderNumber string `json:"order_number" validate:"required,max=64"`
}

func (in itemRequest) toInput() internalorders.ItemInput {
	return internalorders.ItemInput{ProductID: in.ProductID, Quantity: in.Quantity, Discount: in.Discount}
}

func unavailable() error {
	return pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable")
}

// Create opens an order and adds every requested item in one transaction.
func Create(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable())
			return
		}

		var payload createRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := internalorders.CreateInput{
			CustomerID:    payload.CustomerID,
			CustomerEmail: payload.CustomerEmail,
			Discount:      payload.Discount,
			Notes:         payload.Notes,
			Items:         make([]internalorders.ItemInput, 0, len(payload.Items)),
		}
		for _, item := range payload.Items {
			input.Items = append(input.Items, item.toInput())
		}

		order, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, internalorders.NewOrderDTO(order))
	}
}

// List supports ?customer_id= and ?status= filters.
func List(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable())
			return
		}

		customerID, err := validators.ParseQueryID(r, "customer_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter := internalorders.Filter{CustomerID: customerID}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := parseStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			filter.Status = status
		}

		list, err := svc.List(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, internalorders.NewOrderDTOs(list))
	}
}

func Detail(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable())
			return
		}
		orderID, err := validators.ParsePathID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.Get(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, internalorders.NewOrderDTO(order))
	}
}

// AppendItem adds one product line to an open order and returns the updated order.
func AppendItem(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable())
			return
		}
		orderID, err := validators.ParsePathID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload itemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.AppendItem(r.Context(), orderID, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, internalorders.NewOrderDTO(order))
	}
}

// UpdateStatus moves an order along its lifecycle. Cancellation has its own endpoint.
func UpdateStatus(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable())
			return
		}
		orderID, err := validators.ParsePathID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload statusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		next, err := parseStatus(payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.UpdateStatus(r.Context(), orderID, next)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, internalorders.NewOrderDTO(order))
	}
}

// Cancel restocks every item and marks the order cancelled.
func Cancel(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable())
			return
		}
		orderID, err := validators.ParsePathID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.Cancel(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, internalorders.NewOrderDTO(order))
	}
}

// Return processes a customer return identified by order number.
func Return(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable())
			return
		}

		var payload returnRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Return(r.Context(), strings.TrimSpace(payload.OrderNumber))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, internalorders.NewOrderDTO(order))
	}
}

func parseStatus(raw string) (enums.OrderStatus, error) {
	status, err := enums.ParseOrderStatus(raw)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order status").
			WithDetails(map[string]any{"status": raw})
	}
	return status, nil
}
