package controllers

import (
	"net/http"
	"strings"

	"github.com/gastaldl/lojaflow/api/responses"
	"github.com/gastaldl/lojaflow/api/validators"
	"github.com/gastaldl/lojaflow/internal/catalog"
	pkgerrors "github.com/gastaldl/lojaflow/pkg/errors"
	"github.com/gastaldl/lojaflow/pkg/logger"
)

type createCustomerRequest struct {
	Name       string  `json:"name" validate:"required,max=200"`
	Email      string  `json:"email" validate:"required,email,max=254"`
	Phone      *string `json:"phone,omitempty" validate:"omitempty,max=40"`
	TaxID      *string `json:"tax_id,omitempty" validate:"omitempty,max=20"`
	Address    *string `json:"address,omitempty" validate:"omitempty,max=300"`
	City       *string `json:"city,omitempty" validate:"omitempty,max=120"`
	State      *string `json:"state,omitempty" validate:"omitempty,max=2"`
	PostalCode *string `json:"postal_code,omitempty" validate:"omitempty,max=12"`
}

type updateCustomerRequest struct {
	Name       *string `json:"name,omitempty" validate:"omitempty,max=200"`
	Email      *string `json:"email,omitempty" validate:"omitempty,email,max=254"`
	Phone      *string `json:"phone,omitempty" validate:"omitempty,max=40"`
	TaxID      *string `json:"tax_id,omitempty" validate:"omitempty,max=20"`
	Address    *string `json:"address,omitempty" validate:"omitempty,max=300"`
	City       *string `json:"city,omitempty" validate:"omitempty,max=120"`
	State      *string `json:"state,omitempty" validate:"omitempty,max=2"`
	PostalCode *string `json:"postal_code,omitempty" validate:"omitempty,max=12"`
	Active     *bool   `json:"active,omitempty"`
}

// CreateCustomer registers a customer with a unique email.
func CreateCustomer(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		var payload createCustomerRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		customer, err := svc.CreateCustomer(r.Context(), catalog.CreateCustomerInput{
			Name:       payload.Name,
			Email:      payload.Email,
			Phone:      payload.Phone,
			TaxID:      payload.TaxID,
			Address:    payload.Address,
			City:       payload.City,
			State:      payload.State,
			PostalCode: payload.PostalCode,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, catalog.NewCustomerDTO(customer))
	}
}

// ListCustomers returns every customer with its order count, most active first.
// With ?email= it returns the single matching customer instead.
func ListCustomers(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		if email := strings.TrimSpace(r.URL.Query().Get("email")); email != "" {
			customer, err := svc.FindCustomerByEmail(r.Context(), email)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccess(w, catalog.NewCustomerDTO(customer))
			return
		}

		customers, err := svc.ListCustomers(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, catalog.NewCustomerSummaryDTOs(customers))
	}
}

func GetCustomer(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}
		id, err := validators.ParsePathID(r, "customerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		customer, err := svc.GetCustomer(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, catalog.NewCustomerDTO(customer))
	}
}

// UpdateCustomer applies a partial update. An empty tax_id clears it.
func UpdateCustomer(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}
		id, err := validators.ParsePathID(r, "customerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateCustomerRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		customer, err := svc.UpdateCustomer(r.Context(), id, catalog.UpdateCustomerInput{
			Name:       payload.Name,
			Email:      payload.Email,
			Phone:      payload.Phone,
			TaxID:      payload.TaxID,
			Address:    payload.Address,
			City:       payload.City,
			State:      payload.State,
			PostalCode: payload.PostalCode,
			Active:     payload.Active,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, catalog.NewCustomerDTO(customer))
	}
}
