package controllers

import (
	"net/http"

	"github.com/gastaldl/lojaflow/api/responses"
	"github.com/gastaldl/lojaflow/api/validators"
	"github.com/gastaldl/lojaflow/internal/catalog"
	pkgerrors "github.com/gastaldl/lojaflow/pkg/errors"
	"github.com/gastaldl/lojaflow/pkg/logger"
)

type createCategoryRequest struct {
	Name        string  `json:"name" validate:"required,max=120"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=1000"`
}

type stockLevelRequest struct {
	ProductID int64 `json:"product_id" validate:"required,min=1"`
	Stock     int   `json:"stock" validate:"min=0"`
}

type batchStockRequest struct {
	Items []stockLevelRequest `json:"items" validate:"required,min=1,dive"`
}

// CreateCategory registers a new category.
func CreateCategory(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		var payload createCategoryRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		category, err := svc.CreateCategory(r.Context(), catalog.CreateCategoryInput{
			Name:        payload.Name,
			Description: payload.Description,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, catalog.NewCategoryDTO(category))
	}
}

// ListCategories returns every category with its product count.
func ListCategories(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}
		categories, err := svc.ListCategories(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, catalog.NewCategorySummaryDTOs(categories))
	}
}

func GetCategory(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}
		id, err := validators.ParsePathID(r, "categoryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		category, err := svc.GetCategory(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, catalog.NewCategoryDTO(category))
	}
}

// DeleteCategory removes a category together with its unsold products.
func DeleteCategory(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}
		id, err := validators.ParsePathID(r, "categoryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteCategory(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

// BatchUpdateStock sets absolute stock levels for products of one category.
func BatchUpdateStock(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}
		id, err := validators.ParsePathID(r, "categoryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload batchStockRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		levels := make([]catalog.StockLevel, 0, len(payload.Items))
		for _, item := range payload.Items {
			levels = append(levels, catalog.StockLevel{ProductID: item.ProductID, Stock: item.Stock})
		}

		updated, err := svc.BatchUpdateStock(r.Context(), id, levels)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int{"updated": updated})
	}
}
