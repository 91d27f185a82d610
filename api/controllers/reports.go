package controllers

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/gastaldl/lojaflow/api/responses"
	"github.com/gastaldl/lojaflow/api/validators"
	"github.com/gastaldl/lojaflow/internal/reports"
	pkgerrors "github.com/gastaldl/lojaflow/pkg/errors"
	"github.com/gastaldl/lojaflow/pkg/logger"
)

// SalesReport lists the non-cancelled sales lines.
func SalesReport(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reports service unavailable"))
			return
		}
		rows, err := svc.Sales(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeReport(w, r, logg, rows)
	}
}

func RevenueByCustomerReport(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reports service unavailable"))
			return
		}
		rows, err := svc.RevenueByCustomer(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeReport(w, r, logg, rows)
	}
}

// DeadStockReport lists products that never sold. The CSV form carries the rows only.
func DeadStockReport(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reports service unavailable"))
			return
		}
		report, err := svc.DeadStock(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if wantsCSV(r) {
			writeCSV(w, r, logg, report.Rows)
			return
		}
		responses.WriteSuccess(w, report)
	}
}

// MonthlyTrendReport accepts ?months= (default 12).
func MonthlyTrendReport(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reports service unavailable"))
			return
		}
		months, err := validators.ParseQueryInt(r, "months", reports.DefaultTrendMonths, 1, reports.MaxTrendMonths)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rows, err := svc.MonthlyTrend(r.Context(), months)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeReport(w, r, logg, rows)
	}
}

func wantsCSV(r *http.Request) bool {
	return strings.EqualFold(strings.TrimSpace(r.URL.Query().Get("format")), "csv")
}

func writeReport[T any](w http.ResponseWriter, r *http.Request, logg *logger.Logger, rows []T) {
	if wantsCSV(r) {
		writeCSV(w, r, logg, rows)
		return
	}
	if rows == nil {
		rows = []T{}
	}
	responses.WriteSuccess(w, rows)
}

func writeCSV[T any](w http.ResponseWriter, r *http.Request, logg *logger.Logger, rows []T) {
	if rows == nil {
		rows = []T{}
	}
	var buf bytes.Buffer
	if err := gocsv.Marshal(&rows, &buf); err != nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode csv report"))
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
