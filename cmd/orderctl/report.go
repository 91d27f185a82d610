package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/spf13/cobra"

	"github.com/gastaldl/lojaflow/internal/reports"
	pkgerrors "github.com/gastaldl/lojaflow/pkg/errors"
)

const (
	formatJSON = "json"
	formatCSV  = "csv"
)

func newReportCmd(a *app) *cobra.Command {
	var (
		format string
		months int
	)
	cmd := &cobra.Command{
		Use:       "report <sales|revenue|dead-stock|trend>",
		Short:     "Print a sales report",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"sales", "revenue", "dead-stock", "trend"},
		RunE: func(cmd *cobra.Command, args []string) error {
			format = strings.ToLower(strings.TrimSpace(format))
			if format != formatJSON && format != formatCSV {
				return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unsupported format %q", format))
			}
			out := cmd.OutOrStdout()
			ctx := cmd.Context()

			switch args[0] {
			case "sales":
				rows, err := a.reports.Sales(ctx)
				if err != nil {
					return err
				}
				return render(out, format, rows, rows)
			case "revenue":
				rows, err := a.reports.RevenueByCustomer(ctx)
				if err != nil {
					return err
				}
				return render(out, format, rows, rows)
			case "dead-stock":
				report, err := a.reports.DeadStock(ctx)
				if err != nil {
					return err
				}
				return render(out, format, report, report.Rows)
			case "trend":
				rows, err := a.reports.MonthlyTrend(ctx, months)
				if err != nil {
					return err
				}
				return render(out, format, rows, rows)
			}
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown report %q", args[0]))
		},
	}
	cmd.Flags().StringVar(&format, "format", formatJSON, "output format: json|csv")
	cmd.Flags().IntVar(&months, "months", reports.DefaultTrendMonths, "months covered by the trend report")
	return cmd
}

// render writes doc as JSON, or rows as CSV.
func render[T any](out io.Writer, format string, doc any, rows []T) error {
	if format == formatCSV {
		if rows == nil {
			rows = []T{}
		}
		return gocsv.Marshal(&rows, out)
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
