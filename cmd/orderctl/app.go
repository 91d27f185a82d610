package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/gastaldl/lojaflow/internal/bootstrap"
	"github.com/gastaldl/lojaflow/internal/orders"
	"github.com/gastaldl/lojaflow/internal/reports"
	"github.com/gastaldl/lojaflow/pkg/config"
	"github.com/gastaldl/lojaflow/pkg/db"
	pkgerrors "github.com/gastaldl/lojaflow/pkg/errors"
	"github.com/gastaldl/lojaflow/pkg/logger"
)

// app holds the services the commands call. Tests set them directly; otherwise they
// are booted from the environment before the first command runs.
type app struct {
	orders  orders.Service
	reports reports.Service
	closers []func() error
}

func (a *app) booted() bool {
	return a.orders != nil && a.reports != nil
}

func (a *app) boot(ctx context.Context, logOutput io.Writer) error {
	if a.booted() {
		return nil
	}
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logg := logger.New(logger.Options{
		ServiceName: "orderctl",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Output:      logOutput,
		Format:      cfg.App.LogFormat,
	})

	client, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("bootstrap database: %w", err)
	}
	a.closers = append(a.closers, client.Close)

	services, err := bootstrap.NewServices(ctx, cfg, client, logg, nil)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, services.Close)

	a.orders = services.Orders
	a.reports = services.Reports
	return nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i]()
	}
	a.closers = nil
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "orderctl",
		Short:         "Operate on orders and print reports",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.boot(cmd.Context(), os.Stderr)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
	}
	root.AddCommand(newOrdersCmd(a), newReportCmd(a))
	return root
}

// formatError renders err with its error code so scripts can match on it.
func formatError(err error) string {
	if typed := pkgerrors.As(err); typed != nil {
		return fmt.Sprintf("error [%s]: %s", typed.Code(), typed.Message())
	}
	return fmt.Sprintf("error: %v", err)
}
