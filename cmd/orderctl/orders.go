package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/gastaldl/lojaflow/internal/orders"
	"github.com/gastaldl/lojaflow/pkg/db/models"
	"github.com/gastaldl/lojaflow/pkg/enums"
	pkgerrors "github.com/gastaldl/lojaflow/pkg/errors"
)

func newOrdersCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "Order lifecycle operations",
	}

	cancel := &cobra.Command{
		Use:   "cancel <order-id>",
		Short: "Cancel an order and restock its items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseOrderID(args[0])
			if err != nil {
				return err
			}
			order, err := a.orders.Cancel(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printOrder(cmd.OutOrStdout(), order)
		},
	}

	ret := &cobra.Command{
		Use:   "return <order-number>",
		Short: "Process a customer return by order number",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			order, err := a.orders.Return(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printOrder(cmd.OutOrStdout(), order)
		},
	}

	status := &cobra.Command{
		Use:   "status <order-id> <status>",
		Short: "Move an order to the next status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseOrderID(args[0])
			if err != nil {
				return err
			}
			next, err := enums.ParseOrderStatus(args[1])
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order status")
			}
			order, err := a.orders.UpdateStatus(cmd.Context(), id, next)
			if err != nil {
				return err
			}
			return printOrder(cmd.OutOrStdout(), order)
		},
	}

	var olderThan time.Duration
	purge := &cobra.Command{
		Use:   "purge",
		Short: "Delete cancelled orders older than the retention window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := a.orders.PurgeCancelled(cmd.Context(), olderThan)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d cancelled orders older than %s\n", result.Removed, result.Cutoff.Format(time.RFC3339))
			return nil
		},
	}
	purge.Flags().DurationVar(&olderThan, "older-than", 0, "retention window, e.g. 720h (default: configured retention)")

	cmd.AddCommand(cancel, ret, status, purge)
	return cmd
}

func parseOrderID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "order id must be a positive integer").
			WithDetails(map[string]any{"order_id": raw})
	}
	return id, nil
}

func printOrder(out io.Writer, order *models.Order) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(orders.NewOrderDTO(order))
}
