// Package bootstrap assembles the storage adapter and domain services shared by the
// API server and the operator CLI.
package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/gastaldl/lojaflow/internal/catalog"
	"github.com/gastaldl/lojaflow/internal/inventory"
	"github.com/gastaldl/lojaflow/internal/orders"
	"github.com/gastaldl/lojaflow/internal/reports"
	"github.com/gastaldl/lojaflow/internal/storage"
	"github.com/gastaldl/lojaflow/internal/storage/gormstore"
	"github.com/gastaldl/lojaflow/internal/storage/sqlstore"
	"github.com/gastaldl/lojaflow/pkg/config"
	"github.com/gastaldl/lojaflow/pkg/db"
	"github.com/gastaldl/lojaflow/pkg/logger"
	"github.com/gastaldl/lojaflow/pkg/metrics"
)

// Services bundles everything the transports call into.
type Services struct {
	Store   storage.Store
	Catalog catalog.Service
	Orders  orders.Service
	Reports reports.Service
	Metrics *metrics.OrderMetrics

	closeStore func() error
}

// Close releases resources owned by the services, not the shared db client.
func (s *Services) Close() error {
	if s == nil || s.closeStore == nil {
		return nil
	}
	return s.closeStore()
}

// OpenStore selects the storage adapter named by cfg.Storage.Adapter. The gorm adapter
// shares client; the sql adapter dials its own pool.
func OpenStore(ctx context.Context, cfg *config.Config, client *db.Client, logg *logger.Logger) (storage.Store, func() error, error) {
	noop := func() error { return nil }
	switch strings.ToLower(strings.TrimSpace(cfg.Storage.Adapter)) {
	case config.AdapterGORM, "":
		store, err := gormstore.New(client)
		if err != nil {
			return nil, nil, err
		}
		return store, noop, nil
	case config.AdapterSQL:
		store, err := sqlstore.Open(ctx, cfg.DB, logg)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown storage adapter %q", cfg.Storage.Adapter)
}

// NewServices wires the domain services. reg may be nil to skip metric registration.
func NewServices(ctx context.Context, cfg *config.Config, client *db.Client, logg *logger.Logger, reg prometheus.Registerer) (*Services, error) {
	store, closeStore, err := OpenStore(ctx, cfg, client, logg)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	out, err := buildServices(cfg, client, store, logg, reg)
	if err != nil {
		_ = closeStore()
		return nil, err
	}
	out.closeStore = closeStore
	logg.Info(logg.WithField(ctx, "storage_adapter", store.Name()), "storage adapter ready")
	return out, nil
}

func buildServices(cfg *config.Config, client *db.Client, store storage.Store, logg *logger.Logger, reg prometheus.Registerer) (*Services, error) {
	orderMetrics := metrics.NewOrderMetrics(reg)
	ledger := inventory.NewLedger(orderMetrics)

	auditLoc, err := cfg.Orders.Location()
	if err != nil {
		return nil, err
	}
	numbers, err := orders.NewSnowflakeNumbers(cfg.Orders.NodeID)
	if err != nil {
		return nil, fmt.Errorf("order numbers: %w", err)
	}

	catalogService, err := catalog.NewService(store, ledger, logg)
	if err != nil {
		return nil, fmt.Errorf("catalog service: %w", err)
	}
	ordersService, err := orders.NewService(orders.ServiceParams{
		Store:          store,
		Ledger:         ledger,
		Numbers:        numbers,
		Logger:         logg,
		Metrics:        orderMetrics,
		AuditLocation:  auditLoc,
		PurgeRetention: cfg.Orders.PurgeRetention,
	})
	if err != nil {
		return nil, fmt.Errorf("orders service: %w", err)
	}
	reportsService, err := reports.NewService(client, nil)
	if err != nil {
		return nil, fmt.Errorf("reports service: %w", err)
	}

	return &Services{
		Store:   store,
		Catalog: catalogService,
		Orders:  ordersService,
		Reports: reportsService,
		Metrics: orderMetrics,
	}, nil
}
