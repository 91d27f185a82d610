package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gastaldl/lojaflow/api/controllers"
	ordercontrollers "github.com/gastaldl/lojaflow/api/controllers/orders"
	"github.com/gastaldl/lojaflow/api/middleware"
	"github.com/gastaldl/lojaflow/internal/catalog"
	"github.com/gastaldl/lojaflow/internal/orders"
	"github.com/gastaldl/lojaflow/internal/reports"
	"github.com/gastaldl/lojaflow/pkg/config"
	"github.com/gastaldl/lojaflow/pkg/db"
	"github.com/gastaldl/lojaflow/pkg/logger"
	"github.com/gastaldl/lojaflow/pkg/redis"
)

// NewRouter wires every HTTP endpoint. idempotencyStore may be nil, in which case
// Idempotency-Key headers are ignored.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	pingers map[string]db.Pinger,
	idempotencyStore redis.IdempotencyStore,
	gatherer prometheus.Gatherer,
	catalogService catalog.Service,
	ordersService orders.Service,
	reportsService reports.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, pingers))
	})
	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/categories", controllers.CreateCategory(catalogService, logg))
		r.Get("/categories", controllers.ListCategories(catalogService, logg))
		r.Get("/categories/{categoryId}", controllers.GetCategory(catalogService, logg))
		r.Delete("/categories/{categoryId}", controllers.DeleteCategory(catalogService, logg))

		r.Post("/products", controllers.CreateProduct(catalogService, logg))
		r.Get("/products", controllers.ListProducts(catalogService, logg))
		r.Get("/products/{productId}", controllers.GetProduct(catalogService, logg))
		r.Patch("/products/{productId}", controllers.UpdateProduct(catalogService, logg))
		r.Delete("/products/{productId}", controllers.DeleteProduct(catalogService, logg))
		r.Get("/products/{productId}/movements", controllers.ListStockMovements(catalogService, logg))

		r.Post("/customers", controllers.CreateCustomer(catalogService, logg))
		r.Get("/customers", controllers.ListCustomers(catalogService, logg))
		r.Get("/customers/{customerId}", controllers.GetCustomer(catalogService, logg))
		r.Patch("/customers/{customerId}", controllers.UpdateCustomer(catalogService, logg))

		r.Get("/orders", ordercontrollers.List(ordersService, logg))
		r.Get("/orders/{orderId}", ordercontrollers.Detail(ordersService, logg))

		// Inline middleware runs after routing, so the full route pattern is known.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Idempotency(idempotencyStore, logg))
			r.Put("/categories/{categoryId}/stock", controllers.BatchUpdateStock(catalogService, logg))
			r.Post("/orders", ordercontrollers.Create(ordersService, logg))
			r.Post("/orders/{orderId}/items", ordercontrollers.AppendItem(ordersService, logg))
			r.Patch("/orders/{orderId}/status", ordercontrollers.UpdateStatus(ordersService, logg))
			r.Post("/orders/{orderId}/cancel", ordercontrollers.Cancel(ordersService, logg))
			r.Post("/returns", ordercontrollers.Return(ordersService, logg))
		})

		r.Route("/reports", func(r chi.Router) {
			r.Get("/sales", controllers.SalesReport(reportsService, logg))
			r.Get("/revenue-by-customer", controllers.RevenueByCustomerReport(reportsService, logg))
			r.Get("/dead-stock", controllers.DeadStockReport(reportsService, logg))
			r.Get("/monthly-trend", controllers.MonthlyTrendReport(reportsService, logg))
		})
	})

	return r
}
