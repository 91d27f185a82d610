package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Stock directions used as the label of the stock units counter.
const (
	StockDebit  = "debit"
	StockCredit = "credit"
)

// OrderMetrics records order lifecycle operations and stock movement volume.
type OrderMetrics struct {
	duration   *prometheus.HistogramVec
	success    *prometheus.CounterVec
	failure    *prometheus.CounterVec
	stockUnits *prometheus.CounterVec
}

// NewOrderMetrics registers the order metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "order_operation_duration_seconds",
		Help:    "Duration of order lifecycle operations in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_operation_success_total",
		Help: "Order lifecycle operations that committed.",
	}, []string{"operation"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_operation_failure_total",
		Help: "Order lifecycle operations that failed, by error code.",
	}, []string{"operation", "code"})
	stockUnits := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_units_total",
		Help: "Units of stock debited or credited.",
	}, []string{"direction"})
	reg.MustRegister(duration, success, failure, stockUnits)
	return &OrderMetrics{
		duration:   duration,
		success:    success,
		failure:    failure,
		stockUnits: stockUnits,
	}
}

// ObserveDuration records the duration for the named operation.
func (m *OrderMetrics) ObserveDuration(operation string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(operation)).Observe(duration.Seconds())
}

// IncSuccess increments the success counter for the named operation.
func (m *OrderMetrics) IncSuccess(operation string) {
	if m == nil || m.success == nil {
		return
	}
	m.success.WithLabelValues(normalizeLabel(operation)).Inc()
}

// IncFailure increments the failure counter for the named operation.
func (m *OrderMetrics) IncFailure(operation, code string) {
	if m == nil || m.failure == nil {
		return
	}
	m.failure.WithLabelValues(normalizeLabel(operation), normalizeLabel(code)).Inc()
}

// AddStockUnits counts units moved in the given direction.
func (m *OrderMetrics) AddStockUnits(direction string, units int) {
	if m == nil || m.stockUnits == nil || units <= 0 {
		return
	}
	m.stockUnits.WithLabelValues(normalizeLabel(direction)).Add(float64(units))
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
