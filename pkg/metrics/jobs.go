package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// JobMetrics records maintenance job executions.
type JobMetrics struct {
	duration *prometheus.HistogramVec
	runs     *prometheus.CounterVec
}

// NewJobMetrics registers the maintenance job metrics. A nil registerer yields a no-op recorder.
func NewJobMetrics(reg prometheus.Registerer) *JobMetrics {
	if reg == nil {
		return &JobMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "maintenance_job_duration_seconds",
		Help:    "Duration of maintenance job runs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "maintenance_job_runs_total",
		Help: "Maintenance job runs by outcome.",
	}, []string{"job", "result"})
	reg.MustRegister(duration, runs)
	return &JobMetrics{duration: duration, runs: runs}
}

// Observe records one run of job; a non-nil err counts as a failure.
func (m *JobMetrics) Observe(job string, duration time.Duration, err error) {
	if m == nil || m.duration == nil {
		return
	}
	job = normalizeLabel(job)
	m.duration.WithLabelValues(job).Observe(duration.Seconds())
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.runs.WithLabelValues(job, result).Inc()
}
