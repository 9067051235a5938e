package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce         sync.Once
	apiRequestsTotal     *prometheus.CounterVec
	apiLatencySeconds    *prometheus.HistogramVec
	apiErrorsTotal       *prometheus.CounterVec
	batchRunsTotal       prometheus.Counter
	batchDurationSeconds prometheus.Histogram
	gradingFailuresTotal prometheus.Counter
)

// RegisterMetrics initialises the Prometheus collectors for the grading API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dpt_api_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dpt_api_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dpt_api_errors_total",
			Help: "Total number of error responses returned by API endpoints.",
		}, []string{"method", "route", "status"})

		batchRunsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dpt_batch_runs_total",
			Help: "Total number of completed batch grading runs.",
		})

		batchDurationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "dpt_batch_duration_seconds",
			Help:    "Wall-clock duration of batch grading runs.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		})

		gradingFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dpt_grading_failures_total",
			Help: "Total number of per-student grading failures degraded into failed records.",
		})

		prometheus.MustRegister(
			apiRequestsTotal,
			apiLatencySeconds,
			apiErrorsTotal,
			batchRunsTotal,
			batchDurationSeconds,
			gradingFailuresTotal,
		)
	})
}

// APIRequests exposes the counter for API requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for API requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for API error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// BatchRunsTotal exposes the counter for completed batch runs.
func BatchRunsTotal() prometheus.Counter {
	RegisterMetrics()
	return batchRunsTotal
}

// BatchDurationSeconds exposes the histogram of batch run durations.
func BatchDurationSeconds() prometheus.Histogram {
	RegisterMetrics()
	return batchDurationSeconds
}

// GradingFailuresTotal exposes the counter for degraded student records.
func GradingFailuresTotal() prometheus.Counter {
	RegisterMetrics()
	return gradingFailuresTotal
}
