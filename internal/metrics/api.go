package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Operation-registry subsystem metrics
var (
	// OperationDuration tracks how long a tracked Operation runs end to end.
	OperationDuration *prometheus.HistogramVec

	// OperationsTotal tracks total operations started by kind and
	// final status (completed, failed, cancelled).
	OperationsTotal *prometheus.CounterVec
)

func initAPIMetrics() {
	OperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sweepd_operation_duration_seconds",
			Help:    "Duration of tracked operations in seconds.",
			Buckets: APIBuckets,
		},
		[]string{"kind", "status"},
	)

	OperationsTotal = NewCounterVec(
		"sweepd_operations_total",
		"Total operations started by the Operation Registry.",
		[]string{"kind", "status"},
	)
}

func registerAPIMetrics() {
	prometheus.MustRegister(OperationDuration)
	prometheus.MustRegister(OperationsTotal)
}

// RecordOperation records the terminal outcome of one tracked operation.
func RecordOperation(kind, status string, durationSeconds float64) {
	OperationsTotal.WithLabelValues(kind, status).Inc()
	OperationDuration.WithLabelValues(kind, status).Observe(durationSeconds)
}
