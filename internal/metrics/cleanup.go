package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Removal subsystem metrics
var (
	// RemovalDuration tracks how long a Remove() batch takes.
	RemovalDuration prometheus.Histogram

	// BytesFreedTotal tracks total bytes freed across all removals.
	BytesFreedTotal prometheus.Counter

	// ItemsRemovedTotal tracks total items removed.
	ItemsRemovedTotal prometheus.Counter

	// LastRunTimestamp records the Unix timestamp of the last scan run.
	LastRunTimestamp prometheus.Gauge

	// LastOperationKind tracks the most recent operation kind run
	// (scan, clean, duplicates, empty_trash).
	LastOperationKind *prometheus.GaugeVec

	// CategoryBytesDeletedTotal tracks bytes deleted per category.
	CategoryBytesDeletedTotal *prometheus.CounterVec

	// RemovalWorkersActive tracks in-flight parallel removal workers.
	RemovalWorkersActive prometheus.Gauge

	// RemovalErrorsTotal tracks removal errors per category.
	RemovalErrorsTotal *prometheus.CounterVec

	// PrivilegedRetriesTotal tracks how often a permission-denied batch
	// needed the privileged-elevation retry path.
	PrivilegedRetriesTotal prometheus.Counter
)

func initCleanupMetrics() {
	RemovalDuration = NewDurationHistogram(
		"sweepd_removal_duration_seconds",
		"Duration of Remove() batches in seconds.",
	)

	BytesFreedTotal = NewBytesCounter(
		"sweepd_bytes_freed_total",
		"Total bytes freed by sweepd.",
	)

	ItemsRemovedTotal = NewCounter(
		"sweepd_items_removed_total",
		"Total number of filesystem entries removed by sweepd.",
	)

	LastRunTimestamp = NewSizeGauge(
		"sweepd_last_run_timestamp",
		"Timestamp of the last scan run (Unix epoch seconds).",
	)

	LastOperationKind = NewGaugeVec(
		"sweepd_last_operation_kind",
		"Most recent operation kind run (1=active).",
		[]string{"kind"},
	)

	CategoryBytesDeletedTotal = NewCounterVec(
		"sweepd_category_bytes_deleted_total",
		"Total bytes deleted per category.",
		[]string{"category"},
	)

	RemovalWorkersActive = NewSizeGauge(
		"sweepd_removal_workers_active",
		"Number of removal workers currently processing items.",
	)

	RemovalErrorsTotal = NewCounterVec(
		"sweepd_removal_errors_total",
		"Total number of errors encountered while removing items.",
		[]string{"category"},
	)

	PrivilegedRetriesTotal = NewCounter(
		"sweepd_privileged_retries_total",
		"Total number of permission-denied batches retried via privileged elevation.",
	)
}

func registerCleanupMetrics() {
	prometheus.MustRegister(RemovalDuration)
	prometheus.MustRegister(BytesFreedTotal)
	prometheus.MustRegister(ItemsRemovedTotal)
	prometheus.MustRegister(LastRunTimestamp)
	prometheus.MustRegister(LastOperationKind)
	prometheus.MustRegister(CategoryBytesDeletedTotal)
	prometheus.MustRegister(RemovalWorkersActive)
	prometheus.MustRegister(RemovalErrorsTotal)
	prometheus.MustRegister(PrivilegedRetriesTotal)
}

// SetLastOperationKind records kind as the most recently run operation,
// resetting all other kind gauges to 0 first.
func SetLastOperationKind(kind string) {
	modeMutex.Lock()
	defer modeMutex.Unlock()

	LastOperationKind.Reset()
	LastOperationKind.WithLabelValues(kind).Set(1)
}

// RecordScanRun updates the last scan timestamp to now.
func RecordScanRun(unixTime int64) {
	LastRunTimestamp.Set(float64(unixTime))
}

// RecordCategoryDeletion records bytes deleted for a specific category.
func RecordCategoryDeletion(category string, bytes int64) {
	CategoryBytesDeletedTotal.WithLabelValues(category).Add(float64(bytes))
}

// SetActiveRemovalWorkers sets the number of active removal workers.
func SetActiveRemovalWorkers(count int) {
	RemovalWorkersActive.Set(float64(count))
}

// IncrementRemovalErrors increments the removal error counter for category.
func IncrementRemovalErrors(category string, count int64) {
	RemovalErrorsTotal.WithLabelValues(category).Add(float64(count))
}
