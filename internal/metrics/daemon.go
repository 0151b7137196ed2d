package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/sweepd/sweepd/internal/scanengine"
)

// Daemon subsystem metrics
var (
	// ErrorsTotal tracks total errors encountered by the daemon.
	ErrorsTotal prometheus.Counter

	// CandidatesTotal tracks the number of candidates found per scan root.
	CandidatesTotal *prometheus.GaugeVec

	// ReclaimableBytes tracks total reclaimable bytes found per scan root.
	ReclaimableBytes *prometheus.GaugeVec

	// CategoryCandidateCount tracks candidates found per category.
	CategoryCandidateCount *prometheus.GaugeVec

	// ScanDuration tracks how long a full Scan() call takes.
	ScanDuration prometheus.Histogram
)

func initDaemonMetrics() {
	ErrorsTotal = NewCounter(
		"sweepd_daemon_errors_total",
		"Total number of errors encountered by sweepd.",
	)

	CandidatesTotal = NewSizeGaugeVec(
		"sweepd_scan_candidates_total",
		"Number of candidates found in the most recent scan, per root.",
		[]string{"root"},
	)

	ReclaimableBytes = NewSizeGaugeVec(
		"sweepd_scan_reclaimable_bytes",
		"Total reclaimable bytes found in the most recent scan, per root.",
		[]string{"root"},
	)

	CategoryCandidateCount = NewSizeGaugeVec(
		"sweepd_scan_category_candidates",
		"Number of candidates found per category in the most recent scan.",
		[]string{"category"},
	)

	ScanDuration = NewDurationHistogram(
		"sweepd_scan_duration_seconds",
		"Duration of full Scan() calls in seconds.",
	)
}

func registerDaemonMetrics() {
	prometheus.MustRegister(ErrorsTotal)
	prometheus.MustRegister(CandidatesTotal)
	prometheus.MustRegister(ReclaimableBytes)
	prometheus.MustRegister(CategoryCandidateCount)
	prometheus.MustRegister(ScanDuration)
}

// UpdateScanMetrics records the outcome of one Scan() call against root.
func UpdateScanMetrics(root string, result scanengine.Result) {
	var totalBytes int64
	CategoryCandidateCount.Reset()
	for category, agg := range result.Aggregates {
		totalBytes += agg.TotalSize
		CategoryCandidateCount.WithLabelValues(category).Set(float64(agg.Count))
	}
	CandidatesTotal.WithLabelValues(root).Set(float64(len(result.Candidates)))
	ReclaimableBytes.WithLabelValues(root).Set(float64(totalBytes))
}
