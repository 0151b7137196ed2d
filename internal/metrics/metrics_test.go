package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

// TestMetricsInit verifies that Init() is idempotent and registers metrics.
func TestMetricsInit(t *testing.T) {
	Init()
	Init()
	Init()

	if RemovalDuration == nil {
		t.Error("RemovalDuration should be initialized")
	}
	if BytesFreedTotal == nil {
		t.Error("BytesFreedTotal should be initialized")
	}
	if ItemsRemovedTotal == nil {
		t.Error("ItemsRemovedTotal should be initialized")
	}
	if LastRunTimestamp == nil {
		t.Error("LastRunTimestamp should be initialized")
	}
	if LastOperationKind == nil {
		t.Error("LastOperationKind should be initialized")
	}
	if CategoryBytesDeletedTotal == nil {
		t.Error("CategoryBytesDeletedTotal should be initialized")
	}
	if ErrorsTotal == nil {
		t.Error("ErrorsTotal should be initialized")
	}
	if CandidatesTotal == nil {
		t.Error("CandidatesTotal should be initialized")
	}
	if OperationDuration == nil {
		t.Error("OperationDuration should be initialized")
	}
	if OperationsTotal == nil {
		t.Error("OperationsTotal should be initialized")
	}

	mfs, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("Failed to gather metrics: %v", err)
	}

	expectedMetrics := []string{
		"sweepd_removal_duration_seconds",
		"sweepd_bytes_freed_total",
		"sweepd_items_removed_total",
		"sweepd_last_run_timestamp",
		"sweepd_last_operation_kind",
		"sweepd_category_bytes_deleted_total",
		"sweepd_daemon_errors_total",
		"sweepd_scan_candidates_total",
		"sweepd_operation_duration_seconds",
		"sweepd_operations_total",
	}

	foundMetrics := make(map[string]bool)
	for _, mf := range mfs {
		foundMetrics[*mf.Name] = true
	}

	for _, expected := range expectedMetrics {
		if !foundMetrics[expected] {
			t.Errorf("Expected metric %s not found in registry", expected)
		}
	}
}

func TestHelperFunctions(t *testing.T) {
	t.Run("NewDurationHistogram", func(t *testing.T) {
		if NewDurationHistogram("test_duration", "Test duration metric") == nil {
			t.Error("NewDurationHistogram returned nil")
		}
	})

	t.Run("NewBytesCounter", func(t *testing.T) {
		if NewBytesCounter("test_bytes", "Test bytes metric") == nil {
			t.Error("NewBytesCounter returned nil")
		}
	})

	t.Run("NewCounter", func(t *testing.T) {
		if NewCounter("test_counter", "Test counter metric") == nil {
			t.Error("NewCounter returned nil")
		}
	})

	t.Run("NewSizeGauge", func(t *testing.T) {
		if NewSizeGauge("test_gauge", "Test gauge metric") == nil {
			t.Error("NewSizeGauge returned nil")
		}
	})

	t.Run("NewSizeGaugeVec", func(t *testing.T) {
		if NewSizeGaugeVec("test_gauge_vec", "Test gauge vec metric", []string{"label"}) == nil {
			t.Error("NewSizeGaugeVec returned nil")
		}
	})

	t.Run("NewCounterVec", func(t *testing.T) {
		if NewCounterVec("test_counter_vec", "Test counter vec metric", []string{"label"}) == nil {
			t.Error("NewCounterVec returned nil")
		}
	})

	t.Run("NewGaugeVec", func(t *testing.T) {
		if NewGaugeVec("test_gauge_vec2", "Test gauge vec metric", []string{"label"}) == nil {
			t.Error("NewGaugeVec returned nil")
		}
	})
}

func TestStandardBuckets(t *testing.T) {
	t.Run("DurationBuckets", func(t *testing.T) {
		expected := []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300}
		if len(DurationBuckets) != len(expected) {
			t.Fatalf("Expected %d duration buckets, got %d", len(expected), len(DurationBuckets))
		}
		for i, v := range expected {
			if DurationBuckets[i] != v {
				t.Errorf("Duration bucket[%d]: expected %v, got %v", i, v, DurationBuckets[i])
			}
		}
	})

	t.Run("BytesBuckets", func(t *testing.T) {
		expected := []float64{1024, 10240, 102400, 1048576, 10485760, 104857600, 1073741824}
		if len(BytesBuckets) != len(expected) {
			t.Fatalf("Expected %d bytes buckets, got %d", len(expected), len(BytesBuckets))
		}
		for i, v := range expected {
			if BytesBuckets[i] != v {
				t.Errorf("Bytes bucket[%d]: expected %v, got %v", i, v, BytesBuckets[i])
			}
		}
	})

	t.Run("APIBuckets", func(t *testing.T) {
		expected := []float64{0.1, 0.5, 1, 5, 10}
		if len(APIBuckets) != len(expected) {
			t.Fatalf("Expected %d API buckets, got %d", len(expected), len(APIBuckets))
		}
		for i, v := range expected {
			if APIBuckets[i] != v {
				t.Errorf("API bucket[%d]: expected %v, got %v", i, v, APIBuckets[i])
			}
		}
	})
}

func TestRemovalMetricHelpers(t *testing.T) {
	Init()

	t.Run("SetLastOperationKind", func(t *testing.T) {
		SetLastOperationKind("scan")
		SetLastOperationKind("clean")
		SetLastOperationKind("duplicates")
	})

	t.Run("RecordScanRun", func(t *testing.T) {
		RecordScanRun(1234567890)
	})

	t.Run("RecordCategoryDeletion", func(t *testing.T) {
		RecordCategoryDeletion("cache", 1024)
		RecordCategoryDeletion("log", 2048)
	})
}

func TestMetricIncrements(t *testing.T) {
	Init()

	t.Run("IncrementCounters", func(t *testing.T) {
		ItemsRemovedTotal.Inc()
		BytesFreedTotal.Add(1024)
		ErrorsTotal.Inc()
	})

	t.Run("ObserveHistogram", func(t *testing.T) {
		RemovalDuration.Observe(1.5)
		RemovalDuration.Observe(30.2)
	})

	t.Run("SetGauges", func(t *testing.T) {
		LastRunTimestamp.Set(1234567890)
	})

	t.Run("LabeledMetrics", func(t *testing.T) {
		OperationDuration.WithLabelValues("scan", "completed").Observe(0.05)
		OperationsTotal.WithLabelValues("scan", "completed").Inc()
	})
}
