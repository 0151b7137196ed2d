package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Service health metrics, following the same component-healthcheck
// shape systemd_exporter-style daemons use, adapted for a launchd agent
// instead of a systemd unit.
var (
	// ServiceHealthy indicates overall daemon health status
	ServiceHealthy *prometheus.GaugeVec

	// LaunchdAgentState tracks the sweepd launchd agent's load state
	// (loaded/unloaded/failed), set by the daemon on startup.
	LaunchdAgentState *prometheus.GaugeVec

	// ServiceRestarts counts daemon restart events
	ServiceRestarts *prometheus.CounterVec

	// ServiceStartTime records daemon start timestamp
	ServiceStartTime prometheus.Gauge

	// ComponentHealthy tracks individual component health
	ComponentHealthy *prometheus.GaugeVec

	// LastHealthCheck records timestamp of last successful health check
	LastHealthCheck *prometheus.GaugeVec

	// HealthCheckDuration tracks health check execution time
	HealthCheckDuration *prometheus.HistogramVec

	// HealthCheckFailures counts consecutive failures per component
	HealthCheckFailures *prometheus.GaugeVec
)

// HealthChecker manages periodic health checks for service components
type HealthChecker struct {
	mu               sync.RWMutex
	startTime        time.Time
	components       map[string]*ComponentHealth
	checkInterval    time.Duration
	stopCh           chan struct{}
	wg               sync.WaitGroup
	started          bool
}

// ComponentHealth represents health status of a single component
type ComponentHealth struct {
	Name         string
	LastCheck    time.Time
	Healthy      bool
	CheckFunc    func() error
	FailureCount int
	Timeout      time.Duration
}

// initServiceHealthMetrics initializes all service health metrics
func initServiceHealthMetrics() {
	ServiceHealthy = NewGaugeVec(
		"sweepd_daemon_healthy",
		"Daemon health status (1=healthy, 0=unhealthy).",
		[]string{"component"},
	)

	LaunchdAgentState = NewGaugeVec(
		"sweepd_launchd_agent_state",
		"Launchd agent load state (1=loaded, 0=unloaded, -1=failed).",
		[]string{"label", "state"},
	)

	ServiceRestarts = NewCounterVec(
		"sweepd_daemon_restarts_total",
		"Total number of daemon restarts detected.",
		[]string{"reason"},
	)

	ServiceStartTime = NewGauge(
		"sweepd_daemon_start_timestamp_seconds",
		"Unix timestamp when daemon started.",
	)

	ComponentHealthy = NewGaugeVec(
		"sweepd_component_healthy",
		"Individual component health status (1=healthy, 0=unhealthy).",
		[]string{"component", "check_type"},
	)

	LastHealthCheck = NewGaugeVec(
		"sweepd_last_health_check_timestamp_seconds",
		"Unix timestamp of last health check.",
		[]string{"component"},
	)

	HealthCheckDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sweepd_health_check_duration_seconds",
			Help:    "Time taken to execute health checks.",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"component"},
	)

	HealthCheckFailures = NewGaugeVec(
		"sweepd_health_check_failures_consecutive",
		"Consecutive health check failures per component.",
		[]string{"component"},
	)

	HealthCheckTimeouts = NewCounter(
		"sweepd_health_check_timeouts_total",
		"Total number of health check timeouts.",
	)
}

// registerServiceHealthMetrics registers all service health metrics
func registerServiceHealthMetrics() {
	prometheus.MustRegister(ServiceHealthy)
	prometheus.MustRegister(LaunchdAgentState)
	prometheus.MustRegister(ServiceRestarts)
	prometheus.MustRegister(ServiceStartTime)
	prometheus.MustRegister(ComponentHealthy)
	prometheus.MustRegister(LastHealthCheck)
	prometheus.MustRegister(HealthCheckDuration)
	prometheus.MustRegister(HealthCheckFailures)
	prometheus.MustRegister(HealthCheckTimeouts)
}

// NewHealthChecker creates a new health checker with specified check interval
func NewHealthChecker(interval time.Duration) *HealthChecker {
	hc := &HealthChecker{
		startTime:     time.Now(),
		components:    make(map[string]*ComponentHealth),
		checkInterval: interval,
		stopCh:        make(chan struct{}),
		started:       false,
	}

	// Record daemon start time
	ServiceStartTime.Set(float64(hc.startTime.Unix()))

	// Initialize overall health to healthy
	ServiceHealthy.WithLabelValues("overall").Set(1)

	return hc
}

// RegisterComponent adds a component health check
// name: component identifier
// checkFunc: function returning nil on success, error on failure
// timeout: max duration for health check (0 = no timeout)
func (hc *HealthChecker) RegisterComponent(name string, checkFunc func() error, timeout time.Duration) {
	hc.mu.Lock()
	defer hc.mu.Unlock()

	hc.components[name] = &ComponentHealth{
		Name:      name,
		CheckFunc: checkFunc,
		Healthy:   true,
		Timeout:   timeout,
	}

	// Initialize metrics for this component
	ComponentHealthy.WithLabelValues(name, "functional").Set(1)
	HealthCheckFailures.WithLabelValues(name).Set(0)
}

// Start begins periodic health checking
// Must be called after registering all components
func (hc *HealthChecker) Start() {
	hc.mu.Lock()
	if hc.started {
		hc.mu.Unlock()
		return
	}
	hc.started = true
	hc.mu.Unlock()

	hc.wg.Add(1)
	go hc.runHealthCheckLoop()
}

// Stop halts health checking and waits for completion
func (hc *HealthChecker) Stop() {
	hc.mu.Lock()
	if !hc.started {
		hc.mu.Unlock()
		return
	}
	hc.mu.Unlock()

	close(hc.stopCh)
	hc.wg.Wait()
}

// runHealthCheckLoop executes health checks on interval
func (hc *HealthChecker) runHealthCheckLoop() {
	defer hc.wg.Done()

	ticker := time.NewTicker(hc.checkInterval)
	defer ticker.Stop()

	// Run initial health check immediately
	hc.runHealthChecks()

	for {
		select {
		case <-ticker.C:
			hc.runHealthChecks()
		case <-hc.stopCh:
			return
		}
	}
}

// runHealthChecks executes all registered health checks
func (hc *HealthChecker) runHealthChecks() {
	hc.mu.Lock()
	defer hc.mu.Unlock()

	overallHealthy := true

	for name, comp := range hc.components {
		start := time.Now()

		// Execute health check with optional timeout
		var err error
		if comp.Timeout > 0 {
			err = hc.runWithTimeout(comp.CheckFunc, comp.Timeout)
		} else {
			err = comp.CheckFunc()
		}

		duration := time.Since(start).Seconds()
		HealthCheckDuration.WithLabelValues(name).Observe(duration)

		comp.LastCheck = time.Now()
		LastHealthCheck.WithLabelValues(name).Set(float64(comp.LastCheck.Unix()))

		if err != nil {
			comp.Healthy = false
			comp.FailureCount++
			overallHealthy = false

			ComponentHealthy.WithLabelValues(name, "functional").Set(0)
			HealthCheckFailures.WithLabelValues(name).Set(float64(comp.FailureCount))

			// Increment error counter for monitoring
			ErrorsTotal.Inc()
		} else {
			comp.Healthy = true
			comp.FailureCount = 0

			ComponentHealthy.WithLabelValues(name, "functional").Set(1)
			HealthCheckFailures.WithLabelValues(name).Set(0)
		}
	}

	// Update overall health status
	if overallHealthy {
		ServiceHealthy.WithLabelValues("overall").Set(1)
	} else {
		ServiceHealthy.WithLabelValues("overall").Set(0)
	}
}

// runWithTimeout executes a function with timeout
func (hc *HealthChecker) runWithTimeout(fn func() error, timeout time.Duration) error {
	errCh := make(chan error, 1)

	go func() {
		errCh <- fn()
	}()

	select {
	case err := <-errCh:
		return err
	case <-time.After(timeout):
		HealthCheckTimeouts.Inc()
		return errHealthCheckTimeout
	}
}

// Error types
var errHealthCheckTimeout = &healthCheckTimeoutError{}

type healthCheckTimeoutError struct{}

func (e *healthCheckTimeoutError) Error() string {
	return "health check timeout"
}

// HealthCheckTimeouts counter tracks timeout events
var HealthCheckTimeouts prometheus.Counter

// GetHealth returns current health status of all components
func (hc *HealthChecker) GetHealth() map[string]bool {
	hc.mu.RLock()
	defer hc.mu.RUnlock()

	health := make(map[string]bool)
	for name, comp := range hc.components {
		health[name] = comp.Healthy
	}
	return health
}

// IsHealthy returns true if all components are healthy
func (hc *HealthChecker) IsHealthy() bool {
	hc.mu.RLock()
	defer hc.mu.RUnlock()

	for _, comp := range hc.components {
		if !comp.Healthy {
			return false
		}
	}
	return true
}

// GetUptime returns daemon uptime in seconds
func (hc *HealthChecker) GetUptime() float64 {
	return time.Since(hc.startTime).Seconds()
}

// RecordRestart increments restart counter with reason
func RecordRestart(reason string) {
	ServiceRestarts.WithLabelValues(reason).Inc()
}

// UpdateLaunchdAgentState updates the launchd agent load-state metric.
// state: "loaded", "unloaded", "failed"
func UpdateLaunchdAgentState(label string, state string) {
	LaunchdAgentState.WithLabelValues(label, "loaded").Set(0)
	LaunchdAgentState.WithLabelValues(label, "unloaded").Set(0)
	LaunchdAgentState.WithLabelValues(label, "failed").Set(0)

	value := 0.0
	switch state {
	case "loaded":
		value = 1.0
	case "unloaded":
		value = 0.0
	case "failed":
		value = -1.0
	}
	LaunchdAgentState.WithLabelValues(label, state).Set(value)
}
