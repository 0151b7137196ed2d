// Package config loads and validates the daemon-level configuration:
// scan interval, data directory layout, resource limits, and the
// Prometheus/worker-pool/scan-optimization knobs the rest of the
// pipeline reads at startup. Rule roots live in the rule set itself
// (internal/rules), loaded separately via SWEEPD_RULES_OVERRIDE, since
// they change shape and cadence independently of this daemon config.
// Grounded on the teacher's own config.go: same Load/decode/
// validateAndDefault three-step pipeline and gopkg.in/yaml.v3 decoder.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// PrometheusCfg configures the metrics HTTP listener.
type PrometheusCfg struct {
	Port int `yaml:"port" json:"port"`
}

// LoggingCfg configures log rotation.
type LoggingCfg struct {
	RotationDays int `yaml:"rotation_days" json:"rotation_days"`
}

// ResourceLimits bounds the daemon's own footprint while scanning.
type ResourceLimits struct {
	MaxCPUPercent float64 `yaml:"max_cpu_percent" json:"max_cpu_percent"`
}

// ScanOptimizations controls the Dir-Size Cache and parallel fan-out.
type ScanOptimizations struct {
	CacheTTLMinutes int  `yaml:"cache_ttl_minutes" json:"cache_ttl_minutes"`
	ParallelScans   bool `yaml:"parallel_scans" json:"parallel_scans"`
}

// WorkerPoolConfig bounds concurrent removal fan-out.
type WorkerPoolConfig struct {
	Concurrency    int `yaml:"concurrency" json:"concurrency"`
	TimeoutSeconds int `yaml:"timeout_seconds" json:"timeout_seconds"`
}

// Config is the daemon's top-level configuration document.
type Config struct {
	IntervalMinutes   int               `yaml:"interval_minutes" json:"interval_minutes"`
	DataDir           string            `yaml:"data_dir" json:"data_dir"`
	RulesPath         string            `yaml:"rules_path" json:"rules_path"`
	DatabasePath      string            `yaml:"database_path" json:"database_path"`
	TelemetryPath     string            `yaml:"telemetry_path" json:"telemetry_path"`
	SnapshotPath      string            `yaml:"snapshot_path" json:"snapshot_path"`
	Prometheus        PrometheusCfg     `yaml:"prometheus" json:"prometheus"`
	Logging           LoggingCfg        `yaml:"logging" json:"logging"`
	ResourceLimits    ResourceLimits    `yaml:"resource_limits" json:"resource_limits"`
	ScanOptimizations ScanOptimizations `yaml:"scan_optimizations" json:"scan_optimizations"`
	WorkerPool        WorkerPoolConfig  `yaml:"worker_pool" json:"worker_pool"`
	LowSafetyMode     bool              `yaml:"low_safety_mode" json:"low_safety_mode"`
}

var (
	errInvalidInterval = errors.New("interval_minutes must be positive")
)

// Load reads and validates the daemon config at path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	cfg, err := decode(f)
	if err != nil {
		return nil, err
	}
	if err := cfg.validateAndDefault(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(r io.Reader) (*Config, error) {
	cfg := &Config{}
	decoder := yaml.NewDecoder(r)
	if err := decoder.Decode(cfg); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return cfg, nil
}

func (c *Config) validateAndDefault() error {
	if c.IntervalMinutes < 0 {
		return errInvalidInterval
	}
	if c.IntervalMinutes == 0 {
		c.IntervalMinutes = 15
	}

	if c.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolve data dir: %w", err)
		}
		c.DataDir = filepath.Join(home, "Library", "Application Support", "sweepd")
	}
	if c.DatabasePath == "" {
		c.DatabasePath = filepath.Join(c.DataDir, "sweepd.db")
	}
	if c.TelemetryPath == "" {
		c.TelemetryPath = filepath.Join(c.DataDir, "telemetry.json")
	}
	if c.RulesPath == "" {
		c.RulesPath = filepath.Join(c.DataDir, "rules.yaml")
	}
	if c.SnapshotPath == "" {
		c.SnapshotPath = filepath.Join(c.DataDir, "last_scan.json")
	}

	if c.Prometheus.Port == 0 {
		c.Prometheus.Port = 9090
	}
	if c.Logging.RotationDays <= 0 {
		c.Logging.RotationDays = 30
	}
	if c.ResourceLimits.MaxCPUPercent <= 0 {
		c.ResourceLimits.MaxCPUPercent = 25.0
	}
	if c.ScanOptimizations.CacheTTLMinutes <= 0 {
		c.ScanOptimizations.CacheTTLMinutes = 2
	}
	if c.WorkerPool.Concurrency <= 0 {
		c.WorkerPool.Concurrency = 5
	}
	if c.WorkerPool.TimeoutSeconds <= 0 {
		c.WorkerPool.TimeoutSeconds = 30
	}

	return nil
}

// Interval returns the configured scan interval as a Duration.
func (c *Config) Interval() time.Duration {
	return time.Duration(c.IntervalMinutes) * time.Minute
}

// PrometheusAddress returns the listen address for the metrics server.
func (c *Config) PrometheusAddress() string {
	return fmt.Sprintf(":%d", c.Prometheus.Port)
}
