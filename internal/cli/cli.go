// Package cli implements the host-facing commands from §6's table
// (scan, list_candidates, clean, empty_trash, duplicates) as cobra
// subcommands, plus a serve command that runs the pipeline on the
// configured interval. It is the reference harness for the contract a
// desktop host process would otherwise dispatch into over IPC — that
// dispatch layer itself is the out-of-scope external collaborator, so
// each command here is a plain synchronous call a host could just as
// easily invoke as a library.
//
// cancel/operation_status are meaningful only when a caller shares this
// process's Operation Registry (a long-running "serve" session or an
// embedding host); a separate CLI invocation has no way to reach
// another process's in-flight operation without the out-of-scope RPC
// layer, so instead Ctrl+C (SIGINT) cancels the current command's
// Operation and its final status prints on exit, demonstrating the same
// registry plumbing a host would drive.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/sweepd/sweepd/internal/category"
	"github.com/sweepd/sweepd/internal/config"
	"github.com/sweepd/sweepd/internal/dircache"
	"github.com/sweepd/sweepd/internal/logging"
	"github.com/sweepd/sweepd/internal/operations"
	"github.com/sweepd/sweepd/internal/rules"
)

// env is the set of dependencies every subcommand needs, built once
// from flags and shared across the command's lifetime.
type env struct {
	cfg      *config.Config
	logger   *logging.Logger
	cache    *dircache.Cache
	policies category.Policies
	registry *operations.Registry
	home     string
}

func newEnv(configPath string) (*env, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg = defaultConfig()
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}

	logger := logging.New(cfg.DataDir, cfg)
	ttl := time.Duration(cfg.ScanOptimizations.CacheTTLMinutes) * time.Minute
	cache := dircache.New(ttl, dircache.DefaultCapacity)

	return &env{
		cfg:      cfg,
		logger:   logger,
		cache:    cache,
		policies: category.Default(),
		registry: operations.NewRegistry(),
		home:     home,
	}, nil
}

// defaultConfig is used when no config file exists yet (first run):
// sane defaults under the user's Application Support directory, the
// same layout config.Load would have produced for an empty document.
func defaultConfig() *config.Config {
	cfg := &config.Config{}
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.Getenv("HOME")
	}
	cfg.DataDir = filepath.Join(home, "Library", "Application Support", "sweepd")
	cfg.DatabasePath = filepath.Join(cfg.DataDir, "sweepd.db")
	cfg.TelemetryPath = filepath.Join(cfg.DataDir, "telemetry.json")
	cfg.RulesPath = filepath.Join(cfg.DataDir, "rules.yaml")
	cfg.SnapshotPath = filepath.Join(cfg.DataDir, "last_scan.json")
	cfg.IntervalMinutes = 15
	cfg.Prometheus.Port = 9090
	cfg.Logging.RotationDays = 30
	cfg.ResourceLimits.MaxCPUPercent = 25
	cfg.ScanOptimizations.CacheTTLMinutes = 2
	cfg.WorkerPool.Concurrency = 5
	cfg.WorkerPool.TimeoutSeconds = 30
	return cfg
}

func loadRules(rulesPath string) (*rules.Set, error) {
	return rules.LoadFromEnv(rulesPath)
}

// cancelOnInterrupt returns a context cancelled on SIGINT/SIGTERM, and a
// stop func the caller should defer to release the signal handler.
func cancelOnInterrupt(parent context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(parent)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, func() {
		signal.Stop(sigCh)
		cancel()
	}
}
