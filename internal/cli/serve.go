package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sweepd/sweepd/internal/audit"
	"github.com/sweepd/sweepd/internal/errs"
	"github.com/sweepd/sweepd/internal/metrics"
	"github.com/sweepd/sweepd/internal/operations"
	"github.com/sweepd/sweepd/internal/remover"
)

// ServeCmd runs the pipeline on the configured interval: scan, and when
// --auto-clean is set, remove every auto-select candidate each cycle.
// This is the long-running mode a host process would launch once and
// then drive through scan/list-candidates/clean as separate commands
// against the same data directory; it is not itself an IPC server.
var ServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run scans on the configured interval",
	RunE:  runServe,
}

func init() {
	ServeCmd.Flags().String("config", "", "path to daemon config file")
	ServeCmd.Flags().Bool("auto-clean", false, "remove auto-select candidates after each scan")
	ServeCmd.Flags().Bool("metrics", true, "start the Prometheus metrics server")
}

func runServe(cmd *cobra.Command, _ []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	autoClean, _ := cmd.Flags().GetBool("auto-clean")
	withMetrics, _ := cmd.Flags().GetBool("metrics")

	e, err := newEnv(configPath)
	if err != nil {
		return err
	}

	if withMetrics {
		metrics.Init()
		metrics.StartServer(e.cfg.PrometheusAddress(), e.logger.Logger)
		defer metrics.Shutdown(cmd.Context(), e.logger.Logger)
	}

	db, err := audit.Open(e.cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("open audit db: %w", err)
	}
	defer db.Close()

	ctx, stop := cancelOnInterrupt(cmd.Context())
	defer stop()

	ticker := time.NewTicker(e.cfg.Interval())
	defer ticker.Stop()

	if err := serveCycle(ctx, e, db, autoClean); err != nil && !errs.Is(err, errs.Cancelled) {
		e.logger.Error("scan cycle failed", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := serveCycle(ctx, e, db, autoClean); err != nil {
				if errs.Is(err, errs.Cancelled) {
					return nil
				}
				e.logger.Error("scan cycle failed", "error", err)
			}
		}
	}
}

func serveCycle(ctx context.Context, e *env, db *audit.DB, autoClean bool) error {
	report, err := scanOnce(ctx, e)
	if err != nil {
		return err
	}
	metrics.SetLastOperationKind("scan")
	metrics.RecordScanRun(time.Now().Unix())
	for _, s := range report.Summaries {
		metrics.RecordCategoryDeletion(s.Category, 0)
	}

	if !autoClean {
		return nil
	}

	var items []remover.Item
	for _, c := range report.Candidates {
		if c.AutoSelect && c.SafeToDelete {
			items = append(items, remover.Item{Path: c.Path, Category: c.Category, Size: c.SizeBytes, Score: c.SafetyScore})
		}
	}
	if len(items) == 0 {
		return nil
	}

	rm := remover.New(e.home, e.cache, e.policies, db, e.logger)
	var result remover.Result
	var removeErr error
	done := make(chan struct{})
	_, err = e.registry.Start(ctx, operations.KindClean, int64(len(items)), func(ctx context.Context, op *operations.Operation) (int64, error) {
		defer close(done)
		r, err := rm.Remove(ctx, items)
		result = r
		removeErr = err
		op.Update(int64(len(items)), int64(len(items)), "auto-clean complete")
		return r.BytesFreed, err
	})
	if err != nil {
		return err
	}
	<-done
	for _, item := range items {
		metrics.RecordCategoryDeletion(item.Category, item.Size)
	}
	if len(result.Errors) > 0 {
		metrics.IncrementRemovalErrors("auto", int64(len(result.Errors)))
	}
	return removeErr
}
