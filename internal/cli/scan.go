package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/sweepd/sweepd/internal/errs"
	"github.com/sweepd/sweepd/internal/exitcodes"
	"github.com/sweepd/sweepd/internal/operations"
	"github.com/sweepd/sweepd/internal/pipeline"
	"github.com/sweepd/sweepd/internal/telemetry"
)

// ScanCmd runs the scan engine, risk analyzer, safety scorer, and
// category policy over the configured rule set and writes the result
// to the configured snapshot path for list-candidates/clean to read.
var ScanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan configured rule paths and score candidates for deletion",
	RunE:  runScan,
}

func init() {
	ScanCmd.Flags().String("config", "", "path to daemon config file")
	ScanCmd.Flags().Bool("json", false, "print the report as JSON")
}

func runScan(cmd *cobra.Command, _ []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	asJSON, _ := cmd.Flags().GetBool("json")

	e, err := newEnv(configPath)
	if err != nil {
		return err
	}

	ctx, stop := cancelOnInterrupt(cmd.Context())
	defer stop()

	report, err := scanOnce(ctx, e)
	if err != nil {
		if errs.Is(err, errs.Cancelled) {
			fmt.Fprintln(cmd.OutOrStdout(), "cancelled")
			os.Exit(exitcodes.Cancelled)
		}
		return err
	}

	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	printReport(cmd, report)
	return nil
}

// scanOnce runs one scan cycle: rule load, scan+score, snapshot
// persistence, and telemetry update. Shared by the scan and serve
// commands so a periodic loop does exactly what a single invocation
// does.
func scanOnce(ctx context.Context, e *env) (pipeline.Report, error) {
	set, err := loadRules(e.cfg.RulesPath)
	if err != nil {
		return pipeline.Report{}, fmt.Errorf("load rules: %w", err)
	}

	store, err := telemetry.Open(e.cfg.TelemetryPath)
	if err != nil {
		return pipeline.Report{}, fmt.Errorf("open telemetry: %w", err)
	}

	var report pipeline.Report
	var scanErr error
	done := make(chan struct{})

	_, err = e.registry.Start(ctx, operations.KindScan, int64(len(set.Rules)), func(ctx context.Context, op *operations.Operation) (int64, error) {
		defer close(done)
		started := time.Now()
		r, err := pipeline.Scan(ctx, set, e.policies, e.cache, e.logger)
		if err != nil {
			scanErr = err
			return 0, err
		}
		report = r
		op.Update(int64(len(set.Rules)), int64(len(set.Rules)), "scan complete")
		store.RecordScan(time.Since(started).Milliseconds())
		return 0, nil
	})
	if err != nil {
		return pipeline.Report{}, err
	}
	<-done
	if scanErr != nil {
		return pipeline.Report{}, scanErr
	}

	if err := store.Persist(); err != nil {
		e.logger.Warn("persist telemetry failed", "error", err)
	}
	if err := pipeline.SaveSnapshot(e.cfg.SnapshotPath, report); err != nil {
		return pipeline.Report{}, fmt.Errorf("save snapshot: %w", err)
	}
	return report, nil
}

func printReport(cmd *cobra.Command, report pipeline.Report) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "scanned %s\n\n", report.ScannedAt.Format(time.RFC3339))
	for _, s := range report.Summaries {
		fmt.Fprintf(out, "%-28s %6d items  %10s\n", s.Category, s.Count, humanize.Bytes(uint64(s.TotalSize)))
	}
	fmt.Fprintf(out, "\n%d candidates total\n", len(report.Candidates))
}
