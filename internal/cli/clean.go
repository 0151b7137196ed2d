package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/sweepd/sweepd/internal/audit"
	"github.com/sweepd/sweepd/internal/errs"
	"github.com/sweepd/sweepd/internal/exitcodes"
	"github.com/sweepd/sweepd/internal/operations"
	"github.com/sweepd/sweepd/internal/pipeline"
	"github.com/sweepd/sweepd/internal/remover"
	"github.com/sweepd/sweepd/internal/telemetry"
	"github.com/sweepd/sweepd/internal/validator"
)

// CleanCmd validates and removes the candidates at the given paths (or,
// with --auto, every auto-select candidate from the last scan).
var CleanCmd = &cobra.Command{
	Use:   "clean [paths...]",
	Short: "Validate and remove candidates from the last scan",
	RunE:  runClean,
}

func init() {
	CleanCmd.Flags().String("config", "", "path to daemon config file")
	CleanCmd.Flags().Bool("auto", false, "remove every auto-select candidate instead of named paths")
	CleanCmd.Flags().Bool("force", false, "proceed even if the validator only requires confirmation, not when it blocks")
}

func runClean(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	auto, _ := cmd.Flags().GetBool("auto")
	force, _ := cmd.Flags().GetBool("force")

	if !auto && len(args) == 0 {
		return fmt.Errorf("specify paths to clean or pass --auto")
	}

	e, err := newEnv(configPath)
	if err != nil {
		return err
	}

	report, err := pipeline.LoadSnapshot(e.cfg.SnapshotPath)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	byPath := report.ByPath()

	var selected []pipeline.Candidate
	if auto {
		for _, c := range report.Candidates {
			if c.AutoSelect && c.SafeToDelete {
				selected = append(selected, c)
			}
		}
	} else {
		for _, p := range args {
			c, ok := byPath[p]
			if !ok {
				return fmt.Errorf("%s was not in the last scan; run scan again", p)
			}
			selected = append(selected, c)
		}
	}
	if len(selected) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "nothing to clean")
		return nil
	}

	ctx, stop := cancelOnInterrupt(cmd.Context())
	defer stop()

	paths := make([]string, len(selected))
	for i, c := range selected {
		paths[i] = c.Path
	}
	v := validator.New(e.home)
	vreport := v.Validate(ctx, paths)

	var items []remover.Item
	var blocked []string
	for _, c := range selected {
		state := vreport.FileStates[c.Path]
		switch state {
		case validator.Ready:
			items = append(items, remover.Item{Path: c.Path, Category: c.Category, Size: c.SizeBytes, Score: c.SafetyScore})
		case validator.RequiresConfirmation:
			if force {
				items = append(items, remover.Item{Path: c.Path, Category: c.Category, Size: c.SizeBytes, Score: c.SafetyScore})
			} else {
				blocked = append(blocked, fmt.Sprintf("%s: requires confirmation (pass --force)", c.Path))
			}
		default:
			blocked = append(blocked, fmt.Sprintf("%s: %s", c.Path, state.String()))
		}
	}
	for _, w := range vreport.Warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", w)
	}
	for _, b := range blocked {
		fmt.Fprintf(cmd.ErrOrStderr(), "skipped: %s\n", b)
	}
	if len(items) == 0 {
		os.Exit(exitcodes.SafetyViolation)
	}

	db, err := audit.Open(e.cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("open audit db: %w", err)
	}
	defer db.Close()

	store, err := telemetry.Open(e.cfg.TelemetryPath)
	if err != nil {
		return fmt.Errorf("open telemetry: %w", err)
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
		op.Update(int64(len(items)), int64(len(items)), "clean complete")
		return r.BytesFreed, err
	})
	if err != nil {
		return err
	}
	<-done

	for _, item := range items {
		store.RecordSelection(item.Category, true)
	}
	if err := store.Persist(); err != nil {
		e.logger.Warn("persist telemetry failed", "error", err)
	}

	if removeErr != nil && errs.Is(removeErr, errs.Cancelled) {
		fmt.Fprintf(cmd.OutOrStdout(), "cancelled after freeing %s\n", humanize.Bytes(uint64(result.BytesFreed)))
		os.Exit(exitcodes.Cancelled)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "removed %d items, freed %s\n", result.ItemsRemoved, humanize.Bytes(uint64(result.BytesFreed)))
	for _, pe := range result.Errors {
		fmt.Fprintf(cmd.ErrOrStderr(), "error: %s: %v\n", pe.Path, pe.Err)
	}
	if len(result.Errors) > 0 {
		os.Exit(exitcodes.RuntimeError)
	}
	return nil
}
