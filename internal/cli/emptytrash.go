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
	"github.com/sweepd/sweepd/internal/remover"
)

// EmptyTrashCmd empties ~/.Trash and invalidates the home directory's
// cached size.
var EmptyTrashCmd = &cobra.Command{
	Use:   "empty-trash",
	Short: "Empty the Trash and invalidate cached sizes",
	RunE:  runEmptyTrash,
}

func init() {
	EmptyTrashCmd.Flags().String("config", "", "path to daemon config file")
}

func runEmptyTrash(cmd *cobra.Command, _ []string) error {
	configPath, _ := cmd.Flags().GetString("config")

	e, err := newEnv(configPath)
	if err != nil {
		return err
	}

	db, err := audit.Open(e.cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("open audit db: %w", err)
	}
	defer db.Close()

	ctx, stop := cancelOnInterrupt(cmd.Context())
	defer stop()

	rm := remover.New(e.home, e.cache, e.policies, db, e.logger)

	var result remover.Result
	var opErr error
	done := make(chan struct{})
	_, err = e.registry.Start(ctx, operations.KindEmptyTrash, 1, func(ctx context.Context, op *operations.Operation) (int64, error) {
		defer close(done)
		r, err := rm.EmptyTrash(ctx)
		result = r
		opErr = err
		op.Update(1, 1, "trash emptied")
		return r.BytesFreed, err
	})
	if err != nil {
		return err
	}
	<-done

	if opErr != nil {
		if errs.Is(opErr, errs.Cancelled) {
			fmt.Fprintf(cmd.OutOrStdout(), "cancelled after freeing %s\n", humanize.Bytes(uint64(result.BytesFreed)))
			os.Exit(exitcodes.Cancelled)
			return nil
		}
		return opErr
	}

	fmt.Fprintf(cmd.OutOrStdout(), "emptied trash: %d items, freed %s\n", result.ItemsRemoved, humanize.Bytes(uint64(result.BytesFreed)))
	return nil
}
