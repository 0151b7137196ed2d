package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/sweepd/sweepd/internal/duplicates"
	"github.com/sweepd/sweepd/internal/errs"
	"github.com/sweepd/sweepd/internal/exitcodes"
	"github.com/sweepd/sweepd/internal/operations"
)

// DuplicatesCmd finds duplicate files under the given roots.
var DuplicatesCmd = &cobra.Command{
	Use:   "duplicates [paths...]",
	Short: "Find duplicate files under the given paths",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runDuplicates,
}

func init() {
	DuplicatesCmd.Flags().String("config", "", "path to daemon config file")
	DuplicatesCmd.Flags().Bool("json", false, "print groups as JSON")
	DuplicatesCmd.Flags().Duration("budget", 12*time.Second, "time budget for the scan")
}

func runDuplicates(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	asJSON, _ := cmd.Flags().GetBool("json")
	budget, _ := cmd.Flags().GetDuration("budget")

	e, err := newEnv(configPath)
	if err != nil {
		return err
	}

	var files []duplicates.File
	for _, root := range args {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if d.IsDir() || !d.Type().IsRegular() {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return nil
			}
			files = append(files, duplicates.File{Path: path, Size: info.Size(), ModTime: info.ModTime()})
			return nil
		})
		if err != nil {
			e.logger.Warn("walk failed", "root", root, "error", err)
		}
	}

	ctx, stop := cancelOnInterrupt(cmd.Context())
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	finder := duplicates.New()

	var groups []duplicates.Group
	var findErr error
	done := make(chan struct{})
	_, err = e.registry.Start(ctx, operations.KindDuplicates, int64(len(files)), func(ctx context.Context, op *operations.Operation) (int64, error) {
		defer close(done)
		g, err := finder.Find(ctx, files)
		groups = g
		findErr = err
		op.Update(int64(len(files)), int64(len(files)), "duplicate scan complete")
		return 0, err
	})
	if err != nil {
		return err
	}
	<-done

	if findErr != nil {
		if errs.Is(findErr, errs.Cancelled) {
			fmt.Fprintln(cmd.OutOrStdout(), "cancelled")
			os.Exit(exitcodes.Cancelled)
			return nil
		}
		return findErr
	}

	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(groups)
	}

	out := cmd.OutOrStdout()
	var wasted int64
	for _, group := range groups {
		fmt.Fprintf(out, "%s x%d (keep %s)\n", humanize.Bytes(uint64(group.Size)), len(group.Files), group.RecommendedKeep)
		for _, f := range group.Files {
			marker := " "
			if f.Path == group.RecommendedKeep {
				marker = "*"
			}
			fmt.Fprintf(out, "  %s %s\n", marker, f.Path)
		}
		wasted += group.Size * int64(len(group.Files)-1)
	}
	fmt.Fprintf(out, "\n%d duplicate groups, %s reclaimable\n", len(groups), humanize.Bytes(uint64(wasted)))
	return nil
}
