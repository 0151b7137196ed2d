// Command sweepd is the disk-cleanup pipeline's CLI entry point: scan,
// list-candidates, clean, empty-trash, duplicates, and serve, each a
// thin cobra wrapper around internal/cli and internal/pipeline.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sweepd/sweepd/internal/cli"
)

var rootCmd = &cobra.Command{
	Use:   "sweepd",
	Short: "Safety-scored disk cleanup for macOS",
	Long:  `sweepd scans configured directories, scores what it finds for deletion safety, and removes only what the safety policy allows.`,
}

func init() {
	rootCmd.AddCommand(cli.ScanCmd)
	rootCmd.AddCommand(cli.ListCandidatesCmd)
	rootCmd.AddCommand(cli.CleanCmd)
	rootCmd.AddCommand(cli.EmptyTrashCmd)
	rootCmd.AddCommand(cli.DuplicatesCmd)
	rootCmd.AddCommand(cli.ServeCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
