package cli

import (
	"encoding/json"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/sweepd/sweepd/internal/pipeline"
)

// ListCandidatesCmd prints the candidates from the most recent scan's
// snapshot without re-walking the filesystem.
var ListCandidatesCmd = &cobra.Command{
	Use:   "list-candidates",
	Short: "List candidates from the last scan",
	RunE:  runListCandidates,
}

func init() {
	ListCandidatesCmd.Flags().String("config", "", "path to daemon config file")
	ListCandidatesCmd.Flags().Bool("json", false, "print candidates as JSON")
	ListCandidatesCmd.Flags().String("category", "", "filter by category")
	ListCandidatesCmd.Flags().Bool("auto-select-only", false, "only show candidates the scorer marked auto-select")
}

func runListCandidates(cmd *cobra.Command, _ []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	asJSON, _ := cmd.Flags().GetBool("json")
	categoryFilter, _ := cmd.Flags().GetString("category")
	autoOnly, _ := cmd.Flags().GetBool("auto-select-only")

	e, err := newEnv(configPath)
	if err != nil {
		return err
	}

	report, err := pipeline.LoadSnapshot(e.cfg.SnapshotPath)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}

	candidates := report.Candidates
	if categoryFilter != "" || autoOnly {
		filtered := candidates[:0:0]
		for _, c := range candidates {
			if categoryFilter != "" && c.Category != categoryFilter {
				continue
			}
			if autoOnly && !c.AutoSelect {
				continue
			}
			filtered = append(filtered, c)
		}
		candidates = filtered
	}

	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(candidates)
	}

	out := cmd.OutOrStdout()
	for _, c := range candidates {
		auto := " "
		if c.AutoSelect {
			auto = "*"
		}
		fmt.Fprintf(out, "%s %3d %-22s %10s  %s\n", auto, c.SafetyScore, c.Category, humanize.Bytes(uint64(c.SizeBytes)), c.Path)
	}
	fmt.Fprintf(out, "\n%d candidates (%s old)\n", len(candidates), humanize.Time(report.ScannedAt))
	return nil
}
