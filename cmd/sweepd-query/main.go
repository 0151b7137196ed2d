// Command sweepd-query inspects the removal audit database sweepd
// writes to on every clean/empty-trash run. Adapted from the teacher's
// storage-sage-query: same flag-driven recent/largest/path query modes,
// narrowed to the columns internal/audit.Row actually records.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/sweepd/sweepd/internal/audit"
	"github.com/sweepd/sweepd/internal/exitcodes"
)

func main() {
	dbPath := flag.String("db", "", "path to the removal audit database (required)")
	recent := flag.Int("recent", 0, "show N most recent removals")
	largest := flag.Int("largest", 0, "show N largest removals")
	category := flag.String("category", "", "filter by category")
	pathSubstr := flag.String("path", "", "filter by path substring")
	failedOnly := flag.Bool("failed", false, "show only removals that recorded an error")
	jsonOutput := flag.Bool("json", false, "output as JSON")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "sweepd-query: -db is required")
		flag.Usage()
		os.Exit(exitcodes.InvalidConfig)
	}

	db, err := audit.Open(*dbPath)
	if err != nil {
		log.Fatalf("ERROR: failed to open database %s: %v", *dbPath, err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("ERROR: failed to close database: %v", err)
		}
	}()

	limit := *recent
	if limit == 0 {
		limit = 1000
	}
	rows, err := db.Recent(limit)
	if err != nil {
		log.Fatalf("ERROR: failed to query removals: %v", err)
	}

	rows = filterRows(rows, *category, *pathSubstr, *failedOnly)
	if *largest > 0 {
		sort.Slice(rows, func(i, j int) bool { return rows[i].Bytes > rows[j].Bytes })
		if len(rows) > *largest {
			rows = rows[:*largest]
		}
	}

	if *jsonOutput {
		data, _ := json.MarshalIndent(rows, "", "  ")
		fmt.Println(string(data))
		return
	}
	printRows(rows)
}

func filterRows(rows []audit.Row, category, pathSubstr string, failedOnly bool) []audit.Row {
	if category == "" && pathSubstr == "" && !failedOnly {
		return rows
	}
	filtered := rows[:0:0]
	for _, r := range rows {
		if category != "" && r.Category != category {
			continue
		}
		if pathSubstr != "" && !strings.Contains(r.Path, pathSubstr) {
			continue
		}
		if failedOnly && r.Error == "" {
			continue
		}
		filtered = append(filtered, r)
	}
	return filtered
}

func printRows(rows []audit.Row) {
	if len(rows) == 0 {
		fmt.Println("no records found")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tRemoved At\tCategory\tTrashed\tSize\tError\tPath")
	_, _ = fmt.Fprintln(w, "--\t----------\t--------\t-------\t----\t-----\t----")
	for _, r := range rows {
		errCol := r.Error
		if errCol == "" {
			errCol = "-"
		}
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%t\t%s\t%s\t%s\n",
			r.ID, r.RemovedAt.Format("2006-01-02 15:04:05"), r.Category, r.Trashed, humanize.Bytes(uint64(r.Bytes)), errCol, r.Path)
	}
	_ = w.Flush()
}
