// Package procprobe implements the Process/Usage Probe: it snapshots
// running processes and their open file handles so the Pre-Deletion
// Validator can detect in-use candidates. Grounded on the domain pack's
// declared use of shirou/gopsutil/v4 (tw93/mole's go.mod) as the
// portable process-inspection facility, in place of shelling out to
// lsof the way a single-OS tool might.
package procprobe

import (
	"context"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v4/process"
)

// Probe snapshots open file handles across running processes.
type Probe struct {
	// Timeout bounds each process enumeration call, matching the 3-5s
	// external-probe timeout budget in SPEC_FULL.md §5.
	Timeout time.Duration
}

// New creates a Probe with the spec's default timeout.
func New() *Probe {
	return &Probe{Timeout: 4 * time.Second}
}

// OpenPaths returns the set of absolute paths currently held open by any
// running process, best-effort: processes that can't be inspected
// (permission, already exited) are skipped rather than failing the
// whole probe, matching the portable-fallback language in §4.5.
func (p *Probe) OpenPaths(ctx context.Context) (map[string]bool, error) {
	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}

	open := make(map[string]bool)
	for _, proc := range procs {
		select {
		case <-ctx.Done():
			return open, nil
		default:
		}
		files, err := proc.OpenFilesWithContext(ctx)
		if err != nil {
			continue
		}
		for _, f := range files {
			open[strings.TrimSpace(f.Path)] = true
		}
	}
	return open, nil
}

// IsOpen reports whether path is held open by a process in the snapshot.
func IsOpen(open map[string]bool, path string) bool {
	return open[path]
}
