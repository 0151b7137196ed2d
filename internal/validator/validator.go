// Package validator implements the Pre-Deletion Validator: it combines
// open-handle, dependency, backup-coverage, and criticality checks into
// a go/no-go verdict per candidate path. Directly grounded on
// internal/safety/validator.go's ValidateDeleteTarget pipeline shape
// (ordered checks, each returning a typed reason) and its
// IsProtectedPath substring table, extended with the system-library
// substring set from SPEC_FULL.md §4.5 and the usage/dependency/backup
// checks the teacher's validator doesn't perform at all.
package validator

import (
	"context"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/sweepd/sweepd/internal/depprobe"
	"github.com/sweepd/sweepd/internal/procprobe"
)

// FileState is the per-path validation outcome.
type FileState int

const (
	Ready FileState = iota
	RequiresConfirmation
	BlockedInUse
	BlockedSystemCritical
	BlockedPermissionDenied
	BlockedUserProtected
)

func (s FileState) String() string {
	switch s {
	case Ready:
		return "Ready"
	case RequiresConfirmation:
		return "RequiresConfirmation"
	case BlockedInUse:
		return "Blocked(InUse)"
	case BlockedSystemCritical:
		return "Blocked(SystemCritical)"
	case BlockedPermissionDenied:
		return "Blocked(PermissionDenied)"
	default:
		return "Blocked(UserProtected)"
	}
}

// Report is the Validator's output for one candidate batch.
type Report struct {
	IsSafe     bool
	Warnings   []string
	Errors     []string
	FileStates map[string]FileState
}

var criticalSubstrings = []string{
	"/system/library/corefoundation",
	"/system/library/frameworks",
	"/usr/lib/",
	"/usr/bin/",
	"/sbin/",
	"/bin/",
	".dylib",
	".framework",
	".kext",
}

// Validator runs the checks in §4.5 order.
type Validator struct {
	Procs        *procprobe.Probe
	Deps         *depprobe.Probe
	DepSearchRoots []string
	// BackupAvailable reports whether the platform backup service
	// (Time Machine) can be queried at all; when false the backup
	// check is skipped rather than treated as "not covered".
	BackupAvailable func() bool
	// BackupCovers reports whether path is excluded from or already
	// covered by a completed backup.
	BackupCovers func(ctx context.Context, path string) bool
}

// New creates a Validator with the standard probes.
func New(home string) *Validator {
	return &Validator{
		Procs:           procprobe.New(),
		Deps:            depprobe.New(home),
		DepSearchRoots:  []string{home},
		BackupAvailable: defaultBackupAvailable,
		BackupCovers:    defaultBackupCovers,
	}
}

// Validate checks every path in paths and produces a combined Report.
func (v *Validator) Validate(ctx context.Context, paths []string) Report {
	report := Report{IsSafe: true, FileStates: make(map[string]FileState, len(paths))}

	openFiles, err := v.Procs.OpenPaths(ctx)
	if err != nil {
		report.Warnings = append(report.Warnings, "process probe unavailable: "+err.Error())
		openFiles = map[string]bool{}
	}

	for _, path := range paths {
		state := Ready

		if procprobe.IsOpen(openFiles, path) {
			state = BlockedInUse
			report.IsSafe = false
			report.FileStates[path] = state
			continue
		}

		deps := v.Deps.Find(ctx, path, v.DepSearchRoots)
		if len(deps) > 0 {
			report.Warnings = append(report.Warnings, path+": has "+strconv.Itoa(len(deps))+" dependent reference(s)")
			state = RequiresConfirmation
		}

		if v.BackupAvailable != nil && v.BackupAvailable() {
			if v.BackupCovers == nil || !v.BackupCovers(ctx, path) {
				report.Warnings = append(report.Warnings, path+": not covered by a recent backup")
				if state == Ready {
					state = RequiresConfirmation
				}
			}
		}

		if isCritical(path) {
			state = BlockedSystemCritical
			report.IsSafe = false
		}

		report.FileStates[path] = state
	}

	return report
}

func isCritical(path string) bool {
	lower := strings.ToLower(path)
	for _, substr := range criticalSubstrings {
		if strings.Contains(lower, substr) {
			return true
		}
	}
	return false
}

func defaultBackupAvailable() bool {
	if runtime.GOOS != "darwin" {
		return false
	}
	_, err := exec.LookPath("tmutil")
	return err == nil
}

func defaultBackupCovers(ctx context.Context, path string) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	cmd := exec.CommandContext(ctx, "tmutil", "isexcluded", path)
	out, err := cmd.Output()
	if err != nil {
		return false
	}
	return strings.Contains(string(out), "Excluded")
}
