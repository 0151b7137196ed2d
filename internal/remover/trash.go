package remover

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// osaTrasher moves files to ~/.Trash via Finder scripting (osascript),
// the macOS-native reversible delete. Falls back to a rename-based move
// when SWEEPD_DISABLE_OSA is set, matching the env-var contract in
// SPEC_FULL.md §6 used for tests that must not invoke OS scripting.
type osaTrasher struct {
	trashDir string
	disabled bool
}

func newTrasher() Trasher {
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.Getenv("HOME")
	}
	return &osaTrasher{
		trashDir: filepath.Join(home, ".Trash"),
		disabled: os.Getenv("SWEEPD_DISABLE_OSA") != "",
	}
}

func (t *osaTrasher) MoveToTrash(path string) error {
	if err := os.MkdirAll(t.trashDir, 0o755); err != nil {
		return err
	}

	dest := uniquify(t.trashDir, filepath.Base(path))

	if t.disabled {
		return os.Rename(path, dest)
	}

	script := fmt.Sprintf(
		`tell application "Finder" to delete POSIX file %s`,
		strconv.Quote(path),
	)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := exec.CommandContext(ctx, "osascript", "-e", script).Run(); err == nil {
		return nil
	}
	// Scripted trash failed (no Finder, CI sandbox, etc): fall back to a
	// plain rename-into-trash, still reversible, still trash-first.
	return os.Rename(path, dest)
}

// uniquify returns a destination path under dir for base that doesn't
// already exist, appending " (YYYYMMDD-HHMMSS-N)" before the extension
// and incrementing N until unique, per §4.6.
func uniquify(dir, base string) string {
	dest := filepath.Join(dir, base)
	if _, err := os.Lstat(dest); os.IsNotExist(err) {
		return dest
	}

	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	stamp := time.Now().Format("20060102-150405")

	for n := 1; ; n++ {
		candidate := fmt.Sprintf("%s (%s-%d)%s", stem, stamp, n, ext)
		dest = filepath.Join(dir, candidate)
		if _, err := os.Lstat(dest); os.IsNotExist(err) {
			return dest
		}
	}
}
