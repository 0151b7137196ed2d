// Package remover implements the Remover: trash-first move with
// uniquification, privileged-retry for permission-denied batches, and
// Dir-Size Cache invalidation on success. Grounded on
// internal/cleanup/cleanup.go's Cleaner (dry-run flag, structured
// per-item logging, a pluggable Deleter-shaped abstraction, and
// database recording of every outcome), generalized from "just os.Remove"
// to the spec's trash-first / uniquify / privileged-retry contract.
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

	"github.com/sweepd/sweepd/internal/audit"
	"github.com/sweepd/sweepd/internal/category"
	"github.com/sweepd/sweepd/internal/dircache"
	"github.com/sweepd/sweepd/internal/errs"
	"github.com/sweepd/sweepd/internal/fsops"
	"github.com/sweepd/sweepd/internal/pathctx"
)

// Logger is the structured logger dependency, same shape used
// throughout the pipeline.
type Logger interface {
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

// Trasher abstracts the OS trash facility so it can be bypassed under
// SWEEPD_DISABLE_OSA in tests, matching the teacher's *_DISABLE_OSA
// test-mode contract.
type Trasher interface {
	MoveToTrash(path string) error
}

// Item is one candidate the caller has confirmed for removal.
type Item struct {
	Path      string
	Category  string
	Size      int64
	Score     int
}

// PathError is one per-path removal failure.
type PathError struct {
	Path string
	Err  error
}

// Result is the Remover's output.
type Result struct {
	BytesFreed    int64
	ItemsRemoved  int
	Errors        []PathError
}

// Remover performs trash-first removal.
type Remover struct {
	trasher  Trasher
	deleter  fsops.Deleter
	cache    *dircache.Cache
	policies category.Policies
	audit    *audit.DB
	logger   Logger
	homeDir  string
	// LowSafetyMode lets the caller opt into direct deletion even when
	// the category's direct_delete_threshold isn't met.
	LowSafetyMode bool
}

// New creates a Remover.
func New(homeDir string, cache *dircache.Cache, policies category.Policies, db *audit.DB, logger Logger) *Remover {
	if logger == nil {
		logger = nopLogger{}
	}
	return &Remover{
		trasher:  newTrasher(),
		deleter:  fsops.OSDeleter{},
		cache:    cache,
		policies: policies,
		audit:    db,
		logger:   logger,
		homeDir:  homeDir,
	}
}

// EmptyTrash deletes every item currently in ~/.Trash, aggregating
// freed bytes and invalidating the home directory's cached size.
func (r *Remover) EmptyTrash(ctx context.Context) (Result, error) {
	var result Result

	trashDir := filepath.Join(r.homeDir, ".Trash")
	entries, err := os.ReadDir(trashDir)
	if err != nil {
		if os.IsNotExist(err) {
			return result, nil
		}
		return result, fmt.Errorf("read trash dir: %w", errs.TransientIO)
	}

	for _, entry := range entries {
		select {
		case <-ctx.Done():
			return result, errs.Cancelled
		default:
		}

		full := filepath.Join(trashDir, entry.Name())
		size := dirEntrySize(full, entry)

		var rmErr error
		if entry.IsDir() {
			rmErr = r.deleter.RemoveAll(full)
		} else {
			rmErr = r.deleter.Remove(full)
		}
		if rmErr != nil {
			result.Errors = append(result.Errors, PathError{Path: full, Err: rmErr})
			continue
		}
		result.BytesFreed += size
		result.ItemsRemoved++
	}

	if r.cache != nil {
		r.cache.Invalidate(r.homeDir)
	}
	return result, nil
}

func dirEntrySize(path string, entry os.DirEntry) int64 {
	if entry.IsDir() {
		var total int64
		filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
			if err == nil && info.Mode().IsRegular() {
				total += info.Size()
			}
			return nil
		})
		return total
	}
	info, err := entry.Info()
	if err != nil {
		return 0
	}
	return info.Size()
}

// Remove processes items in order, honoring cancellation at each item
// boundary and once before the privileged retry batch.
func (r *Remover) Remove(ctx context.Context, items []Item) (Result, error) {
	var result Result
	var permissionDenied []Item

	for _, item := range items {
		select {
		case <-ctx.Done():
			return result, errs.Cancelled
		default:
		}

		size, err := r.removeOne(item)
		switch {
		case err == nil:
			result.BytesFreed += size
			result.ItemsRemoved++
			r.invalidate(item.Path)
			r.record(item, true, "")
		case errs.Is(err, errs.NotFound):
			// Idempotent: already gone counts as success, zero bytes freed.
			result.ItemsRemoved++
			r.record(item, true, "not_found")
		case errs.Is(err, errs.PermissionDenied):
			permissionDenied = append(permissionDenied, item)
		default:
			result.Errors = append(result.Errors, PathError{Path: item.Path, Err: err})
			r.record(item, false, err.Error())
		}
	}

	if len(permissionDenied) > 0 {
		select {
		case <-ctx.Done():
			return result, errs.Cancelled
		default:
		}
		r.privilegedRetry(permissionDenied, &result)
	}

	return result, nil
}

func (r *Remover) removeOne(item Item) (int64, error) {
	info, statErr := os.Lstat(item.Path)
	if statErr != nil {
		if os.IsNotExist(statErr) {
			return 0, fmt.Errorf("%s: %w", item.Path, errs.NotFound)
		}
		return 0, fmt.Errorf("stat %s: %w", item.Path, errs.TransientIO)
	}
	size := item.Size
	if size == 0 && !info.IsDir() {
		size = info.Size()
	}

	trashErr := r.trasher.MoveToTrash(item.Path)
	if trashErr == nil {
		return size, nil
	}
	r.logger.Warn("trash move failed, considering direct removal", "path", item.Path, "err", trashErr)

	pol := r.policies.For(item.Category)
	if item.Score < pol.DirectDeleteThreshold && !r.LowSafetyMode {
		return 0, fmt.Errorf("%s: trash failed and direct delete not eligible: %w", item.Path, trashErr)
	}

	var err error
	if info.IsDir() {
		err = r.deleter.RemoveAll(item.Path)
	} else {
		err = r.deleter.Remove(item.Path)
	}
	if err != nil {
		if os.IsNotExist(err) {
			return 0, fmt.Errorf("%s: %w", item.Path, errs.NotFound)
		}
		if os.IsPermission(err) {
			return 0, fmt.Errorf("%s: %w", item.Path, errs.PermissionDenied)
		}
		return 0, fmt.Errorf("%s: %w", item.Path, errs.TransientIO)
	}
	return size, nil
}

// privilegedRetry batches permission-denied items that are within the
// user's home into one elevation prompt, per §4.6. Paths outside home
// are excluded and surfaced as errors directly.
func (r *Remover) privilegedRetry(items []Item, result *Result) {
	var inHome []Item
	for _, item := range items {
		if pathctx.HasPrefixDir(item.Path, r.homeDir) {
			inHome = append(inHome, item)
		} else {
			result.Errors = append(result.Errors, PathError{Path: item.Path, Err: errs.PermissionDenied})
		}
	}
	if len(inHome) == 0 {
		return
	}

	paths := make([]string, len(inHome))
	for i, item := range inHome {
		paths[i] = item.Path
	}

	if err := runPrivilegedRemoval(paths); err != nil {
		r.logger.Error("privileged elevation declined or failed", "err", err)
		for _, item := range inHome {
			result.Errors = append(result.Errors, PathError{Path: item.Path, Err: err})
		}
		return
	}

	for _, item := range inHome {
		if _, err := os.Lstat(item.Path); os.IsNotExist(err) {
			result.ItemsRemoved++
			result.BytesFreed += item.Size
			r.invalidate(item.Path)
			r.record(item, true, "privileged_retry")
		} else {
			result.Errors = append(result.Errors, PathError{Path: item.Path, Err: errs.PermissionDenied})
		}
	}
}

func (r *Remover) invalidate(path string) {
	if r.cache == nil {
		return
	}
	r.cache.InvalidateAncestors(path, r.homeDir)
}

func (r *Remover) record(item Item, success bool, errMsg string) {
	if r.audit == nil {
		return
	}
	_ = r.audit.RecordRemoval(audit.Row{
		Path:      item.Path,
		Category:  item.Category,
		Bytes:     item.Size,
		RemovedAt: time.Now(),
		Trashed:   success && errMsg != "not_found",
		Error:     errMsg,
	})
}

// runPrivilegedRemoval shells out to a single admin-elevated removal of
// every path in one osascript "with administrator privileges" prompt,
// matching the single-prompt batch contract in §4.6. Disabled under
// SWEEPD_DISABLE_OSA.
func runPrivilegedRemoval(paths []string) error {
	if os.Getenv("SWEEPD_DISABLE_OSA") != "" {
		return fmt.Errorf("osa disabled: %w", errs.PermissionDenied)
	}

	quoted := make([]string, len(paths))
	for i, p := range paths {
		quoted[i] = strconv.Quote(p)
	}
	shellCmd := "rm -rf -- " + strings.Join(quoted, " ")
	script := fmt.Sprintf(`do shell script "%s" with administrator privileges`, strings.ReplaceAll(shellCmd, `"`, `\"`))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	cmd := exec.CommandContext(ctx, "osascript", "-e", script)
	return cmd.Run()
}
