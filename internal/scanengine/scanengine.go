// Package scanengine walks a rule set and produces a deduplicated
// candidate list. It is grounded on internal/scan/scan.go's
// Scanner/Logger-interface shape (a logger injected by constructor, not
// a package global) and on ivoronin-dupedog's fan-out/fan-in walker for
// the concurrent traversal model, generalized here to one goroutine per
// rule via errgroup rather than per-directory, since rule roots are the
// natural parallelism unit for a declarative category scan.
package scanengine

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sweepd/sweepd/internal/dircache"
	"github.com/sweepd/sweepd/internal/errs"
	"github.com/sweepd/sweepd/internal/pathctx"
	"github.com/sweepd/sweepd/internal/rules"
)

// Logger is the structured logger interface every pipeline stage takes
// by injection, mirroring internal/scan.Logger.
type Logger interface {
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Debug(msg string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Debug(string, ...interface{}) {}

// Candidate is a discovered file or directory, pre-risk/pre-score.
type Candidate struct {
	Path     string
	Size     int64
	ModTime  time.Time
	IsDir    bool
	Category string
}

// CategoryAggregate is the per-category count/size summary.
type CategoryAggregate struct {
	Count     int
	TotalSize int64
}

// Result is the Scan Engine's output.
type Result struct {
	Candidates []Candidate
	Aggregates map[string]CategoryAggregate
}

// Engine walks a rule set against the filesystem.
type Engine struct {
	logger Logger
	cache  *dircache.Cache
	home   string
	// Parallel enables the errgroup-based per-rule fan-out described in
	// §4.1's concurrency section. Disabled, rules are walked in
	// declaration order on the calling goroutine, which is what the
	// idempotence and ordering property tests exercise directly.
	Parallel bool
}

// New creates an Engine. home is the user's home directory used to
// expand "~" roots; cache is the Dir-Size Cache used for directory
// candidate sizing.
func New(home string, cache *dircache.Cache, logger Logger) *Engine {
	if logger == nil {
		logger = nopLogger{}
	}
	return &Engine{logger: logger, cache: cache, home: home}
}

// dedup tracks reported paths and directory prefixes across the whole
// scan. Concurrent rule walkers share one instance guarded by a mutex —
// uniqueness is first-writer-wins for a given lowercased path.
type dedup struct {
	mu       sync.Mutex
	paths    map[string]bool
	prefixes []string
}

func newDedup() *dedup {
	return &dedup{paths: make(map[string]bool)}
}

// accept reports whether lowerPath may be reported as a new candidate,
// and if isDir, records its prefix so later descendants are suppressed.
func (d *dedup) accept(lowerPath string, isDir bool) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.paths[lowerPath] {
		return false
	}
	for _, prefix := range d.prefixes {
		if strings.HasPrefix(lowerPath, prefix) {
			return false
		}
	}

	d.paths[lowerPath] = true
	if isDir {
		prefix := lowerPath
		if !strings.HasSuffix(prefix, "/") {
			prefix += "/"
		}
		d.prefixes = append(d.prefixes, prefix)
	}
	return true
}

// Scan runs the rule set and returns a deduplicated candidate list.
// Cancellation surfaces as errs.Cancelled, never a partial result.
func (e *Engine) Scan(ctx context.Context, set *rules.Set) (Result, error) {
	dd := newDedup()
	var mu sync.Mutex
	result := Result{Aggregates: make(map[string]CategoryAggregate)}

	appendCandidate := func(c Candidate) {
		mu.Lock()
		defer mu.Unlock()
		result.Candidates = append(result.Candidates, c)
		agg := result.Aggregates[c.Category]
		agg.Count++
		agg.TotalSize += c.Size
		result.Aggregates[c.Category] = agg
	}

	runRule := func(rule rules.Rule) error {
		select {
		case <-ctx.Done():
			return errs.Cancelled
		default:
		}
		return e.scanRule(ctx, rule, dd, appendCandidate)
	}

	if e.Parallel {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(runtime.GOMAXPROCS(0))
		for _, rule := range set.Rules {
			rule := rule
			g.Go(func() error {
				select {
				case <-gctx.Done():
					return errs.Cancelled
				default:
				}
				return e.scanRule(gctx, rule, dd, appendCandidate)
			})
		}
		if err := g.Wait(); err != nil {
			return Result{}, err
		}
	} else {
		for _, rule := range set.Rules {
			if err := runRule(rule); err != nil {
				return Result{}, err
			}
		}
	}

	return result, nil
}

func (e *Engine) scanRule(ctx context.Context, rule rules.Rule, dd *dedup, appendCandidate func(Candidate)) error {
	wantDirs := rule.TargetsDirectories()

	for _, rawRoot := range rule.Paths {
		root := expandHome(rawRoot, e.home)
		if _, err := os.Stat(root); err != nil {
			continue // non-existent roots are skipped silently
		}

		if err := e.walk(ctx, root, root, rule, wantDirs, 0, dd, appendCandidate); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) walk(ctx context.Context, dir, root string, rule rules.Rule, wantDirs bool, depth int, dd *dedup, appendCandidate func(Candidate)) error {
	select {
	case <-ctx.Done():
		return errs.Cancelled
	default:
	}

	if depth > rule.MaxDepth {
		return nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		e.logger.Debug("scan: read dir failed", "path", dir, "err", err)
		return nil
	}

	for _, entry := range entries {
		full := filepath.Join(dir, entry.Name())

		info, err := os.Lstat(full)
		if err != nil {
			continue
		}
		if info.Mode()&os.ModeSymlink != 0 {
			continue // never descend into, never report symlinks
		}

		if entry.IsDir() {
			if wantDirs {
				if e.considerEntry(full, info, rule, true, dd, appendCandidate) {
					continue // accepted as a candidate; don't descend further
				}
			}
			if err := e.walk(ctx, full, root, rule, wantDirs, depth+1, dd, appendCandidate); err != nil {
				return err
			}
			continue
		}

		if !wantDirs {
			e.considerEntry(full, info, rule, false, dd, appendCandidate)
		}
	}

	return nil
}

// considerEntry applies the filter chain from §4.1 step 4 and, if the
// entry survives, attempts to register it with the dedup set. Returns
// true if the entry became a candidate.
func (e *Engine) considerEntry(path string, info os.FileInfo, rule rules.Rule, isDir bool, dd *dedup, appendCandidate func(Candidate)) bool {
	lower := strings.ToLower(path)

	for _, substr := range rule.Excludes {
		if strings.Contains(lower, strings.ToLower(substr)) {
			return false
		}
	}

	if len(rule.RequireSubpaths) > 0 {
		matched := false
		for _, sub := range rule.RequireSubpaths {
			if strings.Contains(lower, strings.ToLower(sub)) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	if !isDir && len(rule.Extensions) > 0 {
		ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
		allowed := false
		for _, e2 := range rule.Extensions {
			if strings.EqualFold(e2, ext) {
				allowed = true
				break
			}
		}
		if !allowed {
			return false
		}
	}

	if rule.MinAgeDays > 0 {
		ref := info.ModTime()
		if rule.UsesCtime() {
			if ct, ok := ctime(info); ok {
				ref = ct
			}
		}
		ageDays := time.Since(ref).Hours() / 24
		if ageDays < float64(rule.MinAgeDays) {
			return false
		}
	}

	var size int64
	if isDir {
		if e.cache != nil {
			s, err := e.cache.Size(path)
			if err != nil {
				return false
			}
			size = s
		}
	} else {
		size = info.Size()
	}

	if rule.MinSizeKB > 0 && size < rule.MinSizeKB*1024 {
		return false
	}

	if !dd.accept(lower, isDir) {
		return false
	}

	appendCandidate(Candidate{
		Path:     path,
		Size:     size,
		ModTime:  info.ModTime(),
		IsDir:    isDir,
		Category: rule.Name,
	})
	return true
}

func expandHome(path, home string) string {
	return pathctx.ExpandHome(path, home)
}
