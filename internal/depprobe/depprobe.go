// Package depprobe implements the Dependency Probe: it locates symlinks
// pointing at a candidate path and launchd agent/daemon configuration
// files that reference the candidate's path string. The bounded-depth,
// time-budgeted search pattern is grounded on internal/disk/scanner.go's
// scanWithDu (context-scoped timeout, falling back gracefully on
// failure); the search itself is a pure-Go directory walk and runs no
// external command.
package depprobe

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Default search bounds, matching the 3-5s external-probe timeout
// budget and a conservative max depth for launchd/symlink discovery.
const (
	DefaultMaxDepth    = 6
	DefaultTimeBudget  = 4 * time.Second
)

// Probe finds filesystem dependents of a candidate path.
type Probe struct {
	MaxDepth   int
	TimeBudget time.Duration
	// LaunchAgentDirs are scanned for plists referencing a candidate's
	// path string. Defaults to the standard macOS launchd locations.
	LaunchAgentDirs []string
}

// New creates a Probe with the spec's default bounds and the standard
// macOS launchd search locations.
func New(home string) *Probe {
	return &Probe{
		MaxDepth:   DefaultMaxDepth,
		TimeBudget: DefaultTimeBudget,
		LaunchAgentDirs: []string{
			filepath.Join(home, "Library", "LaunchAgents"),
			"/Library/LaunchAgents",
			"/Library/LaunchDaemons",
			"/System/Library/LaunchAgents",
		},
	}
}

// Dependency describes one thing that refers to a candidate path.
type Dependency struct {
	Kind string // "symlink" or "launchd"
	From string // the referring path
}

// Find searches the probe's scan roots for anything referring to
// target, bounded by MaxDepth and TimeBudget. The search is cancelled
// when either the context or the internal deadline elapses — its
// resources (open file handles, directory walks) are released on
// return either way, matching the kill-on-drop requirement in §5.
func (p *Probe) Find(ctx context.Context, target string, searchRoots []string) []Dependency {
	ctx, cancel := context.WithTimeout(ctx, p.TimeBudget)
	defer cancel()

	var deps []Dependency
	deps = append(deps, p.findSymlinks(ctx, target, searchRoots)...)
	deps = append(deps, p.findLaunchdReferences(ctx, target)...)
	return deps
}

func (p *Probe) findSymlinks(ctx context.Context, target string, roots []string) []Dependency {
	var deps []Dependency
	for _, root := range roots {
		p.walkBounded(ctx, root, 0, func(path string, info os.FileInfo) {
			if info.Mode()&os.ModeSymlink == 0 {
				return
			}
			resolved, err := os.Readlink(path)
			if err != nil {
				return
			}
			if !filepath.IsAbs(resolved) {
				resolved = filepath.Join(filepath.Dir(path), resolved)
			}
			if filepath.Clean(resolved) == filepath.Clean(target) {
				deps = append(deps, Dependency{Kind: "symlink", From: path})
			}
		})
	}
	return deps
}

func (p *Probe) findLaunchdReferences(ctx context.Context, target string) []Dependency {
	var deps []Dependency
	for _, dir := range p.LaunchAgentDirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			select {
			case <-ctx.Done():
				return deps
			default:
			}
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".plist") {
				continue
			}
			full := filepath.Join(dir, entry.Name())
			data, err := os.ReadFile(full)
			if err != nil {
				continue
			}
			if strings.Contains(string(data), target) {
				deps = append(deps, Dependency{Kind: "launchd", From: full})
			}
		}
	}
	return deps
}

// walkBounded walks root up to MaxDepth, invoking visit for every
// entry, honoring ctx cancellation at each directory boundary.
func (p *Probe) walkBounded(ctx context.Context, root string, depth int, visit func(path string, info os.FileInfo)) {
	select {
	case <-ctx.Done():
		return
	default:
	}
	if depth > p.MaxDepth {
		return
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return
	}
	for _, entry := range entries {
		full := filepath.Join(root, entry.Name())
		info, err := os.Lstat(full)
		if err != nil {
			continue
		}
		visit(full, info)
		if info.IsDir() && info.Mode()&os.ModeSymlink == 0 {
			p.walkBounded(ctx, full, depth+1, visit)
		}
	}
}
