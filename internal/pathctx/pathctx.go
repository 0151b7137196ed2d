// Package pathctx builds the lazy, normalized path metadata that every
// analyzer in the safety pipeline consumes. It is grounded on
// internal/safety's NormalizePath/hasPathPrefix family (path cleaning,
// traversal/escape detection) generalized into a reusable value type
// instead of a validator-only helper set.
package pathctx

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	securejoin "github.com/cyphar/filepath-securejoin"
)

// Context is the immutable, lazily-populated view of one filesystem path
// that the Risk Analyzer, Safety Scorer, and validators all read from.
// No component holds a back-pointer into Context; each produces a value
// from it and moves on.
type Context struct {
	Original string
	Abs      string
	Lower    string
	// Segments holds each path component with both its original and
	// lowercased form, mirroring the segment-wise matching the Risk
	// Analyzer's signal tables need.
	Segments []Segment

	once     sync.Once
	info     os.FileInfo
	infoErr  error
}

// Segment is one path component in both forms.
type Segment struct {
	Raw   string
	Lower string
}

// New builds a Context for path. path need not exist; metadata is
// resolved lazily on first call to Info().
func New(path string) *Context {
	abs := path
	if a, err := filepath.Abs(path); err == nil {
		abs = a
	}
	abs = filepath.Clean(abs)
	lower := strings.ToLower(abs)

	parts := strings.Split(filepath.ToSlash(abs), "/")
	segments := make([]Segment, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		segments = append(segments, Segment{Raw: p, Lower: strings.ToLower(p)})
	}

	return &Context{
		Original: path,
		Abs:      abs,
		Lower:    lower,
		Segments: segments,
	}
}

// Info resolves and memoizes os.Lstat for the path. It never follows a
// trailing symlink, matching the scan engine's "never descend into,
// never report" symlink rule.
func (c *Context) Info() (os.FileInfo, error) {
	c.once.Do(func() {
		c.info, c.infoErr = os.Lstat(c.Abs)
	})
	return c.info, c.infoErr
}

// IsSymlink reports whether the path itself is a symbolic link.
func (c *Context) IsSymlink() bool {
	info, err := c.Info()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeSymlink != 0
}

// ContainsAny reports whether the lowercased full path contains any of
// the given lowercased substrings.
func (c *Context) ContainsAny(substrings ...string) bool {
	for _, s := range substrings {
		if strings.Contains(c.Lower, s) {
			return true
		}
	}
	return false
}

// HasSegmentSequence reports whether the lowercased path segments
// contain the given sequence contiguously, e.g. []string{"library",
// "caches"} matches ".../Library/Caches/...".
func (c *Context) HasSegmentSequence(seq ...string) bool {
	if len(seq) == 0 || len(seq) > len(c.Segments) {
		return false
	}
	for i := 0; i+len(seq) <= len(c.Segments); i++ {
		match := true
		for j, want := range seq {
			if c.Segments[i+j].Lower != want {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

// HasPrefixDir reports whether path lies at or under dir (both cleaned),
// the same prefix semantics the validator uses for allowed-roots and
// protected-path checks.
func HasPrefixDir(path, dir string) bool {
	path = filepath.Clean(path)
	dir = filepath.Clean(dir)
	if dir == string(os.PathSeparator) {
		return true
	}
	if path == dir {
		return true
	}
	return strings.HasPrefix(path, dir+string(os.PathSeparator))
}

// DetectTraversal blocks any ".." segment in raw, unnormalized input.
func DetectTraversal(raw string) bool {
	for _, p := range strings.Split(filepath.ToSlash(raw), "/") {
		if p == ".." {
			return true
		}
	}
	return false
}

// ResolveWithinRoot securely joins candidate onto root, refusing to
// escape root even through a chain of symlinks. Grounded on
// cyphar/filepath-securejoin, used in place of the teacher's
// EvalSymlinks-then-compare pattern for the Validator's escape check.
func ResolveWithinRoot(root, candidate string) (string, error) {
	return securejoin.SecureJoin(root, strings.TrimPrefix(candidate, root))
}

// ExpandHome replaces a leading "~" with the given home directory, the
// rule-set contract's `~/x` path form.
func ExpandHome(path, home string) string {
	if path == "~" {
		return home
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	return path
}
