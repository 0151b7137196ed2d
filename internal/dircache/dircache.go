// Package dircache memoizes recursive directory sizes, keyed by path and
// validated against the directory's current mtime plus a TTL. It is
// grounded on internal/disk/scanner.go's ScanCache (mtime+TTL cached
// scan results) generalized from a single global du-backed cache into an
// LRU-bounded, per-instance cache, and on the hyperscan.go mtime-keyed
// persisted cache for the "recompute only if mtime changed" rule.
// Concurrent recomputation of the same directory is collapsed with
// singleflight; a plain RWMutex cache still allows duplicate concurrent
// walks of the same cold path.
package dircache

import (
	"container/list"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultTTL is the cache entry lifetime. The exact value is not
// load-bearing per the spec's design notes; 120s was chosen to fit a
// typical candidate-review session, shorter than the teacher's 5-minute
// daemon-scan TTL because this cache backs interactive review rather
// than a background scheduler loop.
const DefaultTTL = 120 * time.Second

// DefaultCapacity bounds how many directory entries the cache retains.
const DefaultCapacity = 20000

// Entry is one Dir-Size Cache Entry per §3.
type Entry struct {
	Size        int64
	ComputedAt  time.Time
	SourceMtime time.Time
}

func (e Entry) valid(currentMtime time.Time, ttl time.Duration) bool {
	return e.SourceMtime.Equal(currentMtime) && time.Since(e.ComputedAt) < ttl
}

// Cache is an LRU-bounded, mtime- and TTL-validated directory size cache.
type Cache struct {
	mu       sync.Mutex
	ttl      time.Duration
	capacity int
	entries  map[string]*list.Element
	order    *list.List // front = most recently used
	group    singleflight.Group
}

type node struct {
	path  string
	entry Entry
}

// New creates a Cache with the given TTL and LRU capacity.
func New(ttl time.Duration, capacity int) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Cache{
		ttl:      ttl,
		capacity: capacity,
		entries:  make(map[string]*list.Element),
		order:    list.New(),
	}
}

// Size returns the recursive byte size of dir, consulting the cache
// first and computing (then caching) it on a miss or stale hit.
// Concurrent callers for the same dir share one computation.
func (c *Cache) Size(dir string) (int64, error) {
	canonical := filepath.Clean(dir)

	info, err := os.Stat(canonical)
	if err != nil {
		return 0, err
	}
	mtime := info.ModTime()

	if size, ok := c.lookup(canonical, mtime); ok {
		return size, nil
	}

	v, err, _ := c.group.Do(canonical, func() (interface{}, error) {
		if size, ok := c.lookup(canonical, mtime); ok {
			return size, nil
		}
		size, walkErr := recursiveSize(canonical)
		if walkErr != nil {
			return int64(0), walkErr
		}
		c.store(canonical, Entry{Size: size, ComputedAt: time.Now(), SourceMtime: mtime})
		return size, nil
	})
	if err != nil {
		return 0, err
	}
	return v.(int64), nil
}

func (c *Cache) lookup(path string, mtime time.Time) (int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[path]
	if !ok {
		return 0, false
	}
	n := el.Value.(*node)
	if !n.entry.valid(mtime, c.ttl) {
		return 0, false
	}
	c.order.MoveToFront(el)
	return n.entry.Size, true
}

func (c *Cache) store(path string, entry Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[path]; ok {
		el.Value.(*node).entry = entry
		c.order.MoveToFront(el)
		return
	}

	el := c.order.PushFront(&node{path: path, entry: entry})
	c.entries[path] = el

	for c.order.Len() > c.capacity {
		back := c.order.Back()
		if back == nil {
			break
		}
		c.order.Remove(back)
		delete(c.entries, back.Value.(*node).path)
	}
}

// Invalidate evicts dir's cached entry, if any. Called by the Remover on
// every ancestor of a successfully removed item (§8 invariant 5).
func (c *Cache) Invalidate(dir string) {
	canonical := filepath.Clean(dir)
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[canonical]; ok {
		c.order.Remove(el)
		delete(c.entries, canonical)
	}
}

// InvalidateAncestors evicts every ancestor directory of path, from its
// immediate parent up to (but not past) stopAt.
func (c *Cache) InvalidateAncestors(path, stopAt string) {
	stopAt = filepath.Clean(stopAt)
	dir := filepath.Dir(filepath.Clean(path))
	for {
		c.Invalidate(dir)
		if dir == stopAt || dir == filepath.Dir(dir) {
			return
		}
		dir = filepath.Dir(dir)
	}
}

// Clear empties the cache entirely.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*list.Element)
	c.order = list.New()
}

// recursiveSize walks dir and sums the length of regular files it
// transitively contains, matching the data model's directory-size
// definition. Per-entry errors are swallowed, matching the scan
// engine's failure semantics.
func recursiveSize(dir string) (int64, error) {
	var total int64
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.Type()&os.ModeSymlink != 0 {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() {
			info, infoErr := d.Info()
			if infoErr != nil {
				return nil
			}
			total += info.Size()
		}
		return nil
	})
	if err != nil {
		return total, err
	}
	return total, nil
}
