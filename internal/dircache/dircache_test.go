package dircache

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, path string, n int) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, make([]byte, n), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestSizeComputesRecursiveSum(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), 100)
	writeFile(t, filepath.Join(dir, "sub", "b.txt"), 200)

	c := New(DefaultTTL, DefaultCapacity)
	size, err := c.Size(dir)
	if err != nil {
		t.Fatal(err)
	}
	if size != 300 {
		t.Errorf("size = %d, want 300", size)
	}
}

func TestSizeIsCachedUntilMtimeChanges(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), 100)

	c := New(DefaultTTL, DefaultCapacity)
	size1, err := c.Size(dir)
	if err != nil {
		t.Fatal(err)
	}
	if size1 != 100 {
		t.Fatalf("size1 = %d, want 100", size1)
	}

	// Add a file without touching the top dir's mtime artificially -
	// os.WriteFile under dir does update dir's mtime, so the cache must
	// pick up the new size rather than serving a stale hit.
	writeFile(t, filepath.Join(dir, "b.txt"), 50)
	size2, err := c.Size(dir)
	if err != nil {
		t.Fatal(err)
	}
	if size2 != 150 {
		t.Errorf("size2 = %d, want 150 (cache should invalidate on mtime change)", size2)
	}
}

func TestInvalidateEvictsEntry(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), 100)

	c := New(DefaultTTL, DefaultCapacity)
	if _, err := c.Size(dir); err != nil {
		t.Fatal(err)
	}
	c.Invalidate(dir)

	// Remove the file and recompute: a stale (un-invalidated) cache would
	// still report the old size since mtime happens to be unchanged in
	// some filesystems, but post-invalidate it must always recompute.
	os.Remove(filepath.Join(dir, "a.txt"))
	size, err := c.Size(dir)
	if err != nil {
		t.Fatal(err)
	}
	if size != 0 {
		t.Errorf("size after invalidate+removal = %d, want 0", size)
	}
}

func TestInvalidateAncestorsStopsAtBoundary(t *testing.T) {
	home := t.TempDir()
	sub := filepath.Join(home, "a", "b", "c")
	writeFile(t, filepath.Join(sub, "f.txt"), 10)

	c := New(DefaultTTL, DefaultCapacity)
	for _, d := range []string{home, filepath.Join(home, "a"), filepath.Join(home, "a", "b")} {
		if _, err := c.Size(d); err != nil {
			t.Fatal(err)
		}
	}

	c.InvalidateAncestors(filepath.Join(sub, "f.txt"), home)

	for _, d := range []string{filepath.Join(home, "a", "b"), filepath.Join(home, "a"), home} {
		if _, ok := c.entries[filepath.Clean(d)]; ok {
			t.Errorf("expected %s to be evicted from cache", d)
		}
	}
}

func TestTTLExpiry(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), 100)

	c := New(10*time.Millisecond, DefaultCapacity)
	if _, err := c.Size(dir); err != nil {
		t.Fatal(err)
	}
	time.Sleep(20 * time.Millisecond)

	writeFile(t, filepath.Join(dir, "b.txt"), 50)
	size, err := c.Size(dir)
	if err != nil {
		t.Fatal(err)
	}
	if size != 150 {
		t.Errorf("size = %d, want 150 after TTL expiry", size)
	}
}

func TestLRUEviction(t *testing.T) {
	c := New(DefaultTTL, 2)
	dirs := make([]string, 3)
	for i := range dirs {
		d := t.TempDir()
		writeFile(t, filepath.Join(d, "f.txt"), 1)
		dirs[i] = d
		if _, err := c.Size(d); err != nil {
			t.Fatal(err)
		}
	}
	// Capacity is 2: the first directory should have been evicted.
	if _, ok := c.entries[filepath.Clean(dirs[0])]; ok {
		t.Error("expected the least-recently-used entry to be evicted")
	}
	if _, ok := c.entries[filepath.Clean(dirs[2])]; !ok {
		t.Error("expected the most recently inserted entry to remain cached")
	}
}
