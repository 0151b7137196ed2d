// Package integration exercises the scan -> risk -> score -> policy ->
// validate -> remove pipeline end to end against a synthetic home
// directory, covering the seed scenarios a host integrator would use to
// certify a new build: stale-only discovery, trash-first removal,
// empty-trash aggregation with cache invalidation, the risky-keyword
// shortcut, a known-safe cache path, and cancellation promptness.
package integration

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweepd/sweepd/internal/category"
	"github.com/sweepd/sweepd/internal/dircache"
	"github.com/sweepd/sweepd/internal/errs"
	"github.com/sweepd/sweepd/internal/pipeline"
	"github.com/sweepd/sweepd/internal/remover"
	"github.com/sweepd/sweepd/internal/risk"
	"github.com/sweepd/sweepd/internal/rules"
	"github.com/sweepd/sweepd/internal/scanengine"
	"github.com/sweepd/sweepd/internal/scoring"
)

func writeFile(t *testing.T, path string, size int) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0o644))
}

func downloadsRule() rules.Rule {
	return rules.Rule{
		Name:       "Test Downloads",
		Paths:      []string{"~/Downloads"},
		Safe:       true,
		MaxDepth:   2,
		MinSizeKB:  2,
		Extensions: []string{"crdownload"},
	}
}

// scenario 1: Downloads stale-only.
func TestScanDownloadsStaleOnly(t *testing.T) {
	home := t.TempDir()
	writeFile(t, filepath.Join(home, "Downloads", "large.crdownload"), 4096)
	writeFile(t, filepath.Join(home, "Downloads", "small.crdownload"), 1024)

	set := &rules.Set{Rules: []rules.Rule{downloadsRule()}}
	cache := dircache.New(dircache.DefaultTTL, dircache.DefaultCapacity)
	eng := scanengine.New(home, cache, nil)

	report, err := pipeline.ScanWithEngine(context.Background(), eng, set, category.Default())
	require.NoError(t, err)

	require.Len(t, report.Candidates, 1)
	c := report.Candidates[0]
	assert.Equal(t, filepath.Join(home, "Downloads", "large.crdownload"), c.Path)
	assert.Equal(t, "Test Downloads", c.Category)
	assert.True(t, c.SafeToDelete)
	assert.False(t, c.AutoSelect)

	for _, cand := range report.Candidates {
		assert.NotEqual(t, filepath.Join(home, "Downloads"), cand.Path)
	}
}

// scenario 2: trash-first removal.
func TestCleanTrashFirstRemoval(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("SWEEPD_DISABLE_OSA", "1")

	large := filepath.Join(home, "Downloads", "large.crdownload")
	writeFile(t, large, 4096)
	writeFile(t, filepath.Join(home, "Downloads", "small.crdownload"), 1024)

	set := &rules.Set{Rules: []rules.Rule{downloadsRule()}}
	cache := dircache.New(dircache.DefaultTTL, dircache.DefaultCapacity)
	eng := scanengine.New(home, cache, nil)
	policies := category.Default()

	report, err := pipeline.ScanWithEngine(context.Background(), eng, set, policies)
	require.NoError(t, err)
	require.Len(t, report.Candidates, 1)
	c := report.Candidates[0]

	rm := remover.New(home, cache, policies, nil, nil)
	result, err := rm.Remove(context.Background(), []remover.Item{
		{Path: c.Path, Category: c.Category, Size: c.SizeBytes, Score: c.SafetyScore},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.ItemsRemoved)
	assert.EqualValues(t, 4096, result.BytesFreed)
	assert.NoFileExists(t, large)

	entries, err := os.ReadDir(filepath.Join(home, ".Trash"))
	require.NoError(t, err)
	found := false
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".crdownload" {
			found = true
		}
	}
	assert.True(t, found, "expected a trashed .crdownload file under ~/.Trash")
}

// scenario 3: empty-trash aggregates and invalidates the ancestor cache.
func TestEmptyTrashAggregatesAndInvalidatesCache(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("SWEEPD_DISABLE_OSA", "1")

	large := filepath.Join(home, "Downloads", "large.crdownload")
	writeFile(t, large, 4096)
	writeFile(t, filepath.Join(home, "keep.txt"), 2048)

	cache := dircache.New(dircache.DefaultTTL, dircache.DefaultCapacity)
	policies := category.Default()
	rm := remover.New(home, cache, policies, nil, nil)

	_, err := rm.Remove(context.Background(), []remover.Item{
		{Path: large, Category: "Test Downloads", Size: 4096, Score: 55},
	})
	require.NoError(t, err)

	sizeBefore, err := cache.Size(home)
	require.NoError(t, err)

	result, err := rm.EmptyTrash(context.Background())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, result.ItemsRemoved, 1)
	assert.GreaterOrEqual(t, result.BytesFreed, int64(4096))

	trashEntries, err := os.ReadDir(filepath.Join(home, ".Trash"))
	require.NoError(t, err)
	assert.Empty(t, trashEntries)

	sizeAfter, err := cache.Size(home)
	require.NoError(t, err)
	assert.Less(t, sizeAfter, sizeBefore)
}

// scenario 4: the sensitive-keyword shortcut needs no filesystem I/O.
func TestRiskyShortcutNoIO(t *testing.T) {
	a := risk.Analyze("/Users/alice/.ssh/id_rsa", time.Now(), false, time.Time{})
	assert.Equal(t, risk.Risky, a.Level)
	assert.GreaterOrEqual(t, a.Confidence, 98)
	assert.Contains(t, a.Reasons, "Sensitive or personal location")
}

// scenario 5: a known-safe cache path scores above auto-select.
func TestSafeCachePathScoresAutoSelect(t *testing.T) {
	path := "/Users/alice/Library/Caches/com.example.App/cache.db"
	old := time.Now().Add(-90 * 24 * time.Hour)

	a := risk.Analyze(path, old, false, time.Time{})
	assert.Equal(t, risk.Safe, a.Level)
	assert.GreaterOrEqual(t, a.Confidence, 70)

	result := scoring.Score(scoring.Input{
		Path:       path,
		Category:   "User Cache",
		Assessment: a,
		SizeBytes:  1024,
		ModTime:    old,
	})
	assert.GreaterOrEqual(t, result.Score, 90)
	assert.True(t, result.AutoSelect)
}

// scenario 6: a cancelled context is observed promptly and yields no
// partial candidate set. A context cancelled up front (rather than
// raced against a timer) keeps the assertion deterministic while still
// exercising the same ctx.Done() check the scan engine polls on every
// directory it descends into.
func TestScanCancellationPromptness(t *testing.T) {
	home := t.TempDir()
	for i := 0; i < 50; i++ {
		writeFile(t, filepath.Join(home, "Downloads", "sub", padName(i), "file.crdownload"), 4096)
	}

	set := &rules.Set{Rules: []rules.Rule{downloadsRule()}}
	cache := dircache.New(dircache.DefaultTTL, dircache.DefaultCapacity)
	eng := scanengine.New(home, cache, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	started := time.Now()
	report, err := pipeline.ScanWithEngine(ctx, eng, set, category.Default())
	elapsed := time.Since(started)

	assert.True(t, errs.Is(err, errs.Cancelled))
	assert.Empty(t, report.Candidates)
	assert.Less(t, elapsed, 250*time.Millisecond)
}

func padName(i int) string {
	const digits = "0123456789"
	out := make([]byte, 4)
	for pos := len(out) - 1; pos >= 0; pos-- {
		out[pos] = digits[i%10]
		i /= 10
	}
	return string(out)
}
