// Package duplicates implements the Duplicate Finder: bucket files by
// length, narrow each bucket with a cheap quick-fingerprint, then
// confirm with a three-region content signature before grouping.
// Grounded on other_examples' ivoronin-dupedog scanner (concurrent,
// size-bucketed, hash-confirmed duplicate scan) and wired to the
// domain stack's cespare/xxhash/v2 binding from SPEC_FULL.md §2.2/§4.7.
// Bucket-level fan-out uses golang.org/x/sync/errgroup the same way
// internal/scanengine parallelizes per-rule scans.
package duplicates

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/errgroup"

	"github.com/sweepd/sweepd/internal/errs"
)

// quickFingerprintSize is how much of the file's head is hashed during
// the cheap narrowing pass, before the full three-region signature.
const quickFingerprintSize = 64 * 1024

// regionSize is the width of each of the three sampled regions (head,
// middle, tail) that make up a file's content signature.
const regionSize = 64 * 1024

// File is one scanned file eligible for duplicate detection.
type File struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// Group is one set of confirmed-duplicate files.
type Group struct {
	Size             int64
	Files            []File
	RecommendedKeep  string
}

// Finder runs the two-stage duplicate-detection algorithm.
type Finder struct {
	// MaxConcurrency bounds the number of buckets hashed in parallel.
	// Zero means unbounded (one goroutine per bucket).
	MaxConcurrency int
}

// New creates a Finder with default concurrency.
func New() *Finder {
	return &Finder{}
}

// Find groups files into duplicate sets. Cancellation is polled between
// buckets and between files within a bucket, matching the scan engine's
// 250ms cancellation-latency contract.
func (f *Finder) Find(ctx context.Context, files []File) ([]Group, error) {
	buckets := bucketBySize(files)

	type bucketResult struct {
		size    int64
		groups  []Group
	}
	results := make([]bucketResult, len(buckets))

	g, gctx := errgroup.WithContext(ctx)
	if f.MaxConcurrency > 0 {
		g.SetLimit(f.MaxConcurrency)
	}

	for i, bucket := range buckets {
		i, bucket := i, bucket
		if len(bucket) < 2 {
			continue
		}
		g.Go(func() error {
			groups, err := confirmBucket(gctx, bucket)
			if err != nil {
				return err
			}
			results[i] = bucketResult{size: bucket[0].Size, groups: groups}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if ctx.Err() != nil {
			return nil, errs.Cancelled
		}
		return nil, err
	}

	var out []Group
	for _, r := range results {
		out = append(out, r.groups...)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Size > out[j].Size })
	return out, nil
}

func bucketBySize(files []File) [][]File {
	bySize := make(map[int64][]File)
	for _, file := range files {
		if file.Size == 0 {
			continue // empty files are never reported as duplicates
		}
		bySize[file.Size] = append(bySize[file.Size], file)
	}

	sizes := make([]int64, 0, len(bySize))
	for size := range bySize {
		sizes = append(sizes, size)
	}
	sort.Slice(sizes, func(i, j int) bool { return sizes[i] < sizes[j] })

	buckets := make([][]File, 0, len(sizes))
	for _, size := range sizes {
		buckets = append(buckets, bySize[size])
	}
	return buckets
}

// confirmBucket narrows a same-size bucket by quick fingerprint, then
// confirms surviving groups with the full three-region signature.
func confirmBucket(ctx context.Context, bucket []File) ([]Group, error) {
	byQuick := make(map[uint64][]File)
	for _, file := range bucket {
		select {
		case <-ctx.Done():
			return nil, errs.Cancelled
		default:
		}
		sum, err := quickFingerprint(file.Path)
		if err != nil {
			continue // unreadable file: skip, don't fail the whole bucket
		}
		byQuick[sum] = append(byQuick[sum], file)
	}

	var groups []Group
	for _, candidates := range byQuick {
		if len(candidates) < 2 {
			continue
		}
		bySig := make(map[uint64][]File)
		for _, file := range candidates {
			select {
			case <-ctx.Done():
				return nil, errs.Cancelled
			default:
			}
			sig, err := contentSignature(file.Path, file.Size)
			if err != nil {
				continue
			}
			bySig[sig] = append(bySig[sig], file)
		}
		for _, members := range bySig {
			if len(members) < 2 {
				continue
			}
			groups = append(groups, Group{
				Size:            members[0].Size,
				Files:           members,
				RecommendedKeep: recommendKeep(members),
			})
		}
	}
	return groups, nil
}

func quickFingerprint(path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	h := xxhash.New()
	if _, err := io.CopyN(h, f, quickFingerprintSize); err != nil && err != io.EOF {
		return 0, err
	}
	return h.Sum64(), nil
}

// contentSignature combines the first, middle, and last regionSize
// bytes of the file plus its length into one hash, a cheap-but-strong
// stand-in for a full-file digest on large files.
func contentSignature(path string, size int64) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	h := xxhash.New()

	head := make([]byte, min64(regionSize, size))
	if _, err := io.ReadFull(f, head); err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return 0, err
	}
	h.Write(head)

	if size > regionSize*2 {
		mid := size/2 - regionSize/2
		if _, err := f.Seek(mid, io.SeekStart); err != nil {
			return 0, err
		}
		midBuf := make([]byte, regionSize)
		if _, err := io.ReadFull(f, midBuf); err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
			return 0, err
		}
		h.Write(midBuf)
	}

	if size > regionSize {
		tailStart := size - min64(regionSize, size)
		if _, err := f.Seek(tailStart, io.SeekStart); err != nil {
			return 0, err
		}
		tail := make([]byte, min64(regionSize, size))
		if _, err := io.ReadFull(f, tail); err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
			return 0, err
		}
		h.Write(tail)
	}

	h.Write([]byte{
		byte(size), byte(size >> 8), byte(size >> 16), byte(size >> 24),
		byte(size >> 32), byte(size >> 40), byte(size >> 48), byte(size >> 56),
	})
	return h.Sum64(), nil
}

func min64(a int64, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

// recommendKeep scores every member of a duplicate group per §4.7's
// path-preference rules and returns the highest-scoring path.
func recommendKeep(files []File) string {
	best := files[0]
	bestScore := keepScore(best)
	for _, file := range files[1:] {
		if s := keepScore(file); s > bestScore {
			best, bestScore = file, s
		}
	}
	return best.Path
}

func keepScore(file File) int {
	lower := strings.ToLower(file.Path)
	score := 0

	if strings.Contains(lower, "/applications/") {
		score += 10
	}
	if strings.Contains(lower, "/documents/") {
		score += 8
	}
	if !strings.Contains(lower, "/downloads/") {
		score += 5
	}
	if !strings.Contains(lower, "/cache/") && !strings.Contains(lower, "/tmp/") && !strings.Contains(lower, "/temp/") {
		score += 5
	}
	if !file.ModTime.IsZero() {
		age := time.Since(file.ModTime)
		score += int(age.Hours() / 24 / 30) // +1 per ~30 days of age
	}
	// Shallower paths are mildly preferred as a final tie-breaker.
	score -= strings.Count(filepath.Clean(file.Path), string(filepath.Separator))
	return score
}
