// Package scoring implements the Safety Scorer: risk + category + age +
// size combine into a 0..100 score and an auto_select recommendation.
// Grounded on internal/scan's reason-weighting style (named, additive
// adjustments applied in a fixed order) generalized to the layered
// formulation SPEC_FULL.md §9 calls authoritative. Every "boost to at
// least X" step goes through bump, a single monotone-max helper, per
// DESIGN.md's Open Question 1 decision: the legacy min-based boost bug
// the spec warns about cannot recur if there is only one bump path.
package scoring

import (
	"strings"
	"time"

	"github.com/sweepd/sweepd/internal/risk"
)

// Input bundles everything the scorer needs for one candidate.
type Input struct {
	Path          string
	Category      string
	Assessment    risk.Assessment
	RuleMinAgeDays int
	SizeBytes     int64
	ModTime       time.Time
}

// Result is the scorer's output.
type Result struct {
	Score      int
	AutoSelect bool
}

const maxFileBytesForAuto = 500 * 1024 * 1024

// bump raises score to at least floor, never lowering it. This is the
// only path through which category/location bumps are applied.
func bump(score, floor int) int {
	if floor > score {
		return floor
	}
	return score
}

func clamp(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// Score computes the Safety Scorer's (score, auto_select) pair.
func Score(in Input) Result {
	score := seed(in.Assessment)
	auto := in.Assessment.Level == risk.Safe

	lowerPath := strings.ToLower(in.Path)
	lowerCat := strings.ToLower(in.Category)

	switch {
	case lowerCat == "trash":
		score = bump(score, 100)
	case isReviewOnlyCategory(lowerCat):
		score = clampBetween(score, 45, 60)
		auto = false
	case strings.Contains(lowerCat, "cache") || strings.Contains(lowerCat, "temp"):
		score = bump(score, 92)
	case lowerCat == "saved application state":
		score = bump(score, 88)
		if ageDays(in.ModTime) < 30 {
			auto = false
		}
	case strings.Contains(lowerCat, "log") || strings.Contains(lowerCat, "crash"):
		score = bump(score, 78)
		if ageDays(in.ModTime) < 30 {
			auto = false
		}
	}

	if strings.Contains(lowerPath, ".cache") || strings.Contains(lowerPath, "cache/") || strings.Contains(lowerPath, "/tmp/") {
		score = bump(score, 92)
	}

	if in.Assessment.Level == risk.Safe && ageDays(in.ModTime) < 2 {
		score -= 15
		auto = false
	}

	if in.SizeBytes > maxFileBytesForAuto {
		auto = false
	}

	if strings.Contains(lowerPath, "backup") || strings.Contains(lowerPath, "archive") || strings.Contains(lowerPath, "export") {
		score -= 25
		auto = false
	}

	if in.Assessment.Level != risk.Safe {
		auto = false
	}

	return Result{Score: clamp(score), AutoSelect: auto}
}

func seed(a risk.Assessment) int {
	switch a.Level {
	case risk.Safe:
		return 80 + a.Confidence/3
	case risk.Review:
		return 55
	default:
		return 25
	}
}

func ageDays(modTime time.Time) int {
	return int(time.Since(modTime).Hours() / 24)
}

func clampBetween(score, lo, hi int) int {
	if score < lo {
		return lo
	}
	if score > hi {
		return hi
	}
	return score
}

func isReviewOnlyCategory(lowerCat string) bool {
	reviewOnly := []string{
		"old downloads", "large stale files", "mail downloads",
		"messages attachments", "ios updates", "ios backups",
		"app support caches (advanced)",
	}
	for _, c := range reviewOnly {
		if strings.Contains(lowerCat, c) {
			return true
		}
	}
	return false
}
