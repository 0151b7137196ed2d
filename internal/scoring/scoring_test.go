package scoring

import (
	"testing"
	"time"

	"github.com/sweepd/sweepd/internal/risk"
)

func safeAssessment(confidence int) risk.Assessment {
	return risk.Assessment{Level: risk.Safe, Confidence: confidence, Reasons: []string{"Library cache"}}
}

func TestTrashCategoryScoresMax(t *testing.T) {
	r := Score(Input{
		Path:       "/Users/alice/.Trash/old.zip",
		Category:   "Trash",
		Assessment: safeAssessment(97),
		SizeBytes:  1024,
		ModTime:    time.Now().Add(-30 * 24 * time.Hour),
	})
	if r.Score != 100 {
		t.Errorf("score = %d, want 100", r.Score)
	}
}

func TestCacheCategoryAutoSelects(t *testing.T) {
	old := time.Now().Add(-90 * 24 * time.Hour)
	r := Score(Input{
		Path:       "/Users/alice/Library/Caches/com.example.App/cache.db",
		Category:   "User Cache",
		Assessment: safeAssessment(90),
		SizeBytes:  1024,
		ModTime:    old,
	})
	if r.Score < 90 {
		t.Errorf("score = %d, want >= 90", r.Score)
	}
	if !r.AutoSelect {
		t.Error("AutoSelect = false, want true")
	}
}

func TestNonSafeRiskNeverAutoSelects(t *testing.T) {
	r := Score(Input{
		Path:       "/Users/alice/Library/Caches/com.example.App/cache.db",
		Category:   "User Cache",
		Assessment: risk.Assessment{Level: risk.Review, Confidence: 55},
		SizeBytes:  1024,
		ModTime:    time.Now().Add(-90 * 24 * time.Hour),
	})
	if r.AutoSelect {
		t.Error("AutoSelect = true for a non-Safe risk level, want false")
	}
}

func TestLargeFileNeverAutoSelects(t *testing.T) {
	old := time.Now().Add(-90 * 24 * time.Hour)
	r := Score(Input{
		Path:       "/Users/alice/Library/Caches/com.example.App/huge.bin",
		Category:   "User Cache",
		Assessment: safeAssessment(90),
		SizeBytes:  600 * 1024 * 1024,
		ModTime:    old,
	})
	if r.AutoSelect {
		t.Error("AutoSelect = true for a >500MB file, want false")
	}
}

func TestBackupPathPenalized(t *testing.T) {
	old := time.Now().Add(-90 * 24 * time.Hour)
	r := Score(Input{
		Path:       "/Users/alice/Documents/backup/2024/archive.tar",
		Category:   "Old Downloads",
		Assessment: safeAssessment(90),
		SizeBytes:  1024,
		ModTime:    old,
	})
	if r.AutoSelect {
		t.Error("AutoSelect = true for a backup/archive path, want false")
	}
}

func TestRecentSafeEntryPenalizedAndLosesAuto(t *testing.T) {
	recent := time.Now().Add(-1 * time.Hour)
	base := Score(Input{
		Path:       "/Users/alice/Library/Caches/com.example.App/fresh.db",
		Category:   "User Cache",
		Assessment: safeAssessment(90),
		SizeBytes:  1024,
		ModTime:    time.Now().Add(-90 * 24 * time.Hour),
	})
	recentScore := Score(Input{
		Path:       "/Users/alice/Library/Caches/com.example.App/fresh.db",
		Category:   "User Cache",
		Assessment: safeAssessment(90),
		SizeBytes:  1024,
		ModTime:    recent,
	})
	// The cache-path bump (max 92) still dominates, but the <2d penalty
	// must have fired to strip auto_select.
	if recentScore.AutoSelect {
		t.Error("AutoSelect = true for an entry modified <2d ago, want false")
	}
	_ = base
}

func TestReviewOnlyCategoryCapped(t *testing.T) {
	r := Score(Input{
		Path:       "/Users/alice/Downloads/installer.dmg",
		Category:   "Old Downloads",
		Assessment: risk.Assessment{Level: risk.Safe, Confidence: 70},
		SizeBytes:  1024,
		ModTime:    time.Now().Add(-90 * 24 * time.Hour),
	})
	if r.Score > 60 {
		t.Errorf("score = %d, want <= 60 for a review-only category", r.Score)
	}
	if r.AutoSelect {
		t.Error("AutoSelect = true for a review-only category, want false")
	}
}

func TestScoreNeverExceedsClampBounds(t *testing.T) {
	r := Score(Input{
		Path:       "/Users/alice/.Trash/foo",
		Category:   "Trash",
		Assessment: safeAssessment(100),
		SizeBytes:  1,
		ModTime:    time.Now(),
	})
	if r.Score < 0 || r.Score > 100 {
		t.Errorf("score = %d, out of [0,100]", r.Score)
	}
}

func TestBumpNeverLowersScore(t *testing.T) {
	if got := bump(95, 50); got != 95 {
		t.Errorf("bump(95, 50) = %d, want 95 (monotone, never lowers)", got)
	}
	if got := bump(50, 92); got != 92 {
		t.Errorf("bump(50, 92) = %d, want 92", got)
	}
}
