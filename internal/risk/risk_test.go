package risk

import (
	"testing"
	"time"
)

func TestSensitiveKeywordsAlwaysRisky(t *testing.T) {
	paths := []string{
		"/Users/alice/.ssh/id_rsa",
		"/Users/alice/.gnupg/secring.gpg",
		"/Users/alice/Documents/passwords.txt",
		"/Users/alice/Desktop/wallet.dat",
		"/Users/alice/notes/important-taxes.pdf",
	}
	for _, p := range paths {
		a := Analyze(p, time.Now().Add(-365*24*time.Hour), false, time.Time{})
		if a.Level != Risky {
			t.Errorf("%s: level = %v, want Risky", p, a.Level)
		}
		if a.Confidence < 98 {
			t.Errorf("%s: confidence = %d, want >= 98", p, a.Confidence)
		}
	}
}

func TestRiskySegmentSequences(t *testing.T) {
	paths := []string{
		"/Users/alice/Library/Keychains/login.keychain",
		"/Users/alice/Library/Mail/V9/mailbox.mbox",
		"/Users/alice/Pictures/vacation.jpg",
	}
	for _, p := range paths {
		a := Analyze(p, time.Now().Add(-365*24*time.Hour), false, time.Time{})
		if a.Level != Risky {
			t.Errorf("%s: level = %v, want Risky", p, a.Level)
		}
	}
}

func TestKnownCachePathsAreSafe(t *testing.T) {
	old := time.Now().Add(-90 * 24 * time.Hour)
	paths := []string{
		"/Users/alice/Library/Caches/com.example.App/cache.db",
		"/Users/alice/Library/Caches/Homebrew/downloads/foo.tar.gz",
		"/Users/alice/Library/Developer/Xcode/DerivedData/App-abc/Build",
		"/private/tmp/foo.tmp",
	}
	for _, p := range paths {
		a := Analyze(p, old, false, time.Time{})
		if a.Level != Safe {
			t.Errorf("%s: level = %v, want Safe", p, a.Level)
		}
		if a.Confidence < 70 {
			t.Errorf("%s: confidence = %d, want >= 70", p, a.Confidence)
		}
	}
}

func TestTrashIsSafe(t *testing.T) {
	a := Analyze("/Users/alice/.Trash/old-file.zip", time.Now().Add(-30*24*time.Hour), false, time.Time{})
	if a.Level != Safe {
		t.Errorf("level = %v, want Safe", a.Level)
	}
	if a.Confidence < 97 {
		t.Errorf("confidence = %d, want >= 97", a.Confidence)
	}
}

func TestRecentlyModifiedCachePathStaysSafe(t *testing.T) {
	recent := time.Now().Add(-2 * time.Hour)
	// A cache path still has an explicit cache reason, so it should stay Safe.
	a := Analyze("/Users/alice/Library/Caches/com.example.App/fresh.db", recent, false, time.Time{})
	if a.Level != Safe {
		t.Errorf("cache path recently modified: level = %v, want Safe (explicit cache reason)", a.Level)
	}
}

func TestRecentlyModifiedDerivedDataDemoted(t *testing.T) {
	// "Xcode DerivedData" is a Safe signal whose reason text contains
	// none of cache/temp/trash/log, so a same-hour write must still
	// demote it to Review per the age-refinement rule.
	recent := time.Now().Add(-30 * time.Minute)
	a := Analyze("/Users/alice/Library/Developer/Xcode/DerivedData/App-abc/Build/fresh.o", recent, false, time.Time{})
	if a.Level != Review {
		t.Errorf("level = %v, want Review (recently modified demotion)", a.Level)
	}
	if a.Confidence > 60 {
		t.Errorf("confidence = %d, want capped at 60 after demotion", a.Confidence)
	}
}

func TestStaleReviewPromotedToSafe(t *testing.T) {
	old := time.Now().Add(-90 * 24 * time.Hour)
	a := Analyze("/Users/alice/Downloads/some-installer.pkg", old, false, time.Time{})
	if a.Level != Safe {
		t.Errorf("level = %v, want Safe (stale promotion)", a.Level)
	}
	found := false
	for _, r := range a.Reasons {
		if r == "Stale (>60d)" {
			found = true
		}
	}
	if !found {
		t.Errorf("reasons = %v, want to contain %q", a.Reasons, "Stale (>60d)")
	}
}

func TestUncategorisedLocationDefaultsToReview(t *testing.T) {
	old := time.Now().Add(-10 * 24 * time.Hour)
	a := Analyze("/Users/alice/random/path/to/nowhere", old, false, time.Time{})
	if a.Level != Review {
		t.Errorf("level = %v, want Review", a.Level)
	}
}

func TestReasonsDeduplicated(t *testing.T) {
	old := time.Now().Add(-90 * 24 * time.Hour)
	a := Analyze("/Users/alice/Library/Caches/com.example.App/Code Cache/data", old, false, time.Time{})
	seen := map[string]bool{}
	for _, r := range a.Reasons {
		if seen[r] {
			t.Errorf("reason %q duplicated in %v", r, a.Reasons)
		}
		seen[r] = true
	}
}

func TestAgeModifiedDaysPopulated(t *testing.T) {
	modTime := time.Now().Add(-10 * 24 * time.Hour)
	a := Analyze("/Users/alice/Library/Caches/foo", modTime, true, time.Now().Add(-20*24*time.Hour))
	if a.AgeModifiedDays == nil {
		t.Fatal("AgeModifiedDays is nil")
	}
	if *a.AgeModifiedDays < 9 || *a.AgeModifiedDays > 11 {
		t.Errorf("AgeModifiedDays = %d, want ~10", *a.AgeModifiedDays)
	}
	if a.AgeCreatedDays == nil {
		t.Fatal("AgeCreatedDays is nil")
	}
}
