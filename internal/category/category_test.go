package category

import "testing"

func TestTrashAlwaysEligibleNeverAuto(t *testing.T) {
	pol := Default().For("Trash")
	if pol.AutoSelectThreshold != Disabled {
		t.Errorf("Trash auto threshold = %d, want Disabled", pol.AutoSelectThreshold)
	}
	if pol.DirectDeleteThreshold != 95 {
		t.Errorf("Trash direct threshold = %d, want 95", pol.DirectDeleteThreshold)
	}
}

func TestCacheLikeCategoryPolicy(t *testing.T) {
	pol := Default().For("Browser Cache")
	if pol.AutoSelectThreshold != 90 || pol.DirectDeleteThreshold != 95 {
		t.Errorf("got %+v, want auto=90 direct=95", pol)
	}
}

func TestReviewOnlyCategoryDisablesAuto(t *testing.T) {
	for _, name := range []string{"Old Downloads", "Large Stale Files", "Mail Downloads", "Messages Attachments"} {
		pol := Default().For(name)
		if pol.AutoSelectThreshold != Disabled {
			t.Errorf("%s: auto threshold = %d, want Disabled", name, pol.AutoSelectThreshold)
		}
	}
}

func TestUnknownCategoryDefaultsToAutoDisabled(t *testing.T) {
	pol := Default().For("Something Nobody Declared")
	if pol.AutoSelectThreshold != Disabled {
		t.Errorf("auto threshold = %d, want Disabled", pol.AutoSelectThreshold)
	}
}

func TestEnforceOnlyClearsFlagsNeverSets(t *testing.T) {
	policies := Default()
	c := CandidateView{Category: "Old Downloads", Score: 95, AutoSelect: true, SafeToDelete: true}
	out := policies.Enforce(c)
	if out.AutoSelect {
		t.Error("Enforce set AutoSelect=true for a review-only category despite the scorer's suggestion, want false")
	}
}

func TestEnforceClearsAutoSelectBelowThreshold(t *testing.T) {
	policies := Default()
	c := CandidateView{Category: "User Cache", Score: 50, AutoSelect: true, SafeToDelete: true}
	out := policies.Enforce(c)
	if out.AutoSelect {
		t.Error("AutoSelect should be cleared when score is below the auto_select_threshold")
	}
}

func TestEnforceClearsSafeToDeleteBelowDirectThreshold(t *testing.T) {
	policies := Default()
	c := CandidateView{Category: "User Cache", Score: 80, AutoSelect: false, SafeToDelete: true}
	out := policies.Enforce(c)
	if out.SafeToDelete {
		t.Error("SafeToDelete should be cleared when score is below direct_delete_threshold (95)")
	}
}

func TestEnforceClearsAutoSelectOverMaxSize(t *testing.T) {
	policies := Policies{
		"Big Cache": {AutoSelectThreshold: 50, DirectDeleteThreshold: 50, MaxAutoSelectSize: 1024},
	}
	c := CandidateView{Category: "Big Cache", Score: 99, AutoSelect: true, SizeBytes: 2048}
	out := policies.Enforce(c)
	if out.AutoSelect {
		t.Error("AutoSelect should be cleared when size exceeds max_auto_select_size")
	}
}

func TestAutoSelectImpliesSafeToDelete(t *testing.T) {
	policies := Default()
	c := CandidateView{Category: "User Cache", Score: 95, AutoSelect: true, SafeToDelete: false}
	out := policies.Enforce(c)
	if out.AutoSelect && !out.SafeToDelete {
		t.Error("invariant violated: auto_select true but safe_to_delete false")
	}
}

func TestWithRuleSafeDefaultsDoesNotOverrideKnownCategory(t *testing.T) {
	policies := Default().WithRuleSafeDefaults([]string{"Trash"})
	pol := policies.For("Trash")
	if pol.DirectDeleteThreshold != 95 {
		t.Errorf("WithRuleSafeDefaults overrode a known category: got %+v", pol)
	}
}

func TestWithRuleSafeDefaultsAddsLenientFallback(t *testing.T) {
	policies := Default().WithRuleSafeDefaults([]string{"Test Downloads"})
	pol := policies.For("Test Downloads")
	if pol.DirectDeleteThreshold != RuleSafeDirectDeleteThreshold {
		t.Errorf("direct threshold = %d, want %d", pol.DirectDeleteThreshold, RuleSafeDirectDeleteThreshold)
	}
	if pol.AutoSelectThreshold != Disabled {
		t.Errorf("auto threshold = %d, want Disabled", pol.AutoSelectThreshold)
	}
}
