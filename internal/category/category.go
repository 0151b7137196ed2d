// Package category implements Category Policy: per-category thresholds
// that can only make a scored candidate less eligible, never more.
// Grounded on internal/config's PathRule defaulting style
// (validateAndDefault filling in sane defaults per entry) generalized
// from disk-usage trigger percentages to the safety pipeline's
// auto-select/direct-delete threshold pair.
package category

import "strings"

// Disabled marks a threshold as "auto disabled" per the data model.
const Disabled = 101

// Policy holds the per-category gating thresholds.
type Policy struct {
	AutoSelectThreshold   int
	DirectDeleteThreshold int
	MaxAutoSelectSize     int64 // 0 means unbounded
}

// Policies maps a category label to its Policy.
type Policies map[string]Policy

// Default returns the representative default policy set from §4.4.
func Default() Policies {
	return Policies{
		"Trash": {AutoSelectThreshold: Disabled, DirectDeleteThreshold: 95},
	}
}

// For resolves the policy for a category label, applying the
// name-pattern defaults (cache/temp/saved-state, logs/crash, review-only)
// before falling back to "auto disabled".
func (p Policies) For(categoryLabel string) Policy {
	if pol, ok := p[categoryLabel]; ok {
		return pol
	}

	lower := strings.ToLower(categoryLabel)
	switch {
	case lower == "trash":
		return Policy{AutoSelectThreshold: Disabled, DirectDeleteThreshold: 95}
	case isReviewOnly(lower):
		return Policy{AutoSelectThreshold: Disabled, DirectDeleteThreshold: 60}
	case strings.Contains(lower, "cache") || strings.Contains(lower, "temp") || lower == "saved application state":
		return Policy{AutoSelectThreshold: 90, DirectDeleteThreshold: 95}
	case strings.Contains(lower, "log") || strings.Contains(lower, "crash"):
		return Policy{AutoSelectThreshold: 80, DirectDeleteThreshold: 95}
	default:
		return Policy{AutoSelectThreshold: Disabled, DirectDeleteThreshold: 70}
	}
}

func isReviewOnly(lower string) bool {
	reviewOnly := []string{
		"old downloads", "large stale files", "mail downloads",
		"messages attachments", "ios updates", "ios backups",
		"app support caches (advanced)",
	}
	for _, c := range reviewOnly {
		if strings.Contains(lower, c) {
			return true
		}
	}
	return false
}

// RuleSafeDirectDeleteThreshold is the direct-delete threshold given to
// a rule-defined category that has no dedicated entry in Policies and
// whose rule carries `safe: true` ("category considered inherently
// safe" per the Category Rule data model): lenient enough that a
// typical Review-level stale-file score clears it, without granting
// the auto-disabled categories' full leniency.
const RuleSafeDirectDeleteThreshold = 50

// WithRuleSafeDefaults returns a copy of p with a lenient policy added
// for every category in safeCategories that p doesn't already resolve
// to something more specific than the unknown-category fallback. A
// category whose rule is marked inherently safe stays eligible for
// trash-first removal even though it's otherwise unrecognised by the
// name-pattern defaults in For.
func (p Policies) WithRuleSafeDefaults(safeCategories []string) Policies {
	merged := make(Policies, len(p)+len(safeCategories))
	for k, v := range p {
		merged[k] = v
	}
	for _, name := range safeCategories {
		if _, ok := merged[name]; ok {
			continue
		}
		if p.For(name) != (Policy{AutoSelectThreshold: Disabled, DirectDeleteThreshold: 70}) {
			continue
		}
		merged[name] = Policy{AutoSelectThreshold: Disabled, DirectDeleteThreshold: RuleSafeDirectDeleteThreshold}
	}
	return merged
}

// CandidateView is the minimal candidate shape Enforce needs, avoiding
// an import cycle with the scanengine package that owns the full
// Candidate type.
type CandidateView struct {
	Category     string
	Score        int
	SizeBytes    int64
	AutoSelect   bool
	SafeToDelete bool
}

// Enforce applies the category policy after scoring: it can only clear
// flags the scorer set, never set new ones.
func (p Policies) Enforce(c CandidateView) CandidateView {
	pol := p.For(c.Category)

	if pol.AutoSelectThreshold == Disabled || c.Score < pol.AutoSelectThreshold {
		c.AutoSelect = false
	}
	if c.Score < pol.DirectDeleteThreshold {
		c.SafeToDelete = false
	}
	if pol.MaxAutoSelectSize > 0 && c.SizeBytes > pol.MaxAutoSelectSize {
		c.AutoSelect = false
	}
	if c.AutoSelect {
		c.SafeToDelete = true
	}
	return c
}
