// Package pipeline assembles the Scan Engine, Risk Analyzer, Safety
// Scorer, and Category Policy into the §3 Candidate data model and the
// per-category report the host's "scan" and "list_candidates" commands
// return. Grounded on internal/scheduler's RunOnce shape (load rules,
// scan, score, hand off to the next stage, record telemetry) but
// replacing the teacher's disk-usage-threshold trigger with the spec's
// risk/score/policy pipeline — nothing here talks to a dispatch or UI
// layer, matching §9's one-shot data-flow design note.
package pipeline

import (
	"context"
	"os"
	"sort"
	"time"

	"github.com/sweepd/sweepd/internal/category"
	"github.com/sweepd/sweepd/internal/dircache"
	"github.com/sweepd/sweepd/internal/errs"
	"github.com/sweepd/sweepd/internal/risk"
	"github.com/sweepd/sweepd/internal/rules"
	"github.com/sweepd/sweepd/internal/scanengine"
	"github.com/sweepd/sweepd/internal/scoring"
)

// Candidate is the §3 data-model Candidate: a discovered file or
// directory, already risk-assessed, scored, and policy-enforced.
type Candidate struct {
	Path         string    `json:"path"`
	Category     string    `json:"category"`
	Description  string    `json:"description"`
	SizeBytes    int64     `json:"size_bytes"`
	ModTime      time.Time `json:"mod_time"`
	IsDir        bool      `json:"is_dir"`
	SafetyScore  int       `json:"safety_score"`
	SafeToDelete bool      `json:"safe_to_delete"`
	AutoSelect   bool      `json:"auto_select"`
	RiskLevel    string    `json:"risk_level"`
	Confidence   int       `json:"confidence"`
	Reasons      []string  `json:"reasons"`
}

// CategorySummary is the per-category count/size aggregate.
type CategorySummary struct {
	Category  string `json:"category"`
	Count     int    `json:"count"`
	TotalSize int64  `json:"total_size"`
}

// Report is the full output of a scan: every candidate plus the
// per-category rollup, ordered the way §5 requires (rule-index then
// candidate order; Candidates preserves that order as scanengine
// produced it).
type Report struct {
	Candidates []Candidate       `json:"candidates"`
	Summaries  []CategorySummary `json:"summaries"`
	ScannedAt  time.Time         `json:"scanned_at"`
}

// Scan runs the full scan → risk → score → policy pipeline over set,
// honoring cancellation exactly as scanengine.Scan does: a cancelled
// scan returns errs.Cancelled and no partial report.
func Scan(ctx context.Context, set *rules.Set, policies category.Policies, cache *dircache.Cache, logger scanengine.Logger) (Report, error) {
	eng := scanengine.New(homeOrEmpty(), cache, logger)
	return ScanWithEngine(ctx, eng, set, policies)
}

// ScanWithEngine is Scan with caller-constructed Engine, so callers can
// configure Engine.Parallel or home directory explicitly.
func ScanWithEngine(ctx context.Context, eng *scanengine.Engine, set *rules.Set, policies category.Policies) (Report, error) {
	result, err := eng.Scan(ctx, set)
	if err != nil {
		return Report{}, err
	}

	minAge := make(map[string]int, len(set.Rules))
	var safeCategories []string
	for _, r := range set.Rules {
		minAge[r.Name] = r.MinAgeDays
		if r.Safe {
			safeCategories = append(safeCategories, r.Name)
		}
	}
	policies = policies.WithRuleSafeDefaults(safeCategories)

	report := Report{ScannedAt: time.Now()}
	summaries := make(map[string]*CategorySummary)

	for i, sc := range result.Candidates {
		if i%256 == 0 {
			select {
			case <-ctx.Done():
				return Report{}, errs.Cancelled
			default:
			}
		}

		assessment := risk.Analyze(sc.Path, sc.ModTime, false, time.Time{})
		scored := scoring.Score(scoring.Input{
			Path:           sc.Path,
			Category:       sc.Category,
			Assessment:     assessment,
			RuleMinAgeDays: minAge[sc.Category],
			SizeBytes:      sc.Size,
			ModTime:        sc.ModTime,
		})

		// SafeToDelete starts true; category.Enforce is the sole gate
		// that can clear it, per §4.4's "can only make a candidate less
		// eligible than the scorer suggests" contract.
		view := policies.Enforce(category.CandidateView{
			Category:     sc.Category,
			Score:        scored.Score,
			SizeBytes:    sc.Size,
			AutoSelect:   scored.AutoSelect,
			SafeToDelete: true,
		})

		candidate := Candidate{
			Path:         sc.Path,
			Category:     sc.Category,
			Description:  describe(sc, assessment),
			SizeBytes:    sc.Size,
			ModTime:      sc.ModTime,
			IsDir:        sc.IsDir,
			SafetyScore:  view.Score,
			SafeToDelete: view.SafeToDelete,
			AutoSelect:   view.AutoSelect,
			RiskLevel:    assessment.Level.String(),
			Confidence:   assessment.Confidence,
			Reasons:      assessment.Reasons,
		}
		report.Candidates = append(report.Candidates, candidate)

		summary, ok := summaries[sc.Category]
		if !ok {
			summary = &CategorySummary{Category: sc.Category}
			summaries[sc.Category] = summary
		}
		summary.Count++
		summary.TotalSize += sc.Size
	}

	for _, s := range summaries {
		report.Summaries = append(report.Summaries, *s)
	}
	sort.Slice(report.Summaries, func(i, j int) bool {
		return report.Summaries[i].TotalSize > report.Summaries[j].TotalSize
	})

	return report, nil
}

func describe(c scanengine.Candidate, a risk.Assessment) string {
	if len(a.Reasons) == 0 {
		return c.Category
	}
	return c.Category + ": " + a.Reasons[0]
}

func homeOrEmpty() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return home
}
