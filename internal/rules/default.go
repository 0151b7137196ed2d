package rules

import (
	"bytes"
	_ "embed"
	"os"
	"path/filepath"
)

// defaultRulesYAML is the out-of-the-box category list: the
// representative rules named across §3's schema and §4.4's policy
// table (Trash, the cache/temp families, Saved Application State,
// Logs and crash reports, the review-only stale/large/mail/messages/
// iOS categories, and the advanced App Support Caches entry). Shipped
// so `sweepd scan` produces a useful report before the user hand-authors
// a SWEEPD_RULES_OVERRIDE document.
//
//go:embed default_rules.yaml
var defaultRulesYAML []byte

// DefaultSet parses the embedded default rule set.
func DefaultSet() (*Set, error) {
	set, err := decode(bytes.NewReader(defaultRulesYAML))
	if err != nil {
		return nil, err
	}
	if err := set.validate(); err != nil {
		return nil, err
	}
	set.applyDefaults()
	return set, nil
}

// LoadOrBootstrap loads the rule set at path, writing the embedded
// default document there first if nothing exists yet. SWEEPD_RULES_OVERRIDE
// (handled by LoadFromEnv) always takes priority and is never bootstrapped:
// an explicit override that's missing is a configuration error, not a
// first-run case.
func LoadOrBootstrap(path string) (*Set, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if mkErr := os.MkdirAll(filepath.Dir(path), 0o755); mkErr == nil {
			_ = os.WriteFile(path, defaultRulesYAML, 0o644)
		}
	}
	return Load(path)
}
