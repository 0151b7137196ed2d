// Package rules loads the declarative category rule set described by
// the data model's Category Rule schema. It is grounded on
// internal/config's Load/decode/validateAndDefault pattern (same
// structure: open, yaml-decode, validate, default) adapted to the rule
// schema's fields instead of the teacher's flat PathRule list.
package rules

import (
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sweepd/sweepd/internal/errs"
)

// Rule is one declarative category entry.
type Rule struct {
	Name            string   `yaml:"name"`
	Paths           []string `yaml:"paths"`
	Safe            bool     `yaml:"safe"`
	Advanced        bool     `yaml:"advanced"`
	MaxDepth        int      `yaml:"max_depth"`
	MinAgeDays      int      `yaml:"min_age_days"`
	MinSizeKB       int64    `yaml:"min_size_kb"`
	Excludes        []string `yaml:"excludes"`
	Extensions      []string `yaml:"extensions"`
	RequireSubpaths []string `yaml:"require_subpaths"`
}

// DefaultMaxDepth is used whenever a rule omits max_depth.
const DefaultMaxDepth = 10

// TargetsDirectories reports whether the rule's name indicates it
// surfaces directories rather than files, per the scan engine's
// name-derived polarity rule.
func (r Rule) TargetsDirectories() bool {
	lower := strings.ToLower(r.Name)
	return strings.Contains(lower, "folder") ||
		strings.Contains(lower, "cache") ||
		strings.Contains(lower, "container")
}

// UsesCtime reports whether min_age_days should be measured against
// ctime (Downloads/Desktop categories) instead of mtime.
func (r Rule) UsesCtime() bool {
	lower := strings.ToLower(r.Name)
	return strings.Contains(lower, "download") || strings.Contains(lower, "desktop")
}

// Set is the immutable, ordered list of rules loaded for a scan.
type Set struct {
	Rules []Rule
}

// Load reads and validates a rule-set document from path.
func Load(path string) (*Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open rule set: %w", errs.ConfigurationError)
	}
	defer f.Close()

	set, err := decode(f)
	if err != nil {
		return nil, err
	}
	if err := set.validate(); err != nil {
		return nil, err
	}
	set.applyDefaults()
	return set, nil
}

// LoadFromEnv loads the rule set named by override if set, else base.
// Mirrors the SWEEPD_RULES_OVERRIDE contract in SPEC_FULL.md §6. An
// explicit override that doesn't exist is a configuration error; base
// is bootstrapped from the embedded default document on first run so a
// fresh install has a usable rule set without hand-authoring one.
func LoadFromEnv(base string) (*Set, error) {
	if override := os.Getenv("SWEEPD_RULES_OVERRIDE"); override != "" {
		return Load(override)
	}
	return LoadOrBootstrap(base)
}

func decode(r io.Reader) (*Set, error) {
	var doc struct {
		Categories []Rule `yaml:"categories"`
	}
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode rule set: %w", errs.ConfigurationError)
	}
	return &Set{Rules: doc.Categories}, nil
}

func (s *Set) validate() error {
	seen := make(map[string]bool, len(s.Rules))
	for _, r := range s.Rules {
		if strings.TrimSpace(r.Name) == "" {
			return fmt.Errorf("rule with empty name: %w", errs.ConfigurationError)
		}
		if seen[r.Name] {
			return fmt.Errorf("duplicate rule name %q: %w", r.Name, errs.ConfigurationError)
		}
		seen[r.Name] = true
		if len(r.Paths) == 0 {
			return fmt.Errorf("rule %q has no paths: %w", r.Name, errs.ConfigurationError)
		}
	}
	return nil
}

func (s *Set) applyDefaults() {
	for i := range s.Rules {
		if s.Rules[i].MaxDepth <= 0 {
			s.Rules[i].MaxDepth = DefaultMaxDepth
		}
	}
}
