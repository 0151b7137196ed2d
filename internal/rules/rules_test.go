package rules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sweepd/sweepd/internal/errs"
)

const validYAML = `
categories:
  - name: Test Downloads
    paths: ["~/Downloads"]
    safe: true
    max_depth: 2
    min_size_kb: 2
    extensions: ["crdownload"]
  - name: User Cache
    paths: ["~/Library/Caches"]
`

func TestLoadValidRuleSet(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	if err := os.WriteFile(path, []byte(validYAML), 0o644); err != nil {
		t.Fatal(err)
	}

	set, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(set.Rules) != 2 {
		t.Fatalf("got %d rules, want 2", len(set.Rules))
	}
	if set.Rules[1].MaxDepth != DefaultMaxDepth {
		t.Errorf("MaxDepth default = %d, want %d", set.Rules[1].MaxDepth, DefaultMaxDepth)
	}
}

func TestLoadDuplicateNameFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	doc := `
categories:
  - name: Dup
    paths: ["~/a"]
  - name: Dup
    paths: ["~/b"]
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(path)
	if !errs.Is(err, errs.ConfigurationError) {
		t.Fatalf("err = %v, want ConfigurationError", err)
	}
}

func TestLoadMissingPathsFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	doc := `
categories:
  - name: NoPaths
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(path)
	if !errs.Is(err, errs.ConfigurationError) {
		t.Fatalf("err = %v, want ConfigurationError", err)
	}
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := Load("/nonexistent/rules.yaml")
	if !errs.Is(err, errs.ConfigurationError) {
		t.Fatalf("err = %v, want ConfigurationError", err)
	}
}

func TestTargetsDirectoriesPolarity(t *testing.T) {
	cases := map[string]bool{
		"Browser Cache":       true,
		"Node Modules Folder": true,
		"App Container":       true,
		"Old Downloads":       false,
		"Crash Reports":       false,
	}
	for name, want := range cases {
		r := Rule{Name: name}
		if got := r.TargetsDirectories(); got != want {
			t.Errorf("%s.TargetsDirectories() = %v, want %v", name, got, want)
		}
	}
}

func TestUsesCtimeForDownloadsAndDesktop(t *testing.T) {
	if !(Rule{Name: "Old Downloads"}).UsesCtime() {
		t.Error("Old Downloads should use ctime")
	}
	if !(Rule{Name: "Desktop Clutter"}).UsesCtime() {
		t.Error("Desktop Clutter should use ctime")
	}
	if (Rule{Name: "User Cache"}).UsesCtime() {
		t.Error("User Cache should not use ctime")
	}
}

func TestLoadFromEnvOverride(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "base.yaml")
	override := filepath.Join(dir, "override.yaml")
	if err := os.WriteFile(base, []byte(validYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	overrideDoc := `
categories:
  - name: OnlyOverride
    paths: ["~/x"]
`
	if err := os.WriteFile(override, []byte(overrideDoc), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("SWEEPD_RULES_OVERRIDE", override)
	set, err := LoadFromEnv(base)
	if err != nil {
		t.Fatal(err)
	}
	if len(set.Rules) != 1 || set.Rules[0].Name != "OnlyOverride" {
		t.Errorf("LoadFromEnv did not honor SWEEPD_RULES_OVERRIDE: %+v", set.Rules)
	}
}
