package rules

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultSetParsesAndValidates(t *testing.T) {
	set, err := DefaultSet()
	if err != nil {
		t.Fatal(err)
	}
	if len(set.Rules) == 0 {
		t.Fatal("default rule set is empty")
	}
	names := make(map[string]bool, len(set.Rules))
	for _, r := range set.Rules {
		names[r.Name] = true
	}
	for _, want := range []string{"Trash", "User Cache", "Old Downloads"} {
		if !names[want] {
			t.Errorf("default rule set missing category %q", want)
		}
	}
}

func TestLoadOrBootstrapWritesDefaultOnFirstRun(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "rules.yaml")

	set, err := LoadOrBootstrap(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(set.Rules) == 0 {
		t.Fatal("bootstrapped rule set is empty")
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected default rule file to be written: %v", err)
	}

	// Second call reads the now-existing file rather than rewriting it.
	if err := os.WriteFile(path, []byte("categories:\n  - name: Custom\n    paths: [\"~/x\"]\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	set2, err := LoadOrBootstrap(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(set2.Rules) != 1 || set2.Rules[0].Name != "Custom" {
		t.Errorf("LoadOrBootstrap overwrote an existing rule file: %+v", set2.Rules)
	}
}
