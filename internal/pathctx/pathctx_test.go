package pathctx

import "testing"

func TestHasSegmentSequence(t *testing.T) {
	pc := New("/Users/alice/Library/Caches/com.example.App")
	if !pc.HasSegmentSequence("library", "caches") {
		t.Error("expected library/caches sequence to match")
	}
	if pc.HasSegmentSequence("caches", "library") {
		t.Error("reversed sequence should not match")
	}
}

func TestContainsAnyCaseInsensitive(t *testing.T) {
	pc := New("/Users/Alice/Downloads/installer.dmg")
	if !pc.ContainsAny("/downloads/") {
		t.Error("expected lowercased path to contain /downloads/")
	}
}

func TestExpandHome(t *testing.T) {
	if got := ExpandHome("~/Downloads", "/Users/alice"); got != "/Users/alice/Downloads" {
		t.Errorf("ExpandHome = %q", got)
	}
	if got := ExpandHome("~", "/Users/alice"); got != "/Users/alice" {
		t.Errorf("ExpandHome(~) = %q", got)
	}
	if got := ExpandHome("/etc/hosts", "/Users/alice"); got != "/etc/hosts" {
		t.Errorf("ExpandHome should leave non-~ paths untouched, got %q", got)
	}
}

func TestDetectTraversal(t *testing.T) {
	if !DetectTraversal("../../etc/passwd") {
		t.Error("expected traversal to be detected")
	}
	if DetectTraversal("a/b/c") {
		t.Error("plain path should not be flagged as traversal")
	}
}

func TestHasPrefixDir(t *testing.T) {
	if !HasPrefixDir("/Users/alice/Downloads/x", "/Users/alice/Downloads") {
		t.Error("expected prefix match")
	}
	if HasPrefixDir("/Users/alice/Downloads2/x", "/Users/alice/Downloads") {
		t.Error("sibling directory with shared prefix should not match")
	}
}
