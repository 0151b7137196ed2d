// Package risk implements the deterministic, pure-over-metadata Risk
// Analyzer: path heuristics resolve to a {Safe, Review, Risky} level
// with a confidence and human-readable reasons. It is grounded on the
// signal-table style of internal/scan/scan.go's evaluateDeletionReason
// (weighted reason accumulation) and on the macOS-specific cache/
// dev-artifact keyword tables surveyed in the mole and
// fenilsonani-cleanup-cache scanners (Library/Caches, DerivedData,
// Homebrew, _cacache, go/pkg/mod/cache, CacheStorage/Code Cache/
// ShaderCache families).
package risk

import (
	"strings"
	"time"

	"github.com/sweepd/sweepd/internal/pathctx"
)

// Level is the coarse risk classification.
type Level int

const (
	Safe Level = iota
	Review
	Risky
)

func (l Level) String() string {
	switch l {
	case Safe:
		return "Safe"
	case Review:
		return "Review"
	default:
		return "Risky"
	}
}

// Assessment is the Risk Assessment data-model value.
type Assessment struct {
	Level            Level
	Confidence       int
	Reasons          []string
	AgeModifiedDays  *int
	AgeCreatedDays   *int
}

type signal struct {
	reason     string
	confidence int
}

var sensitiveKeywords = []string{
	"ssh", "gpg", "keychain", "passwords", "credentials", ".env",
	".pem", ".key", ".cert", ".p12", "wallet", "vault", "important",
	"personal", "secret",
}

var riskySegments = [][]string{
	{"documents"}, {"desktop"}, {"pictures"}, {"movies"}, {"music"}, {"photos"},
	{"library", "preferences"}, {"library", "keychains"}, {"library", "accounts"},
	{"library", "cookies"}, {"library", "mail"}, {"library", "messages"}, {"library", "safari"},
}

var backupSegments = [][]string{
	{"backups"}, {"time machine"}, {"mobilesync"}, {"mobilesync", "backup"},
}

var devCacheSignals = []struct {
	substr     string
	reason     string
	confidence int
}{
	{"deriveddata", "Xcode DerivedData", 92},
	{"library/caches/homebrew", "Homebrew cache", 90},
	{"homebrew", "Homebrew cache", 90},
	{"_cacache", "npm cache", 88},
	{"library/caches/pip", "pip cache", 88},
	{"cocoapods", "CocoaPods cache", 88},
	{"library/caches/yarn", "Yarn cache", 88},
	{"go/pkg/mod/cache", "Go build cache", 88},
	{"go-build", "Go build cache", 88},
}

var appSupportCacheKeywords = []string{
	"cache", "caches", "cachestorage", "code cache", "gpu", "shadercache", "tmp", "temp", "dawncache",
}

var browserCacheKeywords = []string{
	"cachestorage", "code cache", "shadercache", "gpucache", "webrtc",
}

// Analyze builds the Risk Assessment for path, given the modification
// time (and optional creation time) already resolved by the caller —
// the scan engine supplies these from the Path Context's lazily-fetched
// os.FileInfo so Analyze itself stays pure and I/O-free.
func Analyze(path string, modTime time.Time, hasCreated bool, createdTime time.Time) Assessment {
	pc := pathctx.New(path)

	if reason, ok := sensitiveMatch(pc); ok {
		return finalize(Risky, 98, []signal{{reason, 98}}, modTime, hasCreated, createdTime)
	}
	for _, seq := range riskySegments {
		if pc.HasSegmentSequence(seq...) {
			return finalize(Risky, 98, []signal{{"Sensitive or personal location", 98}}, modTime, hasCreated, createdTime)
		}
	}

	var riskySignals, safeSignals, reviewSignals []signal

	if pc.ContainsAny("system/library") {
		riskySignals = append(riskySignals, signal{"System framework location", 90})
	}
	for _, seq := range backupSegments {
		if pc.HasSegmentSequence(seq...) {
			riskySignals = append(riskySignals, signal{"Backup or Time Machine location", 88})
		}
	}

	safeSignals = append(safeSignals, safeSignalsFor(pc)...)
	reviewSignals = append(reviewSignals, reviewSignalsFor(pc)...)

	var level Level
	var confidence int
	var reasons []signal

	switch {
	case len(riskySignals) > 0:
		level, confidence, reasons = Risky, 85, riskySignals
		for _, s := range riskySignals {
			if s.confidence > confidence {
				confidence = s.confidence
			}
		}
	case len(safeSignals) > 0:
		level, confidence, reasons = Safe, 70, safeSignals
		for _, s := range safeSignals {
			if s.confidence > confidence {
				confidence = s.confidence
			}
		}
	case len(reviewSignals) > 0:
		level, confidence, reasons = Review, 55, reviewSignals
		for _, s := range reviewSignals {
			if s.confidence > confidence {
				confidence = s.confidence
			}
		}
	default:
		level, confidence, reasons = Review, 55, []signal{{"Uncategorised location", 0}}
	}

	return finalize(level, confidence, reasons, modTime, hasCreated, createdTime)
}

func sensitiveMatch(pc *pathctx.Context) (string, bool) {
	for _, kw := range sensitiveKeywords {
		if pc.ContainsAny(kw) {
			return "Sensitive or personal location", true
		}
	}
	return "", false
}

func safeSignalsFor(pc *pathctx.Context) []signal {
	var out []signal

	if pc.ContainsAny("/.trash", "library/trash") {
		out = append(out, signal{"Trash location", 97})
	}
	if pc.ContainsAny("/tmp/", "/var/tmp/", "/private/var/tmp/", "library/caches/temporaryitems") {
		out = append(out, signal{"Temporary directory", 91})
	}
	if pc.HasSegmentSequence("library", "caches") {
		out = append(out, signal{"Library cache", 94})
	}
	if pc.ContainsAny("library/containers") && pc.ContainsAny("data/library/caches") {
		out = append(out, signal{"Sandbox container cache", 93})
	}
	if pc.ContainsAny("group-containers") && pc.ContainsAny("library/caches") {
		out = append(out, signal{"Group container cache", 93})
	}
	if pc.ContainsAny("com.apple.quicklook") {
		out = append(out, signal{"QuickLook thumbnail cache", 97})
	}
	if pc.ContainsAny("dropbox") && pc.ContainsAny("cache") {
		out = append(out, signal{"Dropbox cache", 90})
	}
	for _, dc := range devCacheSignals {
		if pc.ContainsAny(dc.substr) {
			out = append(out, signal{dc.reason, dc.confidence})
		}
	}
	if pc.HasSegmentSequence("library", "application support") || pc.ContainsAny("library/application support") {
		for _, kw := range appSupportCacheKeywords {
			if strings.Contains(pc.Lower, kw) {
				out = append(out, signal{"Application Support cache (" + ownerSegment(pc) + ")", 90})
				break
			}
		}
	}
	for _, kw := range browserCacheKeywords {
		if strings.Contains(pc.Lower, kw) {
			out = append(out, signal{"Browser or service-worker cache", 89})
			break
		}
	}

	return out
}

func reviewSignalsFor(pc *pathctx.Context) []signal {
	var out []signal
	if pc.ContainsAny("/downloads/") {
		out = append(out, signal{"User downloads", 55})
	}
	if pc.ContainsAny("saved application state") {
		out = append(out, signal{"Saved application state", 55})
	}
	if pc.ContainsAny(".log") {
		out = append(out, signal{"Recent log file", 55})
	}
	if pc.ContainsAny("library/mail") && pc.ContainsAny("downloads") {
		out = append(out, signal{"Mail downloads", 55})
	}
	if pc.ContainsAny("library/messages") && pc.ContainsAny("attachments") {
		out = append(out, signal{"Messages attachments", 55})
	}
	return out
}

// ownerSegment picks the nearest identifying segment (commonly a
// reverse-DNS bundle identifier) preceding a cache-keyword segment, used
// to label Application Support cache reasons.
func ownerSegment(pc *pathctx.Context) string {
	for i, seg := range pc.Segments {
		if seg.Lower == "application support" && i+1 < len(pc.Segments) {
			return pc.Segments[i+1].Raw
		}
	}
	return "unknown"
}

func finalize(level Level, confidence int, sigs []signal, modTime time.Time, hasCreated bool, createdTime time.Time) Assessment {
	reasons := dedupReasons(sigs)

	modAge := int(time.Since(modTime).Hours() / 24)
	a := Assessment{
		Level:           level,
		Confidence:      confidence,
		Reasons:         reasons,
		AgeModifiedDays: &modAge,
	}
	if hasCreated {
		createdAge := int(time.Since(createdTime).Hours() / 24)
		a.AgeCreatedDays = &createdAge
	}

	hasExplicitSafeReason := hasAnyReason(reasons, "cache", "temp", "trash", "log")
	hoursSinceMod := time.Since(modTime).Hours()

	if level == Safe && hoursSinceMod < 24 && !hasExplicitSafeReason {
		a.Level = Review
		if a.Confidence > 60 {
			a.Confidence = 60
		}
		a.Reasons = appendReason(a.Reasons, "Recently modified")
	} else if level == Review && modAge >= 60 {
		a.Level = Safe
		if a.Confidence < 72 {
			a.Confidence = 72
		}
		a.Reasons = appendReason(a.Reasons, "Stale (>60d)")
	}

	return a
}

func hasAnyReason(reasons []string, substrs ...string) bool {
	for _, r := range reasons {
		lower := strings.ToLower(r)
		for _, s := range substrs {
			if strings.Contains(lower, s) {
				return true
			}
		}
	}
	return false
}

func appendReason(reasons []string, reason string) []string {
	for _, r := range reasons {
		if r == reason {
			return reasons
		}
	}
	return append(reasons, reason)
}

// dedupReasons merges duplicate reason strings, keeping the maximum
// confidence seen for each and preserving first-seen order.
func dedupReasons(sigs []signal) []string {
	seen := make(map[string]bool, len(sigs))
	out := make([]string, 0, len(sigs))
	best := make(map[string]int, len(sigs))

	for _, s := range sigs {
		if cur, ok := best[s.reason]; !ok || s.confidence > cur {
			best[s.reason] = s.confidence
		}
	}
	for _, s := range sigs {
		if seen[s.reason] {
			continue
		}
		seen[s.reason] = true
		out = append(out, s.reason)
	}
	return out
}
