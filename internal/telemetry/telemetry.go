// Package telemetry persists process-wide scan/selection counters and
// the learned category preference ratios to a JSON file, the
// module-global, best-effort-persisted cache pattern SPEC_FULL.md §9
// calls for. Grounded on internal/config.Load's plain-file
// open/decode/default loading style, applied to a small state blob
// instead of a rule document.
package telemetry

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

// State is the persisted telemetry.json shape from SPEC_FULL.md §6.
type State struct {
	TotalScans        int64                  `json:"total_scans"`
	LastScanMS        int64                  `json:"last_scan_ms"`
	TotalDeselections int64                  `json:"total_deselections"`
	Preferences       map[string]Preference  `json:"preferences"`
}

// Preference is the per-category learned-preference counter set.
type Preference struct {
	Total      int64  `json:"total"`
	Selected   int64  `json:"selected"`
	Deselected int64  `json:"deselected"`
	LastAction string `json:"last_action"`
}

// Ratio returns selected/total, or 0.5 (neutral) when there's no history
// yet, matching the "ML predictor is a no-op by default" design note.
func (p Preference) Ratio() float64 {
	if p.Total == 0 {
		return 0.5
	}
	return float64(p.Selected) / float64(p.Total)
}

// Store is a process-wide, lock-guarded telemetry.json-backed store.
type Store struct {
	mu   sync.Mutex
	path string
	state State
}

// Open loads path if it exists, or starts from a zero State.
func Open(path string) (*Store, error) {
	s := &Store{path: path, state: State{Preferences: map[string]Preference{}}}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(data, &s.state); err != nil {
		return nil, err
	}
	if s.state.Preferences == nil {
		s.state.Preferences = map[string]Preference{}
	}
	return s, nil
}

// RecordScan increments the scan counter and records the scan's
// duration in milliseconds.
func (s *Store) RecordScan(durationMS int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.TotalScans++
	s.state.LastScanMS = durationMS
}

// RecordSelection updates the category's learned preference after the
// user selects or deselects a candidate.
func (s *Store) RecordSelection(category string, selected bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pref := s.state.Preferences[category]
	pref.Total++
	if selected {
		pref.Selected++
		pref.LastAction = "selected"
	} else {
		pref.Deselected++
		pref.LastAction = "deselected"
		s.state.TotalDeselections++
	}
	s.state.Preferences[category] = pref
}

// Preference returns the current learned preference for category.
func (s *Store) Preference(category string) Preference {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Preferences[category]
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Persist writes the current state to disk, best-effort, matching the
// "best-effort persistence at teardown" design note.
func (s *Store) Persist() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if dir := filepath.Dir(s.path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	data, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o644)
}
