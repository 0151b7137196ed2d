// Package errs defines the error taxonomy shared by every pipeline stage,
// so callers can classify failures with errors.Is instead of string
// matching.
package errs

import "errors"

// Kind is a sentinel taxonomy member. Wrap it with fmt.Errorf("...: %w", Kind)
// to attach path-specific detail while keeping it errors.Is-comparable.
type Kind error

var (
	// Cancelled means the operation was cooperatively terminated. Never
	// logged as a failure.
	Cancelled Kind = errors.New("cancelled")

	// NotFound means the path disappeared between discovery and action.
	// Treated as success for idempotent operations.
	NotFound Kind = errors.New("not found")

	// PermissionDenied means the operation lacks the rights to act on a
	// path; queued for batched elevation.
	PermissionDenied Kind = errors.New("permission denied")

	// InUse means a regular-file candidate has an open handle.
	InUse Kind = errors.New("in use")

	// SystemCritical means the path is categorically protected.
	SystemCritical Kind = errors.New("system critical")

	// TransientIO means a stat/read failure that should be skipped and
	// counted, not treated as fatal.
	TransientIO Kind = errors.New("transient io error")

	// ConfigurationError means the rule set or daemon config is missing
	// or malformed. Fatal at scan start.
	ConfigurationError Kind = errors.New("configuration error")

	// InternalInvariantViolation means an impossible state was reached
	// (e.g. the dedup set desynced from the candidate list).
	InternalInvariantViolation Kind = errors.New("internal invariant violation")
)

// Is reports whether err's chain contains the given Kind.
func Is(err error, kind Kind) bool {
	return errors.Is(err, kind)
}
