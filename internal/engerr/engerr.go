// Package engerr defines the typed error-kind taxonomy of spec.md §7:
// InvariantViolation, FilterError, ConfigurationError, CancellationError /
// TimeoutError, and PersistenceError. Every error the engine returns
// across a package boundary wraps one of these sentinels so callers can
// branch with errors.Is/errors.As instead of string matching; the engine
// never panics across a package boundary.
package engerr

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel kinds. Wrap these with fmt.Errorf("...: %w", ErrX) or use the
// constructors below, which attach a message and an optional cause.
var (
	// ErrInvariant marks a violated internal invariant (e.g. a candidate
	// span outside document bounds). spec.md §7: "An invariant violation
	// is a programming error, not a runtime condition to recover from" —
	// it is still returned as an error, never a panic, so a calling
	// service can log and fail the single request rather than crash.
	ErrInvariant = errors.New("engine: invariant violation")

	// ErrFilter marks a recovered failure from one filter (a panic or
	// returned error during Detect). The dispatcher drops that filter's
	// output for the call and continues; the engine records ErrFilter as a
	// warning and in stats and never returns it from Process.
	ErrFilter = errors.New("engine: filter error")

	// ErrConfiguration marks a Policy or table load that could not be
	// normalized into something usable (distinct from the "missing file
	// treated as empty" case, which is not an error at all).
	ErrConfiguration = errors.New("engine: configuration error")

	// ErrCancellation marks a process() call that was cancelled via its
	// context before completion.
	ErrCancellation = errors.New("engine: cancelled")

	// ErrTimeout marks a process() call whose context deadline elapsed.
	ErrTimeout = errors.New("engine: timeout")

	// ErrPersistence marks a storage read or write failure: a failed
	// feedback-store flush, which is logged rather than returned, and a
	// file internal/audit could not read, which is attached to that
	// file's report. spec.md §7: corruption or a missing store file
	// degrade the engine to "no learned modifier", not a failed request.
	ErrPersistence = errors.New("engine: persistence error")
)

// InvariantError wraps ErrInvariant with the invariant that was violated.
type InvariantError struct {
	Invariant string
	Cause     error
}

func (e *InvariantError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("invariant %q violated: %v", e.Invariant, e.Cause)
	}
	return fmt.Sprintf("invariant %q violated", e.Invariant)
}

func (e *InvariantError) Unwrap() error { return ErrInvariant }

// NewInvariant builds an InvariantError for the named invariant.
func NewInvariant(invariant string, cause error) error {
	return &InvariantError{Invariant: invariant, Cause: cause}
}

// FilterFailure wraps ErrFilter with the offending filter's ID.
type FilterFailure struct {
	FilterID string
	Cause    error
}

func (e *FilterFailure) Error() string {
	return fmt.Sprintf("filter %q failed: %v", e.FilterID, e.Cause)
}

func (e *FilterFailure) Unwrap() error { return ErrFilter }

// NewFilterFailure builds a FilterFailure for filterID.
func NewFilterFailure(filterID string, cause error) error {
	return &FilterFailure{FilterID: filterID, Cause: cause}
}

// ConfigurationFailure wraps ErrConfiguration with the field that failed
// to normalize and the underlying cause.
type ConfigurationFailure struct {
	Field string
	Cause error
}

func (e *ConfigurationFailure) Error() string {
	return fmt.Sprintf("configuration field %q invalid: %v", e.Field, e.Cause)
}

func (e *ConfigurationFailure) Unwrap() error { return ErrConfiguration }

// NewConfiguration builds a ConfigurationFailure for field.
func NewConfiguration(field string, cause error) error {
	return &ConfigurationFailure{Field: field, Cause: cause}
}

// PersistenceFailure wraps ErrPersistence with the operation that failed.
type PersistenceFailure struct {
	Op    string
	Cause error
}

func (e *PersistenceFailure) Error() string {
	return fmt.Sprintf("feedback store %s: %v", e.Op, e.Cause)
}

func (e *PersistenceFailure) Unwrap() error { return ErrPersistence }

// NewPersistence builds a PersistenceFailure for op.
func NewPersistence(op string, cause error) error {
	return &PersistenceFailure{Op: op, Cause: cause}
}

// WrapCancellation classifies a context (or errgroup) error as
// ErrCancellation or ErrTimeout, per which of context.Canceled /
// context.DeadlineExceeded it carries. Any other error is returned
// unchanged, since callers only use this at phase boundaries where the
// only expected failure is context-derived.
func WrapCancellation(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("%w: %v", ErrCancellation, err)
	default:
		return err
	}
}
