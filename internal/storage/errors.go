package storage

import (
	"errors"
	"fmt"
)

// Kind classifies a storage failure. It is a closed set: every public
// store operation fails with exactly one Kind, and no lower-level error
// type crosses the storage boundary.
type Kind int

const (
	// KindUnknown is the catch-all for failures the store could not
	// classify. Unrecognized low-level errors map here, never panic.
	KindUnknown Kind = iota

	// KindNotFound means the row for a point lookup is absent.
	KindNotFound

	// KindConflict means the write would violate a uniqueness or
	// referential invariant (e.g. duplicate user ID).
	KindConflict

	// KindInvalidInput means a value is malformed, such as an
	// unsupported split-policy code or a negative amount.
	KindInvalidInput

	// KindSerialization means a value could not be converted to or
	// from its persisted representation.
	KindSerialization

	// KindEngine means the underlying storage medium failed. During
	// migration this is fatal to startup.
	KindEngine

	// KindBusy means the operation timed out waiting for a permit or
	// for the database; a retry may succeed.
	KindBusy
)

// String returns the kind name for logging and error text.
func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindInvalidInput:
		return "invalid_input"
	case KindSerialization:
		return "serialization"
	case KindEngine:
		return "engine"
	case KindBusy:
		return "busy"
	default:
		return "unknown"
	}
}

// Error is the only error type returned by store operations. Op names
// the failing operation ("sqlite.AddExpense"), Err carries the wrapped
// cause for logs; callers branch on Kind, not on Err.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError wraps err as a storage Error of the given kind.
func NewError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf extracts the Kind from an error returned by a store
// operation. Non-store errors (and nil) report KindUnknown.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindUnknown
}

// IsNotFound reports whether err is a missing-row failure.
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

// IsConflict reports whether err is a uniqueness or referential
// violation.
func IsConflict(err error) bool { return KindOf(err) == KindConflict }

// IsInvalidInput reports whether err is a malformed-value failure.
func IsInvalidInput(err error) bool { return KindOf(err) == KindInvalidInput }

// IsBusy reports whether err is a timeout that may succeed on retry.
func IsBusy(err error) bool { return KindOf(err) == KindBusy }
