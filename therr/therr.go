// Package therr defines the closed taxonomy of error kinds used across the
// thermod daemon.  The control surface's error-translation middleware is
// the only place that maps a Kind to an HTTP status; every other package
// just returns a *Error with the right Kind and lets it propagate.
package therr

import (
	"github.com/pkg/errors"
)

// Kind is one of the closed set of error kinds a thermod component can
// raise.
type Kind int

const (
	// Validation means input did not match the schema or value ranges.
	Validation Kind = iota
	// Sensor means the thermometer failed to produce a reading.
	Sensor
	// Actuator means a switch call to the actuator failed.
	Actuator
	// Persistence means an in-memory change was accepted but not
	// persisted to disk.
	Persistence
	// Transaction means an unexpected failure occurred partway through a
	// multi-step mutation; the caller rolled back to the entry snapshot.
	Transaction
	// Cancelled is only raised on shutdown.
	Cancelled
)

func (k Kind) String() string {
	switch k {
	case Validation:
		return "validation"
	case Sensor:
		return "sensor"
	case Actuator:
		return "actuator"
	case Persistence:
		return "persistence"
	case Transaction:
		return "transaction"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Error is a thermod error: a Kind plus an explanation, with an optional
// wrapped cause.
type Error struct {
	Kind    Kind
	Explain string
	Cause   error
}

// Error satisfies the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Explain + ": " + e.Cause.Error()
	}
	return e.Explain
}

// Unwrap allows errors.Is/errors.As and github.com/pkg/errors.Cause to see
// through to the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates an *Error of the given kind with no wrapped cause.
func New(kind Kind, explain string) *Error {
	return &Error{Kind: kind, Explain: explain}
}

// Wrap creates an *Error of the given kind, wrapping cause with pkg/errors
// so a stack trace is attached at the point of first failure.
func Wrap(kind Kind, cause error, explain string) *Error {
	if cause == nil {
		return New(kind, explain)
	}
	return &Error{Kind: kind, Explain: explain, Cause: errors.Wrap(cause, explain)}
}

// As extracts the *Error from err, if any is present anywhere in its chain.
func As(err error) (*Error, bool) {
	for err != nil {
		if te, ok := err.(*Error); ok {
			return te, true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil, false
		}
		err = u.Unwrap()
	}
	return nil, false
}

// KindOf returns the Kind of err if it is (or wraps) a *Error, and ok=false
// otherwise.
func KindOf(err error) (Kind, bool) {
	te, ok := As(err)
	if !ok {
		return 0, false
	}
	return te.Kind, true
}
