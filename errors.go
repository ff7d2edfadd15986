package krylovschur

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
)

// epsilon is the machine unit roundoff for float64, the same quantity
// ARPACK calls slamch('E'): used throughout this package as the base
// unit for breakdown and convergence tolerances.
var epsilon = math.Nextafter(1, 2) - 1

// Kind classifies the errors this package can return, so that callers
// can distinguish an invalid call from an internal numerical failure
// without parsing message strings.
type Kind int

const (
	// InvalidArgument means a constructor or option was given a value
	// outside its documented domain.
	InvalidArgument Kind = iota
	// NotInitialized means Compute was called before Init/InitRandom.
	NotInitialized
	// NumericalFailure means a dense-LA step (the Schur sweep or the
	// eigenvector back-substitution) could not produce a usable result.
	// SQLiteOperator also reports its database errors with this kind.
	NumericalFailure
)

func (k Kind) String() string {
	switch k {
	case InvalidArgument:
		return "InvalidArgument"
	case NotInitialized:
		return "NotInitialized"
	case NumericalFailure:
		return "NumericalFailure"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Error wraps a causing error with a Kind. Breakdown and non-convergence
// are not represented here: per the error handling policy, they are
// reported through Info and the Compute return value, never as errors.
type Error struct {
	Kind  Kind
	cause error
}

func newError(k Kind, format string, args ...interface{}) error {
	return &Error{Kind: k, cause: errors.Errorf(format, args...)}
}

func wrapError(k Kind, err error, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: k, cause: errors.Wrap(err, msg)}
}

func (e *Error) Error() string { return e.cause.Error() }
func (e *Error) Cause() error  { return e.cause }
func (e *Error) Unwrap() error { return e.cause }
