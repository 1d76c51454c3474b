// Package engerrors is the engine's structured error type, trimmed from a
// much larger sibling to exactly the error kinds this engine raises:
// malformed wire input (non-fatal, the offending connection is closed),
// misuse of an engine-internal invariant (a programming error), and
// allocation/resource exhaustion (fatal, the process exits).
//
// A cancel that misses an unknown order id is deliberately NOT one of
// these: it is a normal OrderDeleted{accepted:false} event, not an error.
package engerrors

import (
	"fmt"
	"time"
)

// Code classifies an engerrors.Error.
type Code string

const (
	// CodeMalformedCommand marks a command that failed to parse off the
	// wire. The owning connection is closed; no other connection is
	// affected.
	CodeMalformedCommand Code = "MALFORMED_COMMAND"
	// CodeInvariantViolation marks a caller passing an order whose side
	// doesn't match the operation it was routed to, or any other state
	// the engine's own contracts should have prevented. Treated as a
	// programming error.
	CodeInvariantViolation Code = "INVARIANT_VIOLATION"
	// CodeResourceExhausted marks an allocation failure on the output or
	// book storage path. Fatal: the process exits rather than continue
	// with a corrupted book.
	CodeResourceExhausted Code = "RESOURCE_EXHAUSTED"
)

// Error is the engine's structured error value.
type Error struct {
	Code      Code
	Message   string
	Timestamp time.Time
	Cause     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New builds an Error with no cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message, Timestamp: time.Now()}
}

// Newf builds an Error with a formatted message.
func Newf(code Code, format string, args ...interface{}) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap attaches code and message to an existing error as its cause.
func Wrap(err error, code Code, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Timestamp: time.Now(), Cause: err}
}

// Fatal reports whether code should terminate the process rather than be
// handled per-connection.
func (c Code) Fatal() bool {
	return c == CodeResourceExhausted
}
