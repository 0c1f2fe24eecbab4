// Package faults defines the error taxonomy shared by the terminal
// adapter. Every failure surfaced to a caller belongs to exactly one
// class so callers can branch with errors.Is against the class
// sentinels without string matching.
package faults

import (
	"errors"
	"fmt"
)

// Class sentinels. Compare with errors.Is.
var (
	// ErrValidation marks a malformed or missing caller-supplied argument,
	// raised before any terminal call is made.
	ErrValidation = errors.New("validation failed")

	// ErrPrecondition marks an operation invoked while the session state
	// machine does not permit it.
	ErrPrecondition = errors.New("precondition not met")

	// ErrProtocol marks an event that cannot be classified, or a misused
	// response slot.
	ErrProtocol = errors.New("protocol violation")

	// ErrCapabilityUnsupported marks a reporting operation whose required
	// capability the terminal host does not support.
	ErrCapabilityUnsupported = errors.New("capability unsupported")

	// ErrTerminalFailure marks a confirming event that arrived with a
	// non-success status.
	ErrTerminalFailure = errors.New("terminal failure")

	// ErrTimeout marks a bounded wait that elapsed before the confirming
	// event arrived. The caller may retry or abort.
	ErrTimeout = errors.New("timed out")
)

type classError struct {
	class error
	code  string
	msg   string
}

func (e *classError) Error() string {
	if e.code == "" {
		return e.msg
	}
	return fmt.Sprintf("%s: %s", e.code, e.msg)
}

func (e *classError) Unwrap() error { return e.class }

func (e *classError) Is(target error) bool { return target == e.class }

// Code returns the machine-readable reason code, if any.
func Code(err error) string {
	var ce *classError
	if errors.As(err, &ce) {
		return ce.code
	}
	return ""
}

// Classify returns a stable label for the error's class, for logs and
// metrics. Unclassified errors report "internal".
func Classify(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrPrecondition):
		return "precondition"
	case errors.Is(err, ErrProtocol):
		return "protocol"
	case errors.Is(err, ErrCapabilityUnsupported):
		return "capability_unsupported"
	case errors.Is(err, ErrTerminalFailure):
		return "terminal_failure"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	default:
		return "internal"
	}
}

func newClassError(class error, code, format string, args ...any) error {
	return &classError{class: class, code: code, msg: fmt.Sprintf(format, args...)}
}

// Validation builds a ValidationError with a reason code.
func Validation(code, format string, args ...any) error {
	return newClassError(ErrValidation, code, format, args...)
}

// Precondition builds a PreconditionError with a reason code.
func Precondition(code, format string, args ...any) error {
	return newClassError(ErrPrecondition, code, format, args...)
}

// Protocol builds a ProtocolError with a reason code.
func Protocol(code, format string, args ...any) error {
	return newClassError(ErrProtocol, code, format, args...)
}

// CapabilityUnsupported builds a CapabilityUnsupportedError for the named capability.
func CapabilityUnsupported(capability string) error {
	return newClassError(ErrCapabilityUnsupported, "capability_unsupported", "capability %q not supported by terminal host", capability)
}

// TerminalFailure builds a TerminalFailureError carrying the status the
// terminal reported.
func TerminalFailure(code, format string, args ...any) error {
	return newClassError(ErrTerminalFailure, code, format, args...)
}

// Timeout builds a TimeoutError for the named wait.
func Timeout(code, format string, args ...any) error {
	return newClassError(ErrTimeout, code, format, args...)
}
