package hotkey

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidDefinition reports a structurally malformed combination.
	// It is returned before any cross-thread interaction takes place.
	ErrInvalidDefinition = errors.New("hotkey: invalid definition")

	// ErrNotReady means the message pump has not finished starting within
	// the startup timeout. Retryable.
	ErrNotReady = errors.New("hotkey: service not ready")

	// ErrTimeout means a request was posted to the pump but no result was
	// observed within the request timeout. The pending entry has been
	// rolled back. Retryable.
	ErrTimeout = errors.New("hotkey: request timed out")

	// ErrDisposed is returned by every operation after Close.
	ErrDisposed = errors.New("hotkey: service disposed")
)

// ConflictError reports that a different definition already owns the same
// (modifiers, key) combination. The native layer is never contacted.
type ConflictError struct {
	Existing Definition
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("hotkey: %s is already registered with trigger mode %q",
		e.Existing, e.Existing.Trigger)
}

// NativeError carries the OS error code from a refused native call, e.g.
// when another process owns the combination.
type NativeError struct {
	Op   string
	Code uint32
}

func (e *NativeError) Error() string {
	return fmt.Sprintf("hotkey: native %s call rejected (code %d)", e.Op, e.Code)
}

// AggregateError collects the individual failures from UnregisterAll,
// which keeps going instead of stopping at the first error.
type AggregateError struct {
	Errors []error
}

func (e *AggregateError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("hotkey: %d operation(s) failed: %s", len(e.Errors), strings.Join(msgs, "; "))
}

func (e *AggregateError) Unwrap() []error {
	return e.Errors
}
