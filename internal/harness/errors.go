package harness

import (
	"errors"
	"fmt"
)

// Error represents a harness-level fault around one test.
//
// Harness errors are always local to a single test: none of them abort
// other tests or the dispatch loop. Assertion failures are NOT errors -
// they are recorded as AssertionResults and only realized at finalize
// time.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Test names the affected test, when known.
	Test string
}

// ErrorCode categorizes harness errors.
type ErrorCode string

const (
	// ErrCodeInvalidState indicates programmer misuse: operating on a
	// test that already reached a terminal state (double done, late fail).
	ErrCodeInvalidState ErrorCode = "INVALID_STATE"

	// ErrCodeDuplicateName indicates a registration collision.
	ErrCodeDuplicateName ErrorCode = "DUPLICATE_NAME"

	// ErrCodeNoContext indicates an assertion invoked outside any
	// step context.
	ErrCodeNoContext ErrorCode = "NO_CONTEXT"

	// ErrCodeTimeout indicates the per-test deadline elapsed before the
	// test concluded.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
)

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Test != "" {
		return fmt.Sprintf("%s: %s (test=%s)", e.Code, e.Message, e.Test)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsInvalidState returns true if the error is an invalid-state error.
// Uses errors.As to handle wrapped errors.
func IsInvalidState(err error) bool {
	return hasCode(err, ErrCodeInvalidState)
}

// IsDuplicateName returns true if the error is a registration collision.
func IsDuplicateName(err error) bool {
	return hasCode(err, ErrCodeDuplicateName)
}

// IsNoContext returns true if the error is an out-of-context assertion.
func IsNoContext(err error) bool {
	return hasCode(err, ErrCodeNoContext)
}

func hasCode(err error, code ErrorCode) bool {
	var he *Error
	if errors.As(err, &he) {
		return he.Code == code
	}
	return false
}

func newInvalidState(test, message string) *Error {
	return &Error{Code: ErrCodeInvalidState, Message: message, Test: test}
}

func newDuplicateName(test string) *Error {
	return &Error{
		Code:    ErrCodeDuplicateName,
		Message: "test name already registered",
		Test:    test,
	}
}

func newNoContext(message string) *Error {
	return &Error{Code: ErrCodeNoContext, Message: message}
}
