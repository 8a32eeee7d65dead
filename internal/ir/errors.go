package ir

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes translation failures.
//
// Every error surfaced by the compiler, planner and mutation path carries
// exactly one of these codes. Transports map codes to status values; callers
// branch on them with IsCode.
type ErrorCode string

const (
	// ErrCodeUnsupportedExpression indicates an unknown or structurally
	// disallowed expression or field shape (column comparisons, negated
	// directives, directives inside a disjunction, a second directive).
	ErrCodeUnsupportedExpression ErrorCode = "UNSUPPORTED_EXPRESSION"

	// ErrCodeUnsupportedOperator indicates an operator tag the compiler does
	// not recognise.
	ErrCodeUnsupportedOperator ErrorCode = "UNSUPPORTED_OPERATOR"

	// ErrCodeUnsupportedUnaryOperator indicates a unary operator other than
	// is_null.
	ErrCodeUnsupportedUnaryOperator ErrorCode = "UNSUPPORTED_UNARY_OPERATOR"

	// ErrCodeUnknownScalarType indicates a scalar type tag outside the
	// supported set.
	ErrCodeUnknownScalarType ErrorCode = "UNKNOWN_SCALAR_TYPE"

	// ErrCodeInvalidTarget indicates a request target that is not a single
	// table.
	ErrCodeInvalidTarget ErrorCode = "INVALID_TARGET"

	// ErrCodeNotImplemented indicates a recognised but unsupported operation
	// (update mutations).
	ErrCodeNotImplemented ErrorCode = "NOT_IMPLEMENTED"

	// ErrCodeConfiguration indicates missing or malformed connection
	// configuration. Raised before any store call is attempted.
	ErrCodeConfiguration ErrorCode = "CONFIGURATION_ERROR"

	// ErrCodeStoreCallFailure wraps any failure returned by the store client.
	ErrCodeStoreCallFailure ErrorCode = "STORE_CALL_FAILURE"

	// ErrCodeInvalidRequest indicates a payload that could not be decoded.
	ErrCodeInvalidRequest ErrorCode = "INVALID_REQUEST"
)

// Error is the structured error type shared by every translation stage.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Construct names the offending tag, operator or type, when there is one.
	Construct string

	// Err is the underlying cause (store client errors, decode errors).
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Construct != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Construct)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause for errors.Is/As chains.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates an Error without an underlying cause.
func NewError(code ErrorCode, construct, format string, args ...any) *Error {
	return &Error{
		Code:      code,
		Message:   fmt.Sprintf(format, args...),
		Construct: construct,
	}
}

// WrapError creates an Error around an underlying cause.
func WrapError(code ErrorCode, err error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}

// IsCode reports whether err (or anything it wraps) is an *Error with code.
func IsCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}

// CodeOf returns the code of the first *Error in err's chain, or "" if none.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
