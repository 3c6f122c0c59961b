// Package stegerr defines the two error kinds surfaced by every ezsteg
// component.
//
// Validation errors are raised for malformed or out-of-bounds input before
// any cryptographic work happens (bad version, capacity exceeded, truncated
// envelope, invalid selector). Security errors are raised when a
// cryptographic operation fails or detects tampering.
//
// Callers branch with errors.Is against ErrValidation / ErrSecurity, or use
// IsKind. Messages are meant for humans; do not match on them.
package stegerr

import (
	"errors"
	"fmt"
)

// Kind is the category of an ezsteg error.
type Kind uint8

const (
	// KindValidation marks malformed or out-of-bounds input.
	KindValidation Kind = iota + 1
	// KindSecurity marks a failed or tampered cryptographic operation.
	KindSecurity
)

// String returns the lower-case kind name.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindSecurity:
		return "security"
	default:
		return "unknown"
	}
}

var (
	// ErrValidation matches every validation error via errors.Is.
	ErrValidation = errors.New("validation error")
	// ErrSecurity matches every security error via errors.Is.
	ErrSecurity = errors.New("security error")
)

// Error is the structured error type returned by ezsteg packages.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

// Error returns the message.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}

// Unwrap returns the cause, if any.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is lets errors.Is(err, ErrValidation) and errors.Is(err, ErrSecurity)
// match on kind.
func (e *Error) Is(target error) bool {
	if e == nil {
		return false
	}
	switch target {
	case ErrValidation:
		return e.Kind == KindValidation
	case ErrSecurity:
		return e.Kind == KindSecurity
	}
	return false
}

// Validation returns a validation error with a formatted message.
// A %w verb in format becomes the Cause.
func Validation(format string, args ...any) error {
	return newError(KindValidation, format, args...)
}

// Security returns a security error with a formatted message.
func Security(format string, args ...any) error {
	return newError(KindSecurity, format, args...)
}

func newError(kind Kind, format string, args ...any) error {
	wrapped := fmt.Errorf(format, args...)
	return &Error{Kind: kind, Message: wrapped.Error(), Cause: errors.Unwrap(wrapped)}
}

// IsKind reports whether err is (or wraps) an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// KindOf returns the kind of err, or 0 if err is not an ezsteg error.
func KindOf(err error) Kind {
	var e *Error
	if !errors.As(err, &e) {
		return 0
	}
	return e.Kind
}
