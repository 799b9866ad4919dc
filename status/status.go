// Package status carries the small error-kind vocabulary shared by every
// storage engine and by the KadeQL executor: NotFound, AlreadyExists,
// InvalidArgument, FailedPrecondition and Internal, plus a message.
package status

import (
	"errors"
	"fmt"
)

// Code is the kind of failure a storage or executor operation reports.
type Code int

const (
	OK Code = iota
	NotFound
	AlreadyExists
	InvalidArgument
	FailedPrecondition
	Internal
)

func (c Code) String() string {
	switch c {
	case OK:
		return "OK"
	case NotFound:
		return "NotFound"
	case AlreadyExists:
		return "AlreadyExists"
	case InvalidArgument:
		return "InvalidArgument"
	case FailedPrecondition:
		return "FailedPrecondition"
	case Internal:
		return "Internal"
	default:
		return "Unknown"
	}
}

// Error pairs a Code with a human-readable message. It implements error and
// supports errors.Is/errors.As through Unwrap of a wrapped cause.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %s", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

func newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// NotFoundf builds a NotFound error.
func NotFoundf(format string, args ...any) error { return newf(NotFound, format, args...) }

// AlreadyExistsf builds an AlreadyExists error.
func AlreadyExistsf(format string, args ...any) error { return newf(AlreadyExists, format, args...) }

// InvalidArgumentf builds an InvalidArgument error.
func InvalidArgumentf(format string, args ...any) error {
	return newf(InvalidArgument, format, args...)
}

// FailedPreconditionf builds a FailedPrecondition error.
func FailedPreconditionf(format string, args ...any) error {
	return newf(FailedPrecondition, format, args...)
}

// Internalf builds an Internal error.
func Internalf(format string, args ...any) error { return newf(Internal, format, args...) }

// Wrap attaches cause to a new error of the given code, preserving cause for
// errors.Unwrap/errors.Is while presenting a fresh message.
func Wrap(code Code, cause error, format string, args ...any) error {
	e := newf(code, format, args...)
	e.cause = cause
	return e
}

// Of returns the Code carried by err, or OK if err is nil, or Internal if
// err is non-nil but isn't a *Error.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	var se *Error
	if errors.As(err, &se) {
		return se.Code
	}
	return Internal
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	return Of(err) == code
}
