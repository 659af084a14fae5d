package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType classifies why a single save file could not be decoded
type ErrorType string

const (
	ErrorTypeTruncated          ErrorType = "truncated"
	ErrorTypeUnknownFormat      ErrorType = "unknown_format"
	ErrorTypeUnsupportedVersion ErrorType = "unsupported_version"
	ErrorTypeMalformedState     ErrorType = "malformed_state"
	ErrorTypeIO                 ErrorType = "io"
	ErrorTypeUnknown            ErrorType = "unknown"
)

// Sentinels for errors.Is comparisons. Matching is by Type only.
var (
	ErrTruncated          = &Error{Type: ErrorTypeTruncated}
	ErrUnknownFormat      = &Error{Type: ErrorTypeUnknownFormat}
	ErrUnsupportedVersion = &Error{Type: ErrorTypeUnsupportedVersion}
	ErrMalformedState     = &Error{Type: ErrorTypeMalformedState}
	ErrIO                 = &Error{Type: ErrorTypeIO}
)

// Error is a file-local decode failure
type Error struct {
	Type    ErrorType
	Path    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := string(e.Type)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, msg)
	}
	return msg
}

// Reason is Error without the path prefix
func (e *Error) Reason() string {
	short := *e
	short.Path = ""
	return short.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same type
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Type == e.Type
}

// New creates an error of the given type with a formatted message
func New(errorType ErrorType, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errorType,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap classifies err under errorType for the file at path
func Wrap(errorType ErrorType, path string, err error) *Error {
	return &Error{
		Type: errorType,
		Path: path,
		Err:  err,
	}
}

// WithPath returns err annotated with path. Non-*Error values are classified as unknown.
func WithPath(err error, path string) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if stderrors.As(err, &e) {
		annotated := *e
		annotated.Path = path
		return &annotated
	}
	return Wrap(ErrorTypeUnknown, path, err)
}

// TypeOf returns the ErrorType carried by err, or ErrorTypeUnknown
func TypeOf(err error) ErrorType {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type
	}
	return ErrorTypeUnknown
}

// IsDecodeFailure reports whether the error type comes from the byte layout of a file
// rather than from the filesystem
func IsDecodeFailure(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeTruncated, ErrorTypeUnknownFormat, ErrorTypeUnsupportedVersion, ErrorTypeMalformedState:
		return true
	default:
		return false
	}
}
