// Package errors provides the error taxonomy for the request pipeline.
//
// Every failure class is a sentinel that callers match with errors.Is; the
// typed errors below carry context (step, field, URL) and report their class
// through an Is method.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors that can be checked with errors.Is()
var (
	// ErrConfig indicates invalid client or application configuration.
	ErrConfig = errors.New("configuration error")

	// ErrInvalidURL indicates the target URL is malformed.
	ErrInvalidURL = errors.New("invalid URL")

	// ErrMalformedHeader indicates an inline header without "=" or with an invalid name.
	ErrMalformedHeader = errors.New("malformed header")

	// ErrHeaderFile indicates a header file could not be read or parsed.
	ErrHeaderFile = errors.New("header file error")

	// ErrBadHeaderValue indicates a header value that is not a string or
	// contains control characters.
	ErrBadHeaderValue = errors.New("bad header value")

	// ErrMalformedAuth indicates basic credentials not in user:pass form.
	ErrMalformedAuth = errors.New("malformed auth")

	// ErrMalformedForm indicates the multipart form description is not a JSON object.
	ErrMalformedForm = errors.New("malformed form")

	// ErrFileNotFound indicates a referenced file could not be opened.
	ErrFileNotFound = errors.New("file not found")

	// ErrTransport indicates a connection, DNS or protocol failure.
	ErrTransport = errors.New("transport error")

	// ErrTimeout indicates the request deadline expired.
	ErrTimeout = errors.New("operation timed out")

	// ErrIO indicates a failure writing the response to its destination.
	ErrIO = errors.New("i/o error")
)

// BuildError represents a failure in one step of request construction.
type BuildError struct {
	Step    string // Builder step that failed (e.g., "header", "body")
	Kind    error  // Sentinel describing the failure class
	Value   string // Offending input, if any
	Wrapped error  // Underlying error, if any
}

func (e *BuildError) Error() string {
	msg := e.Step + ": " + e.Kind.Error()
	if e.Value != "" {
		msg += fmt.Sprintf(" %q", e.Value)
	}
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	return msg
}

func (e *BuildError) Unwrap() error {
	return e.Wrapped
}

// Is implements errors.Is for BuildError.
func (e *BuildError) Is(target error) bool {
	return target == e.Kind
}

// NewBuildError creates a new BuildError.
func NewBuildError(step string, kind error, value string, cause error) *BuildError {
	return &BuildError{Step: step, Kind: kind, Value: value, Wrapped: cause}
}

// RequestError represents an error that occurred while sending a request.
type RequestError struct {
	Op      string // Operation that failed (e.g., "send", "read")
	URL     string // URL of the request, if applicable
	Method  string // HTTP method, if applicable
	Timeout bool   // Whether the failure was a deadline expiry
	Wrapped error  // Underlying error
}

func (e *RequestError) Error() string {
	if e.URL != "" {
		return fmt.Sprintf("%s %s: %s: %v", e.Method, e.URL, e.Op, e.Wrapped)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Wrapped)
}

func (e *RequestError) Unwrap() error {
	return e.Wrapped
}

// Is implements errors.Is for RequestError. Every RequestError is a
// transport error; timeouts additionally match ErrTimeout.
func (e *RequestError) Is(target error) bool {
	if target == ErrTimeout {
		return e.Timeout
	}
	return target == ErrTransport
}

// NewRequestError creates a new RequestError.
func NewRequestError(op string, err error) *RequestError {
	return &RequestError{Op: op, Wrapped: err}
}

// NewRequestErrorWithURL creates a new RequestError with URL context.
func NewRequestErrorWithURL(op, method, url string, err error) *RequestError {
	return &RequestError{Op: op, Method: method, URL: url, Wrapped: err}
}

// ParseError represents an error that occurred while parsing a file.
type ParseError struct {
	File    string // File being parsed
	Message string // Error message
	Wrapped error  // Underlying error, if any
}

func (e *ParseError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("%s: %s", e.File, e.Message)
	}
	return e.Message
}

func (e *ParseError) Unwrap() error {
	return e.Wrapped
}

// Is implements errors.Is for ParseError.
func (e *ParseError) Is(target error) bool {
	return target == ErrHeaderFile
}

// NewParseError creates a new ParseError.
func NewParseError(file string, message string) *ParseError {
	return &ParseError{File: file, Message: message}
}

// NewParseErrorWithCause creates a new ParseError with an underlying cause.
func NewParseErrorWithCause(file string, message string, cause error) *ParseError {
	return &ParseError{File: file, Message: message, Wrapped: cause}
}

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string // Field that failed validation
	Value   string // The invalid value (may be redacted for sensitive fields)
	Message string // Description of what's wrong
}

func (e *ValidationError) Error() string {
	if e.Field != "" && e.Value != "" {
		return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Message)
	}
	if e.Field != "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
	}
	return e.Message
}

// Is implements errors.Is for ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrConfig
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// NewValidationErrorWithValue creates a new ValidationError with the invalid value.
func NewValidationErrorWithValue(field, value, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// OutputError represents a failure writing the response body.
type OutputError struct {
	Path    string // Destination path, empty for the terminal
	Wrapped error  // Underlying error
}

func (e *OutputError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("write %s: %v", e.Path, e.Wrapped)
	}
	return fmt.Sprintf("write output: %v", e.Wrapped)
}

func (e *OutputError) Unwrap() error {
	return e.Wrapped
}

// Is implements errors.Is for OutputError.
func (e *OutputError) Is(target error) bool {
	return target == ErrIO
}

// NewOutputError creates a new OutputError.
func NewOutputError(path string, err error) *OutputError {
	return &OutputError{Path: path, Wrapped: err}
}

// Wrap wraps an error with a message, using %w for proper error chaining.
// Returns nil if err is nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted message.
// Returns nil if err is nil.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
// This is a convenience re-export of errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
// This is a convenience re-export of errors.As.
func As(err error, target any) bool {
	return errors.As(err, target)
}
