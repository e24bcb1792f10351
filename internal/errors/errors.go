// Package errors provides standardized error handling for fileflow.
// It separates local validation failures, which never reach storage, from
// request failures reported by the storage collaborator.
package errors

import (
	"errors"
	"fmt"
)

// Standard errors package errors that we re-export for convenience
var (
	// Unwrap unwraps an error to access the underlying error
	Unwrap = errors.Unwrap
	// Is reports whether any error in err's chain matches target
	Is = errors.Is
	// As finds the first error in err's chain that matches target
	As = errors.As
	// Join returns an error that wraps the given errors
	Join = errors.Join
)

// ErrorKind represents the kind of error
type ErrorKind int

// Error kinds
const (
	Unknown ErrorKind = iota
	// ValidationFailed is a local rejection of an intent
	ValidationFailed
	// RequestFailed is a storage non-success or transport failure
	RequestFailed
	// InvalidConfig is a configuration value that fails validation
	InvalidConfig
)

// Validation reasons. They are matched with Is against a *ValidationError.
var (
	ErrNotSingleSelection = New("rename requires exactly one selected entry")
	ErrEmptySelection     = New("nothing is selected")
	ErrEmptyName          = New("name must not be empty")
	ErrUnchangedName      = New("new name is the same as the current name")
	ErrInvalidName        = New("name must not contain a path separator")
	ErrInvalidTarget      = New("destination is not a folder")
	ErrSelfMove           = New("cannot move an entry into itself")
	ErrCycle              = New("cannot move a folder into its own subtree")
	ErrAlreadyThere       = New("entry is already in that folder")
	ErrPendingMutation    = New("another change to this entry is still in progress")
	ErrUnknownEntry       = New("entry is not in the current listing")
	ErrDragActive         = New("a drag is already in progress")
	ErrNotSupported       = New("the storage backend cannot do this")
)

// ApplicationError is the base error type for all application errors
type ApplicationError struct {
	msg  string
	err  error
	kind ErrorKind
}

// Error returns the error message
func (e *ApplicationError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.err)
	}
	return e.msg
}

// Unwrap returns the wrapped error
func (e *ApplicationError) Unwrap() error {
	return e.err
}

// Kind returns the kind of error
func (e *ApplicationError) Kind() ErrorKind {
	return e.kind
}

// ValidationError is an intent rejected before any request was issued.
type ValidationError struct {
	ApplicationError
	entry string
}

// NewValidationError creates a validation error for an entry. reason
// should be one of the Err* sentinels so callers can match it with Is.
func NewValidationError(entry string, reason error) *ValidationError {
	return &ValidationError{
		ApplicationError: ApplicationError{
			msg:  "rejected",
			err:  reason,
			kind: ValidationFailed,
		},
		entry: entry,
	}
}

// Error returns the validation error message
func (e *ValidationError) Error() string {
	if e.entry != "" {
		return fmt.Sprintf("%s: %v", e.entry, e.err)
	}
	return e.err.Error()
}

// Entry returns the entry identifier the rejection concerns
func (e *ValidationError) Entry() string {
	return e.entry
}

// RequestError is a failed storage request.
type RequestError struct {
	ApplicationError
	op     string
	entry  string
	status int
}

// NewRequestError creates a request error. status is the HTTP status code
// when the failure came from an HTTP response, or zero.
func NewRequestError(op, entry string, status int, err error) *RequestError {
	return &RequestError{
		ApplicationError: ApplicationError{
			msg:  op + " failed",
			err:  err,
			kind: RequestFailed,
		},
		op:     op,
		entry:  entry,
		status: status,
	}
}

// Error returns the request error message
func (e *RequestError) Error() string {
	prefix := e.msg
	if e.entry != "" {
		prefix = fmt.Sprintf("%s: %s", e.msg, e.entry)
	}
	if e.status != 0 && e.err == nil {
		return fmt.Sprintf("%s: status %d", prefix, e.status)
	}
	if e.err != nil {
		return fmt.Sprintf("%s: %v", prefix, e.err)
	}
	return prefix
}

// Op returns the storage operation name
func (e *RequestError) Op() string {
	return e.op
}

// Entry returns the entry identifier the request targeted
func (e *RequestError) Entry() string {
	return e.entry
}

// Status returns the HTTP status code, or zero
func (e *RequestError) Status() int {
	return e.status
}

// ConfigError represents errors related to configuration
type ConfigError struct {
	ApplicationError
	param string
}

// NewConfigError creates a new configuration error
func NewConfigError(msg string, param string, kind ErrorKind, err error) *ConfigError {
	return &ConfigError{
		ApplicationError: ApplicationError{
			msg:  msg,
			err:  err,
			kind: kind,
		},
		param: param,
	}
}

// Error returns the config error message
func (e *ConfigError) Error() string {
	if e.param != "" {
		if e.err != nil {
			return fmt.Sprintf("%s: %s: %v", e.msg, e.param, e.err)
		}
		return fmt.Sprintf("%s: %s", e.msg, e.param)
	}
	return e.ApplicationError.Error()
}

// Param returns the configuration parameter associated with the error
func (e *ConfigError) Param() string {
	return e.param
}

// New creates a new error with a message
func New(msg string) error {
	return &ApplicationError{
		msg:  msg,
		kind: Unknown,
	}
}

// Newf creates a new error with a formatted message
func Newf(format string, args ...interface{}) error {
	return &ApplicationError{
		msg:  fmt.Sprintf(format, args...),
		kind: Unknown,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return &ApplicationError{
		msg:  msg,
		err:  err,
		kind: Unknown,
	}
}

// Wrapf wraps an existing error with additional formatted context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &ApplicationError{
		msg:  fmt.Sprintf(format, args...),
		err:  err,
		kind: Unknown,
	}
}

// IsValidation checks if the error is a local validation rejection
func IsValidation(err error) bool {
	var valErr *ValidationError
	return errors.As(err, &valErr)
}

// IsRequestFailure checks if the error is a failed storage request
func IsRequestFailure(err error) bool {
	var reqErr *RequestError
	return errors.As(err, &reqErr)
}

// IsInvalidConfig checks if the error is an invalid configuration error
func IsInvalidConfig(err error) bool {
	var configErr *ConfigError
	if errors.As(err, &configErr) {
		return configErr.Kind() == InvalidConfig
	}
	return false
}

// StatusOf returns the HTTP status carried by a request failure, or zero.
func StatusOf(err error) int {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.Status()
	}
	return 0
}
