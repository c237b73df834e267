package core

import (
	"fmt"
)

// Error is the canonical error shape shared by the live session core and
// the gateway API surface.
type Error struct {
	Type      ErrorType `json:"type"`
	Message   string    `json:"message"`
	Param     string    `json:"param,omitempty"`
	Code      string    `json:"code,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
	Cause     error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s (code: %s)", e.Type, e.Message, e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// ErrorType categorizes errors.
type ErrorType string

const (
	ErrInvalidRequest ErrorType = "invalid_request_error"
	ErrPermission     ErrorType = "permission_error"
	ErrConnection     ErrorType = "connection_error"
	ErrCodec          ErrorType = "codec_error"
	ErrUnsupported    ErrorType = "unsupported_error"
	ErrNotFound       ErrorType = "not_found_error"
	ErrAPI            ErrorType = "api_error"
)

// NewInvalidRequestError creates an invalid request error.
func NewInvalidRequestError(message string) *Error {
	return &Error{
		Type:    ErrInvalidRequest,
		Message: message,
	}
}

// NewInvalidRequestErrorWithParam creates an invalid request error with a parameter.
func NewInvalidRequestErrorWithParam(message, param string) *Error {
	return &Error{
		Type:    ErrInvalidRequest,
		Message: message,
		Param:   param,
	}
}

// NewPermissionError creates a device permission/availability error.
func NewPermissionError(message string) *Error {
	return &Error{
		Type:    ErrPermission,
		Message: message,
	}
}

// NewConnectionError creates a backend connection error.
func NewConnectionError(message string, cause error) *Error {
	return &Error{
		Type:    ErrConnection,
		Message: message,
		Cause:   cause,
	}
}

// NewCodecError creates a payload encode/decode error.
func NewCodecError(message string, cause error) *Error {
	return &Error{
		Type:    ErrCodec,
		Message: message,
		Cause:   cause,
	}
}

// NewUnsupportedError creates an unsupported-feature error.
func NewUnsupportedError(message string) *Error {
	return &Error{
		Type:    ErrUnsupported,
		Message: message,
	}
}

// NewNotFoundError creates a not found error.
func NewNotFoundError(message string) *Error {
	return &Error{
		Type:    ErrNotFound,
		Message: message,
	}
}

// NewAPIError creates a generic API error.
func NewAPIError(message string) *Error {
	return &Error{
		Type:    ErrAPI,
		Message: message,
	}
}

// IsFatal reports whether the error terminates the current live session.
// Codec errors are recovered per-message; everything else tears the
// session down and requires an explicit user restart.
func (e *Error) IsFatal() bool {
	return e.Type != ErrCodec
}

// Unwrap returns the underlying error for error wrapping.
func (e *Error) Unwrap() error {
	return e.Cause
}
