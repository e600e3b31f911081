package upload

import (
	"fmt"

	errors "github.com/Laisky/errors/v2"
)

// ErrorCode identifies a machine-stable upload error code.
type ErrorCode string

const (
	ErrCodeNotFound            ErrorCode = "NOT_FOUND"
	ErrCodeParseError          ErrorCode = "PARSE_ERROR"
	ErrCodeImageMissing        ErrorCode = "IMAGE_MISSING"
	ErrCodeAnimationMissing    ErrorCode = "ANIMATION_MISSING"
	ErrCodeInvalidImageURL     ErrorCode = "INVALID_IMAGE_URL"
	ErrCodeInvalidAnimationURL ErrorCode = "INVALID_ANIMATION_URL"
	ErrCodeUnsupportedBackend  ErrorCode = "UNSUPPORTED_BACKEND"
	ErrCodeBackendUpload       ErrorCode = "BACKEND_UPLOAD_ERROR"
	ErrCodeIncompleteUpload    ErrorCode = "INCOMPLETE_UPLOAD"
)

// Error captures a typed upload error and its optional cause.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// Error returns the error message.
func (e *Error) Error() string {
	if e == nil {
		return "upload error: <nil>"
	}

	msg := e.Message
	if msg == "" {
		msg = fmt.Sprintf("upload error: %s", e.Code)
	}
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}

	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// NewError constructs a typed upload error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// newErrorf constructs a typed upload error with a formatted message.
func newErrorf(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// wrapError attaches a code and message to cause.
func wrapError(code ErrorCode, cause error, message string) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// AsError extracts a typed upload error from the error chain.
func AsError(err error) (*Error, bool) {
	if err == nil {
		return nil, false
	}
	var typed *Error
	if errors.As(err, &typed) {
		return typed, true
	}
	return nil, false
}

// IsCode reports whether the error chain contains the given code.
func IsCode(err error, code ErrorCode) bool {
	if typed, ok := AsError(err); ok {
		return typed.Code == code
	}
	return false
}

// IsValidationError reports whether err was raised before any backend call.
func IsValidationError(err error) bool {
	typed, ok := AsError(err)
	if !ok {
		return false
	}

	switch typed.Code {
	case ErrCodeNotFound,
		ErrCodeParseError,
		ErrCodeImageMissing,
		ErrCodeAnimationMissing,
		ErrCodeInvalidImageURL,
		ErrCodeInvalidAnimationURL:
		return true
	default:
		return false
	}
}

// IsInvocationError reports whether err was raised while selecting or
// calling a backend. Command handlers log these and end quietly.
func IsInvocationError(err error) bool {
	typed, ok := AsError(err)
	if !ok {
		return false
	}

	switch typed.Code {
	case ErrCodeUnsupportedBackend,
		ErrCodeBackendUpload,
		ErrCodeIncompleteUpload:
		return true
	default:
		return false
	}
}
