// Package errors defines the error envelope every invoicer endpoint
// answers with: a stable code, a message safe to show, the HTTP status
// and whether a retry may succeed.
package errors

import (
	"fmt"
	"net/http"
)

// AppError is returned by services and rendered by the HTTP layer.
type AppError struct {
	Code       ErrorCode      `json:"code"`
	Message    string         `json:"message"`
	Retryable  bool           `json:"retryable"`
	HTTPStatus int            `json:"-"`
	Details    map[string]any `json:"details,omitempty"`
	// Cause is logged, never sent.
	Cause error `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Cause }

// WithCause attaches the underlying error and returns e.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail adds one client-visible detail and returns e.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = map[string]any{}
	}
	e.Details[key] = value
	return e
}

// WithStatus overrides the HTTP status and returns e.
func (e *AppError) WithStatus(status int) *AppError {
	e.HTTPStatus = status
	return e
}

// New builds an error for code. An empty message falls back to the
// code's default one.
func New(code ErrorCode, message string) *AppError {
	if message == "" {
		message = catalog[code].message
	}
	return &AppError{
		Code:       code,
		Message:    message,
		Retryable:  code.Retryable(),
		HTTPStatus: code.Status(),
	}
}

// Newf is New with a formatted message.
func Newf(code ErrorCode, format string, args ...any) *AppError {
	return New(code, fmt.Sprintf(format, args...))
}

func RateLimited() *AppError { return New(ErrCodeRateLimited, "") }

// NotFound reports a missing resource; id is omitted from details when empty.
func NotFound(resource, id string) *AppError {
	e := Newf(ErrCodeNotFound, "The requested %s was not found.", resource).WithDetail("resource", resource)
	if id != "" {
		e.WithDetail("id", id)
	}
	return e
}

func DuplicateEmail() *AppError { return New(ErrCodeDuplicateEmail, "") }

// InvalidInput reports a rejected field value.
func InvalidInput(field, reason string) *AppError {
	e := Newf(ErrCodeInvalidInput, "Invalid input: %s", reason)
	if field != "" {
		e.WithDetail("field", field)
	}
	return e
}

// Validation reports a request body that failed struct validation.
func Validation(message string) *AppError { return New(ErrCodeInvalidInput, message) }

func MissingField(field string) *AppError {
	return Newf(ErrCodeMissingField, "Missing required field: %s", field).WithDetail("field", field)
}

func Unauthorized(reason string) *AppError { return New(ErrCodeUnauthorized, reason) }

func Forbidden(reason string) *AppError { return New(ErrCodeForbidden, reason) }

// AuthenticationFailed is shared by unknown emails and wrong passwords.
func AuthenticationFailed() *AppError { return New(ErrCodeAuthenticationFailed, "") }

func InvalidToken() *AppError { return New(ErrCodeInvalidToken, "") }

// UserNotFound is answered with 404 on lookups and with 401 by the gate.
func UserNotFound(httpStatus int) *AppError {
	return New(ErrCodeUserNotFound, "").WithStatus(httpStatus)
}

func Internal(cause error) *AppError { return New(ErrCodeInternal, "").WithCause(cause) }

func DatabaseError(cause error) *AppError { return New(ErrCodeDatabaseError, "").WithCause(cause) }

// StorageError reports a failed object storage call.
func StorageError(operation string, cause error) *AppError {
	return New(ErrCodeStorageError, "").WithDetail("operation", operation).WithCause(cause)
}

// Unavailable is New answered with 503, for a dependency that is down.
func Unavailable(code ErrorCode, message string) *AppError {
	return New(code, message).WithStatus(http.StatusServiceUnavailable)
}
