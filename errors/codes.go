package errors

import "net/http"

// ErrorCode is the machine-readable code carried in every error response.
type ErrorCode string

const (
	ErrCodeRateLimited ErrorCode = "RATE_LIMITED"

	ErrCodeNotFound       ErrorCode = "NOT_FOUND"
	ErrCodeAlreadyExists  ErrorCode = "ALREADY_EXISTS"
	ErrCodeDuplicateEmail ErrorCode = "DUPLICATE_EMAIL"

	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	ErrCodeMissingField ErrorCode = "MISSING_FIELD"

	ErrCodeUnauthorized         ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden            ErrorCode = "FORBIDDEN"
	ErrCodeAuthenticationFailed ErrorCode = "AUTHENTICATION_FAILED"
	ErrCodeInvalidToken         ErrorCode = "INVALID_TOKEN"
	ErrCodeUserNotFound         ErrorCode = "USER_NOT_FOUND"

	ErrCodeInternal      ErrorCode = "INTERNAL_ERROR"
	ErrCodeDatabaseError ErrorCode = "DATABASE_ERROR"
	ErrCodeStorageError  ErrorCode = "STORAGE_ERROR"
)

// kind is the default rendering of a code.
type kind struct {
	status    int
	message   string
	retryable bool
}

var catalog = map[ErrorCode]kind{
	ErrCodeRateLimited:          {http.StatusTooManyRequests, "Too many requests. Please slow down.", true},
	ErrCodeNotFound:             {http.StatusNotFound, "The requested resource was not found.", false},
	ErrCodeAlreadyExists:        {http.StatusConflict, "The resource already exists.", false},
	ErrCodeDuplicateEmail:       {http.StatusConflict, "An account with this email already exists.", false},
	ErrCodeInvalidInput:         {http.StatusBadRequest, "Invalid input.", false},
	ErrCodeMissingField:         {http.StatusBadRequest, "A required field is missing.", false},
	ErrCodeUnauthorized:         {http.StatusUnauthorized, "Authentication required.", false},
	ErrCodeForbidden:            {http.StatusForbidden, "You don't have permission to perform this action.", false},
	ErrCodeAuthenticationFailed: {http.StatusUnauthorized, "Bad credentials.", false},
	ErrCodeInvalidToken:         {http.StatusUnauthorized, "Invalid authentication token. Please log in again.", false},
	ErrCodeUserNotFound:         {http.StatusNotFound, "User not found.", false},
	ErrCodeInternal:             {http.StatusInternalServerError, "An unexpected error occurred. Please try again or contact support.", false},
	ErrCodeDatabaseError:        {http.StatusInternalServerError, "A database error occurred. Please try again.", true},
	ErrCodeStorageError:         {http.StatusBadGateway, "The file could not be processed. Please try again.", true},
}

// Retryable reports whether callers may retry a request that failed with code.
// Unknown codes are not retryable.
func (c ErrorCode) Retryable() bool { return catalog[c].retryable }

// Status is the HTTP status a code maps to; unknown codes map to 500.
func (c ErrorCode) Status() int {
	if k, ok := catalog[c]; ok {
		return k.status
	}
	return http.StatusInternalServerError
}
