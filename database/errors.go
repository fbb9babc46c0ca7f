package database

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	apperrors "github.com/kbukum/invoicer/errors"
)

// SQLite and database/sql report these as plain strings.
var (
	connectionFailures = []string{
		"unable to open database file",
		"sql: database is closed",
		"driver: bad connection",
		"invalid connection",
		"disk i/o error",
	}
	lockFailures = []string{
		"database is locked",
		"database table is locked",
		"sqlite_busy",
	}
)

func mentions(err error, fragments []string) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, f := range fragments {
		if strings.Contains(msg, f) {
			return true
		}
	}
	return false
}

// IsConnectionError reports a lost or unopenable database.
func IsConnectionError(err error) bool { return mentions(err, connectionFailures) }

// IsRetryableError reports a failure that a later attempt may not hit:
// connection loss or a busy lock.
func IsRetryableError(err error) bool {
	return IsConnectionError(err) || mentions(err, lockFailures)
}

func IsNotFoundError(err error) bool  { return errors.Is(err, gorm.ErrRecordNotFound) }
func IsDuplicateError(err error) bool { return errors.Is(err, gorm.ErrDuplicatedKey) }

// FromDatabase maps a gorm or SQLite failure on resource to the error
// the API answers with. AppErrors pass through unchanged.
func FromDatabase(err error, resource string) *apperrors.AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := apperrors.AsAppError(err); ok {
		return appErr
	}
	switch {
	case IsNotFoundError(err):
		return apperrors.NotFound(resource, "")
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperrors.Newf(apperrors.ErrCodeAlreadyExists, "A %s with these details already exists.", resource).WithCause(err)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return apperrors.Newf(apperrors.ErrCodeInvalidInput,
			"The %s references a record that does not exist or is still referenced.", resource).WithCause(err)
	case IsConnectionError(err):
		return apperrors.Unavailable(apperrors.ErrCodeDatabaseError, "Database is temporarily unavailable. Please try again.").WithCause(err)
	case IsRetryableError(err):
		return apperrors.Unavailable(apperrors.ErrCodeDatabaseError, "Database operation failed. Please try again.").WithCause(err)
	}
	return apperrors.DatabaseError(err)
}
