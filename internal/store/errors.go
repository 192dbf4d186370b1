package store

import (
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
)

// ErrorCode categorizes store failures.
type ErrorCode string

const (
	// CodeDuplicateKey marks a write whose key already exists. Duplicates are
	// absorbed in SQL and never returned; the code exists for completeness of
	// the taxonomy.
	CodeDuplicateKey ErrorCode = "DUPLICATE_KEY"

	// CodeSchema indicates the tables are missing or malformed.
	CodeSchema ErrorCode = "SCHEMA_ERROR"

	// CodeConstraint indicates a write referencing a missing store or item,
	// or any other constraint failure that is not a duplicate key.
	CodeConstraint ErrorCode = "CONSTRAINT_VIOLATION"

	// CodeStorageUnavailable indicates the database file cannot be opened,
	// locked, or written.
	CodeStorageUnavailable ErrorCode = "STORAGE_UNAVAILABLE"

	// CodeInvalidArgument indicates input rejected before touching storage.
	CodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"

	// CodeInternal covers failures that fit no other category.
	CodeInternal ErrorCode = "INTERNAL"
)

// Error is returned by every store operation that fails.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Op names the failing operation, e.g. "add price".
	Op string

	// Message is a human-readable description (optional).
	Message string

	// Err is the underlying cause (optional).
	Err error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Op, e.Code)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// CodeOf returns the code of the first *Error in err's chain, or "" when
// there is none.
func CodeOf(err error) ErrorCode {
	var se *Error
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

// IsSchemaError reports whether err is a SCHEMA_ERROR.
func IsSchemaError(err error) bool { return CodeOf(err) == CodeSchema }

// IsConstraintViolation reports whether err is a CONSTRAINT_VIOLATION.
func IsConstraintViolation(err error) bool { return CodeOf(err) == CodeConstraint }

// IsStorageUnavailable reports whether err is a STORAGE_UNAVAILABLE.
func IsStorageUnavailable(err error) bool { return CodeOf(err) == CodeStorageUnavailable }

// IsInvalidArgument reports whether err is an INVALID_ARGUMENT.
func IsInvalidArgument(err error) bool { return CodeOf(err) == CodeInvalidArgument }

func invalidArgument(op string, err error) *Error {
	return &Error{Code: CodeInvalidArgument, Op: op, Err: err}
}

func missingReference(op, message string) *Error {
	return &Error{Code: CodeConstraint, Op: op, Message: message}
}

// classify wraps err in an *Error whose code is derived from the SQLite
// result code. Errors that are already classified pass through unchanged.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *Error
	if errors.As(err, &se) {
		return err
	}

	code := CodeInternal
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code {
		case sqlite3.ErrError, sqlite3.ErrSchema:
			code = CodeSchema
		case sqlite3.ErrConstraint:
			code = CodeConstraint
		case sqlite3.ErrCantOpen, sqlite3.ErrBusy, sqlite3.ErrLocked,
			sqlite3.ErrReadonly, sqlite3.ErrIoErr, sqlite3.ErrFull,
			sqlite3.ErrPerm, sqlite3.ErrNotADB, sqlite3.ErrCorrupt,
			sqlite3.ErrNoLFS, sqlite3.ErrAuth:
			code = CodeStorageUnavailable
		}
	}
	return &Error{Code: code, Op: op, Err: err}
}
