package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

// Error codes.
const (
	CodeValidation = "VALIDATION"
	CodeNotFound   = "NOT_FOUND"
	CodeTooLarge   = "TOO_LARGE"
	CodeIntegrity  = "INTEGRITY"
	CodeStorage    = "STORAGE"
	CodeInternal   = "INTERNAL"
)

var httpStatus = map[string]int{
	CodeValidation: http.StatusBadRequest,
	CodeNotFound:   http.StatusNotFound,
	CodeTooLarge:   http.StatusRequestEntityTooLarge,
	CodeIntegrity:  http.StatusInternalServerError,
	CodeStorage:    http.StatusInternalServerError,
	CodeInternal:   http.StatusInternalServerError,
}

// Error is an application error carrying a code and an optional cause.
type Error struct {
	code    string
	message string
	err     error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s", e.message, e.err.Error())
	}
	return e.message
}

// Code returns the error code.
func (e *Error) Code() string {
	return e.code
}

// Message returns the message without the cause.
func (e *Error) Message() string {
	return e.message
}

func (e *Error) Unwrap() error {
	return e.err
}

// New creates an application error.
func New(code, message string, err error) *Error {
	return &Error{code: code, message: message, err: err}
}

// Validation reports unusable input. It is always recoverable by the caller.
func Validation(message string) *Error {
	return New(CodeValidation, message, nil)
}

// NotFound reports a missing record.
func NotFound(message string) *Error {
	return New(CodeNotFound, message, nil)
}

// TooLarge reports a request body over the accepted size.
func TooLarge(message string) *Error {
	return New(CodeTooLarge, message, nil)
}

// Integrity reports a broken post-condition in stored data.
func Integrity(message string) *Error {
	return New(CodeIntegrity, message, nil)
}

// Storage wraps a failure returned by the storage collaborator.
func Storage(message string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return err
	}
	return New(CodeStorage, message, err)
}

// Wrap adds context to err, keeping the code of an existing application error.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return New(appErr.Code(), message, err)
	}
	return New(CodeInternal, message, err)
}

// CodeOf returns the code of the outermost application error in err's chain,
// or CodeInternal.
func CodeOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code()
	}
	return CodeInternal
}

// HTTPStatus maps err to an HTTP status code.
func HTTPStatus(err error) int {
	if status, ok := httpStatus[CodeOf(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// IsValidation reports whether err is a validation failure.
func IsValidation(err error) bool { return CodeOf(err) == CodeValidation }

// IsIntegrity reports whether err is an integrity violation.
func IsIntegrity(err error) bool { return CodeOf(err) == CodeIntegrity }

// IsStorage reports whether err came from the storage layer.
func IsStorage(err error) bool { return CodeOf(err) == CodeStorage }

// IsNotFound reports whether err is a missing record.
func IsNotFound(err error) bool { return CodeOf(err) == CodeNotFound }

// Log writes err at error level with its code attached.
func Log(logger *zap.Logger, err error, msg string, fields ...zap.Field) {
	if err == nil {
		return
	}

	all := make([]zap.Field, 0, len(fields)+2)
	all = append(all, zap.Error(err), zap.String("error_code", CodeOf(err)))
	all = append(all, fields...)

	logger.Error(msg, all...)
}
