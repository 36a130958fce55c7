package common

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError represents a failure recovered into the typed response union.
type AppError struct {
	Message    string
	HTTPStatus int
	Fields     []FieldError
	Err        error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// Unwrap allows errors.Is/As to inspect the underlying error.
func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ValidationError reports malformed or missing input with optional field detail.
func ValidationError(message string, fields ...FieldError) *AppError {
	return &AppError{Message: message, HTTPStatus: http.StatusBadRequest, Fields: fields}
}

// BusinessError reports a business rule violation such as an inapplicable coupon.
func BusinessError(format string, args ...any) *AppError {
	return &AppError{Message: fmt.Sprintf(format, args...), HTTPStatus: http.StatusBadRequest}
}

// NotFoundError reports an absent entity.
func NotFoundError(message string) *AppError {
	return &AppError{Message: message, HTTPStatus: http.StatusNotFound}
}

// ForbiddenError reports a permission failure.
func ForbiddenError(message string) *AppError {
	return &AppError{Message: message, HTTPStatus: http.StatusForbidden}
}

// UnauthorizedError reports a missing or invalid session.
func UnauthorizedError(message string) *AppError {
	return &AppError{Message: message, HTTPStatus: http.StatusUnauthorized}
}

// ConflictError reports a concurrent-modification failure.
func ConflictError(message string) *AppError {
	return &AppError{Message: message, HTTPStatus: http.StatusConflict}
}

// IsAppError checks whether the error is an AppError.
func IsAppError(err error) bool {
	var target *AppError
	return errors.As(err, &target)
}
