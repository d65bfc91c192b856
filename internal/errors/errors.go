package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode identifies a class of application failure.
type ErrorCode string

const (
	ErrConfiguration     ErrorCode = "CONFIGURATION"      // 500
	ErrProvider          ErrorCode = "PROVIDER"           // 502
	ErrInvalidRequest    ErrorCode = "INVALID_REQUEST"    // 400
	ErrUnauthorized      ErrorCode = "UNAUTHORIZED"       // 401
	ErrNotFound          ErrorCode = "NOT_FOUND"          // 404
	ErrNothingToArchive  ErrorCode = "NOTHING_TO_ARCHIVE" // 404
	ErrInvalidTransition ErrorCode = "INVALID_TRANSITION" // 409
	ErrPersistence       ErrorCode = "PERSISTENCE"        // 500
	ErrInternal          ErrorCode = "INTERNAL"           // 500
)

// AppError is a structured error carrying a code, an HTTP status and optional details.
type AppError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
	cause   error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.cause
}

// NewConfiguration reports a missing or invalid deployment setting, such as an absent API key.
func NewConfiguration(msg string) *AppError {
	return &AppError{
		Code:    ErrConfiguration,
		Status:  http.StatusInternalServerError,
		Message: msg,
	}
}

// NewProvider wraps an upstream model failure.
func NewProvider(provider string, err error) *AppError {
	msg := "provider request failed"
	if err != nil {
		msg = err.Error()
	}
	return &AppError{
		Code:    ErrProvider,
		Status:  http.StatusBadGateway,
		Message: msg,
		Details: map[string]any{"provider": provider},
		cause:   err,
	}
}

func NewInvalidRequest(msg string) *AppError {
	return &AppError{
		Code:    ErrInvalidRequest,
		Status:  http.StatusBadRequest,
		Message: msg,
	}
}

func NewUnauthorized() *AppError {
	return &AppError{
		Code:    ErrUnauthorized,
		Status:  http.StatusUnauthorized,
		Message: "Unauthorized",
	}
}

// NewNotFound creates a 404 for the named resource, e.g. NewNotFound("Project").
func NewNotFound(resource string) *AppError {
	return &AppError{
		Code:    ErrNotFound,
		Status:  http.StatusNotFound,
		Message: resource + " not found",
		Details: map[string]any{"resource": resource},
	}
}

func NewNothingToArchive() *AppError {
	return &AppError{
		Code:    ErrNothingToArchive,
		Status:  http.StatusNotFound,
		Message: "No files to download",
	}
}

func NewInvalidTransition(from, to string) *AppError {
	return &AppError{
		Code:    ErrInvalidTransition,
		Status:  http.StatusConflict,
		Message: fmt.Sprintf("cannot move generation from %s to %s", from, to),
		Details: map[string]any{"from": from, "to": to},
	}
}

func NewPersistence(op string, err error) *AppError {
	return &AppError{
		Code:    ErrPersistence,
		Status:  http.StatusInternalServerError,
		Message: fmt.Sprintf("%s: %v", op, err),
		cause:   err,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *AppError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &AppError{
		Code:    ErrInternal,
		Status:  http.StatusInternalServerError,
		Message: msg,
		cause:   err,
	}
}

// Is reports whether err, or anything it wraps, is an AppError with the given code.
func Is(err error, code ErrorCode) bool {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// StatusOf returns the HTTP status for err, or 500 for anything unclassified.
func StatusOf(err error) int {
	var appErr *AppError
	if stderrors.As(err, &appErr) && appErr.Status != 0 {
		return appErr.Status
	}
	return http.StatusInternalServerError
}

// MessageOf returns the user-facing message for err.
func MessageOf(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
