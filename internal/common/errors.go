package common

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	// ErrDocumentFormat marks a document whose container or internal layout
	// does not match the expected agenda/manifest template. Fatal for the call.
	ErrDocumentFormat = errors.New("document format error")

	// ErrFieldParse marks a free-text date/time that no known format accepts.
	ErrFieldParse = errors.New("field parse error")

	// ErrPersistence marks a failed batch write. The call reports failure as a
	// whole; no partial commit is assumed.
	ErrPersistence = errors.New("persistence error")

	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	ErrInternal     = errors.New("internal error")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// DocumentFormatErrorf builds an ErrDocumentFormat-kinded error.
func DocumentFormatErrorf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrDocumentFormat)...)
}

// FieldParseErrorf builds an ErrFieldParse-kinded error.
func FieldParseErrorf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrFieldParse)...)
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// HTTPError maps a domain error onto an echo HTTPError with the status the
// boundary contract expects: bad documents and bad timestamps are the
// caller's fault, everything else is a server failure.
func HTTPError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, ErrDocumentFormat), errors.Is(err, ErrFieldParse), errors.Is(err, ErrInvalidInput):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrUnauthorized):
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
