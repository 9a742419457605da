package apperrors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// ErrorType classifies an error for the transport boundary.
type ErrorType string

const (
	ErrTypeNotFound        ErrorType = "NOT_FOUND"
	ErrTypeConflict        ErrorType = "CONFLICT"
	ErrTypeValidation      ErrorType = "VALIDATION_FAILED"
	ErrTypeUnauthenticated ErrorType = "UNAUTHENTICATED"
	ErrTypeStorage         ErrorType = "STORAGE_FAILURE"
	ErrTypeInternal        ErrorType = "INTERNAL"
)

// FieldError is a single validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// AppError represents a classified application error.
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Fields  []FieldError
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to reach the cause
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// New creates a new application error
func New(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// NotFound reports a missing referenced entity.
func NotFound(resource string) *AppError {
	return New(ErrTypeNotFound, fmt.Sprintf("%s not found", resource), nil)
}

// Conflict reports a duplicate code, mobile, email or active assignment.
func Conflict(message string) *AppError {
	return New(ErrTypeConflict, message, nil)
}

// Validation reports a rejected payload with optional field details.
func Validation(message string, fields ...FieldError) *AppError {
	e := New(ErrTypeValidation, message, nil)
	e.Fields = fields
	return e
}

func Unauthenticated(message string) *AppError {
	return New(ErrTypeUnauthenticated, message, nil)
}

func Storage(message string, cause error) *AppError {
	return New(ErrTypeStorage, message, cause)
}

func Internal(message string, cause error) *AppError {
	return New(ErrTypeInternal, message, cause)
}

// As returns the AppError in err's chain, if any.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsType reports whether err carries the given classification.
func IsType(err error, errType ErrorType) bool {
	appErr, ok := As(err)
	return ok && appErr.Type == errType
}

// IsDuplicateKey reports a unique constraint violation from either the
// translated gorm error or a raw PostgreSQL unique_violation (23505).
func IsDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

// Classify wraps an unclassified error so that it carries a type. Errors that
// are already classified pass through untouched.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := As(err); ok {
		return err
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return New(ErrTypeNotFound, "record not found", err)
	case IsDuplicateKey(err):
		return New(ErrTypeConflict, "duplicate record", err)
	default:
		return Storage("storage failure", err)
	}
}

// HTTPStatus maps an error to the status code the transport returns.
func HTTPStatus(err error) int {
	appErr, ok := As(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch appErr.Type {
	case ErrTypeNotFound:
		return http.StatusNotFound
	case ErrTypeConflict, ErrTypeValidation:
		return http.StatusBadRequest
	case ErrTypeUnauthenticated:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
