package errors

import (
	"fmt"
)

// ErrorType classifies an AppError
type ErrorType string

const (
	// ErrTypeNetwork is a dataset fetch that failed upstream
	ErrTypeNetwork ErrorType = "NETWORK"
	// ErrTypeParsing is source text with no usable header row
	ErrTypeParsing ErrorType = "PARSING"
	// ErrTypeStorage is a local file that could not be read or validated
	ErrTypeStorage    ErrorType = "STORAGE"
	ErrTypeValidation ErrorType = "VALIDATION"
	ErrTypeConfig     ErrorType = "CONFIG"
	ErrTypeExport     ErrorType = "EXPORT"
)

// AppError is returned by dataset loading, aggregation and export code.
// Context entries are copied into problem responses as extensions.
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

func (e *AppError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("[%s] %s", e.Type, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext sets key on the error and returns it
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

func newAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{Type: errType, Message: message, Cause: cause}
}

// NewNetworkError wraps a failed dataset fetch
func NewNetworkError(message string, cause error) *AppError {
	return newAppError(ErrTypeNetwork, message, cause)
}

// NewParsingError wraps source text that could not be turned into records
func NewParsingError(message string, cause error) *AppError {
	return newAppError(ErrTypeParsing, message, cause)
}

// NewStorageError wraps a data file that is missing, unreadable or invalid
func NewStorageError(message string, cause error) *AppError {
	return newAppError(ErrTypeStorage, message, cause)
}

// NewAppValidationError reports a rejected aggregation or view request
func NewAppValidationError(message string) *AppError {
	return newAppError(ErrTypeValidation, message, nil)
}

// NewConfigError reports a dataset source that cannot be built from config
func NewConfigError(message string, cause error) *AppError {
	return newAppError(ErrTypeConfig, message, cause)
}

// NewExportError wraps a failure while writing a table in format
func NewExportError(format string, cause error) *AppError {
	return newAppError(ErrTypeExport, fmt.Sprintf("export to %s failed", format), cause).
		WithContext("format", format)
}
