package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorType defines the category of the error
type ErrorType string

const (
	ErrorTypeValidation    ErrorType = "VALIDATION_ERROR"
	ErrorTypeExtraction    ErrorType = "EXTRACTION_ERROR"
	ErrorTypeTranscription ErrorType = "TRANSCRIPTION_ERROR"
	ErrorTypeInternal      ErrorType = "INTERNAL_ERROR"
)

// RetryHint is shown to the user after any processing failure.
const RetryHint = "Por favor, intenta con un video más corto o en otro formato."

// AppError represents a structured error for the application
type AppError struct {
	Type          ErrorType `json:"type"`
	Message       string    `json:"message"`
	StatusCode    int       `json:"statusCode"`
	ErrorCode     string    `json:"errorCode"`
	IsOperational bool      `json:"isOperational"`
	Recovery      string    `json:"recoverySuggestion,omitempty"`
	Err           error     `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap exposes the underlying cause to errors.Is and errors.As.
func (e *AppError) Unwrap() error {
	return e.Err
}

// Code returns the application-specific error code
func (e *AppError) Code() string {
	return e.ErrorCode
}

// RecoverySuggestion returns the suggestion on how to recover from the error
func (e *AppError) RecoverySuggestion() string {
	return e.Recovery
}

// IsRetryable reports whether a fallback provider may be tried for the error.
// Transcription failures with a 5xx status qualify, unless the model never loaded.
func (e *AppError) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeTranscription:
		return e.StatusCode >= 500 && e.ErrorCode != "MODEL_LOAD_ERROR"
	default:
		return false
	}
}

// As returns the first AppError in err's chain, if any.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// NewValidationError creates a new validation error (400)
func NewValidationError(message string, errorCode string, suggestion string) *AppError {
	return &AppError{
		Type:          ErrorTypeValidation,
		Message:       message,
		StatusCode:    http.StatusBadRequest,
		ErrorCode:     errorCode,
		IsOperational: true,
		Recovery:      suggestion,
	}
}

// NewTooLargeError creates a validation error for an oversized upload (413)
func NewTooLargeError(message string, suggestion string) *AppError {
	return &AppError{
		Type:          ErrorTypeValidation,
		Message:       message,
		StatusCode:    http.StatusRequestEntityTooLarge,
		ErrorCode:     "FILE_TOO_LARGE",
		IsOperational: true,
		Recovery:      suggestion,
	}
}

// NewExtractionError creates a new audio extraction error (422)
func NewExtractionError(message string, errorCode string, err error) *AppError {
	return &AppError{
		Type:          ErrorTypeExtraction,
		Message:       message,
		StatusCode:    http.StatusUnprocessableEntity,
		ErrorCode:     errorCode,
		IsOperational: true,
		Recovery:      RetryHint,
		Err:           err,
	}
}

// NewTranscriptionError creates a new transcription error (500)
func NewTranscriptionError(message string, errorCode string, err error) *AppError {
	return &AppError{
		Type:          ErrorTypeTranscription,
		Message:       message,
		StatusCode:    http.StatusInternalServerError,
		ErrorCode:     errorCode,
		IsOperational: true,
		Recovery:      RetryHint,
		Err:           err,
	}
}

// NewUpstreamError creates a transcription error carrying the upstream HTTP status.
func NewUpstreamError(message string, errorCode string, status int) *AppError {
	appErr := NewTranscriptionError(message, errorCode, nil)
	if status >= 500 {
		appErr.StatusCode = http.StatusBadGateway
	} else {
		appErr.StatusCode = http.StatusFailedDependency
	}
	return appErr
}

// NewInternalError creates a new internal error (500)
func NewInternalError(message string, errorCode string, err error) *AppError {
	return &AppError{
		Type:          ErrorTypeInternal,
		Message:       message,
		StatusCode:    http.StatusInternalServerError,
		ErrorCode:     errorCode,
		IsOperational: false,
		Recovery:      RetryHint,
		Err:           err,
	}
}
