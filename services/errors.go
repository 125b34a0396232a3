package services

import (
	"errors"
	"fmt"
)

// ErrorType represents the type/category of error
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeInternal   ErrorType = "internal"
)

// Messages returned to clients for terminal pipeline failures.
const (
	MsgEmbeddingFailed   = "failed to generate embeddings"
	MsgRetrievalFailed   = "failed to retrieve context"
	MsgPersistenceFailed = "failed to create question"
)

// DomainError represents a structured error with additional context
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
	Details map[string]interface{}
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// WithDetail adds a detail to the error
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// NewDomainError creates a new domain error
func NewDomainError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
		Details: make(map[string]interface{}),
	}
}

// Domain error variables. Treat them as read only; use NewDomainError
// when details have to be attached.
var (
	ErrEmptyQuestion   = NewDomainError(ErrorTypeValidation, "question cannot be empty", nil)
	ErrInvalidRoomID   = NewDomainError(ErrorTypeValidation, "invalid room id", nil)
	ErrInvalidListSize = NewDomainError(ErrorTypeValidation, "limit must be between 1 and 100", nil)
)

// NewEmbeddingFailure reports a question that could not be embedded
func NewEmbeddingFailure(err error) *DomainError {
	return NewDomainError(ErrorTypeInternal, MsgEmbeddingFailed, err)
}

// NewRetrievalFailure reports a similarity query that failed
func NewRetrievalFailure(err error) *DomainError {
	return NewDomainError(ErrorTypeInternal, MsgRetrievalFailed, err)
}

// NewPersistenceFailure reports a question record that could not be stored
func NewPersistenceFailure(err error) *DomainError {
	return NewDomainError(ErrorTypeInternal, MsgPersistenceFailed, err)
}

// Error type checking helper functions

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return GetErrorType(err) == ErrorTypeValidation
}

// IsInternalError checks if an error is an internal error
func IsInternalError(err error) bool {
	return GetErrorType(err) == ErrorTypeInternal
}

// GetErrorType returns the ErrorType of a domain error, or empty string if not a domain error
func GetErrorType(err error) ErrorType {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type
	}
	return ""
}

// GetErrorMessage returns the client facing message of a domain error
func GetErrorMessage(err error) string {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}
	return ""
}

// GetErrorDetails returns the details map of a domain error, or nil if not a domain error
func GetErrorDetails(err error) map[string]interface{} {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Details
	}
	return nil
}

// WrapInternal wraps an error as an internal error
func WrapInternal(message string, err error) error {
	return NewDomainError(ErrorTypeInternal, message, err)
}
