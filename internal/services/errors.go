package services

import (
	"errors"
	"fmt"
)

// ErrorKind classifies service failures so handlers can map them to HTTP
// status codes without inspecting messages.
type ErrorKind string

const (
	KindValidation   ErrorKind = "validation_error"
	KindNotFound     ErrorKind = "not_found"
	KindConflict     ErrorKind = "conflict"
	KindAccessDenied ErrorKind = "access_denied"
	KindInternal     ErrorKind = "internal_error"
)

// ServiceError is the error type every service method returns for business
// failures. Details carries kind-specific payloads, such as the duplicate
// list on a rejected invite batch.
type ServiceError struct {
	Kind    ErrorKind   `json:"kind"`
	Message string      `json:"message"`
	Field   string      `json:"field,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

func (e *ServiceError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func NewValidationError(field, message string) *ServiceError {
	return &ServiceError{Kind: KindValidation, Message: message, Field: field}
}

func NewNotFoundError(message string) *ServiceError {
	return &ServiceError{Kind: KindNotFound, Message: message}
}

func NewConflictError(message string) *ServiceError {
	return &ServiceError{Kind: KindConflict, Message: message}
}

func NewConflictErrorWithDetails(message string, details interface{}) *ServiceError {
	return &ServiceError{Kind: KindConflict, Message: message, Details: details}
}

func NewAccessDeniedError(message string) *ServiceError {
	return &ServiceError{Kind: KindAccessDenied, Message: message}
}

func NewInternalError(message string, err error) *ServiceError {
	if err != nil {
		message = fmt.Sprintf("%s: %v", message, err)
	}
	return &ServiceError{Kind: KindInternal, Message: message}
}

// KindOf extracts the classification from err, defaulting to internal.
func KindOf(err error) ErrorKind {
	var se *ServiceError
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindInternal
}

func IsNotFound(err error) bool     { return KindOf(err) == KindNotFound }
func IsConflict(err error) bool     { return KindOf(err) == KindConflict }
func IsValidation(err error) bool   { return KindOf(err) == KindValidation }
func IsAccessDenied(err error) bool { return KindOf(err) == KindAccessDenied }
