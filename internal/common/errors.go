package common

import (
	"errors"
	"fmt"
)

// Kind classifies failures at external-call boundaries.
type Kind string

const (
	KindExtraction Kind = "extraction"
	KindLookup     Kind = "lookup"
	KindResponder  Kind = "responder"
	KindStore      Kind = "store"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Kind    Kind
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
	ErrInvalidInput      = errors.New("invalid input")
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrNotConfigured     = errors.New("credential not configured")
	ErrValidation        = errors.New("validation failed")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// ExtractionError reports a failed text or record extraction.
func ExtractionError(message string, cause error) *AppError {
	return &AppError{Code: "EXTRACTION_ERROR", Kind: KindExtraction, Message: message, Cause: cause}
}

// LookupError reports a failed drug-information query. Callers absorb it.
func LookupError(message string, cause error) *AppError {
	return &AppError{Code: "LOOKUP_ERROR", Kind: KindLookup, Message: message, Cause: cause}
}

// ResponderError reports a failed or misconfigured chat model call.
func ResponderError(message string, cause error) *AppError {
	return &AppError{Code: "RESPONDER_ERROR", Kind: KindResponder, Message: message, Cause: cause}
}

// StoreError reports a failed record persistence.
func StoreError(message string, cause error) *AppError {
	return &AppError{Code: "STORE_ERROR", Kind: KindStore, Message: message, Cause: cause}
}

// IsKind reports whether any AppError in err's chain has the given kind.
func IsKind(err error, kind Kind) bool {
	var ae *AppError
	for err != nil {
		if !errors.As(err, &ae) {
			return false
		}
		if ae.Kind == kind {
			return true
		}
		err = ae.Cause
	}
	return false
}
