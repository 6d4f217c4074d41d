package types

import (
	"errors"
	"fmt"
)

// ErrorCode is a namespaced error code carried by every RAGError.
type ErrorCode string

// Configuration error codes
const (
	CONFIG_LOAD_FAILED       ErrorCode = "CONFIG_LOAD_FAILED"
	CONFIG_PARSE_FAILED      ErrorCode = "CONFIG_PARSE_FAILED"
	CONFIG_VALIDATION_FAILED ErrorCode = "CONFIG_VALIDATION_FAILED"
	CONFIG_NOT_FOUND         ErrorCode = "CONFIG_NOT_FOUND"
)

// Bundle error codes
const (
	BUNDLE_NOT_FOUND    ErrorCode = "BUNDLE_NOT_FOUND"
	BUNDLE_READ_FAILED  ErrorCode = "BUNDLE_READ_FAILED"
	BUNDLE_PARSE_FAILED ErrorCode = "BUNDLE_PARSE_FAILED"
)

// Ingestion error codes
const (
	INGEST_EMBED_FAILED  ErrorCode = "INGEST_EMBED_FAILED"
	INGEST_UPSERT_FAILED ErrorCode = "INGEST_UPSERT_FAILED"
	INGEST_EXPORT_FAILED ErrorCode = "INGEST_EXPORT_FAILED"
)

// Retrieval error codes
const (
	RETRIEVAL_FAILED  ErrorCode = "RETRIEVAL_FAILED"
	RETRIEVAL_TIMEOUT ErrorCode = "RETRIEVAL_TIMEOUT"
)

// RAGError is a structured error with a code, message and optional cause.
// It supports wrapping and carries a retryability hint.
type RAGError struct {
	Code      ErrorCode
	Message   string
	Retryable bool
	Cause     error
}

// Error formats as "[CODE] message" or "[CODE] message: cause".
func (e *RAGError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *RAGError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a RAGError with the same Code.
func (e *RAGError) Is(target error) bool {
	var other *RAGError
	if errors.As(target, &other) {
		return e.Code == other.Code
	}
	return false
}

// NewError creates a non-retryable RAGError.
func NewError(code ErrorCode, message string) *RAGError {
	return &RAGError{Code: code, Message: message}
}

// NewRetryableError creates a retryable RAGError for transient failures.
func NewRetryableError(code ErrorCode, message string) *RAGError {
	return &RAGError{Code: code, Message: message, Retryable: true}
}

// WrapError creates a non-retryable RAGError wrapping cause.
func WrapError(code ErrorCode, message string, cause error) *RAGError {
	return &RAGError{Code: code, Message: message, Cause: cause}
}

// CodeOf returns the code of the first RAGError in err's chain, or "" if there is none.
func CodeOf(err error) ErrorCode {
	var ragErr *RAGError
	if errors.As(err, &ragErr) {
		return ragErr.Code
	}
	return ""
}

// IsRetryable reports whether any RAGError in err's chain is marked retryable.
func IsRetryable(err error) bool {
	var ragErr *RAGError
	if errors.As(err, &ragErr) {
		return ragErr.Retryable
	}
	return false
}
