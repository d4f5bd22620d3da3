package engine

import (
	"errors"
	"fmt"
)

// ConfigErrorCode categorizes configuration errors.
type ConfigErrorCode string

const (
	// ErrCodeUnknownInstrument indicates a requested slug is not in the
	// registry.
	ErrCodeUnknownInstrument ConfigErrorCode = "UNKNOWN_INSTRUMENT"

	// ErrCodeMissingCredential indicates a required provider credential
	// is absent.
	ErrCodeMissingCredential ConfigErrorCode = "MISSING_CREDENTIAL"
)

// ConfigError represents a non-retryable configuration problem,
// surfaced immediately to the caller.
type ConfigError struct {
	Code    ConfigErrorCode
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsConfigError reports whether err is a configuration error.
// Uses errors.As to handle wrapped errors.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// RetrievalError represents a document fetch or parse failure. It is
// retryable by the caller and guarantees the sync mutated no clause
// state for the instrument.
type RetrievalError struct {
	Slug string
	Err  error
}

// Error implements the error interface.
func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieve %s: %v", e.Slug, e.Err)
}

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (e *RetrievalError) Unwrap() error {
	return e.Err
}

// IsRetrievalError reports whether err is a retrieval failure.
// Uses errors.As to handle wrapped errors.
func IsRetrievalError(err error) bool {
	var re *RetrievalError
	return errors.As(err, &re)
}
