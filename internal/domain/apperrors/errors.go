// Package apperrors holds the error kinds shared across the widget
package apperrors

import (
	"errors"
	"fmt"
)

// ErrUnknownAction indicates a command name with no registered handler.
var ErrUnknownAction = errors.New("unknown action")

// ValidationError indicates that user input failed validation checks.
type ValidationError struct {
	Field  string
	Reason string
}

// NewValidationError builds a ValidationError for field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NetworkError indicates that a call to the upstream rate API failed.
// StatusCode is zero when no response was received.
type NetworkError struct {
	Op         string
	URL        string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: upstream returned status %d: %v", e.Op, e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// CacheParseError indicates a stored cache entry that could not be decoded.
// It is only ever logged; readers treat it as a cache miss.
type CacheParseError struct {
	Key string
	Err error
}

func (e *CacheParseError) Error() string {
	return fmt.Sprintf("cache entry %q is not decodable: %v", e.Key, e.Err)
}

func (e *CacheParseError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err carries a ValidationError.
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsNetwork reports whether err carries a NetworkError.
func IsNetwork(err error) bool {
	var target *NetworkError
	return errors.As(err, &target)
}
