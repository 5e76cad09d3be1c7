package extract

import (
	"errors"
	"fmt"
)

// Common extraction errors
var (
	// ErrUnsupportedFormat is returned when the file extension is not one of
	// the supported document types.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrEmptyDocument is returned when extraction produced no text at all.
	ErrEmptyDocument = errors.New("document contains no readable text")

	// ErrUnreadableFile is returned when the file cannot be read from disk.
	ErrUnreadableFile = errors.New("file could not be read")
)

// ExtractError wraps errors with additional context about the extraction failure.
type ExtractError struct {
	// Op is the operation that failed (e.g., "Extract", "ocrPages").
	Op string

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure.
	Details string
}

// Error implements the error interface.
func (e *ExtractError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("extract: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("extract: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *ExtractError) Unwrap() error {
	return e.Err
}

// Is implements error matching for Go 1.13+ error handling.
func (e *ExtractError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewExtractError creates a new ExtractError with the specified operation and underlying error.
func NewExtractError(op string, err error, details string) *ExtractError {
	return &ExtractError{
		Op:      op,
		Err:     err,
		Details: details,
	}
}

// WrapExtractError wraps an error as an ExtractError if it isn't already one.
func WrapExtractError(op string, err error, details string) error {
	if err == nil {
		return nil
	}

	var extractErr *ExtractError
	if errors.As(err, &extractErr) {
		return err // Already wrapped
	}

	return NewExtractError(op, err, details)
}
