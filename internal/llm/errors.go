package llm

import (
	"errors"
	"fmt"
)

// Failure taxonomy for the LLM stage. All of these are captured into the
// Outcome returned by the invoker; none abort the pipeline.
var (
	// ErrEmptyResponse is returned when the provider produced no content.
	ErrEmptyResponse = errors.New("model returned an empty response")

	// ErrUnparsableOutput is returned when the model output is not valid JSON
	// even after sanitization.
	ErrUnparsableOutput = errors.New("model output is not valid JSON")

	// ErrProvider covers network, auth and throttling failures of the
	// completion provider.
	ErrProvider = errors.New("completion provider error")
)

// LLMError wraps errors with additional context about the LLM stage failure.
type LLMError struct {
	// Op is the operation that failed (e.g., "Invoke", "Complete").
	Op string

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure.
	Details string
}

// Error implements the error interface.
func (e *LLMError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("llm: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("llm: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *LLMError) Unwrap() error {
	return e.Err
}

// Is implements error matching for Go 1.13+ error handling.
func (e *LLMError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewLLMError creates a new LLMError with the specified operation and underlying error.
func NewLLMError(op string, err error, details string) *LLMError {
	return &LLMError{
		Op:      op,
		Err:     err,
		Details: details,
	}
}

// WrapLLMError wraps an error as an LLMError if it isn't already one.
func WrapLLMError(op string, err error, details string) error {
	if err == nil {
		return nil
	}

	var llmErr *LLMError
	if errors.As(err, &llmErr) {
		return err // Already wrapped
	}

	return NewLLMError(op, err, details)
}
