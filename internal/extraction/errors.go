package extraction

import (
	"errors"
	"fmt"
)

var (
	// ErrExtractionFailed is returned after all retries and fallback keys are exhausted.
	ErrExtractionFailed = errors.New("certificate extraction failed")

	// ErrQuotaExceeded is returned when every configured API key hit a quota
	// or rate limit and no fallback remains.
	ErrQuotaExceeded = errors.New("extraction quota exceeded on all configured API keys")

	// ErrMalformedResponse is returned when the model reply cannot be parsed
	// as the expected JSON document list.
	ErrMalformedResponse = errors.New("malformed extraction response")

	// ErrMissingAPIKey is returned when no API key is configured.
	ErrMissingAPIKey = errors.New("missing extraction API key: set GROQ_API_KEY")
)

// ExtractionError wraps errors with additional context about the extraction failure.
type ExtractionError struct {
	// Op is the operation that failed (e.g. "Extract", "parseResponse").
	Op string

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure.
	Details string
}

// Error implements the error interface.
func (e *ExtractionError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("extraction: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("extraction: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Is implements error matching for Go 1.13+ error handling.
func (e *ExtractionError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

func wrapExtractionError(op string, err error, details string) error {
	if err == nil {
		return nil
	}
	var exErr *ExtractionError
	if errors.As(err, &exErr) {
		return err
	}
	return &ExtractionError{Op: op, Err: err, Details: details}
}
