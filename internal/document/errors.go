package document

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedFormat is returned for mime types other than JPEG, PNG and PDF.
	ErrUnsupportedFormat = errors.New("unsupported document format (expected jpg, png or pdf)")

	// ErrCorruptInput is returned when the byte stream cannot be decoded.
	ErrCorruptInput = errors.New("invalid or corrupted document data")
)

// DocumentError wraps errors with additional context about the normalization failure.
type DocumentError struct {
	// Op is the operation that failed (e.g. "Normalize", "renderPDF").
	Op string

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure.
	Details string
}

// Error implements the error interface.
func (e *DocumentError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("document: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("document: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *DocumentError) Unwrap() error {
	return e.Err
}

// Is implements error matching for Go 1.13+ error handling.
func (e *DocumentError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

func wrapDocumentError(op string, err error, details string) error {
	if err == nil {
		return nil
	}
	var docErr *DocumentError
	if errors.As(err, &docErr) {
		return err
	}
	return &DocumentError{Op: op, Err: err, Details: details}
}
