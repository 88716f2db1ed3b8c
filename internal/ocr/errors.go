package ocr

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingCredentials is returned when neither GOOGLE_APPLICATION_CREDENTIALS
	// nor GOOGLE_CREDENTIALS is configured and default credentials are unavailable.
	ErrMissingCredentials = errors.New("missing Google Cloud credentials: set GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_CREDENTIALS")

	// ErrRecognitionFailed is returned when the Vision API call fails.
	ErrRecognitionFailed = errors.New("text recognition failed")

	// ErrNoText is returned when the page contains no readable text.
	ErrNoText = errors.New("page contains no readable text")
)

// OCRError wraps errors with context about the recognition failure.
type OCRError struct {
	Op      string
	Err     error
	Details string
}

func (e *OCRError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("ocr: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("ocr: %s failed: %v", e.Op, e.Err)
}

func (e *OCRError) Unwrap() error { return e.Err }

func (e *OCRError) Is(target error) bool { return errors.Is(e.Err, target) }

func wrapOCRError(op string, err error, details string) error {
	if err == nil {
		return nil
	}
	var ocrErr *OCRError
	if errors.As(err, &ocrErr) {
		return err
	}
	return &OCRError{Op: op, Err: err, Details: details}
}
