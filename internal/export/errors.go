package export

import (
	"errors"
	"fmt"
)

var (
	// ErrNoRows is returned when a workbook is requested for an empty run.
	ErrNoRows = errors.New("no rows to export")

	// ErrWriteFailed is returned when the workbook cannot be built or saved.
	ErrWriteFailed = errors.New("failed to write workbook")
)

// ExportError wraps errors with context about the export failure.
type ExportError struct {
	Op      string
	Err     error
	Details string
}

func (e *ExportError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("export: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("export: %s failed: %v", e.Op, e.Err)
}

func (e *ExportError) Unwrap() error { return e.Err }

func (e *ExportError) Is(target error) bool { return errors.Is(e.Err, target) }

func wrapExportError(op string, err error, details string) error {
	if err == nil {
		return nil
	}
	var exportErr *ExportError
	if errors.As(err, &exportErr) {
		return err
	}
	return &ExportError{Op: op, Err: err, Details: details}
}
