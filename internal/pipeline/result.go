package pipeline

import "eduparser/pkg/models"

// Row is one line of the final output table: a normalized education record,
// the roster match when a roster was supplied, and operator-facing notes.
type Row struct {
	Record models.EducationRecord

	// Match is nil when the pipeline runs without a roster.
	Match *models.MatchResult

	// Notes collects validation issues and failure explanations for the
	// operator. A row with notes still exports; nothing is silently dropped.
	Notes []string
}

// Report is the outcome of one pipeline run.
type Report struct {
	// RunID identifies the run in logs and support requests.
	RunID string

	// Rows holds all output rows across files, in input file order.
	Rows []Row

	// FilesProcessed counts files that produced at least one data row.
	FilesProcessed int

	// FilesFailed counts files that produced only a failure row.
	FilesFailed int
}
