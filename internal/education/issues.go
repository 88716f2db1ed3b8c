package education

import "fmt"

// IssueKind classifies a validation failure on a single candidate.
type IssueKind string

const (
	// IssueUnknownLevel marks a level string outside the alias table. The
	// row keeps a nil level code instead of a guessed one.
	IssueUnknownLevel IssueKind = "UnknownLevel"

	// IssueMissingExamYear marks a missing or unparseable examination year
	// on a level whose dates are derived from it.
	IssueMissingExamYear IssueKind = "MissingExamYear"
)

// Issue is a row-level validation marker. Issues never drop a row; the
// partial record stays visible so the caller can correct it by hand.
type Issue struct {
	Kind   IssueKind
	Detail string
}

func (i Issue) String() string {
	if i.Detail == "" {
		return string(i.Kind)
	}
	return fmt.Sprintf("%s: %s", i.Kind, i.Detail)
}
