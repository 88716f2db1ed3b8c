// Package extraction sends certificate page images to an OpenAI-compatible
// vision model and returns raw candidate records.
//
// The external model is treated as unreliable input: every response is
// structurally validated before a Candidate is constructed, and objects that
// fail validation are dropped with a log entry rather than propagated.
//
// Ordering contract: candidates are returned in document-physical order as
// reported by the model. No independent ordering signal exists for merged
// scans, so callers must treat this as a documented assumption of the model,
// not a guarantee; PageIndex carries the page-position signal where one is
// available.
package extraction

import "context"

// Candidate is one certificate's worth of fields as returned by the model,
// before validation and normalization.
type Candidate struct {
	Name        string
	FatherName  string
	LevelText   string // free-text education level ("Matric", "BSc", ...)
	DegreeName  string
	Major       string
	School      string // raw board/institution text
	ExamYear    int    // 0 when absent or unparseable
	GradeText   string // letter grade or division text
	PercentText string // raw percentage text, e.g. "81.45%"
	Graduated   string // "Y"/"N" as printed
	CountryCode string
	Confidence  float64 // model-reported extraction confidence, 0 when absent

	// PageIndex is the 0-based index of the page the certificate was read
	// from, when the model reports it; -1 otherwise.
	PageIndex int
}

// Extractor extracts candidate certificate records from page images.
type Extractor interface {
	// Extract submits all pages of one source file in a single request and
	// returns zero or more candidates. An empty slice with a nil error means
	// the model found no certificate; that is a valid terminal outcome.
	Extract(ctx context.Context, pages []Page) ([]Candidate, error)
}

// Page is the extraction client's view of a normalized page image. It
// mirrors document.Page without importing it, so the package can be tested
// in isolation.
type Page struct {
	MIMEType string
	Data     []byte

	// OCRText optionally carries text recognized by an OCR pre-pass; when
	// non-empty it is appended to the prompt to help the model with
	// low-quality scans.
	OCRText string
}
