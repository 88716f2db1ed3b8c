// Package ocr provides an optional text-recognition assist for the
// extraction pipeline using Google Cloud Vision.
//
// Scanned certificates are often low quality; when credentials are
// configured, the recognized page text is attached to the extraction prompt
// as a hint. The pipeline works without this package entirely — OCR being
// unavailable is never an error at the pipeline level.
package ocr

import "context"

// TextRecognizer extracts printed text from a single page image.
type TextRecognizer interface {
	// RecognizeImage returns the text detected on one page image, in
	// reading order. ErrNoText signals a page with no detectable text.
	RecognizeImage(ctx context.Context, imageData []byte) (*Result, error)
}

// Result holds recognized text with detection metadata.
type Result struct {
	// Text is the full detected text in reading order.
	Text string

	// Confidence is the average detection confidence (0.0 to 1.0).
	Confidence float32

	// LanguageCodes lists languages detected on the page.
	LanguageCodes []string
}
