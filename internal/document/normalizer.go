// Package document converts uploaded certificate files into page images
// ready for submission to the extraction model.
//
// Image uploads pass through unchanged after a decode check. PDF uploads are
// rasterized page by page with MuPDF at a fixed DPI floor, because scanned
// certificates need enough resolution for the vision model to read marksheet
// tables reliably.
package document

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // register PNG decoding for the image check
	"strings"

	"github.com/gen2brain/go-fitz"

	"eduparser/internal/logger"
)

const (
	// MaxFileSizeBytes caps one uploaded file at 20MB, matching the
	// extraction endpoint's request limit.
	MaxFileSizeBytes = 20 * 1024 * 1024

	// RenderDPI is the resolution floor for PDF rasterization.
	RenderDPI = 300

	// jpegQuality matches the quality the pipeline submits to the model.
	jpegQuality = 95
)

// Page is one renderable image derived from an uploaded source file.
// Pages are created here, consumed immediately by the extraction client and
// never persisted.
type Page struct {
	SourceName string
	Index      int    // 0-based page index within the source file
	MIMEType   string // mime type of Data
	Data       []byte
}

// Normalize converts an uploaded file into an ordered sequence of pages.
// Image inputs yield exactly one page; PDF inputs yield one page per PDF
// page, in page order.
func Normalize(data []byte, mimeType, sourceName string) ([]Page, error) {
	const op = "Normalize"
	log := logger.WithComponent("document")

	if len(data) == 0 {
		return nil, wrapDocumentError(op, ErrCorruptInput, "empty input")
	}

	switch canonicalMIME(mimeType) {
	case "image/jpeg", "image/png":
		if _, _, err := image.Decode(bytes.NewReader(data)); err != nil {
			log.Error().
				Err(err).
				Str("source", sourceName).
				Str("mime_type", mimeType).
				Msg("Failed to decode image")
			return nil, wrapDocumentError(op, ErrCorruptInput, err.Error())
		}
		return []Page{{
			SourceName: sourceName,
			Index:      0,
			MIMEType:   canonicalMIME(mimeType),
			Data:       data,
		}}, nil

	case "application/pdf":
		pages, err := renderPDF(data, sourceName)
		if err != nil {
			return nil, err
		}
		log.Debug().
			Str("source", sourceName).
			Int("pages", len(pages)).
			Msg("Rendered PDF to page images")
		return pages, nil

	default:
		return nil, wrapDocumentError(op, ErrUnsupportedFormat, fmt.Sprintf("mime type %q", mimeType))
	}
}

// MIMETypeForFilename guesses the declared mime type from a file extension.
// Callers that know the real mime type should pass it to Normalize directly.
func MIMETypeForFilename(name string) string {
	switch {
	case strings.HasSuffix(strings.ToLower(name), ".jpg"), strings.HasSuffix(strings.ToLower(name), ".jpeg"):
		return "image/jpeg"
	case strings.HasSuffix(strings.ToLower(name), ".png"):
		return "image/png"
	case strings.HasSuffix(strings.ToLower(name), ".pdf"):
		return "application/pdf"
	default:
		return ""
	}
}

// renderPDF rasterizes every page of a PDF at RenderDPI and encodes each as JPEG.
func renderPDF(data []byte, sourceName string) ([]Page, error) {
	const op = "renderPDF"

	if len(data) < 4 || string(data[:4]) != "%PDF" {
		return nil, wrapDocumentError(op, ErrCorruptInput, "missing PDF header")
	}

	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, wrapDocumentError(op, ErrCorruptInput, err.Error())
	}
	defer doc.Close()

	pages := make([]Page, 0, doc.NumPage())
	for i := 0; i < doc.NumPage(); i++ {
		img, err := doc.ImageDPI(i, RenderDPI)
		if err != nil {
			return nil, wrapDocumentError(op, ErrCorruptInput, fmt.Sprintf("page %d: %v", i+1, err))
		}

		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
			return nil, wrapDocumentError(op, err, fmt.Sprintf("page %d: jpeg encode", i+1))
		}

		pages = append(pages, Page{
			SourceName: sourceName,
			Index:      i,
			MIMEType:   "image/jpeg",
			Data:       buf.Bytes(),
		})
	}

	if len(pages) == 0 {
		return nil, wrapDocumentError(op, ErrCorruptInput, "PDF has no pages")
	}
	return pages, nil
}

func canonicalMIME(mimeType string) string {
	switch strings.ToLower(strings.TrimSpace(mimeType)) {
	case "image/jpeg", "image/jpg", "jpg", "jpeg":
		return "image/jpeg"
	case "image/png", "png":
		return "image/png"
	case "application/pdf", "pdf":
		return "application/pdf"
	default:
		return strings.ToLower(strings.TrimSpace(mimeType))
	}
}
