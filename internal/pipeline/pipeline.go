// Package pipeline orchestrates the certificate run: normalize each input
// file to page images, extract candidates with the vision model, split
// merged scans, normalize to canonical records and match against the
// roster. Files process concurrently; one bad scan never sinks the batch.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"eduparser/internal/document"
	"eduparser/internal/education"
	"eduparser/internal/extraction"
	"eduparser/internal/logger"
	"eduparser/internal/ocr"
	"eduparser/internal/roster"
	"eduparser/pkg/models"
)

const (
	// DefaultConcurrency caps concurrent file jobs; each job holds page
	// images in memory and an in-flight model call.
	DefaultConcurrency = 4

	// DefaultExtractTimeout bounds a single model call, including its
	// internal retries.
	DefaultExtractTimeout = 3 * time.Minute
)

// File is one input to a pipeline run.
type File struct {
	// Name is the base file name, used as the source label.
	Name string

	// MIMEType is the declared type ("application/pdf", "image/jpeg", ...).
	MIMEType string

	// Data is the raw file content.
	Data []byte
}

// Options tunes one pipeline run.
type Options struct {
	// PersonNumber is stamped on every output row.
	PersonNumber string

	// Concurrency is the maximum number of files processed at once.
	// Zero means DefaultConcurrency.
	Concurrency int

	// ExtractTimeout bounds each model call. Zero means DefaultExtractTimeout.
	ExtractTimeout time.Duration
}

// Pipeline wires the per-file stages together.
type Pipeline struct {
	extractor  extraction.Extractor
	normalizer *education.Normalizer

	// recognizer is optional; when set, recognized page text rides along
	// with the images as an extraction hint.
	recognizer ocr.TextRecognizer

	// matcher is optional; when set, every row gets a roster match result.
	matcher *roster.Matcher

	log zerolog.Logger
}

// New creates a pipeline. recognizer and matcher may be nil.
func New(extractor extraction.Extractor, normalizer *education.Normalizer, recognizer ocr.TextRecognizer, matcher *roster.Matcher) *Pipeline {
	return &Pipeline{
		extractor:  extractor,
		normalizer: normalizer,
		recognizer: recognizer,
		matcher:    matcher,
		log:        logger.WithComponent("pipeline"),
	}
}

// Run processes all files and aggregates their rows in input order. A file
// that fails still contributes a row carrying the failure note, so the
// exported table accounts for every input. Rows completed before a context
// cancellation are retained; unstarted files are skipped.
func (p *Pipeline) Run(ctx context.Context, files []File, opts Options) (*Report, error) {
	runID := uuid.New().String()
	log := logger.WithRun("pipeline", runID)

	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	timeout := opts.ExtractTimeout
	if timeout <= 0 {
		timeout = DefaultExtractTimeout
	}

	log.Info().
		Int("files", len(files)).
		Int("concurrency", concurrency).
		Str("person_number", opts.PersonNumber).
		Msg("Starting pipeline run")

	// Per-file row slices keyed by input position keep the final order
	// deterministic regardless of completion order.
	perFile := make([][]Row, len(files))
	var mu sync.Mutex
	var failed int

	sem := semaphore.NewWeighted(int64(concurrency))
	g, gctx := errgroup.WithContext(ctx)

	for i, file := range files {
		if err := sem.Acquire(gctx, 1); err != nil {
			// Cancelled before this file started; completed rows survive.
			break
		}
		g.Go(func() error {
			defer sem.Release(1)

			rows, err := p.processFile(gctx, file, opts.PersonNumber, timeout)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				// Only a cancelled run omits the file. A per-call extraction
				// timeout on a live run is a file failure and must stay
				// visible as an error row.
				if gctx.Err() != nil {
					log.Warn().Str("file", file.Name).Msg("File skipped after cancellation")
					return nil
				}
				log.Error().Err(err).Str("file", file.Name).Msg("File processing failed")
				failed++
				perFile[i] = []Row{failureRow(file.Name, opts.PersonNumber, err)}
				return nil
			}
			perFile[i] = rows
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &Report{RunID: runID, FilesFailed: failed}
	completed := 0
	for _, rows := range perFile {
		if len(rows) > 0 {
			completed++
			report.Rows = append(report.Rows, rows...)
		}
	}
	report.FilesProcessed = completed - failed

	log.Info().
		Int("rows", len(report.Rows)).
		Int("files_failed", failed).
		Msg("Pipeline run complete")

	return report, ctx.Err()
}

// processFile runs one file through normalize, extract, split, canonicalize
// and match.
func (p *Pipeline) processFile(ctx context.Context, file File, personNumber string, timeout time.Duration) ([]Row, error) {
	pages, err := document.Normalize(file.Data, file.MIMEType, file.Name)
	if err != nil {
		return nil, fmt.Errorf("normalize %s: %w", file.Name, err)
	}

	extractPages := make([]extraction.Page, 0, len(pages))
	for _, page := range pages {
		ep := extraction.Page{MIMEType: page.MIMEType, Data: page.Data}
		if p.recognizer != nil {
			ep.OCRText = p.recognizePage(ctx, file.Name, page)
		}
		extractPages = append(extractPages, ep)
	}

	extractCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	candidates, err := p.extractor.Extract(extractCtx, extractPages)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", file.Name, err)
	}

	labeled := Split(candidates, file.Name)
	if len(labeled) == 0 {
		p.log.Warn().Str("file", file.Name).Msg("No documents detected in file")
		row := Row{
			Record: models.EducationRecord{PersonNumber: personNumber, SourceLabel: file.Name},
			Notes:  []string{"no education document detected"},
		}
		if p.matcher != nil {
			row.Match = &models.MatchResult{Confidence: models.MatchNone}
		}
		return []Row{row}, nil
	}

	rows := make([]Row, 0, len(labeled))
	for _, lc := range labeled {
		record, issues := p.normalizer.Normalize(lc.Candidate, personNumber, lc.Label)

		row := Row{Record: record}
		for _, issue := range issues {
			row.Notes = append(row.Notes, issue.String())
		}
		if p.matcher != nil {
			match := p.matcher.Match(record.Name)
			row.Match = &match
			if match.Ambiguous {
				row.Notes = append(row.Notes, "multiple roster employees share this name")
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// recognizePage runs the OCR assist for one page. OCR problems degrade to a
// missing hint, never to a file failure.
func (p *Pipeline) recognizePage(ctx context.Context, fileName string, page document.Page) string {
	result, err := p.recognizer.RecognizeImage(ctx, page.Data)
	if err != nil {
		if !errors.Is(err, ocr.ErrNoText) {
			p.log.Warn().Err(err).
				Str("file", fileName).
				Int("page", page.Index).
				Msg("OCR assist failed, continuing without text hint")
		}
		return ""
	}
	return result.Text
}

// failureRow stands in for a file that could not be processed, so the
// exported table still lists every input.
func failureRow(fileName, personNumber string, err error) Row {
	return Row{
		Record: models.EducationRecord{PersonNumber: personNumber, SourceLabel: fileName},
		Notes:  []string{fmt.Sprintf("processing failed: %v", err)},
	}
}
