package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"eduparser/internal/config"
	"eduparser/internal/document"
	"eduparser/internal/education"
	"eduparser/internal/export"
	"eduparser/internal/extraction"
	"eduparser/internal/logger"
	"eduparser/internal/ocr"
	"eduparser/internal/pipeline"
	"eduparser/internal/roster"
)

var processCmd = &cobra.Command{
	Use:   "process [certificate-files...]",
	Short: "Extract education data from certificate scans into an xlsx workbook",
	Long: `Process one or more scanned certificates (JPEG, PNG or PDF) with a vision
language model and write the extracted education records to an xlsx
workbook ready for HR bulk import.

Each file may contain several certificates; merged scans are detected and
split into one row per document, labeled "file.jpg (Doc i/N)". Education
levels map to the HR level codes, boards standardize to their canonical
names, and degree start/end dates derive from the examination year using
fixed per-level rules.

When a roster file is supplied, every extracted name is matched exactly
(after whitespace and case normalization) against the roster and the CNIC
and employee number columns are filled in.

Required environment variables:
  GROQ_API_KEY - Groq API key for the extraction model
Optional:
  GROQ_API_KEY_2, GROQ_API_KEY_3 - fallback keys rotated on rate limits
  GROQ_MODEL - override the extraction model
  OCR_ASSIST=true plus Google Cloud credentials - attach OCR text hints`,
	Example: `  # Process two scans for one employee
  eduparser process matric.jpg inter.pdf --person-number 10023

  # Process a merged scan and match against the employee roster
  eduparser process merged.pdf --person-number 10023 --roster employees.xlsx

  # Custom output path and higher concurrency
  eduparser process scans/*.jpg --person-number 10023 -o out.xlsx --concurrency 8`,
	Args: cobra.MinimumNArgs(1),
	RunE: runProcess,
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().StringP("person-number", "p", "", "Person number stamped on every output row (required)")
	processCmd.Flags().StringP("roster", "r", "", "Employee roster file (xlsx or csv) for name matching")
	processCmd.Flags().StringP("output", "o", "education_data.xlsx", "Output workbook path")
	processCmd.Flags().Int("concurrency", pipeline.DefaultConcurrency, "Maximum files processed in parallel")
	processCmd.Flags().Int("timeout", 180, "Per-file extraction timeout in seconds")
	processCmd.Flags().Bool("ocr-assist", false, "Attach Google Cloud Vision OCR text as an extraction hint")

	_ = processCmd.MarkFlagRequired("person-number")
}

func runProcess(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("process")

	personNumber, _ := cmd.Flags().GetString("person-number")
	rosterPath, _ := cmd.Flags().GetString("roster")
	outputPath, _ := cmd.Flags().GetString("output")
	concurrency, _ := cmd.Flags().GetInt("concurrency")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")
	ocrAssist, _ := cmd.Flags().GetBool("ocr-assist")

	log.Info().
		Int("files", len(args)).
		Str("person_number", personNumber).
		Str("output", outputPath).
		Bool("ocr_assist", ocrAssist).
		Msg("Starting certificate processing")

	cfg, err := config.Load()
	if err != nil {
		return handleConfigError(err, log)
	}

	files, err := readInputFiles(args, log)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(log)
	defer cancel()

	extractor, err := extraction.NewGroqExtractor(extraction.Config{
		APIKeys:       cfg.GroqAPIKeys,
		BaseURL:       cfg.GroqBaseURL,
		Model:         cfg.GroqModel,
		FallbackModel: cfg.GroqFallbackModel,
		MaxRetries:    cfg.MaxRetries,
		Temperature:   cfg.Temperature,
		MaxTokens:     cfg.MaxTokens,
	})
	if err != nil {
		return fmt.Errorf("failed to create extraction client: %w", err)
	}

	var recognizer ocr.TextRecognizer
	if ocrAssist || cfg.OCRAssist {
		visionRecognizer, err := ocr.NewGoogleVisionRecognizer(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("OCR assist unavailable, continuing without text hints")
		} else {
			recognizer = visionRecognizer
			defer func() {
				if closeErr := visionRecognizer.Close(); closeErr != nil {
					log.Warn().Err(closeErr).Msg("Failed to close Vision client")
				}
			}()
		}
	}

	var matcher *roster.Matcher
	if rosterPath != "" {
		matcher, err = loadRosterMatcher(rosterPath, log)
		if err != nil {
			return err
		}
	}

	p := pipeline.New(extractor, education.NewDefaultNormalizer(cfg.DefaultCountry), recognizer, matcher)
	report, err := p.Run(ctx, files, pipeline.Options{
		PersonNumber:   personNumber,
		Concurrency:    concurrency,
		ExtractTimeout: time.Duration(timeoutSecs) * time.Second,
	})
	if err != nil {
		// An interrupted run still writes the rows completed before the
		// cancellation, so a long batch is never a total loss.
		if !errors.Is(err, context.Canceled) || report == nil || len(report.Rows) == 0 {
			return handleProcessError(err, log)
		}
		log.Warn().
			Int("rows", len(report.Rows)).
			Msg("Run canceled, writing rows completed so far")
	}

	if err := export.NewService().Write(report, outputPath, matcher != nil); err != nil {
		if errors.Is(err, export.ErrNoRows) {
			return fmt.Errorf("no education data extracted from the supplied files")
		}
		return fmt.Errorf("failed to write output workbook: %w", err)
	}

	log.Info().
		Str("run_id", report.RunID).
		Int("rows", len(report.Rows)).
		Int("files_failed", report.FilesFailed).
		Str("output", outputPath).
		Msg("Certificate processing completed successfully")

	fmt.Printf("Wrote %d rows to %s", len(report.Rows), outputPath)
	if report.FilesFailed > 0 {
		fmt.Printf(" (%d file(s) failed, see Notes column)", report.FilesFailed)
	}
	fmt.Println()
	return nil
}

// readInputFiles validates and loads every input file up front, so a typo in
// the last argument fails before any model call is made.
func readInputFiles(paths []string, log zerolog.Logger) ([]pipeline.File, error) {
	files := make([]pipeline.File, 0, len(paths))
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("certificate file not found: %s", path)
			}
			return nil, fmt.Errorf("error accessing file %s: %w", path, err)
		}
		if !info.Mode().IsRegular() {
			return nil, fmt.Errorf("path is not a regular file: %s", path)
		}
		if info.Size() == 0 {
			return nil, fmt.Errorf("file is empty: %s", path)
		}
		if info.Size() > document.MaxFileSizeBytes {
			return nil, fmt.Errorf("file too large (%d bytes, maximum %d): %s",
				info.Size(), document.MaxFileSizeBytes, path)
		}

		mimeType := document.MIMETypeForFilename(path)
		if mimeType == "" {
			return nil, fmt.Errorf("unsupported file type (expected .jpg, .jpeg, .png or .pdf): %s", path)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read file %s: %w", path, err)
		}

		files = append(files, pipeline.File{
			Name:     filepath.Base(path),
			MIMEType: mimeType,
			Data:     data,
		})
	}

	log.Debug().Int("files", len(files)).Msg("Input files loaded")
	return files, nil
}

// loadRosterMatcher loads the roster file and wraps it in a matcher.
func loadRosterMatcher(path string, log zerolog.Logger) (*roster.Matcher, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("roster file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to read roster file: %w", err)
	}

	r, err := roster.Load(data, path)
	if err != nil {
		if errors.Is(err, roster.ErrMissingColumns) {
			return nil, fmt.Errorf("roster file %s must have CNIC, EMPLOYEE_NUMBER and FULL_NAME columns", path)
		}
		if errors.Is(err, roster.ErrEmptyRoster) {
			return nil, fmt.Errorf("roster file %s contains no employee rows", path)
		}
		return nil, fmt.Errorf("failed to load roster: %w", err)
	}

	log.Info().
		Str("roster", path).
		Int("employees", r.Len()).
		Msg("Roster loaded")
	return roster.NewMatcher(r), nil
}

// signalContext creates a context cancelled by SIGINT/SIGTERM.
func signalContext(log zerolog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			log.Info().
				Str("signal", sig.String()).
				Msg("Received interrupt signal, canceling processing")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

// handleConfigError turns configuration failures into actionable messages.
func handleConfigError(err error, log zerolog.Logger) error {
	log.Error().Err(err).Msg("Configuration invalid")
	return fmt.Errorf("configuration error. Please check your .env file:\n"+
		"  GROQ_API_KEY - required, your Groq API key\n"+
		"  GROQ_API_KEY_2 / GROQ_API_KEY_3 - optional fallback keys\n"+
		"Original error: %w", err)
}

// handleProcessError provides user-friendly messages for run-level failures.
func handleProcessError(err error, log zerolog.Logger) error {
	log.Error().Err(err).Msg("Certificate processing failed")

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("processing timed out. Try increasing --timeout or lowering --concurrency")
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("processing was canceled")
	case errors.Is(err, extraction.ErrQuotaExceeded):
		return fmt.Errorf("all configured API keys hit their rate limits. " +
			"Add GROQ_API_KEY_2 / GROQ_API_KEY_3 fallback keys or retry later")
	case errors.Is(err, extraction.ErrMissingAPIKey):
		return fmt.Errorf("no API key configured. Set GROQ_API_KEY in your environment or .env file")
	default:
		return fmt.Errorf("certificate processing failed: %w", err)
	}
}
