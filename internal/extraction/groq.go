package extraction

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"

	"eduparser/internal/logger"
)

// Config configures the Groq extraction client. Groq speaks the OpenAI wire
// protocol, so the same client also works against any OpenAI-compatible
// endpoint by changing BaseURL.
type Config struct {
	APIKeys        []string // primary plus fallback keys, rotated on quota errors
	BaseURL        string
	Model          string
	FallbackModel  string // optional second model tried after key rotation fails
	MaxRetries     int    // transient-failure attempts per key
	Temperature    float32
	MaxTokens      int
	RetryBaseDelay time.Duration // doubled on each attempt; defaults to 2s
}

// GroqExtractor implements Extractor against a Groq / OpenAI-compatible
// vision model.
type GroqExtractor struct {
	clients []*openai.Client
	config  Config
	log     zerolog.Logger
}

// NewGroqExtractor creates an extractor with one client per configured API key.
func NewGroqExtractor(cfg Config) (*GroqExtractor, error) {
	const op = "NewGroqExtractor"

	if len(cfg.APIKeys) == 0 {
		return nil, wrapExtractionError(op, ErrMissingAPIKey, "")
	}
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = 2 * time.Second
	}

	clients := make([]*openai.Client, 0, len(cfg.APIKeys))
	for _, key := range cfg.APIKeys {
		clientConfig := openai.DefaultConfig(key)
		if cfg.BaseURL != "" {
			clientConfig.BaseURL = cfg.BaseURL
		}
		clients = append(clients, openai.NewClientWithConfig(clientConfig))
	}

	return &GroqExtractor{
		clients: clients,
		config:  cfg,
		log:     logger.WithComponent("extraction"),
	}, nil
}

// Extract submits the pages of one source file and returns the candidates
// the model detected. Keys are rotated on quota/rate-limit errors; an
// optional fallback model is tried after every key was exhausted.
func (g *GroqExtractor) Extract(ctx context.Context, pages []Page) ([]Candidate, error) {
	const op = "Extract"

	if len(pages) == 0 {
		return nil, wrapExtractionError(op, ErrExtractionFailed, "no pages to submit")
	}

	messages := g.buildMessages(pages)

	models := []string{g.config.Model}
	if g.config.FallbackModel != "" && g.config.FallbackModel != g.config.Model {
		models = append(models, g.config.FallbackModel)
	}

	var lastErr error
	quotaEverywhere := true

	for _, model := range models {
		for keyIdx, client := range g.clients {
			candidates, err := g.extractWithClient(ctx, client, model, messages)
			if err == nil {
				return candidates, nil
			}
			lastErr = err

			if ctx.Err() != nil {
				return nil, wrapExtractionError(op, ctx.Err(), "context done during extraction")
			}

			if isQuotaError(err) {
				g.log.Warn().
					Err(err).
					Int("key_index", keyIdx).
					Str("model", model).
					Msg("API key hit quota/rate limit, rotating to next fallback")
				continue
			}

			quotaEverywhere = false
			g.log.Warn().
				Err(err).
				Int("key_index", keyIdx).
				Str("model", model).
				Msg("Extraction attempt failed on this key")
		}
	}

	if quotaEverywhere {
		return nil, wrapExtractionError(op, ErrQuotaExceeded, fmt.Sprintf("last error: %v", lastErr))
	}
	return nil, wrapExtractionError(op, ErrExtractionFailed, fmt.Sprintf("last error: %v", lastErr))
}

// extractWithClient runs the bounded retry loop for a single key and model.
func (g *GroqExtractor) extractWithClient(ctx context.Context, client *openai.Client, model string, messages []openai.ChatCompletionMessage) ([]Candidate, error) {
	var lastErr error

	for attempt := 1; attempt <= g.config.MaxRetries; attempt++ {
		resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       model,
			Messages:    messages,
			Temperature: g.config.Temperature,
			MaxTokens:   g.config.MaxTokens,
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			},
		})

		if err != nil {
			lastErr = err
			if isQuotaError(err) || !isRetryable(err) || ctx.Err() != nil {
				return nil, err
			}
			delay := g.config.RetryBaseDelay << (attempt - 1)
			g.log.Warn().
				Err(err).
				Int("attempt", attempt).
				Int("max_retries", g.config.MaxRetries).
				Dur("backoff", delay).
				Msg("Transient extraction failure, backing off")
			if err := sleepCtx(ctx, delay); err != nil {
				return nil, err
			}
			continue
		}

		if len(resp.Choices) == 0 {
			lastErr = wrapExtractionError("extractWithClient", ErrMalformedResponse, "no response choices")
			continue
		}

		candidates, err := g.parseResponse(resp.Choices[0].Message.Content)
		if err != nil {
			// A garbled reply is worth one more round trip.
			lastErr = err
			g.log.Warn().
				Err(err).
				Int("attempt", attempt).
				Msg("Model returned unparseable response, retrying")
			continue
		}
		return candidates, nil
	}

	return nil, lastErr
}

// buildMessages assembles the vision request: system rules, then one user
// message holding the text prompt, any OCR assist text and every page image.
func (g *GroqExtractor) buildMessages(pages []Page) []openai.ChatCompletionMessage {
	parts := []openai.ChatMessagePart{
		{Type: openai.ChatMessagePartTypeText, Text: userPrompt},
	}

	for i, page := range pages {
		if page.OCRText != "" {
			parts = append(parts, openai.ChatMessagePart{
				Type: openai.ChatMessagePartTypeText,
				Text: fmt.Sprintf("OCR text recognized on page %d (may contain errors, use only as a hint):\n%s", i+1, page.OCRText),
			})
		}
		parts = append(parts, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{
				URL: fmt.Sprintf("data:%s;base64,%s", page.MIMEType, base64.StdEncoding.EncodeToString(page.Data)),
			},
		})
	}

	return []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
		{Role: openai.ChatMessageRoleUser, MultiContent: parts},
	}
}

// parseResponse decodes the model reply into validated candidates. Objects
// failing structural validation are dropped with a warning, not propagated.
func (g *GroqExtractor) parseResponse(content string) ([]Candidate, error) {
	const op = "parseResponse"

	cleaned := stripMarkdownFences(content)

	var raw map[string]any
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return nil, wrapExtractionError(op, ErrMalformedResponse, err.Error())
	}

	docs, ok := raw["documents"].([]any)
	if !ok {
		if raw["documents"] == nil {
			// Legacy single-object replies carry the fields at the top level.
			if _, hasName := raw["name"]; hasName {
				docs = []any{any(raw)}
			} else {
				return nil, wrapExtractionError(op, ErrMalformedResponse, `missing "documents" array`)
			}
		} else {
			return nil, wrapExtractionError(op, ErrMalformedResponse, `"documents" is not an array`)
		}
	}

	candidates := make([]Candidate, 0, len(docs))
	for i, doc := range docs {
		if err := validateCandidate(doc); err != nil {
			g.log.Warn().
				Err(err).
				Int("document_index", i).
				Msg("Dropping candidate that failed structural validation")
			continue
		}
		obj := doc.(map[string]any)
		candidates = append(candidates, Candidate{
			Name:        getString(obj, "name"),
			FatherName:  getString(obj, "father_name"),
			LevelText:   getString(obj, "education_level"),
			DegreeName:  getString(obj, "degree_name"),
			Major:       getString(obj, "major"),
			School:      getString(obj, "school"),
			ExamYear:    getYear(obj, "exam_year"),
			GradeText:   getString(obj, "average_grade"),
			PercentText: getString(obj, "percentage"),
			Graduated:   getString(obj, "graduated"),
			CountryCode: getString(obj, "country_code"),
			Confidence:  getFloat(obj, "confidence"),
			PageIndex:   getPageIndex(obj),
		})
	}

	g.log.Debug().
		Int("documents", len(docs)).
		Int("valid_candidates", len(candidates)).
		Msg("Parsed extraction response")

	return candidates, nil
}

// stripMarkdownFences removes ```json fences some models wrap replies in.
func stripMarkdownFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```json") {
		s = strings.TrimPrefix(s, "```json")
	} else if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func getString(obj map[string]any, key string) string {
	switch v := obj[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		if v == float64(int(v)) {
			return strconv.Itoa(int(v))
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

// getYear accepts an integer or a year-bearing string ("2021", "Annual 2021").
func getYear(obj map[string]any, key string) int {
	switch v := obj[key].(type) {
	case float64:
		return validYear(int(v))
	case string:
		for _, field := range strings.Fields(v) {
			if year, err := strconv.Atoi(strings.TrimSpace(field)); err == nil {
				if y := validYear(year); y != 0 {
					return y
				}
			}
		}
	}
	return 0
}

func validYear(y int) int {
	if y >= 1900 && y <= 2100 {
		return y
	}
	return 0
}

func getFloat(obj map[string]any, key string) float64 {
	switch v := obj[key].(type) {
	case float64:
		return v
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f
		}
	}
	return 0
}

func getPageIndex(obj map[string]any) int {
	if v, ok := obj["page_index"].(float64); ok && v >= 0 {
		return int(v)
	}
	return -1
}

// isQuotaError reports whether the failure is a rate-limit or quota signal
// that justifies rotating to the next API key.
func isQuotaError(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == 429 || apiErr.HTTPStatusCode == 402 {
			return true
		}
		if code, ok := apiErr.Code.(string); ok && strings.Contains(code, "quota") {
			return true
		}
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "rate limit") || strings.Contains(msg, "rate_limit") || strings.Contains(msg, "quota")
}

// isRetryable reports whether the failure is transient (timeout, 5xx,
// connection trouble) and worth a backed-off retry on the same key.
func isRetryable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode >= 500
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode >= 500 || reqErr.HTTPStatusCode == 0
	}
	// Plain transport errors (connection reset, EOF) arrive unwrapped.
	return true
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
