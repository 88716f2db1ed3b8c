package extraction

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestExtractor(t *testing.T, baseURL string) *GroqExtractor {
	t.Helper()
	extractor, err := NewGroqExtractor(Config{
		APIKeys:        []string{"test-key"},
		BaseURL:        baseURL,
		Model:          "test-model",
		MaxRetries:     1,
		RetryBaseDelay: time.Millisecond,
	})
	require.NoError(t, err)
	return extractor
}

func TestNewGroqExtractorRequiresKey(t *testing.T) {
	_, err := NewGroqExtractor(Config{})
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestParseResponseDocumentsArray(t *testing.T) {
	g := newTestExtractor(t, "")

	candidates, err := g.parseResponse(`{
		"documents": [
			{"name": "Ali Khan", "father_name": "Akram Khan", "education_level": "Matric",
			 "school": "BISE Lahore", "exam_year": 2015, "average_grade": "A1",
			 "percentage": "85.5", "graduated": "yes", "page_index": 0},
			{"name": "Ali Khan", "education_level": "Intermediate", "exam_year": "Annual 2017"}
		]
	}`)

	require.NoError(t, err)
	require.Len(t, candidates, 2)
	assert.Equal(t, "Ali Khan", candidates[0].Name)
	assert.Equal(t, "Akram Khan", candidates[0].FatherName)
	assert.Equal(t, 2015, candidates[0].ExamYear)
	assert.Equal(t, "85.5", candidates[0].PercentText)
	assert.Equal(t, 0, candidates[0].PageIndex)
	// Year recovered from a "Annual 2017" session string.
	assert.Equal(t, 2017, candidates[1].ExamYear)
	assert.Equal(t, -1, candidates[1].PageIndex)
}

func TestParseResponseMarkdownFences(t *testing.T) {
	g := newTestExtractor(t, "")

	candidates, err := g.parseResponse("```json\n" +
		`{"documents": [{"name": "Sara Ahmed", "education_level": "BSc"}]}` +
		"\n```")

	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "Sara Ahmed", candidates[0].Name)
}

func TestParseResponseLegacySingleObject(t *testing.T) {
	g := newTestExtractor(t, "")

	candidates, err := g.parseResponse(`{"name": "Ali Khan", "education_level": "Matric", "exam_year": 2015}`)

	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "Ali Khan", candidates[0].Name)
	assert.Equal(t, 2015, candidates[0].ExamYear)
}

func TestParseResponseDropsInvalidCandidates(t *testing.T) {
	g := newTestExtractor(t, "")

	candidates, err := g.parseResponse(`{
		"documents": [
			{"name": "Ali Khan", "education_level": "Matric"},
			{"father_name": "no name or level here"}
		]
	}`)

	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "Ali Khan", candidates[0].Name)
}

func TestParseResponseMalformed(t *testing.T) {
	g := newTestExtractor(t, "")

	for _, content := range []string{
		"this is not json",
		`{"unrelated": true}`,
		`{"documents": "not an array"}`,
	} {
		_, err := g.parseResponse(content)
		assert.ErrorIs(t, err, ErrMalformedResponse, "content %q", content)
	}
}

func TestParseResponseEmptyDocuments(t *testing.T) {
	g := newTestExtractor(t, "")

	candidates, err := g.parseResponse(`{"documents": []}`)
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestStripMarkdownFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripMarkdownFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripMarkdownFences("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripMarkdownFences(`{"a":1}`))
}

func TestGetYear(t *testing.T) {
	tests := []struct {
		raw  any
		want int
	}{
		{float64(2021), 2021},
		{"2021", 2021},
		{"Annual 2021", 2021},
		{"Supplementary Examination 1998", 1998},
		{"unknown", 0},
		{float64(21), 0},
		{float64(2150), 0},
		{nil, 0},
	}
	for _, tt := range tests {
		obj := map[string]any{"exam_year": tt.raw}
		assert.Equal(t, tt.want, getYear(obj, "exam_year"), "raw %v", tt.raw)
	}
}

func TestExtractAgainstStubServer(t *testing.T) {
	reply := map[string]any{
		"documents": []map[string]any{
			{"name": "Ali Khan", "education_level": "Matric", "exam_year": 2015},
		},
	}
	replyJSON, err := json.Marshal(reply)
	require.NoError(t, err)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		response := map[string]any{
			"id":      "chatcmpl-test",
			"object":  "chat.completion",
			"model":   "test-model",
			"choices": []map[string]any{{"index": 0, "message": map[string]any{"role": "assistant", "content": string(replyJSON)}, "finish_reason": "stop"}},
		}
		require.NoError(t, json.NewEncoder(w).Encode(response))
	}))
	defer server.Close()

	g := newTestExtractor(t, server.URL+"/v1")

	candidates, err := g.Extract(context.Background(), []Page{
		{MIMEType: "image/jpeg", Data: []byte("fake image bytes")},
	})

	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "Ali Khan", candidates[0].Name)
	assert.Equal(t, 2015, candidates[0].ExamYear)
}

func TestExtractQuotaExhaustsAllKeys(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"message": "rate limit exceeded", "type": "rate_limit_error"}}`))
	}))
	defer server.Close()

	extractor, err := NewGroqExtractor(Config{
		APIKeys:        []string{"key-1", "key-2"},
		BaseURL:        server.URL + "/v1",
		Model:          "test-model",
		MaxRetries:     1,
		RetryBaseDelay: time.Millisecond,
	})
	require.NoError(t, err)

	_, err = extractor.Extract(context.Background(), []Page{
		{MIMEType: "image/jpeg", Data: []byte("fake")},
	})
	assert.ErrorIs(t, err, ErrQuotaExceeded)
}

func TestExtractNoPages(t *testing.T) {
	g := newTestExtractor(t, "")

	_, err := g.Extract(context.Background(), nil)
	assert.ErrorIs(t, err, ErrExtractionFailed)
}
