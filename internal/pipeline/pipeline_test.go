package pipeline

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eduparser/internal/education"
	"eduparser/internal/extraction"
	"eduparser/internal/roster"
	"eduparser/pkg/models"
)

// fakeExtractor returns canned candidates keyed by the number of the call,
// standing in for the vision model.
type fakeExtractor struct {
	candidates map[int][]extraction.Candidate
	err        error
	calls      int
}

func (f *fakeExtractor) Extract(ctx context.Context, pages []extraction.Page) ([]extraction.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.candidates[f.calls], nil
}

// stalledExtractor never answers; it blocks until its call context expires,
// standing in for a hung model endpoint.
type stalledExtractor struct{}

func (s *stalledExtractor) Extract(ctx context.Context, pages []extraction.Page) ([]extraction.Candidate, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func testImage(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 8, 8))))
	return buf.Bytes()
}

func TestRunMergedScan(t *testing.T) {
	extractor := &fakeExtractor{candidates: map[int][]extraction.Candidate{
		1: {
			{Name: "Ali Khan", LevelText: "Matric", ExamYear: 2015, School: "BISE Lahore"},
			{Name: "Ali Khan", LevelText: "Intermediate", ExamYear: 2017, School: "BISE Lahore"},
			{Name: "Ali Khan", LevelText: "BSc", ExamYear: 2021, School: "University of the Punjab"},
		},
	}}

	p := New(extractor, education.NewDefaultNormalizer("PK"), nil, nil)
	report, err := p.Run(context.Background(), []File{
		{Name: "merged.jpg", MIMEType: "image/png", Data: testImage(t)},
	}, Options{PersonNumber: "10023"})

	require.NoError(t, err)
	require.NotEmpty(t, report.RunID)
	require.Len(t, report.Rows, 3)
	assert.Equal(t, 1, report.FilesProcessed)
	assert.Zero(t, report.FilesFailed)

	wantCodes := []int{models.LevelMatriculation, models.LevelIntermediate, models.LevelBachelor}
	for i, row := range report.Rows {
		assert.Equal(t, "10023", row.Record.PersonNumber)
		require.NotNil(t, row.Record.LevelCode)
		assert.Equal(t, wantCodes[i], *row.Record.LevelCode)
		assert.Contains(t, row.Record.SourceLabel, "merged.jpg (Doc")
		require.NotNil(t, row.Record.EndDate)
		assert.Empty(t, row.Notes)
		assert.Nil(t, row.Match)
	}
	assert.Equal(t, 2015, report.Rows[0].Record.ExamYear)
	assert.Equal(t, "merged.jpg (Doc 3/3)", report.Rows[2].Record.SourceLabel)
}

func TestRunFailedFileKeepsBatch(t *testing.T) {
	extractor := &fakeExtractor{err: errors.New("model unavailable")}

	p := New(extractor, education.NewDefaultNormalizer("PK"), nil, nil)
	report, err := p.Run(context.Background(), []File{
		{Name: "bad.jpg", MIMEType: "image/png", Data: testImage(t)},
	}, Options{PersonNumber: "10023"})

	require.NoError(t, err)
	assert.Equal(t, 1, report.FilesFailed)
	require.Len(t, report.Rows, 1)
	assert.Equal(t, "bad.jpg", report.Rows[0].Record.SourceLabel)
	require.Len(t, report.Rows[0].Notes, 1)
	assert.True(t, strings.HasPrefix(report.Rows[0].Notes[0], "processing failed:"))
}

func TestRunCorruptInputBecomesFailureRow(t *testing.T) {
	extractor := &fakeExtractor{}

	p := New(extractor, education.NewDefaultNormalizer("PK"), nil, nil)
	report, err := p.Run(context.Background(), []File{
		{Name: "broken.png", MIMEType: "image/png", Data: []byte("not an image")},
	}, Options{})

	require.NoError(t, err)
	assert.Equal(t, 1, report.FilesFailed)
	require.Len(t, report.Rows, 1)
	assert.Zero(t, extractor.calls, "corrupt input must not reach the model")
}

func TestRunWithRosterMatching(t *testing.T) {
	extractor := &fakeExtractor{candidates: map[int][]extraction.Candidate{
		1: {{Name: "ali   khan", LevelText: "Matric", ExamYear: 2015}},
	}}
	matcher := roster.NewMatcher(roster.New([]models.EmployeeRecord{
		{CNIC: "35202-1234567-1", EmployeeNumber: "10023", FullName: "Ali Khan"},
	}))

	p := New(extractor, education.NewDefaultNormalizer("PK"), nil, matcher)
	report, err := p.Run(context.Background(), []File{
		{Name: "matric.jpg", MIMEType: "image/png", Data: testImage(t)},
	}, Options{PersonNumber: "10023"})

	require.NoError(t, err)
	require.Len(t, report.Rows, 1)
	row := report.Rows[0]
	require.NotNil(t, row.Match)
	assert.Equal(t, models.MatchExact, row.Match.Confidence)
	require.NotNil(t, row.Match.Employee)
	assert.Equal(t, "35202-1234567-1", row.Match.Employee.CNIC)
}

func TestRunNoDocumentsDetected(t *testing.T) {
	extractor := &fakeExtractor{} // returns no candidates

	p := New(extractor, education.NewDefaultNormalizer("PK"), nil, nil)
	report, err := p.Run(context.Background(), []File{
		{Name: "blank.jpg", MIMEType: "image/png", Data: testImage(t)},
	}, Options{PersonNumber: "10023"})

	require.NoError(t, err)
	require.Len(t, report.Rows, 1)
	assert.Equal(t, []string{"no education document detected"}, report.Rows[0].Notes)
	assert.Equal(t, "blank.jpg", report.Rows[0].Record.SourceLabel)
	assert.Zero(t, report.FilesFailed)
}

func TestRunPreservesInputOrder(t *testing.T) {
	// Each call returns a distinct name; with concurrency 1 the call order
	// is the file order, so the rows must come back in the same order.
	extractor := &fakeExtractor{candidates: map[int][]extraction.Candidate{
		1: {{Name: "First Person", LevelText: "Matric", ExamYear: 2010}},
		2: {{Name: "Second Person", LevelText: "Matric", ExamYear: 2011}},
		3: {{Name: "Third Person", LevelText: "Matric", ExamYear: 2012}},
	}}

	p := New(extractor, education.NewDefaultNormalizer("PK"), nil, nil)
	report, err := p.Run(context.Background(), []File{
		{Name: "a.jpg", MIMEType: "image/png", Data: testImage(t)},
		{Name: "b.jpg", MIMEType: "image/png", Data: testImage(t)},
		{Name: "c.jpg", MIMEType: "image/png", Data: testImage(t)},
	}, Options{Concurrency: 1})

	require.NoError(t, err)
	require.Len(t, report.Rows, 3)
	assert.Equal(t, "a.jpg", report.Rows[0].Record.SourceLabel)
	assert.Equal(t, "b.jpg", report.Rows[1].Record.SourceLabel)
	assert.Equal(t, "c.jpg", report.Rows[2].Record.SourceLabel)
}

func TestRunExtractionTimeoutBecomesFailureRow(t *testing.T) {
	// The per-call timeout expires while the run itself is still live; the
	// file must surface as an error row, not vanish from the output.
	p := New(&stalledExtractor{}, education.NewDefaultNormalizer("PK"), nil, nil)
	report, err := p.Run(context.Background(), []File{
		{Name: "stalled.jpg", MIMEType: "image/png", Data: testImage(t)},
		{Name: "also-stalled.jpg", MIMEType: "image/png", Data: testImage(t)},
	}, Options{PersonNumber: "10023", ExtractTimeout: 50 * time.Millisecond})

	require.NoError(t, err)
	assert.Equal(t, 2, report.FilesFailed)
	assert.Zero(t, report.FilesProcessed)
	require.Len(t, report.Rows, 2)
	assert.Equal(t, "stalled.jpg", report.Rows[0].Record.SourceLabel)
	assert.Equal(t, "also-stalled.jpg", report.Rows[1].Record.SourceLabel)
	for _, row := range report.Rows {
		assert.Equal(t, "10023", row.Record.PersonNumber)
		require.Len(t, row.Notes, 1)
		assert.True(t, strings.HasPrefix(row.Notes[0], "processing failed:"))
	}
}

func TestRunCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	extractor := &fakeExtractor{}
	p := New(extractor, education.NewDefaultNormalizer("PK"), nil, nil)
	report, err := p.Run(ctx, []File{
		{Name: "a.jpg", MIMEType: "image/png", Data: testImage(t)},
	}, Options{})

	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, report)
	assert.Empty(t, report.Rows)
}
