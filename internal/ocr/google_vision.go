package ocr

import (
	"context"
	"os"
	"strings"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"google.golang.org/api/option"
)

// GoogleVisionRecognizer implements TextRecognizer using Google Cloud Vision
// document text detection.
type GoogleVisionRecognizer struct {
	client *vision.ImageAnnotatorClient
}

// NewGoogleVisionRecognizer creates a recognizer with credentials from the
// environment: GOOGLE_CREDENTIALS (inline JSON), GOOGLE_APPLICATION_CREDENTIALS
// (file path), or application default credentials, in that order.
func NewGoogleVisionRecognizer(ctx context.Context) (*GoogleVisionRecognizer, error) {
	const op = "NewGoogleVisionRecognizer"

	var client *vision.ImageAnnotatorClient
	var err error

	if credJSON := os.Getenv("GOOGLE_CREDENTIALS"); credJSON != "" {
		client, err = vision.NewImageAnnotatorClient(ctx, option.WithCredentialsJSON([]byte(credJSON)))
	} else if credFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credFile != "" {
		client, err = vision.NewImageAnnotatorClient(ctx, option.WithCredentialsFile(credFile))
	} else {
		client, err = vision.NewImageAnnotatorClient(ctx)
		if err != nil {
			return nil, wrapOCRError(op, ErrMissingCredentials, "no credentials found in environment")
		}
	}
	if err != nil {
		return nil, wrapOCRError(op, err, "failed to create Vision client")
	}

	return &GoogleVisionRecognizer{client: client}, nil
}

// NewGoogleVisionRecognizerWithClient creates a recognizer with an explicit
// client (for testing).
func NewGoogleVisionRecognizerWithClient(client *vision.ImageAnnotatorClient) *GoogleVisionRecognizer {
	return &GoogleVisionRecognizer{client: client}
}

// RecognizeImage runs document text detection on one page image.
func (g *GoogleVisionRecognizer) RecognizeImage(ctx context.Context, imageData []byte) (*Result, error) {
	const op = "RecognizeImage"

	resp, err := g.client.BatchAnnotateImages(ctx, &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{
			{
				Image: &visionpb.Image{Content: imageData},
				Features: []*visionpb.Feature{
					{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION},
				},
			},
		},
	})
	if err != nil {
		return nil, wrapOCRError(op, ErrRecognitionFailed, err.Error())
	}
	if len(resp.Responses) == 0 {
		return nil, wrapOCRError(op, ErrRecognitionFailed, "empty Vision response")
	}

	annotation := resp.Responses[0]
	if annotation.Error != nil {
		return nil, wrapOCRError(op, ErrRecognitionFailed, annotation.Error.Message)
	}
	if annotation.FullTextAnnotation == nil || strings.TrimSpace(annotation.FullTextAnnotation.Text) == "" {
		return nil, wrapOCRError(op, ErrNoText, "")
	}

	result := &Result{Text: annotation.FullTextAnnotation.Text}

	var confidenceSum float32
	var confidenceCount int
	languageSet := make(map[string]bool)
	for _, page := range annotation.FullTextAnnotation.Pages {
		if page.Confidence > 0 {
			confidenceSum += page.Confidence
			confidenceCount++
		}
		if page.Property != nil {
			for _, lang := range page.Property.DetectedLanguages {
				if lang.LanguageCode != "" {
					languageSet[lang.LanguageCode] = true
				}
			}
		}
	}
	if confidenceCount > 0 {
		result.Confidence = confidenceSum / float32(confidenceCount)
	}
	for lang := range languageSet {
		result.LanguageCodes = append(result.LanguageCodes, lang)
	}

	return result, nil
}

// Close closes the underlying Vision client.
func (g *GoogleVisionRecognizer) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}
