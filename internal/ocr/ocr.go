// Package ocr extracts text from the photos customers send over WhatsApp,
// typically prescriptions or product boxes.
package ocr

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/soprim/pricebot/internal/fetcher"
)

// Extractor extracts text from a set of image URLs.
type Extractor interface {
	ExtractText(ctx context.Context, imageURLs []string) (string, error)
}

// NewExtractor creates an Extractor for the configured provider.
func NewExtractor(provider, mistralKey, tesseractPath string, f fetcher.Fetcher) (Extractor, error) {
	switch provider {
	case "local", "":
		return NewTesseract(tesseractPath, f), nil
	case "mistral":
		if mistralKey == "" {
			return nil, eris.New("ocr: mistral provider requires mistral_api_key")
		}
		return NewMistralOCR(mistralKey, ""), nil
	default:
		return nil, eris.Errorf("ocr: unknown provider %q", provider)
	}
}
