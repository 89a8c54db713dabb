package ocr

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/soprim/pricebot/internal/fetcher"
)

// Tesseract runs the local tesseract binary on downloaded images.
type Tesseract struct {
	binPath string
	fetcher fetcher.Fetcher
}

// NewTesseract creates a Tesseract extractor. If binPath is empty,
// "tesseract" is used.
func NewTesseract(binPath string, f fetcher.Fetcher) *Tesseract {
	if binPath == "" {
		binPath = "tesseract"
	}
	return &Tesseract{binPath: binPath, fetcher: f}
}

// ExtractText downloads each image and runs tesseract with Spanish plus
// English language data, concatenating the recognized text.
func (t *Tesseract) ExtractText(ctx context.Context, imageURLs []string) (string, error) {
	dir, err := os.MkdirTemp("", "ocr-")
	if err != nil {
		return "", eris.Wrap(err, "ocr: temp dir")
	}
	defer os.RemoveAll(dir)

	var sb strings.Builder
	for i, u := range imageURLs {
		path := filepath.Join(dir, "img")
		if _, err := t.fetcher.DownloadToFile(ctx, u, path); err != nil {
			return "", eris.Wrapf(err, "ocr: download image %s", u)
		}

		cmd := exec.CommandContext(ctx, t.binPath, path, "stdout", "-l", "spa+eng")

		var stdout, stderr bytes.Buffer
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr

		if err := cmd.Run(); err != nil {
			return "", eris.Wrapf(err, "ocr: tesseract failed: %s", stderr.String())
		}

		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(strings.TrimSpace(stdout.String()))
	}

	return sb.String(), nil
}
