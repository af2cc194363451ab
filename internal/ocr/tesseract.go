package ocr

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/twinsgen/twin-problem-service/internal/models"
)

// TesseractOCR runs the tesseract CLI over the image
type TesseractOCR struct {
	language     string
	preprocessor *Preprocessor
	run          CommandRunner
}

// NewTesseractOCR creates a Tesseract engine. A nil preprocessor skips ImageMagick.
func NewTesseractOCR(language string, preprocessor *Preprocessor) *TesseractOCR {
	if language == "" {
		language = "kor+eng"
	}
	return &TesseractOCR{
		language:     language,
		preprocessor: preprocessor,
		run:          execRunner,
	}
}

// Name returns the engine name
func (t *TesseractOCR) Name() string {
	return "tesseract"
}

// ExtractText recognizes the image text. Progress goes 0, 30 after preprocessing, 100.
func (t *TesseractOCR) ExtractText(ctx context.Context, in models.ImageInput, progress ProgressFunc) (string, error) {
	report(progress, 0)

	data := in.Data
	if t.preprocessor != nil {
		data = t.preprocessor.Process(ctx, data)
	}
	report(progress, 30)

	path, err := writeTemp("twin-ocr-*", data)
	if err != nil {
		return "", fmt.Errorf("failed to write image: %w", err)
	}
	defer os.Remove(path)

	out, err := t.run(ctx, "tesseract", path, "stdout", "-l", t.language)
	if err != nil {
		return "", err
	}

	text := strings.TrimSpace(string(out))
	if text == "" {
		return "", ErrEmptyText
	}

	report(progress, 100)
	return text, nil
}
