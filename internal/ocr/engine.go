package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"

	"github.com/twinsgen/twin-problem-service/internal/ai"
	"github.com/twinsgen/twin-problem-service/internal/models"
)

// ProgressFunc receives recognition progress as an integer percentage
type ProgressFunc func(percent int)

// Engine turns a problem image into plain text
type Engine interface {
	Name() string
	ExtractText(ctx context.Context, in models.ImageInput, progress ProgressFunc) (string, error)
}

// ErrEmptyText is returned when recognition finished without any text
var ErrEmptyText = errors.New("no text recognized in image")

// CommandRunner executes an external program and returns its stdout
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%s failed: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return out, nil
}

// NewEngine selects the configured engine. The provider is only needed for "vision".
func NewEngine(cfg models.OCRConfig, provider ai.Provider, logger zerolog.Logger) (Engine, error) {
	switch strings.ToLower(cfg.Engine) {
	case "", "tesseract":
		var pre *Preprocessor
		if cfg.Preprocess {
			pre = NewPreprocessor(logger)
		}
		return NewTesseractOCR(cfg.Language, pre), nil
	case "vision":
		if provider == nil {
			return nil, fmt.Errorf("vision OCR requires an AI provider")
		}
		return NewVisionOCR(provider), nil
	default:
		return nil, fmt.Errorf("unknown OCR engine: %s", cfg.Engine)
	}
}

// TesseractAvailable reports whether the tesseract binary is on PATH
func TesseractAvailable() bool {
	_, err := exec.LookPath("tesseract")
	return err == nil
}

// ImageMagickAvailable reports whether magick or convert is on PATH
func ImageMagickAvailable() bool {
	if _, err := exec.LookPath("magick"); err == nil {
		return true
	}
	_, err := exec.LookPath("convert")
	return err == nil
}

func report(progress ProgressFunc, percent int) {
	if progress != nil {
		progress(percent)
	}
}
