package ocr

import (
	"context"
	"os"
	"os/exec"

	"github.com/rs/zerolog"
)

// Preprocessor enhances problem images for Tesseract using ImageMagick
type Preprocessor struct {
	run    CommandRunner
	logger zerolog.Logger
}

// NewPreprocessor creates a new image preprocessor
func NewPreprocessor(logger zerolog.Logger) *Preprocessor {
	return &Preprocessor{
		run:    execRunner,
		logger: logger,
	}
}

// Process applies grayscale, contrast, denoise and sharpen filters.
// Any failure falls back to the original bytes.
func (p *Preprocessor) Process(ctx context.Context, imageData []byte) []byte {
	in, err := writeTemp("twin-pre-in-*", imageData)
	if err != nil {
		return imageData
	}
	defer os.Remove(in)

	out, err := writeTemp("twin-pre-out-*.png", nil)
	if err != nil {
		return imageData
	}
	defer os.Remove(out)

	// resize (if too large) -> grayscale -> contrast -> denoise -> sharpen
	args := []string{
		in,
		"-resize", "2000x2000>",
		"-colorspace", "Gray",
		"-normalize",
		"-contrast-stretch", "2%x1%",
		"-despeckle",
		"-sharpen", "0x1",
		out,
	}

	if _, err := p.run(ctx, magickBinary(), args...); err != nil {
		p.logger.Warn().Err(err).Msg("ImageMagick preprocessing failed, using original image")
		return imageData
	}

	processed, err := os.ReadFile(out)
	if err != nil || len(processed) == 0 {
		return imageData
	}

	p.logger.Debug().
		Int("before", len(imageData)).
		Int("after", len(processed)).
		Msg("image enhanced")
	return processed
}

// magickBinary prefers ImageMagick 7's magick over the v6 convert
func magickBinary() string {
	if _, err := exec.LookPath("magick"); err == nil {
		return "magick"
	}
	return "convert"
}

func writeTemp(pattern string, data []byte) (string, error) {
	f, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", err
	}
	name := f.Name()
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(name)
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(name)
		return "", err
	}
	return name, nil
}
