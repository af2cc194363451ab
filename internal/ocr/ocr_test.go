package ocr

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twinsgen/twin-problem-service/internal/models"
)

type fakeProvider struct {
	response string
	err      error
	prompt   string
	image    string
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) ExtractData(ctx context.Context, prompt, imageBase64 string) (string, error) {
	f.prompt = prompt
	f.image = imageBase64
	return f.response, f.err
}

func collect(progress *[]int) ProgressFunc {
	return func(p int) { *progress = append(*progress, p) }
}

func TestTesseractExtractText(t *testing.T) {
	var gotArgs []string
	var gotImage []byte
	engine := NewTesseractOCR("", nil)
	engine.run = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		assert.Equal(t, "tesseract", name)
		gotArgs = args
		data, err := os.ReadFile(args[0])
		require.NoError(t, err)
		gotImage = data
		return []byte("  2x + 3 = 7\n\n"), nil
	}

	var progress []int
	text, err := engine.ExtractText(context.Background(), models.ImageInput{Data: []byte("png-bytes")}, collect(&progress))
	require.NoError(t, err)

	assert.Equal(t, "2x + 3 = 7", text)
	assert.Equal(t, []int{0, 30, 100}, progress)
	assert.Equal(t, []string{"stdout", "-l", "kor+eng"}, gotArgs[1:])
	assert.Equal(t, []byte("png-bytes"), gotImage)

	_, err = os.Stat(gotArgs[0])
	assert.True(t, os.IsNotExist(err), "temp image is removed")
}

func TestTesseractEmptyText(t *testing.T) {
	engine := NewTesseractOCR("eng", nil)
	engine.run = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return []byte(" \n"), nil
	}

	_, err := engine.ExtractText(context.Background(), models.ImageInput{Data: []byte("x")}, nil)
	assert.ErrorIs(t, err, ErrEmptyText)
}

func TestTesseractCommandFailure(t *testing.T) {
	engine := NewTesseractOCR("eng", nil)
	engine.run = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return nil, errors.New("tesseract failed: exit status 1")
	}

	_, err := engine.ExtractText(context.Background(), models.ImageInput{Data: []byte("x")}, nil)
	assert.ErrorContains(t, err, "exit status 1")
}

func TestPreprocessorFallsBackOnFailure(t *testing.T) {
	pre := NewPreprocessor(zerolog.Nop())
	pre.run = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return nil, errors.New("convert: not found")
	}

	original := []byte("original")
	assert.Equal(t, original, pre.Process(context.Background(), original))
}

func TestPreprocessorUsesOutput(t *testing.T) {
	pre := NewPreprocessor(zerolog.Nop())
	pre.run = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		out := args[len(args)-1]
		return nil, os.WriteFile(out, []byte("enhanced"), 0o600)
	}

	assert.Equal(t, []byte("enhanced"), pre.Process(context.Background(), []byte("original")))
}

func TestVisionExtractText(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     string
	}{
		{"json", `{"text": "다음 식을 푸시오. 2x + 3 = 7"}`, "다음 식을 푸시오. 2x + 3 = 7"},
		{"fenced json", "```json\n{\"text\": \"x = 2\"}\n```", "x = 2"},
		{"plain text", "  3 + 4 = ?  ", "3 + 4 = ?"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &fakeProvider{response: tt.response}
			engine := NewVisionOCR(provider)

			var progress []int
			text, err := engine.ExtractText(context.Background(), models.ImageInput{Data: []byte{1, 2, 3}}, collect(&progress))
			require.NoError(t, err)
			assert.Equal(t, tt.want, text)
			assert.Equal(t, []int{0, 100}, progress)
			assert.Equal(t, "AQID", provider.image)
		})
	}
}

func TestVisionPassesDeclaredMediaType(t *testing.T) {
	provider := &fakeProvider{response: `{"text": "x = 2"}`}
	engine := NewVisionOCR(provider)

	_, err := engine.ExtractText(context.Background(), models.ImageInput{Data: []byte{1, 2, 3}, MediaType: "image/heic"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "data:image/heic;base64,AQID", provider.image)
}

func TestVisionErrors(t *testing.T) {
	engine := NewVisionOCR(&fakeProvider{response: `{"text": ""}`})
	_, err := engine.ExtractText(context.Background(), models.ImageInput{Data: []byte{1}}, nil)
	assert.ErrorIs(t, err, ErrEmptyText)

	cause := errors.New("quota")
	engine = NewVisionOCR(&fakeProvider{err: cause})
	_, err = engine.ExtractText(context.Background(), models.ImageInput{Data: []byte{1}}, nil)
	assert.ErrorIs(t, err, cause)
}

func TestNewEngine(t *testing.T) {
	engine, err := NewEngine(models.OCRConfig{}, nil, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, "tesseract", engine.Name())

	engine, err = NewEngine(models.OCRConfig{Engine: "vision"}, &fakeProvider{}, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, "vision:fake", engine.Name())

	_, err = NewEngine(models.OCRConfig{Engine: "vision"}, nil, zerolog.Nop())
	assert.Error(t, err)

	_, err = NewEngine(models.OCRConfig{Engine: "paddle"}, nil, zerolog.Nop())
	assert.Error(t, err)
}
