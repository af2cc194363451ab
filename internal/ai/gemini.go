package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiProvider calls Google Gemini with JSON responses
type GeminiProvider struct {
	apiKey string
	model  string
	opts   []option.ClientOption
}

// NewGeminiProvider creates a Gemini provider
func NewGeminiProvider(apiKey, model string, opts ...option.ClientOption) *GeminiProvider {
	if model == "" {
		model = "gemini-2.0-flash"
	}
	return &GeminiProvider{
		apiKey: strings.TrimSpace(apiKey),
		model:  strings.TrimSpace(model),
		opts:   opts,
	}
}

// Name returns the provider name
func (g *GeminiProvider) Name() string {
	return "gemini"
}

// ExtractData sends the prompt, plus the image when given, and returns the text reply
func (g *GeminiProvider) ExtractData(ctx context.Context, prompt string, imageBase64 string) (string, error) {
	if g.apiKey == "" {
		return "", fmt.Errorf("gemini: %w (GEMINI_API_KEY)", ErrMissingAPIKey)
	}

	opts := append([]option.ClientOption{option.WithAPIKey(g.apiKey)}, g.opts...)
	cl, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return "", fmt.Errorf("gemini client: %w", err)
	}
	defer cl.Close()

	m := cl.GenerativeModel(g.model)
	m.GenerationConfig = genai.GenerationConfig{
		ResponseMIMEType: "application/json",
	}

	parts := []genai.Part{genai.Text(prompt)}
	if imageBase64 != "" {
		img, err := parseImage(imageBase64)
		if err != nil {
			return "", fmt.Errorf("gemini: %w", err)
		}
		parts = append(parts, &genai.Blob{MIMEType: img.mediaType, Data: img.data})
	}

	resp, err := m.GenerateContent(ctx, parts...)
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", mapProviderError(err))
	}

	txt := firstText(resp)
	if txt == "" {
		return "", fmt.Errorf("gemini: %w", ErrEmptyResponse)
	}
	return txt, nil
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		var b strings.Builder
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				b.WriteString(string(t))
			}
		}
		if b.Len() > 0 {
			return b.String()
		}
	}
	return ""
}
