package ai

import (
	"context"
	"strings"
)

// OllamaProvider talks to a local Ollama through its OpenAI-compatible /v1 API
type OllamaProvider struct {
	chat *OpenAIProvider
}

// NewOllamaProvider creates an Ollama provider
func NewOllamaProvider(baseURL, model string) *OllamaProvider {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	baseURL = strings.TrimRight(baseURL, "/")
	if !strings.HasSuffix(baseURL, "/v1") {
		baseURL += "/v1"
	}
	// Ollama ignores the key but the client requires one
	return &OllamaProvider{chat: NewOpenAIProvider("ollama", baseURL, model)}
}

// Name returns the provider name
func (p *OllamaProvider) Name() string {
	return "ollama"
}

// ExtractData sends the prompt to the local model
func (p *OllamaProvider) ExtractData(ctx context.Context, prompt string, imageBase64 string) (string, error) {
	return p.chat.complete(ctx, prompt, imageBase64)
}
