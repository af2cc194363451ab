package ai

import (
	"context"
	"fmt"

	"github.com/twinsgen/twin-problem-service/internal/models"
)

// Provider is a language-model backend. imageBase64 is empty for text-only prompts.
type Provider interface {
	Name() string
	ExtractData(ctx context.Context, prompt string, imageBase64 string) (string, error)
}

// NewProvider creates the named provider; an empty name uses the configured default
// and an empty model uses the provider's configured model.
func NewProvider(cfg models.AIConfig, providerName, modelName string) (Provider, error) {
	if providerName == "" {
		providerName = cfg.DefaultProvider
	}

	switch providerName {
	case "openai":
		model := modelName
		if model == "" {
			model = cfg.OpenAI.Model
		}
		return NewOpenAIProvider(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, model), nil

	case "gemini":
		model := modelName
		if model == "" {
			model = cfg.Gemini.Model
		}
		return NewGeminiProvider(cfg.Gemini.APIKey, model), nil

	case "ollama":
		model := modelName
		if model == "" {
			model = cfg.Ollama.Model
		}
		return NewOllamaProvider(cfg.Ollama.BaseURL, model), nil

	default:
		return nil, fmt.Errorf("unsupported AI provider: %s", providerName)
	}
}
