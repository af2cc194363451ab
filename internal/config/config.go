package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/twinsgen/twin-problem-service/internal/models"
)

// Defaults applied before the config file and environment are read
func Defaults() models.Config {
	return models.Config{
		Port: 8080,
		Host: "0.0.0.0",
		Env:  "production",
		OCR: models.OCRConfig{
			Engine:     "tesseract",
			Language:   "kor+eng",
			Preprocess: true,
		},
		AI: models.AIConfig{
			DefaultProvider: "gemini",
			Gemini:          models.GeminiConfig{Model: "gemini-2.0-flash"},
			OpenAI:          models.OpenAIConfig{Model: "gpt-4o-mini"},
			Ollama:          models.OllamaConfig{BaseURL: "http://localhost:11434", Model: "llama3.1"},
		},
		Store: models.StoreConfig{
			Backend: "file",
			Path:    "./data",
			Key:     "twins_question_bank",
			Redis:   models.RedisConfig{Addr: "localhost:6379", Prefix: "twins:"},
		},
		Pipeline: models.PipelineConfig{
			RunTimeoutSeconds: 180,
			MaxRuns:           100,
		},
		Exam: models.ExamConfig{PointsPerProblem: "5"},
	}
}

// Load reads the YAML config at path (missing file means defaults) and applies
// environment overrides. A .env file in the working directory is loaded first.
func Load(path string) (*models.Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	config := Defaults()

	// Read config file
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	applyEnv(&config)
	return &config, nil
}

// applyEnv overrides config values with environment variables if present
func applyEnv(config *models.Config) {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Port = p
		}
	}
	if host := os.Getenv("HOST"); host != "" {
		config.Host = host
	}
	if env := os.Getenv("APP_ENV"); env != "" {
		config.Env = env
	}
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		config.AI.OpenAI.APIKey = apiKey
	}
	if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		config.AI.Gemini.APIKey = apiKey
	}
	if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
		config.AI.Ollama.BaseURL = baseURL
	}
	if provider := os.Getenv("AI_PROVIDER"); provider != "" {
		config.AI.DefaultProvider = provider
	}
	if baseURL := os.Getenv("OPENAI_BASE_URL"); baseURL != "" {
		config.AI.OpenAI.BaseURL = baseURL
	}
	if model := os.Getenv("OPENAI_MODEL"); model != "" {
		config.AI.OpenAI.Model = model
	}
	if model := os.Getenv("GEMINI_MODEL"); model != "" {
		config.AI.Gemini.Model = model
	}
	if engine := os.Getenv("OCR_ENGINE"); engine != "" {
		config.OCR.Engine = engine
	}
	if lang := os.Getenv("OCR_LANGUAGE"); lang != "" {
		config.OCR.Language = lang
	}
	if backend := os.Getenv("STORE_BACKEND"); backend != "" {
		config.Store.Backend = backend
	}
	if path := os.Getenv("STORE_PATH"); path != "" {
		config.Store.Path = path
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		config.Store.Redis.Addr = addr
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		config.Store.Redis.Password = password
	}
	if enabled := os.Getenv("AUTH_ENABLED"); enabled != "" {
		config.Auth.Enabled = enabled == "true"
	}
}
