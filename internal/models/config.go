package models

// Config represents the service configuration
type Config struct {
	// Server config
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
	Env  string `yaml:"env"` // "development" or "production"

	// OCR config
	OCR OCRConfig `yaml:"ocr"`

	// AI config
	AI AIConfig `yaml:"ai"`

	// Problem bank persistence
	Store StoreConfig `yaml:"store"`

	// Pipeline timing
	Pipeline PipelineConfig `yaml:"pipeline"`

	// Exam sheet rendering
	Exam ExamConfig `yaml:"exam"`

	Auth AuthConfig `yaml:"auth"`
}

// OCRConfig represents OCR-specific configuration
type OCRConfig struct {
	Engine     string `yaml:"engine"`     // "tesseract" or "vision"
	Language   string `yaml:"language"`   // Tesseract language (default: "kor+eng")
	Preprocess bool   `yaml:"preprocess"` // run ImageMagick before Tesseract
}

// AIConfig represents AI provider configuration
type AIConfig struct {
	// OpenAI
	OpenAI OpenAIConfig `yaml:"openai"`

	// Gemini
	Gemini GeminiConfig `yaml:"gemini"`

	// Ollama (local)
	Ollama OllamaConfig `yaml:"ollama"`

	// Default provider
	DefaultProvider string `yaml:"default_provider"` // "openai", "gemini", "ollama"
}

// OpenAIConfig for OpenAI/Azure OpenAI
type OpenAIConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url,omitempty"` // For custom endpoints
	Model   string `yaml:"model"`              // Default: "gpt-4o-mini"
}

// GeminiConfig for Google Gemini
type GeminiConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"` // Default: "gemini-2.0-flash"
}

// OllamaConfig for local Ollama
type OllamaConfig struct {
	BaseURL string `yaml:"base_url"` // Default: "http://localhost:11434"
	Model   string `yaml:"model"`    // e.g., "llama3.1", "qwen2.5"
}

// StoreConfig selects the key-value backend of the problem bank
type StoreConfig struct {
	Backend string      `yaml:"backend"` // "file", "memory", "redis", "postgres"
	Path    string      `yaml:"path"`    // directory for the file backend
	Key     string      `yaml:"key"`     // collection key (default: "twins_question_bank")
	Redis   RedisConfig `yaml:"redis"`
}

// RedisConfig for the redis store backend
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// PipelineConfig bounds background runs
type PipelineConfig struct {
	RunTimeoutSeconds int `yaml:"run_timeout_seconds"` // whole start() budget
	MaxRuns           int `yaml:"max_runs"`            // live runs kept by the HTTP registry
}

// ExamConfig controls problem points on the exam sheet
type ExamConfig struct {
	PointsPerProblem string `yaml:"points_per_problem"` // decimal string, default "5"
	TotalPoints      string `yaml:"total_points"`       // when set, split evenly instead
}

// AuthConfig toggles JWT protection of the API
type AuthConfig struct {
	Enabled bool `yaml:"enabled"`
}
