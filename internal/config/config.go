// Package config provides application configuration management using koanf
package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all configuration for the application. It is constructed once
// at startup and injected into components; nothing reads the environment
// after Load returns.
type Config struct {
	// Server configuration
	Server ServerConfig `koanf:"server"`

	// External services
	Services ServicesConfig `koanf:"services"`

	// Review pipeline settings
	Review ReviewConfig `koanf:"review"`

	// Application settings
	App AppConfig `koanf:"app"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string `koanf:"host"`
	Port         int    `koanf:"port"`
	ReadTimeout  int    `koanf:"read_timeout"`  // seconds
	WriteTimeout int    `koanf:"write_timeout"` // seconds
}

// ServicesConfig holds external service configuration
type ServicesConfig struct {
	Ollama OllamaConfig `koanf:"ollama"`
	Groq   GroqConfig   `koanf:"groq"`
}

// OllamaConfig holds the embedding service configuration
type OllamaConfig struct {
	BaseURL        string `koanf:"base_url"`
	EmbeddingModel string `koanf:"embedding_model"`
	Timeout        int    `koanf:"timeout"` // seconds
}

// GroqConfig holds the completion service configuration
type GroqConfig struct {
	BaseURL             string  `koanf:"base_url"`
	APIKey              string  `koanf:"api_key"`
	Model               string  `koanf:"model"`
	AnswerTemperature   float64 `koanf:"answer_temperature"`
	DecisionTemperature float64 `koanf:"decision_temperature"`
	Timeout             int     `koanf:"timeout"` // seconds, per completion call
}

// ReviewConfig holds document review pipeline settings
type ReviewConfig struct {
	ChunkSize          int   `koanf:"chunk_size"`
	ChunkOverlap       int   `koanf:"chunk_overlap"`
	TopK               int   `koanf:"top_k"`
	MaxCustomQuestions int   `koanf:"max_custom_questions"`
	MaxQuestionLength  int   `koanf:"max_question_length"`
	MaxUploadBytes     int64 `koanf:"max_upload_bytes"`
}

// AppConfig holds general application settings
type AppConfig struct {
	Environment string `koanf:"environment"` // "development", "staging", "production"
	LogLevel    string `koanf:"log_level"`   // "debug", "info", "warn", "error"
	LogFormat   string `koanf:"log_format"`  // "text" or "json"
}

// Load loads configuration from multiple sources with precedence:
// 1. config.yaml (if exists)
// 2. config.json (if exists)
// 3. Environment variables (highest precedence)
func Load() (*Config, error) {
	k := koanf.New(".")

	// Set defaults
	setDefaults(k)

	// Load from config files (optional)
	loadConfigFiles(k)

	// Load from environment variables (highest precedence)
	if err := k.Load(env.Provider(".", env.Opt{}), nil); err != nil {
		return nil, fmt.Errorf("error loading environment variables: %w", err)
	}

	// Unmarshal into config struct
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Validate configuration
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(k *koanf.Koanf) {
	defaults := map[string]interface{}{
		// Server defaults
		"server.host":          "localhost",
		"server.port":          8080,
		"server.read_timeout":  60,
		"server.write_timeout": 300,

		// Services defaults
		"services.ollama.base_url":           "http://localhost:11434",
		"services.ollama.embedding_model":    "nomic-embed-text",
		"services.ollama.timeout":            60,
		"services.groq.base_url":             "https://api.groq.com/openai/v1",
		"services.groq.model":                "llama3-70b-8192",
		"services.groq.answer_temperature":   0.0,
		"services.groq.decision_temperature": 0.2,
		"services.groq.timeout":              60,

		// Review defaults
		"review.chunk_size":           1000,
		"review.chunk_overlap":        200,
		"review.top_k":                4,
		"review.max_custom_questions": 20,
		"review.max_question_length":  500,
		"review.max_upload_bytes":     20 << 20,

		// App defaults
		"app.environment": "development",
		"app.log_level":   "info",
		"app.log_format":  "text",
	}

	for key, value := range defaults {
		_ = k.Set(key, value) // Ignore error for setting defaults
	}
}

// loadConfigFiles loads configuration from files
func loadConfigFiles(k *koanf.Koanf) {
	// Try to load YAML config
	if _, err := os.Stat("config.yaml"); err == nil {
		if err := k.Load(file.Provider("config.yaml"), yaml.Parser()); err != nil {
			log.Printf("Warning: failed to load config.yaml: %v", err)
		}
	}

	// Try to load JSON config
	if _, err := os.Stat("config.json"); err == nil {
		if err := k.Load(file.Provider("config.json"), json.Parser()); err != nil {
			log.Printf("Warning: failed to load config.json: %v", err)
		}
	}
}

// validate validates the configuration
func validate(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", cfg.Server.Port)
	}

	if cfg.Review.ChunkSize <= 0 {
		return fmt.Errorf("chunk size must be positive, got %d", cfg.Review.ChunkSize)
	}
	if cfg.Review.ChunkOverlap < 0 || cfg.Review.ChunkOverlap >= cfg.Review.ChunkSize {
		return fmt.Errorf("chunk overlap must be in [0, chunk_size), got %d", cfg.Review.ChunkOverlap)
	}
	if cfg.Review.TopK < 1 {
		return fmt.Errorf("top_k must be at least 1, got %d", cfg.Review.TopK)
	}
	if cfg.Review.MaxCustomQuestions < 0 {
		return fmt.Errorf("max_custom_questions must not be negative, got %d", cfg.Review.MaxCustomQuestions)
	}

	if cfg.Services.Groq.AnswerTemperature < 0 || cfg.Services.Groq.AnswerTemperature > 2 {
		return fmt.Errorf("answer temperature must be in [0, 2], got %v", cfg.Services.Groq.AnswerTemperature)
	}
	if cfg.Services.Groq.DecisionTemperature < 0 || cfg.Services.Groq.DecisionTemperature > 2 {
		return fmt.Errorf("decision temperature must be in [0, 2], got %v", cfg.Services.Groq.DecisionTemperature)
	}

	if cfg.IsProduction() && cfg.Services.Groq.APIKey == "" {
		return fmt.Errorf("groq API key is required in production")
	}

	return nil
}

// OllamaTimeout returns the embedding call timeout as a duration.
func (c *Config) OllamaTimeout() time.Duration {
	return time.Duration(c.Services.Ollama.Timeout) * time.Second
}

// GroqTimeout returns the per-completion-call timeout as a duration.
func (c *Config) GroqTimeout() time.Duration {
	return time.Duration(c.Services.Groq.Timeout) * time.Second
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}
