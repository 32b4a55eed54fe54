package config

import (
	"fmt"
	"strings"
)

type Config struct {
	Gemini      GeminiConfig      `yaml:"gemini"`
	OpenAI      OpenAIConfig      `yaml:"openai"`
	Embedding   EmbeddingConfig   `yaml:"embedding"`
	Storage     StorageConfig     `yaml:"storage"`
	Paths       PathsConfig       `yaml:"paths"`
	Logging     LoggingConfig     `yaml:"logging"`
	Performance PerformanceConfig `yaml:"performance"`
	Retrieval   RetrievalConfig   `yaml:"retrieval"`

	// Secrets come from the environment (or .env), never from YAML.
	Secrets Secrets `yaml:"-"`
}

type GeminiConfig struct {
	Model           string `yaml:"model"`
	TranscribeModel string `yaml:"transcribe_model"`
}

type OpenAIConfig struct {
	ChatModel string `yaml:"chat_model"`
}

type EmbeddingConfig struct {
	Provider   string `yaml:"provider"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
}

type StorageConfig struct {
	TranscriptDB string `yaml:"transcript_db"`
	VectorDB     string `yaml:"vector_db"`
}

type PathsConfig struct {
	Input    string `yaml:"input"`
	Archived string `yaml:"archived"`
	Output   string `yaml:"output"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type PerformanceConfig struct {
	MaxConcurrent int `yaml:"max_concurrent"`
}

type RetrievalConfig struct {
	DefaultK        int     `yaml:"default_k"`
	FetchK          int     `yaml:"fetch_k"`
	MMRLambda       float64 `yaml:"mmr_lambda"`
	DefaultStrategy string  `yaml:"default_strategy"`
}

type Secrets struct {
	GoogleAPIKeys []string
	OpenAIAPIKey  string
}

const (
	ProviderOpenAI  = "openai"
	ProviderHashing = "hashing"
)

func (c *Config) Validate() error {
	c.Embedding.Provider = strings.ToLower(strings.TrimSpace(c.Embedding.Provider))
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = ProviderOpenAI
	}
	if c.Embedding.Provider != ProviderOpenAI && c.Embedding.Provider != ProviderHashing {
		return fmt.Errorf("embedding.provider must be %q or %q, got %q", ProviderOpenAI, ProviderHashing, c.Embedding.Provider)
	}
	if c.Retrieval.MMRLambda < 0 || c.Retrieval.MMRLambda > 1 {
		return fmt.Errorf("retrieval.mmr_lambda must be between 0 and 1")
	}
	if c.Performance.MaxConcurrent < 0 {
		return fmt.Errorf("performance.max_concurrent must not be negative")
	}

	if c.Gemini.Model == "" {
		c.Gemini.Model = "gemini-2.5-pro"
	}
	if c.Gemini.TranscribeModel == "" {
		c.Gemini.TranscribeModel = c.Gemini.Model
	}
	if c.OpenAI.ChatModel == "" {
		c.OpenAI.ChatModel = "gpt-4o-mini"
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "text-embedding-3-small"
	}
	if c.Embedding.Dimensions == 0 {
		c.Embedding.Dimensions = 256
	}
	if c.Storage.TranscriptDB == "" {
		c.Storage.TranscriptDB = "data/minutes.db"
	}
	if c.Storage.VectorDB == "" {
		c.Storage.VectorDB = "data/vectors.db"
	}
	if c.Paths.Input == "" {
		c.Paths.Input = "data/inbox"
	}
	if c.Paths.Archived == "" {
		c.Paths.Archived = "data/archived"
	}
	if c.Paths.Output == "" {
		c.Paths.Output = "data/output"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	if c.Performance.MaxConcurrent == 0 {
		c.Performance.MaxConcurrent = 2
	}
	if c.Retrieval.DefaultK == 0 {
		c.Retrieval.DefaultK = 5
	}
	if c.Retrieval.FetchK == 0 {
		c.Retrieval.FetchK = 20
	}
	if c.Retrieval.MMRLambda == 0 {
		c.Retrieval.MMRLambda = 0.5
	}
	if c.Retrieval.DefaultStrategy == "" {
		c.Retrieval.DefaultStrategy = "similarity"
	}

	return nil
}

// RequireGemini reports a missing GOOGLE_API_KEY.
func (c *Config) RequireGemini() error {
	if len(c.Secrets.GoogleAPIKeys) == 0 {
		return fmt.Errorf("GOOGLE_API_KEY is required")
	}
	return nil
}

// RequireOpenAI reports a missing OPENAI_API_KEY.
func (c *Config) RequireOpenAI() error {
	if c.Secrets.OpenAIAPIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required")
	}
	return nil
}
