package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	PersonaLeadership = "leadership"
	PersonaFattura    = "fattura"

	LifecyclePreloaded = "preloaded"
	LifecycleOnDemand  = "on-demand"

	IndexBackendMemory   = "memory"
	IndexBackendPgvector = "pgvector"

	ErrorModeDetailed = "detailed"
	ErrorModeSecure   = "secure"
)

type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	ReadTimeout  time.Duration `envconfig:"READ_TIMEOUT" default:"30s"`
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" default:"120s"`

	Persona        string `envconfig:"PERSONA" default:"leadership"`
	PDFPath        string `envconfig:"PDF_PATH"`
	PromptTemplate string `envconfig:"PROMPT_TEMPLATE"`

	ChunkSize    int `envconfig:"CHUNK_SIZE" default:"1200"`
	ChunkOverlap int `envconfig:"CHUNK_OVERLAP" default:"50"`
	TopK         int `envconfig:"TOP_K" default:"5"`

	Lifecycle    string `envconfig:"LIFECYCLE" default:"preloaded"`
	IndexBackend string `envconfig:"INDEX_BACKEND" default:"memory"`
	DatabaseURL  string `envconfig:"DATABASE_URL"`

	GroqAPIKey  string        `envconfig:"GROQ_API_KEY" required:"true"`
	LLMBaseURL  string        `envconfig:"LLM_BASE_URL" default:"https://api.groq.com/openai/v1"`
	LLMModel    string        `envconfig:"LLM_MODEL" default:"llama-3.3-70b-versatile"`
	Temperature float32       `envconfig:"TEMPERATURE" default:"0.3"`
	LLMTimeout  time.Duration `envconfig:"LLM_TIMEOUT" default:"60s"`

	OpenAIAPIKey        string `envconfig:"OPENAI_API_KEY"`
	EmbeddingAPIKey     string `envconfig:"EMBEDDING_API_KEY"`
	EmbeddingBaseURL    string `envconfig:"EMBEDDING_BASE_URL" default:"https://api.openai.com/v1"`
	EmbeddingModel      string `envconfig:"EMBEDDING_MODEL" default:"text-embedding-3-small"`
	EmbeddingDimensions int    `envconfig:"EMBEDDING_DIMENSIONS" default:"0"`
	EmbeddingBatchSize  int    `envconfig:"EMBEDDING_BATCH_SIZE" default:"64"`

	// HistoryURI selects the store by scheme: mongodb:// or postgres://
	HistoryURI      string `envconfig:"HISTORY_URI"`
	HistoryDatabase string `envconfig:"HISTORY_DATABASE" default:"leadership_oracle_db"`
	HistoryLabel    string `envconfig:"HISTORY_LABEL" default:"Render Cloud"`

	IncludeSources bool   `envconfig:"INCLUDE_SOURCES" default:"false"`
	ErrorMode      string `envconfig:"ERROR_MODE" default:"detailed"`

	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("ORACLE", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	cfg.applyFallbacks()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// applyFallbacks fills values that default from other settings.
func (c *Config) applyFallbacks() {
	if c.PDFPath == "" {
		c.PDFPath = DefaultPDFPath(c.Persona)
	}
	if c.EmbeddingAPIKey == "" {
		c.EmbeddingAPIKey = c.OpenAIAPIKey
	}
	// MONGO_URI is what existing deployments export.
	if c.HistoryURI == "" {
		var legacy struct {
			URI string `envconfig:"MONGO_URI"`
		}
		if err := envconfig.Process("", &legacy); err == nil {
			c.HistoryURI = legacy.URI
		}
	}
}

// Validate checks option values and cross-option constraints.
func (c *Config) Validate() error {
	switch c.Persona {
	case PersonaLeadership, PersonaFattura:
	default:
		return fmt.Errorf("unknown persona %q (expected %s or %s)", c.Persona, PersonaLeadership, PersonaFattura)
	}

	switch c.Lifecycle {
	case LifecyclePreloaded, LifecycleOnDemand:
	default:
		return fmt.Errorf("unknown lifecycle %q (expected %s or %s)", c.Lifecycle, LifecyclePreloaded, LifecycleOnDemand)
	}

	switch c.IndexBackend {
	case IndexBackendMemory:
	case IndexBackendPgvector:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when index backend is %s", IndexBackendPgvector)
		}
		if c.Lifecycle == LifecycleOnDemand {
			return fmt.Errorf("index backend %s requires lifecycle %s", IndexBackendPgvector, LifecyclePreloaded)
		}
	default:
		return fmt.Errorf("unknown index backend %q", c.IndexBackend)
	}

	switch c.ErrorMode {
	case ErrorModeDetailed, ErrorModeSecure:
	default:
		return fmt.Errorf("unknown error mode %q", c.ErrorMode)
	}

	if c.ChunkSize <= 0 {
		return fmt.Errorf("CHUNK_SIZE must be positive, got %d", c.ChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("CHUNK_OVERLAP must be in [0, CHUNK_SIZE), got %d", c.ChunkOverlap)
	}
	if c.TopK <= 0 {
		return fmt.Errorf("TOP_K must be positive, got %d", c.TopK)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("TEMPERATURE must be between 0 and 2, got %.2f", c.Temperature)
	}
	if c.EmbeddingAPIKey == "" {
		return fmt.Errorf("EMBEDDING_API_KEY or OPENAI_API_KEY is required")
	}
	if c.EmbeddingBatchSize <= 0 {
		return fmt.Errorf("EMBEDDING_BATCH_SIZE must be positive, got %d", c.EmbeddingBatchSize)
	}

	if c.PromptTemplate != "" {
		if err := ValidateTemplate(c.PromptTemplate); err != nil {
			return err
		}
	}

	return nil
}

// ValidateTemplate requires both recognized placeholders.
func ValidateTemplate(tmpl string) error {
	for _, placeholder := range []string{"{context}", "{question}"} {
		if !strings.Contains(tmpl, placeholder) {
			return fmt.Errorf("prompt template is missing the %s placeholder", placeholder)
		}
	}
	return nil
}

// DefaultPDFPath returns the document each persona ships with.
func DefaultPDFPath(persona string) string {
	if persona == PersonaFattura {
		return "fatture.pdf"
	}
	return "Leaders-Eat-Last-Sinek.pdf"
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func (c *Config) HasHistory() bool {
	return c.HistoryURI != ""
}

func (c *Config) IsSecureErrors() bool {
	return c.ErrorMode == ErrorModeSecure
}
