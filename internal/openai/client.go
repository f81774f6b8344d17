// Package openai adapts the go-openai client for embeddings and chat
// completions against any OpenAI-compatible endpoint (OpenAI, Groq, local
// servers).
package openai

import (
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// ClientConfig holds the connection settings shared by both adapters.
type ClientConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

func newClient(cfg ClientConfig) *openai.Client {
	conf := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		conf.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		conf.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	return openai.NewClientWithConfig(conf)
}
