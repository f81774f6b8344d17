package openai

import (
	"context"
	"fmt"
	"math"

	openai "github.com/sashabaranov/go-openai"

	"github.com/cloo-solutions/pageoracle/internal/domain"
)

const DefaultChatModel = "llama-3.3-70b-versatile"

// ChatAPI is the subset of *openai.Client the generator uses.
type ChatAPI interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// GeneratorConfig configures a Generator.
type GeneratorConfig struct {
	ClientConfig
	Model       string
	Temperature float32
}

// Generator sends a filled prompt to a hosted chat model and returns its reply.
type Generator struct {
	api         ChatAPI
	model       string
	temperature float32
}

// NewGenerator creates a Generator backed by the OpenAI-compatible API.
func NewGenerator(cfg GeneratorConfig) *Generator {
	return newGenerator(newClient(cfg.ClientConfig), cfg)
}

func newGenerator(api ChatAPI, cfg GeneratorConfig) *Generator {
	model := cfg.Model
	if model == "" {
		model = DefaultChatModel
	}
	return &Generator{
		api:         api,
		model:       model,
		temperature: cfg.Temperature,
	}
}

// Model returns the chat model identifier.
func (g *Generator) Model() string {
	return g.model
}

// Generate sends prompt as a single user message. The reply is returned verbatim.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: wireTemperature(g.temperature),
	})
	if err != nil {
		return "", domain.Generation("chat completion failed", err)
	}
	if len(resp.Choices) == 0 {
		return "", domain.NewDomainErrorWithCause(domain.ErrCodeGeneration,
			domain.ErrEmptyCompletion.Message, fmt.Errorf("model %s", g.model))
	}
	return resp.Choices[0].Message.Content, nil
}

// wireTemperature keeps a configured 0 on the wire. The request field is
// omitempty, and an omitted temperature means the provider default of 1.
func wireTemperature(t float32) float32 {
	if t == 0 {
		return math.SmallestNonzeroFloat32
	}
	return t
}
