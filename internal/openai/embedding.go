package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/cloo-solutions/pageoracle/internal/domain"
)

const (
	// DefaultEmbeddingModel is the model used when none is configured
	DefaultEmbeddingModel = openai.SmallEmbedding3
	// DefaultBatchSize is the number of inputs sent per embeddings request
	DefaultBatchSize = 64
)

var (
	// ErrEmptyText is returned when text is empty
	ErrEmptyText = errors.New("text cannot be empty")
)

// EmbeddingAPI defines the interface for embedding generation
type EmbeddingAPI interface {
	CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
}

// OpenAIAdapter calls the embeddings endpoint through go-openai.
type OpenAIAdapter struct {
	client *openai.Client
	model  openai.EmbeddingModel
}

func NewOpenAIAdapter(cfg ClientConfig, model string) *OpenAIAdapter {
	m := openai.EmbeddingModel(model)
	if m == "" {
		m = DefaultEmbeddingModel
	}
	return &OpenAIAdapter{
		client: newClient(cfg),
		model:  m,
	}
}

// CreateEmbeddings returns one vector per input, in input order.
func (a *OpenAIAdapter) CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := a.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: a.model,
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: sent %d inputs, got %d vectors", len(texts), len(resp.Data))
	}

	out := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(out) {
			return nil, fmt.Errorf("embedding index %d out of range", d.Index)
		}
		out[d.Index] = d.Embedding
	}
	for i, v := range out {
		if v == nil {
			return nil, fmt.Errorf("no embedding returned for input %d", i)
		}
	}

	return out, nil
}

// EmbedderConfig configures an Embedder.
type EmbedderConfig struct {
	ClientConfig
	Model      string
	Dimensions int
	BatchSize  int
}

// Embedder turns text into vectors. When Dimensions is zero the model's native
// size is accepted, and only consistency within one EmbedDocuments call is checked.
type Embedder struct {
	api        EmbeddingAPI
	model      string
	dimensions int
	batchSize  int
}

// NewEmbedder creates an Embedder backed by the OpenAI-compatible API.
func NewEmbedder(cfg EmbedderConfig) *Embedder {
	return newEmbedder(NewOpenAIAdapter(cfg.ClientConfig, cfg.Model), cfg)
}

func newEmbedder(api EmbeddingAPI, cfg EmbedderConfig) *Embedder {
	model := cfg.Model
	if model == "" {
		model = string(DefaultEmbeddingModel)
	}
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = DefaultBatchSize
	}
	return &Embedder{
		api:        api,
		model:      model,
		dimensions: cfg.Dimensions,
		batchSize:  batch,
	}
}

// Model returns the embedding model identifier.
func (e *Embedder) Model() string {
	return e.model
}

// EmbedQuery embeds a single question.
func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, domain.Retrieval("failed to embed question", ErrEmptyText)
	}

	vectors, err := e.api.CreateEmbeddings(ctx, []string{text})
	if err != nil {
		return nil, domain.Retrieval("failed to embed question", err)
	}
	if len(vectors) != 1 {
		return nil, domain.Retrieval("failed to embed question", fmt.Errorf("expected 1 vector, got %d", len(vectors)))
	}
	if err := e.checkDimensions(vectors[0], e.dimensions); err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedDocuments embeds texts in batches and returns vectors in input order.
func (e *Embedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	expected := e.dimensions
	for start := 0; start < len(texts); start += e.batchSize {
		end := start + e.batchSize
		if end > len(texts) {
			end = len(texts)
		}

		vectors, err := e.api.CreateEmbeddings(ctx, texts[start:end])
		if err != nil {
			return nil, domain.Retrieval("failed to embed segments", err)
		}
		if len(vectors) != end-start {
			return nil, domain.Retrieval("failed to embed segments",
				fmt.Errorf("expected %d vectors, got %d", end-start, len(vectors)))
		}
		for _, v := range vectors {
			if expected == 0 {
				expected = len(v)
			}
			if err := e.checkDimensions(v, expected); err != nil {
				return nil, err
			}
		}
		out = append(out, vectors...)
	}
	return out, nil
}

func (e *Embedder) checkDimensions(v []float32, expected int) error {
	if len(v) == 0 {
		return domain.NewDomainErrorWithCause(domain.ErrCodeRetrieval,
			domain.ErrDimensionMismatch.Message, errors.New("empty vector"))
	}
	if expected > 0 && len(v) != expected {
		return domain.NewDomainErrorWithCause(domain.ErrCodeRetrieval, domain.ErrDimensionMismatch.Message,
			fmt.Errorf("expected %d, got %d", expected, len(v)))
	}
	return nil
}
