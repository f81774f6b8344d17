package service

import (
	"context"
	"strings"
	"time"

	"github.com/cloo-solutions/pageoracle/internal/domain"
	"github.com/cloo-solutions/pageoracle/internal/telemetry"
)

// QueryConfig configures a QueryService.
type QueryConfig struct {
	Persona   Persona
	TopK      int
	Label     string
	Lifecycle string
}

// QueryService answers questions about the indexed document.
type QueryService struct {
	engines EngineProvider
	history HistoryRecorder
	cfg     QueryConfig
	uuidGen UUIDGenerator
	now     func() time.Time
}

func NewQueryService(engines EngineProvider, history HistoryRecorder, cfg QueryConfig) *QueryService {
	if cfg.TopK <= 0 {
		cfg.TopK = 5
	}
	return &QueryService{
		engines: engines,
		history: history,
		cfg:     cfg,
		uuidGen: &DefaultUUIDGenerator{},
		now:     time.Now,
	}
}

// Ask retrieves context for question, asks the model and logs the exchange.
// Failures carry a DomainError category; nothing is retried.
func (s *QueryService) Ask(ctx context.Context, question string) (*domain.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, domain.ErrEmptyQuestion
	}

	attrs := telemetry.SpanAttributes{
		Persona:   s.cfg.Persona.Name,
		Lifecycle: s.cfg.Lifecycle,
	}

	engine, release, err := s.engines.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	retrieved, err := s.retrieve(ctx, engine, question, attrs)
	if err != nil {
		return nil, err
	}

	prompt := FillPrompt(s.cfg.Persona.Template, domain.JoinContext(retrieved), question)

	genAttrs := attrs
	genAttrs.Operation = "generate"
	genCtx, span := telemetry.StartSpan(ctx, "query.generate", genAttrs)
	text, err := engine.Generator.Generate(genCtx, prompt)
	if err != nil {
		span.SetError(err)
		span.End()
		return nil, domain.Generation("failed to generate answer", err)
	}
	span.End()

	answer := &domain.Answer{
		Text:    text,
		Sources: domain.SourcePages(retrieved),
	}

	if s.history != nil {
		s.history.Record(ctx, domain.NewHistoryRecord(s.uuidGen.NewString(), question, text, s.cfg.Label, s.now()))
	}

	return answer, nil
}

func (s *QueryService) retrieve(ctx context.Context, engine *Engine, question string, attrs telemetry.SpanAttributes) ([]domain.RetrievedSegment, error) {
	attrs.Operation = "retrieve"
	ctx, span := telemetry.StartSpan(ctx, "query.retrieve", attrs)
	defer span.End()

	vector, err := engine.Embedder.EmbedQuery(ctx, question)
	if err != nil {
		span.SetError(err)
		return nil, domain.Retrieval("failed to embed question", err)
	}

	retrieved, err := engine.Index.Search(ctx, vector, s.cfg.TopK)
	if err != nil {
		span.SetError(err)
		return nil, domain.Retrieval("failed to search index", err)
	}
	return retrieved, nil
}
