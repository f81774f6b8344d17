package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/cloo-solutions/pageoracle/internal/domain"
	"github.com/cloo-solutions/pageoracle/internal/index"
	"github.com/cloo-solutions/pageoracle/internal/telemetry"
)

// DocumentLoader reads and parses the source PDF.
type DocumentLoader interface {
	Load(ctx context.Context, uri string) (*domain.Document, error)
}

// Embedder turns text into vectors.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	Model() string
}

// Generator produces an answer for a filled prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Index returns the k segments nearest to a query vector.
type Index interface {
	Search(ctx context.Context, query []float32, k int) ([]domain.RetrievedSegment, error)
	Len() int
}

// SegmentRepository persists embedded segments for the pgvector backend.
type SegmentRepository interface {
	FindComplete(ctx context.Context, key domain.IndexKey) (*domain.IndexInfo, error)
	Replace(ctx context.Context, key domain.IndexKey, segments []domain.Segment, vectors [][]float32) (*domain.IndexInfo, error)
	Search(ctx context.Context, indexID string, query []float32, k int) ([]domain.RetrievedSegment, error)
}

// Engine is everything needed to answer a question about one document.
// It is read-only once built.
type Engine struct {
	Index     Index
	Embedder  Embedder
	Generator Generator
	Stats     BuildStats
}

// BuildStats describes how an engine was built.
type BuildStats struct {
	DocumentURI string
	Fingerprint string
	Pages       int
	Segments    int
	Reused      bool
	Duration    time.Duration
}

// EngineBuilder builds a new Engine.
type EngineBuilder interface {
	Build(ctx context.Context) (*Engine, error)
}

// EngineFactoryConfig configures an EngineFactory.
type EngineFactoryConfig struct {
	DocumentURI string
	Chunking    ChunkConfig
	Persona     string
	// Segments enables the pgvector backend when set.
	Segments SegmentRepository
	// ForceReindex re-embeds even when a complete stored index exists.
	ForceReindex bool
}

// EngineFactory runs the ingest, chunk, embed and index pipeline.
type EngineFactory struct {
	loader    DocumentLoader
	embedder  Embedder
	generator Generator
	cfg       EngineFactoryConfig
}

func NewEngineFactory(loader DocumentLoader, embedder Embedder, generator Generator, cfg EngineFactoryConfig) *EngineFactory {
	return &EngineFactory{
		loader:    loader,
		embedder:  embedder,
		generator: generator,
		cfg:       cfg,
	}
}

func (f *EngineFactory) backend() string {
	if f.cfg.Segments != nil {
		return "pgvector"
	}
	return "memory"
}

// Build loads the document and produces a searchable engine.
func (f *EngineFactory) Build(ctx context.Context) (*Engine, error) {
	started := time.Now()
	ctx, span := telemetry.StartSpan(ctx, "engine.build", telemetry.SpanAttributes{
		Persona:   f.cfg.Persona,
		Backend:   f.backend(),
		Operation: "build",
	})
	defer span.End()

	doc, err := f.loader.Load(ctx, f.cfg.DocumentURI)
	if err != nil {
		span.SetError(err)
		return nil, domain.Ingestion("failed to load document", err)
	}

	segments := ChunkDocument(doc, f.cfg.Chunking)
	if len(segments) == 0 {
		span.SetError(domain.ErrDocumentEmpty)
		return nil, domain.ErrDocumentEmpty
	}

	stats := BuildStats{
		DocumentURI: doc.URI,
		Fingerprint: doc.Fingerprint,
		Pages:       len(doc.Pages),
		Segments:    len(segments),
	}

	var idx Index
	if f.cfg.Segments != nil {
		idx, stats.Reused, err = f.buildStored(ctx, doc, segments)
	} else {
		idx, err = f.buildMemory(ctx, segments)
	}
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	stats.Duration = time.Since(started)
	log.Printf("engine: indexed %s (%d pages, %d segments, backend=%s, reused=%t) in %s",
		stats.DocumentURI, stats.Pages, stats.Segments, f.backend(), stats.Reused, stats.Duration.Round(time.Millisecond))

	return &Engine{
		Index:     idx,
		Embedder:  f.embedder,
		Generator: f.generator,
		Stats:     stats,
	}, nil
}

func (f *EngineFactory) buildMemory(ctx context.Context, segments []domain.Segment) (Index, error) {
	vectors, err := f.embedder.EmbedDocuments(ctx, segmentTexts(segments))
	if err != nil {
		return nil, domain.Retrieval("failed to embed segments", err)
	}
	mem, err := index.Build(segments, vectors)
	if err != nil {
		return nil, err
	}
	return mem, nil
}

func (f *EngineFactory) buildStored(ctx context.Context, doc *domain.Document, segments []domain.Segment) (Index, bool, error) {
	key := domain.IndexKey{
		Fingerprint:  doc.Fingerprint,
		ChunkSize:    f.cfg.Chunking.MaxChars,
		ChunkOverlap: f.cfg.Chunking.Overlap,
		Model:        f.embedder.Model(),
	}

	if !f.cfg.ForceReindex {
		info, err := f.cfg.Segments.FindComplete(ctx, key)
		switch {
		case err == nil && info.SegmentCount == len(segments):
			return &storedIndex{repo: f.cfg.Segments, info: *info}, true, nil
		case err == nil:
			log.Printf("engine: stored index %s has %d segments, expected %d; rebuilding", info.ID, info.SegmentCount, len(segments))
		case !errors.Is(err, domain.ErrIndexNotBuilt):
			return nil, false, domain.Retrieval("failed to look up stored index", err)
		}
	}

	vectors, err := f.embedder.EmbedDocuments(ctx, segmentTexts(segments))
	if err != nil {
		return nil, false, domain.Retrieval("failed to embed segments", err)
	}

	info, err := f.cfg.Segments.Replace(ctx, key, segments, vectors)
	if err != nil {
		return nil, false, domain.Retrieval("failed to store index", err)
	}
	return &storedIndex{repo: f.cfg.Segments, info: *info}, false, nil
}

func segmentTexts(segments []domain.Segment) []string {
	texts := make([]string, len(segments))
	for i, s := range segments {
		texts[i] = s.Text
	}
	return texts
}

// storedIndex searches one persisted index through the repository.
type storedIndex struct {
	repo SegmentRepository
	info domain.IndexInfo
}

func (s *storedIndex) Len() int {
	return s.info.SegmentCount
}

func (s *storedIndex) Search(ctx context.Context, query []float32, k int) ([]domain.RetrievedSegment, error) {
	if len(query) != s.info.Dimensions {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeRetrieval, domain.ErrDimensionMismatch.Message,
			fmt.Errorf("query has %d dimensions, index has %d", len(query), s.info.Dimensions))
	}
	if k <= 0 {
		return nil, nil
	}
	results, err := s.repo.Search(ctx, s.info.ID, query, k)
	if err != nil {
		return nil, domain.Retrieval("vector search failed", err)
	}
	return results, nil
}

// EngineProvider hands out an engine for the duration of one request.
// The release func must be called when the request is done with it.
type EngineProvider interface {
	Acquire(ctx context.Context) (*Engine, func(), error)
	Close() error
}

// PreloadedProvider builds one engine at startup and shares it.
type PreloadedProvider struct {
	engine atomic.Pointer[Engine]
}

// NewPreloadedProvider builds the engine immediately. Startup fails if the
// document cannot be indexed.
func NewPreloadedProvider(ctx context.Context, builder EngineBuilder) (*PreloadedProvider, error) {
	engine, err := builder.Build(ctx)
	if err != nil {
		return nil, err
	}
	p := &PreloadedProvider{}
	p.engine.Store(engine)
	return p, nil
}

func (p *PreloadedProvider) Acquire(ctx context.Context) (*Engine, func(), error) {
	engine := p.engine.Load()
	if engine == nil {
		return nil, nil, domain.ErrIndexNotBuilt
	}
	return engine, func() {}, nil
}

// Close drops the shared engine; later Acquire calls fail.
func (p *PreloadedProvider) Close() error {
	p.engine.Store(nil)
	return nil
}

// OnDemandProvider builds a fresh engine for every request and discards it
// on release. Each request pays the full indexing cost.
type OnDemandProvider struct {
	builder EngineBuilder
}

func NewOnDemandProvider(builder EngineBuilder) *OnDemandProvider {
	return &OnDemandProvider{builder: builder}
}

func (p *OnDemandProvider) Acquire(ctx context.Context) (*Engine, func(), error) {
	engine, err := p.builder.Build(ctx)
	if err != nil {
		return nil, nil, err
	}
	return engine, func() {}, nil
}

func (p *OnDemandProvider) Close() error {
	return nil
}
