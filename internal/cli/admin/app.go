package admin

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/cloo-solutions/pageoracle/internal/config"
	"github.com/cloo-solutions/pageoracle/internal/database"
	"github.com/cloo-solutions/pageoracle/internal/document"
	"github.com/cloo-solutions/pageoracle/internal/openai"
	"github.com/cloo-solutions/pageoracle/internal/repository"
	"github.com/cloo-solutions/pageoracle/internal/service"
	"github.com/cloo-solutions/pageoracle/internal/storage"
	"github.com/cloo-solutions/pageoracle/internal/telemetry"
)

// initTelemetry initializes Sentry when SENTRY_DSN is set and returns the flush func.
func initTelemetry(debug bool) func() {
	dsn := os.Getenv("SENTRY_DSN")
	if dsn == "" {
		return func() {}
	}

	environment := os.Getenv("ENVIRONMENT")
	if environment == "" {
		environment = "development"
	}

	// Default to 10% sampling in production, 100% in development
	sampleRate := 0.1
	if environment == "development" {
		sampleRate = 1.0
	}

	shutdown, err := telemetry.Init(telemetry.Config{
		DSN:              dsn,
		Environment:      environment,
		TracesSampleRate: sampleRate,
		Debug:            debug,
	})
	if err != nil {
		log.Printf("telemetry init failed (continuing without tracing): %v", err)
		return func() {}
	}
	return shutdown
}

type engineOptions struct {
	migrate      bool
	forceReindex bool
}

// engineSetup is everything needed to build engines, plus cleanup for the
// connections it opened.
type engineSetup struct {
	factory *service.EngineFactory
	persona service.Persona
	closers []func()
}

func (s *engineSetup) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func newS3Client(ctx context.Context, cfg *config.Config) (*storage.S3Client, error) {
	client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
		Endpoint:        cfg.S3Endpoint,
		Region:          cfg.S3Region,
		AccessKeyID:     cfg.S3AccessKey,
		SecretAccessKey: cfg.S3SecretKey,
		UsePathStyle:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 client: %w", err)
	}
	return client, nil
}

func newEngineSetup(ctx context.Context, cfg *config.Config, opts engineOptions) (*engineSetup, error) {
	persona, err := service.PersonaByName(cfg.Persona)
	if err != nil {
		return nil, err
	}
	persona = persona.WithTemplate(cfg.PromptTemplate)

	setup := &engineSetup{persona: persona}

	var objects document.ObjectGetter
	if cfg.HasS3() {
		s3Client, err := newS3Client(ctx, cfg)
		if err != nil {
			return nil, err
		}
		objects = s3Client
		log.Printf("S3 document source configured (%s)", cfg.S3Endpoint)
	}

	embedder := openai.NewEmbedder(openai.EmbedderConfig{
		ClientConfig: openai.ClientConfig{
			APIKey:  cfg.EmbeddingAPIKey,
			BaseURL: cfg.EmbeddingBaseURL,
			Timeout: cfg.LLMTimeout,
		},
		Model:      cfg.EmbeddingModel,
		Dimensions: cfg.EmbeddingDimensions,
		BatchSize:  cfg.EmbeddingBatchSize,
	})

	generator := openai.NewGenerator(openai.GeneratorConfig{
		ClientConfig: openai.ClientConfig{
			APIKey:  cfg.GroqAPIKey,
			BaseURL: cfg.LLMBaseURL,
			Timeout: cfg.LLMTimeout,
		},
		Model:       cfg.LLMModel,
		Temperature: cfg.Temperature,
	})

	factoryCfg := service.EngineFactoryConfig{
		DocumentURI:  cfg.PDFPath,
		Chunking:     service.NewChunkConfig(cfg.ChunkSize, cfg.ChunkOverlap),
		Persona:      cfg.Persona,
		ForceReindex: opts.forceReindex,
	}

	if cfg.IndexBackend == config.IndexBackendPgvector {
		if opts.migrate {
			if err := database.Migrate(cfg.DatabaseURL); err != nil {
				return nil, fmt.Errorf("failed to run migrations: %w", err)
			}
		}

		pool, err := database.NewPool(ctx, database.Config{URL: cfg.DatabaseURL})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		setup.closers = append(setup.closers, pool.Close)
		log.Println("connected to database")

		factoryCfg.Segments = repository.NewSegmentRepository(pool)
	}

	setup.factory = service.NewEngineFactory(document.NewLoader(objects), embedder, generator, factoryCfg)
	return setup, nil
}

// newHistoryLogger opens and pings the history store. It never fails: a bad
// URI or an unreachable store yields a logger that reports unavailable.
func newHistoryLogger(ctx context.Context, cfg *config.Config, migrate bool) *service.HistoryLogger {
	if !cfg.HasHistory() {
		log.Println("history: no store configured, logging disabled")
		return service.NewDisabledHistoryLogger()
	}

	kind, err := repository.HistoryKind(cfg.HistoryURI)
	if err == nil && kind == repository.HistoryKindPostgres && migrate {
		if err := database.Migrate(cfg.HistoryURI); err != nil {
			log.Printf("history: migrations failed: %v", err)
		}
	}

	store, err := repository.OpenHistoryStore(ctx, cfg.HistoryURI, cfg.HistoryDatabase)
	if err != nil {
		log.Printf("history: %v", err)
	}

	logger := service.NewHistoryLogger(store)
	logger.Ping(ctx)
	return logger
}
