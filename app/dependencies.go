package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/upb/rag-chat/config"
	"github.com/upb/rag-chat/internal/observability"
	"github.com/upb/rag-chat/internal/rag"
	"github.com/upb/rag-chat/repositories"
	"github.com/upb/rag-chat/repositories/bolt"
	"github.com/upb/rag-chat/repositories/memory"
	"github.com/upb/rag-chat/repositories/postgres"
	"github.com/upb/rag-chat/repositories/qdrant"
	"github.com/upb/rag-chat/services/chat"
	"github.com/upb/rag-chat/services/providers"
	"github.com/upb/rag-chat/services/providers/gemini"
	"github.com/upb/rag-chat/services/providers/openai"
	"go.uber.org/zap"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config  *config.Config
	Logger  *zap.Logger
	DB      *postgres.DB
	Tracing *observability.TracerProvider

	// Vector index selected by VECTOR_STORE
	Index repositories.VectorIndex

	// Providers
	Providers           *providers.Registry
	Generator           providers.Generator
	Embedder            providers.Embedder
	GeneratorConfigured bool

	// Pipeline
	Retriever   rag.Retriever
	Prompts     *rag.PromptBuilder
	ChatService *chat.Service
}

// NewDependencies creates and wires up all application dependencies.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initTracing(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	if err := deps.initIndex(ctx, cfg); err != nil {
		_ = deps.Close(ctx)
		return nil, fmt.Errorf("failed to initialize vector index: %w", err)
	}

	if err := deps.initProviders(cfg); err != nil {
		_ = deps.Close(ctx)
		return nil, fmt.Errorf("failed to initialize providers: %w", err)
	}

	deps.initPipeline(cfg)

	logger.Info("all dependencies initialized successfully",
		zap.String("vector_store", cfg.VectorStore.Backend),
		zap.String("generator", deps.Generator.Name()),
		zap.String("embedder", deps.Embedder.Name()))
	return deps, nil
}

// initTracing installs the OTLP exporter when tracing is enabled
func (d *Dependencies) initTracing(ctx context.Context, cfg *config.Config) error {
	tracingCfg := observability.DefaultTracingConfig()
	tracingCfg.Environment = cfg.Environment
	tracingCfg.SampleRate = cfg.Observability.TracingSampleRate
	if cfg.Observability.TracingEnabled {
		tracingCfg.OTLPEndpoint = cfg.Observability.TracingEndpoint
	}

	tp, err := observability.InitTracing(ctx, tracingCfg)
	if err != nil {
		return err
	}
	d.Tracing = tp

	if tp.Enabled() {
		d.Logger.Info("tracing enabled", zap.String("endpoint", tracingCfg.OTLPEndpoint))
	}
	return nil
}

// initIndex opens the vector index selected by VECTOR_STORE
func (d *Dependencies) initIndex(ctx context.Context, cfg *config.Config) error {
	collection := cfg.VectorStore.CollectionName

	switch cfg.VectorStore.Backend {
	case config.VectorStoreBolt:
		index, err := bolt.Open(cfg.VectorStore.BoltPath(), collection, d.Logger)
		if err != nil {
			return err
		}
		d.Index = index

	case config.VectorStoreMemory:
		d.Index = memory.NewVectorRepository()
		d.Logger.Warn("using in-memory vector index, documents are lost on restart")

	case config.VectorStorePostgres:
		db, err := postgres.NewDB(ctx, cfg.Database, d.Logger)
		if err != nil {
			return err
		}
		d.DB = db
		d.Index = postgres.NewVectorRepository(db, collection, d.Logger)

	case config.VectorStoreQdrant:
		index, err := qdrant.Dial(cfg.Qdrant.Address(), collection, d.Logger)
		if err != nil {
			return err
		}
		d.Index = index

	default:
		return fmt.Errorf("unknown vector store %q", cfg.VectorStore.Backend)
	}

	d.Logger.Info("vector index ready",
		zap.String("backend", cfg.VectorStore.Backend),
		zap.String("collection", collection))
	return nil
}

// initProviders registers the generators that have credentials and the
// configured embedder, then selects the active pair
func (d *Dependencies) initProviders(cfg *config.Config) error {
	registry := providers.NewRegistry()

	if cfg.Providers.Gemini.APIKey != "" {
		if err := registry.RegisterGenerator(gemini.NewGeminiAdapter(providers.ProviderConfig{
			APIKey:  cfg.Providers.Gemini.APIKey,
			BaseURL: cfg.Providers.Gemini.BaseURL,
			Model:   cfg.Providers.Gemini.Model,
			Timeout: cfg.Providers.Timeout,
		}, cfg.Embedding.Model)); err != nil {
			return err
		}
		d.Logger.Info("registered Gemini generator", zap.String("model", cfg.Providers.Gemini.Model))
	}

	if cfg.Providers.OpenAI.APIKey != "" {
		if err := registry.RegisterGenerator(openai.NewOpenAIAdapter(providers.ProviderConfig{
			APIKey:  cfg.Providers.OpenAI.APIKey,
			BaseURL: cfg.Providers.OpenAI.BaseURL,
			Model:   cfg.Providers.OpenAI.Model,
			Timeout: cfg.Providers.Timeout,
		}, cfg.Embedding.Model)); err != nil {
			return err
		}
		d.Logger.Info("registered OpenAI generator", zap.String("model", cfg.Providers.OpenAI.Model))
	}

	embedder, err := NewEmbedder(cfg)
	if err != nil {
		return err
	}
	if err := registry.RegisterEmbedder(embedder); err != nil {
		return err
	}

	generator, err := registry.Generator(cfg.Providers.Generator)
	switch {
	case err == nil:
		d.GeneratorConfigured = true
	case errors.Is(err, providers.ErrProviderNotFound):
		if cfg.IsProduction() {
			return fmt.Errorf("generator %q has no API key", cfg.Providers.Generator)
		}
		d.Logger.Warn("generator API key not configured, answers will fall back",
			zap.String("generator", cfg.Providers.Generator))
		generator = providers.UnconfiguredGenerator{Provider: cfg.Providers.Generator}
	default:
		return err
	}

	d.Logger.Info("providers registered",
		zap.Strings("generators", registry.ListGenerators()),
		zap.Strings("embedders", registry.ListEmbedders()))

	d.Providers = registry
	d.Generator = generator
	d.Embedder = embedder
	return nil
}

// initPipeline builds retrieval, prompting and the chat service
func (d *Dependencies) initPipeline(cfg *config.Config) {
	d.Retriever = rag.NewVectorRetriever(d.Embedder, d.Index, rag.RetrievalOptions{
		TopK:     cfg.RAG.TopK,
		MinScore: cfg.RAG.MinScore,
	}, d.Logger)
	d.Prompts = rag.NewPromptBuilder(cfg.RAG.MaxDocChars)

	d.ChatService = chat.NewService(d.Retriever, d.Prompts, d.Generator, chat.Config{
		GenerationDelay: cfg.RAG.GenerationDelay,
		Generation: providers.GenerationConfig{
			Temperature:     cfg.Generation.Temperature,
			TopP:            cfg.Generation.TopP,
			TopK:            cfg.Generation.TopK,
			MaxOutputTokens: cfg.Generation.MaxOutputTokens,
		},
	}, d.Logger)
}

// NewEmbedder builds the query embedder selected by EMBED_PROVIDER
func NewEmbedder(cfg *config.Config) (providers.Embedder, error) {
	providerCfg := providers.ProviderConfig{
		APIKey:  cfg.EmbeddingAPIKey(),
		BaseURL: cfg.EmbeddingBaseURL(),
		Timeout: cfg.Providers.Timeout,
	}

	switch cfg.Embedding.Provider {
	case config.ProviderGemini:
		providerCfg.Model = cfg.Providers.Gemini.Model
		return gemini.NewGeminiAdapter(providerCfg, cfg.Embedding.Model), nil
	case config.ProviderOpenAI:
		providerCfg.Model = cfg.Providers.OpenAI.Model
		return openai.NewOpenAIAdapter(providerCfg, cfg.Embedding.Model), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Embedding.Provider)
	}
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	// The postgres index owns DB, so closing the index releases the pool
	if d.Index != nil {
		if err := d.Index.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close vector index: %w", err))
		}
		d.Index = nil
		d.DB = nil
	}

	if d.Tracing != nil {
		if err := d.Tracing.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to flush traces: %w", err))
		}
		d.Tracing = nil
	}

	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %w", errors.Join(errs...))
	}

	return nil
}
