package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/upb/room-qa/config"
	"github.com/upb/room-qa/internal/observability"
	"github.com/upb/room-qa/internal/rag"
	"github.com/upb/room-qa/repositories"
	"github.com/upb/room-qa/repositories/memory"
	"github.com/upb/room-qa/repositories/postgres"
	"github.com/upb/room-qa/services/providers"
	"github.com/upb/room-qa/services/providers/gemini"
	"github.com/upb/room-qa/services/providers/openai"
	"github.com/upb/room-qa/services/question"
	"go.uber.org/zap"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	Logger *zap.Logger
	DB     *postgres.DB // nil with the memory store backend
	Redis  redis.UniversalClient

	// Repository Factory
	RepoFactory *postgres.RepositoryFactory

	// Repositories
	Questions repositories.QuestionRepository
	Store     rag.SimilarityStore

	// Providers
	ProviderRegistry *providers.Registry
	Embedder         rag.Embedder
	Synthesizer      rag.AnswerSynthesizer

	// Metrics
	MetricsRegistry *prometheus.Registry
	Metrics         observability.Metrics

	// Services
	QuestionService *question.Service
}

// NewDependencies creates and wires up all application dependencies
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	deps.initMetrics()

	if err := deps.initStore(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := deps.initProviders(ctx); err != nil {
		_ = deps.Close(ctx)
		return nil, fmt.Errorf("failed to initialize providers: %w", err)
	}

	if err := deps.seedMemoryStore(ctx); err != nil {
		_ = deps.Close(ctx)
		return nil, fmt.Errorf("failed to seed memory store: %w", err)
	}

	deps.initServices()

	logger.Info("all dependencies initialized successfully",
		zap.String("store", cfg.StoreBackend),
		zap.String("embedding_provider", cfg.Providers.Embedding),
		zap.String("generation_provider", cfg.Providers.Generation))
	return deps, nil
}

func (d *Dependencies) initMetrics() {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	d.MetricsRegistry = reg

	if d.Config.Observability.MetricsEnabled {
		d.Metrics = observability.NewPrometheusMetrics(reg)
	} else {
		d.Metrics = observability.NopMetrics{}
	}
}

// initStore opens PostgreSQL or sets up the in-memory store
func (d *Dependencies) initStore(ctx context.Context) error {
	if d.Config.StoreBackend == config.StoreMemory {
		d.Questions = memory.NewQuestionRepository()
		d.Store = rag.NewMemoryStore(d.Config.Embedding.Dimension)
		d.Logger.Warn("using in-memory store, data is lost on restart",
			zap.Bool("seeded", d.Config.SeedFile != ""))
		return nil
	}

	factory, err := postgres.NewRepositoryFactory(ctx, d.Config, d.Logger)
	if err != nil {
		return fmt.Errorf("failed to create repository factory: %w", err)
	}
	d.RepoFactory = factory
	d.DB = factory.GetDB()

	repos := factory.NewRepositories()
	d.Questions = repos.Questions
	d.Store = repos.Transcripts

	d.Logger.Info("database connection established",
		zap.String("connection", d.Config.Database.LogString()),
		zap.String("driver", d.Config.Database.Driver))
	return nil
}

// seedMemoryStore loads the MEMORY_SEED_FILE fixture so local runs have
// transcript context to retrieve. Without it the memory store stays empty.
func (d *Dependencies) seedMemoryStore(ctx context.Context) error {
	store, ok := d.Store.(*rag.MemoryStore)
	if !ok || d.Config.SeedFile == "" {
		return nil
	}

	f, err := os.Open(d.Config.SeedFile)
	if err != nil {
		return err
	}
	defer f.Close()

	n, err := store.Seed(ctx, d.Embedder, f)
	if err != nil {
		return err
	}
	d.Logger.Info("memory store seeded",
		zap.String("file", d.Config.SeedFile),
		zap.Int("fragments", n))
	return nil
}

// initProviders registers every provider with credentials and selects the configured ones
func (d *Dependencies) initProviders(ctx context.Context) error {
	cfg := d.Config
	registry := providers.NewRegistry()

	if cfg.Providers.Gemini.APIKey != "" {
		client, err := gemini.NewClient(ctx, gemini.Config{
			APIKey:  cfg.Providers.Gemini.APIKey,
			BaseURL: cfg.Providers.Gemini.BaseURL,
		})
		if err != nil {
			return err
		}
		if err := registry.RegisterGenerator(gemini.NewGenerator(client, cfg.Providers.Gemini.GenerationModel)); err != nil {
			return err
		}
		embedder := gemini.NewEmbedder(client, cfg.Providers.Gemini.EmbeddingModel, cfg.Embedding.TaskType, cfg.Embedding.Dimension)
		if err := registry.RegisterEmbedder(embedder); err != nil {
			return err
		}
		d.Logger.Info("registered gemini provider")
	}

	if cfg.Providers.OpenAI.APIKey != "" {
		client, err := openai.NewClient(openai.Config{
			APIKey:     cfg.Providers.OpenAI.APIKey,
			BaseURL:    cfg.Providers.OpenAI.BaseURL,
			MaxRetries: cfg.Providers.OpenAI.MaxRetries,
		})
		if err != nil {
			return err
		}
		if err := registry.RegisterGenerator(openai.NewGenerator(client, cfg.Providers.OpenAI.GenerationModel)); err != nil {
			return err
		}
		if err := registry.RegisterEmbedder(openai.NewEmbedder(client, cfg.Providers.OpenAI.EmbeddingModel, cfg.Embedding.Dimension)); err != nil {
			return err
		}
		d.Logger.Info("registered openai provider")
	}
	d.ProviderRegistry = registry

	generator, err := d.generationChain(registry)
	if err != nil {
		return err
	}
	embeddingProvider, err := registry.Embedder(cfg.Providers.Embedding)
	if err != nil {
		return fmt.Errorf("embedding provider %q: %w", cfg.Providers.Embedding, err)
	}

	if cfg.Cache.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.Cache.RedisURL)
		if err != nil {
			return fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		d.Redis = redis.NewClient(opts)
		if err := d.Redis.Ping(ctx).Err(); err != nil {
			// the cache degrades to pass-through, so a cold redis is not fatal
			d.Logger.Warn("embedding cache unreachable", zap.Error(err))
		}
		embeddingProvider = rag.NewCachedEmbedder(embeddingProvider, d.Redis, d.Logger,
			rag.WithCacheTTL(cfg.Cache.TTL),
			rag.WithCachePrefix(cfg.Cache.Prefix),
			rag.WithCacheDimension(cfg.Embedding.Dimension),
			rag.WithCacheTaskType(cfg.Embedding.TaskType),
			rag.WithCacheRecorder(d.Metrics))
		d.Logger.Info("embedding cache enabled", zap.Duration("ttl", cfg.Cache.TTL))
	}

	d.Embedder = rag.NewValidatingEmbedder(embeddingProvider, cfg.Embedding.Dimension)

	// no model override, each generator uses the model it was registered with
	d.Synthesizer = rag.NewSynthesizer(generator, rag.SynthesizerConfig{
		Language: cfg.Pipeline.AnswerLanguage,
	}, d.Logger)

	return nil
}

// generationChain resolves the primary and fallback generators, each behind its own breaker
func (d *Dependencies) generationChain(registry *providers.Registry) (providers.GenerationProvider, error) {
	cfg := d.Config

	names := []string{cfg.Providers.Generation}
	if cfg.Providers.GenerationFallback != "" {
		names = append(names, cfg.Providers.GenerationFallback)
	}

	chain := make([]providers.GenerationProvider, 0, len(names))
	for _, name := range names {
		generator, err := registry.Generator(name)
		if err != nil {
			return nil, fmt.Errorf("generation provider %q: %w", name, err)
		}
		if cfg.Resilience.BreakerEnabled {
			generator = providers.NewBreakerGenerator(generator, providers.BreakerConfig{
				MaxRequests:  cfg.Resilience.BreakerMaxRequests,
				Interval:     cfg.Resilience.BreakerInterval,
				Timeout:      cfg.Resilience.BreakerTimeout,
				MinRequests:  cfg.Resilience.BreakerMinRequests,
				FailureRatio: cfg.Resilience.BreakerFailRatio,
			}, d.Logger)
		}
		chain = append(chain, generator)
	}

	if len(chain) == 1 {
		return chain[0], nil
	}
	d.Logger.Info("generation fallback enabled",
		zap.String("primary", names[0]),
		zap.String("fallback", names[1]))
	return providers.NewFallbackGenerator(d.Logger, chain[0], chain[1:]...), nil
}

func (d *Dependencies) initServices() {
	cfg := d.Config

	var counter rag.TokenCounter
	if cfg.Retrieval.MaxContextTokens > 0 {
		tc, err := rag.NewTiktokenCounter()
		if err != nil {
			d.Logger.Warn("token counter unavailable, context budget disabled", zap.Error(err))
		} else {
			counter = tc
		}
	}

	d.QuestionService = question.NewService(d.Embedder, d.Store, d.Synthesizer, d.Questions,
		question.WithLogger(d.Logger),
		question.WithMetrics(d.Metrics),
		question.WithAssembler(rag.NewAssembler(counter, cfg.Retrieval.MaxContextTokens)),
		question.WithRetrievalOptions(rag.RetrievalOptions{
			MinScore: cfg.Retrieval.MinScore,
			Limit:    cfg.Retrieval.Limit,
		}),
		question.WithTimeouts(question.Timeouts{
			Embedding:   cfg.Pipeline.EmbeddingTimeout,
			Retrieval:   cfg.Pipeline.RetrievalTimeout,
			Generation:  cfg.Pipeline.GenerationTimeout,
			Persistence: cfg.Pipeline.PersistenceTimeout,
		}),
	)
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close redis: %w", err))
		}
	}

	if d.RepoFactory != nil {
		if err := d.RepoFactory.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
	}

	_ = d.Logger.Sync()

	return errors.Join(errs...)
}
