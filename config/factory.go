package config

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/smallnest/simplerag/cache"
	"github.com/smallnest/simplerag/cache/memory"
	"github.com/smallnest/simplerag/cache/postgres"
	"github.com/smallnest/simplerag/cache/redis"
	"github.com/smallnest/simplerag/cache/sqlite"
	"github.com/smallnest/simplerag/rag"
	"github.com/smallnest/simplerag/rag/embedder"
	"github.com/smallnest/simplerag/rag/engine"
	"github.com/smallnest/simplerag/rag/generator"
	"github.com/smallnest/simplerag/rag/splitter"
)

// NewGenerator creates the configured answer generator.
func NewGenerator(cfg *Config) (rag.Generator, error) {
	c := cfg.LLM
	switch c.Provider {
	case ProviderOpenAI:
		return generator.NewOpenAIGenerator(generator.OpenAIOptions{
			APIKey:      c.APIKey,
			BaseURL:     c.BaseURL,
			Model:       c.Model,
			Temperature: float32(c.Temperature),
			MaxTokens:   c.MaxTokens,
		}), nil
	case ProviderLangChainOpenAI:
		model, err := generator.NewOpenAIModel(c.APIKey, c.BaseURL, c.Model)
		if err != nil {
			return nil, fmt.Errorf("failed to create openai model: %w", err)
		}
		return generator.NewLangChainGenerator(model, callOptions(c)...), nil
	case ProviderOllama:
		model, err := generator.NewOllamaModel(c.BaseURL, c.Model)
		if err != nil {
			return nil, fmt.Errorf("failed to create ollama model: %w", err)
		}
		return generator.NewLangChainGenerator(model, callOptions(c)...), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", c.Provider)
	}
}

func callOptions(c LLMConfig) []llms.CallOption {
	opts := []llms.CallOption{llms.WithTemperature(c.Temperature)}
	if c.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(c.MaxTokens))
	}
	return opts
}

// NewEmbedder creates the configured embedder. It is rate limited when
// RequestsPerSecond is set and cached when store is not nil.
func NewEmbedder(cfg *Config, store cache.Store) (rag.Embedder, error) {
	c := cfg.Embedding

	var (
		base rag.Embedder
		err  error
	)
	switch c.Provider {
	case ProviderOpenAI:
		base = embedder.NewOpenAIEmbedder(embedder.OpenAIOptions{
			APIKey:    c.APIKey,
			BaseURL:   c.BaseURL,
			Model:     c.Model,
			Dimension: c.Dimension,
			BatchSize: c.BatchSize,
		})
	case ProviderLangChainOpenAI:
		base, err = newLangChainOpenAIEmbedder(c)
	case ProviderOllama:
		base, err = newOllamaEmbedder(c)
	case ProviderHash:
		base = embedder.NewHashEmbedder(c.Dimension)
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", c.Provider)
	}
	if err != nil {
		return nil, err
	}

	if c.RequestsPerSecond > 0 {
		base = embedder.NewRateLimitedEmbedder(base, c.RequestsPerSecond, 1)
	}
	if store != nil {
		base = embedder.NewCachedEmbedder(base, store, cacheNamespace(c))
	}
	return base, nil
}

// cacheNamespace keeps vectors of different models apart in a shared cache.
func cacheNamespace(c EmbeddingConfig) string {
	return fmt.Sprintf("%s:%s:%d", c.Provider, c.Model, c.Dimension)
}

func newLangChainOpenAIEmbedder(c EmbeddingConfig) (rag.Embedder, error) {
	var opts []openai.Option
	if c.APIKey != "" {
		opts = append(opts, openai.WithToken(c.APIKey))
	}
	if c.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(c.BaseURL))
	}
	if c.Model != "" {
		opts = append(opts, openai.WithEmbeddingModel(c.Model))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create openai client: %w", err)
	}
	e, err := embeddings.NewEmbedder(llm, embeddings.WithBatchSize(batchSize(c)))
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	return embedder.NewLangChainEmbedder(e), nil
}

func newOllamaEmbedder(c EmbeddingConfig) (rag.Embedder, error) {
	opts := []ollama.Option{ollama.WithModel(c.Model)}
	if c.BaseURL != "" {
		opts = append(opts, ollama.WithServerURL(c.BaseURL))
	}
	llm, err := ollama.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create ollama client: %w", err)
	}
	e, err := embeddings.NewEmbedder(llm, embeddings.WithBatchSize(batchSize(c)))
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	return embedder.NewLangChainEmbedder(e), nil
}

func batchSize(c EmbeddingConfig) int {
	if c.BatchSize > 0 {
		return c.BatchSize
	}
	return 64
}

// NewCacheStore opens the configured embedding cache. It returns a nil
// store for the "none" backend.
func NewCacheStore(ctx context.Context, cfg *Config) (cache.Store, error) {
	c := cfg.Cache
	switch c.Backend {
	case "", CacheNone:
		return nil, nil
	case CacheMemory:
		return memory.NewMemoryCache(), nil
	case CacheRedis:
		return redis.NewRedisCache(redis.RedisOptions{
			Addr:     c.Addr,
			Password: c.Password,
			Prefix:   c.Prefix,
			TTL:      c.TTL,
		}), nil
	case CacheSqlite:
		store, err := sqlite.NewSqliteCache(sqlite.SqliteOptions{Path: c.Path})
		if err != nil {
			return nil, err
		}
		return store, nil
	case CachePostgres:
		store, err := postgres.NewPostgresCache(ctx, postgres.PostgresOptions{ConnString: c.DSN})
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", c.Backend)
	}
}

// NewSplitter returns a recursive character splitter using the retrieval
// chunk settings.
func NewSplitter(cfg *Config) *splitter.RecursiveCharacterTextSplitter {
	return splitter.NewRecursiveCharacterTextSplitter(
		splitter.WithChunkSize(cfg.Retrieval.ChunkSize),
		splitter.WithChunkOverlap(cfg.Retrieval.ChunkOverlap),
	)
}

// NewEngine wires a VectorEngine from cfg. The returned close function
// releases the embedding cache and must be called when the engine is no
// longer used.
func NewEngine(ctx context.Context, cfg *Config) (*engine.VectorEngine, func() error, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}

	store, err := NewCacheStore(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open cache: %w", err)
	}
	closeFn := func() error {
		if store == nil {
			return nil
		}
		return store.Close()
	}

	emb, err := NewEmbedder(cfg, store)
	if err != nil {
		_ = closeFn()
		return nil, nil, err
	}
	gen, err := NewGenerator(cfg)
	if err != nil {
		_ = closeFn()
		return nil, nil, err
	}

	logger := cfg.Logger()
	pipeline := rag.DefaultPipelineConfig()
	pipeline.TopK = cfg.Retrieval.TopK
	pipeline.Logger = logger

	e, err := engine.NewVectorEngine(engine.Config{
		Embedder:  emb,
		Generator: gen,
		Splitter:  NewSplitter(cfg),
		Pipeline:  pipeline,
		Retrieval: rag.RetrievalConfig{K: cfg.Retrieval.TopK},
		Logger:    logger,
	})
	if err != nil {
		_ = closeFn()
		return nil, nil, err
	}
	return e, closeFn, nil
}
