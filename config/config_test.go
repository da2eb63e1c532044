package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallnest/simplerag/cache/memory"
	"github.com/smallnest/simplerag/cache/redis"
	"github.com/smallnest/simplerag/cache/sqlite"
	"github.com/smallnest/simplerag/rag/embedder"
	"github.com/smallnest/simplerag/rag/generator"
)

var envKeys = []string{
	"LLM_PROVIDER", "OPENAI_API_KEY", "OPENAI_API_BASE", "OPENAI_MODEL",
	"OLLAMA_MODEL", "OLLAMA_BASE_URL", "EMBEDDING_PROVIDER", "EMBEDDING_MODEL",
	"EMBEDDING_API_KEY", "EMBEDDING_BASE_URL", "CACHE_BACKEND", "REDIS_ADDR",
	"CACHE_DSN", "LOG_LEVEL", "LLM_TEMPERATURE", "LLM_MAX_TOKENS", "RETRIEVAL_TOP_K",
}

// clearEnv blanks every variable Load reads; empty values are ignored.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func noEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestLoad(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		clearEnv(t)
		cfg, err := Load("", noEnvFile(t))
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
		assert.Equal(t, 3, cfg.Retrieval.TopK)
		assert.Equal(t, 1000, cfg.Retrieval.ChunkSize)
		assert.Equal(t, 200, cfg.Retrieval.ChunkOverlap)
	})

	t.Run("YAML file", func(t *testing.T) {
		clearEnv(t)
		path := filepath.Join(t.TempDir(), "config.yaml")
		yamlData := `
llm:
  provider: ollama
  model: qwen2.5
  base_url: http://localhost:11434
embedding:
  provider: hash
  dimension: 64
retrieval:
  top_k: 5
cache:
  backend: redis
  addr: localhost:6379
  ttl: 1h
log_level: debug
`
		require.NoError(t, os.WriteFile(path, []byte(yamlData), 0o644))

		cfg, err := Load(path, noEnvFile(t))
		require.NoError(t, err)
		assert.Equal(t, ProviderOllama, cfg.LLM.Provider)
		assert.Equal(t, "qwen2.5", cfg.LLM.Model)
		assert.Equal(t, 64, cfg.Embedding.Dimension)
		assert.Equal(t, 5, cfg.Retrieval.TopK)
		// unset fields keep their defaults
		assert.Equal(t, 1000, cfg.Retrieval.ChunkSize)
		assert.Equal(t, 1024, cfg.LLM.MaxTokens)
		assert.Equal(t, time.Hour, cfg.Cache.TTL)
		assert.Equal(t, "debug", cfg.LogLevel)
		assert.NoError(t, cfg.Validate())
	})

	t.Run("Missing YAML file", func(t *testing.T) {
		clearEnv(t)
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), noEnvFile(t))
		assert.ErrorContains(t, err, "failed to read config")
	})

	t.Run("Invalid YAML", func(t *testing.T) {
		clearEnv(t)
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("llm: [unclosed"), 0o644))
		_, err := Load(path, noEnvFile(t))
		assert.ErrorContains(t, err, "failed to parse config")
	})

	t.Run("Environment overrides file", func(t *testing.T) {
		clearEnv(t)
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("llm:\n  model: from-file\n"), 0o644))
		t.Setenv("OPENAI_MODEL", "from-env")
		t.Setenv("OPENAI_API_KEY", "sk-test")
		t.Setenv("EMBEDDING_PROVIDER", "openai")
		t.Setenv("RETRIEVAL_TOP_K", "7")

		cfg, err := Load(path, noEnvFile(t))
		require.NoError(t, err)
		assert.Equal(t, "from-env", cfg.LLM.Model)
		assert.Equal(t, "sk-test", cfg.LLM.APIKey)
		assert.Equal(t, "sk-test", cfg.Embedding.APIKey)
		assert.Equal(t, 7, cfg.Retrieval.TopK)
	})

	t.Run("Ollama variables", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("LLM_PROVIDER", "ollama")
		t.Setenv("OLLAMA_MODEL", "llama3")
		t.Setenv("OLLAMA_BASE_URL", "http://ollama:11434")

		cfg, err := Load("", noEnvFile(t))
		require.NoError(t, err)
		assert.Equal(t, "llama3", cfg.LLM.Model)
		assert.Equal(t, "http://ollama:11434", cfg.LLM.BaseURL)
	})

	t.Run("Ollama ignores OpenAI variables", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("LLM_PROVIDER", "ollama")
		t.Setenv("EMBEDDING_PROVIDER", "ollama")
		t.Setenv("OLLAMA_MODEL", "qwen2.5")
		t.Setenv("OPENAI_API_BASE", "https://relay.example.com/v1")
		t.Setenv("OPENAI_API_KEY", "sk-relay")
		t.Setenv("OPENAI_MODEL", "gpt-4o")

		cfg, err := Load("", noEnvFile(t))
		require.NoError(t, err)
		assert.Equal(t, "qwen2.5", cfg.LLM.Model)
		assert.Equal(t, DefaultOllamaBaseURL, cfg.LLM.BaseURL)
		assert.Empty(t, cfg.LLM.APIKey)
		assert.Equal(t, "qwen2.5", cfg.Embedding.Model)
		assert.Equal(t, DefaultOllamaBaseURL, cfg.Embedding.BaseURL)
		assert.Empty(t, cfg.Embedding.APIKey)
		assert.NoError(t, cfg.Validate())
	})

	t.Run("Ollama embedding model override", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("EMBEDDING_PROVIDER", "ollama")
		t.Setenv("OLLAMA_MODEL", "qwen2.5")
		t.Setenv("EMBEDDING_MODEL", "bge-m3")
		t.Setenv("OLLAMA_BASE_URL", "http://gpu:11434")
		t.Setenv("OPENAI_API_KEY", "sk-test")

		cfg, err := Load("", noEnvFile(t))
		require.NoError(t, err)
		assert.Equal(t, "bge-m3", cfg.Embedding.Model)
		assert.Equal(t, "http://gpu:11434", cfg.Embedding.BaseURL)
		assert.Empty(t, cfg.Embedding.APIKey)
		// the generator still talks to OpenAI
		assert.Equal(t, "sk-test", cfg.LLM.APIKey)
		assert.Empty(t, cfg.LLM.BaseURL)
	})

	t.Run("Bad number", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("LLM_MAX_TOKENS", "many")
		_, err := Load("", noEnvFile(t))
		assert.ErrorContains(t, err, "LLM_MAX_TOKENS")
	})

	t.Run("Dotenv file", func(t *testing.T) {
		clearEnv(t)
		// godotenv does not override variables that exist, even empty ones
		require.NoError(t, os.Unsetenv("EMBEDDING_MODEL"))

		envFile := filepath.Join(t.TempDir(), ".env")
		require.NoError(t, os.WriteFile(envFile, []byte("EMBEDDING_MODEL=bge-m3\n"), 0o644))

		cfg, err := Load("", envFile)
		require.NoError(t, err)
		assert.Equal(t, "bge-m3", cfg.Embedding.Model)
	})
}

func TestValidate(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		cfg := Default()
		cfg.LLM.APIKey = "sk-test"
		assert.NoError(t, cfg.Validate())
	})

	t.Run("Collects every error", func(t *testing.T) {
		cfg := Default()
		cfg.LLM.Provider = "unknown"
		cfg.Embedding.Dimension = 0
		cfg.Retrieval.TopK = 0
		cfg.Retrieval.ChunkOverlap = 1000
		cfg.Cache.Backend = CachePostgres
		cfg.LogLevel = "loud"

		err := cfg.Validate()
		require.Error(t, err)
		for _, want := range []string{
			`unknown provider "unknown"`,
			"dimension must be positive",
			"top k must be at least 1",
			"chunk overlap",
			"postgres dsn is required",
			"unknown log level",
		} {
			assert.ErrorContains(t, err, want)
		}
	})

	t.Run("API key required", func(t *testing.T) {
		cfg := Default()
		err := cfg.Validate()
		assert.ErrorContains(t, err, "api key is required")
	})
}

func TestFactories(t *testing.T) {
	ctx := context.Background()

	t.Run("Generator", func(t *testing.T) {
		cfg := Default()
		cfg.LLM.APIKey = "sk-test"
		gen, err := NewGenerator(cfg)
		require.NoError(t, err)
		assert.IsType(t, &generator.OpenAIGenerator{}, gen)

		cfg.LLM.Provider = ProviderOllama
		cfg.LLM.Model = "llama3"
		gen, err = NewGenerator(cfg)
		require.NoError(t, err)
		assert.IsType(t, &generator.LangChainGenerator{}, gen)

		cfg.LLM.Provider = "nope"
		_, err = NewGenerator(cfg)
		assert.Error(t, err)
	})

	t.Run("Hash embedder", func(t *testing.T) {
		cfg := Default()
		cfg.Embedding.Dimension = 32
		emb, err := NewEmbedder(cfg, nil)
		require.NoError(t, err)
		assert.IsType(t, &embedder.HashEmbedder{}, emb)
		assert.Equal(t, 32, emb.GetDimension())
	})

	t.Run("Wrapped embedder", func(t *testing.T) {
		cfg := Default()
		cfg.Embedding.Dimension = 16
		cfg.Embedding.RequestsPerSecond = 100
		store := memory.NewMemoryCache()

		emb, err := NewEmbedder(cfg, store)
		require.NoError(t, err)
		assert.IsType(t, &embedder.CachedEmbedder{}, emb)

		vec, err := emb.EmbedDocument(ctx, "黑神话")
		require.NoError(t, err)
		assert.Len(t, vec, 16)
		assert.Equal(t, 1, store.Len())
	})

	t.Run("Cache stores", func(t *testing.T) {
		cfg := Default()
		store, err := NewCacheStore(ctx, cfg)
		require.NoError(t, err)
		assert.Nil(t, store)

		cfg.Cache.Backend = CacheMemory
		store, err = NewCacheStore(ctx, cfg)
		require.NoError(t, err)
		assert.IsType(t, &memory.MemoryCache{}, store)

		mr := miniredis.RunT(t)
		cfg.Cache.Backend = CacheRedis
		cfg.Cache.Addr = mr.Addr()
		store, err = NewCacheStore(ctx, cfg)
		require.NoError(t, err)
		assert.IsType(t, &redis.RedisCache{}, store)
		require.NoError(t, store.Set(ctx, "k", []float32{1, 2}))
		got, ok, err := store.Get(ctx, "k")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, []float32{1, 2}, got)
		require.NoError(t, store.Close())

		cfg.Cache.Backend = CacheSqlite
		cfg.Cache.Path = filepath.Join(t.TempDir(), "cache.db")
		store, err = NewCacheStore(ctx, cfg)
		require.NoError(t, err)
		assert.IsType(t, &sqlite.SqliteCache{}, store)
		require.NoError(t, store.Close())

		cfg.Cache.Backend = "etcd"
		_, err = NewCacheStore(ctx, cfg)
		assert.Error(t, err)
	})

	t.Run("Engine", func(t *testing.T) {
		cfg := Default()
		cfg.LLM.APIKey = "sk-test"
		cfg.Cache.Backend = CacheMemory
		cfg.LogLevel = "none"

		e, closeFn, err := NewEngine(ctx, cfg)
		require.NoError(t, err)
		require.NotNil(t, e)
		assert.NoError(t, closeFn())

		cfg.LLM.APIKey = ""
		_, _, err = NewEngine(ctx, cfg)
		assert.ErrorContains(t, err, "invalid config")
	})
}
