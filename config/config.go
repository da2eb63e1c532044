// Package config loads simplerag settings from defaults, an optional YAML
// file, a .env file and the process environment, in that order of
// increasing precedence, and builds the configured components.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/smallnest/simplerag/log"
)

// DefaultOllamaBaseURL is used for ollama providers when no server is set.
const DefaultOllamaBaseURL = "http://127.0.0.1:11434"

// Provider names.
const (
	ProviderOpenAI          = "openai"
	ProviderLangChainOpenAI = "langchain-openai"
	ProviderOllama          = "ollama"
	ProviderHash            = "hash"
)

// Cache backends.
const (
	CacheNone     = "none"
	CacheMemory   = "memory"
	CacheRedis    = "redis"
	CacheSqlite   = "sqlite"
	CachePostgres = "postgres"
)

// Config holds all configuration for the application.
type Config struct {
	LLM       LLMConfig       `yaml:"llm"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Cache     CacheConfig     `yaml:"cache"`
	LogLevel  string          `yaml:"log_level"`
}

// LLMConfig selects the answer generator.
type LLMConfig struct {
	Provider    string  `yaml:"provider"`
	Model       string  `yaml:"model"`
	APIKey      string  `yaml:"api_key"`
	BaseURL     string  `yaml:"base_url"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

// EmbeddingConfig selects the embedder.
type EmbeddingConfig struct {
	Provider          string  `yaml:"provider"`
	Model             string  `yaml:"model"`
	APIKey            string  `yaml:"api_key"`
	BaseURL           string  `yaml:"base_url"`
	Dimension         int     `yaml:"dimension"`
	BatchSize         int     `yaml:"batch_size"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

// RetrievalConfig holds chunking and search settings.
type RetrievalConfig struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
	TopK         int `yaml:"top_k"`
}

// CacheConfig selects the embedding cache backend.
type CacheConfig struct {
	Backend  string        `yaml:"backend"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	Path     string        `yaml:"path"`
	DSN      string        `yaml:"dsn"`
	Prefix   string        `yaml:"prefix"`
	TTL      time.Duration `yaml:"ttl"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:    ProviderOpenAI,
			Model:       "gpt-4o-mini",
			Temperature: 0.7,
			MaxTokens:   1024,
		},
		Embedding: EmbeddingConfig{
			Provider:  ProviderHash,
			Dimension: 384,
			BatchSize: 64,
		},
		Retrieval: RetrievalConfig{
			ChunkSize:    1000,
			ChunkOverlap: 200,
			TopK:         3,
		},
		Cache: CacheConfig{
			Backend: CacheNone,
			Path:    "embeddings.db",
		},
		LogLevel: "info",
	}
}

// Load builds the configuration. path names an optional YAML file; envFiles
// are dotenv files loaded without overriding variables already set and
// default to ".env". Missing dotenv files are ignored.
func Load(path string, envFiles ...string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.LLM.Provider, "LLM_PROVIDER")
	switch c.LLM.Provider {
	case ProviderOllama:
		setString(&c.LLM.Model, "OLLAMA_MODEL")
		setString(&c.LLM.BaseURL, "OLLAMA_BASE_URL")
		if c.LLM.BaseURL == "" {
			c.LLM.BaseURL = DefaultOllamaBaseURL
		}
	default:
		setString(&c.LLM.APIKey, "OPENAI_API_KEY")
		setString(&c.LLM.BaseURL, "OPENAI_API_BASE")
		setString(&c.LLM.Model, "OPENAI_MODEL")
	}

	setString(&c.Embedding.Provider, "EMBEDDING_PROVIDER")
	switch c.Embedding.Provider {
	case ProviderOllama:
		setString(&c.Embedding.Model, "OLLAMA_MODEL")
		setString(&c.Embedding.BaseURL, "OLLAMA_BASE_URL")
		if c.Embedding.BaseURL == "" {
			c.Embedding.BaseURL = DefaultOllamaBaseURL
		}
	case ProviderOpenAI, ProviderLangChainOpenAI:
		setString(&c.Embedding.APIKey, "OPENAI_API_KEY")
		setString(&c.Embedding.BaseURL, "OPENAI_API_BASE")
	}
	setString(&c.Embedding.Model, "EMBEDDING_MODEL")
	setString(&c.Embedding.APIKey, "EMBEDDING_API_KEY")
	setString(&c.Embedding.BaseURL, "EMBEDDING_BASE_URL")

	setString(&c.Cache.Backend, "CACHE_BACKEND")
	setString(&c.Cache.Addr, "REDIS_ADDR")
	setString(&c.Cache.DSN, "CACHE_DSN")
	setString(&c.LogLevel, "LOG_LEVEL")

	var errs []error
	if v := os.Getenv("LLM_TEMPERATURE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("LLM_TEMPERATURE: %w", err))
		}
		c.LLM.Temperature = f
	}
	if v := os.Getenv("LLM_MAX_TOKENS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("LLM_MAX_TOKENS: %w", err))
		}
		c.LLM.MaxTokens = n
	}
	if v := os.Getenv("RETRIEVAL_TOP_K"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("RETRIEVAL_TOP_K: %w", err))
		}
		c.Retrieval.TopK = n
	}
	return errors.Join(errs...)
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	switch c.LLM.Provider {
	case ProviderOpenAI, ProviderLangChainOpenAI:
		if c.LLM.APIKey == "" {
			errs = append(errs, errors.New("llm: api key is required for provider "+c.LLM.Provider))
		}
	case ProviderOllama:
		if c.LLM.Model == "" {
			errs = append(errs, errors.New("llm: model is required for ollama"))
		}
	default:
		errs = append(errs, fmt.Errorf("llm: unknown provider %q", c.LLM.Provider))
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		errs = append(errs, fmt.Errorf("llm: temperature %v out of range [0, 2]", c.LLM.Temperature))
	}
	if c.LLM.MaxTokens <= 0 {
		errs = append(errs, fmt.Errorf("llm: max tokens must be positive, got %d", c.LLM.MaxTokens))
	}

	switch c.Embedding.Provider {
	case ProviderOpenAI, ProviderLangChainOpenAI:
		if c.Embedding.APIKey == "" {
			errs = append(errs, errors.New("embedding: api key is required for provider "+c.Embedding.Provider))
		}
	case ProviderOllama:
		if c.Embedding.Model == "" {
			errs = append(errs, errors.New("embedding: model is required for ollama"))
		}
	case ProviderHash:
		if c.Embedding.Dimension <= 0 {
			errs = append(errs, fmt.Errorf("embedding: dimension must be positive, got %d", c.Embedding.Dimension))
		}
	default:
		errs = append(errs, fmt.Errorf("embedding: unknown provider %q", c.Embedding.Provider))
	}

	if c.Retrieval.ChunkSize <= 0 {
		errs = append(errs, fmt.Errorf("retrieval: chunk size must be positive, got %d", c.Retrieval.ChunkSize))
	}
	if c.Retrieval.ChunkOverlap < 0 || c.Retrieval.ChunkOverlap >= c.Retrieval.ChunkSize {
		errs = append(errs, fmt.Errorf("retrieval: chunk overlap %d must be in [0, chunk size)", c.Retrieval.ChunkOverlap))
	}
	if c.Retrieval.TopK < 1 {
		errs = append(errs, fmt.Errorf("retrieval: top k must be at least 1, got %d", c.Retrieval.TopK))
	}

	switch c.Cache.Backend {
	case "", CacheNone, CacheMemory:
	case CacheRedis:
		if c.Cache.Addr == "" {
			errs = append(errs, errors.New("cache: redis addr is required"))
		}
	case CacheSqlite:
		if c.Cache.Path == "" {
			errs = append(errs, errors.New("cache: sqlite path is required"))
		}
	case CachePostgres:
		if c.Cache.DSN == "" {
			errs = append(errs, errors.New("cache: postgres dsn is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("cache: unknown backend %q", c.Cache.Backend))
	}

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Logger returns a logger at the configured level.
func (c *Config) Logger() log.Logger {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		level = log.LogLevelInfo
	}
	return log.NewCustomLogger(os.Stderr, level)
}
