package config

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Provider names accepted by GENERATION_PROVIDER and EMBEDDING_PROVIDER.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Store backends accepted by STORE_BACKEND.
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// PgvectorDimension is the width of the audio_chunks.embeddings column
// created by the bundled migrations.
const PgvectorDimension = 768

// Config represents the complete application configuration
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	StoreBackend  string
	SeedFile      string // JSON fixture loaded into the memory store at startup
	Providers     ProvidersConfig
	Embedding     EmbeddingConfig
	Retrieval     RetrievalConfig
	Pipeline      PipelineConfig
	Cache         CacheConfig
	Resilience    ResilienceConfig
	Observability ObservabilityConfig
	Environment   string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	RequestTimeout  time.Duration
	AllowedOrigins  []string
}

// DatabaseConfig holds PostgreSQL database configuration.
// When ConnectionString (from DATABASE_URL) is set, it takes precedence over individual fields.
type DatabaseConfig struct {
	ConnectionString string
	Driver           string // "postgres" (lib/pq) or "pgx"
	Host             string
	Port             int
	User             string
	Password         string
	Database         string
	SSLMode          string
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetime  time.Duration
	ConnectTimeout   time.Duration
}

// ProvidersConfig selects the embedding and generation backends
type ProvidersConfig struct {
	Generation string
	// GenerationFallback is tried when Generation is unavailable; empty disables it
	GenerationFallback string
	Embedding          string
	Gemini             GeminiConfig
	OpenAI             OpenAIConfig
}

// GeminiConfig holds Google Gemini configuration
type GeminiConfig struct {
	APIKey          string
	BaseURL         string
	GenerationModel string
	EmbeddingModel  string
}

// OpenAIConfig holds OpenAI provider configuration
type OpenAIConfig struct {
	APIKey          string
	BaseURL         string
	GenerationModel string
	EmbeddingModel  string
	MaxRetries      int
}

// EmbeddingConfig describes the vectors stored alongside transcript fragments
type EmbeddingConfig struct {
	Dimension int
	TaskType  string
}

// RetrievalConfig is the similarity policy applied when looking up context
type RetrievalConfig struct {
	MinScore         float64
	Limit            int
	MaxContextTokens int
}

// PipelineConfig bounds each external call made while answering a question
type PipelineConfig struct {
	EmbeddingTimeout   time.Duration
	RetrievalTimeout   time.Duration
	GenerationTimeout  time.Duration
	PersistenceTimeout time.Duration
	AnswerLanguage     string
}

// CacheConfig configures the optional Redis embedding cache.
// The cache is disabled when RedisURL is empty.
type CacheConfig struct {
	RedisURL string
	TTL      time.Duration
	Prefix   string
}

// ResilienceConfig configures the circuit breaker around the generation provider
type ResilienceConfig struct {
	BreakerEnabled     bool
	BreakerMaxRequests uint32
	BreakerInterval    time.Duration
	BreakerTimeout     time.Duration
	BreakerMinRequests uint32
	BreakerFailRatio   float64
}

// ObservabilityConfig holds monitoring and logging configuration
type ObservabilityConfig struct {
	LogLevel       string
	LogFormat      string // json or console
	MetricsEnabled bool
	MetricsPath    string
}

// New creates a new Config instance by loading environment variables
func New(ctx context.Context) (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getPort(),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 90*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			RequestTimeout:  getEnvAsDuration("SERVER_REQUEST_TIMEOUT", 60*time.Second),
			AllowedOrigins:  getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:*", "https://*"}),
		},
		Database:     loadDatabaseConfig(),
		StoreBackend: getEnv("STORE_BACKEND", StorePostgres),
		SeedFile:     getEnv("MEMORY_SEED_FILE", ""),
		Providers: ProvidersConfig{
			Generation:         getEnv("GENERATION_PROVIDER", ProviderGemini),
			GenerationFallback: getEnv("GENERATION_FALLBACK_PROVIDER", ""),
			Embedding:          getEnv("EMBEDDING_PROVIDER", ProviderGemini),
			Gemini: GeminiConfig{
				APIKey:          getEnv("GEMINI_API_KEY", ""),
				BaseURL:         getEnv("GEMINI_BASE_URL", ""),
				GenerationModel: getEnv("GEMINI_GENERATION_MODEL", "gemini-2.5-flash"),
				EmbeddingModel:  getEnv("GEMINI_EMBEDDING_MODEL", "text-embedding-004"),
			},
			OpenAI: OpenAIConfig{
				APIKey:          getEnv("OPENAI_API_KEY", ""),
				BaseURL:         getEnv("OPENAI_BASE_URL", ""),
				GenerationModel: getEnv("OPENAI_GENERATION_MODEL", "gpt-4o-mini"),
				EmbeddingModel:  getEnv("OPENAI_EMBEDDING_MODEL", "text-embedding-3-small"),
				MaxRetries:      getEnvAsInt("OPENAI_MAX_RETRIES", 2),
			},
		},
		Embedding: EmbeddingConfig{
			Dimension: getEnvAsInt("EMBEDDING_DIMENSION", PgvectorDimension),
			TaskType:  getEnv("EMBEDDING_TASK_TYPE", "RETRIEVAL_DOCUMENT"),
		},
		Retrieval: RetrievalConfig{
			MinScore:         getEnvAsFloat("RETRIEVAL_MIN_SCORE", 0.7),
			Limit:            getEnvAsInt("RETRIEVAL_LIMIT", 3),
			MaxContextTokens: getEnvAsInt("CONTEXT_MAX_TOKENS", 0),
		},
		Pipeline: PipelineConfig{
			EmbeddingTimeout:   getEnvAsDuration("EMBEDDING_TIMEOUT", 15*time.Second),
			RetrievalTimeout:   getEnvAsDuration("RETRIEVAL_TIMEOUT", 5*time.Second),
			GenerationTimeout:  getEnvAsDuration("GENERATION_TIMEOUT", 45*time.Second),
			PersistenceTimeout: getEnvAsDuration("PERSISTENCE_TIMEOUT", 5*time.Second),
			AnswerLanguage:     getEnv("ANSWER_LANGUAGE", "português do Brasil"),
		},
		Cache: CacheConfig{
			RedisURL: getEnv("REDIS_URL", ""),
			TTL:      getEnvAsDuration("EMBEDDING_CACHE_TTL", 24*time.Hour),
			Prefix:   getEnv("EMBEDDING_CACHE_PREFIX", "room-qa:embedding:"),
		},
		Resilience: ResilienceConfig{
			BreakerEnabled:     getEnvAsBool("GENERATION_BREAKER_ENABLED", true),
			BreakerMaxRequests: uint32(getEnvAsInt("GENERATION_BREAKER_MAX_REQUESTS", 1)),
			BreakerInterval:    getEnvAsDuration("GENERATION_BREAKER_INTERVAL", 30*time.Second),
			BreakerTimeout:     getEnvAsDuration("GENERATION_BREAKER_TIMEOUT", 60*time.Second),
			BreakerMinRequests: uint32(getEnvAsInt("GENERATION_BREAKER_MIN_REQUESTS", 5)),
			BreakerFailRatio:   getEnvAsFloat("GENERATION_BREAKER_FAILURE_RATIO", 0.5),
		},
		Observability: ObservabilityConfig{
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			LogFormat:      getEnv("LOG_FORMAT", "json"),
			MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
			MetricsPath:    getEnv("METRICS_PATH", "/metrics"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if all required configuration fields are set
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case StorePostgres:
		if err := c.Database.validate(); err != nil {
			return err
		}
	case StoreMemory:
	default:
		return fmt.Errorf("unsupported store backend %q", c.StoreBackend)
	}

	if err := c.Providers.validate(); err != nil {
		return err
	}

	if c.Embedding.Dimension <= 0 {
		return fmt.Errorf("embedding dimension must be positive")
	}
	if c.StoreBackend == StorePostgres && c.Embedding.Dimension != PgvectorDimension {
		return fmt.Errorf("embedding dimension %d does not match the audio_chunks.embeddings column vector(%d)",
			c.Embedding.Dimension, PgvectorDimension)
	}
	if c.Retrieval.MinScore < 0 || c.Retrieval.MinScore > 1 {
		return fmt.Errorf("retrieval min score must be between 0 and 1")
	}
	if c.Retrieval.Limit <= 0 {
		return fmt.Errorf("retrieval limit must be positive")
	}

	if c.Observability.LogLevel == "" {
		return fmt.Errorf("log level is required")
	}

	return nil
}

func (d *DatabaseConfig) validate() error {
	if d.ConnectionString == "" && d.Host == "" {
		return fmt.Errorf("database configuration required: set DATABASE_URL or DB_HOST")
	}
	if d.ConnectionString != "" {
		u, err := url.Parse(d.ConnectionString)
		if err != nil {
			return fmt.Errorf("invalid DATABASE_URL: %w", err)
		}
		if u.Scheme != "postgres" && u.Scheme != "postgresql" {
			return fmt.Errorf("DATABASE_URL must use the postgresql:// scheme")
		}
	} else {
		if d.User == "" {
			return fmt.Errorf("database user is required")
		}
		if d.Database == "" {
			return fmt.Errorf("database name is required")
		}
	}
	if d.Driver != "postgres" && d.Driver != "pgx" {
		return fmt.Errorf("unsupported database driver %q", d.Driver)
	}
	return nil
}

func (p *ProvidersConfig) validate() error {
	names := []string{p.Generation, p.Embedding}
	if p.GenerationFallback != "" {
		if p.GenerationFallback == p.Generation {
			return fmt.Errorf("generation fallback must differ from %q", p.Generation)
		}
		names = append(names, p.GenerationFallback)
	}
	for _, name := range names {
		switch name {
		case ProviderGemini:
			if p.Gemini.APIKey == "" {
				return fmt.Errorf("GEMINI_API_KEY is required for the %s provider", name)
			}
		case ProviderOpenAI:
			if p.OpenAI.APIKey == "" {
				return fmt.Errorf("OPENAI_API_KEY is required for the %s provider", name)
			}
		default:
			return fmt.Errorf("unsupported provider %q", name)
		}
	}
	return nil
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

// DSN returns the PostgreSQL connection string.
// Uses ConnectionString (from DATABASE_URL) when set; otherwise builds from individual fields.
func (d *DatabaseConfig) DSN() string {
	if d.ConnectionString != "" {
		return d.ConnectionString
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Database, d.SSLMode,
	)
}

// LogString returns a safe string for logging (no password).
func (d *DatabaseConfig) LogString() string {
	if d.ConnectionString != "" {
		u, err := url.Parse(d.ConnectionString)
		if err == nil {
			port := u.Port()
			if port == "" {
				port = "5432"
			}
			db := strings.TrimPrefix(u.Path, "/")
			return fmt.Sprintf("host=%s port=%s database=%s", u.Hostname(), port, db)
		}
		return "host=<from DATABASE_URL>"
	}
	return fmt.Sprintf("host=%s port=%d database=%s", d.Host, d.Port, d.Database)
}

func loadDatabaseConfig() DatabaseConfig {
	cfg := DatabaseConfig{
		ConnectionString: getEnv("DATABASE_URL", ""),
		Driver:           getEnv("DB_DRIVER", "postgres"),
		MaxOpenConns:     getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns:     getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime:  getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		ConnectTimeout:   getEnvAsDuration("DB_CONNECT_TIMEOUT", 30*time.Second),
	}
	if cfg.ConnectionString != "" {
		return cfg
	}
	cfg.Host = getEnv("DB_HOST", "")
	cfg.Port = getEnvAsInt("DB_PORT", 5432)
	cfg.User = getEnv("DB_USER", "")
	cfg.Password = getEnv("DB_PASSWORD", "")
	cfg.Database = getEnv("DB_NAME", "")
	cfg.SSLMode = getEnv("DB_SSLMODE", "disable")
	return cfg
}

// Address returns the HTTP server address
func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Helper functions

// getPort returns the server port from PORT or SERVER_PORT env vars (default: 3333)
func getPort() int {
	for _, key := range []string{"PORT", "SERVER_PORT"} {
		if value := os.Getenv(key); value != "" {
			if p, err := strconv.Atoi(value); err == nil {
				return p
			}
		}
	}
	return 3333
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(valueStr, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
