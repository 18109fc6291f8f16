package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Vector store backends
const (
	VectorStoreBolt     = "bolt"
	VectorStoreMemory   = "memory"
	VectorStorePostgres = "postgres"
	VectorStoreQdrant   = "qdrant"
)

// Provider names
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Config represents the complete application configuration
type Config struct {
	Server        ServerConfig
	RAG           RAGConfig
	Generation    GenerationConfig
	Providers     ProvidersConfig
	Embedding     EmbeddingConfig
	VectorStore   VectorStoreConfig
	Database      DatabaseConfig
	Qdrant        QdrantConfig
	Observability ObservabilityConfig
	Environment   string `validate:"required"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host               string
	Port               int `validate:"gt=0,lte=65535"`
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	ShutdownTimeout    time.Duration
	CORSAllowedOrigins []string
}

// RAGConfig holds retrieval and prompt settings
type RAGConfig struct {
	TopK        int     `validate:"gt=0"`
	MaxDocChars int     `validate:"gt=0"`
	MinScore    float64 `validate:"gte=0,lte=1"`
	// GenerationDelay is the pause before each generation call
	GenerationDelay time.Duration
}

// GenerationConfig holds the sampling parameters sent to the generator
type GenerationConfig struct {
	Temperature     float64 `validate:"gte=0,lte=2"`
	TopP            float64 `validate:"gte=0,lte=1"`
	TopK            int     `validate:"gte=0"`
	MaxOutputTokens int     `validate:"gt=0"`
}

// ProvidersConfig holds LLM provider configurations
type ProvidersConfig struct {
	// Generator selects the provider answering questions
	Generator string `validate:"oneof=gemini openai"`
	Timeout   time.Duration
	Gemini    GeminiConfig
	OpenAI    OpenAIConfig
}

// GeminiConfig holds Google Gemini configuration
type GeminiConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// OpenAIConfig holds configuration for any OpenAI-compatible API
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// EmbeddingConfig holds query embedding configuration
type EmbeddingConfig struct {
	Provider string `validate:"oneof=gemini openai"`
	// ModelURL overrides the provider base URL (e.g. a local Ollama server)
	ModelURL string
	Model    string
	APIKey   string
}

// VectorStoreConfig selects and locates the vector index
type VectorStoreConfig struct {
	Backend        string `validate:"oneof=bolt memory postgres qdrant"`
	ChromaDir      string
	CollectionName string `validate:"required"`
}

// DatabaseConfig holds PostgreSQL database configuration.
// When ConnectionString (from DATABASE_URL) is set, it takes precedence over individual fields.
type DatabaseConfig struct {
	ConnectionString string // From DATABASE_URL when set
	Host             string
	Port             int
	User             string
	Password         string
	Database         string
	SSLMode          string
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetime  time.Duration
}

// QdrantConfig holds the Qdrant gRPC endpoint
type QdrantConfig struct {
	Host string
	Port int
}

// ObservabilityConfig holds logging and tracing configuration
type ObservabilityConfig struct {
	LogLevel          string `validate:"required"`
	LogFormat         string `validate:"oneof=json text console"`
	TracingEnabled    bool
	TracingEndpoint   string
	TracingSampleRate float64 `validate:"gte=0,lte=1"`
}

var validate = validator.New()

// New creates a new Config instance by loading environment variables
func New(ctx context.Context) (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Host:               getEnv("SERVER_HOST", "0.0.0.0"),
			Port:               getPort(),
			ReadTimeout:        getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:       getEnvAsDuration("SERVER_WRITE_TIMEOUT", 90*time.Second),
			ShutdownTimeout:    getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
		RAG: RAGConfig{
			TopK:            getTopK(),
			MaxDocChars:     getEnvAsInt("MAX_DOC_CHARS", 800),
			MinScore:        getEnvAsFloat("MIN_SCORE", 0),
			GenerationDelay: getEnvAsDuration("GENERATION_DELAY", 100*time.Millisecond),
		},
		Generation: GenerationConfig{
			Temperature:     getEnvAsFloat("TEMPERATURE", 0.1),
			TopP:            getEnvAsFloat("TOP_P", 0.8),
			TopK:            getEnvAsInt("TOP_K_SAMPLING", 40),
			MaxOutputTokens: getEnvAsInt("MAX_OUTPUT_TOKENS", 1024),
		},
		Providers: ProvidersConfig{
			Generator: getEnv("GENERATOR_PROVIDER", ProviderGemini),
			Timeout:   getEnvAsDuration("PROVIDER_TIMEOUT", 60*time.Second),
			Gemini: GeminiConfig{
				APIKey:  getEnv("GOOGLE_API_KEY", ""),
				BaseURL: getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),
				Model:   getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
			},
			OpenAI: OpenAIConfig{
				APIKey:  getEnv("OPENAI_API_KEY", ""),
				BaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
				Model:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			},
		},
		Embedding: EmbeddingConfig{
			Provider: getEnv("EMBED_PROVIDER", ProviderGemini),
			ModelURL: getEnv("EMBED_MODEL_URL", ""),
			Model:    getEnv("EMBED_MODEL", ""),
			APIKey:   getEnv("EMBED_API_KEY", ""),
		},
		VectorStore: VectorStoreConfig{
			Backend:        getEnv("VECTOR_STORE", VectorStoreBolt),
			ChromaDir:      getEnv("CHROMA_DIR", "./chroma_db"),
			CollectionName: getEnv("COLLECTION_NAME", "rag_collection"),
		},
		Database: loadDatabaseConfig(),
		Qdrant: QdrantConfig{
			Host: getEnv("QDRANT_HOST", "localhost"),
			Port: getEnvAsInt("QDRANT_PORT", 6334),
		},
		Observability: ObservabilityConfig{
			LogLevel:          getEnv("LOG_LEVEL", "info"),
			LogFormat:         getEnv("LOG_FORMAT", "json"),
			TracingEnabled:    getEnvAsBool("TRACING_ENABLED", false),
			TracingEndpoint:   getEnv("TRACING_ENDPOINT", ""),
			TracingSampleRate: getEnvAsFloat("TRACING_SAMPLE_RATE", 0.1),
		},
	}

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks struct constraints and the rules that span fields
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
			fe := validationErrors[0]
			return fmt.Errorf("%s failed on '%s' constraint", fe.Namespace(), fe.Tag())
		}
		return err
	}

	switch c.VectorStore.Backend {
	case VectorStoreBolt:
		if c.VectorStore.ChromaDir == "" {
			return fmt.Errorf("CHROMA_DIR is required for the bolt vector store")
		}
	case VectorStorePostgres:
		if c.Database.ConnectionString == "" && c.Database.Host == "" {
			return fmt.Errorf("database configuration required: set DATABASE_URL or DB_HOST")
		}
		if c.Database.ConnectionString == "" {
			if c.Database.User == "" {
				return fmt.Errorf("database user is required")
			}
			if c.Database.Database == "" {
				return fmt.Errorf("database name is required")
			}
		}
	case VectorStoreQdrant:
		if c.Qdrant.Host == "" || c.Qdrant.Port <= 0 {
			return fmt.Errorf("QDRANT_HOST and QDRANT_PORT are required for the qdrant vector store")
		}
	}

	// The generator key is required in production; in development the service
	// starts without one and answers with the fallback text.
	if c.IsProduction() && c.GeneratorAPIKey() == "" {
		return fmt.Errorf("an API key for generator %q is required in production", c.Providers.Generator)
	}

	if c.Observability.TracingEnabled && c.Observability.TracingEndpoint == "" {
		return fmt.Errorf("TRACING_ENDPOINT is required when tracing is enabled")
	}

	return nil
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// GeneratorAPIKey returns the API key of the selected generator
func (c *Config) GeneratorAPIKey() string {
	if c.Providers.Generator == ProviderOpenAI {
		return c.Providers.OpenAI.APIKey
	}
	return c.Providers.Gemini.APIKey
}

// EmbeddingAPIKey returns EMBED_API_KEY, falling back to the selected provider's key
func (c *Config) EmbeddingAPIKey() string {
	if c.Embedding.APIKey != "" {
		return c.Embedding.APIKey
	}
	if c.Embedding.Provider == ProviderOpenAI {
		return c.Providers.OpenAI.APIKey
	}
	return c.Providers.Gemini.APIKey
}

// EmbeddingBaseURL returns EMBED_MODEL_URL, falling back to the selected provider's base URL
func (c *Config) EmbeddingBaseURL() string {
	if c.Embedding.ModelURL != "" {
		return c.Embedding.ModelURL
	}
	if c.Embedding.Provider == ProviderOpenAI {
		return c.Providers.OpenAI.BaseURL
	}
	return c.Providers.Gemini.BaseURL
}

// BoltPath returns the bbolt index file inside ChromaDir
func (c *VectorStoreConfig) BoltPath() string {
	return filepath.Join(c.ChromaDir, "index.db")
}

// DSN returns the PostgreSQL connection string.
// Uses ConnectionString (from DATABASE_URL) when set; otherwise builds from individual fields.
func (c *DatabaseConfig) DSN() string {
	if c.ConnectionString != "" {
		return c.ConnectionString
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// LogString returns a safe string for logging (no password). Parses ConnectionString when set.
func (c *DatabaseConfig) LogString() string {
	if c.ConnectionString != "" {
		u, err := url.Parse(c.ConnectionString)
		if err == nil {
			host := u.Hostname()
			port := u.Port()
			if port == "" {
				port = "5432"
			}
			db := strings.TrimPrefix(u.Path, "/")
			return fmt.Sprintf("host=%s port=%s database=%s", host, port, db)
		}
		return "host=<from DATABASE_URL>"
	}
	return fmt.Sprintf("host=%s port=%d database=%s", c.Host, c.Port, c.Database)
}

// Address returns the Qdrant gRPC address
func (c *QdrantConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// loadDatabaseConfig loads database config from DATABASE_URL or DB_* env vars
func loadDatabaseConfig() DatabaseConfig {
	dbURL := getEnv("DATABASE_URL", "")
	if dbURL != "" {
		return DatabaseConfig{
			ConnectionString: dbURL,
			MaxOpenConns:     getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:     getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime:  getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		}
	}
	return DatabaseConfig{
		Host:            getEnv("DB_HOST", "localhost"),
		Port:            getEnvAsInt("DB_PORT", 5432),
		User:            getEnv("DB_USER", "rag"),
		Password:        getEnv("DB_PASSWORD", ""),
		Database:        getEnv("DB_NAME", "rag"),
		SSLMode:         getEnv("DB_SSLMODE", "disable"),
		MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
	}
}

// Address returns the HTTP server address
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Helper functions

// getPort returns the server port from PORT or SERVER_PORT env vars (default: 5000)
func getPort() int {
	if value := os.Getenv("PORT"); value != "" {
		if p, err := strconv.Atoi(value); err == nil {
			return p
		}
	}
	if value := os.Getenv("SERVER_PORT"); value != "" {
		if p, err := strconv.Atoi(value); err == nil {
			return p
		}
	}
	return 5000
}

// getTopK returns the retrieval depth from TOP_K or TOP_K_DOCUMENTS (default: 5)
func getTopK() int {
	if os.Getenv("TOP_K") != "" {
		return getEnvAsInt("TOP_K", 5)
	}
	return getEnvAsInt("TOP_K_DOCUMENTS", 5)
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
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
