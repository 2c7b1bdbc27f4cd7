package config

import (
	"os"
	"strconv"
	"strings"
)

// DBConfig holds PostgreSQL connection parameters for the ticket vector index.
type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	MaxConns int
}

// EmbedderConfig holds embedding provider parameters.
type EmbedderConfig struct {
	URL       string
	Model     string
	Timeout   int // seconds
	BatchSize int
}

// LLMConfig holds the reranking/summarization model parameters. Provider is
// "ollama" or "anthropic"; an empty or unknown provider leaves the pipeline
// without a model, which the rerank stage treats as pass-through mode.
type LLMConfig struct {
	Provider        string
	OllamaURL       string
	OllamaModel     string
	AnthropicAPIKey string
	AnthropicModel  string
	Timeout         int // seconds
	MaxTokens       int
}

// DedupConfig holds duplicate detection pipeline parameters.
type DedupConfig struct {
	RetrieveK      int
	RerankN        int
	RerankTimeout  int // seconds
	SummaryTimeout int // seconds
	Namespace      string
}

// FallbackConfig bounds the in-memory fallback index.
type FallbackConfig struct {
	Size   int
	TTLMin int // minutes
}

// IngestConfig holds batch ingestion parameters.
type IngestConfig struct {
	UpsertBatchSize int
	RatePerSec      float64
}

type Config struct {
	Env      string
	Port     string
	DB       DBConfig
	Embedder EmbedderConfig
	LLM      LLMConfig
	Dedup    DedupConfig
	Fallback FallbackConfig
	Ingest   IngestConfig
}

func Load() *Config {
	return &Config{
		Env:  getEnv("ENV", "development"),
		Port: getEnv("PORT", "9040"),
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "dedup-db"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "dedup_user"),
			Password: getSecret("DB_PASSWORD", "DB_PASSWORD_FILE", ""),
			Name:     getEnv("DB_NAME", "dedup_db"),
			MaxConns: getEnvInt("DB_MAX_CONNS", 10),
		},
		Embedder: EmbedderConfig{
			URL:       getEnv("EMBEDDER_URL", "http://ollama:11434"),
			Model:     getEnv("EMBEDDING_MODEL", "embeddinggemma"),
			Timeout:   getEnvInt("EMBEDDER_TIMEOUT", 30),
			BatchSize: getEnvInt("EMBEDDING_BATCH_SIZE", 96),
		},
		LLM: LLMConfig{
			Provider:        getEnv("DEDUP_LLM_PROVIDER", "ollama"),
			OllamaURL:       getEnv("OLLAMA_URL", "http://ollama:11434"),
			OllamaModel:     getEnv("OLLAMA_MODEL", "gemma3:4b"),
			AnthropicAPIKey: getSecret("ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY_FILE", ""),
			AnthropicModel:  getEnv("ANTHROPIC_MODEL", "claude-sonnet-4-5-20250929"),
			Timeout:         getEnvInt("LLM_TIMEOUT", 60),
			MaxTokens:       getEnvInt("LLM_MAX_TOKENS", 1024),
		},
		Dedup: DedupConfig{
			RetrieveK:      getEnvInt("DEDUP_RETRIEVE_K", 10),
			RerankN:        getEnvInt("DEDUP_RERANK_N", 3),
			RerankTimeout:  getEnvInt("DEDUP_RERANK_TIMEOUT", 30),
			SummaryTimeout: getEnvInt("DEDUP_SUMMARY_TIMEOUT", 30),
			Namespace:      getEnv("DEDUP_INDEX_NAMESPACE", ""),
		},
		Fallback: FallbackConfig{
			Size:   getEnvInt("FALLBACK_CACHE_SIZE", 512),
			TTLMin: getEnvInt("FALLBACK_CACHE_TTL_MIN", 30),
		},
		Ingest: IngestConfig{
			UpsertBatchSize: getEnvInt("UPSERT_BATCH_SIZE", 100),
			RatePerSec:      getEnvFloat64("INGEST_RATE_PER_SEC", 2.0),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getSecret(envKey, fileEnvKey, fallback string) string {
	if value, ok := os.LookupEnv(envKey); ok {
		return value
	}

	if filePath, ok := os.LookupEnv(fileEnvKey); ok {
		content, err := os.ReadFile(filePath)
		if err == nil {
			return strings.TrimSpace(string(content))
		}
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvFloat64(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}
