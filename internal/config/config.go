package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all runtime settings, populated from the environment with an
// optional .env file.
type Config struct {
	GeminiAPIKey    string
	EmbeddingModel  string
	GenerativeModel string

	DatabaseURL  string
	StoreBackend string // "sqlite" or "redis" for the preference/metrics ports
	RedisAddr    string

	HTTPPort  string
	LogLevel  string
	LogFormat string

	TopK              int
	RerankCap         int
	RetrievalWorkers  int
	ProbeTimeoutSec   int
	GenerationTimeout int // seconds
}

var AppConfig Config

// Load reads the environment into AppConfig. Only the Gemini API key is
// required; everything else has a sensible default.
func Load() error {
	// Load .env if present; real environments set variables directly.
	_ = godotenv.Load()

	AppConfig = Config{
		GeminiAPIKey:    getEnv("GEMINI_API_KEY", ""),
		EmbeddingModel:  getEnv("EMBEDDING_MODEL", "text-embedding-004"),
		GenerativeModel: getEnv("GENERATIVE_MODEL", "gemini-1.5-flash-latest"),

		DatabaseURL:  getEnv("DATABASE_URL", "ecommerce_rag.db"),
		StoreBackend: getEnv("STORE_BACKEND", "sqlite"),
		RedisAddr:    getEnv("REDIS_ADDR", "localhost:6379"),

		HTTPPort:  getEnv("HTTP_PORT", "8080"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),

		TopK:              getEnvAsInt("RETRIEVAL_TOP_K", 15),
		RerankCap:         getEnvAsInt("RERANK_CAP", 15),
		RetrievalWorkers:  getEnvAsInt("RETRIEVAL_WORKERS", 4),
		ProbeTimeoutSec:   getEnvAsInt("PROBE_TIMEOUT_SECONDS", 10),
		GenerationTimeout: getEnvAsInt("GENERATION_TIMEOUT_SECONDS", 30),
	}

	if AppConfig.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY environment variable is required")
	}
	if AppConfig.StoreBackend != "sqlite" && AppConfig.StoreBackend != "redis" {
		return fmt.Errorf("STORE_BACKEND must be \"sqlite\" or \"redis\", got %q", AppConfig.StoreBackend)
	}
	return nil
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}
