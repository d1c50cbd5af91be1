package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

type Config struct {
	Port    string
	GinMode string

	// MongoDB (durable document metadata)
	MongoURI string
	DBName   string

	// Redis (job status cache + task queue)
	RedisURL      string
	RedisPassword string
	RedisDB       int

	// Weaviate (vector store)
	WeaviateHost   string
	WeaviatePort   string
	WeaviateScheme string
	Vectorizer     string
	VectorStoreRPS int

	// Ingestion
	ChunkSize    int
	ChunkOverlap int
	BatchSize    int

	// Search defaults
	SearchAlpha          float64
	SearchScoreThreshold float64

	// Job status records expire from Redis after this many hours;
	// durable status lives on the document record.
	JobStatusTTLHours int

	// Worker
	WorkerConcurrency int

	// Tracing
	OTLPEndpoint   string
	TracingEnabled bool
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("error loading .env file: %v", err)
		}
	}

	cfg := &Config{
		Port:    getEnv("PORT", "8080"),
		GinMode: getEnv("GIN_MODE", "debug"),

		MongoURI: getEnv("MONGO_URI", "mongodb://localhost:27017/docsearch"),
		DBName:   getEnv("DB_NAME", "docsearch"),

		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		WeaviateHost:   getEnv("WEAVIATE_HOST", "localhost"),
		WeaviatePort:   getEnv("WEAVIATE_PORT", "7080"),
		WeaviateScheme: getEnv("WEAVIATE_SCHEME", "http"),
		Vectorizer:     getEnv("VECTORIZER", "text2vec-transformers"),
		VectorStoreRPS: getEnvInt("VECTOR_STORE_RPS", 50),

		ChunkSize:    getEnvInt("CHUNK_SIZE", 1000),
		ChunkOverlap: getEnvInt("CHUNK_OVERLAP", 200),
		BatchSize:    getEnvInt("BATCH_SIZE", 10),

		SearchAlpha:          getEnvFloat("SEARCH_ALPHA", 0.5),
		SearchScoreThreshold: getEnvFloat("SEARCH_SCORE_THRESHOLD", 0.0),

		JobStatusTTLHours: getEnvInt("JOB_STATUS_TTL_HOURS", 24),

		WorkerConcurrency: getEnvInt("WORKER_CONCURRENCY", 10),

		OTLPEndpoint:   getEnv("OTLP_ENDPOINT", "localhost:4317"),
		TracingEnabled: getEnvBool("TRACING_ENABLED", false),
	}

	// REDIS_URL may be a full redis:// URL. Normalize it here so every
	// consumer (cache client, task queue) sees the same addr/password/db
	// instead of each one parsing the raw value differently.
	if strings.HasPrefix(cfg.RedisURL, "redis://") || strings.HasPrefix(cfg.RedisURL, "rediss://") {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_URL: %v", err)
		}
		cfg.RedisURL = opt.Addr
		if opt.Password != "" {
			cfg.RedisPassword = opt.Password
		}
		if opt.DB != 0 {
			cfg.RedisDB = opt.DB
		}
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
