package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database  DatabaseConfig
	Redis     RedisConfig
	CORS      CORSConfig
	Log       LogConfig
	Embedding EmbeddingConfig
	Matching  MatchingConfig
	Backfill  BackfillConfig
	Events    EventsConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// EmbeddingConfig points the gateway at the external embedding service.
// The endpoint URL and model tag are injected into the client constructor
// so nothing in the core reads the process environment.
type EmbeddingConfig struct {
	APIURL   string
	Model    string
	Timeout  time.Duration
	CacheTTL time.Duration
}

// MatchingConfig bounds result sizes for the matching endpoint.
type MatchingConfig struct {
	DefaultLimit int
	MaxLimit     int
}

// BackfillConfig tunes the embedding backfill batch job. Concurrency
// defaults to 1: the job exists to bound load on the embedding service,
// not to parallelise it.
type BackfillConfig struct {
	BatchSize   int
	Concurrency int
}

// EventsConfig tunes the async trust-score recompute queue.
type EventsConfig struct {
	QueueWorkers    int
	QueueBufferSize int
	QueueMaxRetries int
	QueueRetryDelay time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Embedding = EmbeddingConfig{
		APIURL:   v.GetString("EMBEDDING_API_URL"),
		Model:    v.GetString("EMBEDDING_MODEL"),
		Timeout:  parseDuration(v.GetString("EMBEDDING_TIMEOUT"), 10*time.Second),
		CacheTTL: parseDuration(v.GetString("EMBEDDING_CACHE_TTL"), time.Hour),
	}

	cfg.Matching = MatchingConfig{
		DefaultLimit: v.GetInt("MATCHING_DEFAULT_LIMIT"),
		MaxLimit:     v.GetInt("MATCHING_MAX_LIMIT"),
	}

	cfg.Backfill = BackfillConfig{
		BatchSize:   v.GetInt("BACKFILL_BATCH_SIZE"),
		Concurrency: v.GetInt("BACKFILL_CONCURRENCY"),
	}

	cfg.Events = EventsConfig{
		QueueWorkers:    v.GetInt("EVENTS_QUEUE_WORKERS"),
		QueueBufferSize: v.GetInt("EVENTS_QUEUE_BUFFER_SIZE"),
		QueueMaxRetries: v.GetInt("EVENTS_QUEUE_MAX_RETRIES"),
		QueueRetryDelay: parseDuration(v.GetString("EVENTS_QUEUE_RETRY_DELAY"), time.Second),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "mentorme")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("EMBEDDING_API_URL", "http://localhost:8000/embed")
	v.SetDefault("EMBEDDING_MODEL", "all-MiniLM-L6-v2")
	v.SetDefault("EMBEDDING_TIMEOUT", "10s")
	v.SetDefault("EMBEDDING_CACHE_TTL", "1h")

	v.SetDefault("MATCHING_DEFAULT_LIMIT", 10)
	v.SetDefault("MATCHING_MAX_LIMIT", 50)

	v.SetDefault("BACKFILL_BATCH_SIZE", 25)
	v.SetDefault("BACKFILL_CONCURRENCY", 1)

	v.SetDefault("EVENTS_QUEUE_WORKERS", 1)
	v.SetDefault("EVENTS_QUEUE_BUFFER_SIZE", 64)
	v.SetDefault("EVENTS_QUEUE_MAX_RETRIES", 3)
	v.SetDefault("EVENTS_QUEUE_RETRY_DELAY", "1s")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
