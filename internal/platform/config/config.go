package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"famhelpdesk/pkg/platform/strings"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration

	Log       LogConfig
	Auth      AuthConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	Outbox    OutboxConfig
	ReadCache ReadCacheConfig
}

type LogConfig struct {
	Level  string
	Format string
}

// AuthConfig describes how bearer tokens issued by the identity provider are
// verified.
type AuthConfig struct {
	JWTSigningKey string
	Issuer        string
	Audience      string
}

// DatabaseConfig selects the Postgres backend. An empty URL keeps the
// in-memory stores.
type DatabaseConfig struct {
	URL          string
	MaxOpenConns int
	MaxIdleConns int
	TxTimeout    time.Duration
}

type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig enables the audit relay when Brokers is non-empty.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

type OutboxConfig struct {
	PollInterval time.Duration
	BatchSize    int
}

type ReadCacheConfig struct {
	Enabled bool
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() (Server, error) {
	cfg := Server{
		Addr:            getEnv("FAMHELPDESK_ADDR", ":8080"),
		RequestTimeout:  30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Auth: AuthConfig{
			JWTSigningKey: os.Getenv("JWT_SIGNING_KEY"),
			Issuer:        os.Getenv("JWT_ISSUER"),
			Audience:      os.Getenv("JWT_AUDIENCE"),
		},
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: 25,
			MaxIdleConns: 5,
			TxTimeout:    5 * time.Second,
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers: strings.SplitList(os.Getenv("KAFKA_BROKERS")),
			Topic:   getEnv("KAFKA_TOPIC", "famhelpdesk.audit"),
		},
		Outbox: OutboxConfig{
			PollInterval: time.Second,
			BatchSize:    100,
		},
		ReadCache: ReadCacheConfig{Enabled: true},
	}

	var err error
	if cfg.Redis.PoolSize, err = getInt("REDIS_POOL_SIZE", cfg.Redis.PoolSize); err != nil {
		return Server{}, err
	}
	if cfg.Outbox.PollInterval, err = getDuration("OUTBOX_POLL_INTERVAL", cfg.Outbox.PollInterval); err != nil {
		return Server{}, err
	}
	if cfg.ReadCache.Enabled, err = getBool("READ_CACHE_ENABLED", cfg.ReadCache.Enabled); err != nil {
		return Server{}, err
	}

	if cfg.Auth.JWTSigningKey == "" {
		// Use a default for development - should be overridden in production
		cfg.Auth.JWTSigningKey = "dev-secret-key-change-in-production"
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if v <= 0 {
		return 0, fmt.Errorf("%s must be positive", key)
	}
	return v, nil
}

func getBool(key string, fallback bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}
