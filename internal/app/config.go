package app

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go-leave/internal/shared/connection"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Config is read from the environment; cmd/* loads .env first.
type Config struct {
	Port           string
	LeaveStore     string
	Postgres       connection.PostgresConfig
	RedisAddr      string
	KafkaBroker    string
	ConsumerGroup  string
	PollInterval   time.Duration
	RateLimitRPS   float64
	RateLimitBurst int
	MaxRetries     int
}

func LoadConfig() (Config, error) {
	cfg := Config{
		Port:       getEnv("PORT", "3000"),
		LeaveStore: strings.ToLower(getEnv("LEAVE_STORE", StorePostgres)),
		Postgres: connection.PostgresConfig{
			Host:     os.Getenv("DB_HOST"),
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASSWORD"),
			DBName:   os.Getenv("DB_NAME"),
			Port:     getEnv("DB_PORT", "5432"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		KafkaBroker:   os.Getenv("KAFKA_BROKER"),
		ConsumerGroup: getEnv("KAFKA_CONSUMER_GROUP", "go-leave-audit"),
		MaxRetries:    5,
	}

	var err error
	if cfg.PollInterval, err = time.ParseDuration(getEnv("OUTBOX_POLL_INTERVAL", "3s")); err != nil {
		return Config{}, fmt.Errorf("OUTBOX_POLL_INTERVAL: %w", err)
	}
	if cfg.RateLimitRPS, err = strconv.ParseFloat(getEnv("RATE_LIMIT_RPS", "20"), 64); err != nil {
		return Config{}, fmt.Errorf("RATE_LIMIT_RPS: %w", err)
	}
	if cfg.RateLimitBurst, err = strconv.Atoi(getEnv("RATE_LIMIT_BURST", "40")); err != nil {
		return Config{}, fmt.Errorf("RATE_LIMIT_BURST: %w", err)
	}

	switch cfg.LeaveStore {
	case StoreMemory, StorePostgres:
	default:
		return Config{}, fmt.Errorf("LEAVE_STORE must be %q or %q, got %q", StoreMemory, StorePostgres, cfg.LeaveStore)
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
