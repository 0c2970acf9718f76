package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "LEAVE_STORE", "DB_PORT", "DB_SSLMODE", "OUTBOX_POLL_INTERVAL", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "KAFKA_CONSUMER_GROUP"} {
		t.Setenv(k, "")
	}

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, StorePostgres, cfg.LeaveStore)
	assert.Equal(t, "5432", cfg.Postgres.Port)
	assert.Equal(t, "disable", cfg.Postgres.SSLMode)
	assert.Equal(t, 3*time.Second, cfg.PollInterval)
	assert.Equal(t, 20.0, cfg.RateLimitRPS)
	assert.Equal(t, 40, cfg.RateLimitBurst)
	assert.Equal(t, "go-leave-audit", cfg.ConsumerGroup)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("LEAVE_STORE", "Memory")
	t.Setenv("DB_HOST", "db")
	t.Setenv("OUTBOX_POLL_INTERVAL", "500ms")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("RATE_LIMIT_BURST", "5")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, StoreMemory, cfg.LeaveStore)
	assert.Equal(t, "db", cfg.Postgres.Host)
	assert.Equal(t, 500*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, 2.5, cfg.RateLimitRPS)
	assert.Equal(t, 5, cfg.RateLimitBurst)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := map[string]string{
		"LEAVE_STORE":          "mongo",
		"OUTBOX_POLL_INTERVAL": "soon",
		"RATE_LIMIT_RPS":       "fast",
		"RATE_LIMIT_BURST":     "many",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}
