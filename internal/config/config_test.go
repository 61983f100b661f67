package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TICKETLY_API_URL", "")
	t.Setenv("NOTIFICATION_FEED", "")

	cfg := Load()

	assert.Equal(t, "http://localhost:8000/api/v1", cfg.API.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.API.Timeout)
	assert.Equal(t, "none", cfg.Notifications.Feed)
	assert.Equal(t, 30*time.Second, cfg.Notifications.PollInterval)
	assert.Equal(t, 30*time.Second, cfg.Cache.StaleTime)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("TICKETLY_API_URL", "https://tickets.example.com/api/v1/")
	t.Setenv("HTTP_TIMEOUT_SECONDS", "3")
	t.Setenv("SESSION_STORE", "redis")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("NOTIFICATION_FEED", "KAFKA")
	t.Setenv("NOTIFICATION_POLL_INTERVAL", "5s")
	t.Setenv("LOG_FILE", "false")
	t.Setenv("RANDOM_SEED", "42")

	cfg := Load()

	assert.Equal(t, "https://tickets.example.com/api/v1", cfg.API.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.API.Timeout)
	assert.Equal(t, "redis", cfg.Session.Store)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "kafka", cfg.Notifications.Feed)
	assert.Equal(t, 5*time.Second, cfg.Notifications.PollInterval)
	assert.False(t, cfg.Log.FileEnabled)
	assert.Equal(t, int64(42), cfg.RandomSeed)
}

func TestInvalidValuesFallBack(t *testing.T) {
	t.Setenv("HTTP_TIMEOUT_SECONDS", "ten")
	t.Setenv("NOTIFICATION_POLL_INTERVAL", "-1s")
	t.Setenv("LOG_FILE", "maybe")

	cfg := Load()

	assert.Equal(t, 10*time.Second, cfg.API.Timeout)
	assert.Equal(t, 30*time.Second, cfg.Notifications.PollInterval)
	assert.True(t, cfg.Log.FileEnabled)
}
