package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	defaultBroker = "localhost:9092"
	testAPIURL    = "https://api.covidtracking.test/v1"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{defaultBroker}, cfg.KafkaBrokers)
	assert.Equal(t, "raw-state-daily", cfg.KafkaSourceTopic)
	assert.Equal(t, "region-statistics", cfg.KafkaSinkTopic)
	assert.Equal(t, "covid-state-etl", cfg.KafkaGroupID)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 50, cfg.BatchSize)
	assert.Equal(t, 500*time.Millisecond, cfg.BatchFlushInterval)
	assert.Empty(t, cfg.RegionsFile)
	assert.False(t, cfg.TrackingAPIEnabled)
	assert.Empty(t, cfg.TrackingAPIURL)
	assert.Equal(t, 5*time.Second, cfg.TrackingAPITimeout)
	assert.Equal(t, 256, cfg.TrackingAPICacheSize)
	assert.Equal(t, time.Hour, cfg.TrackingAPICacheTTL)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_SOURCE_TOPIC", "custom-source")
	t.Setenv("KAFKA_SINK_TOPIC", "custom-sink")
	t.Setenv("KAFKA_GROUP_ID", "custom-group")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("BATCH_SIZE", "100")
	t.Setenv("BATCH_FLUSH_INTERVAL", "1s")
	t.Setenv("REGIONS_FILE", "/etc/covid/regions.yaml")
	t.Setenv("TRACKING_API_URL", testAPIURL)
	t.Setenv("TRACKING_API_TIMEOUT", "10s")
	t.Setenv("TRACKING_API_CACHE_SIZE", "64")
	t.Setenv("TRACKING_API_CACHE_TTL", "15m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-source", cfg.KafkaSourceTopic)
	assert.Equal(t, "custom-sink", cfg.KafkaSinkTopic)
	assert.Equal(t, "custom-group", cfg.KafkaGroupID)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 100, cfg.BatchSize)
	assert.Equal(t, 1*time.Second, cfg.BatchFlushInterval)
	assert.Equal(t, "/etc/covid/regions.yaml", cfg.RegionsFile)
	assert.True(t, cfg.TrackingAPIEnabled)
	assert.Equal(t, testAPIURL, cfg.TrackingAPIURL)
	assert.Equal(t, 10*time.Second, cfg.TrackingAPITimeout)
	assert.Equal(t, 64, cfg.TrackingAPICacheSize)
	assert.Equal(t, 15*time.Minute, cfg.TrackingAPICacheTTL)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
		want string
	}{
		{"shutdown timeout not a duration", "SHUTDOWN_TIMEOUT", "not-a-duration", "SHUTDOWN_TIMEOUT"},
		{"negative shutdown timeout", "SHUTDOWN_TIMEOUT", "-1s", "SHUTDOWN_TIMEOUT"},
		{"zero batch size", "BATCH_SIZE", "0", "BATCH_SIZE"},
		{"batch size too large", "BATCH_SIZE", "9999", "BATCH_SIZE"},
		{"flush interval not a duration", "BATCH_FLUSH_INTERVAL", "not-a-duration", "BATCH_FLUSH_INTERVAL"},
		{"api timeout not a duration", "TRACKING_API_TIMEOUT", "bad", "TRACKING_API_TIMEOUT"},
		{"api timeout zero", "TRACKING_API_TIMEOUT", "0s", "TRACKING_API_TIMEOUT"},
		{"cache ttl not a duration", "TRACKING_API_CACHE_TTL", "forever", "TRACKING_API_CACHE_TTL"},
		{"enabled without url", "TRACKING_API_ENABLED", "true", "TRACKING_API_URL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_TrackingAPIExplicitlyDisabled(t *testing.T) {
	t.Setenv("TRACKING_API_URL", testAPIURL)
	t.Setenv("TRACKING_API_ENABLED", "false")
	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.TrackingAPIEnabled)
	assert.Equal(t, testAPIURL, cfg.TrackingAPIURL)
}

func TestLoad_BadCacheSizeFallsBack(t *testing.T) {
	t.Setenv("TRACKING_API_CACHE_SIZE", "-3")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 256, cfg.TrackingAPICacheSize)
}
