package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	KafkaBrokers     []string
	KafkaSourceTopic string
	KafkaSinkTopic   string
	KafkaGroupID     string
	HTTPAddr         string
	LogLevel         string
	LogFormat        string
	ShutdownTimeout  time.Duration

	BatchSize          int
	BatchFlushInterval time.Duration

	// RegionsFile overrides the embedded region catalog when set.
	RegionsFile string

	// History API used to seed partial windows.
	TrackingAPIURL       string
	TrackingAPIEnabled   bool
	TrackingAPITimeout   time.Duration
	TrackingAPICacheSize int
	TrackingAPICacheTTL  time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	apiTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("TRACKING_API_TIMEOUT", "5s"))
	if err != nil || apiTimeout <= 0 {
		return nil, errors.New("invalid TRACKING_API_TIMEOUT")
	}

	cacheTTL, err := time.ParseDuration(sharedcfg.EnvOrDefault("TRACKING_API_CACHE_TTL", "1h"))
	if err != nil || cacheTTL < 0 {
		return nil, errors.New("invalid TRACKING_API_CACHE_TTL")
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	apiURL := os.Getenv("TRACKING_API_URL")
	apiEnabled := apiURL != ""
	if v := os.Getenv("TRACKING_API_ENABLED"); v != "" {
		apiEnabled = v == "true"
	}

	cfg := &Config{
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   sharedcfg.EnvOrDefault("KAFKA_SOURCE_TOPIC", "raw-state-daily"),
		KafkaSinkTopic:     sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "region-statistics"),
		KafkaGroupID:       sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "covid-state-etl"),
		HTTPAddr:           sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,
		RegionsFile:        os.Getenv("REGIONS_FILE"),

		TrackingAPIURL:       apiURL,
		TrackingAPIEnabled:   apiEnabled,
		TrackingAPITimeout:   apiTimeout,
		TrackingAPICacheSize: parseCacheSize(),
		TrackingAPICacheTTL:  cacheTTL,
	}

	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}
	if cfg.KafkaSourceTopic == "" {
		return nil, errors.New("KAFKA_SOURCE_TOPIC is required")
	}
	if cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required")
	}
	if cfg.TrackingAPIEnabled && cfg.TrackingAPIURL == "" {
		return nil, errors.New("TRACKING_API_ENABLED is true but TRACKING_API_URL is not set")
	}

	return cfg, nil
}

func parseCacheSize() int {
	if s := os.Getenv("TRACKING_API_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 256
}
