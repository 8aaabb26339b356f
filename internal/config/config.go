package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Source URIs: local paths, http(s):// URLs or s3://bucket/key.
	SourceEconomic             string
	SourceHousing              string
	SourcePopulation           string
	SourcePopulationHistorical string
	SourceEmployment           string
	SourceFMR                  string

	SourceTimeout   time.Duration
	SourceRateLimit float64
	SourceCacheSize int
	S3Endpoint      string

	// RefreshInterval of zero disables periodic rebuilds.
	RefreshInterval time.Duration
	TuningFile      string

	KafkaEnabled   bool
	KafkaBrokers   []string
	KafkaSinkTopic string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	sourceTimeout, err := parseDuration("SOURCE_TIMEOUT", "30s", false)
	if err != nil {
		return nil, err
	}

	refreshInterval, err := parseDuration("REFRESH_INTERVAL", "24h", true)
	if err != nil {
		return nil, err
	}

	rateLimit, err := strconv.ParseFloat(sharedcfg.EnvOrDefault("SOURCE_RATE_LIMIT", "5"), 64)
	if err != nil || rateLimit <= 0 {
		return nil, errors.New("invalid SOURCE_RATE_LIMIT")
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		SourceEconomic:             sharedcfg.EnvOrDefault("SOURCE_ECONOMIC", "data/economic.csv"),
		SourceHousing:              sharedcfg.EnvOrDefault("SOURCE_HOUSING", "data/housing.csv"),
		SourcePopulation:           sharedcfg.EnvOrDefault("SOURCE_POPULATION", "data/population.json"),
		SourcePopulationHistorical: sharedcfg.EnvOrDefault("SOURCE_POPULATION_HISTORICAL", "data/population_historical.json"),
		SourceEmployment:           sharedcfg.EnvOrDefault("SOURCE_EMPLOYMENT", "data/employment.csv"),
		SourceFMR:                  sharedcfg.EnvOrDefault("SOURCE_FMR", "data/fmr.xlsx"),

		SourceTimeout:   sourceTimeout,
		SourceRateLimit: rateLimit,
		SourceCacheSize: parseCacheSize(),
		S3Endpoint:      os.Getenv("S3_ENDPOINT"),

		RefreshInterval: refreshInterval,
		TuningFile:      os.Getenv("TUNING_FILE"),

		KafkaEnabled:   os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers:   sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSinkTopic: sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "market-heatmap-records"),
	}

	if cfg.SourceEconomic == "" {
		return nil, errors.New("SOURCE_ECONOMIC is required")
	}
	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
		}
		if cfg.KafkaSinkTopic == "" {
			return nil, errors.New("KAFKA_SINK_TOPIC is required when KAFKA_ENABLED is true")
		}
	}

	return cfg, nil
}

func parseDuration(key, def string, allowZero bool) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d < 0 || (d == 0 && !allowZero) {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseCacheSize() int {
	if s := os.Getenv("SOURCE_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 32
}
