package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// DataDir holds sample_advisory.json, shelters.json, zip_centroids.csv, and rumors.json.
	DataDir string

	// Language model configuration.
	GoogleAPIKey string
	GeminiModel  string
	LLMTimeout   time.Duration
	LLMRetries   int
	LLMRateLimit float64 // requests per second, 0 disables limiting

	// Mapbox ZIP geocoding configuration.
	MapboxToken   string
	MapboxEnabled bool
	MapboxTimeout time.Duration

	ZIPCacheSize   int
	RumorCacheSize int

	// Assessment publishing.
	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string

	// Online shelter directory. Empty means shelters.json is used.
	DatabaseURL string

	// Online advisory source. Empty endpoint means sample_advisory.json is used.
	AdvisoryS3Endpoint  string
	AdvisoryS3AccessKey string
	AdvisoryS3SecretKey string
	AdvisoryS3Bucket    string
	AdvisoryS3Key       string
	AdvisoryS3UseSSL    bool
}

// Load reads configuration from environment variables, applying defaults where
// unset. A .env file in the working directory is loaded first if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	llmTimeout, err := parsePositiveDuration("LLM_TIMEOUT", "25s")
	if err != nil {
		return nil, err
	}
	mapboxTimeout, err := parsePositiveDuration("MAPBOX_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}

	llmRetries, err := parseInt("LLM_RETRIES", 3, 1)
	if err != nil {
		return nil, err
	}
	zipCacheSize, err := parseInt("ZIP_CACHE_SIZE", 1000, 0)
	if err != nil {
		return nil, err
	}
	rumorCacheSize, err := parseInt("RUMOR_CACHE_SIZE", 256, 0)
	if err != nil {
		return nil, err
	}

	rateLimit, err := strconv.ParseFloat(sharedcfg.EnvOrDefault("LLM_RATE_LIMIT", "2"), 64)
	if err != nil || rateLimit < 0 {
		return nil, errors.New("invalid LLM_RATE_LIMIT")
	}

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled := mapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		mapboxEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
		DataDir:         sharedcfg.EnvOrDefault("DATA_DIR", "data"),

		GoogleAPIKey: os.Getenv("GOOGLE_API_KEY"),
		GeminiModel:  sharedcfg.EnvOrDefault("GEMINI_MODEL", "gemini-2.0-flash"),
		LLMTimeout:   llmTimeout,
		LLMRetries:   llmRetries,
		LLMRateLimit: rateLimit,

		MapboxToken:   mapboxToken,
		MapboxEnabled: mapboxEnabled,
		MapboxTimeout: mapboxTimeout,

		ZIPCacheSize:   zipCacheSize,
		RumorCacheSize: rumorCacheSize,

		KafkaEnabled: os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers: sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "hurriaid-assessments"),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		AdvisoryS3Endpoint:  os.Getenv("ADVISORY_S3_ENDPOINT"),
		AdvisoryS3AccessKey: os.Getenv("ADVISORY_S3_ACCESS_KEY"),
		AdvisoryS3SecretKey: os.Getenv("ADVISORY_S3_SECRET_KEY"),
		AdvisoryS3Bucket:    sharedcfg.EnvOrDefault("ADVISORY_S3_BUCKET", "hurriaid"),
		AdvisoryS3Key:       sharedcfg.EnvOrDefault("ADVISORY_S3_KEY", "advisories/current.json"),
		AdvisoryS3UseSSL:    os.Getenv("ADVISORY_S3_USE_SSL") == "true",
	}

	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}
	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
		}
		if cfg.KafkaTopic == "" {
			return nil, errors.New("KAFKA_TOPIC is required when KAFKA_ENABLED is true")
		}
	}
	if cfg.AdvisoryS3Endpoint != "" && (cfg.AdvisoryS3AccessKey == "" || cfg.AdvisoryS3SecretKey == "") {
		return nil, errors.New("ADVISORY_S3_ENDPOINT requires ADVISORY_S3_ACCESS_KEY and ADVISORY_S3_SECRET_KEY")
	}

	return cfg, nil
}

// OracleConfigured reports whether a model API key is present.
func (c *Config) OracleConfigured() bool {
	return c.GoogleAPIKey != ""
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseInt(key string, def, minimum int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < minimum {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}
