package config

import (
	"os"
	"strconv"
	"time"

	"esgdash/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig
	Data     DataConfig
	Database DatabaseConfig
	S3       S3Config
	AI       AIConfig
	Metrics  MetricsConfig
	Catalog  *Catalog
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string
	GinMode string
}

// DataConfig locates dataset files and the catalog
type DataConfig struct {
	Dir         string
	CatalogFile string
}

// DatabaseConfig enables sql: sources when URL is set
type DatabaseConfig struct {
	Driver string
	URL    string
}

// Enabled reports whether a database is configured
func (c DatabaseConfig) Enabled() bool { return c.URL != "" }

// S3Config enables s3:// sources when Region or Endpoint is set
type S3Config struct {
	Region    string
	Endpoint  string
	PathStyle bool
}

// Enabled reports whether object storage is configured
func (c S3Config) Enabled() bool { return c.Region != "" || c.Endpoint != "" }

// AIConfig holds settings for the text summarizer
type AIConfig struct {
	OpenAIKey   string
	Model       string
	BaseURL     string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// Enabled reports whether the summarizer can be used
func (c AIConfig) Enabled() bool { return c.OpenAIKey != "" }

// MetricsConfig toggles the prometheus endpoint
type MetricsConfig struct {
	Enabled bool
}

// Load reads configuration from environment variables and the dataset catalog.
// Optional integrations stay disabled when their variables are unset.
func Load() (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			Port:    getEnvOrDefault("PORT", "8080"),
			GinMode: getEnvOrDefault("GIN_MODE", "release"),
		},
		Data: DataConfig{
			Dir:         getEnvOrDefault("DATA_DIR", "data"),
			CatalogFile: os.Getenv("CATALOG_FILE"),
		},
		Database: DatabaseConfig{
			Driver: getEnvOrDefault("DATABASE_DRIVER", "postgres"),
			URL:    os.Getenv("DATABASE_URL"),
		},
		S3: S3Config{
			Region:    os.Getenv("S3_REGION"),
			Endpoint:  os.Getenv("S3_ENDPOINT"),
			PathStyle: getEnvBoolOrDefault("S3_PATH_STYLE", false),
		},
		AI: AIConfig{
			OpenAIKey:   os.Getenv("OPENAI_API_KEY"),
			Model:       getEnvOrDefault("LLM_MODEL", "gpt-4o-mini"),
			BaseURL:     getEnvOrDefault("LLM_BASE_URL", "https://api.openai.com/v1"),
			MaxTokens:   getEnvIntOrDefault("LLM_MAX_TOKENS", 150),
			Temperature: getEnvFloatOrDefault("LLM_TEMPERATURE", 0.7),
			Timeout:     getEnvDurationOrDefault("LLM_TIMEOUT", 30*time.Second),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvBoolOrDefault("METRICS_ENABLED", true),
		},
	}

	var err error
	if config.Data.CatalogFile != "" {
		config.Catalog, err = LoadCatalog(config.Data.CatalogFile)
	} else {
		config.Catalog, err = DefaultCatalog()
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to load dataset catalog")
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func validateConfig(config *Config) error {
	switch config.Database.Driver {
	case "postgres", "sqlite":
	default:
		return errors.ConfigInvalid("DATABASE_DRIVER must be postgres or sqlite")
	}
	if config.AI.MaxTokens <= 0 {
		return errors.ConfigInvalid("LLM_MAX_TOKENS must be positive")
	}
	if config.Server.Port == "" {
		return errors.ConfigInvalid("PORT is required")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
