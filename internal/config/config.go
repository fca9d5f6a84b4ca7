package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"gocnwi/domain/sample"
	"gocnwi/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Database     DatabaseConfig
	Server       ServerConfig
	Samples      SampleConfig
	Separability SeparabilityConfig
	Accuracy     AccuracyConfig
	Paths        PathConfig
	LogLevel     string
}

// DatabaseConfig holds the optional report store connection
type DatabaseConfig struct {
	URL     string
	Enabled bool
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port           string
	RequestTimeout time.Duration
}

// SampleConfig controls how sampling exports are read
type SampleConfig struct {
	LabelField      string
	ClassValueField string
	ExcludeFields   []string
}

// SeparabilityConfig tunes the separability analysis
type SeparabilityConfig struct {
	VariancePolicy string
	Workers        int
	HistogramBins  int
}

// AccuracyConfig tunes metric verification
type AccuracyConfig struct {
	VerifyTolerance float64
}

// PathConfig holds file system paths
type PathConfig struct {
	OutputDir string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Database:     *loadDatabaseConfig(),
		Server:       *loadServerConfig(),
		Samples:      *loadSampleConfig(),
		Separability: *loadSeparabilityConfig(),
		Accuracy:     *loadAccuracyConfig(),
		Paths:        *loadPathConfig(),
		LogLevel:     getEnvOrDefault("LOG_LEVEL", "INFO"),
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

// SampleOptions returns the sample conversion options described by the configuration
func (c *Config) SampleOptions() sample.Options {
	exclude := make([]string, len(c.Samples.ExcludeFields))
	copy(exclude, c.Samples.ExcludeFields)
	return sample.Options{
		LabelField:      c.Samples.LabelField,
		ClassValueField: c.Samples.ClassValueField,
		Exclude:         exclude,
	}
}

func loadDatabaseConfig() *DatabaseConfig {
	url := os.Getenv("DATABASE_URL")
	return &DatabaseConfig{
		URL:     url,
		Enabled: url != "",
	}
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:           getEnvOrDefault("PORT", "8080"),
		RequestTimeout: getEnvDurationOrDefault("REQUEST_TIMEOUT", 30*time.Second),
	}
}

func loadSampleConfig() *SampleConfig {
	return &SampleConfig{
		LabelField:      getEnvOrDefault("LABEL_FIELD", sample.DefaultLabelField),
		ClassValueField: getEnvOrDefault("CLASS_VALUE_FIELD", sample.DefaultClassValueField),
		ExcludeFields:   getEnvListOrDefault("EXCLUDE_FIELDS", sample.DefaultExcludedFields),
	}
}

func loadSeparabilityConfig() *SeparabilityConfig {
	return &SeparabilityConfig{
		VariancePolicy: getEnvOrDefault("VARIANCE_POLICY", "infinity"),
		Workers:        getEnvIntOrDefault("SEPARABILITY_WORKERS", 4),
		HistogramBins:  getEnvIntOrDefault("HISTOGRAM_BINS", 100),
	}
}

func loadAccuracyConfig() *AccuracyConfig {
	return &AccuracyConfig{
		VerifyTolerance: getEnvFloatOrDefault("VERIFY_TOLERANCE", 1e-6),
	}
}

func loadPathConfig() *PathConfig {
	return &PathConfig{
		OutputDir: getEnvOrDefault("OUTPUT_DIR", "./output"),
	}
}

func validateConfig(config *Config) error {
	if strings.TrimSpace(config.Samples.LabelField) == "" {
		return errors.ConfigInvalid("LABEL_FIELD cannot be empty")
	}
	switch config.Separability.VariancePolicy {
	case "infinity", "strict":
	default:
		return errors.ConfigInvalid("VARIANCE_POLICY must be infinity or strict")
	}
	if config.Separability.Workers < 1 {
		return errors.ConfigInvalid("SEPARABILITY_WORKERS must be at least 1")
	}
	if config.Separability.HistogramBins < 1 {
		return errors.ConfigInvalid("HISTOGRAM_BINS must be at least 1")
	}
	if config.Accuracy.VerifyTolerance < 0 {
		return errors.ConfigInvalid("VERIFY_TOLERANCE cannot be negative")
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

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvListOrDefault splits a comma separated value; an empty list element is dropped
func getEnvListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		out := make([]string, len(defaultValue))
		copy(out, defaultValue)
		return out
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
