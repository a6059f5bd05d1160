// Package config loads pipeline configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"

	"afipscan/internal/logger"
)

// Config is the full pipeline configuration. Fields marked tunable are
// hand-tuned defaults carried over from production use, not calibrated
// constants.
type Config struct {
	// Google Cloud configuration (Vision + Document AI backends)
	GoogleCloudProject    string
	GoogleCloudLocation   string
	DocumentAIProcessorID string

	// OpenAI configuration (optional field completion)
	OpenAIAPIKey string
	OpenAIModel  string

	// Provider daily quotas
	VisionDailyLimit     int
	DocumentAIDailyLimit int

	// Redis quota store; empty means the in-process store is used.
	RedisURL string

	// OCR invocation bound, seconds per provider attempt.
	OCRTimeoutSeconds int

	// Complexity analysis weights and tier cut points. Tunable.
	ComplexityResolutionWeight float64
	ComplexityContrastWeight   float64
	ComplexityEdgeWeight       float64
	ComplexityTextWeight       float64
	TierSimpleMax              float64
	TierMediumMax              float64

	// Validation tuning
	CAEYearMin            int
	CAEYearMax            int
	ReconcileTolerancePct float64

	// Logging configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

// Load reads configuration from the environment. Cloud credentials are
// optional; the pipeline degrades to the local engine without them.
func Load() (*Config, error) {
	config := &Config{
		GoogleCloudProject:    getEnv("GOOGLE_CLOUD_PROJECT", ""),
		GoogleCloudLocation:   getEnv("GOOGLE_CLOUD_LOCATION", "us"),
		DocumentAIProcessorID: getEnv("DOCUMENT_AI_PROCESSOR_ID", ""),
		OpenAIAPIKey:          getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:           getEnv("OPENAI_MODEL", "gpt-4o-mini"),

		VisionDailyLimit:     getEnvInt("VISION_DAILY_LIMIT", 1000),
		DocumentAIDailyLimit: getEnvInt("DOCUMENT_AI_DAILY_LIMIT", 500),
		RedisURL:             getEnv("REDIS_URL", ""),
		OCRTimeoutSeconds:    getEnvInt("OCR_TIMEOUT_SECONDS", 60),

		ComplexityResolutionWeight: getEnvFloat("COMPLEXITY_RESOLUTION_WEIGHT", 0.2),
		ComplexityContrastWeight:   getEnvFloat("COMPLEXITY_CONTRAST_WEIGHT", 0.3),
		ComplexityEdgeWeight:       getEnvFloat("COMPLEXITY_EDGE_WEIGHT", 0.3),
		ComplexityTextWeight:       getEnvFloat("COMPLEXITY_TEXT_WEIGHT", 0.2),
		TierSimpleMax:              getEnvFloat("TIER_SIMPLE_MAX", 0.3),
		TierMediumMax:              getEnvFloat("TIER_MEDIUM_MAX", 0.6),

		CAEYearMin:            getEnvInt("CAE_YEAR_MIN", 2000),
		CAEYearMax:            getEnvInt("CAE_YEAR_MAX", 2035),
		ReconcileTolerancePct: getEnvFloat("RECONCILE_TOLERANCE_PCT", 1.0),

		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFormat:     getEnv("LOG_FORMAT", "console"),
		LogTimeFormat: getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:     getEnv("LOG_OUTPUT", "stderr"),
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) validate() error {
	if c.TierSimpleMax <= 0 || c.TierMediumMax >= 1 || c.TierSimpleMax >= c.TierMediumMax {
		return fmt.Errorf("tier cut points must satisfy 0 < TIER_SIMPLE_MAX < TIER_MEDIUM_MAX < 1")
	}
	if c.VisionDailyLimit < 0 || c.DocumentAIDailyLimit < 0 {
		return fmt.Errorf("provider daily limits must be non-negative")
	}
	if c.CAEYearMin >= c.CAEYearMax {
		return fmt.Errorf("CAE_YEAR_MIN must be below CAE_YEAR_MAX")
	}
	return nil
}

// GetLoggerConfig returns a logger configuration from the main config.
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}
