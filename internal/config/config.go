package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"eduparser/internal/logger"
)

type Config struct {
	// Groq / OpenAI-compatible extraction endpoint
	GroqAPIKeys       []string // primary plus fallback keys, tried in order
	GroqBaseURL       string
	GroqModel         string
	GroqFallbackModel string

	// Extraction behavior
	Temperature    float32
	MaxTokens      int
	MaxRetries     int
	DefaultCountry string

	// Optional Google Cloud Vision OCR assist
	OCRAssist             bool
	GoogleCredentials     string // inline JSON
	GoogleCredentialsFile string

	// Logging Configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

func Load() (*Config, error) {
	config := &Config{
		GroqAPIKeys:           apiKeysFromEnv(),
		GroqBaseURL:           getEnv("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
		GroqModel:             getEnv("GROQ_MODEL", "meta-llama/llama-4-scout-17b-16e-instruct"),
		GroqFallbackModel:     getEnv("GROQ_FALLBACK_MODEL", ""),
		Temperature:           getEnvFloat("GROQ_TEMPERATURE", 0.05),
		MaxTokens:             getEnvInt("GROQ_MAX_TOKENS", 3000),
		MaxRetries:            getEnvInt("EXTRACTION_MAX_RETRIES", 3),
		DefaultCountry:        getEnv("DEFAULT_COUNTRY_CODE", "PK"),
		OCRAssist:             getEnv("OCR_ASSIST", "false") == "true",
		GoogleCredentials:     getEnv("GOOGLE_CREDENTIALS", ""),
		GoogleCredentialsFile: getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		LogFormat:             getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:         getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:             getEnv("LOG_OUTPUT", "stderr"),
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) validate() error {
	if len(c.GroqAPIKeys) == 0 {
		return fmt.Errorf("GROQ_API_KEY is required")
	}
	if c.MaxRetries < 1 {
		return fmt.Errorf("EXTRACTION_MAX_RETRIES must be at least 1")
	}
	return nil
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

// apiKeysFromEnv collects the primary key and the numbered fallback keys.
// Duplicate values are dropped so a misconfigured .env does not burn a
// fallback slot on the same key.
func apiKeysFromEnv() []string {
	var keys []string
	for _, name := range []string{"GROQ_API_KEY", "GROQ_API_KEY_2", "GROQ_API_KEY_3"} {
		key := strings.TrimSpace(os.Getenv(name))
		if key == "" {
			continue
		}
		duplicate := false
		for _, existing := range keys {
			if existing == key {
				duplicate = true
				break
			}
		}
		if !duplicate {
			keys = append(keys, key)
		}
	}
	return keys
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

func getEnvFloat(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(parsed)
		}
	}
	return defaultValue
}
