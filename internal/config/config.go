package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config contains all runtime settings for the study tracking service.
type Config struct {
	BindAddr         string
	ShutdownTimeout  time.Duration
	MetricsNamespace string

	AllowAnyOrigin bool

	DatabaseURL string

	OpenAIAPIKey         string
	OpenAIBaseURL        string
	OpenAIModel          string
	OpenAITemperature    float64
	OpenAIRequestTimeout time.Duration
	OpenAIMaxRetries     int
	OpenAIRetryBaseDelay time.Duration

	RateLimitPerMinute int
	RateRetryDelay     time.Duration

	FeedbackMinStudySeconds int
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:             envOrDefault("APP_BIND_ADDR", ":8080"),
		MetricsNamespace:     envOrDefault("APP_METRICS_NAMESPACE", "studymate"),
		AllowAnyOrigin:       false,
		DatabaseURL:          stringsTrimSpace("DATABASE_URL"),
		OpenAIAPIKey:         stringsTrimSpace("OPENAI_API_KEY"),
		OpenAIBaseURL:        envOrDefault("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIModel:          envOrDefault("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAITemperature:    0.7,
		OpenAIRequestTimeout: 30 * time.Second,
		OpenAIMaxRetries:     3,
		OpenAIRetryBaseDelay: time.Second,
		RateLimitPerMinute:   20,
		RateRetryDelay:       5 * time.Second,
		// Feedback on less than two minutes of study is not worth an API call.
		FeedbackMinStudySeconds: 120,
		ShutdownTimeout:         15 * time.Second,
	}

	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("APP_ALLOW_ANY_ORIGIN", cfg.AllowAnyOrigin)
	if err != nil {
		return Config{}, err
	}
	cfg.OpenAIRequestTimeout, err = durationFromEnv("OPENAI_REQUEST_TIMEOUT", cfg.OpenAIRequestTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.OpenAIRetryBaseDelay, err = durationFromEnv("OPENAI_RETRY_BASE_DELAY", cfg.OpenAIRetryBaseDelay)
	if err != nil {
		return Config{}, err
	}
	cfg.OpenAIMaxRetries, err = intFromEnv("OPENAI_MAX_RETRIES", cfg.OpenAIMaxRetries)
	if err != nil {
		return Config{}, err
	}
	cfg.RateLimitPerMinute, err = intFromEnv("OPENAI_RATE_LIMIT_PER_MINUTE", cfg.RateLimitPerMinute)
	if err != nil {
		return Config{}, err
	}
	cfg.RateRetryDelay, err = durationFromEnv("OPENAI_RATE_RETRY_DELAY", cfg.RateRetryDelay)
	if err != nil {
		return Config{}, err
	}
	cfg.FeedbackMinStudySeconds, err = intFromEnv("FEEDBACK_MIN_STUDY_SECONDS", cfg.FeedbackMinStudySeconds)
	if err != nil {
		return Config{}, err
	}

	if cfg.OpenAIMaxRetries <= 0 {
		return Config{}, fmt.Errorf("OPENAI_MAX_RETRIES must be positive")
	}
	if cfg.OpenAIRequestTimeout <= 0 {
		return Config{}, fmt.Errorf("OPENAI_REQUEST_TIMEOUT must be positive")
	}
	if cfg.RateLimitPerMinute <= 0 {
		return Config{}, fmt.Errorf("OPENAI_RATE_LIMIT_PER_MINUTE must be positive")
	}
	if cfg.FeedbackMinStudySeconds < 0 {
		return Config{}, fmt.Errorf("FEEDBACK_MIN_STUDY_SECONDS must be >= 0")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func stringsTrimSpace(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(stringsTrimSpace(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}
