package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config contains all runtime settings for the scam analysis service.
type Config struct {
	BindAddr         string
	ShutdownTimeout  time.Duration
	MetricsNamespace string

	AllowAnyOrigin bool

	DatabaseURL string

	// Rate gate. IdentifierSecret keys the one-way client identifier hash.
	// FailOpen decides what happens when the counter store is unreachable:
	// false (the default) rejects, true admits.
	IdentifierSecret      string
	RateLimitWindow       time.Duration
	RateLimitMax          int
	RateLimitFailOpen     bool
	RateLimitStoreTimeout time.Duration

	// URL reputation. An empty API key disables the checker entirely;
	// every URL then classifies as unknown.
	SafeBrowsingAPIKey   string
	SafeBrowsingEndpoint string
	URLCheckTimeout      time.Duration
	URLCheckCacheTTL     time.Duration
	URLCheckCacheSize    int

	// Verdict generation. An empty API key selects the offline heuristic
	// generator.
	OpenAIAPIKey   string
	OpenAIBaseURL  string
	OpenAIModel    string
	VerdictTimeout time.Duration

	AnalysisDeadline time.Duration
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:              envOrDefault("APP_BIND_ADDR", ":8080"),
		MetricsNamespace:      envOrDefault("APP_METRICS_NAMESPACE", "scamscope"),
		AllowAnyOrigin:        false,
		DatabaseURL:           stringsTrimSpace("DATABASE_URL"),
		IdentifierSecret:      stringsTrimSpace("RATE_LIMIT_IDENTIFIER_SECRET"),
		RateLimitWindow:       time.Minute,
		RateLimitMax:          10,
		RateLimitFailOpen:     false,
		RateLimitStoreTimeout: 2 * time.Second,
		SafeBrowsingAPIKey:    stringsTrimSpace("SAFEBROWSING_API_KEY"),
		SafeBrowsingEndpoint:  stringsTrimSpace("SAFEBROWSING_ENDPOINT"),
		URLCheckTimeout:       5 * time.Second,
		URLCheckCacheTTL:      5 * time.Minute,
		URLCheckCacheSize:     1024,
		OpenAIAPIKey:          stringsTrimSpace("OPENAI_API_KEY"),
		OpenAIBaseURL:         stringsTrimSpace("OPENAI_BASE_URL"),
		OpenAIModel:           envOrDefault("OPENAI_MODEL", ""),
		VerdictTimeout:        30 * time.Second,
		AnalysisDeadline:      30 * time.Second,
		ShutdownTimeout:       15 * time.Second,
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
	cfg.RateLimitWindow, err = durationFromEnv("RATE_LIMIT_WINDOW", cfg.RateLimitWindow)
	if err != nil {
		return Config{}, err
	}
	cfg.RateLimitMax, err = intFromEnv("RATE_LIMIT_MAX", cfg.RateLimitMax)
	if err != nil {
		return Config{}, err
	}
	cfg.RateLimitFailOpen, err = boolFromEnv("RATE_LIMIT_FAIL_OPEN", cfg.RateLimitFailOpen)
	if err != nil {
		return Config{}, err
	}
	cfg.RateLimitStoreTimeout, err = durationFromEnv("RATE_LIMIT_STORE_TIMEOUT", cfg.RateLimitStoreTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.URLCheckTimeout, err = durationFromEnv("URLCHECK_TIMEOUT", cfg.URLCheckTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.URLCheckCacheTTL, err = durationFromEnv("URLCHECK_CACHE_TTL", cfg.URLCheckCacheTTL)
	if err != nil {
		return Config{}, err
	}
	cfg.URLCheckCacheSize, err = intFromEnv("URLCHECK_CACHE_SIZE", cfg.URLCheckCacheSize)
	if err != nil {
		return Config{}, err
	}
	cfg.VerdictTimeout, err = durationFromEnv("VERDICT_TIMEOUT", cfg.VerdictTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.AnalysisDeadline, err = durationFromEnv("ANALYSIS_DEADLINE", cfg.AnalysisDeadline)
	if err != nil {
		return Config{}, err
	}

	if cfg.RateLimitWindow < time.Second {
		return Config{}, fmt.Errorf("RATE_LIMIT_WINDOW must be at least 1s")
	}
	if cfg.RateLimitMax <= 0 {
		return Config{}, fmt.Errorf("RATE_LIMIT_MAX must be positive")
	}
	if cfg.URLCheckCacheSize <= 0 {
		return Config{}, fmt.Errorf("URLCHECK_CACHE_SIZE must be positive")
	}
	if cfg.AnalysisDeadline < time.Second {
		return Config{}, fmt.Errorf("ANALYSIS_DEADLINE must be at least 1s")
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
