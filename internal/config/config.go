// Package config populates service settings from environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Cache backend names accepted in CACHE_BACKEND.
const (
	CacheMemory = "memory"
	CacheFile   = "file"
	CacheRedis  = "redis"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Roster source.
	SheetCSVURL string

	// Provider endpoints and etiquette.
	NominatimBaseURL string
	OverpassBaseURL  string
	CensusBaseURL    string
	UserAgent        string
	ProviderTimeout  time.Duration
	RequestDelay     time.Duration
	RetryCount       int
	RetryBackoff     time.Duration

	MaxTokensPerClient int

	// Precomputed artifact and cache.
	BundlePath   string
	CacheBackend string
	CacheFile    string
	RedisAddr    string

	PrefetchEnabled bool
	PrefetchTimeout time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	providerTimeout, err := parseDuration("PROVIDER_TIMEOUT", "15s")
	if err != nil {
		return nil, err
	}
	requestDelay, err := parseDuration("REQUEST_DELAY", "500ms")
	if err != nil {
		return nil, err
	}
	retryBackoff, err := parseDuration("RETRY_BACKOFF", "1s")
	if err != nil {
		return nil, err
	}
	prefetchTimeout, err := parseDuration("PREFETCH_TIMEOUT", "60s")
	if err != nil {
		return nil, err
	}
	retryCount, err := parseInt("RETRY_COUNT", 3)
	if err != nil {
		return nil, err
	}
	maxTokens, err := parseInt("MAX_TOKENS_PER_CLIENT", 12)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		SheetCSVURL: os.Getenv("SHEET_CSV_URL"),

		NominatimBaseURL: envOrDefault("NOMINATIM_BASE_URL", "https://nominatim.openstreetmap.org"),
		OverpassBaseURL:  envOrDefault("OVERPASS_BASE_URL", "https://overpass-api.de/api/interpreter"),
		CensusBaseURL:    envOrDefault("CENSUS_BASE_URL", "https://tigerweb.geo.census.gov/arcgis/rest/services/TIGERweb/tigerWMS_Current/MapServer/2/query"),
		UserAgent:        envOrDefault("USER_AGENT", "service-area-service/1.0"),
		ProviderTimeout:  providerTimeout,
		RequestDelay:     requestDelay,
		RetryCount:       retryCount,
		RetryBackoff:     retryBackoff,

		MaxTokensPerClient: maxTokens,

		BundlePath:   envOrDefault("BUNDLE_PATH", "data/service-areas.json"),
		CacheBackend: envOrDefault("CACHE_BACKEND", CacheMemory),
		CacheFile:    envOrDefault("CACHE_FILE", "data/service-area-cache.json"),
		RedisAddr:    envOrDefault("REDIS_ADDR", "localhost:6379"),

		PrefetchEnabled: envOrDefault("PREFETCH_ENABLED", "true") == "true",
		PrefetchTimeout: prefetchTimeout,
	}

	if cfg.SheetCSVURL == "" {
		return nil, errors.New("SHEET_CSV_URL is required")
	}
	switch cfg.CacheBackend {
	case CacheMemory, CacheFile, CacheRedis:
	default:
		return nil, fmt.Errorf("invalid CACHE_BACKEND %q", cfg.CacheBackend)
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, fallback))
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseInt(key string, fallback int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}
