// Package config provides environment-driven configuration for the search service.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
)

// Secret wraps a sensitive string to prevent accidental logging or marshalling.
type Secret string

// String implements fmt.Stringer, returning a redacted placeholder.
func (s Secret) String() string { return "[REDACTED]" }

// GoString implements fmt.GoStringer, returning a redacted placeholder.
func (s Secret) GoString() string { return "[REDACTED]" }

// MarshalText implements encoding.TextMarshaler, returning a redacted placeholder.
func (s Secret) MarshalText() ([]byte, error) { return []byte("[REDACTED]"), nil }

// Value returns the underlying secret string.
func (s Secret) Value() string { return string(s) }

// Config holds all application configuration values.
type Config struct {
	DatabaseURL Secret
	Port        string
	ListenHost  string
	CORSOrigins []string
	LogLevel    string

	EmbeddingEndpoint   string
	EmbeddingModel      string
	EmbeddingDimensions int

	CacheBackend  string // "lru" or "redis"
	RedisURL      string
	CacheCapacity int
	DefaultTTLMs  int64

	APIKey Secret

	WLexical          float64
	WVector           float64
	WAuthority        float64
	WFreshness        float64
	CandidatePoolSize int
	DefaultK          int
	DeadlineMs        int64

	MirrorAdapter string // "", "meilisearch", "typesense", "opensearch"
	MirrorURL     string
	MirrorAPIKey  Secret
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL: Secret(envOrDefault("DATABASE_URL", "")),
		Port:        envOrDefault("PORT", "8080"),
		ListenHost:  envOrDefault("LISTEN_HOST", "127.0.0.1"),
		LogLevel:    envOrDefault("LOG_LEVEL", "info"),

		EmbeddingEndpoint: envOrDefault("EMBEDDING_ENDPOINT", "http://localhost:11434"),
		EmbeddingModel:    envOrDefault("EMBEDDING_MODEL", "qwen3-embedding:0.6b"),

		CacheBackend: envOrDefault("CACHE_BACKEND", "lru"),
		RedisURL:     envOrDefault("REDIS_URL", "redis://127.0.0.1:6379/0"),

		APIKey: Secret(envOrDefault("API_KEY", "")),

		MirrorAdapter: envOrDefault("MIRROR_ADAPTER", ""),
		MirrorURL:     envOrDefault("MIRROR_URL", ""),
		MirrorAPIKey:  Secret(envOrDefault("MIRROR_API_KEY", "")),
	}

	var err error

	if cfg.EmbeddingDimensions, err = intOrDefault("EMBEDDING_DIMENSIONS", 1536, 1, 4096); err != nil {
		return nil, err
	}

	if cfg.CacheCapacity, err = intOrDefault("CACHE_CAPACITY", 10_000, 1, 10_000_000); err != nil {
		return nil, err
	}

	ttl, err := strconv.ParseInt(envOrDefault("DEFAULT_TTL_MS", "300000"), 10, 64)
	if err != nil || ttl < 1 {
		return nil, fmt.Errorf("DEFAULT_TTL_MS must be a positive integer")
	}
	cfg.DefaultTTLMs = ttl

	deadline, err := strconv.ParseInt(envOrDefault("DEADLINE_MS", "1500"), 10, 64)
	if err != nil || deadline < 1 {
		return nil, fmt.Errorf("DEADLINE_MS must be a positive integer")
	}
	cfg.DeadlineMs = deadline

	if cfg.WLexical, err = floatOrDefault("W_LEXICAL", 0.45); err != nil {
		return nil, err
	}
	if cfg.WVector, err = floatOrDefault("W_VECTOR", 0.45); err != nil {
		return nil, err
	}
	if cfg.WAuthority, err = floatOrDefault("W_AUTHORITY", 0.05); err != nil {
		return nil, err
	}
	if cfg.WFreshness, err = floatOrDefault("W_FRESHNESS", 0.05); err != nil {
		return nil, err
	}

	if cfg.CandidatePoolSize, err = intOrDefault("CANDIDATE_POOL_SIZE", 50, 1, 100_000); err != nil {
		return nil, err
	}
	if cfg.DefaultK, err = intOrDefault("DEFAULT_K", 10, 1, 200); err != nil {
		return nil, err
	}

	origins := envOrDefault("CORS_ORIGINS", "http://localhost:3000")
	cfg.CORSOrigins = strings.Split(origins, ",")

	for i, o := range cfg.CORSOrigins {
		cfg.CORSOrigins[i] = strings.TrimSpace(o)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// Addr returns the listen address in host:port format.
func (c *Config) Addr() string {
	return c.ListenHost + ":" + c.Port
}

func (c *Config) validate() error {
	if err := c.validateDatabase(); err != nil {
		return err
	}

	if err := c.validateNetwork(); err != nil {
		return err
	}

	if err := c.validateEmbedding(); err != nil {
		return err
	}

	if err := c.validateCORS(); err != nil {
		return err
	}

	if err := c.validateCache(); err != nil {
		return err
	}

	if err := c.validateMirror(); err != nil {
		return err
	}

	return nil
}

func (c *Config) validateDatabase() error {
	if c.DatabaseURL.Value() == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	dbURL, err := url.Parse(c.DatabaseURL.Value())
	if err != nil {
		return fmt.Errorf("DATABASE_URL is not a valid URL: %w", err)
	}

	if dbURL.Scheme != "postgres" && dbURL.Scheme != "postgresql" {
		return fmt.Errorf("DATABASE_URL scheme must be postgres:// or postgresql://")
	}

	if dbURL.Hostname() == "" {
		return fmt.Errorf("DATABASE_URL must include a host")
	}

	return nil
}

func (c *Config) validateNetwork() error {
	port, err := strconv.Atoi(c.Port)
	if err != nil {
		return fmt.Errorf("PORT must be a valid integer: %w", err)
	}

	if port < 1 || port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}

	return nil
}

func (c *Config) validateEmbedding() error {
	if _, err := url.ParseRequestURI(c.EmbeddingEndpoint); err != nil {
		return fmt.Errorf("EMBEDDING_ENDPOINT is not a valid URL: %w", err)
	}

	return nil
}

func (c *Config) validateCORS() error {
	for _, origin := range c.CORSOrigins {
		if origin == "*" {
			return fmt.Errorf("CORS_ORIGINS must not contain wildcard '*'")
		}
		if strings.ContainsAny(origin, "*?[]") {
			return fmt.Errorf("CORS_ORIGINS must not contain glob characters (*?[]), got %q", origin)
		}
		u, err := url.Parse(origin)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("CORS_ORIGINS contains invalid origin %q (must have scheme and host)", origin)
		}
	}

	return nil
}

func (c *Config) validateCache() error {
	switch c.CacheBackend {
	case "lru":
		return nil
	case "redis":
		if _, err := url.Parse(c.RedisURL); err != nil {
			return fmt.Errorf("REDIS_URL is not a valid URL: %w", err)
		}

		return nil
	default:
		return fmt.Errorf("CACHE_BACKEND must be 'lru' or 'redis', got %q", c.CacheBackend)
	}
}

func (c *Config) validateMirror() error {
	switch c.MirrorAdapter {
	case "", "meilisearch", "typesense", "opensearch":
	default:
		return fmt.Errorf("MIRROR_ADAPTER must be one of '', 'meilisearch', 'typesense', 'opensearch', got %q", c.MirrorAdapter)
	}

	if c.MirrorAdapter != "" && c.MirrorURL == "" {
		return fmt.Errorf("MIRROR_URL is required when MIRROR_ADAPTER is set")
	}

	return nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func intOrDefault(key string, fallback, minVal, maxVal int) (int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback, nil
	}

	v, err := strconv.Atoi(raw)
	if err != nil || v < minVal || v > maxVal {
		return 0, fmt.Errorf("%s must be an integer between %d and %d", key, minVal, maxVal)
	}

	return v, nil
}

func floatOrDefault(key string, fallback float64) (float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback, nil
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%s must be a non-negative number", key)
	}

	return v, nil
}
