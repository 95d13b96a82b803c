// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"os"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// JWTConfig provides JWT validation settings for middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// ProviderConfig provides settings for the external place-data provider.
// An empty API key switches the adapter to its synthetic fallback generator.
type ProviderConfig interface {
	GetSerpAPIKey() string
	GetSerpAPIBaseURL() string
	GetSearchPageSize() int
}

// WahaConfig provides settings for the WAHA messaging-capability validator.
type WahaConfig interface {
	GetWahaURL() string
	GetWahaAPIKey() string
	GetWahaSession() string
	IsWahaEnabled() bool
}

// QuotaConfig provides settings for the quota gate.
type QuotaConfig interface {
	GetQuotaCacheTTL() time.Duration
}

// SchedulerConfig provides settings for the background job scheduler.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env              string
	HTTPAddr         string
	DatabaseURL      string
	JWTAccessSecret  string
	CORSAllowAll     bool
	CORSOrigins      []string
	CORSAllowCreds   bool
	SerpAPIKey       string
	SerpAPIBaseURL   string
	SearchPageSize   int
	WahaURL          string
	WahaAPIKey       string
	WahaSession      string
	QuotaCacheTTL    time.Duration
	RedisURL         string
	RedisTLSInsecure bool
	AsynqQueueName   string
	AsynqConcurrency int
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// JWTConfig implementation
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// ProviderConfig implementation
func (c *Config) GetSerpAPIKey() string     { return c.SerpAPIKey }
func (c *Config) GetSerpAPIBaseURL() string { return c.SerpAPIBaseURL }
func (c *Config) GetSearchPageSize() int    { return c.SearchPageSize }

// WahaConfig implementation
func (c *Config) GetWahaURL() string    { return c.WahaURL }
func (c *Config) GetWahaAPIKey() string { return c.WahaAPIKey }
func (c *Config) GetWahaSession() string {
	if c.WahaSession == "" {
		return "default"
	}
	return c.WahaSession
}
func (c *Config) IsWahaEnabled() bool { return c.WahaURL != "" }

// QuotaConfig implementation
func (c *Config) GetQuotaCacheTTL() time.Duration { return c.QuotaCacheTTL }

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string      { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int  { return c.AsynqConcurrency }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:              getEnv("APP_ENV", "development"),
		HTTPAddr:         getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		JWTAccessSecret:  getEnv("JWT_ACCESS_SECRET", ""),
		CORSAllowAll:     corsAllowAll,
		CORSOrigins:      corsOrigins,
		CORSAllowCreds:   strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		SerpAPIKey:       getEnv("SERPAPI_KEY", ""),
		SerpAPIBaseURL:   getEnv("SERPAPI_BASE_URL", "https://serpapi.com/search.json"),
		SearchPageSize:   mustInt(getEnv("SEARCH_PAGE_SIZE", "20")),
		WahaURL:          getEnv("WAHA_URL", ""),
		WahaAPIKey:       getEnv("WAHA_API_KEY", ""),
		WahaSession:      getEnv("WAHA_SESSION", "default"),
		QuotaCacheTTL:    mustDuration(getEnv("QUOTA_CACHE_TTL", "5m")),
		RedisURL:         getEnv("REDIS_URL", ""),
		RedisTLSInsecure: strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:   getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency: mustInt(getEnv("ASYNQ_CONCURRENCY", "10")),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTAccessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.SearchPageSize < 1 {
		return nil, fmt.Errorf("SEARCH_PAGE_SIZE must be positive")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
