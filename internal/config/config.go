// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the resolver process
type Config struct {
	// DNS Server settings
	DNSPort string

	// Resolution log (step records + plot data) destination
	ResolverLogFile string

	// Cache configuration
	Cache CacheConfig

	// Application logging
	Logging LoggingConfig

	// Server behavior
	ShutdownTimeout time.Duration
}

// CacheBackend selects which Cache implementation serves the resolver.
type CacheBackend string

const (
	BackendMemory CacheBackend = "memory"
	BackendRedis  CacheBackend = "redis"
)

// CacheConfig holds cache configuration
type CacheConfig struct {
	Backend CacheBackend

	// Redis settings, used only when Backend is "redis"
	RedisAddress    string
	RedisClientName string
	RedisKeyPrefix  string
}

// LoggingConfig holds application logging configuration
type LoggingConfig struct {
	Level         string
	Directory     string
	AppLogFile    string
	EnableConsole bool
}

// Load creates a new Config with values from environment variables or defaults
func Load() *Config {
	cfg := &Config{
		DNSPort:         "5353",
		ResolverLogFile: "resolver.log",
		ShutdownTimeout: 30 * time.Second,

		Cache: CacheConfig{
			Backend:         BackendMemory,
			RedisAddress:    "localhost:6379",
			RedisClientName: "resolver_cache",
			RedisKeyPrefix:  "iterdns:addr:",
		},

		Logging: LoggingConfig{
			Level:         "info",
			Directory:     "logs",
			AppLogFile:    "app.log",
			EnableConsole: true,
		},
	}

	loadDNSConfig(cfg)
	loadCacheConfig(cfg)
	loadLoggingConfig(cfg)
	loadServerConfig(cfg)

	return cfg
}

// loadDNSConfig loads DNS-specific configuration from environment
func loadDNSConfig(cfg *Config) {
	if env := os.Getenv("DNS_PORT"); env != "" {
		cfg.DNSPort = env
	}

	if env := os.Getenv("RESOLVER_LOG_FILE"); env != "" {
		cfg.ResolverLogFile = env
	}
}

// loadCacheConfig loads cache configuration from environment
func loadCacheConfig(cfg *Config) {
	if env := os.Getenv("CACHE_BACKEND"); env != "" {
		if env == string(BackendMemory) || env == string(BackendRedis) {
			cfg.Cache.Backend = CacheBackend(env)
		}
	}

	if env := os.Getenv("REDIS_ADDRESS"); env != "" {
		cfg.Cache.RedisAddress = env
	}

	if env := os.Getenv("REDIS_CLIENT_NAME"); env != "" {
		cfg.Cache.RedisClientName = env
	}

	if env := os.Getenv("REDIS_KEY_PREFIX"); env != "" {
		cfg.Cache.RedisKeyPrefix = env
	}
}

// loadLoggingConfig loads application logging configuration from environment
func loadLoggingConfig(cfg *Config) {
	if env := os.Getenv("LOG_LEVEL"); env != "" {
		cfg.Logging.Level = env
	}

	if env := os.Getenv("LOG_DIRECTORY"); env != "" {
		cfg.Logging.Directory = env
	}

	if env := os.Getenv("LOG_APP_FILE"); env != "" {
		cfg.Logging.AppLogFile = env
	}

	if env := os.Getenv("LOG_CONSOLE"); env != "" {
		if val, err := strconv.ParseBool(env); err == nil {
			cfg.Logging.EnableConsole = val
		}
	}
}

// loadServerConfig loads server behavior configuration from environment
func loadServerConfig(cfg *Config) {
	if env := os.Getenv("SHUTDOWN_TIMEOUT"); env != "" {
		if val, err := time.ParseDuration(env); err == nil {
			cfg.ShutdownTimeout = val
		}
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.DNSPort == "" {
		return &ValidationError{Field: "DNSPort", Message: "cannot be empty"}
	}

	if port, err := strconv.Atoi(c.DNSPort); err != nil || port <= 0 || port > 65535 {
		return &ValidationError{Field: "DNSPort", Message: "must be a port number between 1 and 65535"}
	}

	if c.ResolverLogFile == "" {
		return &ValidationError{Field: "ResolverLogFile", Message: "cannot be empty"}
	}

	if err := c.Cache.Validate(); err != nil {
		return fmt.Errorf("cache config error: %w", err)
	}

	if c.ShutdownTimeout <= 0 {
		return &ValidationError{Field: "ShutdownTimeout", Message: "must be greater than 0"}
	}

	return nil
}

// Validate validates cache configuration
func (cache *CacheConfig) Validate() error {
	switch cache.Backend {
	case BackendMemory:
		return nil
	case BackendRedis:
		if cache.RedisAddress == "" {
			return &ValidationError{Field: "RedisAddress", Message: "cannot be empty when backend is redis"}
		}
		if cache.RedisClientName == "" {
			return &ValidationError{Field: "RedisClientName", Message: "cannot be empty when backend is redis"}
		}
		return nil
	default:
		return &ValidationError{Field: "Backend", Message: "must be 'memory' or 'redis'"}
	}
}

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation error: %s %s", e.Field, e.Message)
}
