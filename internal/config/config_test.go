// internal/config/config_test.go
package config

import (
	"errors"
	"testing"
	"time"

	"github.com/powerman/check"
)

func TestLoadDefaults(tt *testing.T) {
	t := check.T(tt)

	cfg := Load()
	t.EQ(cfg.DNSPort, "5353")
	t.EQ(cfg.ResolverLogFile, "resolver.log")
	t.EQ(cfg.Cache.Backend, BackendMemory)
	t.EQ(cfg.ShutdownTimeout, 30*time.Second)
	t.Nil(cfg.Validate())
}

func TestLoadFromEnvironment(tt *testing.T) {
	t := check.T(tt)

	t.Setenv("DNS_PORT", "1053")
	t.Setenv("RESOLVER_LOG_FILE", "/tmp/run.log")
	t.Setenv("CACHE_BACKEND", "redis")
	t.Setenv("REDIS_ADDRESS", "redis.internal:6379")
	t.Setenv("LOG_CONSOLE", "false")
	t.Setenv("SHUTDOWN_TIMEOUT", "5s")

	cfg := Load()
	t.EQ(cfg.DNSPort, "1053")
	t.EQ(cfg.ResolverLogFile, "/tmp/run.log")
	t.EQ(cfg.Cache.Backend, BackendRedis)
	t.EQ(cfg.Cache.RedisAddress, "redis.internal:6379")
	t.False(cfg.Logging.EnableConsole)
	t.EQ(cfg.ShutdownTimeout, 5*time.Second)
	t.Nil(cfg.Validate())
}

func TestLoadIgnoresUnknownCacheBackend(tt *testing.T) {
	t := check.T(tt)

	t.Setenv("CACHE_BACKEND", "memcached")

	cfg := Load()
	t.EQ(cfg.Cache.Backend, BackendMemory)
}

func TestValidate(tt *testing.T) {
	t := check.T(tt)

	cases := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"empty port", func(c *Config) { c.DNSPort = "" }, "DNSPort"},
		{"non-numeric port", func(c *Config) { c.DNSPort = "dns" }, "DNSPort"},
		{"port out of range", func(c *Config) { c.DNSPort = "70000" }, "DNSPort"},
		{"empty log file", func(c *Config) { c.ResolverLogFile = "" }, "ResolverLogFile"},
		{"zero shutdown timeout", func(c *Config) { c.ShutdownTimeout = 0 }, "ShutdownTimeout"},
		{"unknown cache backend", func(c *Config) { c.Cache.Backend = "etcd" }, "Backend"},
		{"redis without address", func(c *Config) {
			c.Cache.Backend = BackendRedis
			c.Cache.RedisAddress = ""
		}, "RedisAddress"},
		{"redis without client name", func(c *Config) {
			c.Cache.Backend = BackendRedis
			c.Cache.RedisClientName = ""
		}, "RedisClientName"},
	}

	for _, tc := range cases {
		cfg := Load()
		tc.mutate(cfg)

		err := cfg.Validate()
		t.NotNil(err, tc.name)

		var verr *ValidationError
		t.Must(errors.As(err, &verr), tc.name)
		t.EQ(verr.Field, tc.field, tc.name)
	}
}

func TestMain(m *testing.M) {
	check.TestMain(m)
}
