// cmd/dns-resolver/main.go
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"iterdns.io/internal/cache"
	"iterdns.io/internal/config"
	"iterdns.io/internal/dns"
	"iterdns.io/internal/logging"
	"iterdns.io/internal/querylog"
	"iterdns.io/internal/redis"
	"iterdns.io/internal/resolver"
)

func main() {
	// Load configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	// Initialize application logging
	logConfig := &logging.Config{
		Level:         logging.LogLevel(strings.ToUpper(cfg.Logging.Level)),
		Directory:     cfg.Logging.Directory,
		AppLogFile:    cfg.Logging.AppLogFile,
		EnableConsole: cfg.Logging.EnableConsole,
	}
	if err := logging.Initialize(logConfig); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}

	logging.Info("main", "starting iterative DNS resolver", "port", cfg.DNSPort)

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Open the resolution log (step records + plot data)
	qlog, err := querylog.New(cfg.ResolverLogFile)
	if err != nil {
		log.Fatalf("Failed to open resolution log: %v", err)
	}

	// Select the cache backend
	var resolverCache cache.Cache
	switch cfg.Cache.Backend {
	case config.BackendRedis:
		redis.NewClient(cfg.Cache.RedisClientName, cfg.Cache.RedisAddress, true)
		if err := redis.PingClient(cfg.Cache.RedisClientName); err != nil {
			log.Fatalf("Redis cache backend unreachable at %s: %v", cfg.Cache.RedisAddress, err)
		}
		resolverCache = cache.NewRedisCache(cfg.Cache.RedisClientName, cfg.Cache.RedisKeyPrefix)
		logging.Info("main", "cache backend: redis", "address", cfg.Cache.RedisAddress)
	default:
		resolverCache = cache.NewMemoryCache()
		logging.Info("main", "cache backend: memory")
	}

	// Create the resolution engine and the UDP server
	engine := resolver.NewResolver(resolverCache, qlog, nil)

	dnsServer := dns.NewServer(engine, qlog, &dns.Config{Port: cfg.DNSPort})

	// Set up graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- dnsServer.Start(ctx)
	}()

	// Start statistics reporting
	go reportStats(ctx, dnsServer, resolverCache)

	// Wait for shutdown signal or server failure
	select {
	case <-sigChan:
		logging.Info("main", "received shutdown signal, starting graceful shutdown")
	case err := <-serverDone:
		if err != nil {
			logging.Error("main", "DNS server failed", err)
		}
		serverDone = nil
	}

	// Cancel context to stop the server loop; it prints the plot summary
	// before releasing the socket.
	cancel()

	if serverDone != nil {
		shutdownTimer := time.NewTimer(cfg.ShutdownTimeout)
		defer shutdownTimer.Stop()

		select {
		case err := <-serverDone:
			if err != nil {
				logging.Error("main", "error during DNS server shutdown", err)
			}
		case <-shutdownTimer.C:
			logging.Warn("main", "shutdown timeout exceeded")
		}
	}

	if err := resolverCache.Close(); err != nil {
		logging.Error("main", "error closing cache", err)
	}

	if err := qlog.Close(); err != nil {
		logging.Error("main", "error closing resolution log", err)
	}

	logging.Info("main", "resolver shutdown completed")
	logging.GetLogger().Close()
}

// reportStats periodically reports server and cache statistics
func reportStats(ctx context.Context, dnsServer *dns.Server, resolverCache cache.Cache) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			serverStats := dnsServer.GetStats()
			logging.Info("main", "server stats",
				"received", serverStats.QueriesReceived,
				"answered", serverStats.QueriesAnswered,
				"servfail", serverStats.QueriesServfail,
				"dropped", serverStats.QueriesDropped)

			cacheStats := resolverCache.Stats()
			logging.Info("main", "cache stats",
				"entries", cacheStats.Entries,
				"hits", cacheStats.Hits,
				"misses", cacheStats.Misses,
				"hit_rate", cacheStats.HitRate)
		}
	}
}
