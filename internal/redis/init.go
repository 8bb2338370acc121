package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// Context for Redis operations (package private)
	ctx = context.Background()

	// Map of named Redis clients
	clients      = make(map[string]*redis.Client)
	clientsMutex sync.RWMutex
)

// GetContext returns the context used for Redis operations
func GetContext() context.Context {
	return ctx
}

// NewClient creates a Redis client with the given name and address. When
// useExisting is set, a client already registered under name is reused.
func NewClient(name, address string, useExisting bool) *redis.Client {
	if address == "" {
		address = "localhost:6379"
	}

	if useExisting {
		clientsMutex.RLock()
		if client, exists := clients[name]; exists {
			clientsMutex.RUnlock()
			return client
		}
		clientsMutex.RUnlock()
	}

	client := redis.NewClient(&redis.Options{
		Addr:            address,
		Password:        "",
		DB:              0,
		PoolSize:        10,
		MinIdleConns:    3,
		ConnMaxIdleTime: 240 * time.Second,
		DialTimeout:     2 * time.Second,
	})

	clientsMutex.Lock()
	clients[name] = client
	clientsMutex.Unlock()

	return client
}

// GetClient returns a registered Redis client by name, or nil when no client
// has been registered under that name.
func GetClient(name string) *redis.Client {
	clientsMutex.RLock()
	defer clientsMutex.RUnlock()
	return clients[name]
}

// Close closes a specific Redis client by name
func Close(name string) {
	clientsMutex.Lock()
	defer clientsMutex.Unlock()

	if client, exists := clients[name]; exists {
		client.Close()
		delete(clients, name)
	}
}

// CloseAll closes all Redis clients
func CloseAll() {
	clientsMutex.Lock()
	defer clientsMutex.Unlock()

	for name, client := range clients {
		client.Close()
		delete(clients, name)
	}
}
