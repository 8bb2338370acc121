package redis

import (
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNoClient is returned when an operation names a client that was never
// registered with NewClient.
var ErrNoClient = errors.New("redis: no such client")

// Nil is re-exported so callers can detect key misses without importing
// go-redis directly.
const Nil = redis.Nil

// GetFrom retrieves a key's value from a specific named client
func GetFrom(clientName, key string) ([]byte, error) {
	client := GetClient(clientName)
	if client == nil {
		return nil, ErrNoClient
	}
	return client.Get(ctx, key).Bytes()
}

// SetEXOn sets a key's value with an expiration time on a specific client
func SetEXOn(clientName, key string, value interface{}, seconds int) error {
	client := GetClient(clientName)
	if client == nil {
		return ErrNoClient
	}
	return client.Set(ctx, key, value, time.Duration(seconds)*time.Second).Err()
}

// DeleteOn removes keys from a specific client
func DeleteOn(clientName string, keys ...string) error {
	client := GetClient(clientName)
	if client == nil {
		return ErrNoClient
	}
	return client.Del(ctx, keys...).Err()
}

// ExistsOn checks if a key exists on a specific client
func ExistsOn(clientName, key string) (bool, error) {
	client := GetClient(clientName)
	if client == nil {
		return false, ErrNoClient
	}
	result, err := client.Exists(ctx, key).Result()
	return result > 0, err
}

// PingClient checks the connection to a specific Redis client
func PingClient(clientName string) error {
	client := GetClient(clientName)
	if client == nil {
		return ErrNoClient
	}
	return client.Ping(ctx).Err()
}

// ScanFrom returns all keys matching pattern on a specific client, using
// SCAN rather than KEYS so large keyspaces do not block the server.
func ScanFrom(clientName, pattern string) ([]string, error) {
	client := GetClient(clientName)
	if client == nil {
		return nil, ErrNoClient
	}

	var keys []string
	var cursor uint64
	for {
		batch, next, err := client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return nil, err
		}
		keys = append(keys, batch...)
		if next == 0 {
			return keys, nil
		}
		cursor = next
	}
}
