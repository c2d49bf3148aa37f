// Package cache stores search responses in Redis.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds Redis connection and cache configuration.
type Config struct {
	Address   string
	Password  string
	DB        int
	TTL       time.Duration
	KeyPrefix string
}

// ErrEmptyAddress is returned when Redis address is not configured.
var ErrEmptyAddress = errors.New("redis address is required")

const (
	connectionTimeout = 5 * time.Second
	defaultTTL        = 5 * time.Minute
)

// NewClient creates a Redis client and verifies the connection.
func NewClient(ctx context.Context, cfg Config) (*redis.Client, error) {
	if cfg.Address == "" {
		return nil, ErrEmptyAddress
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, connectionTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return client, nil
}

// Cache stores JSON-encodable values under string keys.
type Cache interface {
	// Get decodes the value at key into dst and reports whether it was present.
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, value any) error
}

// RedisCache implements Cache with per-entry expiry.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// New creates a RedisCache over client.
func New(client *redis.Client, cfg Config) *RedisCache {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &RedisCache{client: client, ttl: ttl, prefix: cfg.KeyPrefix}
}

// Get implements Cache.
func (c *RedisCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get %s: %w", key, err)
	}

	if unmarshalErr := json.Unmarshal(data, dst); unmarshalErr != nil {
		return false, fmt.Errorf("cache decode %s: %w", key, unmarshalErr)
	}
	return true, nil
}

// Set implements Cache.
func (c *RedisCache) Set(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}
	if setErr := c.client.Set(ctx, c.prefix+key, data, c.ttl).Err(); setErr != nil {
		return fmt.Errorf("cache set %s: %w", key, setErr)
	}
	return nil
}

// Key builds a cache key for a search operation. The query text is hashed so keys
// stay short and free of separators.
func Key(operation, queryText string, page, size int) string {
	sum := sha256.Sum256([]byte(queryText))
	return strings.Join([]string{
		operation,
		strconv.Itoa(page),
		strconv.Itoa(size),
		hex.EncodeToString(sum[:16]),
	}, ":")
}
