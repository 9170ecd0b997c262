// Package cache memoizes AI analyses and campus analytics behind a small byte-oriented
// interface with in-process, Redis and no-op backends.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Cache stores opaque values under string keys. A miss is reported as (nil, false, nil).
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Backend names accepted by New.
const (
	BackendLocal = "local"
	BackendRedis = "redis"
	BackendNone  = "none"
)

// Config selects and sizes a cache backend.
type Config struct {
	Backend       string
	MaxSizeMB     int
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	KeyPrefix     string
}

// New builds the backend named by cfg.Backend. An empty backend selects the local cache.
func New(ctx context.Context, cfg Config) (Cache, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", BackendLocal:
		return NewLocal(cfg.MaxSizeMB)
	case BackendRedis:
		return NewRedis(ctx, RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.KeyPrefix,
		})
	case BackendNone:
		return NewNoop(), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

// Key derives a fixed-length key from a namespace and its parts.
func Key(namespace string, parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return namespace + ":" + hex.EncodeToString(h.Sum(nil))
}

// GetJSON reads and decodes a JSON value. Undecodable entries are reported as misses.
func GetJSON[T any](ctx context.Context, c Cache, key string) (T, bool, error) {
	var v T
	data, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		return v, false, err
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, false, nil
	}
	return v, true, nil
}

// SetJSON encodes and stores a JSON value.
func SetJSON(ctx context.Context, c Cache, key string, v interface{}, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode cache value: %w", err)
	}
	return c.Set(ctx, key, data, ttl)
}
