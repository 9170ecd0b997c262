package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/rs/zerolog/log"
)

const defaultMaxSizeMB = 64

// Local is an in-process cache backed by ristretto. Values are costed by their byte length.
type Local struct {
	client *ristretto.Cache
}

// NewLocal creates a local cache holding roughly maxSizeMB of values.
func NewLocal(maxSizeMB int) (*Local, error) {
	if maxSizeMB <= 0 {
		maxSizeMB = defaultMaxSizeMB
	}
	maxCost := int64(maxSizeMB) * 1024 * 1024

	client, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: maxCost / 1024 * 10, // ~10 counters per expected 1KB entry
		MaxCost:     maxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create local cache: %w", err)
	}

	log.Info().Int("max_size_mb", maxSizeMB).Msg("Local cache initialized")
	return &Local{client: client}, nil
}

// Get returns a copy-free view of the cached value; callers must not modify it.
func (c *Local) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := c.client.Get(key)
	if !ok {
		return nil, false, nil
	}
	data, ok := v.([]byte)
	return data, ok, nil
}

// Set stores value for ttl. A non-positive ttl stores without expiry. Ristretto may reject
// an admission under pressure; that is not an error.
func (c *Local) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	c.client.SetWithTTL(key, value, int64(len(value))+int64(len(key)), ttl)
	c.client.Wait()
	return nil
}

// Delete removes key.
func (c *Local) Delete(_ context.Context, key string) error {
	c.client.Del(key)
	return nil
}

// Close stops ristretto's background goroutines.
func (c *Local) Close() error {
	c.client.Close()
	return nil
}
