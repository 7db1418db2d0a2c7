package reports

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is a thin Redis wrapper for report payloads. Failures degrade to a
// cache miss so reporting keeps working when Redis is down.
type Cache struct {
	client *redis.Client
}

// NewCache constructs a Cache.
func NewCache(client *redis.Client) *Cache {
	return &Cache{client: client}
}

// Get returns the cached payload for key, if any.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return data, true
}

// Set stores a payload under key with a TTL.
func (c *Cache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) {
	_ = c.client.Set(ctx, key, data, ttl).Err()
}
