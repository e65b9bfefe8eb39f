package memory

import (
	"context"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"accountapp/internal/core/port"
)

type memoryRepository struct {
	store *cache.Cache
}

// NewMemoryRepository keeps entries in process memory. It is the cache used
// when no Redis URL is configured, so revocations do not survive restarts.
func NewMemoryRepository(cleanupInterval time.Duration) port.CacheRepository {
	return &memoryRepository{
		store: cache.New(cache.NoExpiration, cleanupInterval),
	}
}

func (c *memoryRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}

	stored := make([]byte, len(value))
	copy(stored, value)

	c.store.Set(key, stored, ttl)
	return nil
}

func (c *memoryRepository) Get(ctx context.Context, key string) ([]byte, error) {
	value, found := c.store.Get(key)

	if !found {
		return nil, port.ErrCacheMiss
	}

	return value.([]byte), nil
}

func (c *memoryRepository) Delete(ctx context.Context, key string) error {
	c.store.Delete(key)
	return nil
}

func (c *memoryRepository) DeleteByPrefix(ctx context.Context, prefix string) error {
	for key := range c.store.Items() {
		if strings.HasPrefix(key, prefix) {
			c.store.Delete(key)
		}
	}

	return nil
}

func (c *memoryRepository) Close() error {
	c.store.Flush()
	return nil
}
