package cache

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/ArubikU/blobcraft/internal/client/objectstore"
)

// EvictionPolicy defines the interface for cache eviction strategies.
type EvictionPolicy interface {
	// OnAccess is called when a cache key is accessed (read).
	OnAccess(key string)
	// OnAdd is called when a new item is successfully added to the cache, it returns the keys that should be evicted.
	OnAdd(key string) []string
	// OnRemove is called when an item is removed from the cache.
	OnRemove(key string)
}

// CacheConfig configures the cache storage.
type CacheConfig struct {
	// Cache is the cache storage client.
	Cache objectstore.Client
	// Primary is the primary storage client (e.g., Storj or S3).
	Primary objectstore.Client
	// EvictionPolicy is the eviction policy for the cache (e.g., LRU with size management).
	EvictionPolicy EvictionPolicy
}

// CacheClient keeps a bounded local copy of objects held by a remote primary.
// The primary is always authoritative, cache failures only cost performance.
type CacheClient struct {
	cache          objectstore.Client
	primary        objectstore.Client
	evictionPolicy EvictionPolicy
}

func NewCacheClient(cfg CacheConfig) (*CacheClient, error) {
	if cfg.Cache == nil {
		return nil, fmt.Errorf("cache storage client is required")
	}
	if cfg.Primary == nil {
		return nil, fmt.Errorf("primary storage client is required")
	}
	if cfg.EvictionPolicy == nil {
		return nil, fmt.Errorf("eviction policy is required")
	}

	return &CacheClient{
		cache:          cfg.Cache,
		primary:        cfg.Primary,
		evictionPolicy: cfg.EvictionPolicy,
	}, nil
}

// Upload writes the content to the cache first and then streams the cached
// copy to the primary, so the source reader is consumed exactly once.
func (c *CacheClient) Upload(ctx context.Context, key string, content io.Reader) error {
	if err := c.cache.Upload(ctx, key, content); err != nil {
		return fmt.Errorf("upload to cache: %w", err)
	}

	cached, err := c.cache.Download(ctx, key)
	if err != nil {
		return fmt.Errorf("reopen cached copy: %w", err)
	}
	defer cached.Close()

	if err := c.primary.Upload(ctx, key, cached); err != nil {
		if delErr := c.cache.Delete(ctx, key); delErr != nil {
			slog.Warn("failed to drop cached copy", "key", key, "error", delErr)
		}
		return fmt.Errorf("upload to primary: %w", err)
	}

	c.added(ctx, key)
	return nil
}

// Download serves from the cache, filling it from the primary on a miss.
func (c *CacheClient) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	reader, err := c.cache.Download(ctx, key)
	if err == nil {
		c.evictionPolicy.OnAccess(key)
		return reader, nil
	}

	primaryReader, err := c.primary.Download(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("get from primary: %w", err)
	}

	fillErr := c.cache.Upload(ctx, key, primaryReader)
	primaryReader.Close()
	if fillErr != nil {
		slog.Warn("failed to cache object", "key", key, "error", fillErr)
		return c.primary.Download(ctx, key)
	}
	c.added(ctx, key)

	// An object larger than the whole cache is evicted right away.
	if reader, err := c.cache.Download(ctx, key); err == nil {
		return reader, nil
	}
	return c.primary.Download(ctx, key)
}

func (c *CacheClient) Delete(ctx context.Context, key string) error {
	if err := c.cache.Delete(ctx, key); err != nil {
		slog.Warn("failed to delete from cache", "key", key, "error", err)
	} else {
		c.evictionPolicy.OnRemove(key)
	}

	if err := c.primary.Delete(ctx, key); err != nil {
		return fmt.Errorf("delete from primary: %w", err)
	}

	return nil
}

func (c *CacheClient) added(ctx context.Context, key string) {
	for _, evictKey := range c.evictionPolicy.OnAdd(key) {
		if err := c.cache.Delete(ctx, evictKey); err != nil {
			slog.Warn("failed to evict cached object", "key", evictKey, "error", err)
		}
	}
}
