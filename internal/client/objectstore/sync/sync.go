package sync

import (
	"context"
	"fmt"
	"io"

	"github.com/ArubikU/blobcraft/internal/client/objectstore"
	"github.com/ArubikU/blobcraft/internal/utils/locker"
)

// SyncConfig configures the synchronized objectstore wrapper.
type SyncConfig struct {
	// Client is the underlying objectstore client to wrap with locking.
	Client objectstore.Client
}

// SyncClient serializes writers and deletes per key while letting readers of
// the same key proceed in parallel. A download holds its read lock until the
// returned reader is closed.
type SyncClient struct {
	client objectstore.Client
	locks  locker.Keyed
}

func NewSyncClient(cfg SyncConfig) (*SyncClient, error) {
	if cfg.Client == nil {
		return nil, fmt.Errorf("client is required")
	}

	return &SyncClient{
		client: cfg.Client,
	}, nil
}

func (c *SyncClient) Upload(ctx context.Context, key string, content io.Reader) error {
	lock := c.locks.Get(key)
	lock.Lock()
	defer lock.Unlock()

	return c.client.Upload(ctx, key, content)
}

func (c *SyncClient) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	lock := c.locks.Get(key)
	lock.RLock()

	file, err := c.client.Download(ctx, key)
	if err != nil {
		lock.RUnlock()
		return nil, fmt.Errorf("download: %w", err)
	}

	return locker.NewReadCloser(file, lock), nil
}

func (c *SyncClient) Delete(ctx context.Context, key string) error {
	lock := c.locks.Get(key)
	lock.Lock()
	defer lock.Unlock()

	return c.client.Delete(ctx, key)
}

// List passes through to the wrapped client when it can list.
func (c *SyncClient) List(ctx context.Context, prefix string) ([]string, error) {
	lister, ok := c.client.(objectstore.Lister)
	if !ok {
		return nil, fmt.Errorf("list: %T cannot list objects", c.client)
	}
	return lister.List(ctx, prefix)
}
