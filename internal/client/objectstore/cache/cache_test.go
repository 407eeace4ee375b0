package cache

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ArubikU/blobcraft/internal/client/objectstore/local"
)

type failingClient struct{}

func (failingClient) Upload(context.Context, string, io.Reader) error {
	return errors.New("primary down")
}

func (failingClient) Download(context.Context, string) (io.ReadCloser, error) {
	return nil, errors.New("primary down")
}

func (failingClient) Delete(context.Context, string) error {
	return errors.New("primary down")
}

func newStores(t *testing.T) (*local.ClientImpl, *local.ClientImpl) {
	t.Helper()
	cacheStore, err := local.NewClient(local.LocalConfig{Root: t.TempDir()})
	require.NoError(t, err)
	primary, err := local.NewClient(local.LocalConfig{Root: t.TempDir()})
	require.NoError(t, err)
	return cacheStore, primary
}

func readAll(t *testing.T, r io.ReadCloser) string {
	t.Helper()
	defer r.Close()
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(data)
}

func TestCacheClient(t *testing.T) {
	ctx := context.Background()

	t.Run("upload writes both stores", func(t *testing.T) {
		cacheStore, primary := newStores(t)
		client, err := NewCacheClient(CacheConfig{
			Cache:          cacheStore,
			Primary:        primary,
			EvictionPolicy: NewLRUEvictionPolicy(0, nil),
		})
		require.NoError(t, err)

		require.NoError(t, client.Upload(ctx, "blobs/a", strings.NewReader("payload")))

		r, err := primary.Download(ctx, "blobs/a")
		require.NoError(t, err)
		assert.Equal(t, "payload", readAll(t, r))

		r, err = cacheStore.Download(ctx, "blobs/a")
		require.NoError(t, err)
		assert.Equal(t, "payload", readAll(t, r))
	})

	t.Run("miss fills cache from primary", func(t *testing.T) {
		cacheStore, primary := newStores(t)
		require.NoError(t, primary.Upload(ctx, "blobs/b", strings.NewReader("remote")))

		client, err := NewCacheClient(CacheConfig{
			Cache:          cacheStore,
			Primary:        primary,
			EvictionPolicy: NewLRUEvictionPolicy(0, nil),
		})
		require.NoError(t, err)

		r, err := client.Download(ctx, "blobs/b")
		require.NoError(t, err)
		assert.Equal(t, "remote", readAll(t, r))

		r, err = cacheStore.Download(ctx, "blobs/b")
		require.NoError(t, err)
		assert.Equal(t, "remote", readAll(t, r))
	})

	t.Run("primary failure drops cached copy", func(t *testing.T) {
		cacheStore, _ := newStores(t)
		client, err := NewCacheClient(CacheConfig{
			Cache:          cacheStore,
			Primary:        failingClient{},
			EvictionPolicy: NewLRUEvictionPolicy(0, nil),
		})
		require.NoError(t, err)

		require.Error(t, client.Upload(ctx, "blobs/c", strings.NewReader("x")))
		_, err = cacheStore.Download(ctx, "blobs/c")
		assert.Error(t, err)
	})

	t.Run("evicted keys leave the cache", func(t *testing.T) {
		cacheStore, primary := newStores(t)
		sizes := map[string]int64{"blobs/1": 6, "blobs/2": 6}
		client, err := NewCacheClient(CacheConfig{
			Cache:          cacheStore,
			Primary:        primary,
			EvictionPolicy: NewLRUEvictionPolicy(10, func(key string) int64 { return sizes[key] }),
		})
		require.NoError(t, err)

		require.NoError(t, client.Upload(ctx, "blobs/1", strings.NewReader("111111")))
		require.NoError(t, client.Upload(ctx, "blobs/2", strings.NewReader("222222")))

		_, err = cacheStore.Download(ctx, "blobs/1")
		assert.Error(t, err, "least recently used key should be evicted")

		// still served from primary
		r, err := client.Download(ctx, "blobs/1")
		require.NoError(t, err)
		assert.Equal(t, "111111", readAll(t, r))
	})

	t.Run("config validation", func(t *testing.T) {
		_, err := NewCacheClient(CacheConfig{})
		require.Error(t, err)
	})
}

func TestLRUEvictionPolicy(t *testing.T) {
	sizes := map[string]int64{"a": 4, "b": 4, "c": 4}
	p := NewLRUEvictionPolicy(10, func(key string) int64 { return sizes[key] })

	assert.Empty(t, p.OnAdd("a"))
	assert.Empty(t, p.OnAdd("b"))
	p.OnAccess("a")
	assert.Equal(t, []string{"b"}, p.OnAdd("c"))
	assert.Equal(t, int64(8), p.Size())

	p.OnRemove("a")
	assert.Equal(t, int64(4), p.Size())
	// re-adding an existing key does not double count
	assert.Empty(t, p.OnAdd("c"))
	assert.Equal(t, int64(4), p.Size())
}
