package local

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ArubikU/blobcraft/internal/client/objectstore"
)

func TestLocalClient(t *testing.T) {
	ctx := context.Background()
	client, err := NewClient(LocalConfig{Root: t.TempDir()})
	require.NoError(t, err)

	t.Run("upload then download", func(t *testing.T) {
		require.NoError(t, client.Upload(ctx, "blobs/a", strings.NewReader("hello")))

		r, err := client.Download(ctx, "blobs/a")
		require.NoError(t, err)
		defer r.Close()

		data, err := io.ReadAll(r)
		require.NoError(t, err)
		assert.Equal(t, "hello", string(data))
	})

	t.Run("missing key", func(t *testing.T) {
		_, err := client.Download(ctx, "blobs/missing")
		require.Error(t, err)
		assert.True(t, errors.Is(err, objectstore.ErrNotFound))
	})

	t.Run("path traversal stays under root", func(t *testing.T) {
		require.NoError(t, client.Upload(ctx, "../../escape", strings.NewReader("x")))
		keys, err := client.List(ctx, "")
		require.NoError(t, err)
		assert.Contains(t, keys, "escape")
	})

	t.Run("list by prefix and delete", func(t *testing.T) {
		prefix := objectstore.ChunkPrefix("s1")
		require.NoError(t, client.Upload(ctx, prefix+"0", strings.NewReader("0")))
		require.NoError(t, client.Upload(ctx, prefix+"1", strings.NewReader("1")))

		keys, err := client.List(ctx, prefix)
		require.NoError(t, err)
		assert.Equal(t, []string{prefix + "0", prefix + "1"}, keys)

		for _, key := range keys {
			require.NoError(t, client.Delete(ctx, key))
		}
		keys, err = client.List(ctx, prefix)
		require.NoError(t, err)
		assert.Empty(t, keys)

		// deleting twice is fine
		require.NoError(t, client.Delete(ctx, prefix+"0"))
	})

	t.Run("root is required", func(t *testing.T) {
		_, err := NewClient(LocalConfig{})
		require.Error(t, err)
	})
}
