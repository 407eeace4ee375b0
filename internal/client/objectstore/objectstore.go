package objectstore

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned by Download when the key does not exist.
var ErrNotFound = errors.New("object not found")

type Client interface {
	Upload(ctx context.Context, key string, content io.Reader) error
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// Lister is implemented by stores that can enumerate keys under a prefix.
type Lister interface {
	List(ctx context.Context, prefix string) ([]string, error)
}

// BlobKey is where a finalized blob's bytes live.
func BlobKey(id string) string {
	return "blobs/" + id
}

// ChunkRoot holds the chunks of every upload session.
const ChunkRoot = "chunks/"

// ChunkPrefix is the directory holding the chunks of one upload session.
func ChunkPrefix(sessionID string) string {
	return ChunkRoot + sessionID + "/"
}
