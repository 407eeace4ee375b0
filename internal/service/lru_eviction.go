package service

import (
	"context"
	"log/slog"

	"github.com/ArubikU/blobcraft/internal/client/objectstore/cache"
	"github.com/ArubikU/blobcraft/pkg/sqlc"
)

// storedSizeLookup sizes cache entries from the blob metadata. A blob cached
// on upload has no row yet and counts as 0 until it is read back.
func storedSizeLookup(storage *sqlc.Storage) cache.SizeFunc {
	return func(key string) int64 {
		blob, err := storage.GetBlobByObjectKey(context.Background(), key)
		if err != nil {
			slog.Debug("cache size lookup failed", "key", key, "error", err)
			return 0
		}
		return blob.StoredSize
	}
}
