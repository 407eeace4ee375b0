package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"

	"github.com/ArubikU/blobcraft/internal/client/objectstore"
	"github.com/ArubikU/blobcraft/internal/db"
	"github.com/ArubikU/blobcraft/internal/model"
	"github.com/ArubikU/blobcraft/internal/utils/compress"
)

type DownloadParams struct {
	ID string `validate:"required"`
	// PublicOnly hides private blobs, as if they did not exist.
	PublicOnly bool
}

type Download struct {
	Blob    BlobInfo
	Content io.ReadCloser
}

// Download opens a blob for reading. Compressed blobs are decoded on the fly.
func (s *Service) Download(ctx context.Context, params DownloadParams) (Download, error) {
	blob, err := s.getBlob(ctx, params.ID)
	if err != nil {
		return Download{}, err
	}
	if params.PublicOnly && !blob.Public {
		return Download{}, model.ErrBlobNotFound.Fmt(params.ID)
	}

	reader, err := s.blobs.Download(ctx, blob.ObjectKey)
	if err != nil {
		if errors.Is(err, objectstore.ErrNotFound) {
			return Download{}, model.ErrBlobNotFound.Fmt(params.ID)
		}
		return Download{}, fmt.Errorf("download blob: %w", err)
	}

	if blob.Compressed {
		reader, err = compress.Decompress(reader)
		if err != nil {
			return Download{}, err
		}
	}

	return Download{Blob: toBlobInfo(blob), Content: reader}, nil
}

// Metadata describes a live blob.
func (s *Service) Metadata(ctx context.Context, id string) (BlobInfo, error) {
	blob, err := s.getBlob(ctx, id)
	if err != nil {
		return BlobInfo{}, err
	}
	return toBlobInfo(blob), nil
}

// getBlob loads a blob row, treating expired blobs as gone.
func (s *Service) getBlob(ctx context.Context, id string) (db.Blob, error) {
	blob, err := s.storage.GetBlob(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return db.Blob{}, model.ErrBlobNotFound.Fmt(id)
		}
		return db.Blob{}, fmt.Errorf("get blob: %w", err)
	}

	if blob.ExpiresAt != nil && !s.now().Before(*blob.ExpiresAt) {
		return db.Blob{}, model.ErrBlobNotFound.Fmt(id)
	}
	return blob, nil
}
