package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/docker/go-units"

	"github.com/ArubikU/blobcraft/internal/db"
	"github.com/ArubikU/blobcraft/internal/model"
	"github.com/ArubikU/blobcraft/internal/session"
	"github.com/ArubikU/blobcraft/pkg/sqlc"
)

type ListParams struct {
	model.PaginationParams
	Search string `validate:"omitempty,max=255"`
	Ext    string `validate:"omitempty,max=16"`
}

func (s *Service) List(ctx context.Context, params ListParams) (model.PaginateResult[BlobInfo], error) {
	now := s.now().UTC()
	ext := strings.TrimPrefix(params.Ext, ".")

	blobs, err := s.storage.ListBlobs(ctx, db.ListBlobsParams{
		Now:    now,
		Search: params.Search,
		Ext:    ext,
		Limit:  int64(params.GetLimit()),
		Offset: int64(params.Offset()),
	})
	if err != nil {
		return model.PaginateResult[BlobInfo]{}, fmt.Errorf("list blobs: %w", err)
	}

	total, err := s.storage.CountBlobs(ctx, db.CountBlobsParams{
		Now:    now,
		Search: params.Search,
		Ext:    ext,
	})
	if err != nil {
		return model.PaginateResult[BlobInfo]{}, fmt.Errorf("count blobs: %w", err)
	}

	data := make([]BlobInfo, 0, len(blobs))
	for _, blob := range blobs {
		data = append(data, toBlobInfo(blob))
	}

	return model.PaginateResult[BlobInfo]{
		PageParams: params.PaginationParams,
		Data:       data,
		Total:      total,
	}, nil
}

// Delete removes a blob's row and then its bytes.
func (s *Service) Delete(ctx context.Context, id string) error {
	var key string
	err := s.storage.InTx(ctx, func(tx *sqlc.TxStorage) error {
		blob, err := tx.GetBlob(ctx, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return model.ErrBlobNotFound.Fmt(id)
			}
			return fmt.Errorf("get blob: %w", err)
		}
		if _, err := tx.DeleteBlob(ctx, id); err != nil {
			return fmt.Errorf("delete blob: %w", err)
		}
		key = blob.ObjectKey
		return nil
	})
	if err != nil {
		return err
	}

	s.deleteObject(ctx, key)
	slog.Info("blob deleted", "id", id)
	return nil
}

const purgeBatch = 100

// PurgeExpired deletes every blob past its expiry and returns how many went.
func (s *Service) PurgeExpired(ctx context.Context) (int, error) {
	purged := 0
	for {
		blobs, err := s.storage.ListExpiredBlobs(ctx, db.ListExpiredBlobsParams{
			Now:   s.now().UTC(),
			Limit: purgeBatch,
		})
		if err != nil {
			return purged, fmt.Errorf("list expired blobs: %w", err)
		}
		if len(blobs) == 0 {
			break
		}

		for _, blob := range blobs {
			if _, err := s.storage.DeleteBlob(ctx, blob.ID); err != nil {
				return purged, fmt.Errorf("delete blob %s: %w", blob.ID, err)
			}
			s.deleteObject(ctx, blob.ObjectKey)
			purged++
		}
	}

	if purged > 0 {
		slog.Info("expired blobs purged", "count", purged)
	}
	return purged, nil
}

type Stats struct {
	Blobs           int64         `json:"blobs"`
	PublicBlobs     int64         `json:"publicBlobs"`
	CompressedBlobs int64         `json:"compressedBlobs"`
	TotalSize       int64         `json:"totalSize"`
	StoredSize      int64         `json:"storedSize"`
	MaxStorage      int64         `json:"maxStorage"`
	UsedPercent     float64       `json:"usedPercent"`
	Human           HumanStats    `json:"human"`
	Sessions        session.Stats `json:"sessions"`
}

type HumanStats struct {
	TotalSize  string `json:"totalSize"`
	StoredSize string `json:"storedSize"`
	MaxStorage string `json:"maxStorage"`
}

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	row, err := s.storage.BlobStats(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("get blob stats: %w", err)
	}

	stats := Stats{
		Blobs:           row.Count,
		PublicBlobs:     row.PublicCount,
		CompressedBlobs: row.CompressedCount,
		TotalSize:       row.TotalSize,
		StoredSize:      row.StoredSize,
		MaxStorage:      s.opts.MaxStorage,
		Human: HumanStats{
			TotalSize:  units.HumanSize(float64(row.TotalSize)),
			StoredSize: units.HumanSize(float64(row.StoredSize)),
			MaxStorage: units.HumanSize(float64(s.opts.MaxStorage)),
		},
		Sessions: s.sessions.Stats(),
	}
	if s.opts.MaxStorage > 0 {
		stats.UsedPercent = float64(row.StoredSize) / float64(s.opts.MaxStorage) * 100
	}
	return stats, nil
}
