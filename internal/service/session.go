package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ArubikU/blobcraft/internal/client/objectstore"
	"github.com/ArubikU/blobcraft/internal/model"
	"github.com/ArubikU/blobcraft/internal/session"
)

type InitUploadParams struct {
	Filename      string `validate:"required,max=255"`
	TotalSize     int64
	ChunkSizeHint int64 `validate:"gte=0"`
	Meta          model.BlobMeta
}

// InitUpload opens a chunked upload session. The storage quota is checked
// against the declared size up front and again when the session finalizes.
func (s *Service) InitUpload(ctx context.Context, params InitUploadParams) (session.Created, error) {
	if params.TotalSize > 0 {
		if err := s.checkQuota(ctx, params.TotalSize); err != nil {
			return session.Created{}, err
		}
	}

	return s.sessions.Create(ctx, session.CreateParams{
		Filename:      params.Filename,
		TotalSize:     params.TotalSize,
		ChunkSizeHint: params.ChunkSizeHint,
		Meta:          params.Meta,
	})
}

func (s *Service) WriteChunk(ctx context.Context, params session.WriteParams) (session.ChunkResult, error) {
	return s.sessions.WriteChunk(ctx, params)
}

func (s *Service) Progress(ctx context.Context, sessionID string) (session.Progress, error) {
	return s.sessions.Progress(ctx, sessionID)
}

func (s *Service) CancelUpload(ctx context.Context, sessionID string) error {
	return s.sessions.Cancel(ctx, sessionID)
}

func (s *Service) SweepSessions(ctx context.Context) session.SweepResult {
	return s.sessions.Sweep(ctx)
}

// PurgeOrphanChunks deletes chunk bytes whose session the store no longer
// knows, e.g. those left behind by a restart.
func (s *Service) PurgeOrphanChunks(ctx context.Context) (int, error) {
	lister, ok := s.chunks.(objectstore.Lister)
	if !ok {
		return 0, nil
	}

	keys, err := lister.List(ctx, objectstore.ChunkRoot)
	if err != nil {
		return 0, fmt.Errorf("list chunks: %w", err)
	}

	purged := 0
	for _, key := range keys {
		sessionID, _, _ := strings.Cut(strings.TrimPrefix(key, objectstore.ChunkRoot), "/")
		if s.sessions.Has(sessionID) {
			continue
		}
		if err := s.chunks.Delete(ctx, key); err != nil {
			slog.Warn("failed to delete orphan chunk", "key", key, "error", err)
			continue
		}
		purged++
	}

	if purged > 0 {
		slog.Info("orphan chunks purged", "count", purged)
	}
	return purged, nil
}
