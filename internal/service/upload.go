package service

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/smithy-go/ptr"
	"github.com/bytedance/sonic"
	"github.com/docker/go-units"
	"github.com/google/uuid"
	"github.com/zeebo/blake3"

	"github.com/ArubikU/blobcraft/internal/client/objectstore"
	"github.com/ArubikU/blobcraft/internal/db"
	"github.com/ArubikU/blobcraft/internal/model"
	"github.com/ArubikU/blobcraft/internal/session"
	"github.com/ArubikU/blobcraft/internal/utils/compress"
	"github.com/ArubikU/blobcraft/internal/utils/ioutil"
	"github.com/ArubikU/blobcraft/internal/utils/progressr"
)

const progressLogInterval = 5 * time.Second

type UploadParams struct {
	Filename string `validate:"required,max=255"`
	Size     int64  `validate:"gte=0"`
	Content  io.Reader
	Meta     model.BlobMeta
}

// Upload stores a whole payload in one request.
func (s *Service) Upload(ctx context.Context, params UploadParams) (model.BlobReference, error) {
	blob, err := s.store(ctx, params.Filename, params.Size, params.Meta, params.Content)
	if err != nil {
		return model.BlobReference{}, err
	}
	return reference(blob), nil
}

// Finalize persists the reassembled payload of a completed upload session.
func (s *Service) Finalize(ctx context.Context, params session.FinalizeParams, content io.Reader) (string, error) {
	blob, err := s.store(ctx, params.Filename, params.Size, params.Meta, content)
	if err != nil {
		return "", err
	}
	return blob.ID, nil
}

// store streams content into the blob store and records it. Nothing is kept
// when content does not hold exactly size bytes.
func (s *Service) store(ctx context.Context, filename string, size int64, meta model.BlobMeta, content io.Reader) (db.Blob, error) {
	if size < 0 {
		return db.Blob{}, model.ErrInvalidSize.Fmt(size)
	}
	if s.opts.MaxFileSize > 0 && size > s.opts.MaxFileSize {
		return db.Blob{}, model.ErrFileTooLarge.Fmt(size, s.opts.MaxFileSize)
	}
	if err := s.checkQuota(ctx, size); err != nil {
		return db.Blob{}, err
	}

	id := uuid.NewString()
	key := objectstore.BlobKey(id)

	hasher := blake3.New()
	counted := progressr.NewReader(io.TeeReader(content, hasher), size)
	defer s.watch(ctx, id, filename, counted)()

	compressed := s.opts.Compression && size > 0 && size >= s.opts.CompressionThreshold
	var body io.Reader = counted
	if compressed {
		encoded := compress.Compress(counted, s.opts.CompressionLevel)
		defer encoded.Close()
		body = encoded
	}
	stored := ioutil.NewSizeReader(body)

	if err := s.blobs.Upload(ctx, key, stored); err != nil {
		return db.Blob{}, fmt.Errorf("upload blob: %w", err)
	}

	if counted.Current() != size {
		s.deleteObject(ctx, key)
		return db.Blob{}, model.ErrSizeMismatch.Fmt(counted.Current(), size)
	}

	metadata := meta.Metadata
	if metadata == nil {
		metadata = map[string]string{}
	}
	metadataJSON, err := sonic.MarshalString(metadata)
	if err != nil {
		s.deleteObject(ctx, key)
		return db.Blob{}, fmt.Errorf("encode metadata: %w", err)
	}

	now := s.now().UTC()
	blob, err := s.storage.CreateBlob(ctx, db.CreateBlobParams{
		ID:          id,
		Filename:    filename,
		ObjectKey:   key,
		Size:        counted.Current(),
		StoredSize:  stored.Size,
		ContentType: contentType(filename, meta.ContentType),
		FileHash:    hex.EncodeToString(hasher.Sum(nil)),
		Public:      meta.Public,
		Compressed:  compressed,
		Tags:        strings.Join(meta.Tags, ","),
		Category:    optional(meta.Category),
		Uploader:    optional(meta.Uploader),
		Description: optional(meta.Description),
		Metadata:    metadataJSON,
		UploadedAt:  now,
		ExpiresAt:   s.expiry(meta, now),
	})
	if err != nil {
		s.deleteObject(ctx, key)
		return db.Blob{}, fmt.Errorf("create blob: %w", err)
	}

	slog.Info("blob stored",
		"id", blob.ID,
		"filename", blob.Filename,
		"size", units.HumanSize(float64(blob.Size)),
		"stored", units.HumanSize(float64(blob.StoredSize)),
		"compressed", blob.Compressed,
	)
	return blob, nil
}

// watch logs how far a long running store has come until the returned stop
// func is called.
func (s *Service) watch(ctx context.Context, id, filename string, r *progressr.Reader) (stop func()) {
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(progressLogInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case <-ticker.C:
				slog.Info("storing blob",
					"id", id,
					"filename", filename,
					"stored", units.HumanSize(float64(r.Current())),
					"progress", fmt.Sprintf("%.1f%%", r.Progress()*100),
				)
			}
		}
	}()
	return func() { close(done) }
}

func (s *Service) checkQuota(ctx context.Context, size int64) error {
	if s.opts.MaxStorage <= 0 {
		return nil
	}

	stats, err := s.storage.BlobStats(ctx)
	if err != nil {
		return fmt.Errorf("get blob stats: %w", err)
	}
	if stats.StoredSize+size > s.opts.MaxStorage {
		return model.ErrStorageFull.Fmt(units.HumanSize(float64(size)), units.HumanSize(float64(s.opts.MaxStorage)))
	}
	return nil
}

// expiry applies the default TTL and clamps requested ones to the maximum.
func (s *Service) expiry(meta model.BlobMeta, now time.Time) *time.Time {
	if !s.opts.EnableExpiration {
		return nil
	}

	ttl := s.opts.DefaultTTL
	if meta.TTL.Valid && meta.TTL.Int64 > 0 {
		ttl = time.Duration(meta.TTL.Int64) * time.Second
	}
	if s.opts.MaxTTL > 0 && ttl > s.opts.MaxTTL {
		ttl = s.opts.MaxTTL
	}
	if ttl <= 0 {
		return nil
	}
	return ptr.Time(now.Add(ttl))
}

func (s *Service) deleteObject(ctx context.Context, key string) {
	if err := s.blobs.Delete(context.WithoutCancel(ctx), key); err != nil && !errors.Is(err, objectstore.ErrNotFound) {
		slog.Warn("failed to delete object", "key", key, "error", err)
	}
}

func contentType(filename, declared string) string {
	if declared != "" {
		return declared
	}
	if t := mime.TypeByExtension(filepath.Ext(filename)); t != "" {
		return t
	}
	return "application/octet-stream"
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return ptr.String(value)
}
