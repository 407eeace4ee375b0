package service

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	"github.com/ArubikU/blobcraft/config"
	"github.com/ArubikU/blobcraft/internal/client/objectstore"
	"github.com/ArubikU/blobcraft/internal/client/objectstore/cache"
	"github.com/ArubikU/blobcraft/internal/client/objectstore/local"
	"github.com/ArubikU/blobcraft/internal/client/objectstore/s3store"
	"github.com/ArubikU/blobcraft/internal/client/objectstore/stoj"
	"github.com/ArubikU/blobcraft/internal/client/objectstore/sync"
	"github.com/ArubikU/blobcraft/internal/session"
	"github.com/ArubikU/blobcraft/pkg/sqlc"
)

// Options are the storage and upload limits the service enforces.
type Options struct {
	ChunkSize int64
	// MinChunkSize and MaxChunkSize clamp client chunk size hints.
	MinChunkSize int64
	MaxChunkSize int64
	MaxFileSize  int64
	// MaxStorage caps the stored bytes of all blobs, 0 means unlimited.
	MaxStorage int64

	SessionTTL       time.Duration
	SessionRetention time.Duration

	EnableExpiration bool
	DefaultTTL       time.Duration
	MaxTTL           time.Duration

	Compression          bool
	CompressionLevel     int
	CompressionThreshold int64
}

func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		ChunkSize:            config.Bytes(cfg.Upload.ChunkSize),
		MinChunkSize:         config.Bytes(cfg.Upload.MinChunkSize),
		MaxChunkSize:         config.Bytes(cfg.App.MaxRequestSize),
		MaxFileSize:          config.Bytes(cfg.Upload.MaxFileSize),
		MaxStorage:           config.Bytes(cfg.Storage.MaxStorage),
		SessionTTL:           cfg.Upload.SessionTTL,
		SessionRetention:     cfg.Upload.Retention,
		EnableExpiration:     cfg.Storage.EnableExpiration,
		DefaultTTL:           cfg.Storage.DefaultTTL,
		MaxTTL:               cfg.Storage.MaxTTL,
		Compression:          cfg.Storage.Compression.Enabled,
		CompressionLevel:     cfg.Storage.Compression.Level,
		CompressionThreshold: config.Bytes(cfg.Storage.Compression.Threshold),
	}
}

type Deps struct {
	// Blobs holds finalized blobs, Chunks holds in-flight session chunks.
	Blobs  objectstore.Client
	Chunks objectstore.Client
	DB     sqlc.DBTX

	Options Options
	Now     func() time.Time
}

type Service struct {
	blobs    objectstore.Client
	chunks   objectstore.Client
	storage  *sqlc.Storage
	sessions *session.Store

	opts Options
	now  func() time.Time
}

func New(deps Deps) (*Service, error) {
	if deps.Blobs == nil || deps.Chunks == nil {
		return nil, fmt.Errorf("blob and chunk stores are required")
	}
	if deps.DB == nil {
		return nil, fmt.Errorf("database is required")
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	s := &Service{
		blobs:   deps.Blobs,
		chunks:  deps.Chunks,
		storage: sqlc.NewStorage(deps.DB),
		opts:    deps.Options,
		now:     deps.Now,
	}

	sessions, err := session.NewStore(session.Config{
		Chunks:       deps.Chunks,
		Finalizer:    s,
		ChunkSize:    deps.Options.ChunkSize,
		MinChunkSize: deps.Options.MinChunkSize,
		MaxChunkSize: deps.Options.MaxChunkSize,
		MaxFileSize:  deps.Options.MaxFileSize,
		TTL:          deps.Options.SessionTTL,
		Retention:    deps.Options.SessionRetention,
		Now:          deps.Now,
	})
	if err != nil {
		return nil, fmt.Errorf("create session store: %w", err)
	}
	s.sessions = sessions

	return s, nil
}

// NewService wires the object stores selected by config around the database.
func NewService(cfg *config.Config, sqliteDB *sql.DB) (*Service, error) {
	ctx := context.Background()
	storage := sqlc.NewStorage(sqliteDB)

	localStore, err := local.NewClient(local.LocalConfig{
		Root: cfg.Objectstore.Local.Root,
	})
	if err != nil {
		return nil, fmt.Errorf("create local store: %w", err)
	}

	var primary objectstore.Client
	switch cfg.Objectstore.Type {
	case "storj":
		primary, err = stoj.NewClient(ctx, stoj.StorjConfig{
			AccessGrant: cfg.Objectstore.Storj.AccessGrant,
			Bucket:      cfg.Objectstore.Storj.Bucket,
		})
		if err != nil {
			return nil, fmt.Errorf("create storj store: %w", err)
		}
	case "s3":
		primary, err = s3store.NewClient(ctx, s3store.S3Config{
			Region:          cfg.Objectstore.S3.Region,
			Bucket:          cfg.Objectstore.S3.Bucket,
			AccessKeyID:     cfg.Objectstore.S3.AccessKeyID,
			SecretAccessKey: cfg.Objectstore.S3.SecretAccessKey,
			Endpoint:        cfg.Objectstore.S3.Endpoint,
		})
		if err != nil {
			return nil, fmt.Errorf("create s3 store: %w", err)
		}
	default:
		primary = localStore
	}

	if cfg.Objectstore.Type != "local" && cfg.Objectstore.Cache.Enabled {
		cacheStore, err := local.NewClient(local.LocalConfig{
			Root: filepath.Join(cfg.Objectstore.Local.Root, "cache"),
		})
		if err != nil {
			return nil, fmt.Errorf("create cache store: %w", err)
		}

		primary, err = cache.NewCacheClient(cache.CacheConfig{
			Cache:   cacheStore,
			Primary: primary,
			EvictionPolicy: cache.NewLRUEvictionPolicy(
				config.Bytes(cfg.Objectstore.Cache.MaxSize),
				storedSizeLookup(storage),
			),
		})
		if err != nil {
			return nil, fmt.Errorf("create cache store: %w", err)
		}
	}

	blobs, err := sync.NewSyncClient(sync.SyncConfig{Client: primary})
	if err != nil {
		return nil, fmt.Errorf("create sync store: %w", err)
	}

	return New(Deps{
		Blobs:   blobs,
		Chunks:  localStore,
		DB:      sqliteDB,
		Options: OptionsFromConfig(cfg),
	})
}
