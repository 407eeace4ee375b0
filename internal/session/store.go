package session

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/docker/go-units"
	"github.com/google/uuid"

	"github.com/ArubikU/blobcraft/internal/client/objectstore"
	"github.com/ArubikU/blobcraft/internal/model"
	"github.com/ArubikU/blobcraft/internal/utils/blake3"
	"github.com/ArubikU/blobcraft/pkg/chunk"
)

// FinalizeParams describes the object a completed session turns into.
type FinalizeParams struct {
	SessionID string
	Filename  string
	Size      int64
	Meta      model.BlobMeta
}

// Finalizer persists the reassembled payload of a completed session and
// returns the permanent object id. It must fail, persisting nothing, when
// content does not hold exactly params.Size bytes.
type Finalizer interface {
	Finalize(ctx context.Context, params FinalizeParams, content io.Reader) (string, error)
}

type Config struct {
	// Chunks holds chunk bytes until the session is finalized or discarded.
	Chunks    objectstore.Client
	Finalizer Finalizer

	// ChunkSize is used when the client sends no hint.
	ChunkSize int64
	// MinChunkSize and MaxChunkSize bound every chunk size, hinted or not.
	// MaxChunkSize should not exceed the largest request body the server
	// accepts. Zero leaves that side unbounded.
	MinChunkSize int64
	MaxChunkSize int64
	MaxFileSize  int64
	// TTL is how long a session stays open after creation.
	TTL time.Duration
	// Retention is how long terminal sessions stay queryable before the sweeper reaps them.
	Retention time.Duration

	Now func() time.Time
}

type Store struct {
	sessions sync.Map // map[string]*Session

	chunks      objectstore.Client
	finalizer   Finalizer
	chunkSize    int64
	minChunkSize int64
	maxChunkSize int64
	maxFileSize  int64
	ttl          time.Duration
	retention    time.Duration
	now          func() time.Time
}

func NewStore(cfg Config) (*Store, error) {
	if cfg.Chunks == nil {
		return nil, fmt.Errorf("chunk store is required")
	}
	if cfg.Finalizer == nil {
		return nil, fmt.Errorf("finalizer is required")
	}
	if cfg.TTL <= 0 {
		return nil, fmt.Errorf("session ttl must be positive")
	}
	if cfg.MinChunkSize > 0 && cfg.MaxChunkSize > 0 && cfg.MinChunkSize > cfg.MaxChunkSize {
		return nil, fmt.Errorf("min chunk size %d exceeds max chunk size %d", cfg.MinChunkSize, cfg.MaxChunkSize)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Store{
		chunks:       cfg.Chunks,
		finalizer:    cfg.Finalizer,
		chunkSize:    cfg.ChunkSize,
		minChunkSize: cfg.MinChunkSize,
		maxChunkSize: cfg.MaxChunkSize,
		maxFileSize:  cfg.MaxFileSize,
		ttl:          cfg.TTL,
		retention:    cfg.Retention,
		now:          cfg.Now,
	}, nil
}

type CreateParams struct {
	Filename      string
	TotalSize     int64
	ChunkSizeHint int64
	Meta          model.BlobMeta
}

// Created is returned to the client that began a transfer.
type Created struct {
	SessionID   string    `json:"sessionId"`
	ChunkSize   int64     `json:"chunkSize"`
	TotalChunks int       `json:"totalChunks"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

func (s *Store) Create(ctx context.Context, params CreateParams) (Created, error) {
	if params.TotalSize <= 0 {
		return Created{}, model.ErrInvalidSize.Fmt(params.TotalSize)
	}
	if s.maxFileSize > 0 && params.TotalSize > s.maxFileSize {
		return Created{}, model.ErrFileTooLarge.Fmt(params.TotalSize, s.maxFileSize)
	}

	plan, err := chunk.New(params.TotalSize, s.chunkSizeFor(params.ChunkSizeHint))
	if err != nil {
		return Created{}, err
	}

	sess := newSession(uuid.NewString(), params.Filename, plan, params.Meta, s.now(), s.ttl)
	s.sessions.Store(sess.ID, sess)

	slog.Info("upload session created",
		"session", sess.ID,
		"filename", sess.Filename,
		"size", units.HumanSize(float64(plan.TotalSize)),
		"chunks", plan.TotalChunks,
	)

	return Created{
		SessionID:   sess.ID,
		ChunkSize:   plan.ChunkSize,
		TotalChunks: plan.TotalChunks,
		ExpiresAt:   sess.ExpiresAt,
	}, nil
}

// chunkSizeFor clamps the client's hint, or the default without one, to the
// configured bounds. The client learns the result from Created.
func (s *Store) chunkSizeFor(hint int64) int64 {
	size := hint
	if size <= 0 {
		size = s.chunkSize
	}
	if size <= 0 {
		size = chunk.DefaultChunkSize
	}
	if s.minChunkSize > 0 {
		size = max(size, s.minChunkSize)
	}
	if s.maxChunkSize > 0 {
		size = min(size, s.maxChunkSize)
	}
	return size
}

type WriteParams struct {
	SessionID string
	Index     int
	Data      []byte
	// Checksum is an optional blake3 hex digest of Data.
	Checksum string
}

// ChunkResult is the outcome of one chunk write.
type ChunkResult struct {
	SessionID     string  `json:"sessionId"`
	Index         int     `json:"chunkIndex"`
	Percent       float64 `json:"percent"`
	Completed     bool    `json:"completed"`
	FinalObjectID string  `json:"finalObjectId,omitempty"`
}

// WriteChunk stores one chunk. Writing an index that was already stored is a
// no-op. The write that completes the set finalizes the session, and the
// result of that write carries the final object id.
//
// If finalization fails the session stays open with every chunk stored, and
// writing any chunk again retries it.
//
// Writes to a cancelled or expired session fail with ErrSessionClosed until
// Sweep reaps it, one retention window after it closed. From then on the id
// is unknown and writes fail with ErrSessionNotFound.
func (s *Store) WriteChunk(ctx context.Context, params WriteParams) (ChunkResult, error) {
	sess, err := s.get(params.SessionID)
	if err != nil {
		return ChunkResult{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if err := s.checkOpen(ctx, sess); err != nil {
		return ChunkResult{}, err
	}

	if !sess.Plan.Valid(params.Index) {
		return ChunkResult{}, model.ErrChunkIndexOutOfRange.Fmt(sess.ID, params.Index, sess.Plan.TotalChunks)
	}
	if want := sess.Plan.ExpectedSize(params.Index); int64(len(params.Data)) != want {
		return ChunkResult{}, model.ErrChunkSizeMismatch.Fmt(sess.ID, params.Index, len(params.Data), want)
	}

	sum := blake3.Sum(params.Data)
	if params.Checksum != "" && params.Checksum != sum {
		return ChunkResult{}, model.ErrChecksumMismatch.Fmt(sess.ID, params.Index)
	}

	if _, ok := sess.received[params.Index]; !ok {
		if err := s.chunks.Upload(ctx, sess.chunkKey(params.Index), bytes.NewReader(params.Data)); err != nil {
			return ChunkResult{}, fmt.Errorf("store chunk %d of %s: %w", params.Index, sess.ID, err)
		}
		sess.received[params.Index] = sum
		sess.receivedBytes += int64(len(params.Data))

		slog.Debug("chunk stored",
			"session", sess.ID,
			"index", params.Index,
			"received", len(sess.received),
			"total", sess.Plan.TotalChunks,
		)
	}

	if sess.complete() {
		if err := s.finalize(ctx, sess); err != nil {
			return ChunkResult{}, err
		}
	}

	return ChunkResult{
		SessionID:     sess.ID,
		Index:         params.Index,
		Percent:       sess.percent(),
		Completed:     sess.state == StateComplete,
		FinalObjectID: sess.finalObjectID,
	}, nil
}

// Cancel aborts an open session and discards its chunks. Cancelling a
// cancelled or expired session is a no-op, cancelling a complete one fails.
func (s *Store) Cancel(ctx context.Context, sessionID string) error {
	sess, err := s.get(sessionID)
	if err != nil {
		return err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	switch sess.state {
	case StateComplete:
		return model.ErrCannotCancelCompleted.Fmt(sess.ID)
	case StateCancelled, StateExpired:
		return nil
	}

	sess.close(StateCancelled, s.now())
	s.discard(ctx, sess)

	slog.Info("upload session cancelled", "session", sess.ID, "received", len(sess.received))
	return nil
}

// Progress returns a snapshot of the session. Expired sessions are reported
// as not found.
func (s *Store) Progress(ctx context.Context, sessionID string) (Progress, error) {
	sess, err := s.get(sessionID)
	if err != nil {
		return Progress{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	s.expireIfDue(ctx, sess)
	if sess.state == StateExpired {
		return Progress{}, model.ErrSessionNotFound.Fmt(sessionID)
	}

	return sess.progress(), nil
}

// Active returns snapshots of every open session.
func (s *Store) Active() []Progress {
	var out []Progress
	s.sessions.Range(func(_, value any) bool {
		sess := value.(*Session)
		sess.mu.Lock()
		if sess.state == StateOpen {
			out = append(out, sess.progress())
		}
		sess.mu.Unlock()
		return true
	})
	return out
}

type Stats struct {
	ActiveSessions int   `json:"activeSessions"`
	UploadingBytes int64 `json:"uploadingBytes"`
	DeclaredBytes  int64 `json:"declaredBytes"`
}

func (s *Store) Stats() Stats {
	var stats Stats
	for _, p := range s.Active() {
		stats.ActiveSessions++
		stats.UploadingBytes += p.UploadedBytes
		stats.DeclaredBytes += p.TotalSize
	}
	return stats
}

// Has reports whether the store still holds a record for sessionID.
func (s *Store) Has(sessionID string) bool {
	_, ok := s.sessions.Load(sessionID)
	return ok
}

func (s *Store) get(sessionID string) (*Session, error) {
	value, ok := s.sessions.Load(sessionID)
	if !ok {
		return nil, model.ErrSessionNotFound.Fmt(sessionID)
	}
	return value.(*Session), nil
}

// checkOpen must be called with sess.mu held.
func (s *Store) checkOpen(ctx context.Context, sess *Session) error {
	s.expireIfDue(ctx, sess)
	if sess.state != StateOpen {
		return model.ErrSessionClosed.Fmt(sess.ID, sess.state)
	}
	return nil
}

// expireIfDue must be called with sess.mu held.
func (s *Store) expireIfDue(ctx context.Context, sess *Session) bool {
	if sess.state != StateOpen || s.now().Before(sess.ExpiresAt) {
		return false
	}

	sess.close(StateExpired, s.now())
	s.discard(ctx, sess)

	slog.Info("upload session expired",
		"session", sess.ID,
		"filename", sess.Filename,
		"received", len(sess.received),
		"total", sess.Plan.TotalChunks,
	)
	return true
}

// discard deletes stored chunk bytes. Failures are logged, the session is
// already terminal and cannot be written again.
func (s *Store) discard(ctx context.Context, sess *Session) {
	for _, index := range sess.receivedIndices() {
		if err := s.chunks.Delete(context.WithoutCancel(ctx), sess.chunkKey(index)); err != nil {
			slog.Warn("failed to delete chunk", "session", sess.ID, "index", index, "error", err)
		}
	}
}

// finalize must be called with sess.mu held and every chunk received.
func (s *Store) finalize(ctx context.Context, sess *Session) error {
	if sess.state != StateOpen {
		return nil
	}

	slog.Info("finalizing upload session", "session", sess.ID, "filename", sess.Filename)

	pr, pw := io.Pipe()
	go func() {
		for i := 0; i < sess.Plan.TotalChunks; i++ {
			r, err := s.chunks.Download(ctx, sess.chunkKey(i))
			if err != nil {
				pw.CloseWithError(fmt.Errorf("open chunk %d: %w", i, err))
				return
			}
			_, err = io.Copy(pw, r)
			r.Close()
			if err != nil {
				pw.CloseWithError(fmt.Errorf("copy chunk %d: %w", i, err))
				return
			}
		}
		pw.Close()
	}()

	objectID, err := s.finalizer.Finalize(ctx, FinalizeParams{
		SessionID: sess.ID,
		Filename:  sess.Filename,
		Size:      sess.Plan.TotalSize,
		Meta:      sess.Meta,
	}, pr)
	// unblock the copier if the finalizer stopped reading early
	pr.CloseWithError(io.ErrClosedPipe)
	if err != nil {
		return fmt.Errorf("finalize %s: %w", sess.ID, err)
	}

	sess.finalObjectID = objectID
	sess.close(StateComplete, s.now())
	s.discard(ctx, sess)

	slog.Info("upload session complete",
		"session", sess.ID,
		"object", objectID,
		"size", units.HumanSize(float64(sess.Plan.TotalSize)),
	)
	return nil
}
