package sdk

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"time"

	"github.com/aws/smithy-go/ptr"

	"github.com/ArubikU/blobcraft/internal/model"
	"github.com/ArubikU/blobcraft/pkg/chunk"
)

// SessionAPI is the part of the server a Transfer talks to.
type SessionAPI interface {
	UploadChunk(ctx context.Context, sessionID string, index int, data []byte) (ChunkResult, error)
	GetProgress(ctx context.Context, sessionID string) (UploadProgress, error)
}

// Transfer sends chunks of a payload to one session, one at a time.
type Transfer struct {
	api       SessionAPI
	sessionID string
	payload   io.ReaderAt
	plan      chunk.Plan
	indices   []int
	detailed  bool
}

// NewTransfer prepares a transfer of the given chunk indices, or of every
// chunk of plan in order when indices is nil. With detailed set, every result
// carries a progress snapshot fetched right after the write.
func NewTransfer(api SessionAPI, sessionID string, payload io.ReaderAt, plan chunk.Plan, indices []int, detailed bool) *Transfer {
	if indices == nil {
		indices = make([]int, plan.TotalChunks)
		for i := range indices {
			indices[i] = i
		}
	}
	return &Transfer{
		api:       api,
		sessionID: sessionID,
		payload:   payload,
		plan:      plan,
		indices:   indices,
		detailed:  detailed,
	}
}

// Chunks sends the chunks in order and yields the server's answer to each.
// The sequence ends after the first error or the first completed result.
// Every range over it starts the transfer again from the first index.
func (t *Transfer) Chunks(ctx context.Context) iter.Seq2[ChunkResult, error] {
	return func(yield func(ChunkResult, error) bool) {
		var buf []byte

		for _, index := range t.indices {
			if err := ctx.Err(); err != nil {
				yield(ChunkResult{}, t.fail(index, err))
				return
			}
			if !t.plan.Valid(index) {
				yield(ChunkResult{}, t.fail(index, model.ErrChunkIndexOutOfRange.Fmt(t.sessionID, index, t.plan.TotalChunks)))
				return
			}

			offset, length := t.plan.Range(index)
			if int64(cap(buf)) < length {
				buf = make([]byte, length)
			}
			data := buf[:length]
			if err := readChunk(t.payload, data, offset); err != nil {
				yield(ChunkResult{}, t.fail(index, err))
				return
			}

			res, err := t.api.UploadChunk(ctx, t.sessionID, index, data)
			if err != nil {
				yield(ChunkResult{}, t.fail(index, err))
				return
			}

			if t.detailed {
				// a missing snapshot does not fail a write the server accepted
				if progress, err := t.api.GetProgress(ctx, t.sessionID); err == nil {
					res.Progress = &progress
				}
			}

			if !yield(res, nil) || res.Completed {
				return
			}
		}
	}
}

func (t *Transfer) fail(index int, err error) error {
	return &TransferError{SessionID: t.sessionID, ChunkIndex: index, Err: err}
}

func readChunk(payload io.ReaderAt, data []byte, offset int64) error {
	n, err := payload.ReadAt(data, offset)
	if n == len(data) {
		return nil
	}
	if err == nil || errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	return fmt.Errorf("read payload at %d: %w", offset, err)
}

// UploadChunked uploads payload through a session, one chunk after the other.
//
// When any step fails the session is cancelled, unless opts.KeepSession is
// set, and the original error is returned. A transport failure on the last
// chunk is not a failure when the server reports the session completed.
func (c *Client) UploadChunked(ctx context.Context, payload io.ReaderAt, size int64, filename string, opts UploadOptions) (FinalReference, error) {
	if err := checkTags(opts.Tags); err != nil {
		return FinalReference{}, err
	}

	hint := opts.ChunkSize
	if hint <= 0 {
		hint = c.chunkSize
	}

	created, err := c.InitUpload(ctx, newInitUploadRequest(filename, size, hint, opts))
	if err != nil {
		return FinalReference{}, err
	}

	objectID, err := c.sendAll(ctx, created, payload, size, opts)
	if err != nil {
		if id, ok := c.completedDespite(ctx, created.SessionID, err); ok {
			return c.finalReference(id, filename, size, opts.Public), nil
		}
		if !opts.KeepSession {
			c.cancelQuietly(ctx, created.SessionID)
		}
		return FinalReference{}, err
	}

	return c.finalReference(objectID, filename, size, opts.Public), nil
}

func (c *Client) sendAll(ctx context.Context, created Session, payload io.ReaderAt, size int64, opts UploadOptions) (string, error) {
	plan, err := chunk.New(size, created.ChunkSize)
	if err != nil {
		return "", err
	}
	if plan.TotalChunks != created.TotalChunks {
		return "", &TransferError{
			SessionID:  created.SessionID,
			ChunkIndex: -1,
			Err:        fmt.Errorf("server planned %d chunks, expected %d", created.TotalChunks, plan.TotalChunks),
		}
	}

	transfer := NewTransfer(c, created.SessionID, payload, plan, nil, opts.OnProgress != nil)
	return drive(ctx, transfer, opts, model.ErrIncompleteTransfer)
}

// drive ranges over a transfer, reporting every accepted chunk to the
// callbacks, and returns the final object id.
func drive(ctx context.Context, t *Transfer, opts UploadOptions, incomplete model.Error) (string, error) {
	for res, err := range t.Chunks(ctx) {
		if err != nil {
			return "", err
		}
		if opts.OnChunk != nil {
			opts.OnChunk(res.Index, res.Percent)
		}
		if opts.OnProgress != nil && res.Progress != nil {
			opts.OnProgress(*res.Progress)
		}
		if res.Completed {
			return res.FinalObjectID, nil
		}
	}
	return "", &TransferError{SessionID: t.sessionID, ChunkIndex: -1, Err: incomplete.Fmt(t.sessionID)}
}

// completedDespite checks whether a session finished even though its transfer
// lost the connection, as happens when the response to the last chunk is cut
// off while the server finalizes the blob.
func (c *Client) completedDespite(ctx context.Context, sessionID string, err error) (string, bool) {
	if !errors.Is(err, model.ErrTransportFailure) {
		return "", false
	}
	progress, perr := c.GetProgress(context.WithoutCancel(ctx), sessionID)
	if perr != nil || !progress.Completed || progress.FinalObjectID == "" {
		return "", false
	}
	c.logger.Info("upload completed despite transport failure", "session", sessionID, "object", progress.FinalObjectID)
	return progress.FinalObjectID, true
}

// cancelQuietly cancels a failed session. Its own failure is only logged.
func (c *Client) cancelQuietly(ctx context.Context, sessionID string) {
	if err := c.CancelUpload(context.WithoutCancel(ctx), sessionID); err != nil {
		c.logger.Warn("failed to cancel upload session", "session", sessionID, "error", err)
	}
}

func (c *Client) finalReference(objectID, filename string, size int64, public bool) FinalReference {
	return FinalReference{
		ID:         objectID,
		Filename:   filename,
		Size:       size,
		UploadedAt: time.Now().UTC(),
		Public:     public,
		URL:        c.absURL(model.BlobURL(objectID, public)),
	}
}

func newInitUploadRequest(filename string, size, chunkSize int64, opts UploadOptions) InitUploadRequest {
	req := InitUploadRequest{
		Filename:    filename,
		TotalSize:   size,
		ChunkSize:   chunkSize,
		Public:      opts.Public,
		ContentType: opts.ContentType,
		Tags:        opts.Tags,
		Category:    opts.Category,
		Uploader:    opts.Uploader,
		Description: opts.Description,
		Metadata:    opts.Metadata,
	}
	if opts.TTL > 0 {
		req.TTL = ptr.Int64(int64(opts.TTL.Seconds()))
	}
	return req
}
