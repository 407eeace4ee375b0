package sdk

import (
	"context"
	"io"

	"github.com/ArubikU/blobcraft/internal/model"
	"github.com/ArubikU/blobcraft/pkg/chunk"
)

// Resume finishes an interrupted chunked upload by sending only the chunks
// the server is still missing. payload and size must be the ones the session
// was opened with. The session is left open when Resume fails.
func (c *Client) Resume(ctx context.Context, sessionID string, payload io.ReaderAt, size int64, opts UploadOptions) (FinalReference, error) {
	progress, err := c.GetProgress(ctx, sessionID)
	if err != nil {
		return FinalReference{}, err
	}
	if progress.Completed {
		return FinalReference{}, model.ErrAlreadyCompleted.Fmt(sessionID)
	}
	if size != progress.TotalSize {
		return FinalReference{}, model.ErrSizeMismatch.Fmt(size, progress.TotalSize)
	}

	plan, err := chunk.New(progress.TotalSize, progress.ChunkSize)
	if err != nil {
		return FinalReference{}, err
	}

	c.logger.Info("resuming upload",
		"session", sessionID,
		"missing", len(progress.MissingChunks),
		"total", progress.TotalChunks,
	)

	transfer := NewTransfer(c, sessionID, payload, plan, progress.MissingChunks, opts.OnProgress != nil)
	objectID, err := drive(ctx, transfer, opts, model.ErrResumeIncomplete)
	if err != nil {
		id, ok := c.completedDespite(ctx, sessionID, err)
		if !ok {
			return FinalReference{}, err
		}
		objectID = id
	}

	return c.finalReference(objectID, progress.Filename, size, opts.Public), nil
}
