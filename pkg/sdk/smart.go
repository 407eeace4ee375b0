package sdk

import (
	"context"
	"io"

	"github.com/ArubikU/blobcraft/pkg/chunk"
)

// UploadSmart uploads payload directly when it is at most the threshold and
// through a chunked session otherwise.
func (c *Client) UploadSmart(ctx context.Context, payload io.ReaderAt, size int64, filename string, opts UploadOptions) (FinalReference, error) {
	threshold := opts.Threshold
	if threshold <= 0 {
		threshold = c.threshold
	}

	if chunk.UseChunked(size, threshold) {
		return c.UploadChunked(ctx, payload, size, filename, opts)
	}
	return c.Upload(ctx, filename, io.NewSectionReader(payload, 0, size), opts)
}
