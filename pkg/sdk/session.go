package sdk

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/ArubikU/blobcraft/internal/utils/blake3"
)

// InitUpload opens a chunked upload session.
func (c *Client) InitUpload(ctx context.Context, req InitUploadRequest) (Session, error) {
	return doJSON[Session](ctx, c, "/upload/init", req)
}

// UploadChunk writes one chunk with its blake3 checksum. Writing a chunk the
// server already holds is a no-op, so a failed call may simply be repeated.
func (c *Client) UploadChunk(ctx context.Context, sessionID string, index int, data []byte) (ChunkResult, error) {
	header := http.Header{}
	header.Set("X-Chunk-Checksum", blake3.Sum(data))

	path := fmt.Sprintf("/upload/chunk/%s/%d", url.PathEscape(sessionID), index)
	return doPOST[ChunkResult](ctx, c, path, data, "application/octet-stream", header)
}

func (c *Client) GetProgress(ctx context.Context, sessionID string) (UploadProgress, error) {
	return doGET[UploadProgress](ctx, c, "/upload/progress/"+url.PathEscape(sessionID), nil)
}

// CancelUpload aborts a session and discards its chunks.
func (c *Client) CancelUpload(ctx context.Context, sessionID string) error {
	_, err := doDELETE[struct {
		Message string `json:"message"`
	}](ctx, c, "/upload/"+url.PathEscape(sessionID))
	return err
}
