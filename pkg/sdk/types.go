package sdk

import (
	"time"

	"github.com/guregu/null/v6"
)

// UploadOptions describe an upload and tune how it is performed.
type UploadOptions struct {
	Public bool
	// TTL is rounded to seconds, 0 leaves the server default.
	TTL         time.Duration
	ContentType string
	Tags        []string
	Category    string
	Uploader    string
	Description string
	Metadata    map[string]string

	// ChunkSize overrides the client's chunk size hint.
	ChunkSize int64
	// Threshold overrides the client's direct versus chunked threshold.
	Threshold int64

	// OnChunk is called after every chunk the server accepted.
	OnChunk func(index int, percent float64)
	// OnProgress receives a server snapshot after every chunk. Setting it
	// costs one progress request per chunk.
	OnProgress func(UploadProgress)

	// KeepSession leaves the session open when a chunked upload fails, so it
	// can be resumed instead of being cancelled.
	KeepSession bool
}

// FinalReference is the result of an upload, identical for both paths.
type FinalReference struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploadedAt"`
	Public     bool      `json:"public"`
	URL        string    `json:"url"`
}

type InitUploadRequest struct {
	Filename    string            `json:"filename"`
	TotalSize   int64             `json:"totalSize"`
	ChunkSize   int64             `json:"chunkSize,omitempty"`
	Public      bool              `json:"public"`
	TTL         *int64            `json:"ttl,omitempty"`
	ContentType string            `json:"contentType,omitempty"`
	Tags        []string          `json:"tags,omitempty"`
	Category    string            `json:"category,omitempty"`
	Uploader    string            `json:"uploader,omitempty"`
	Description string            `json:"description,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

type Session struct {
	SessionID   string    `json:"sessionId"`
	ChunkSize   int64     `json:"chunkSize"`
	TotalChunks int       `json:"totalChunks"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// ChunkResult is the server's answer to one chunk write. Progress is set by a
// Transfer that fetches detailed progress.
type ChunkResult struct {
	SessionID     string          `json:"sessionId"`
	Index         int             `json:"chunkIndex"`
	Percent       float64         `json:"percent"`
	Completed     bool            `json:"completed"`
	FinalObjectID string          `json:"finalObjectId,omitempty"`
	Progress      *UploadProgress `json:"-"`
}

type UploadProgress struct {
	SessionID     string    `json:"sessionId"`
	Filename      string    `json:"filename"`
	TotalSize     int64     `json:"totalSize"`
	UploadedBytes int64     `json:"uploadedBytes"`
	ChunkSize     int64     `json:"chunkSize"`
	TotalChunks   int       `json:"totalChunks"`
	ReceivedCount int       `json:"receivedCount"`
	Percent       float64   `json:"percent"`
	Completed     bool      `json:"completed"`
	Status        string    `json:"status"`
	FinalObjectID string    `json:"finalObjectId,omitempty"`
	MissingChunks []int     `json:"missingChunks"`
	CreatedAt     time.Time `json:"createdAt"`
	ExpiresAt     time.Time `json:"expiresAt"`
}

type BlobInfo struct {
	ID          string            `json:"id"`
	Filename    string            `json:"filename"`
	Size        int64             `json:"size"`
	StoredSize  int64             `json:"storedSize"`
	ContentType string            `json:"contentType"`
	Hash        string            `json:"hash"`
	Public      bool              `json:"public"`
	Compressed  bool              `json:"compressed"`
	Tags        []string          `json:"tags"`
	Category    null.String       `json:"category"`
	Uploader    null.String       `json:"uploader"`
	Description null.String       `json:"description"`
	Metadata    map[string]string `json:"metadata"`
	UploadedAt  time.Time         `json:"uploadedAt"`
	ExpiresAt   null.Time         `json:"expiresAt"`
	URL         string            `json:"url"`
}

type BlobSummary struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	Size        int64     `json:"size"`
	ContentType string    `json:"contentType"`
	Public      bool      `json:"public"`
	UploadedAt  time.Time `json:"uploadedAt"`
	ExpiresAt   null.Time `json:"expiresAt"`
	URL         string    `json:"url"`
}

type ListRequest struct {
	Page   int32
	Limit  int32
	Search string
	Ext    string
}

type BlobPage struct {
	Data       []BlobSummary `json:"data"`
	Pagination struct {
		Page       int32      `json:"page"`
		Limit      int32      `json:"limit"`
		Total      int64      `json:"total"`
		TotalPages int64      `json:"total_pages"`
		NextPage   null.Int32 `json:"next_page"`
	} `json:"pagination"`
}

type Stats struct {
	Blobs           int64   `json:"blobs"`
	PublicBlobs     int64   `json:"publicBlobs"`
	CompressedBlobs int64   `json:"compressedBlobs"`
	TotalSize       int64   `json:"totalSize"`
	StoredSize      int64   `json:"storedSize"`
	MaxStorage      int64   `json:"maxStorage"`
	UsedPercent     float64 `json:"usedPercent"`
	Sessions        struct {
		ActiveSessions int   `json:"activeSessions"`
		UploadingBytes int64 `json:"uploadingBytes"`
		DeclaredBytes  int64 `json:"declaredBytes"`
	} `json:"sessions"`
}
