package service

import (
	"log/slog"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/guregu/null/v6"

	"github.com/ArubikU/blobcraft/internal/db"
	"github.com/ArubikU/blobcraft/internal/model"
)

// BlobInfo is the public view of a stored blob.
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

func toBlobInfo(blob db.Blob) BlobInfo {
	tags := []string{}
	if blob.Tags != "" {
		tags = strings.Split(blob.Tags, ",")
	}

	metadata := map[string]string{}
	if err := sonic.UnmarshalString(blob.Metadata, &metadata); err != nil {
		slog.Warn("failed to decode blob metadata", "id", blob.ID, "error", err)
		metadata = map[string]string{}
	}

	return BlobInfo{
		ID:          blob.ID,
		Filename:    blob.Filename,
		Size:        blob.Size,
		StoredSize:  blob.StoredSize,
		ContentType: blob.ContentType,
		Hash:        blob.FileHash,
		Public:      blob.Public,
		Compressed:  blob.Compressed,
		Tags:        tags,
		Category:    null.StringFromPtr(blob.Category),
		Uploader:    null.StringFromPtr(blob.Uploader),
		Description: null.StringFromPtr(blob.Description),
		Metadata:    metadata,
		UploadedAt:  blob.UploadedAt,
		ExpiresAt:   null.TimeFromPtr(blob.ExpiresAt),
		URL:         model.BlobURL(blob.ID, blob.Public),
	}
}

func reference(blob db.Blob) model.BlobReference {
	return model.BlobReference{
		ID:         blob.ID,
		Filename:   blob.Filename,
		Size:       blob.Size,
		UploadedAt: blob.UploadedAt,
		Public:     blob.Public,
		URL:        model.BlobURL(blob.ID, blob.Public),
	}
}
