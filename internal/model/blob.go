package model

import (
	"time"

	"github.com/guregu/null/v6"
)

// BlobMeta is the descriptive metadata a client attaches to an upload. It is
// the same for direct and chunked transfers.
type BlobMeta struct {
	Public      bool
	TTL         null.Int64 // seconds, unset means the server default
	ContentType string
	Tags        []string
	Category    string
	Uploader    string
	Description string
	Metadata    map[string]string
}

// BlobReference is the final result of an upload, identical for both paths.
type BlobReference struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploadedAt"`
	Public     bool      `json:"public"`
	URL        string    `json:"url"`
}

// BlobURL is the download location of a blob relative to the server root.
func BlobURL(id string, public bool) string {
	if public {
		return "/public/" + id
	}
	return "/blob/" + id
}
