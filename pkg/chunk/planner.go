// Package chunk splits a payload into fixed-size chunks and decides whether a
// payload is large enough to need a chunked transfer at all.
package chunk

import (
	"github.com/ArubikU/blobcraft/internal/model"
)

const (
	// DefaultChunkSize is the size of every chunk but the last when no hint is given.
	DefaultChunkSize int64 = 12 << 20
	// DefaultThreshold is the payload size above which a chunked transfer is used.
	DefaultThreshold int64 = 50 << 20
)

// Plan describes how a payload of TotalSize bytes is cut into chunks.
type Plan struct {
	TotalSize   int64 `json:"totalSize"`
	ChunkSize   int64 `json:"chunkSize"`
	TotalChunks int   `json:"totalChunks"`
}

// New computes the plan for totalSize bytes. A non-positive chunkSizeHint
// selects DefaultChunkSize. An empty payload has zero chunks.
func New(totalSize, chunkSizeHint int64) (Plan, error) {
	if totalSize < 0 {
		return Plan{}, model.ErrInvalidSize.Fmt(totalSize)
	}

	chunkSize := chunkSizeHint
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	return Plan{
		TotalSize:   totalSize,
		ChunkSize:   chunkSize,
		TotalChunks: int((totalSize + chunkSize - 1) / chunkSize),
	}, nil
}

// Valid reports whether index addresses a chunk of the plan.
func (p Plan) Valid(index int) bool {
	return index >= 0 && index < p.TotalChunks
}

// Range returns the byte offset and length of chunk index.
func (p Plan) Range(index int) (offset, length int64) {
	if !p.Valid(index) {
		return 0, 0
	}
	offset = int64(index) * p.ChunkSize
	length = min(p.ChunkSize, p.TotalSize-offset)
	return offset, length
}

// ExpectedSize is the payload length chunk index must have.
func (p Plan) ExpectedSize(index int) int64 {
	_, length := p.Range(index)
	return length
}

// UseChunked reports whether totalSize needs a chunked transfer under threshold.
// A non-positive threshold selects DefaultThreshold.
func UseChunked(totalSize, threshold int64) bool {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return totalSize > threshold
}
