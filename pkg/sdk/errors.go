package sdk

import (
	"fmt"

	"github.com/ArubikU/blobcraft/internal/model"
)

// Error is the coded error the server answers with. Two errors match under
// errors.Is when their codes are equal, so a returned error can be compared
// against the variables below regardless of its message.
type Error = model.Error

var (
	ErrValidation   = model.ErrValidation
	ErrUnauthorized = model.ErrUnauthorized
	ErrRateLimited  = model.ErrRateLimited
	ErrInternal     = model.ErrInternal
)

// Upload protocol errors.
var (
	ErrInvalidSize           = model.ErrInvalidSize
	ErrFileTooLarge          = model.ErrFileTooLarge
	ErrChunkIndexOutOfRange  = model.ErrChunkIndexOutOfRange
	ErrChunkSizeMismatch     = model.ErrChunkSizeMismatch
	ErrChecksumMismatch      = model.ErrChecksumMismatch
	ErrSizeMismatch          = model.ErrSizeMismatch
	ErrSessionNotFound       = model.ErrSessionNotFound
	ErrSessionClosed         = model.ErrSessionClosed
	ErrCannotCancelCompleted = model.ErrCannotCancelCompleted
	ErrIncompleteTransfer    = model.ErrIncompleteTransfer
	ErrResumeIncomplete      = model.ErrResumeIncomplete
	ErrAlreadyCompleted      = model.ErrAlreadyCompleted
	ErrTransportFailure      = model.ErrTransportFailure
)

// Blob errors.
var (
	ErrBlobNotFound = model.ErrBlobNotFound
	ErrStorageFull  = model.ErrStorageFull
	ErrHashMismatch = model.ErrHashMismatch
)

// TransferError locates a failure within a chunked upload. ChunkIndex is -1
// when no single chunk is at fault.
type TransferError struct {
	SessionID  string
	ChunkIndex int
	Err        error
}

func (e *TransferError) Error() string {
	if e.ChunkIndex < 0 {
		return fmt.Sprintf("session %s: %v", e.SessionID, e.Err)
	}
	return fmt.Sprintf("session %s, chunk %d: %v", e.SessionID, e.ChunkIndex, e.Err)
}

func (e *TransferError) Unwrap() error {
	return e.Err
}
