package model

import "fmt"

type ErrorWithCode interface {
	Error() string
	Code() string
}

type Error struct {
	ErrCode string `json:"code"`
	Message string `json:"message"`

	cause error
}

func (e Error) Error() string {
	return e.Message
}

func (e Error) Code() string {
	return e.ErrCode
}

// Is reports whether target carries the same code, so formatted errors still
// match their template with errors.Is.
func (e Error) Is(target error) bool {
	t, ok := target.(Error)
	if !ok {
		return false
	}
	return t.ErrCode == e.ErrCode
}

func (e Error) Unwrap() error {
	return e.cause
}

// Fmt creates a new error from the base error template with provided arguments
func (e Error) Fmt(args ...any) Error {
	return Error{
		ErrCode: e.ErrCode,
		Message: fmt.Sprintf(e.Message, args...),
		cause:   e.cause,
	}
}

// Wrap attaches an underlying cause, reachable through errors.Unwrap.
func (e Error) Wrap(err error) Error {
	e.cause = err
	return e
}

func NewError(code, message string) Error {
	return Error{
		ErrCode: code,
		Message: message,
	}
}

var (
	ErrValidation       = NewError("validation", "Validation error: %s")
	ErrResourceNotFound = NewError("resource.not_found", "Resource not found")
	ErrUnauthorized     = NewError("auth.unauthorized", "Missing or invalid access key")
	ErrRateLimited      = NewError("rate_limited", "Too many requests")
	ErrInternal         = NewError("internal", "%s")
)

// Upload protocol errors.
var (
	ErrInvalidSize           = NewError("upload.invalid_size", "Invalid size: %d")
	ErrFileTooLarge          = NewError("upload.file_too_large", "File size %d exceeds maximum allowed size %d")
	ErrChunkIndexOutOfRange  = NewError("upload.chunk_index_out_of_range", "Session %s: chunk %d out of range [0, %d)")
	ErrChunkSizeMismatch     = NewError("upload.chunk_size_mismatch", "Session %s: chunk %d has %d bytes, expected %d")
	ErrChecksumMismatch      = NewError("upload.checksum_mismatch", "Session %s: chunk %d checksum mismatch")
	ErrSizeMismatch          = NewError("upload.size_mismatch", "Received %d bytes, expected %d")
	ErrSessionNotFound       = NewError("upload.session_not_found", "Upload session %s not found")
	ErrSessionClosed         = NewError("upload.session_closed", "Upload session %s is %s")
	ErrCannotCancelCompleted = NewError("upload.cannot_cancel_completed", "Upload session %s is already complete")
	ErrIncompleteTransfer    = NewError("upload.incomplete_transfer", "Session %s: all chunks sent but server never reported completion")
	ErrResumeIncomplete      = NewError("upload.resume_incomplete", "Session %s: missing chunks sent but server never reported completion")
	ErrAlreadyCompleted      = NewError("upload.already_completed", "Upload session %s is already complete")
	ErrTransportFailure      = NewError("upload.transport_failure", "Transport failure: %s")
)

// Blob errors.
var (
	ErrBlobNotFound = NewError("blob.not_found", "Blob %s not found")
	ErrStorageFull  = NewError("storage.full", "Storing %s would exceed the storage limit of %s")
	ErrHashMismatch = NewError("blob.hash_mismatch", "Blob %s: hash mismatch, expected %s, got %s")
)
