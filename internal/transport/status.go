package transport

import (
	"errors"
	"net/http"

	"github.com/ArubikU/blobcraft/internal/model"
)

var statuses = []struct {
	err    model.Error
	status int
}{
	{model.ErrValidation, http.StatusBadRequest},
	{model.ErrInvalidSize, http.StatusBadRequest},
	{model.ErrChunkIndexOutOfRange, http.StatusBadRequest},
	{model.ErrChunkSizeMismatch, http.StatusBadRequest},
	{model.ErrChecksumMismatch, http.StatusBadRequest},
	{model.ErrSizeMismatch, http.StatusBadRequest},
	{model.ErrUnauthorized, http.StatusUnauthorized},
	{model.ErrResourceNotFound, http.StatusNotFound},
	{model.ErrSessionNotFound, http.StatusNotFound},
	{model.ErrBlobNotFound, http.StatusNotFound},
	{model.ErrCannotCancelCompleted, http.StatusConflict},
	{model.ErrSessionClosed, http.StatusGone},
	{model.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
	{model.ErrRateLimited, http.StatusTooManyRequests},
	{model.ErrStorageFull, http.StatusInsufficientStorage},
}

// statusOf maps a domain error to its HTTP status.
func statusOf(err error) int {
	for _, s := range statuses {
		if errors.Is(err, s.err) {
			return s.status
		}
	}
	return http.StatusInternalServerError
}
