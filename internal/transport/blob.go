package transport

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/ArubikU/blobcraft/internal/model"
	"github.com/ArubikU/blobcraft/internal/service"
	"github.com/ArubikU/blobcraft/pkg/response"
)

// HeaderBlobHash carries the blake3 hex digest of the original bytes.
const HeaderBlobHash = "X-Blob-Hash"

type BlobRequest struct {
	ID string `param:"id" validate:"required"`
}

func (h *Handler) Download(c echo.Context) error {
	return h.download(c, false)
}

func (h *Handler) DownloadPublic(c echo.Context) error {
	return h.download(c, true)
}

func (h *Handler) download(c echo.Context, publicOnly bool) error {
	var req BlobRequest
	if err := c.Bind(&req); err != nil {
		return response.FromError(c.Response(), http.StatusBadRequest, model.ErrValidation.Fmt(err.Error()))
	}
	if err := c.Validate(&req); err != nil {
		return response.FromError(c.Response(), http.StatusBadRequest, err)
	}

	dl, err := h.svc.Download(c.Request().Context(), service.DownloadParams{
		ID:         req.ID,
		PublicOnly: publicOnly,
	})
	if err != nil {
		return response.FromError(c.Response(), statusOf(err), err)
	}
	defer dl.Content.Close()

	header := c.Response().Header()
	header.Set(echo.HeaderContentLength, strconv.FormatInt(dl.Blob.Size, 10))
	header.Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", dl.Blob.Filename))
	header.Set(HeaderBlobHash, dl.Blob.Hash)

	return c.Stream(http.StatusOK, dl.Blob.ContentType, dl.Content)
}

func (h *Handler) Metadata(c echo.Context) error {
	var req BlobRequest
	if err := c.Bind(&req); err != nil {
		return response.FromError(c.Response(), http.StatusBadRequest, model.ErrValidation.Fmt(err.Error()))
	}

	info, err := h.svc.Metadata(c.Request().Context(), req.ID)
	if err != nil {
		return response.FromError(c.Response(), statusOf(err), err)
	}
	return response.FromDTO(c.Response(), http.StatusOK, info)
}

func (h *Handler) DeleteBlob(c echo.Context) error {
	var req BlobRequest
	if err := c.Bind(&req); err != nil {
		return response.FromError(c.Response(), http.StatusBadRequest, model.ErrValidation.Fmt(err.Error()))
	}

	if err := h.svc.Delete(c.Request().Context(), req.ID); err != nil {
		return response.FromError(c.Response(), statusOf(err), err)
	}
	return response.FromMessage(c.Response(), http.StatusOK, "Blob deleted")
}
